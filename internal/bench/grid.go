package bench

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"

	"github.com/skald-tts/skald/tts"
)

// Default parameter ranges for the grid search.
var (
	DefaultGridTemperatures    = []float64{0.3, 0.6, 0.9, 1.2}
	DefaultGridTopPs           = []float64{0.3, 0.6, 0.8, 0.95}
	DefaultGridRepeatPenalties = []float64{1.1, 1.3, 1.5, 1.8}
)

// defaultAvgRunTime seeds the runtime estimate before any run finishes.
const defaultAvgRunTime = 50 * time.Second

// GridOptions configure a parameter grid search.
type GridOptions struct {
	// Text is synthesized for every combination. Long text is trimmed
	// to SampleDuration's worth of speech.
	Text string

	// SampleDuration targets the per-sample audio length in seconds.
	// Zero keeps the text untrimmed.
	SampleDuration float64

	// Voices to sweep; defaults to all available voices.
	Voices []string

	Temperatures    []float64
	TopPs           []float64
	RepeatPenalties []float64

	// MaxTokens caps generation per sample to keep runs bounded.
	MaxTokens int

	// OutputDir is the base directory; each run gets a timestamped
	// subdirectory.
	OutputDir string
}

func (o *GridOptions) fillDefaults() {
	if len(o.Voices) == 0 {
		o.Voices = tts.AvailableVoices
	}
	if len(o.Temperatures) == 0 {
		o.Temperatures = DefaultGridTemperatures
	}
	if len(o.TopPs) == 0 {
		o.TopPs = DefaultGridTopPs
	}
	if len(o.RepeatPenalties) == 0 {
		o.RepeatPenalties = DefaultGridRepeatPenalties
	}
	if o.MaxTokens <= 0 {
		o.MaxTokens = 8192
	}
}

// Combinations returns the number of runs the grid will perform.
func (o GridOptions) Combinations() int {
	o.fillDefaults()
	return len(o.Voices) * len(o.Temperatures) * len(o.TopPs) * len(o.RepeatPenalties)
}

// EstimateRuntime projects the total wall time for the sweep.
func (o GridOptions) EstimateRuntime() time.Duration {
	return time.Duration(o.Combinations()) * defaultAvgRunTime
}

// GridResult records a single combination's outcome.
type GridResult struct {
	Voice         string
	Temperature   float64
	TopP          float64
	RepeatPenalty float64
	Success       bool
	Elapsed       time.Duration
	AudioFile     string
	AudioBytes    int
}

// RunGrid sweeps every voice and parameter combination sequentially,
// writing one WAV artifact per combination and a summary CSV. It returns
// the results and the run directory. Individual failures are recorded and
// the sweep continues.
func RunGrid(ctx context.Context, synth Synthesizer, opts GridOptions) ([]GridResult, string, error) {
	opts.fillDefaults()

	text := opts.Text
	if opts.SampleDuration > 0 {
		text = truncateForDuration(text, opts.SampleDuration)
	}

	runDir := filepath.Join(opts.OutputDir, "run_"+time.Now().Format("20060102_150405"))
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return nil, "", fmt.Errorf("create run directory: %w", err)
	}

	total := opts.Combinations()
	log.Info("starting grid search",
		"combinations", total,
		"estimated", opts.EstimateRuntime().Round(time.Minute))

	var results []GridResult
	start := time.Now()
	run := 0
	for _, voice := range opts.Voices {
		voiceDir := filepath.Join(runDir, voice)
		if err := os.MkdirAll(voiceDir, 0o755); err != nil {
			return nil, "", fmt.Errorf("create voice directory: %w", err)
		}
		for _, temp := range opts.Temperatures {
			for _, topP := range opts.TopPs {
				for _, rp := range opts.RepeatPenalties {
					if err := ctx.Err(); err != nil {
						return results, runDir, err
					}
					run++
					res := runCombination(ctx, synth, text, voiceDir, voice, temp, topP, rp, opts.MaxTokens)
					results = append(results, res)

					elapsed := time.Since(start)
					remaining := elapsed/time.Duration(run)*time.Duration(total) - elapsed
					log.Info("grid progress",
						"run", fmt.Sprintf("%d/%d", run, total),
						"voice", voice,
						"temp", temp,
						"top_p", topP,
						"rep_penalty", rp,
						"ok", res.Success,
						"eta", remaining.Round(time.Second))
				}
			}
		}
	}

	if err := writeGridCSV(filepath.Join(runDir, "results.csv"), results); err != nil {
		return nil, "", err
	}
	return results, runDir, nil
}

func runCombination(ctx context.Context, synth Synthesizer, text, dir, voice string, temp, topP, rp float64, maxTokens int) GridResult {
	res := GridResult{Voice: voice, Temperature: temp, TopP: topP, RepeatPenalty: rp}
	res.AudioFile = fmt.Sprintf("%s_temp_%.1f_top_p_%.2f_rep_penalty_%.1f.wav", voice, temp, topP, rp)

	start := time.Now()
	wav, err := synth.Synthesize(ctx, text, tts.SynthesisParams{
		Voice:         voice,
		Temperature:   temp,
		TopP:          topP,
		RepeatPenalty: rp,
		MaxTokens:     maxTokens,
	})
	res.Elapsed = time.Since(start)
	if err != nil {
		log.Warn("combination failed",
			"voice", voice, "temp", temp, "top_p", topP, "rep_penalty", rp, "err", err)
		res.AudioFile = ""
		return res
	}
	if err := os.WriteFile(filepath.Join(dir, res.AudioFile), wav, 0o644); err != nil { //nolint:gosec
		log.Warn("could not save combination audio", "file", res.AudioFile, "err", err)
		res.AudioFile = ""
		return res
	}
	res.Success = true
	res.AudioBytes = len(wav)
	return res
}

func writeGridCSV(path string, results []GridResult) error {
	header := []string{"Voice", "Temperature", "Top-p", "Repetition Penalty", "Success", "Time (s)", "Audio Size", "Audio File"}
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		rows = append(rows, []string{
			r.Voice,
			fmt.Sprintf("%.1f", r.Temperature),
			fmt.Sprintf("%.2f", r.TopP),
			fmt.Sprintf("%.1f", r.RepeatPenalty),
			strconv.FormatBool(r.Success),
			fmt.Sprintf("%.2f", r.Elapsed.Seconds()),
			strconv.Itoa(r.AudioBytes),
			r.AudioFile,
		})
	}
	return writeCSV(path, header, rows)
}

// GridSummary renders a human-readable recap of a sweep.
func GridSummary(results []GridResult, runDir string) string {
	succeeded := 0
	var totalBytes uint64
	for _, r := range results {
		if r.Success {
			succeeded++
			totalBytes += uint64(r.AudioBytes)
		}
	}
	return fmt.Sprintf("%d of %d combinations succeeded (%s of audio), results in %s",
		succeeded, len(results), humanize.Bytes(totalBytes), runDir)
}
