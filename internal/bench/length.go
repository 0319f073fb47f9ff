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

// LengthOptions configure a text-length benchmark run.
type LengthOptions struct {
	// InputFile supplies the source text; samples are taken from its
	// start at growing lengths.
	InputFile string

	// OutputDir receives the per-length WAV files and the results CSV.
	OutputDir string

	// MaxChars is the largest sample tested. Default 3000.
	MaxChars int

	// Step grows the sample between runs. Default 250.
	Step int

	// Params are the sampling parameters used for every run.
	Params tts.SynthesisParams
}

// LengthResult is one row of the length benchmark.
type LengthResult struct {
	Length    int
	Tokens    int
	Success   bool
	Elapsed   time.Duration
	AudioFile string
}

// LengthReport summarizes a full run.
type LengthReport struct {
	Results             []LengthResult
	MaxSuccessfulLength int
	MaxSuccessfulTokens int

	// RecommendedLength keeps a 10% safety margin below the largest
	// successful sample. Calibration heuristic, not a pipeline limit.
	RecommendedLength int
}

// RunLength synthesizes progressively longer samples of the input until the
// first failure, saving each result, and reports the largest size that
// succeeded. Larger sizes are not probed past a failure.
func RunLength(ctx context.Context, synth Synthesizer, opts LengthOptions) (*LengthReport, error) {
	if opts.MaxChars <= 0 {
		opts.MaxChars = 3000
	}
	if opts.Step <= 0 {
		opts.Step = 250
	}

	raw, err := os.ReadFile(opts.InputFile)
	if err != nil {
		return nil, fmt.Errorf("read input file: %w", err)
	}
	fullText := string(raw)

	dir := filepath.Join(opts.OutputDir, "length_test")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	limit := opts.MaxChars
	if len(fullText) < limit {
		limit = len(fullText)
	}

	report := &LengthReport{}
	for length := opts.Step; length <= limit; length += opts.Step {
		text, actual := sample(fullText, length)
		tokens := tts.EstimateTokens(text, opts.Params.Voice)
		log.Info("testing sample length", "chars", actual, "tokens", tokens)

		start := time.Now()
		wav, err := synth.Synthesize(ctx, text, opts.Params)
		elapsed := time.Since(start)

		res := LengthResult{Length: actual, Tokens: tokens, Elapsed: elapsed}
		if err != nil {
			log.Warn("sample failed", "chars", actual, "err", err)
			res.Elapsed = 0
		} else {
			res.Success = true
			res.AudioFile = fmt.Sprintf("length_%d.wav", actual)
			path := filepath.Join(dir, res.AudioFile)
			if err := os.WriteFile(path, wav, 0o644); err != nil { //nolint:gosec
				return nil, fmt.Errorf("save audio sample: %w", err)
			}
			log.Info("sample succeeded",
				"chars", actual,
				"elapsed", elapsed.Round(10*time.Millisecond),
				"size", humanize.Bytes(uint64(len(wav))))
			if actual > report.MaxSuccessfulLength {
				report.MaxSuccessfulLength = actual
				report.MaxSuccessfulTokens = tokens
			}
		}
		report.Results = append(report.Results, res)

		// No point probing larger sizes once one has failed.
		if !res.Success {
			break
		}
	}

	report.RecommendedLength = report.MaxSuccessfulLength * 9 / 10

	if err := writeLengthCSV(filepath.Join(dir, "length_results.csv"), report.Results); err != nil {
		return nil, err
	}
	return report, nil
}

func writeLengthCSV(path string, results []LengthResult) error {
	header := []string{"Length (chars)", "Tokens", "Success", "Time (s)", "Audio File"}
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		file := r.AudioFile
		if !r.Success {
			file = "failed"
		}
		rows = append(rows, []string{
			strconv.Itoa(r.Length),
			strconv.Itoa(r.Tokens),
			strconv.FormatBool(r.Success),
			fmt.Sprintf("%.2f", r.Elapsed.Seconds()),
			file,
		})
	}
	return writeCSV(path, header, rows)
}

// Summary renders a human-readable recap of the run.
func (r *LengthReport) Summary() string {
	succeeded := 0
	for _, res := range r.Results {
		if res.Success {
			succeeded++
		}
	}
	return fmt.Sprintf(
		"%s of %s samples succeeded\nmaximum successful length: %d characters (%d tokens)\nrecommended maximum length: %d characters",
		humanize.Comma(int64(succeeded)),
		humanize.Comma(int64(len(r.Results))),
		r.MaxSuccessfulLength,
		r.MaxSuccessfulTokens,
		r.RecommendedLength,
	)
}
