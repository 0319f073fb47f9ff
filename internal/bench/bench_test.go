package bench

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/skald-tts/skald/tts"
)

// fakeSynth returns a fixed WAV payload until failAfter samples have run,
// then fails every call.
type fakeSynth struct {
	calls     int
	failAfter int // 0 means never fail
	texts     []string
	params    []tts.SynthesisParams
}

func (f *fakeSynth) Synthesize(_ context.Context, text string, params tts.SynthesisParams) ([]byte, error) {
	f.calls++
	f.texts = append(f.texts, text)
	f.params = append(f.params, params)
	if f.failAfter > 0 && f.calls > f.failAfter {
		return nil, errors.New("generation degraded")
	}
	return make([]byte, 256), nil
}

func TestSample(t *testing.T) {
	text, n := sample("hello world", 5)
	if text != "hello" || n != 5 {
		t.Errorf("sample = (%q, %d)", text, n)
	}
	text, n = sample("short", 100)
	if text != "short" || n != 5 {
		t.Errorf("sample beyond length = (%q, %d)", text, n)
	}
}

func TestTruncateForDuration(t *testing.T) {
	text := "First sentence here. Second sentence goes on a bit longer. Third one."
	got := truncateForDuration(text, 1.0) // ~25 chars
	if got != "First sentence here." {
		t.Errorf("got %q", got)
	}

	if got := truncateForDuration("short", 10); got != "short" {
		t.Errorf("short text trimmed: %q", got)
	}
	if got := truncateForDuration(text, 0); got != text {
		t.Errorf("zero duration trimmed: %q", got)
	}

	// No sentence boundary inside the cut: hard character cut.
	long := strings.Repeat("x", 100)
	if got := truncateForDuration(long, 1.0); len(got) != 25 {
		t.Errorf("hard cut length = %d, want 25", len(got))
	}
}

func TestGridOptionsDefaults(t *testing.T) {
	var o GridOptions
	if got := o.Combinations(); got != 8*4*4*4 {
		t.Errorf("default combinations = %d, want %d", got, 8*4*4*4)
	}

	o = GridOptions{
		Voices:          []string{"tara", "leo"},
		Temperatures:    []float64{0.5},
		TopPs:           []float64{0.8, 0.9},
		RepeatPenalties: []float64{1.1},
	}
	if got := o.Combinations(); got != 4 {
		t.Errorf("combinations = %d, want 4", got)
	}
	if o.EstimateRuntime() != 4*defaultAvgRunTime {
		t.Errorf("estimate = %v", o.EstimateRuntime())
	}
}

func TestRunGrid(t *testing.T) {
	synth := &fakeSynth{}
	dir := t.TempDir()

	opts := GridOptions{
		Text:            "A calibration sentence.",
		Voices:          []string{"tara", "leo"},
		Temperatures:    []float64{0.5},
		TopPs:           []float64{0.8},
		RepeatPenalties: []float64{1.1, 1.3},
		OutputDir:       dir,
	}
	results, runDir, err := RunGrid(context.Background(), synth, opts)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 4 {
		t.Fatalf("got %d results, want 4", len(results))
	}
	for _, r := range results {
		if !r.Success {
			t.Errorf("combination failed: %+v", r)
		}
		if r.AudioBytes != 256 {
			t.Errorf("audio bytes = %d", r.AudioBytes)
		}
		if _, err := os.Stat(filepath.Join(runDir, r.Voice, r.AudioFile)); err != nil {
			t.Errorf("missing audio artifact: %v", err)
		}
	}
	if _, err := os.Stat(filepath.Join(runDir, "results.csv")); err != nil {
		t.Errorf("missing results csv: %v", err)
	}

	// Each call carried its combination's parameters.
	if synth.params[0].Voice != "tara" || synth.params[2].Voice != "leo" {
		t.Errorf("voices out of order: %+v", synth.params)
	}
	if synth.params[0].RepeatPenalty != 1.1 || synth.params[1].RepeatPenalty != 1.3 {
		t.Errorf("penalties out of order: %+v", synth.params)
	}
}

func TestRunGridRecordsFailures(t *testing.T) {
	synth := &fakeSynth{failAfter: 1}
	opts := GridOptions{
		Text:            "A calibration sentence.",
		Voices:          []string{"tara"},
		Temperatures:    []float64{0.5, 0.9},
		TopPs:           []float64{0.8},
		RepeatPenalties: []float64{1.1},
		OutputDir:       t.TempDir(),
	}
	results, _, err := RunGrid(context.Background(), synth, opts)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if !results[0].Success || results[1].Success {
		t.Errorf("results = %+v", results)
	}
}

func TestRunGridCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	synth := &fakeSynth{}
	_, _, err := RunGrid(ctx, synth, GridOptions{Text: "x", OutputDir: t.TempDir()})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if synth.calls != 0 {
		t.Errorf("synthesis ran after cancellation: %d calls", synth.calls)
	}
}

func TestRunLength(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "input.txt")
	if err := os.WriteFile(input, []byte(strings.Repeat("Sample text here. ", 60)), 0o600); err != nil {
		t.Fatal(err)
	}

	synth := &fakeSynth{failAfter: 3}
	report, err := RunLength(context.Background(), synth, LengthOptions{
		InputFile: input,
		OutputDir: dir,
		MaxChars:  1000,
		Step:      250,
		Params:    tts.SynthesisParams{Voice: "tara"},
	})
	if err != nil {
		t.Fatal(err)
	}

	// Steps 250, 500, 750 succeed; 1000 fails and stops the probe.
	if len(report.Results) != 4 {
		t.Fatalf("got %d results, want 4", len(report.Results))
	}
	if report.MaxSuccessfulLength != 750 {
		t.Errorf("max successful length = %d, want 750", report.MaxSuccessfulLength)
	}
	if report.RecommendedLength != 675 {
		t.Errorf("recommended length = %d, want 675", report.RecommendedLength)
	}
	if report.Results[3].Success {
		t.Error("final result should be the failure")
	}

	for _, res := range report.Results[:3] {
		if _, err := os.Stat(filepath.Join(dir, "length_test", res.AudioFile)); err != nil {
			t.Errorf("missing audio sample: %v", err)
		}
	}
	if _, err := os.Stat(filepath.Join(dir, "length_test", "length_results.csv")); err != nil {
		t.Errorf("missing results csv: %v", err)
	}

	if s := report.Summary(); !strings.Contains(s, "675") {
		t.Errorf("summary omits the recommendation: %s", s)
	}
}

func TestRunLengthMissingInput(t *testing.T) {
	_, err := RunLength(context.Background(), &fakeSynth{}, LengthOptions{
		InputFile: filepath.Join(t.TempDir(), "nope.txt"),
		OutputDir: t.TempDir(),
	})
	if err == nil {
		t.Fatal("expected an error for a missing input file")
	}
}

func TestGridSummary(t *testing.T) {
	results := []GridResult{
		{Success: true, AudioBytes: 1024},
		{Success: false},
		{Success: true, AudioBytes: 1024},
	}
	s := GridSummary(results, "/tmp/run")
	if !strings.Contains(s, "2 of 3") {
		t.Errorf("summary = %q", s)
	}
}
