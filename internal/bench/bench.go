// Package bench drives calibration runs against a live generation service:
// text-length probing to find the largest reliably-synthesized input, and a
// sampling-parameter grid search across voices. Both are thin sequential
// drivers over the synthesis pipeline; results land in CSV files next to
// the generated audio artifacts.
package bench

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/skald-tts/skald/tts"
)

// Synthesizer is the slice of the pipeline the benchmarks drive.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string, params tts.SynthesisParams) ([]byte, error)
}

// writeCSV writes a header and rows to path, creating parent directories.
func writeCSV(path string, header []string, rows [][]string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create results directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create results file: %w", err)
	}
	defer f.Close() //nolint:errcheck

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return err
	}
	if err := w.WriteAll(rows); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}

// sample returns at most length bytes of text and the size actually taken.
func sample(text string, length int) (string, int) {
	if length < len(text) {
		text = text[:length]
	}
	return text, len(text)
}

// truncateForDuration trims text so the synthesized sample lands near the
// target duration, cutting back to the last full sentence. Roughly 25
// characters per second of speech.
func truncateForDuration(text string, seconds float64) string {
	approx := int(seconds * 25)
	if approx <= 0 || len(text) <= approx {
		return text
	}
	cut := text[:approx]
	if i := strings.LastIndexByte(cut, '.'); i > 0 {
		return cut[:i+1]
	}
	return cut
}
