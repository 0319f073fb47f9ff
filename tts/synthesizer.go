package tts

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/skald-tts/skald/tts/audio"
	"github.com/skald-tts/skald/tts/chunk"
)

// Synthesizer turns text of any length into speech. Long input is split
// into chunks, each chunk is streamed through the token pipeline, and the
// resulting PCM is concatenated into one WAV output. Chunks run strictly
// one at a time so generation requests never interleave at the service.
type Synthesizer struct {
	cfg Config
	gen TokenGenerator
	dec FrameDecoder
}

// New creates a synthesizer from a token generator and a frame decoder.
// Zero Config fields inherit the package defaults.
func New(cfg Config, gen TokenGenerator, dec FrameDecoder) (*Synthesizer, error) {
	if gen == nil {
		return nil, ErrNoGenerator
	}
	if dec == nil {
		return nil, ErrNoDecoder
	}
	def := DefaultConfig()
	if cfg.Voice == "" {
		cfg.Voice = def.Voice
	}
	if cfg.MaxChunkSize <= 0 {
		cfg.MaxChunkSize = def.MaxChunkSize
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = def.Temperature
	}
	if cfg.TopP == 0 {
		cfg.TopP = def.TopP
	}
	if cfg.RepeatPenalty == 0 {
		cfg.RepeatPenalty = def.RepeatPenalty
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = def.MaxTokens
	}
	return &Synthesizer{cfg: cfg, gen: gen, dec: dec}, nil
}

// Config returns the effective configuration.
func (s *Synthesizer) Config() Config {
	return s.cfg
}

// Synthesize renders text into a complete in-memory WAV file. Empty input
// yields a structurally valid zero-duration file.
func (s *Synthesizer) Synthesize(ctx context.Context, text string, params SynthesisParams) ([]byte, error) {
	segments, err := s.run(ctx, text, params, nil)
	if err != nil {
		return nil, err
	}
	return audio.Encode(audio.DefaultFormat(), segments...), nil
}

// SynthesizeToFile renders text and writes a WAV file to path, creating
// parent directories as needed.
func (s *Synthesizer) SynthesizeToFile(ctx context.Context, text, path string, params SynthesisParams) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	w, err := audio.NewWAVWriter(f, audio.DefaultFormat())
	if err != nil {
		f.Close() //nolint:errcheck,gosec
		return err
	}

	_, runErr := s.run(ctx, text, params, w)

	// Finalize the container even on pipeline failure so the file is
	// never left with a stale header.
	if err := w.Close(); err != nil && runErr == nil {
		runErr = err
	}
	if err := f.Close(); err != nil && runErr == nil {
		runErr = fmt.Errorf("close output file: %w", err)
	}
	return runErr
}

// SynthesizeSegments renders text and returns the raw PCM frame segments in
// order, without WAV framing.
func (s *Synthesizer) SynthesizeSegments(ctx context.Context, text string, params SynthesisParams) ([][]byte, error) {
	return s.run(ctx, text, params, nil)
}

func (s *Synthesizer) run(ctx context.Context, text string, params SynthesisParams, sink io.Writer) ([][]byte, error) {
	params = s.fillParams(params)
	chunks := chunk.Split(text, s.cfg.MaxChunkSize)
	if len(chunks) == 0 {
		return nil, nil
	}

	if len(chunks) == 1 {
		segments, err := s.runChunk(ctx, chunks[0], params, sink)
		if err != nil {
			return nil, err
		}
		s.logStats(segments)
		return segments, nil
	}

	// Multi-chunk: collect every chunk's frames in memory, then emit the
	// concatenation so a failed chunk never leaves partial output behind.
	log.Debug("text split for generation", "chunks", len(chunks), "chars", len(text))
	var all [][]byte
	for _, c := range chunks {
		log.Debug("processing chunk",
			"chunk", c.Index+1, "of", len(chunks), "chars", len(c.Text))
		segments, err := s.runChunk(ctx, c, params, nil)
		if err != nil {
			return nil, fmt.Errorf("chunk %d/%d: %w", c.Index+1, len(chunks), err)
		}
		all = append(all, segments...)
	}
	if sink != nil {
		for _, seg := range all {
			if _, err := sink.Write(seg); err != nil {
				return nil, fmt.Errorf("write audio frame: %w", err)
			}
		}
	}
	s.logStats(all)
	return all, nil
}

func (s *Synthesizer) runChunk(ctx context.Context, c chunk.Chunk, params SynthesisParams, sink io.Writer) ([][]byte, error) {
	prompt := FormatPrompt(c.Text, params.Voice)
	src, err := s.gen.Generate(ctx, prompt, params)
	if err != nil {
		return nil, err
	}
	return runPipeline(ctx, src, s.dec, sink)
}

func (s *Synthesizer) fillParams(p SynthesisParams) SynthesisParams {
	if p.Voice == "" {
		p.Voice = s.cfg.Voice
	}
	if p.Temperature == 0 {
		p.Temperature = s.cfg.Temperature
	}
	if p.TopP == 0 {
		p.TopP = s.cfg.TopP
	}
	if p.MaxTokens <= 0 {
		p.MaxTokens = s.cfg.MaxTokens
	}
	if p.RepeatPenalty == 0 {
		p.RepeatPenalty = s.cfg.RepeatPenalty
	}
	return p
}

func (s *Synthesizer) logStats(segments [][]byte) {
	total := 0
	for _, seg := range segments {
		total += len(seg)
	}
	log.Debug("synthesis complete",
		"segments", len(segments),
		"duration", audio.DefaultFormat().Duration(total))
}
