package tts

import "context"

// TokenSource yields generated token text in exact arrival order. A source
// is single-pass and tied to one generation request; it is not safe for
// concurrent use.
type TokenSource interface {
	// Next returns the next token. io.EOF signals a clean end of the
	// stream; any other error is fatal for the chunk.
	Next() (string, error)

	// Close releases the underlying connection. Safe to call after Next
	// returned an error.
	Close() error
}

// TokenGenerator opens one token stream per formatted prompt.
type TokenGenerator interface {
	Generate(ctx context.Context, prompt string, params SynthesisParams) (TokenSource, error)
}

// FrameDecoder converts the trailing window of accepted token IDs into PCM
// samples. The window is always exactly FrameWindow entries; count is the
// total number of IDs accepted so far. An empty result means the window
// does not decode to audio yet. Implementations are called from a single
// goroutine per pipeline run.
type FrameDecoder interface {
	Decode(ctx context.Context, window []int, count int) ([]byte, error)
}
