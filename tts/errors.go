package tts

import (
	"errors"
	"fmt"
)

// Common errors for the synthesis pipeline.
var (
	// ErrNoGenerator is returned when a synthesizer is built without a
	// token generator.
	ErrNoGenerator = errors.New("no token generator configured")

	// ErrNoDecoder is returned when a synthesizer is built without a
	// frame decoder.
	ErrNoDecoder = errors.New("no frame decoder configured")
)

// GenerationError reports a non-success response from the token-generation
// service, before any tokens were streamed. It is fatal for the affected
// chunk.
type GenerationError struct {
	StatusCode int
	Body       string
}

// Error implements the error interface.
func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation service returned status %d: %s", e.StatusCode, e.Body)
}

// DecoderError wraps a failure of the external frame decoder. It is fatal
// for the chunk being decoded.
type DecoderError struct {
	Err error
}

// Error implements the error interface.
func (e *DecoderError) Error() string {
	return fmt.Sprintf("frame decoder failed: %v", e.Err)
}

// Unwrap returns the underlying decoder error.
func (e *DecoderError) Unwrap() error {
	return e.Err
}
