package tts

import (
	"context"
	"errors"
	"fmt"
	"io"
)

// frameQueueSize bounds the producer/consumer hand-off channel. The
// producer blocks once the consumer falls this far behind.
const frameQueueSize = 32

// runPipeline presents one blocking call over an internally concurrent
// chunk pipeline. A producer goroutine drives src through the assembler and
// pushes decoded frames onto a channel in generation order; the calling
// goroutine drains the channel, collecting frames and optionally copying
// them to sink as they arrive.
//
// Closing the channel is the end-of-stream sentinel and happens on every
// producer exit path, so the consumer never hangs. The call returns only
// after the producer has been joined; a fatal producer error is returned to
// the caller along with the frames collected before it.
func runPipeline(ctx context.Context, src TokenSource, dec FrameDecoder, sink io.Writer) ([][]byte, error) {
	frames := make(chan []byte, frameQueueSize)
	errc := make(chan error, 1)

	go func() {
		defer close(frames)
		errc <- produce(ctx, src, dec, frames)
	}()

	var segments [][]byte
	var writeErr error
	for frame := range frames {
		segments = append(segments, frame)
		if sink != nil && writeErr == nil {
			if _, err := sink.Write(frame); err != nil {
				writeErr = fmt.Errorf("write audio frame: %w", err)
			}
		}
	}

	if err := <-errc; err != nil {
		return segments, err
	}
	return segments, writeErr
}

// produce consumes the token stream to completion, emitting decoded frames
// in order. It returns nil on clean stream end and the fatal error
// otherwise. The stream is always closed before returning so the connection
// is never abandoned mid-request.
func produce(ctx context.Context, src TokenSource, dec FrameDecoder, frames chan<- []byte) error {
	defer src.Close() //nolint:errcheck
	asm := newAssembler(dec)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		tok, err := src.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		pcm, err := asm.push(ctx, tok)
		if err != nil {
			return err
		}
		if len(pcm) == 0 {
			continue
		}
		select {
		case frames <- pcm:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
