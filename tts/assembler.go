package tts

import (
	"context"

	"github.com/skald-tts/skald/tts/token"
)

// Decode window geometry. The vocoder has a fixed receptive field of
// FrameWindow token IDs and consumes one seven-ID frame per step; the
// cadence and window size must match it exactly.
const (
	FrameWindow    = 28
	frameCadence   = 7
	minDecodeCount = 27
)

// assembler buffers accepted token IDs for one chunk and drives the frame
// decoder at the fixed window cadence. Single pass, not restartable.
type assembler struct {
	dec   FrameDecoder
	buf   []int
	count int
}

func newAssembler(dec FrameDecoder) *assembler {
	return &assembler{dec: dec}
}

// push maps one raw token and, when the cadence is hit, decodes the trailing
// window. The returned PCM is nil when the token was skipped or no frame is
// due, and may be empty when the decoder has nothing to emit yet.
func (a *assembler) push(ctx context.Context, tokenText string) ([]byte, error) {
	id, ok := token.ID(tokenText, a.count)
	if !ok || id <= 0 {
		return nil, nil
	}
	a.buf = append(a.buf, id)
	a.count++
	if a.count%frameCadence != 0 || a.count <= minDecodeCount {
		return nil, nil
	}
	pcm, err := a.dec.Decode(ctx, a.buf[len(a.buf)-FrameWindow:], a.count)
	if err != nil {
		return nil, &DecoderError{Err: err}
	}
	return pcm, nil
}
