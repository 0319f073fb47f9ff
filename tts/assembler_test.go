package tts

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/skald-tts/skald/tts/decoder"
)

// audioToken builds token text whose de-offset ID at the given accepted
// index is id.
func audioToken(id, index int) string {
	return fmt.Sprintf("<custom_token_%d>", id+10+(index%7)*4096)
}

func TestAssemblerCadence(t *testing.T) {
	mock := decoder.NewMock()
	asm := newAssembler(mock)
	ctx := context.Background()

	var frameCounts []int
	for i := 0; i < 42; i++ {
		pcm, err := asm.push(ctx, audioToken(i+1, i))
		if err != nil {
			t.Fatalf("push %d: %v", i, err)
		}
		if pcm != nil {
			frameCounts = append(frameCounts, i+1)
		}
	}

	want := []int{28, 35, 42}
	if len(frameCounts) != len(want) {
		t.Fatalf("frames emitted at %v, want %v", frameCounts, want)
	}
	for i := range want {
		if frameCounts[i] != want[i] {
			t.Errorf("frame %d emitted at count %d, want %d", i, frameCounts[i], want[i])
		}
	}

	counts := mock.Counts()
	for i, c := range counts {
		if c != want[i] {
			t.Errorf("decoder received count %d, want %d", c, want[i])
		}
	}
}

func TestAssemblerWindowContents(t *testing.T) {
	mock := decoder.NewMock()
	asm := newAssembler(mock)
	ctx := context.Background()

	for i := 0; i < 35; i++ {
		if _, err := asm.push(ctx, audioToken(i+1, i)); err != nil {
			t.Fatal(err)
		}
	}

	windows := mock.Windows()
	if len(windows) != 2 {
		t.Fatalf("got %d windows, want 2", len(windows))
	}
	for wi, base := range []int{1, 8} {
		w := windows[wi]
		if len(w) != FrameWindow {
			t.Fatalf("window %d has %d entries, want %d", wi, len(w), FrameWindow)
		}
		for i, id := range w {
			if id != base+i {
				t.Errorf("window %d entry %d = %d, want %d", wi, i, id, base+i)
			}
		}
	}
}

func TestAssemblerSkipsRejectedTokens(t *testing.T) {
	mock := decoder.NewMock()
	asm := newAssembler(mock)
	ctx := context.Background()

	rejected := []string{
		"plain text",          // no token marker
		"<custom_token_5>",    // de-offsets to -5 at index 0
		"<custom_token_10>",   // de-offsets to 0
		"<custom_token_bad>",  // not numeric
		"<custom_token_12345", // unterminated
	}
	for _, tok := range rejected {
		pcm, err := asm.push(ctx, tok)
		if err != nil {
			t.Fatalf("push(%q): %v", tok, err)
		}
		if pcm != nil {
			t.Errorf("push(%q) emitted a frame", tok)
		}
	}
	if asm.count != 0 {
		t.Fatalf("rejected tokens advanced the count to %d", asm.count)
	}

	// Rejections between accepted tokens must not disturb the partition
	// index of subsequent tokens.
	for i := 0; i < 28; i++ {
		if _, err := asm.push(ctx, "noise without a token"); err != nil {
			t.Fatal(err)
		}
		if _, err := asm.push(ctx, audioToken(i+1, i)); err != nil {
			t.Fatal(err)
		}
	}
	if mock.Calls() != 1 {
		t.Fatalf("decoder called %d times, want 1", mock.Calls())
	}
	if got := mock.Windows()[0][0]; got != 1 {
		t.Errorf("window starts at %d, want 1", got)
	}
}

func TestAssemblerNoFrameBeforeWindowFills(t *testing.T) {
	mock := decoder.NewMock()
	asm := newAssembler(mock)
	ctx := context.Background()

	for i := 0; i < 27; i++ {
		pcm, err := asm.push(ctx, audioToken(i+1, i))
		if err != nil {
			t.Fatal(err)
		}
		if pcm != nil {
			t.Fatalf("frame emitted after %d accepted tokens", i+1)
		}
	}
	if mock.Calls() != 0 {
		t.Errorf("decoder called %d times before the window filled", mock.Calls())
	}
}

func TestAssemblerWrapsDecoderError(t *testing.T) {
	mock := decoder.NewMock()
	mock.FailAt(1, fmt.Errorf("vocoder exploded"))
	asm := newAssembler(mock)
	ctx := context.Background()

	for i := 0; i < 27; i++ {
		if _, err := asm.push(ctx, audioToken(i+1, i)); err != nil {
			t.Fatal(err)
		}
	}
	_, err := asm.push(ctx, audioToken(28, 27))
	if err == nil {
		t.Fatal("expected a decoder error")
	}
	var derr *DecoderError
	if !errors.As(err, &derr) {
		t.Fatalf("error %v is not a DecoderError", err)
	}
}
