package tts

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/skald-tts/skald/tts/decoder"
)

// fakeSource replays a fixed token sequence. After the sequence it returns
// failWith when set, io.EOF otherwise.
type fakeSource struct {
	tokens   []string
	pos      int
	failWith error
	closed   bool
}

func (s *fakeSource) Next() (string, error) {
	if s.pos >= len(s.tokens) {
		if s.failWith != nil {
			return "", s.failWith
		}
		return "", io.EOF
	}
	tok := s.tokens[s.pos]
	s.pos++
	return tok, nil
}

func (s *fakeSource) Close() error {
	s.closed = true
	return nil
}

// acceptedTokens builds n token strings that the assembler will accept in
// sequence.
func acceptedTokens(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = audioToken(i+1, i)
	}
	return out
}

func TestRunPipeline(t *testing.T) {
	src := &fakeSource{tokens: acceptedTokens(42)}
	mock := decoder.NewMock()
	var sink bytes.Buffer

	segments, err := runPipeline(context.Background(), src, mock, &sink)
	if err != nil {
		t.Fatal(err)
	}
	if len(segments) != 3 {
		t.Fatalf("got %d segments, want 3", len(segments))
	}
	for i, seg := range segments {
		if len(seg) != decoder.MockFrameSize {
			t.Errorf("segment %d is %d bytes, want %d", i, len(seg), decoder.MockFrameSize)
		}
	}
	if sink.Len() != 3*decoder.MockFrameSize {
		t.Errorf("sink received %d bytes, want %d", sink.Len(), 3*decoder.MockFrameSize)
	}
	if !src.closed {
		t.Error("token source was not closed")
	}
}

func TestRunPipelineNilSink(t *testing.T) {
	src := &fakeSource{tokens: acceptedTokens(28)}
	segments, err := runPipeline(context.Background(), src, decoder.NewMock(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(segments) != 1 {
		t.Fatalf("got %d segments, want 1", len(segments))
	}
}

func TestRunPipelineStreamError(t *testing.T) {
	streamErr := errors.New("connection reset")
	src := &fakeSource{tokens: acceptedTokens(35), failWith: streamErr}
	mock := decoder.NewMock()

	segments, err := runPipeline(context.Background(), src, mock, nil)
	if !errors.Is(err, streamErr) {
		t.Fatalf("err = %v, want %v", err, streamErr)
	}
	// Frames decoded before the failure are still returned.
	if len(segments) != 2 {
		t.Errorf("got %d segments before failure, want 2", len(segments))
	}
	if !src.closed {
		t.Error("token source was not closed after failure")
	}
}

func TestRunPipelineDecoderError(t *testing.T) {
	src := &fakeSource{tokens: acceptedTokens(42)}
	mock := decoder.NewMock()
	decodeErr := errors.New("helper crashed")
	mock.FailAt(2, decodeErr)

	segments, err := runPipeline(context.Background(), src, mock, nil)
	var derr *DecoderError
	if !errors.As(err, &derr) {
		t.Fatalf("err = %v, want DecoderError", err)
	}
	if !errors.Is(err, decodeErr) {
		t.Errorf("DecoderError does not wrap the cause: %v", err)
	}
	if len(segments) != 1 {
		t.Errorf("got %d segments before failure, want 1", len(segments))
	}
}

func TestRunPipelineContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	src := &fakeSource{tokens: acceptedTokens(42)}
	_, err := runPipeline(ctx, src, decoder.NewMock(), nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if !src.closed {
		t.Error("token source was not closed after cancellation")
	}
}

func TestRunPipelineEmptyStream(t *testing.T) {
	src := &fakeSource{}
	segments, err := runPipeline(context.Background(), src, decoder.NewMock(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(segments) != 0 {
		t.Errorf("got %d segments from an empty stream", len(segments))
	}
}
