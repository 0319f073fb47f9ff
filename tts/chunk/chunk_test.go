package chunk

import (
	"strings"
	"testing"
)

func TestSplitShortText(t *testing.T) {
	got := Split("Hello there.", 100)
	if len(got) != 1 {
		t.Fatalf("expected one chunk, got %d", len(got))
	}
	if got[0].Index != 0 || got[0].Text != "Hello there." {
		t.Errorf("unexpected chunk: %+v", got[0])
	}
}

func TestSplitBlankText(t *testing.T) {
	for _, text := range []string{"", "   ", "\n\t "} {
		if got := Split(text, 100); got != nil {
			t.Errorf("Split(%q) = %v, want nil", text, got)
		}
	}
}

func TestSplitSentenceBoundaries(t *testing.T) {
	text := "First sentence here. Second sentence here. Third sentence here."
	got := Split(text, 30)
	want := []string{
		"First sentence here.",
		"Second sentence here.",
		"Third sentence here.",
	}
	if len(got) != len(want) {
		t.Fatalf("got %d chunks, want %d: %v", len(got), len(want), got)
	}
	for i, c := range got {
		if c.Index != i {
			t.Errorf("chunk %d has index %d", i, c.Index)
		}
		if c.Text != want[i] {
			t.Errorf("chunk %d = %q, want %q", i, c.Text, want[i])
		}
	}
}

func TestSplitPacksSentences(t *testing.T) {
	text := "One two. Three four. Five six. Seven eight."
	got := Split(text, 20)
	want := []string{
		"One two. Three four.",
		"Five six.",
		"Seven eight.",
	}
	if len(got) != len(want) {
		t.Fatalf("got %d chunks, want %d: %v", len(got), len(want), got)
	}
	for i, c := range got {
		if c.Text != want[i] {
			t.Errorf("chunk %d = %q, want %q", i, c.Text, want[i])
		}
	}
}

func TestSplitLongSentenceFallsBackToClauses(t *testing.T) {
	text := "alpha beta gamma delta, epsilon zeta eta theta, iota kappa lambda mu"
	got := Split(text, 30)
	for _, c := range got {
		if len(c.Text) > 30 {
			t.Errorf("chunk %q exceeds limit (%d chars)", c.Text, len(c.Text))
		}
	}
	if len(got) < 2 {
		t.Fatalf("expected clause-level split, got %v", got)
	}
	if got[0].Text != "alpha beta gamma delta," {
		t.Errorf("first clause = %q", got[0].Text)
	}
}

func TestSplitFallsBackToWords(t *testing.T) {
	text := strings.Repeat("word ", 20) + "word"
	got := Split(text, 25)
	if len(got) < 2 {
		t.Fatalf("expected word-level split, got %v", got)
	}
	for _, c := range got {
		if len(c.Text) > 25 {
			t.Errorf("chunk %q exceeds limit", c.Text)
		}
		if strings.Contains(c.Text, "  ") {
			t.Errorf("chunk %q has doubled spaces", c.Text)
		}
	}
}

func TestSplitOversizeWord(t *testing.T) {
	long := strings.Repeat("x", 40)
	got := Split("short "+long+" tail end here now", 20)
	found := false
	for _, c := range got {
		if c.Text == long {
			found = true
		} else if len(c.Text) > 20 {
			t.Errorf("chunk %q exceeds limit", c.Text)
		}
	}
	if !found {
		t.Errorf("oversize word was cut: %v", got)
	}
}

func TestSplitCoversAllWords(t *testing.T) {
	text := "The quick brown fox jumps over the lazy dog. Pack my box with five dozen liquor jugs! How vexingly quick daft zebras jump?"
	got := Split(text, 40)

	var joined []string
	for _, c := range got {
		joined = append(joined, c.Text)
	}
	gotWords := strings.Fields(strings.Join(joined, " "))
	wantWords := strings.Fields(text)
	if len(gotWords) != len(wantWords) {
		t.Fatalf("word count changed: got %d, want %d", len(gotWords), len(wantWords))
	}
	for i := range wantWords {
		if gotWords[i] != wantWords[i] {
			t.Errorf("word %d = %q, want %q", i, gotWords[i], wantWords[i])
		}
	}
}

func TestSplitIndexesAreSequential(t *testing.T) {
	text := strings.Repeat("A sentence goes right here. ", 30)
	got := Split(text, 60)
	for i, c := range got {
		if c.Index != i {
			t.Fatalf("chunk %d has index %d", i, c.Index)
		}
	}
}
