package telegram

import (
	"strings"
	"testing"
	"unicode/utf8"

	logx "ttsbot/pkg/logx"
)

func TestNewRejectsEmptyToken(t *testing.T) {
	for _, tok := range []string{"", "   "} {
		if _, err := New(Config{Token: tok}, logx.Nop()); err == nil {
			t.Fatalf("New(token=%q) succeeded", tok)
		}
	}
}

func TestSplitTextShortPassthrough(t *testing.T) {
	got := splitText("hello", 0)
	if len(got) != 1 || got[0] != "hello" {
		t.Fatalf("splitText(short) = %v", got)
	}
}

func TestSplitTextRespectsLimit(t *testing.T) {
	s := strings.Repeat("a", 95)
	chunks := splitText(s, 40)
	var total int
	for _, c := range chunks {
		n := utf8.RuneCountInString(c)
		if n > 40 {
			t.Fatalf("chunk of %d runes exceeds limit", n)
		}
		total += n
	}
	if total != 95 {
		t.Fatalf("reassembled %d runes, want 95", total)
	}
	if strings.Join(chunks, "") != s {
		t.Fatal("chunks do not reassemble to input")
	}
}

func TestSplitTextPrefersNewlines(t *testing.T) {
	// A newline sits past the one-third mark of the window, so the split
	// lands there instead of mid-word. The separator itself is dropped.
	s := strings.Repeat("a", 30) + "\n" + strings.Repeat("b", 30)
	chunks := splitText(s, 40)
	if len(chunks) != 2 {
		t.Fatalf("chunks = %d, want 2", len(chunks))
	}
	if chunks[0] != strings.Repeat("a", 30) {
		t.Fatalf("first chunk = %q, want the text before the newline", chunks[0])
	}
	if chunks[1] != strings.Repeat("b", 30) {
		t.Fatalf("second chunk = %q", chunks[1])
	}
}

func TestSplitTextMultibyte(t *testing.T) {
	s := strings.Repeat("héllо", 30) // mixed-width runes
	for _, c := range splitText(s, 25) {
		if utf8.RuneCountInString(c) > 25 {
			t.Fatalf("chunk %q exceeds rune limit", c)
		}
		if !utf8.ValidString(c) {
			t.Fatalf("chunk %q is not valid UTF-8", c)
		}
	}
}
