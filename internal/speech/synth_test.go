package speech

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	logx "ttsbot/pkg/logx"
)

func newTestSynth(t *testing.T, handler http.HandlerFunc) (*Synthesizer, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	s, err := New(Config{TempDir: t.TempDir(), Endpoint: srv.URL}, logx.Nop())
	if err != nil {
		t.Fatalf("New() = %v", err)
	}
	return s, srv
}

func TestSynthesizeWritesArtifact(t *testing.T) {
	var gotLang, gotText string
	s, _ := newTestSynth(t, func(w http.ResponseWriter, r *http.Request) {
		gotLang = r.URL.Query().Get("tl")
		gotText = r.URL.Query().Get("q")
		_, _ = w.Write([]byte("AUDIO"))
	})

	path, err := s.Synthesize(context.Background(), "hello", "fr")
	if err != nil {
		t.Fatalf("Synthesize() = %v", err)
	}
	defer os.Remove(path)

	if gotLang != "fr" || gotText != "hello" {
		t.Fatalf("request carried (q=%q, tl=%q)", gotText, gotLang)
	}
	if filepath.Ext(path) != ".mp3" {
		t.Fatalf("artifact path %q, want .mp3 extension", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read artifact: %v", err)
	}
	if string(data) != "AUDIO" {
		t.Fatalf("artifact = %q, want AUDIO", data)
	}
}

func TestSynthesizeChunksLongText(t *testing.T) {
	var requests int
	s, _ := newTestSynth(t, func(w http.ResponseWriter, r *http.Request) {
		requests++
		_, _ = w.Write([]byte("x"))
	})

	text := strings.Repeat("a", chunkRunes*2+1)
	path, err := s.Synthesize(context.Background(), text, "en")
	if err != nil {
		t.Fatalf("Synthesize() = %v", err)
	}
	defer os.Remove(path)

	if requests != 3 {
		t.Fatalf("requests = %d, want 3 for %d runes", requests, len(text))
	}
	data, _ := os.ReadFile(path)
	if string(data) != "xxx" {
		t.Fatalf("artifact = %q, want chunks concatenated in order", data)
	}
}

func TestSynthesizeUpstreamErrorLeavesNoArtifact(t *testing.T) {
	s, _ := newTestSynth(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota", http.StatusTooManyRequests)
	})

	if _, err := s.Synthesize(context.Background(), "hello", "en"); err == nil {
		t.Fatal("Synthesize() succeeded against failing upstream")
	}

	entries, err := os.ReadDir(s.cfg.TempDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Fatalf("temp dir not empty after failure: %v", entries)
	}
}

func TestSynthesizeFailsMidChunkRemovesPartial(t *testing.T) {
	var requests int
	s, _ := newTestSynth(t, func(w http.ResponseWriter, r *http.Request) {
		requests++
		if requests > 1 {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte("x"))
	})

	if _, err := s.Synthesize(context.Background(), strings.Repeat("a", chunkRunes+1), "en"); err == nil {
		t.Fatal("Synthesize() succeeded despite mid-stream failure")
	}
	entries, _ := os.ReadDir(s.cfg.TempDir)
	if len(entries) != 0 {
		t.Fatalf("partial artifact left behind: %v", entries)
	}
}

func TestSweepOrphans(t *testing.T) {
	s, _ := newTestSynth(t, func(w http.ResponseWriter, r *http.Request) {})

	old := filepath.Join(s.cfg.TempDir, "old.mp3")
	fresh := filepath.Join(s.cfg.TempDir, "fresh.mp3")
	other := filepath.Join(s.cfg.TempDir, "notes.txt")
	for _, p := range []string{old, fresh, other} {
		if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	stale := time.Now().Add(-2 * time.Hour)
	if err := os.Chtimes(old, stale, stale); err != nil {
		t.Fatal(err)
	}
	if err := os.Chtimes(other, stale, stale); err != nil {
		t.Fatal(err)
	}

	removed, err := s.SweepOrphans(time.Hour)
	if err != nil {
		t.Fatalf("SweepOrphans() = %v", err)
	}
	if removed != 1 {
		t.Fatalf("removed = %d, want 1", removed)
	}
	if _, err := os.Stat(old); !os.IsNotExist(err) {
		t.Fatal("stale artifact survived the sweep")
	}
	if _, err := os.Stat(fresh); err != nil {
		t.Fatal("fresh artifact was swept")
	}
	if _, err := os.Stat(other); err != nil {
		t.Fatal("non-artifact file was swept")
	}
}

func TestSupportedLanguages(t *testing.T) {
	if !Supported("en") || !Supported("ml") {
		t.Fatal("expected en and ml to be supported")
	}
	if Supported("zz") || Supported("") || Supported("EN") {
		t.Fatal("unsupported code accepted")
	}
	if got := Name("es", "fallback"); got != "Spanish" {
		t.Fatalf("Name(es) = %q, want Spanish", got)
	}
	if got := Name("zz", "fallback"); got != "fallback" {
		t.Fatalf("Name(zz) = %q, want fallback", got)
	}
}
