package speech

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	logx "ttsbot/pkg/logx"
)

const defaultEndpoint = "https://translate.google.com/translate_tts"

// Google's TTS endpoint rejects long inputs; fetch audio in rune chunks and
// concatenate (MP3 frames concatenate cleanly).
const chunkRunes = 200

type Config struct {
	// TempDir receives one artifact file per synthesis request.
	TempDir string

	// Endpoint overrides the synthesis base URL (tests, proxies).
	Endpoint string
}

// Synthesizer converts text to a synthesized-speech artifact on disk.
//
// It never deletes artifacts it produced: ownership of the file transfers to
// the caller, who must remove it after the send attempt.
type Synthesizer struct {
	cfg  Config
	log  logx.Logger
	http *http.Client
}

func New(cfg Config, log logx.Logger) (*Synthesizer, error) {
	if log.IsZero() {
		log = logx.Nop()
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = defaultEndpoint
	}
	// The temp dir must be writable up front; failing later on every request
	// is a worse failure mode than refusing to start.
	if err := os.MkdirAll(cfg.TempDir, 0o755); err != nil {
		return nil, fmt.Errorf("create temp dir %s: %w", cfg.TempDir, err)
	}
	probe := filepath.Join(cfg.TempDir, ".probe-"+uuid.NewString())
	if err := os.WriteFile(probe, nil, 0o644); err != nil {
		return nil, fmt.Errorf("temp dir %s not writable: %w", cfg.TempDir, err)
	}
	_ = os.Remove(probe)

	return &Synthesizer{
		cfg:  cfg,
		log:  log,
		http: &http.Client{Timeout: 15 * time.Second},
	}, nil
}

// Synthesize converts text into a uniquely named MP3 under the temp dir and
// returns its path. Every failure (network, HTTP status, file I/O) comes
// back as an error carrying the underlying reason; nothing escapes as a
// panic past this boundary.
func (s *Synthesizer) Synthesize(ctx context.Context, text, lang string) (string, error) {
	path := filepath.Join(s.cfg.TempDir, uuid.NewString()+".mp3")

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("create artifact: %w", err)
	}

	if err := s.fetchAll(ctx, f, text, lang); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return "", err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("write artifact: %w", err)
	}

	s.log.Debug("speech artifact written", logx.String("path", path), logx.String("lang", lang))
	return path, nil
}

func (s *Synthesizer) fetchAll(ctx context.Context, w io.Writer, text, lang string) error {
	runes := []rune(text)
	for start := 0; start < len(runes); start += chunkRunes {
		end := start + chunkRunes
		if end > len(runes) {
			end = len(runes)
		}
		if err := s.fetchChunk(ctx, w, string(runes[start:end]), lang); err != nil {
			return err
		}
	}
	return nil
}

func (s *Synthesizer) fetchChunk(ctx context.Context, w io.Writer, text, lang string) error {
	params := url.Values{}
	params.Set("ie", "UTF-8")
	params.Set("client", "tw-ob")
	params.Set("q", text)
	params.Set("tl", lang)
	params.Set("total", "1")
	params.Set("idx", "0")
	params.Set("textlen", fmt.Sprintf("%d", len([]rune(text))))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.cfg.Endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := s.http.Do(req)
	if err != nil {
		return fmt.Errorf("synthesis request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("synthesis status %d: %s", resp.StatusCode, string(body))
	}
	if _, err := io.Copy(w, resp.Body); err != nil {
		return fmt.Errorf("read audio: %w", err)
	}
	return nil
}

// SweepOrphans removes artifacts older than maxAge. Handlers delete their own
// artifacts; the sweep only catches leftovers from crashes mid-send.
func (s *Synthesizer) SweepOrphans(maxAge time.Duration) (int, error) {
	entries, err := os.ReadDir(s.cfg.TempDir)
	if err != nil {
		return 0, err
	}
	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".mp3" {
			continue
		}
		info, err := e.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(s.cfg.TempDir, e.Name())); err == nil {
			removed++
		}
	}
	if removed > 0 {
		s.log.Info("swept orphaned artifacts", logx.Int("removed", removed))
	}
	return removed, nil
}
