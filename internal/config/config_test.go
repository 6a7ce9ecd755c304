package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	logx "ttsbot/pkg/logx"
)

func TestFromEnv(t *testing.T) {
	t.Setenv("TELEGRAM_TOKEN", "123:abc")
	t.Setenv("ADMIN_IDS", "10,20")
	t.Setenv("TEMP_DIR", "")
	t.Setenv("HEALTH_ADDR", "")
	t.Setenv("BOT_CONFIG", "")

	e, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv() = %v", err)
	}
	if e.Token != "123:abc" {
		t.Fatalf("Token = %q", e.Token)
	}
	if len(e.AdminIDs) != 2 || e.AdminIDs[0] != 10 || e.AdminIDs[1] != 20 {
		t.Fatalf("AdminIDs = %v, want [10 20]", e.AdminIDs)
	}
	if e.HealthAddr != "0.0.0.0:5000" {
		t.Fatalf("HealthAddr = %q, want default", e.HealthAddr)
	}
	if e.TempDir == "" {
		t.Fatal("TempDir default not applied")
	}
}

func TestFromEnvRequiresToken(t *testing.T) {
	t.Setenv("TELEGRAM_TOKEN", "")
	if _, err := FromEnv(); err == nil {
		t.Fatal("FromEnv() accepted empty token")
	}
}

func TestParseDurationField(t *testing.T) {
	if d, err := ParseDurationField("x", "  90s "); err != nil || d != 90*time.Second {
		t.Fatalf("ParseDurationField(90s) = (%v, %v)", d, err)
	}
	if d, err := ParseDurationField("x", ""); err != nil || d != 0 {
		t.Fatalf("ParseDurationField(empty) = (%v, %v)", d, err)
	}
	for _, raw := range []string{"ten", "10", "-5s"} {
		if _, err := ParseDurationField("x", raw); err == nil {
			t.Errorf("ParseDurationField(%q) succeeded", raw)
		}
	}

	if d, err := ParseDurationOrDefault("x", "", 42*time.Second); err != nil || d != 42*time.Second {
		t.Fatalf("ParseDurationOrDefault(empty) = (%v, %v)", d, err)
	}
	if d, err := ParseDurationOrDefault("x", "1m", 42*time.Second); err != nil || d != time.Minute {
		t.Fatalf("ParseDurationOrDefault(1m) = (%v, %v)", d, err)
	}
}

func TestManagerDefaultsWithoutFile(t *testing.T) {
	m := NewManager(Env{AdminIDs: []int64{7}}, logx.Nop())
	cfg, err := m.Load()
	if err != nil {
		t.Fatalf("Load() = %v", err)
	}
	if cfg.Logging.Level != "info" || cfg.Broadcast.RatePerSec != 25 {
		t.Fatalf("defaults = %+v", cfg)
	}
	if !cfg.Console() {
		t.Fatal("console logging should default on")
	}
	if !m.IsAdmin(7) || m.IsAdmin(8) {
		t.Fatal("admin check against env list failed")
	}
}

func TestManagerLoadsFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bot.yaml")
	body := `
logging:
  level: debug
  console: false
telegram:
  poll_timeout: 30s
broadcast:
  rate_per_sec: 5
heartbeat:
  interval: 45s
admins: [100, 200]
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	m := NewManager(Env{AdminIDs: []int64{7}, ConfigFile: path}, logx.Nop())
	cfg, err := m.Load()
	if err != nil {
		t.Fatalf("Load() = %v", err)
	}
	if cfg.Logging.Level != "debug" || cfg.Console() {
		t.Fatalf("logging = %+v", cfg.Logging)
	}
	if cfg.Telegram.PollTimeout != "30s" || cfg.Broadcast.RatePerSec != 5 {
		t.Fatalf("cfg = %+v", cfg)
	}
	// File admins override the env list entirely.
	if !m.IsAdmin(100) || m.IsAdmin(7) {
		t.Fatalf("Admins() = %v", m.Admins())
	}
}

func TestManagerRejectsUnknownKeys(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bot.yaml")
	if err := os.WriteFile(path, []byte("loging:\n  level: debug\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	m := NewManager(Env{ConfigFile: path}, logx.Nop())
	if _, err := m.Load(); err == nil {
		t.Fatal("Load() accepted misspelled key")
	}
}

func TestManagerRejectsBadDurations(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bot.yaml")
	if err := os.WriteFile(path, []byte("heartbeat:\n  interval: sixty\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	m := NewManager(Env{ConfigFile: path}, logx.Nop())
	if _, err := m.Load(); err == nil {
		t.Fatal("Load() accepted invalid duration")
	}
}

func TestSubscribePublish(t *testing.T) {
	m := NewManager(Env{}, logx.Nop())
	if _, err := m.Load(); err != nil {
		t.Fatal(err)
	}

	ch := m.Subscribe(1)
	cfg := Defaults()
	cfg.Logging.Level = "warn"
	m.publish(cfg)

	select {
	case got := <-ch:
		if got.Logging.Level != "warn" {
			t.Fatalf("received level %q", got.Logging.Level)
		}
	default:
		t.Fatal("publish did not reach subscriber")
	}

	m.Unsubscribe(ch)
	if _, ok := <-ch; ok {
		t.Fatal("channel still open after Unsubscribe")
	}
}
