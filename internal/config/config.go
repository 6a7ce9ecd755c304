package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Env is the environment-provided configuration. The bot token is the only
// hard requirement; everything else has a usable default.
type Env struct {
	// Token authenticates the bot against the Telegram API. The process
	// refuses to start without it.
	Token string `envconfig:"TELEGRAM_TOKEN" required:"true"`

	// AdminIDs lists user IDs allowed to use /broadcast (comma-separated).
	// When empty, broadcast is disabled with a warning.
	AdminIDs []int64 `envconfig:"ADMIN_IDS"`

	// TempDir holds synthesized audio artifacts between synthesis and send.
	TempDir string `envconfig:"TEMP_DIR"`

	// HealthAddr is the listen address of the /health endpoint.
	HealthAddr string `envconfig:"HEALTH_ADDR" default:"0.0.0.0:5000"`

	// ConfigFile optionally points at a YAML file with the settings below.
	ConfigFile string `envconfig:"BOT_CONFIG"`
}

// FromEnv reads Env from the process environment.
func FromEnv() (Env, error) {
	var e Env
	if err := envconfig.Process("", &e); err != nil {
		return Env{}, err
	}
	if strings.TrimSpace(e.TempDir) == "" {
		e.TempDir = filepath.Join(os.TempDir(), "ttsbot-audio")
	}
	return e, nil
}

// File is the optional YAML configuration. All durations are Go duration
// strings (e.g. "500ms", "10s", "1m").
type File struct {
	Logging struct {
		Level   string `yaml:"level"`
		Console *bool  `yaml:"console"`
		File    struct {
			Enabled bool   `yaml:"enabled"`
			Path    string `yaml:"path"`
		} `yaml:"file"`
	} `yaml:"logging"`

	Telegram struct {
		PollTimeout string `yaml:"poll_timeout"`
	} `yaml:"telegram"`

	Broadcast struct {
		RatePerSec int `yaml:"rate_per_sec"`
	} `yaml:"broadcast"`

	Heartbeat struct {
		Interval string `yaml:"interval"`
		Window   string `yaml:"window"`
	} `yaml:"heartbeat"`

	Speech struct {
		// Endpoint overrides the synthesis endpoint base URL (tests, proxies).
		Endpoint string `yaml:"endpoint"`
		SweepAge string `yaml:"sweep_age"`
	} `yaml:"speech"`

	Storage struct {
		// Path enables the optional SQLite status-record table when set.
		Path string `yaml:"path"`
	} `yaml:"storage"`

	// Admins overrides ADMIN_IDS when non-empty (hot-reloadable).
	Admins []int64 `yaml:"admins"`
}

// Defaults returns a File with every effective default filled in.
func Defaults() *File {
	var f File
	f.Logging.Level = "info"
	f.Telegram.PollTimeout = "10s"
	f.Broadcast.RatePerSec = 25
	f.Heartbeat.Interval = "60s"
	f.Heartbeat.Window = "600s"
	f.Speech.SweepAge = "1h"
	return &f
}

func (f *File) Console() bool {
	if f.Logging.Console == nil {
		return true
	}
	return *f.Logging.Console
}

// ParseDurationField parses a Go duration string from config. Empty means 0.
// The path is included in the error for operator-friendly messages.
func ParseDurationField(path, raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q: %w", path, raw, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s: duration must be >= 0, got %q", path, raw)
	}
	return d, nil
}

// ParseDurationOrDefault is like ParseDurationField but substitutes def for
// empty values.
func ParseDurationOrDefault(path, raw string, def time.Duration) (time.Duration, error) {
	d, err := ParseDurationField(path, raw)
	if err != nil {
		return 0, err
	}
	if d == 0 {
		return def, nil
	}
	return d, nil
}
