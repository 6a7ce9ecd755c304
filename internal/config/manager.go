package config

import (
	"context"
	"errors"
	"hash/fnv"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	yaml "go.yaml.in/yaml/v3"

	logx "ttsbot/pkg/logx"
)

// Manager owns the merged (env + file) configuration and publishes reloads
// of the file layer to subscribers. When no file is configured, it simply
// serves the defaults.
type Manager struct {
	env  Env
	path string

	mu  sync.RWMutex
	cfg *File

	// subsMu guards the subscriber list and ensures we never send on a
	// channel that is concurrently being closed in Unsubscribe().
	subsMu sync.Mutex
	subs   []chan *File

	log logx.Logger

	// lastHash tracks the last committed file content, so editors that fire
	// multiple write events without changes don't cause redundant publishes.
	lastHash uint64
}

func NewManager(env Env, log logx.Logger) *Manager {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Manager{env: env, path: strings.TrimSpace(env.ConfigFile), log: log}
}

func (m *Manager) Env() Env { return m.env }

// Load parses the config file (when configured) and commits it. Without a
// file it commits the defaults.
func (m *Manager) Load() (*File, error) {
	cfg, _, err := m.parse()
	if err != nil {
		return nil, err
	}
	m.commit(cfg, 0)
	return cfg, nil
}

func (m *Manager) parse() (*File, uint64, error) {
	cfg := Defaults()
	if m.path == "" {
		return cfg, 0, nil
	}
	b, err := os.ReadFile(m.path)
	if err != nil {
		return nil, 0, err
	}
	dec := yaml.NewDecoder(strings.NewReader(string(b)))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, 0, err
	}
	if err := validate(cfg); err != nil {
		return nil, 0, err
	}
	h := fnv.New64a()
	_, _ = h.Write(b)
	return cfg, h.Sum64(), nil
}

func validate(cfg *File) error {
	if _, err := ParseDurationField("telegram.poll_timeout", cfg.Telegram.PollTimeout); err != nil {
		return err
	}
	if _, err := ParseDurationField("heartbeat.interval", cfg.Heartbeat.Interval); err != nil {
		return err
	}
	if _, err := ParseDurationField("heartbeat.window", cfg.Heartbeat.Window); err != nil {
		return err
	}
	if _, err := ParseDurationField("speech.sweep_age", cfg.Speech.SweepAge); err != nil {
		return err
	}
	if cfg.Broadcast.RatePerSec < 0 {
		return errors.New("broadcast.rate_per_sec must be >= 0")
	}
	return nil
}

func (m *Manager) commit(cfg *File, hash uint64) {
	m.mu.Lock()
	m.cfg = cfg
	m.lastHash = hash
	m.mu.Unlock()
}

// Get returns the committed file config (never nil after Load).
func (m *Manager) Get() *File {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.cfg == nil {
		return Defaults()
	}
	return m.cfg
}

// Admins returns the effective admin list: the file layer overrides the
// environment when it names any ID.
func (m *Manager) Admins() []int64 {
	cfg := m.Get()
	if len(cfg.Admins) > 0 {
		return append([]int64(nil), cfg.Admins...)
	}
	return append([]int64(nil), m.env.AdminIDs...)
}

// IsAdmin reports whether id is in the effective admin list.
func (m *Manager) IsAdmin(id int64) bool {
	for _, a := range m.Admins() {
		if a == id {
			return true
		}
	}
	return false
}

func (m *Manager) Subscribe(buffer int) chan *File {
	ch := make(chan *File, buffer)
	m.subsMu.Lock()
	m.subs = append(m.subs, ch)
	m.subsMu.Unlock()
	return ch
}

func (m *Manager) Unsubscribe(ch chan *File) {
	if ch == nil {
		return
	}
	m.subsMu.Lock()
	for i, s := range m.subs {
		if s == ch {
			m.subs = append(m.subs[:i], m.subs[i+1:]...)
			close(ch)
			break
		}
	}
	m.subsMu.Unlock()
}

func (m *Manager) publish(cfg *File) {
	m.subsMu.Lock()
	defer m.subsMu.Unlock()
	for _, ch := range m.subs {
		select {
		case ch <- cfg:
		default:
			// Slow subscriber: drop; it will pick up the next reload.
		}
	}
}

// Watch blocks, reloading and publishing the config file on filesystem
// changes, until ctx is canceled. It is a no-op when no file is configured.
func (m *Manager) Watch(ctx context.Context) error {
	if m.path == "" {
		<-ctx.Done()
		return nil
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	// Watch the directory: editors commonly replace the file (rename+create),
	// which drops a watch on the file itself.
	if err := w.Add(filepath.Dir(m.path)); err != nil {
		return err
	}

	var debounce *time.Timer
	reload := func() {
		cfg, hash, err := m.parse()
		if err != nil {
			m.log.Warn("config reload failed; keeping previous", logx.Err(err))
			return
		}
		m.mu.RLock()
		unchanged := hash != 0 && hash == m.lastHash
		m.mu.RUnlock()
		if unchanged {
			return
		}
		m.commit(cfg, hash)
		m.log.Info("config reloaded", logx.String("path", m.path))
		m.publish(cfg)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != filepath.Clean(m.path) {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			// Debounce editor write bursts.
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(200*time.Millisecond, reload)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			m.log.Warn("config watcher error", logx.Err(err))
		}
	}
}
