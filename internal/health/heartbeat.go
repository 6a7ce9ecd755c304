// Package health tracks process liveness.
//
// A heartbeat records a timestamp on a fixed schedule; the /health endpoint
// reports healthy while that timestamp is fresh. The timestamp is the one
// value shared between the beat schedule and the request path, so it is the
// only thing here that needs atomic access.
package health

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/robfig/cron/v3"

	logx "ttsbot/pkg/logx"
)

// Window is how stale the heartbeat may be before /health reports unhealthy.
const Window = 600 * time.Second

// logEvery spaces out the "still running" info lines.
const logEvery = 5 * time.Minute

// Recorder persists status rows for audit. Optional; nothing reads them back.
type Recorder interface {
	AppendStatus(ctx context.Context, at time.Time, status string, lastCheck time.Time) error
}

type Config struct {
	// Interval between beats. Default 60s.
	Interval time.Duration

	// Window overrides the staleness window. Default 600s.
	Window time.Duration

	// SdNotify enables systemd READY/WATCHDOG notifications.
	SdNotify bool
}

type Heartbeat struct {
	cfg Config
	log logx.Logger
	rec Recorder

	last atomic.Int64 // unix seconds of the latest beat

	mu        sync.Mutex
	cron      *cron.Cron
	lastupLog time.Time
}

func NewHeartbeat(cfg Config, rec Recorder, log logx.Logger) *Heartbeat {
	if cfg.Interval <= 0 {
		cfg.Interval = 60 * time.Second
	}
	if cfg.Window <= 0 {
		cfg.Window = Window
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Heartbeat{cfg: cfg, log: log, rec: rec}
}

// Start beats once immediately and then on every interval tick until Stop.
func (h *Heartbeat) Start() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.cron != nil {
		return nil
	}

	h.beat()
	if h.cfg.SdNotify {
		_, _ = daemon.SdNotify(false, daemon.SdNotifyReady)
	}

	c := cron.New()
	_, err := c.AddFunc(fmt.Sprintf("@every %s", h.cfg.Interval), func() { h.beat() })
	if err != nil {
		return err
	}
	c.Start()
	h.cron = c
	h.log.Info("heartbeat started", logx.Duration("interval", h.cfg.Interval))
	return nil
}

func (h *Heartbeat) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.cron == nil {
		return
	}
	<-h.cron.Stop().Done()
	h.cron = nil
	if h.cfg.SdNotify {
		_, _ = daemon.SdNotify(false, daemon.SdNotifyStopping)
	}
	h.log.Info("heartbeat stopped")
}

func (h *Heartbeat) beat() {
	now := time.Now()
	h.last.Store(now.Unix())

	if h.cfg.SdNotify {
		_, _ = daemon.SdNotify(false, daemon.SdNotifyWatchdog)
	}

	h.mu.Lock()
	logIt := now.Sub(h.lastupLog) >= logEvery
	if logIt {
		h.lastupLog = now
	}
	h.mu.Unlock()
	if logIt {
		h.log.Info("health check: bot is running normally")
	}

	if h.rec != nil {
		rctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if err := h.rec.AppendStatus(rctx, now, "healthy", now); err != nil {
			h.log.Warn("status record failed", logx.Err(err))
		}
		cancel()
	}
}

// Last returns the time of the latest beat (zero if none yet).
func (h *Heartbeat) Last() time.Time {
	s := h.last.Load()
	if s == 0 {
		return time.Time{}
	}
	return time.Unix(s, 0)
}

// Healthy reports whether the latest beat is within the window at now.
func (h *Heartbeat) Healthy(now time.Time) bool {
	s := h.last.Load()
	if s == 0 {
		return false
	}
	return now.Sub(time.Unix(s, 0)) < h.cfg.Window
}
