// Package broadcast fans one admin message out to every registered user.
//
// Each recipient send runs in its own failure boundary: one unreachable user
// never aborts the loop. Failed recipients are pruned from the registry
// afterwards, which is the only signal that ever shrinks it.
package broadcast

import (
	"context"
	"strings"

	"golang.org/x/time/rate"

	kit "ttsbot/internal/transport"
	logx "ttsbot/pkg/logx"
)

type Status int

const (
	Sent Status = iota
	Unauthorized
	EmptyMessage
	NoRecipients
)

// Outcome is the ephemeral per-invocation result.
type Outcome struct {
	Status Status
	Sent   int
	Failed []int64
}

// Registry is the slice of the active-user store the engine needs.
type Registry interface {
	Snapshot() []int64
	Remove(userID int64)
}

type Config struct {
	// RatePerSec paces sends to what the transport tolerates.
	RatePerSec int
}

type Engine struct {
	cfg     Config
	adapter kit.Adapter
	reg     Registry
	isAdmin func(int64) bool
	log     logx.Logger
}

func New(cfg Config, adapter kit.Adapter, reg Registry, isAdmin func(int64) bool, log logx.Logger) *Engine {
	if log.IsZero() {
		log = logx.Nop()
	}
	if isAdmin == nil {
		isAdmin = func(int64) bool { return false }
	}
	if cfg.RatePerSec <= 0 {
		cfg.RatePerSec = 25
	}
	return &Engine{cfg: cfg, adapter: adapter, reg: reg, isAdmin: isAdmin, log: log}
}

// Run authorizes the requester, then folds over a snapshot of the registry
// attempting one send per recipient. Order is unspecified. After the loop
// every failed recipient is removed from the registry.
func (e *Engine) Run(ctx context.Context, requesterID int64, message string) Outcome {
	if !e.isAdmin(requesterID) {
		e.log.Warn("unauthorized broadcast attempt", logx.Int64("user", requesterID))
		return Outcome{Status: Unauthorized}
	}
	if strings.TrimSpace(message) == "" {
		return Outcome{Status: EmptyMessage}
	}

	targets := e.reg.Snapshot()
	limiter := rate.NewLimiter(rate.Limit(e.cfg.RatePerSec), e.cfg.RatePerSec)

	out := Outcome{Status: Sent}
	for _, id := range targets {
		if err := limiter.Wait(ctx); err != nil {
			// Context canceled mid-broadcast: treat the rest as failed sends
			// would be wrong (they were never attempted); just stop.
			break
		}
		if _, err := e.adapter.SendText(ctx, kit.ChatTarget{ChatID: id}, message, nil); err != nil {
			e.log.Error("broadcast send failed", logx.Int64("user", id), logx.Err(err))
			out.Failed = append(out.Failed, id)
			continue
		}
		out.Sent++
	}

	for _, id := range out.Failed {
		e.reg.Remove(id)
	}

	e.log.Info("broadcast completed",
		logx.Int("sent", out.Sent),
		logx.Int("failed", len(out.Failed)),
		logx.Int64("requester", requesterID),
	)

	if out.Sent == 0 {
		out.Status = NoRecipients
	}
	return out
}
