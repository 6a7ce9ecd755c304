package bot

import (
	"context"
	"strings"
	"time"

	"ttsbot/internal/broadcast"
	kit "ttsbot/internal/transport"
	logx "ttsbot/pkg/logx"
)

// Synthesizer is the boundary to the speech engine. The returned path is
// owned by the caller, who must delete it after the send attempt.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, lang string) (string, error)
}

// Broadcaster runs an admin broadcast against the active-user registry.
type Broadcaster interface {
	Run(ctx context.Context, requesterID int64, message string) broadcast.Outcome
}

// maxTextRunes is the ceiling applied to free-text messages before the
// synthesizer is ever invoked.
const maxTextRunes = 100_000

type Dispatcher struct {
	adapter kit.Adapter
	prefs   *Prefs
	reg     *Registry
	synth   Synthesizer
	bcast   Broadcaster
	isAdmin func(int64) bool
	log     logx.Logger
}

func NewDispatcher(adapter kit.Adapter, prefs *Prefs, reg *Registry, synth Synthesizer, bcast Broadcaster, isAdmin func(int64) bool, log logx.Logger) *Dispatcher {
	if log.IsZero() {
		log = logx.Nop()
	}
	if isAdmin == nil {
		isAdmin = func(int64) bool { return false }
	}
	return &Dispatcher{
		adapter: adapter,
		prefs:   prefs,
		reg:     reg,
		synth:   synth,
		bcast:   bcast,
		isAdmin: isAdmin,
		log:     log,
	}
}

// Run consumes updates sequentially until ctx is canceled. One event is
// processed at a time and handlers run to completion before the next one,
// so the stores need no coordination on this path.
//
// Handler errors are logged here and the loop continues; panics propagate to
// the supervisor, which restarts the loop after its fixed backoff.
func (d *Dispatcher) Run(ctx context.Context, updates <-chan kit.Update) error {
	d.log.Info("dispatcher started")

	// Best-effort /menu autocomplete.
	if up, ok := d.adapter.(kit.CommandMenuUpdater); ok {
		mctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		if err := up.UpdateMenuCommands(mctx, menuCommands()); err != nil {
			d.log.Debug("menu update failed", logx.Err(err))
		}
		cancel()
	}

	for {
		select {
		case <-ctx.Done():
			d.log.Info("dispatcher stopped")
			return nil
		case up, ok := <-updates:
			if !ok {
				d.log.Info("dispatcher stopped (updates closed)")
				return nil
			}
			d.dispatch(ctx, up)
		}
	}
}

func (d *Dispatcher) dispatch(ctx context.Context, up kit.Update) {
	start := time.Now()
	var err error
	var route string

	switch up.Kind {
	case kit.UpdateMessage:
		if up.Message == nil {
			return
		}
		route, err = d.handleMessage(ctx, up.Message)
	case kit.UpdateCallback:
		if up.Callback == nil {
			return
		}
		route = "callback:" + up.Callback.Data
		err = d.handleCallback(ctx, up.Callback)
	default:
		return
	}

	fields := []logx.Field{
		logx.String("route", route),
		logx.Duration("dur", time.Since(start)),
	}
	if err != nil {
		d.log.Warn("request failed", append(fields, logx.Err(err))...)
	} else {
		d.log.Debug("request ok", fields...)
	}
}

// handleMessage routes commands and free text. Unknown commands are ignored.
func (d *Dispatcher) handleMessage(ctx context.Context, m *kit.Message) (string, error) {
	text := m.Text
	if !strings.HasPrefix(text, "/") {
		return "text", d.handleText(ctx, m)
	}

	name, args := splitCommand(text)
	switch name {
	case "start":
		return "start", d.handleStart(ctx, m)
	case "help":
		return "help", d.handleHelp(ctx, m)
	case "lang":
		return "lang", d.handleLang(ctx, m)
	case "broadcast":
		return "broadcast", d.handleBroadcast(ctx, m, args)
	default:
		return "cmd:" + name, nil
	}
}

// splitCommand extracts the command name (sans leading slash and optional
// @BotName suffix) and the remaining argument string.
func splitCommand(text string) (name, args string) {
	rest := strings.TrimPrefix(text, "/")
	if i := strings.IndexAny(rest, " \n"); i >= 0 {
		name, args = rest[:i], strings.TrimSpace(rest[i+1:])
	} else {
		name = rest
	}
	if i := strings.Index(name, "@"); i >= 0 {
		name = name[:i]
	}
	return strings.ToLower(name), args
}
