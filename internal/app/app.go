package app

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"ttsbot/internal/bot"
	"ttsbot/internal/broadcast"
	"ttsbot/internal/config"
	"ttsbot/internal/health"
	rtsup "ttsbot/internal/runtime/supervisor"
	"ttsbot/internal/speech"
	"ttsbot/internal/storage"
	kit "ttsbot/internal/transport"
	"ttsbot/internal/transport/telegram"
	logx "ttsbot/pkg/logx"
)

// App wires configuration, logging, the Telegram adapter, the stores and
// the dispatcher together, and owns their start/stop ordering.
type App struct {
	env  config.Env
	cfgm *config.Manager

	log  logx.Logger
	logs *logx.Service

	adapter kit.Adapter
	synth   *speech.Synthesizer
	store   *storage.Store

	prefs *bot.Prefs
	reg   *bot.Registry
	disp  *bot.Dispatcher

	hb   *health.Heartbeat
	hsrv *health.Server

	sweep    *cron.Cron
	sweepAge time.Duration

	sup     *rtsup.Supervisor
	updates chan kit.Update
}

func New(env config.Env) (*App, error) {
	bootLog := logx.NewConsole("INFO").With(logx.String("comp", "boot"))

	cfgm := config.NewManager(env, bootLog)
	cfg, err := cfgm.Load()
	if err != nil {
		return nil, err
	}

	logs, log := logx.New(logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Console(),
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	})
	log = log.With(logx.String("comp", "app"))

	pollTimeout, err := config.ParseDurationOrDefault("telegram.poll_timeout", cfg.Telegram.PollTimeout, 10*time.Second)
	if err != nil {
		return nil, err
	}
	adapter, err := telegram.New(telegram.Config{
		Token:       env.Token,
		PollTimeout: pollTimeout,
	}, log.With(logx.String("comp", "telegram")))
	if err != nil {
		return nil, err
	}

	// Fatal when the temp dir cannot be created or written.
	synth, err := speech.New(speech.Config{
		TempDir:  env.TempDir,
		Endpoint: cfg.Speech.Endpoint,
	}, log.With(logx.String("comp", "speech")))
	if err != nil {
		return nil, err
	}

	store, err := storage.Open(cfg.Storage.Path, log.With(logx.String("comp", "storage")))
	if err != nil {
		return nil, err
	}
	if store != nil {
		log.Info("status audit storage enabled", logx.String("path", cfg.Storage.Path))
	}

	interval, err := config.ParseDurationOrDefault("heartbeat.interval", cfg.Heartbeat.Interval, 60*time.Second)
	if err != nil {
		return nil, err
	}
	window, err := config.ParseDurationOrDefault("heartbeat.window", cfg.Heartbeat.Window, health.Window)
	if err != nil {
		return nil, err
	}
	var rec health.Recorder
	if store != nil {
		rec = store
	}
	hb := health.NewHeartbeat(health.Config{
		Interval: interval,
		Window:   window,
		SdNotify: true,
	}, rec, log.With(logx.String("comp", "heartbeat")))

	sweepAge, err := config.ParseDurationOrDefault("speech.sweep_age", cfg.Speech.SweepAge, time.Hour)
	if err != nil {
		return nil, err
	}

	prefs := bot.NewPrefs()
	reg := bot.NewRegistry()

	if len(cfgm.Admins()) == 0 {
		log.Warn("no admin IDs configured; broadcast feature will be disabled")
	}

	bcast := broadcast.New(broadcast.Config{
		RatePerSec: cfg.Broadcast.RatePerSec,
	}, adapter, reg, cfgm.IsAdmin, log.With(logx.String("comp", "broadcast")))

	disp := bot.NewDispatcher(adapter, prefs, reg, synth, bcast, cfgm.IsAdmin,
		log.With(logx.String("comp", "dispatcher")))

	return &App{
		env:      env,
		cfgm:     cfgm,
		log:      log,
		logs:     logs,
		adapter:  adapter,
		synth:    synth,
		store:    store,
		prefs:    prefs,
		reg:      reg,
		disp:     disp,
		hb:       hb,
		hsrv:     health.NewServer(hb, log),
		sweepAge: sweepAge,
		updates:  make(chan kit.Update, 256),
	}, nil
}

func (a *App) Start(ctx context.Context) error {
	a.sup = rtsup.New(ctx, rtsup.WithLogger(a.log), rtsup.WithCancelOnError(false))

	if err := a.adapter.Start(a.sup.Context(), a.updates); err != nil {
		return err
	}

	// The dispatch loop is the part the original restarts forever: any
	// uncaught failure is logged and the loop comes back after 10 seconds.
	a.sup.GoRestart("bot.dispatch", 10*time.Second, func(c context.Context) error {
		return a.disp.Run(c, a.updates)
	})

	if err := a.hb.Start(); err != nil {
		return err
	}
	if err := a.hsrv.Start(a.env.HealthAddr); err != nil {
		// The bot still works without the endpoint; uptime monitors will
		// flag it, which is the point of the endpoint anyway.
		a.log.Warn("health endpoint failed to start", logx.Err(err))
	}

	a.sweep = cron.New()
	if _, err := a.sweep.AddFunc("@every 10m", func() {
		if _, err := a.synth.SweepOrphans(a.sweepAge); err != nil {
			a.log.Warn("artifact sweep failed", logx.Err(err))
		}
	}); err != nil {
		return err
	}
	a.sweep.Start()

	// Hot reload: log level and admin list apply live; everything else
	// needs a restart.
	sub := a.cfgm.Subscribe(8)
	a.sup.Go("config.reload", func(c context.Context) error {
		defer a.cfgm.Unsubscribe(sub)
		for {
			select {
			case <-c.Done():
				return nil
			case cfg, ok := <-sub:
				if !ok {
					return nil
				}
				a.logs.Apply(logx.Config{
					Level:   cfg.Logging.Level,
					Console: cfg.Console(),
					File: logx.FileConfig{
						Enabled: cfg.Logging.File.Enabled,
						Path:    cfg.Logging.File.Path,
					},
				})
				if len(a.cfgm.Admins()) == 0 {
					a.log.Warn("admin list is now empty; broadcast disabled")
				}
				a.log.Info("config applied")
			}
		}
	})
	a.sup.Go("config.watch", func(c context.Context) error {
		return a.cfgm.Watch(c)
	})

	a.log.Info("app started")
	return nil
}

func (a *App) Stop(ctx context.Context) error {
	if a.sup == nil {
		return nil
	}
	a.log.Info("stopping")

	// Cancel first so background loops start unwinding immediately.
	a.sup.Cancel()

	if a.sweep != nil {
		<-a.sweep.Stop().Done()
		a.sweep = nil
	}
	a.hb.Stop()
	a.hsrv.Stop(ctx)
	_ = a.adapter.Stop(ctx)
	if a.store != nil {
		_ = a.store.Close()
	}

	wctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := a.sup.Wait(wctx); err != nil {
		a.log.Warn("shutdown incomplete", logx.Err(err))
	}

	a.log.Info("stopped")
	a.logs.Close()
	return nil
}
