// Package app wires the daemon together: config, logging, store, trigger
// engine, scheduler, publisher, and the outcome consumers hanging off the
// event bus.
package app

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/robfig/cron/v3"

	"postpilot/internal/config"
	"postpilot/internal/content"
	"postpilot/internal/eventbus"
	"postpilot/internal/journal"
	"postpilot/internal/publish"
	"postpilot/internal/scheduler"
	"postpilot/internal/storage"
	"postpilot/internal/store"
	"postpilot/internal/trigger"
	"postpilot/pkg/logx"
)

type App struct {
	cfg    *config.Config
	logSvc *logx.Service
	log    logx.Logger

	bus     eventbus.Bus
	svc     *scheduler.Service
	journal *journal.Journal
	history storage.Store
}

// New builds the full daemon from the config file at path. Nothing runs
// yet; Run starts the loops.
func New(path string) (*App, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	logSvc, log := logx.New(cfg.Log)
	a := &App{cfg: cfg, logSvc: logSvc, log: log}

	poll, err := cfg.Scheduler.Poll()
	if err != nil {
		return nil, a.fail(err)
	}
	status, err := cfg.Scheduler.Status()
	if err != nil {
		return nil, a.fail(err)
	}
	wait, err := cfg.Scheduler.Shutdown()
	if err != nil {
		return nil, a.fail(err)
	}

	pub, err := openPublisher(cfg, log)
	if err != nil {
		return nil, a.fail(err)
	}

	busy, err := cfg.History.Busy()
	if err != nil {
		return nil, a.fail(err)
	}
	hist, err := storage.Open(storage.Config{
		Driver:      cfg.History.Driver,
		Path:        cfg.History.Path,
		BusyTimeout: busy,
	}, log)
	if err != nil {
		return nil, a.fail(err)
	}
	a.history = hist

	a.bus = eventbus.New()
	a.journal = journal.New(cfg.Journal.Dir, log)

	gen := content.NewTemplate(cfg.Generator, time.Now().UnixNano())
	st := store.NewFile(cfg.Store.Path)
	eng := trigger.New(log)

	a.svc = scheduler.New(scheduler.Config{
		PollInterval:   poll,
		StatusInterval: status,
		ShutdownWait:   wait,
		WatchStore:     cfg.Scheduler.Watch(),
	}, log, st, eng, gen, pub, a.bus)

	log.Info("postpilot configured",
		logx.String("store", cfg.Store.Path),
		logx.String("publisher", pub.Name()),
		logx.Bool("history", hist != nil),
	)
	return a, nil
}

func (a *App) fail(err error) error {
	_ = a.logSvc.Close()
	return err
}

// Run blocks until ctx is cancelled, then shuts everything down in order:
// scheduler loop first, consumers after the bus goes quiet, sinks last.
func (a *App) Run(ctx context.Context) error {
	consumerCtx, stopConsumers := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		a.journal.Consume(consumerCtx, a.bus)
	}()
	histDone := make(chan struct{})
	go func() {
		defer close(histDone)
		a.recordOutcomes(consumerCtx)
	}()

	_, _ = daemon.SdNotify(false, daemon.SdNotifyReady)
	stopWatchdog := a.startWatchdog()

	err := a.svc.Run(ctx)

	_, _ = daemon.SdNotify(false, daemon.SdNotifyStopping)
	stopWatchdog()

	// The scheduler has stopped publishing; give consumers a moment to
	// drain their buffers before cutting them off.
	time.Sleep(100 * time.Millisecond)
	stopConsumers()
	<-done
	<-histDone

	return err
}

// Close releases sinks. Call after Run returns.
func (a *App) Close() error {
	if a.history != nil {
		_ = a.history.Close()
	}
	return a.logSvc.Close()
}

// recordOutcomes appends terminal job events to the history store.
func (a *App) recordOutcomes(ctx context.Context) {
	if a.history == nil {
		return
	}
	ch, unsub := a.bus.Subscribe(64)
	defer unsub()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			switch ev.Type {
			case eventbus.JobCompleted, eventbus.JobFailed, eventbus.JobError, eventbus.JobExpired:
			default:
				continue
			}
			o := storage.Outcome{
				At:     ev.Time,
				JobID:  ev.Job.ID,
				Topic:  ev.Job.Topic,
				Status: string(ev.Job.Status),
				Detail: ev.Detail,
			}
			if !ev.Time.IsZero() {
				o.TookMS = ev.Time.Sub(ev.Job.TriggerTime).Milliseconds()
			}
			wctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			if err := a.history.AppendOutcome(wctx, o); err != nil {
				a.log.Warn("history append failed", logx.String("job", ev.Job.ID), logx.Err(err))
			}
			cancel()
		}
	}
}

// startWatchdog pings systemd at half the configured watchdog interval.
// Without systemd (or without WatchdogSec) this is a no-op.
func (a *App) startWatchdog() (stop func()) {
	interval, err := daemon.SdWatchdogEnabled(false)
	if err != nil || interval == 0 {
		return func() {}
	}

	c := cron.New()
	if _, err := c.AddFunc("@every "+(interval/2).String(), func() {
		_, _ = daemon.SdNotify(false, daemon.SdNotifyWatchdog)
	}); err != nil {
		a.log.Warn("watchdog ping not scheduled", logx.Err(err))
		return func() {}
	}
	c.Start()
	return func() { <-c.Stop().Done() }
}

func openPublisher(cfg *config.Config, log logx.Logger) (publish.Publisher, error) {
	to, err := cfg.Publisher.LinkedIn.RequestTimeout()
	if err != nil {
		return nil, err
	}
	return publish.Open(publish.Config{
		Driver: cfg.Publisher.Driver,
		LinkedIn: publish.LinkedInConfig{
			AccessToken: cfg.Publisher.LinkedIn.AccessToken,
			PersonURN:   cfg.Publisher.LinkedIn.PersonURN,
			BaseURL:     cfg.Publisher.LinkedIn.BaseURL,
			APIVersion:  cfg.Publisher.LinkedIn.APIVersion,
			RatePerMin:  cfg.Publisher.LinkedIn.RatePerMin,
			Timeout:     to,
		},
		Telegram: publish.TelegramConfig{
			Token:  cfg.Publisher.Telegram.Token,
			ChatID: cfg.Publisher.Telegram.ChatID,
		},
	}, log)
}

// PostNow publishes a topic immediately, bypassing the store. Used by the
// CLI for one-off posts; the job document is untouched.
func (a *App) PostNow(ctx context.Context, topic, body string) error {
	var (
		c   content.Content
		err error
	)
	if body != "" {
		c = content.FromText(topic, body)
	} else {
		gen := content.NewTemplate(a.cfg.Generator, time.Now().UnixNano())
		c, err = gen.Generate(ctx, topic)
		if err != nil {
			return err
		}
	}
	pub, err := openPublisher(a.cfg, a.log)
	if err != nil {
		return err
	}
	ok, err := pub.Publish(ctx, c)
	if err != nil {
		return err
	}
	if !ok {
		return errors.New("publisher rejected the post")
	}
	a.log.Info("posted immediately", logx.String("topic", c.Topic))
	return nil
}
