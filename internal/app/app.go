package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"localnotify/internal/config"
	"localnotify/internal/notifier"
	"localnotify/internal/notifyutil"
	"localnotify/internal/observability/inspect"
	"localnotify/internal/platform/memory"
	"localnotify/internal/runtime/supervisor"
	"localnotify/internal/storage"
	logx "localnotify/pkg/logx"
)

// App wires storage, the platform simulator, the notifier and the utilities.
type App struct {
	cfgm *config.Manager
	cfg  *config.Config
	sup  *supervisor.Supervisor

	log  logx.Logger
	logs *logx.Service

	store storage.Store
	plat  *memory.Platform
	notif *notifier.Service
	utils *notifyutil.Utils
	subs  *notifier.Subscriptions

	inspect *inspect.Service
}

type Option func(*options)

type options struct {
	hooks notifier.Hooks
	cfg   *config.Config
}

// WithHooks forwards delivered and action events to the caller.
func WithHooks(h notifier.Hooks) Option {
	return func(o *options) { o.hooks = h }
}

// WithConfig uses cfg instead of reading a file. Hot reload is disabled.
func WithConfig(cfg *config.Config) Option {
	return func(o *options) { o.cfg = cfg }
}

// New builds the app. An empty cfgPath uses config.Default().
func New(cfgPath string, opts ...Option) (*App, error) {
	var o options
	for _, fn := range opts {
		fn(&o)
	}

	var (
		cfgm *config.Manager
		cfg  *config.Config
	)
	switch {
	case o.cfg != nil:
		cfg = o.cfg
		if err := config.Validate(cfg); err != nil {
			return nil, err
		}
	case strings.TrimSpace(cfgPath) != "":
		cfgm = config.NewManager(cfgPath, logx.Nop())
		var err error
		if cfg, err = cfgm.Load(); err != nil {
			return nil, fmt.Errorf("load config %s: %w", cfgPath, err)
		}
	default:
		cfg = config.Default()
	}

	logSvc, log := logx.New(mapLoggingConfig(cfg))
	appLog := log.With(logx.String("comp", "app"))

	var store storage.Store
	if sc, enabled, err := mapStorageConfig(cfg); err != nil {
		_ = logSvc.Close()
		return nil, err
	} else if enabled {
		st, err := storage.Open(sc, log.With(logx.String("comp", "storage")))
		if err != nil {
			_ = logSvc.Close()
			return nil, fmt.Errorf("open storage: %w", err)
		}
		store = st
		appLog.Info("storage enabled", logx.String("driver", sc.Driver))
	}

	fail := func(err error) (*App, error) {
		if store != nil {
			_ = store.Close()
		}
		_ = logSvc.Close()
		return nil, err
	}

	pcfg, err := mapPlatformConfig(cfg)
	if err != nil {
		return fail(err)
	}
	plat := memory.New(pcfg, store, log)

	ncfg, err := mapNotifierConfig(cfg)
	if err != nil {
		return fail(err)
	}
	notif := notifier.New(ncfg, plat, log, notifier.WithHooks(o.hooks))

	lead, err := config.DurationOr("notifier.snooze_lead", cfg.Notifier.SnoozeLead, notifyutil.DefaultSnoozeLead)
	if err != nil {
		return fail(err)
	}
	utils := notifyutil.New(notif, log, notifyutil.WithSnoozeLead(lead))

	if cfgm != nil {
		cfgm = config.NewManager(cfgPath, log.With(logx.String("comp", "config")))
		cfgm.Commit(cfg)
	}

	return &App{
		cfgm:    cfgm,
		cfg:     cfg,
		log:     appLog,
		logs:    logSvc,
		store:   store,
		plat:    plat,
		notif:   notif,
		utils:   utils,
		inspect: inspect.New(mapInspectConfig(cfg), notif, plat, log),
	}, nil
}

func (a *App) Notifier() *notifier.Service { return a.notif }
func (a *App) Utils() *notifyutil.Utils    { return a.utils }
func (a *App) Platform() *memory.Platform  { return a.plat }
func (a *App) Config() *config.Config      { return a.cfg }
func (a *App) Logger() logx.Logger         { return a.log }

// Subscriptions returns the listener handle installed by Start.
func (a *App) Subscriptions() *notifier.Subscriptions { return a.subs }

// Done is closed when the app supervisor context is canceled (fatal error or Stop()).
func (a *App) Done() <-chan struct{} {
	if a.sup == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return a.sup.Context().Done()
}

// Err returns the first fatal error observed by the supervisor (if any).
func (a *App) Err() error {
	if a.sup == nil {
		return nil
	}
	return a.sup.Err()
}

// Start runs the simulator, initializes the notifier and, when the app was
// built from a file, watches it for changes.
func (a *App) Start(ctx context.Context) error {
	a.sup = supervisor.New(ctx, supervisor.WithLogger(a.log), supervisor.WithCancelOnError(true))

	if err := a.plat.Start(a.sup.Context()); err != nil {
		return fmt.Errorf("start platform: %w", err)
	}
	subs, err := a.notif.Initialize(a.sup.Context())
	if err != nil {
		return err
	}
	a.subs = subs
	a.inspect.Start(a.sup.Context())

	if a.cfgm != nil {
		sub := a.cfgm.Subscribe(8)
		a.sup.Go("config.reload", func(c context.Context) error {
			defer a.cfgm.Unsubscribe(sub)
			a.reloadLoop(c, sub)
			return nil
		})
		a.sup.Go("config.watch", a.cfgm.Watch)
	}

	a.log.Info("started",
		logx.String("permission", string(subs.Permission.Display)),
		logx.Bool("hot_reload", a.cfgm != nil),
	)
	return nil
}

func (a *App) reloadLoop(ctx context.Context, sub <-chan *config.Config) {
	lastApplied := a.cfg
	for {
		select {
		case <-ctx.Done():
			return
		case newCfg, ok := <-sub:
			if !ok {
				return
			}
			// Coalesce bursts: keep only the latest config.
			for drained := false; !drained; {
				select {
				case newer := <-sub:
					if newer != nil {
						newCfg = newer
					}
				default:
					drained = true
				}
			}
			a.apply(lastApplied, newCfg)
			lastApplied = newCfg
		}
	}
}

func (a *App) apply(oldCfg, newCfg *config.Config) {
	sections, attrs := config.SummarizeChange(oldCfg, newCfg)
	if len(sections) == 0 {
		a.log.Debug("config reload received, but no effective changes detected")
		return
	}
	fields := append([]logx.Field{logx.String("changed", strings.Join(sections, ","))}, attrs...)
	a.log.Info("config change summary", fields...)
	if config.RestartRequired(sections) {
		a.log.Warn("platform or storage config changed; restart required for changes to take effect")
	}

	a.logs.Apply(mapLoggingConfig(newCfg))
	a.inspect.Reconfigure(a.sup.Context(), mapInspectConfig(newCfg))
	ncfg, err := mapNotifierConfig(newCfg)
	if err != nil {
		a.log.Warn("notifier config not applied", logx.Err(err))
		return
	}
	a.notif.Apply(ncfg)
}

// Stop removes listeners, stops the simulator and closes storage. Each step is
// bounded so one component cannot stall shutdown.
func (a *App) Stop(ctx context.Context, reason StopReason) error {
	if a.sup == nil {
		return nil
	}
	a.log.Info("stopping", logx.String("reason", string(reason)))
	a.sup.Cancel()

	step := func(name string, max time.Duration, fn func(context.Context) error) {
		start := time.Now()
		if dl, ok := ctx.Deadline(); ok {
			max = min(max, time.Until(dl))
		}
		if max <= 0 {
			a.log.Warn("stop step skipped (deadline reached)", logx.String("name", name))
			return
		}
		stepCtx, cancel := context.WithTimeout(ctx, max)
		defer cancel()

		done := make(chan error, 1)
		go func() {
			defer func() {
				if r := recover(); r != nil {
					done <- fmt.Errorf("panic in stop step %s: %v", name, r)
				}
			}()
			done <- fn(stepCtx)
		}()

		select {
		case err := <-done:
			if err != nil {
				a.log.Warn("stop step error", logx.String("name", name), logx.Err(err))
			}
			a.log.Debug("stop step end", logx.String("name", name), logx.Duration("took", time.Since(start)))
		case <-stepCtx.Done():
			a.log.Warn("stop step deadline reached (continuing)",
				logx.String("name", name),
				logx.Duration("elapsed", time.Since(start)),
			)
		}
	}

	step("inspect", 2*time.Second, func(c context.Context) error {
		a.inspect.Stop(c)
		return nil
	})
	step("listeners", time.Second, func(context.Context) error {
		a.subs.Close()
		return nil
	})
	step("platform", 2*time.Second, a.plat.Stop)
	step("storage", time.Second, func(context.Context) error {
		if a.store != nil {
			return a.store.Close()
		}
		return nil
	})
	step("supervisor", 2*time.Second, a.sup.Wait)

	a.log.Info("stopped")
	if a.logs != nil {
		_ = a.logs.Close()
	}
	return nil
}
