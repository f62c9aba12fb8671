package cli

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/muesli/termenv"

	"histop/internal/core/config"
	domainErrors "histop/internal/core/errors"
	"histop/internal/core/watcher"
	"histop/internal/engine/history"
	"histop/internal/shared/observability"
	"histop/internal/shared/util"
)

// refreshThrottle runs refresh at most at the limiter's rate. A change
// that arrives too early is dropped and covered by a single trailing
// refresh once a token is available again.
type refreshThrottle struct {
	limiter *util.Limiter
	refresh func()

	mu      sync.Mutex
	pending *time.Timer
	stopped bool
}

func newRefreshThrottle(perSecond float64, refresh func()) *refreshThrottle {
	return &refreshThrottle{
		limiter: util.NewLimiter(perSecond, 1),
		refresh: refresh,
	}
}

func (t *refreshThrottle) Trigger() {
	t.mu.Lock()
	if t.stopped {
		t.mu.Unlock()
		return
	}
	if t.limiter.Allow(1) {
		t.mu.Unlock()
		t.refresh()
		return
	}

	observability.RefreshDroppedTotal.Inc()
	if t.pending == nil {
		t.pending = time.AfterFunc(t.limiter.Delay(), t.fire)
	}
	t.mu.Unlock()
}

func (t *refreshThrottle) fire() {
	t.mu.Lock()
	t.pending = nil
	t.mu.Unlock()
	t.Trigger()
}

func (t *refreshThrottle) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopped = true
	if t.pending != nil {
		t.pending.Stop()
		t.pending = nil
	}
}

// liveSession re-ingests the history file for --watch and --ui and hands
// each snapshot to publish.
type liveSession struct {
	rt      *runtime
	opts    cliOptions
	health  *healthState
	publish func(ctx context.Context, st settings, snap snapshot, err error)
	trigger func()

	mu        sync.Mutex
	st        settings
	refreshMu sync.Mutex
	missed    bool
}

func (s *liveSession) current() settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st
}

func (s *liveSession) refresh(ctx context.Context) {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()
	if ctx.Err() != nil {
		return
	}

	st := s.current()
	snap, err := s.rt.collect(ctx, st)
	s.health.record(snap, err)
	if err != nil {
		slog.Error("refresh failed", "source", st.input, "error", err)
	}
	if s.publish == nil {
		s.missed = true
		return
	}
	s.publish(ctx, st, snap, err)
}

// setPublisher installs publish. A non-nil first snapshot is published
// before any refresh can run. Refreshes that finished with no publisher
// are redone once it is in place.
func (s *liveSession) setPublisher(ctx context.Context, publish func(context.Context, settings, snapshot, error), first *snapshot) {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()
	s.publish = publish
	if first != nil {
		publish(ctx, s.current(), *first, nil)
	}
	if s.missed && s.trigger != nil {
		s.missed = false
		go s.trigger()
	}
}

// reconfigure swaps in settings from a reloaded config file. The input
// stays the one chosen at startup.
func (s *liveSession) reconfigure(cfg *config.Config) {
	next, err := resolveSettings(cfg, s.opts)
	if err != nil {
		slog.Warn("ignoring reloaded config", "error", err)
		return
	}

	s.mu.Lock()
	next.input = s.st.input
	next.shell = s.st.shell
	if next.dialect == history.DialectAuto {
		if d, ok := dialectForShell(next.shell); ok {
			next.dialect = d
		}
	}
	s.st = next
	s.mu.Unlock()

	if s.trigger != nil {
		s.trigger()
	}
}

func (rt *runtime) watch(ctx context.Context, cfg *config.Config, opts cliOptions, st settings) error {
	if st.input == "-" {
		return domainErrors.New(domainErrors.CodeConflict, "--watch and --ui need a history file, not stdin")
	}

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	sess := &liveSession{rt: rt, opts: opts, st: st, health: newHealthState(st.input)}
	throttle := newRefreshThrottle(cfg.Watch.MaxRefreshPerSecond, func() { sess.refresh(ctx) })
	defer throttle.Stop()
	sess.trigger = throttle.Trigger

	snap, err := rt.collect(ctx, st)
	sess.health.record(snap, err)
	if err != nil {
		return err
	}
	if cfg.Archive.Enabled {
		if err := rt.record(ctx, cfg, snap); err != nil {
			return err
		}
	}

	if addr := cfg.Observability.MetricsAddr; addr != "" {
		srv := NewObservabilityServer(addr, sess.health)
		if err := srv.Start(ctx); err != nil {
			wrapped := domainErrors.Wrap(err, domainErrors.CodeInternal, "failed to start observability server")
			return domainErrors.AddContext(wrapped, "addr", addr)
		}
		defer func() {
			shutdownCtx, done := context.WithTimeout(context.Background(), 2*time.Second)
			defer done()
			_ = srv.Stop(shutdownCtx)
		}()
	}

	fw, err := watcher.NewWatcher(cfg.Watch.Debounce, func([]string) { throttle.Trigger() })
	if err != nil {
		return domainErrors.Wrap(err, domainErrors.CodeInternal, "failed to create watcher")
	}
	defer fw.Close()
	if err := fw.Watch([]string{st.input}); err != nil {
		wrapped := domainErrors.Wrap(err, domainErrors.CodeInternal, "failed to watch history file")
		return domainErrors.AddContext(wrapped, domainErrors.CtxPath, st.input)
	}

	if cfgPath := rt.reloadPath(opts); cfgPath != "" {
		cw := config.NewWatcher(cfgPath, func() (*config.Config, error) {
			return rt.loadConfig(opts)
		}, sess.reconfigure)
		if err := cw.Start(ctx); err != nil {
			slog.Warn("config reload disabled", "path", cfgPath, "error", err)
		} else {
			defer cw.Stop()
		}
	}

	if opts.ui {
		return runUI(ctx, sess, snap)
	}

	var broken bool
	sess.setPublisher(ctx, func(ctx context.Context, st settings, snap snapshot, err error) {
		if err != nil || broken {
			return
		}
		if err := rt.publishText(ctx, st, snap); err != nil {
			if errors.Is(err, errBrokenPipe) {
				broken = true
				cancel()
				return
			}
			slog.Error("failed to print report", "error", err)
		}
	}, &snap)

	<-ctx.Done()
	return nil
}

// publishText prints one report, clearing the screen first on a terminal.
func (rt *runtime) publishText(ctx context.Context, st settings, snap snapshot) error {
	data, err := rt.render(ctx, st, snap.ranked)
	if err != nil {
		return err
	}
	if st.outPath == "" && rt.outputIsTerminal() {
		termenv.NewOutput(rt.stdout).ClearScreen()
	}
	return rt.emit(st, data)
}

// reloadPath is the config file a watch session follows for changes.
func (rt *runtime) reloadPath(opts cliOptions) string {
	if opts.configPath != "" {
		return opts.configPath
	}
	return rt.defaultConfig
}
