package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"docsort/internal/config"
	"docsort/internal/docs"
	"docsort/internal/identity"
	"docsort/internal/journal"
	"docsort/internal/logging"
	"docsort/internal/pipeline"
	"docsort/internal/preflight"
	"docsort/internal/settings"
	"docsort/internal/watcher"
)

// Daemon coordinates the ingest services and enforces single-instance execution.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *journal.Store
	settings *settings.Store

	watcher  *watcher.Watcher
	worker   *identity.Worker
	pipeline *pipeline.Controller
	api      *apiServer

	lockPath string
	lock     *flock.Flock

	// preflight holds the startup check results; written once in Start
	// before any service goroutine runs.
	preflight []preflight.Result

	running atomic.Bool
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running       bool
	Pipeline      pipeline.StatusSnapshot
	Preflight     []preflight.Result
	JournalDBPath string
	LockFilePath  string
}

// New constructs a daemon with initialized services.
func New(cfg *config.Config, store *journal.Store, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || store == nil || logger == nil {
		return nil, errors.New("daemon requires config, journal store, and logger")
	}

	w := watcher.New(watcher.Options{
		SourceDir:           cfg.Paths.SourceDir,
		PollInterval:        time.Duration(cfg.Watcher.PollIntervalMS) * time.Millisecond,
		RequiredStableTicks: cfg.Watcher.RequiredStableTicks,
		QueueCapacity:       cfg.Watcher.QueueCapacity,
	}, logger)

	wk := identity.NewWorker(newClassifier(cfg, logger), logger)

	ctrl := pipeline.NewController(pipeline.Options{
		Watcher:        w,
		Worker:         wk,
		Journal:        store,
		TickInterval:   time.Duration(cfg.Pipeline.TickIntervalMS) * time.Millisecond,
		ReconcileEvery: cfg.Pipeline.ReconcileEveryTicks,
	}, logger)

	settingsStore, err := settings.NewStore(filepath.Join(cfg.Paths.LogDir, "settings.json"))
	if err != nil {
		return nil, fmt.Errorf("settings store: %w", err)
	}

	lockPath := filepath.Join(cfg.Paths.LogDir, "docsortd.lock")
	d := &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		store:    store,
		settings: settingsStore,
		watcher:  w,
		worker:   wk,
		pipeline: ctrl,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}

	srv, err := newAPIServer(cfg, d, logger)
	if err != nil {
		return nil, err
	}
	d.api = srv
	return d, nil
}

func newClassifier(cfg *config.Config, logger *slog.Logger) identity.Classifier {
	command := strings.TrimSpace(cfg.Identity.ExtractCommand)
	if command == "" {
		// No extraction tool configured: every document lands in Review for
		// manual resolution.
		return identity.ClassifierFunc(func(context.Context, string) (string, docs.DocumentType) {
			return docs.SentinelName, docs.TypeUnknown
		})
	}
	timeout := time.Duration(cfg.Identity.ExtractTimeoutSeconds) * time.Second
	return identity.NewCommandClassifier(command, cfg.Identity.ExtractArgs, timeout, logger)
}

// Start runs preflight checks, acquires the daemon lock, and launches the
// watcher, worker, pipeline, and API server.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	results := preflight.RunAll(ctx, d.cfg)
	d.preflight = results
	for _, res := range results {
		if res.Passed {
			d.logger.Debug("preflight ok", logging.String("check", res.Name), logging.String("detail", res.Detail))
			continue
		}
		return fmt.Errorf("preflight %s failed: %s", res.Name, res.Detail)
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another docsort daemon instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	if err := d.worker.Start(runCtx); err != nil {
		return d.abortStart(err)
	}
	if err := d.watcher.Start(runCtx); err != nil {
		d.worker.Stop()
		return d.abortStart(err)
	}
	if err := d.pipeline.Start(runCtx); err != nil {
		d.watcher.Stop()
		d.worker.Stop()
		return d.abortStart(err)
	}
	if err := d.api.start(runCtx); err != nil {
		d.pipeline.Stop()
		d.watcher.Stop()
		d.worker.Stop()
		return d.abortStart(err)
	}

	d.running.Store(true)
	d.logger.Info("docsort daemon started",
		logging.String("source", d.cfg.Paths.SourceDir),
		logging.String("lock", d.lockPath),
	)
	return nil
}

func (d *Daemon) abortStart(err error) error {
	_ = d.lock.Unlock()
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	return err
}

// Stop shuts down all services and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.api.stop()
	d.pipeline.Stop()
	d.watcher.Stop()
	d.worker.Stop()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("docsort daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// Status returns the current daemon status.
func (d *Daemon) Status(ctx context.Context) Status {
	status := Status{
		Running:       d.running.Load(),
		Preflight:     d.preflight,
		JournalDBPath: d.store.Path(),
		LockFilePath:  d.lockPath,
	}
	if snap, err := d.pipeline.Status(ctx); err == nil {
		status.Pipeline = snap
	}
	return status
}

// Pipeline exposes the controller for the API layer.
func (d *Daemon) Pipeline() *pipeline.Controller {
	return d.pipeline
}

// Journal exposes the journal store for the API layer.
func (d *Daemon) Journal() *journal.Store {
	return d.store
}

// Settings exposes the settings store for the API layer.
func (d *Daemon) Settings() *settings.Store {
	return d.settings
}

// Addr reports the API server's listen address, empty when not serving.
func (d *Daemon) Addr() string {
	if d.api == nil {
		return ""
	}
	return d.api.addr()
}

// PID returns the daemon's process id.
func (d *Daemon) PID() int {
	return os.Getpid()
}
