package watcher

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"docsort/internal/config"
	"docsort/internal/fileutil"
	"docsort/internal/logging"
)

// Options configures a Watcher.
type Options struct {
	SourceDir           string
	PollInterval        time.Duration
	RequiredStableTicks int
	QueueCapacity       int
}

type seenFile struct {
	size        int64
	mtimeNanos  int64
	stableTicks int
	emitted     bool
}

// Watcher is the one-file producer of the ingestion pipeline: its sole job
// is "this path is a complete, non-growing PDF, report it once".
type Watcher struct {
	sourceDir  string
	quarantine string
	interval   time.Duration
	required   int
	logger     *slog.Logger
	out        chan string

	// seen is touched only by the polling goroutine.
	seen map[string]*seenFile

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// New constructs a watcher for the given source directory.
func New(opts Options, logger *slog.Logger) *Watcher {
	interval := opts.PollInterval
	if interval <= 0 {
		interval = 250 * time.Millisecond
	}
	required := opts.RequiredStableTicks
	if required <= 0 {
		required = 2
	}
	capacity := opts.QueueCapacity
	if capacity <= 0 {
		capacity = 256
	}
	source := fileutil.NormalizePath(opts.SourceDir)
	return &Watcher{
		sourceDir:  source,
		quarantine: filepath.Join(source, config.QuarantineDirName),
		interval:   interval,
		required:   required,
		logger:     logging.NewComponentLogger(logger, "watcher"),
		out:        make(chan string, capacity),
		seen:       make(map[string]*seenFile),
	}
}

// Paths returns the channel of stable, normalized PDF paths.
func (w *Watcher) Paths() <-chan string {
	return w.out
}

// Start launches the polling loop.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return errors.New("watcher already running")
	}
	if w.sourceDir == "" {
		return errors.New("watcher source directory not configured")
	}

	runCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.running = true
	w.wg.Add(1)
	go w.loop(runCtx)
	return nil
}

// Stop cancels the polling loop and waits for it to exit.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	cancel := w.cancel
	w.running = false
	w.cancel = nil
	w.mu.Unlock()

	cancel()
	w.wg.Wait()
}

func (w *Watcher) loop(ctx context.Context) {
	defer w.wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.scanOnce()
		}
	}
}

// scanOnce walks the source tree once and advances the stability bookkeeping.
// Every error is non-fatal: a file that cannot be statted this tick is simply
// revisited on the next one.
func (w *Watcher) scanOnce() {
	seenNow := make(map[string]struct{}, len(w.seen))

	err := filepath.WalkDir(w.sourceDir, func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if entry != nil && entry.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if entry.IsDir() {
			if fileutil.IsUnder(w.quarantine, path) {
				return fs.SkipDir
			}
			return nil
		}
		if !fileutil.IsPDF(path) || fileutil.IsUnder(w.quarantine, path) {
			return nil
		}

		info, err := entry.Info()
		if err != nil {
			return nil
		}

		norm := fileutil.NormalizePath(path)
		seenNow[norm] = struct{}{}
		w.observe(norm, info.Size(), info.ModTime().UnixNano())
		return nil
	})
	if err != nil {
		w.logger.Debug("scan aborted; retrying next tick", logging.Error(err))
	}

	for path := range w.seen {
		if _, ok := seenNow[path]; !ok {
			delete(w.seen, path)
		}
	}
}

func (w *Watcher) observe(path string, size, mtimeNanos int64) {
	prev, ok := w.seen[path]
	if !ok {
		w.seen[path] = &seenFile{size: size, mtimeNanos: mtimeNanos}
		return
	}

	if prev.size == size && prev.mtimeNanos == mtimeNanos {
		prev.stableTicks++
	} else {
		prev.size = size
		prev.mtimeNanos = mtimeNanos
		prev.stableTicks = 0
		prev.emitted = false
	}

	if !prev.emitted && prev.stableTicks >= w.required {
		select {
		case w.out <- path:
			prev.emitted = true
			w.logger.Debug("stable file reported", logging.String(logging.FieldPath, path))
		default:
			// Queue full: leave unemitted so the next tick retries.
		}
	}
}

// Exists is the file-existence predicate used for ledger reconciliation.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
