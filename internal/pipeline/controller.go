package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"docsort/internal/batch"
	"docsort/internal/docs"
	"docsort/internal/identity"
	"docsort/internal/logging"
	"docsort/internal/watcher"
)

// Journal is the subset of journal.Store the controller writes through.
type Journal interface {
	RecordResult(ctx context.Context, res identity.Result) error
	RecordDeposit(ctx context.Context, row *docs.Row) error
}

// Options bundle the controller's collaborators and cadence settings.
type Options struct {
	Watcher        *watcher.Watcher
	Worker         *identity.Worker
	Journal        Journal
	TickInterval   time.Duration
	ReconcileEvery int
}

// StatusSnapshot is a point-in-time view of the pipeline for the API.
type StatusSnapshot struct {
	Ready        int
	Review       int
	Processed    int
	PendingCount int
	BatchActive  bool
	BatchID      int64
	BatchDone    int
	BatchTotal   int
}

// Controller owns the document ledger and batch scheduler and advances them
// on a fixed tick. All ledger access happens on the control goroutine.
type Controller struct {
	logger  *slog.Logger
	watcher *watcher.Watcher
	worker  *identity.Worker
	journal Journal

	ledger *docs.Ledger
	sched  *batch.Scheduler

	tickInterval   time.Duration
	reconcileEvery int
	tickCount      int

	commands chan func()

	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// ErrNotRunning is returned by mutations issued against a stopped controller.
var ErrNotRunning = errors.New("pipeline not running")

// NewController wires a controller from its collaborators.
func NewController(opts Options, logger *slog.Logger) *Controller {
	tick := opts.TickInterval
	if tick <= 0 {
		tick = 100 * time.Millisecond
	}
	reconcile := opts.ReconcileEvery
	if reconcile <= 0 {
		reconcile = 20
	}
	return &Controller{
		logger:         logging.NewComponentLogger(logger, "pipeline"),
		watcher:        opts.Watcher,
		worker:         opts.Worker,
		journal:        opts.Journal,
		ledger:         docs.NewLedger(),
		sched:          batch.NewScheduler(),
		tickInterval:   tick,
		reconcileEvery: reconcile,
		commands:       make(chan func(), 64),
	}
}

// Start launches the control loop.
func (c *Controller) Start(ctx context.Context) error {
	if c.running {
		return errors.New("pipeline already running")
	}
	runCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.done = make(chan struct{})
	c.running = true
	go c.run(runCtx)
	return nil
}

// Stop cancels the control loop and waits for it to exit.
func (c *Controller) Stop() {
	if !c.running {
		return
	}
	c.running = false
	c.cancel()
	<-c.done
}

func (c *Controller) run(ctx context.Context) {
	defer close(c.done)

	ticker := time.NewTicker(c.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case cmd := <-c.commands:
			cmd()
		case <-ticker.C:
			c.tick(ctx)
		}
	}
}

// tick advances the pipeline one step: ingest discoveries, apply worker
// progress, dispatch the next batch, and periodically reconcile deletions.
func (c *Controller) tick(ctx context.Context) {
	c.drainDiscoveries()
	c.drainWorkerEvents(ctx)
	c.dispatchBatch()

	c.tickCount++
	if c.tickCount%c.reconcileEvery == 0 {
		c.reconcileMissing()
	}
}

func (c *Controller) drainDiscoveries() {
	if c.watcher == nil {
		return
	}
	for {
		select {
		case path := <-c.watcher.Paths():
			if c.sched.Add(path) {
				c.logger.Debug("path queued",
					logging.String(logging.FieldPath, path),
				)
			}
		default:
			return
		}
	}
}

func (c *Controller) drainWorkerEvents(ctx context.Context) {
	for {
		select {
		case ev := <-c.worker.Events():
			switch ev.Kind {
			case identity.EventRunning:
				c.sched.Running(ev.BatchID, ev.Path)
			case identity.EventDone:
				if _, applied := c.sched.Done(ev.BatchID, ev.Path); applied {
					c.applyResult(ctx, ev.BatchID, ev.Path)
				}
			}
		default:
			return
		}
	}
}

func (c *Controller) applyResult(ctx context.Context, batchID int64, path string) {
	res, ok := c.worker.TakeResult(batchID, path)
	if !ok {
		// Abandoned item: the file vanished before hashing. Nothing to
		// apply; the scheduler already counted it done.
		return
	}

	switch res.Kind {
	case identity.KindProcessed:
		rowPath := res.RenamedPath
		if rowPath == "" {
			rowPath = res.OriginalPath
		}
		row := c.ledger.AddDocument(res.DocNumber, res.DocType, rowPath, res.Fingerprint)
		c.logger.Info("document ingested",
			logging.String(logging.FieldRowID, row.ID),
			logging.String(logging.FieldPath, rowPath),
			logging.String("status", string(row.Status)),
		)
	case identity.KindDuplicateSkipped:
		c.logger.Info("duplicate skipped",
			logging.String(logging.FieldPath, res.OriginalPath),
		)
	}

	if c.journal != nil {
		if err := c.journal.RecordResult(ctx, res); err != nil {
			c.logger.Warn("journal write failed", logging.Error(err))
		}
	}
}

func (c *Controller) dispatchBatch() {
	items := c.sched.Freeze()
	if items == nil {
		return
	}
	c.logger.Info("batch dispatched",
		logging.Int64(logging.FieldBatchID, items[0].BatchID),
		logging.Int("size", len(items)),
	)
	for _, item := range items {
		c.worker.Enqueue(item.BatchID, item.Path)
	}
}

func (c *Controller) reconcileMissing() {
	removed := c.ledger.RemoveMissing(watcher.Exists)
	for _, row := range removed {
		c.worker.ForgetFingerprint(row.Fingerprint)
		c.logger.Info("row reconciled away",
			logging.String(logging.FieldRowID, row.ID),
			logging.String(logging.FieldPath, row.SourcePath),
		)
	}
}

// do runs fn on the control goroutine and waits for it.
func (c *Controller) do(ctx context.Context, fn func()) error {
	wrapped := make(chan struct{})
	cmd := func() {
		defer close(wrapped)
		fn()
	}
	select {
	case c.commands <- cmd:
	case <-ctx.Done():
		return ctx.Err()
	case <-c.done:
		return ErrNotRunning
	}
	select {
	case <-wrapped:
		return nil
	case <-c.done:
		return ErrNotRunning
	}
}

// Rows returns ledger rows matching the filters, Review rows first.
func (c *Controller) Rows(ctx context.Context, status docs.Status, docType docs.DocumentType) ([]docs.Row, error) {
	var rows []docs.Row
	err := c.do(ctx, func() {
		rows = c.ledger.Snapshot(status, docType)
	})
	return rows, err
}

// Status reports ledger counts and batch progress.
func (c *Controller) Status(ctx context.Context) (StatusSnapshot, error) {
	var snap StatusSnapshot
	err := c.do(ctx, func() {
		snap.Ready, snap.Review, snap.Processed = c.ledger.Counts()
		snap.PendingCount = c.sched.PendingCount()
		snap.BatchID, snap.BatchDone, snap.BatchTotal, snap.BatchActive = c.sched.Active()
	})
	return snap, err
}

// Resolve applies operator-supplied identity to a row.
func (c *Controller) Resolve(ctx context.Context, rowID, docNumber string, docType docs.DocumentType, newSourcePath string) (bool, error) {
	var found bool
	err := c.do(ctx, func() {
		found = c.ledger.ResolveManual(rowID, docNumber, docType, newSourcePath)
		if found {
			c.logger.Info("row resolved",
				logging.String(logging.FieldRowID, rowID),
				logging.String("doc_number", docNumber),
			)
		}
	})
	return found, err
}

// SetChecked sets a row's check mark when the row is eligible.
func (c *Controller) SetChecked(ctx context.Context, rowID string, checked bool) (bool, error) {
	var found bool
	err := c.do(ctx, func() {
		found = c.ledger.ToggleChecked(rowID, checked)
	})
	return found, err
}

// CheckAll applies the header-checkbox semantics to every eligible row.
func (c *Controller) CheckAll(ctx context.Context, checked bool) (int, error) {
	var changed int
	err := c.do(ctx, func() {
		changed = c.ledger.ToggleAllEligible(checked)
	})
	return changed, err
}

// Deposit marks every Ready row Processed and journals the transition.
func (c *Controller) Deposit(ctx context.Context) (int, error) {
	var count int
	err := c.do(ctx, func() {
		deposited := c.ledger.Deposit()
		count = len(deposited)
		if c.journal == nil {
			return
		}
		for _, row := range deposited {
			if err := c.journal.RecordDeposit(ctx, row); err != nil {
				c.logger.Warn("journal deposit failed",
					logging.String(logging.FieldRowID, row.ID),
					logging.Error(err),
				)
			}
		}
	})
	if err == nil && count > 0 {
		c.logger.Info("rows deposited", logging.Int("count", count))
	}
	return count, err
}
