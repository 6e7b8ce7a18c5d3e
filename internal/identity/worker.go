package identity

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"docsort/internal/config"
	"docsort/internal/docs"
	"docsort/internal/fileutil"
	"docsort/internal/logging"
)

// EventKind distinguishes worker progress events.
type EventKind string

const (
	EventRunning EventKind = "running"
	EventDone    EventKind = "done"
)

// Event is the worker-to-scheduler progress message. Path is always the
// original (pre-rename) path the item was enqueued with.
type Event struct {
	Kind    EventKind
	BatchID int64
	Path    string
}

// ResultKind distinguishes the two terminal outcomes of a work item.
type ResultKind string

const (
	KindProcessed        ResultKind = "processed"
	KindDuplicateSkipped ResultKind = "duplicate_skipped"
)

// Result is the identity resolution produced once per work item and consumed
// exactly once via TakeResult.
type Result struct {
	BatchID      int64
	OriginalPath string
	Fingerprint  string
	DocNumber    string
	DocType      docs.DocumentType
	RenamedPath  string
	// QuarantinedPath is set only when a duplicate was physically moved into
	// the quarantine directory; duplicates left in place carry none.
	QuarantinedPath string
	Kind            ResultKind
}

type resultKey struct {
	batchID int64
	path    string
}

type queuedItem struct {
	batchID int64
	path    string
}

// Worker resolves document identities sequentially, one path at a time in
// FIFO order. Pending input is unbounded; at most one item is in flight.
type Worker struct {
	classifier Classifier
	logger     *slog.Logger
	events     chan Event

	queueMu sync.Mutex
	queue   []queuedItem
	wake    chan struct{}

	// stateMu guards the result map and the fingerprint tables, which the
	// control loop reads while the worker goroutine writes.
	stateMu   sync.Mutex
	results   map[resultKey]Result
	seen      map[string]struct{}
	canonical map[string]string

	runMu   sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewWorker constructs an identity worker around the given classifier.
func NewWorker(classifier Classifier, logger *slog.Logger) *Worker {
	return &Worker{
		classifier: classifier,
		logger:     logging.NewComponentLogger(logger, "identity-worker"),
		events:     make(chan Event, 1024),
		wake:       make(chan struct{}, 1),
		results:    make(map[resultKey]Result),
		seen:       make(map[string]struct{}),
		canonical:  make(map[string]string),
	}
}

// Events returns the running/done event channel.
func (w *Worker) Events() <-chan Event {
	return w.events
}

// Start launches the consumer goroutine.
func (w *Worker) Start(ctx context.Context) error {
	w.runMu.Lock()
	defer w.runMu.Unlock()
	if w.running {
		return errors.New("identity worker already running")
	}
	runCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.running = true
	w.wg.Add(1)
	go w.run(runCtx)
	return nil
}

// Stop cancels the consumer and waits for it to finish the in-flight item;
// a hash or rename in progress runs to completion.
func (w *Worker) Stop() {
	w.runMu.Lock()
	if !w.running {
		w.runMu.Unlock()
		return
	}
	cancel := w.cancel
	w.running = false
	w.cancel = nil
	w.runMu.Unlock()

	cancel()
	w.wg.Wait()
}

// Enqueue schedules a path for identity resolution.
func (w *Worker) Enqueue(batchID int64, path string) {
	w.queueMu.Lock()
	w.queue = append(w.queue, queuedItem{batchID: batchID, path: path})
	w.queueMu.Unlock()
	select {
	case w.wake <- struct{}{}:
	default:
	}
}

// TakeResult removes and returns the stored result for (batchID, path).
func (w *Worker) TakeResult(batchID int64, path string) (Result, bool) {
	key := resultKey{batchID: batchID, path: fileutil.NormalizePath(path)}
	w.stateMu.Lock()
	defer w.stateMu.Unlock()
	res, ok := w.results[key]
	if ok {
		delete(w.results, key)
	}
	return res, ok
}

// ForgetFingerprint clears a fingerprint from the seen-set and the
// canonical-path table so re-appearing content is treated as first-seen.
func (w *Worker) ForgetFingerprint(fp string) {
	fp = strings.ToLower(strings.TrimSpace(fp))
	if fp == "" {
		return
	}
	w.stateMu.Lock()
	defer w.stateMu.Unlock()
	delete(w.seen, fp)
	delete(w.canonical, fp)
}

func (w *Worker) run(ctx context.Context) {
	defer w.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.wake:
		}
		for {
			if ctx.Err() != nil {
				return
			}
			item, ok := w.pop()
			if !ok {
				break
			}
			w.process(ctx, item)
		}
	}
}

func (w *Worker) pop() (queuedItem, bool) {
	w.queueMu.Lock()
	defer w.queueMu.Unlock()
	if len(w.queue) == 0 {
		return queuedItem{}, false
	}
	item := w.queue[0]
	w.queue = w.queue[1:]
	return item, true
}

func (w *Worker) emit(kind EventKind, batchID int64, path string) {
	select {
	case w.events <- Event{Kind: kind, BatchID: batchID, Path: path}:
	default:
		// Event queue full; the control loop treats missing progress events
		// as stale-batch noise, never as fatal.
	}
}

func (w *Worker) storeResult(res Result) {
	key := resultKey{batchID: res.BatchID, path: fileutil.NormalizePath(res.OriginalPath)}
	w.stateMu.Lock()
	w.results[key] = res
	w.stateMu.Unlock()
}

func (w *Worker) fingerprintSeen(fp string) bool {
	w.stateMu.Lock()
	defer w.stateMu.Unlock()
	_, ok := w.seen[fp]
	return ok
}

func (w *Worker) markSeen(fp string) {
	w.stateMu.Lock()
	w.seen[fp] = struct{}{}
	w.stateMu.Unlock()
}

func (w *Worker) canonicalFor(fp string) string {
	w.stateMu.Lock()
	defer w.stateMu.Unlock()
	return w.canonical[fp]
}

func (w *Worker) setCanonical(fp, path string) {
	w.stateMu.Lock()
	w.canonical[fp] = path
	w.stateMu.Unlock()
}

// process resolves one item end to end. The done event is emitted even when
// the item is abandoned, so the scheduler can always retire the batch.
func (w *Worker) process(ctx context.Context, item queuedItem) {
	w.emit(EventRunning, item.batchID, item.path)
	defer w.emit(EventDone, item.batchID, item.path)

	orig := fileutil.NormalizePath(item.path)
	var fp string

	defer func() {
		r := recover()
		if r == nil {
			return
		}
		// Roll back fingerprint state so a clean retry is possible, but
		// never drop the file without a result.
		if fp != "" {
			w.ForgetFingerprint(fp)
		}
		w.logger.Error("identity resolution panicked; row forced to review",
			logging.String(logging.FieldPath, orig),
			logging.Any("panic", r),
		)
		w.storeResult(Result{
			BatchID:      item.batchID,
			OriginalPath: orig,
			Fingerprint:  fp,
			DocNumber:    docs.SentinelName,
			DocType:      docs.TypeUnknown,
			Kind:         KindProcessed,
		})
	}()

	if orig == "" || !pathExists(orig) {
		return
	}

	hashed, err := fileutil.HashFile(orig)
	if err != nil {
		w.logger.Warn("fingerprint failed; row forced to review",
			logging.String(logging.FieldPath, orig),
			logging.Error(err),
		)
		w.storeResult(Result{
			BatchID:      item.batchID,
			OriginalPath: orig,
			DocNumber:    docs.SentinelName,
			DocType:      docs.TypeUnknown,
			Kind:         KindProcessed,
		})
		return
	}
	fp = hashed

	if w.fingerprintSeen(fp) {
		w.handleDuplicate(item.batchID, orig, fp)
		return
	}
	w.handleFirstSeen(ctx, item.batchID, orig, fp)
}

// handleDuplicate decides whether quarantining the newly seen copy is safe.
// Every guard must pass, otherwise the worker self-heals the canonical
// mapping onto the current file and leaves the filesystem untouched.
func (w *Worker) handleDuplicate(batchID int64, orig, fp string) {
	duplicate := Result{
		BatchID:      batchID,
		OriginalPath: orig,
		Fingerprint:  fp,
		DocNumber:    docs.SentinelName,
		DocType:      docs.TypeUnknown,
		Kind:         KindDuplicateSkipped,
	}

	canQuarantine := true

	// Guard: fingerprint format must be well-formed.
	if !fileutil.IsHexDigest(fp) {
		canQuarantine = false
	}

	// Guards: a canonical path must be recorded, differ from the current
	// path, and still exist on disk. Anything else means the mapping is
	// stale; the current file becomes canonical.
	canonical := w.canonicalFor(fp)
	switch {
	case canonical == "":
		canQuarantine = false
		w.setCanonical(fp, orig)
	case canonical == orig:
		canQuarantine = false
	case !pathExists(canonical):
		canQuarantine = false
		w.setCanonical(fp, orig)
	}

	// Guard: the current file must still hash to the fingerprint that
	// classified it as a duplicate.
	currentVerify, err := fileutil.HashFile(orig)
	if err != nil {
		w.setCanonical(fp, orig)
		w.storeResult(duplicate)
		return
	}
	if currentVerify != fp {
		canQuarantine = false
	}

	// Guard: the canonical copy must still hash to the same fingerprint.
	if canQuarantine {
		canonicalVerify, err := fileutil.HashFile(canonical)
		if err != nil {
			w.setCanonical(fp, orig)
			w.storeResult(duplicate)
			return
		}
		if canonicalVerify != fp {
			canQuarantine = false
			w.setCanonical(fp, orig)
		}
	}

	if !canQuarantine {
		w.storeResult(duplicate)
		return
	}

	// Do not delete duplicates: renames can trigger a second filesystem
	// event and re-queue the renamed file; deleting would remove the only
	// copy. A failed move leaves the file in place.
	moved, err := quarantineMove(orig)
	if err != nil {
		w.logger.Warn("quarantine move failed; duplicate left in place",
			logging.String(logging.FieldPath, orig),
			logging.Error(err),
		)
	} else {
		duplicate.QuarantinedPath = moved
		w.logger.Info("duplicate quarantined",
			logging.String(logging.FieldPath, orig),
			logging.String(logging.FieldFingerprint, fp[:12]),
		)
	}
	w.storeResult(duplicate)
}

func (w *Worker) handleFirstSeen(ctx context.Context, batchID int64, orig, fp string) {
	w.markSeen(fp)

	docNumber, docType := w.classifier.Classify(ctx, orig)
	docNumber = strings.TrimSpace(docNumber)
	if docNumber == "" {
		docNumber = docs.SentinelName
	}
	if strings.EqualFold(filepath.Ext(docNumber), ".pdf") {
		docNumber = docNumber[:len(docNumber)-len(".pdf")]
	}

	safeStem := ""
	if docNumber != docs.SentinelName {
		safeStem = fileutil.SanitizeStem(docNumber)
		if safeStem == "" {
			docNumber = docs.SentinelName
			docType = docs.TypeUnknown
		}
	}

	dir := filepath.Dir(orig)
	fallbackStem := docs.SentinelName + "__" + fp[:12]

	renamed := ""
	if docNumber != docs.SentinelName {
		renamed = attemptRename(orig, fileutil.UniquePath(dir, safeStem, ".pdf"))
		if renamed == "" {
			// Preferred name failed: fall back to the fingerprint name and
			// force Review rather than mis-filing the document.
			renamed = attemptRename(orig, fileutil.UniquePath(dir, fallbackStem, ".pdf"))
			docNumber = docs.SentinelName
			docType = docs.TypeUnknown
		}
	} else {
		renamed = attemptRename(orig, fileutil.UniquePath(dir, fallbackStem, ".pdf"))
	}
	if renamed == "" {
		renamed = orig
		docNumber = docs.SentinelName
		docType = docs.TypeUnknown
	}

	w.setCanonical(fp, renamed)
	w.storeResult(Result{
		BatchID:      batchID,
		OriginalPath: orig,
		Fingerprint:  fp,
		DocNumber:    docNumber,
		DocType:      docType,
		RenamedPath:  renamed,
		Kind:         KindProcessed,
	})
}

// attemptRename atomically renames src to target and returns the normalized
// final path, or "" on failure. Renaming a file onto itself is a no-op.
func attemptRename(src, target string) string {
	if fileutil.NormalizePath(target) == src {
		return src
	}
	if err := os.Rename(src, target); err != nil {
		return ""
	}
	return fileutil.NormalizePath(target)
}

// quarantineMove relocates a verified duplicate into the quarantine
// subdirectory of its own parent, collision-free, and returns the
// destination path.
func quarantineMove(path string) (string, error) {
	dir := filepath.Join(filepath.Dir(path), config.QuarantineDirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	target := fileutil.UniquePath(dir, stem, ext)
	if err := os.Rename(path, target); err != nil {
		return "", err
	}
	return fileutil.NormalizePath(target), nil
}

func pathExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
