package batch

import (
	"path/filepath"
	"sort"
	"strings"
)

// ItemStatus tracks the lifecycle of a work item inside a batch.
type ItemStatus string

const (
	ItemPending ItemStatus = "pending"
	ItemRunning ItemStatus = "running"
	ItemDone    ItemStatus = "done"
)

// WorkItem is one path scheduled within a batch.
type WorkItem struct {
	BatchID int64
	Path    string
	Seq     int
	Status  ItemStatus
}

type activeBatch struct {
	id        int64
	items     []*WorkItem
	byPath    map[string]*WorkItem
	doneCount int
}

// Scheduler freezes pending paths into batches and tracks their completion.
type Scheduler struct {
	pending map[string]struct{}
	active  *activeBatch
	nextID  int64
}

// NewScheduler returns an idle scheduler with batch ids starting at 1.
func NewScheduler() *Scheduler {
	return &Scheduler{pending: make(map[string]struct{})}
}

// Add records a discovered path for a future batch. Paths already pending,
// or still in flight in the active batch, are ignored; replayed filesystem
// events must not double-schedule work.
func (s *Scheduler) Add(path string) bool {
	if path == "" {
		return false
	}
	if _, ok := s.pending[path]; ok {
		return false
	}
	if s.active != nil {
		if item, ok := s.active.byPath[path]; ok && item.Status != ItemDone {
			return false
		}
	}
	s.pending[path] = struct{}{}
	return true
}

// PendingCount returns the number of paths waiting for the next batch.
func (s *Scheduler) PendingCount() int {
	return len(s.pending)
}

// Active reports the in-flight batch, if any.
func (s *Scheduler) Active() (batchID int64, done, total int, ok bool) {
	if s.active == nil {
		return 0, 0, 0, false
	}
	return s.active.id, s.active.doneCount, len(s.active.items), true
}

// Freeze snapshots all pending paths into a new batch and returns its work
// items in dispatch order. It returns nil while a batch is active or when
// nothing is pending. Snapshot order is deterministic: lowercased basename
// first, full path as the tie-break.
func (s *Scheduler) Freeze() []WorkItem {
	if s.active != nil || len(s.pending) == 0 {
		return nil
	}

	paths := make([]string, 0, len(s.pending))
	for path := range s.pending {
		paths = append(paths, path)
	}
	sort.Slice(paths, func(i, j int) bool {
		bi := strings.ToLower(filepath.Base(paths[i]))
		bj := strings.ToLower(filepath.Base(paths[j]))
		if bi != bj {
			return bi < bj
		}
		return paths[i] < paths[j]
	})

	s.pending = make(map[string]struct{})
	s.nextID++

	active := &activeBatch{
		id:     s.nextID,
		items:  make([]*WorkItem, 0, len(paths)),
		byPath: make(map[string]*WorkItem, len(paths)),
	}
	out := make([]WorkItem, 0, len(paths))
	for i, path := range paths {
		item := &WorkItem{BatchID: active.id, Path: path, Seq: i, Status: ItemPending}
		active.items = append(active.items, item)
		active.byPath[path] = item
		out = append(out, *item)
	}
	s.active = active
	return out
}

// Running marks the matching work item as running. Events for a stale or
// foreign batch are expected during handoff races and ignored.
func (s *Scheduler) Running(batchID int64, path string) bool {
	item := s.lookup(batchID, path)
	if item == nil || item.Status == ItemDone {
		return false
	}
	item.Status = ItemRunning
	return true
}

// Done marks the matching work item done exactly once and retires the batch
// the instant every item has completed. The first return reports whether the
// batch just finished; the second whether this event changed anything.
func (s *Scheduler) Done(batchID int64, path string) (finished, applied bool) {
	item := s.lookup(batchID, path)
	if item == nil || item.Status == ItemDone {
		return false, false
	}
	item.Status = ItemDone
	s.active.doneCount++
	if s.active.doneCount >= len(s.active.items) {
		s.active = nil
		return true, true
	}
	return false, true
}

func (s *Scheduler) lookup(batchID int64, path string) *WorkItem {
	if s.active == nil || s.active.id != batchID {
		return nil
	}
	return s.active.byPath[path]
}
