// Package batch schedules discovered paths into single-file work items.
//
// At most one batch is in flight at any time. Newly discovered paths
// accumulate in a pending set until the active batch drains, then the next
// snapshot is frozen in a deterministic order. The scheduler holds no locks:
// it is owned by the pipeline control loop, the only goroutine allowed to
// touch it.
package batch
