// package engine implements the smart playlist synchronization engine: the
// operation queue that serializes sync work, and the reconciler that drives
// remote playlists toward their criteria-matching membership.
package engine

import (
	"context"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
)

// OperationKind distinguishes single-track syncs from batched ones. It only
// affects logging; both kinds obey the same queue discipline.
type OperationKind int

const (
	OpSingle OperationKind = iota
	OpMultiple
)

func (k OperationKind) String() string {
	switch k {
	case OpSingle:
		return "single"
	case OpMultiple:
		return "multiple"
	default:
		return ""
	}
}

// Operation is a transient unit of sync work. Operations are never
// persisted; they live in the queue only for the duration of processing and
// are consumed exactly once.
type Operation struct {
	ID      string
	Kind    OperationKind
	Execute func(ctx context.Context) error
}

type queueState int

const (
	stateIdle queueState = iota
	stateDraining
)

// queued pairs an operation with the context it was enqueued under, so a
// caller's cancellation applies to its own operation without tearing down
// the queue.
type queued struct {
	ctx context.Context
	op  Operation
}

// OperationQueue is a single-flight sequential executor. Operations run one
// at a time in submission order and never overlap, even though each
// operation internally performs multiple remote calls.
//
// The queue is unbounded: a pathological burst of edits queues work rather
// than dropping it. There is also no per-operation timeout; an operation
// that never returns stalls everything behind it, so callers should pass
// contexts that carry process-level cancellation.
type OperationQueue struct {
	logger *log.Logger

	mu      sync.Mutex
	pending []queued
	state   queueState
	done    chan struct{} // closed when the in-flight drain returns to idle
}

// NewOperationQueue creates an idle queue.
func NewOperationQueue(logger *log.Logger) *OperationQueue {
	return &OperationQueue{logger: logger, state: stateIdle}
}

// Enqueue appends an operation and starts a drain if none is in flight.
// While a drain is running, enqueue only appends: the running loop picks the
// operation up in FIFO order, and callers share the same in-flight drain.
func (q *OperationQueue) Enqueue(ctx context.Context, op Operation) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.pending = append(q.pending, queued{ctx: ctx, op: op})
	q.logger.Debug("operation enqueued", "id", op.ID, "kind", op.Kind.String(), "depth", len(q.pending))

	if q.state == stateIdle {
		q.state = stateDraining
		q.done = make(chan struct{})
		go q.drain(q.done)
	}
}

// drain executes pending operations front-to-back until the list empties,
// then transitions back to idle and releases waiters. An operation that
// fails (or panics) is logged and does not halt the queue.
func (q *OperationQueue) drain(done chan struct{}) {
	for {
		q.mu.Lock()
		if len(q.pending) == 0 {
			q.state = stateIdle
			q.mu.Unlock()
			close(done)
			return
		}
		next := q.pending[0]
		q.pending = q.pending[1:]
		q.mu.Unlock()

		q.run(next)
	}
}

// run executes one operation, containing both returned errors and panics.
func (q *OperationQueue) run(item queued) {
	defer func() {
		if r := recover(); r != nil {
			q.logger.Error("sync operation panicked", "id", item.op.ID, "panic", fmt.Sprintf("%v", r))
		}
	}()

	if err := item.ctx.Err(); err != nil {
		q.logger.Warn("skipping sync operation, context done", "id", item.op.ID, "err", err)
		return
	}

	if err := item.op.Execute(item.ctx); err != nil {
		q.logger.Error("sync operation failed", "id", item.op.ID, "kind", item.op.Kind.String(), "err", err)
	}
}

// Wait blocks until the queue is idle or ctx is done. Work enqueued while
// waiting is included: Wait only returns once no drain is in flight.
func (q *OperationQueue) Wait(ctx context.Context) error {
	for {
		q.mu.Lock()
		if q.state == stateIdle {
			q.mu.Unlock()
			return nil
		}
		done := q.done
		q.mu.Unlock()

		select {
		case <-done:
			// Re-check: a new drain may have started for later enqueues.
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Len reports the number of operations awaiting execution.
func (q *OperationQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}
