package engine

import (
	"context"

	"github.com/charmbracelet/log"

	"cratesync/internal/models"
	"cratesync/internal/shared"
	"cratesync/internal/tagstore"
)

// Engine ties the operation queue to the reconciler: tag mutations and
// manual sync triggers become queued operations so their remote calls never
// interleave.
type Engine struct {
	queue      *OperationQueue
	reconciler *Reconciler
	logger     *log.Logger
}

// New creates an Engine around an idle queue.
func New(reconciler *Reconciler, logger *log.Logger) *Engine {
	return &Engine{
		queue:      NewOperationQueue(logger),
		reconciler: reconciler,
		logger:     logger,
	}
}

// Queue exposes the underlying operation queue.
func (e *Engine) Queue() *OperationQueue {
	return e.queue
}

// EnqueueChanges schedules incremental reconciliation for the given tag
// mutations (nil record = deleted).
func (e *Engine) EnqueueChanges(ctx context.Context, changes map[string]*models.TrackRecord) {
	if len(changes) == 0 {
		return
	}

	kind := OpSingle
	if len(changes) > 1 {
		kind = OpMultiple
	}

	e.queue.Enqueue(ctx, Operation{
		ID:   shared.GenerateID(),
		Kind: kind,
		Execute: func(ctx context.Context) error {
			return e.reconciler.SyncChangedTracks(ctx, changes)
		},
	})
}

// EnqueueFullSync schedules full-mode reconciliation for one playlist.
// Results surface through the notifier.
func (e *Engine) EnqueueFullSync(ctx context.Context, playlistID string) {
	e.queue.Enqueue(ctx, Operation{
		ID:   shared.GenerateID(),
		Kind: OpSingle,
		Execute: func(ctx context.Context) error {
			_, err := e.reconciler.FullSync(ctx, playlistID)
			return err
		},
	})
}

// Bridge consumes tag store change events and feeds them into the queue.
// Returns when the subscription channel closes or ctx is done.
func (e *Engine) Bridge(ctx context.Context, events <-chan tagstore.Change) {
	for {
		select {
		case change, ok := <-events:
			if !ok {
				return
			}
			e.EnqueueChanges(ctx, change)
		case <-ctx.Done():
			return
		}
	}
}

// Wait blocks until all queued operations have completed.
func (e *Engine) Wait(ctx context.Context) error {
	return e.queue.Wait(ctx)
}
