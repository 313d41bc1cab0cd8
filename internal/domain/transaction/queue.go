package transaction

import (
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/homeshell/internal/infrastructure/monitoring"
)

// Compositor applies a batch of operations atomically: either every op is
// visible in the next frame or none is.
type Compositor interface {
	Apply(tx *Transaction) error
}

// Queue accumulates transactions produced while handling one signal and
// commits them as a single batch. Owned by the shell executor.
type Queue struct {
	compositor Compositor
	logger     *zap.Logger
	metrics    *monitoring.Metrics
	pending    *Transaction
}

// NewQueue creates a queue committing to compositor
func NewQueue(compositor Compositor, logger *zap.Logger, metrics *monitoring.Metrics) *Queue {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Queue{
		compositor: compositor,
		logger:     logger,
		metrics:    metrics,
		pending:    New(),
	}
}

// Queue defers tx until the next Flush
func (q *Queue) Queue(tx *Transaction) {
	q.pending.Merge(tx)
}

// RunInSync builds a transaction with fn and defers it
func (q *Queue) RunInSync(fn func(tx *Transaction)) {
	tx := New()
	fn(tx)
	q.Queue(tx)
}

// Flush commits every pending transaction as one batch
func (q *Queue) Flush() {
	if q.pending.Empty() {
		return
	}
	batch := q.pending
	q.pending = New()
	q.commit(batch)
}

// Apply commits pending work plus tx right away. Used for animation frames,
// which must not wait for the end of the current dispatch.
func (q *Queue) Apply(tx *Transaction) {
	batch := q.pending.Merge(tx)
	q.pending = New()
	if batch.Empty() {
		return
	}
	q.commit(batch)
}

// Pending returns the number of deferred operations
func (q *Queue) Pending() int {
	return q.pending.Len()
}

func (q *Queue) commit(batch *Transaction) {
	err := q.compositor.Apply(batch)
	q.metrics.RecordTransaction(batch.Len(), err)
	if err != nil {
		// nothing upstream can recover a rejected frame
		q.logger.Error("Compositor rejected transaction", zap.Int("ops", batch.Len()), zap.Error(err))
		return
	}
	q.logger.Debug("Transaction committed", zap.Int("ops", batch.Len()))
}
