package transaction

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/homeshell/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentOS/homeshell/internal/shared/id"
	"github.com/GriffinCanCode/AgentOS/homeshell/internal/shared/types"
)

type recorder struct {
	batches [][]Op
	err     error
}

func (r *recorder) Apply(tx *Transaction) error {
	r.batches = append(r.batches, tx.Ops())
	return r.err
}

func TestLastWriterWins(t *testing.T) {
	s := id.SurfaceID("srf_a")
	tx := New().
		SetPosition(s, 0, 10).
		Show(s).
		SetPosition(s, 0, 20).
		Hide(s)

	ops := tx.Ops()
	require.Len(t, ops, 2)
	assert.Equal(t, KindPosition, ops[0].Kind)
	assert.Equal(t, 20.0, ops[0].Y)
	assert.Equal(t, KindVisibility, ops[1].Kind)
	assert.False(t, ops[1].Flag)
}

func TestDistinctTargetsKept(t *testing.T) {
	tx := New().
		SetLayer("srf_a", 100).
		SetLayer("srf_b", 200).
		SetBounds("tok_a", types.NewRect(0, 0, 10, 10)).
		SetBounds("tok_b", types.NewRect(0, 10, 10, 20))
	assert.Equal(t, 4, tx.Len())
}

func TestCropClearReplacesCrop(t *testing.T) {
	tx := New().SetCrop("srf_a", types.NewRect(0, 0, 5, 5)).ClearCrop("srf_a")
	ops := tx.Ops()
	require.Len(t, ops, 1)
	assert.True(t, ops[0].Clear)
}

func TestZeroValueTransactionUsable(t *testing.T) {
	var tx Transaction
	tx.SetHidden("tok_a", true).SetHidden("tok_a", false)
	require.Equal(t, 1, tx.Len())
	assert.False(t, tx.Ops()[0].Flag)
}

func TestQueueFlushSingleBatch(t *testing.T) {
	rec := &recorder{}
	q := NewQueue(rec, zap.NewNop(), nil)

	q.RunInSync(func(tx *Transaction) { tx.SetPosition("srf_a", 0, 1) })
	q.RunInSync(func(tx *Transaction) { tx.SetPosition("srf_a", 0, 2) })
	q.Queue(New().Show("srf_b"))
	assert.Equal(t, 2, q.Pending())
	assert.Empty(t, rec.batches)

	q.Flush()
	require.Len(t, rec.batches, 1)
	assert.Len(t, rec.batches[0], 2)
	assert.Equal(t, 2.0, rec.batches[0][0].Y)

	q.Flush()
	assert.Len(t, rec.batches, 1, "empty flush must not reach the compositor")
}

func TestQueueApplyIncludesPending(t *testing.T) {
	rec := &recorder{}
	q := NewQueue(rec, zap.NewNop(), nil)

	q.Queue(New().SetLayer("srf_a", 100))
	q.Apply(New().SetPosition("srf_a", 0, 50))

	require.Len(t, rec.batches, 1)
	assert.Len(t, rec.batches[0], 2)
	assert.Zero(t, q.Pending())
}

func TestQueueSwallowsCompositorErrors(t *testing.T) {
	rec := &recorder{err: errors.New("surface gone")}
	metrics := monitoring.NewMetrics(prometheus.NewRegistry())
	q := NewQueue(rec, zap.NewNop(), metrics)

	q.Queue(New().Show("srf_a"))
	assert.NotPanics(t, q.Flush)
	assert.Zero(t, q.Pending())
	assert.Zero(t, metrics.GetSnapshot().Transactions)
}
