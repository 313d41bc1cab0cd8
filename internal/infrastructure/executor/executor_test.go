package executor

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func startSerial(t *testing.T) (*Serial, context.CancelFunc) {
	t.Helper()
	s := NewSerial(zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	go s.Run(ctx)
	t.Cleanup(func() {
		cancel()
		<-s.Done()
	})
	return s, cancel
}

func TestSerialRunsInOrder(t *testing.T) {
	s, _ := startSerial(t)

	var order []int
	for i := 0; i < 50; i++ {
		i := i
		s.Execute(func() { order = append(order, i) })
	}
	require.NoError(t, s.Call(context.Background(), func() {}))

	require.Len(t, order, 50)
	for i, v := range order {
		assert.Equal(t, i, v)
	}
}

func TestSerialReentrantExecute(t *testing.T) {
	s, _ := startSerial(t)

	var ran atomic.Bool
	done := make(chan struct{})
	s.Execute(func() {
		s.Execute(func() {
			ran.Store(true)
			close(done)
		})
	})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("nested work never ran")
	}
	assert.True(t, ran.Load())
}

func TestSerialAfterEachHook(t *testing.T) {
	s := NewSerial(zap.NewNop())
	var hooks atomic.Int32
	s.AfterEach(func() { hooks.Add(1) })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx)

	s.Execute(func() {})
	s.Execute(func() {})
	require.NoError(t, s.Call(ctx, func() {}))

	assert.Equal(t, int32(3), hooks.Load())
}

func TestSerialRecoversPanic(t *testing.T) {
	s, _ := startSerial(t)

	s.Execute(func() { panic("boom") })

	var after bool
	require.NoError(t, s.Call(context.Background(), func() { after = true }))
	assert.True(t, after, "executor must keep running after a panic")
}

func TestSerialStop(t *testing.T) {
	s := NewSerial(zap.NewNop())
	go s.Run(context.Background())

	s.Stop()
	<-s.Done()

	err := s.Call(context.Background(), func() {})
	assert.ErrorIs(t, err, ErrStopped)
}

func TestImmediate(t *testing.T) {
	var n int
	Immediate{}.Execute(func() { n++ })
	Func(func(fn func()) { fn(); fn() }).Execute(func() { n++ })
	assert.Equal(t, 3, n)
}
