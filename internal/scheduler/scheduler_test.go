package scheduler

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScheduleFires(t *testing.T) {
	s := New()
	defer s.Stop()

	var fired atomic.Int32
	s.Schedule(1, 5*time.Millisecond, func() { fired.Add(1) })

	require.True(t, s.Pending(1))
	require.Eventually(t, func() bool {
		return fired.Load() == 1
	}, time.Second, time.Millisecond)
	assert.False(t, s.Pending(1))
}

func TestScheduleReplacesPendingTask(t *testing.T) {
	s := New()
	defer s.Stop()

	var first, second atomic.Int32
	s.Schedule(1, 10*time.Millisecond, func() { first.Add(1) })
	s.Schedule(1, 10*time.Millisecond, func() { second.Add(1) })

	require.Eventually(t, func() bool {
		return second.Load() == 1
	}, time.Second, time.Millisecond)
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, int32(0), first.Load(), "replaced task must not fire")
	assert.Equal(t, int32(1), second.Load())
}

func TestKeysAreIndependent(t *testing.T) {
	s := New()
	defer s.Stop()

	var a, b atomic.Int32
	s.Schedule(1, 5*time.Millisecond, func() { a.Add(1) })
	s.Schedule(2, 5*time.Millisecond, func() { b.Add(1) })

	require.Eventually(t, func() bool {
		return a.Load() == 1 && b.Load() == 1
	}, time.Second, time.Millisecond)
}

func TestCancel(t *testing.T) {
	s := New()
	defer s.Stop()

	var fired atomic.Int32
	s.Schedule(1, 10*time.Millisecond, func() { fired.Add(1) })

	assert.True(t, s.Cancel(1))
	assert.False(t, s.Pending(1))
	assert.False(t, s.Cancel(1))

	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, int32(0), fired.Load())
}

func TestStopRejectsFurtherScheduling(t *testing.T) {
	s := New()

	var fired atomic.Int32
	s.Schedule(1, 10*time.Millisecond, func() { fired.Add(1) })
	s.Stop()

	s.Schedule(2, time.Millisecond, func() { fired.Add(1) })
	assert.False(t, s.Pending(2))

	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, int32(0), fired.Load())
}
