package scheduler

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDebouncer_CoalescesBursts(t *testing.T) {
	d := NewDebouncer(40 * time.Millisecond)
	var runs, last atomic.Int32

	for i := int32(1); i <= 5; i++ {
		d.Schedule(func() {
			runs.Add(1)
			last.Store(i)
		})
		time.Sleep(5 * time.Millisecond)
	}

	assert.Eventually(t, func() bool { return runs.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(80 * time.Millisecond)
	assert.Equal(t, int32(1), runs.Load(), "a burst produces one run")
	assert.Equal(t, int32(5), last.Load(), "the latest task wins")
	assert.False(t, d.Pending())
}

func TestDebouncer_SeparatedCallsRunEach(t *testing.T) {
	d := NewDebouncer(10 * time.Millisecond)
	var runs atomic.Int32

	d.Schedule(func() { runs.Add(1) })
	assert.Eventually(t, func() bool { return runs.Load() == 1 }, time.Second, 5*time.Millisecond)

	d.Schedule(func() { runs.Add(1) })
	assert.Eventually(t, func() bool { return runs.Load() == 2 }, time.Second, 5*time.Millisecond)
}

func TestDebouncer_Cancel(t *testing.T) {
	d := NewDebouncer(10 * time.Millisecond)
	var runs atomic.Int32

	d.Schedule(func() { runs.Add(1) })
	d.Cancel()

	time.Sleep(40 * time.Millisecond)
	assert.Equal(t, int32(0), runs.Load())
	assert.False(t, d.Flush(), "nothing left to flush")
}

func TestDebouncer_Flush(t *testing.T) {
	d := NewDebouncer(time.Hour)
	var runs atomic.Int32

	d.Schedule(func() { runs.Add(1) })
	assert.True(t, d.Pending())

	assert.True(t, d.Flush())
	assert.Equal(t, int32(1), runs.Load())
	assert.False(t, d.Flush())
	assert.Equal(t, int32(1), runs.Load())
}

func TestDebouncer_Delay(t *testing.T) {
	assert.Equal(t, 25*time.Millisecond, NewDebouncer(25*time.Millisecond).Delay())
}
