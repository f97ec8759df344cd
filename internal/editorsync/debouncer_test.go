package editorsync

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDebouncer_CoalescesBursts(t *testing.T) {
	d := NewDebouncer(30 * time.Millisecond)
	var calls, last atomic.Int32

	for i := 1; i <= 5; i++ {
		i := i
		d.Trigger(func() {
			calls.Add(1)
			last.Store(int32(i))
		})
	}

	assert.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(60 * time.Millisecond)
	assert.EqualValues(t, 1, calls.Load())
	assert.EqualValues(t, 5, last.Load())
}

func TestDebouncer_FlushRunsPendingNow(t *testing.T) {
	d := NewDebouncer(time.Hour)
	var calls atomic.Int32
	d.Trigger(func() { calls.Add(1) })

	assert.True(t, d.Pending())
	d.Flush()
	assert.EqualValues(t, 1, calls.Load())
	assert.False(t, d.Pending())

	d.Flush()
	assert.EqualValues(t, 1, calls.Load())
}

func TestDebouncer_Cancel(t *testing.T) {
	d := NewDebouncer(10 * time.Millisecond)
	var calls atomic.Int32
	d.Trigger(func() { calls.Add(1) })
	d.Cancel()

	time.Sleep(40 * time.Millisecond)
	assert.EqualValues(t, 0, calls.Load())
}
