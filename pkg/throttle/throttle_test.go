package throttle

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTrigger_CoalescesBurstIntoOneInvocation(t *testing.T) {
	var fired atomic.Int32
	th := New(50*time.Millisecond, func() { fired.Add(1) })

	for i := 0; i < 20; i++ {
		th.Trigger()
	}

	assert.Equal(t, int32(0), fired.Load(), "trailing edge must not fire early")

	assert.Eventually(t, func() bool {
		return fired.Load() == 1
	}, time.Second, 5*time.Millisecond)

	// No further invocations without a new trigger.
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(1), fired.Load())
}

func TestTrigger_NewWindowAfterFire(t *testing.T) {
	var fired atomic.Int32
	th := New(20*time.Millisecond, func() { fired.Add(1) })

	th.Trigger()
	assert.Eventually(t, func() bool { return fired.Load() == 1 }, time.Second, time.Millisecond)

	th.Trigger()
	assert.Eventually(t, func() bool { return fired.Load() == 2 }, time.Second, time.Millisecond)
}

func TestFlush_CancelsPendingWindowAndFiresNow(t *testing.T) {
	var mu sync.Mutex
	var fired int
	th := New(time.Hour, func() {
		mu.Lock()
		fired++
		mu.Unlock()
	})

	th.Trigger()
	th.Flush()

	mu.Lock()
	assert.Equal(t, 1, fired, "flush fires synchronously")
	mu.Unlock()

	// The cancelled window must not fire a second time.
	time.Sleep(50 * time.Millisecond)
	mu.Lock()
	assert.Equal(t, 1, fired)
	mu.Unlock()
}

func TestFlush_WithoutPendingWindow(t *testing.T) {
	fired := 0
	th := New(time.Hour, func() { fired++ })

	th.Flush()

	assert.Equal(t, 1, fired)
}

func TestStop_SuppressesPendingAndFutureInvocations(t *testing.T) {
	var fired atomic.Int32
	th := New(10*time.Millisecond, func() { fired.Add(1) })

	th.Trigger()
	th.Stop()

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(0), fired.Load())

	th.Trigger()
	th.Flush()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(0), fired.Load())
}
