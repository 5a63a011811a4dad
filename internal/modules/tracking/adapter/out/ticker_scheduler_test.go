package out_test

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	trackingadapter "tally/internal/modules/tracking/adapter/out"
)

func TestTickerSchedulerStopsAfterCancel(t *testing.T) {
	t.Parallel()
	var n atomic.Int64
	cancel := trackingadapter.NewTickerScheduler().Every(5*time.Millisecond, func() { n.Add(1) })

	assert.Eventually(t, func() bool { return n.Load() >= 2 }, time.Second, time.Millisecond)
	cancel()
	cancel()
	// Allow a tick that was already in flight to land.
	time.Sleep(20 * time.Millisecond)
	settled := n.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, settled, n.Load(), "no ticks after cancel")
}
