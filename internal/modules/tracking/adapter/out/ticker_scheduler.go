package out

import (
	"sync"
	"time"

	trackingout "tally/internal/modules/tracking/port/out"
)

// TickerScheduler drives callbacks from a time.Ticker goroutine.
type TickerScheduler struct{}

func NewTickerScheduler() trackingout.Scheduler {
	return TickerScheduler{}
}

// Every starts a goroutine calling fn each period. The returned cancel stops
// the ticker and ends the goroutine without waiting for an in-flight fn, so
// it is safe to call while holding a lock fn also takes.
func (TickerScheduler) Every(period time.Duration, fn func()) func() {
	ticker := time.NewTicker(period)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				select {
				case <-done:
					return
				default:
				}
				fn()
			}
		}
	}()
	var once sync.Once
	return func() {
		once.Do(func() {
			ticker.Stop()
			close(done)
		})
	}
}
