package timerx

import "time"

// StopTimer stops timer and drains a tick that fired before Stop.
func StopTimer(timer *time.Timer) {
	if !timer.Stop() {
		select {
		case <-timer.C:
			// drained timer channel
		default:
			// timer channel was empty
		}
	}
}

// ResetTimer stops timer and resets it to fire after d, dropping any pending tick.
func ResetTimer(timer *time.Timer, d time.Duration) {
	StopTimer(timer)
	timer.Reset(d)
}
