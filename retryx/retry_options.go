package retryx

import "time"

type retryOptions struct {
	retryCount      int
	initialInterval time.Duration
	maxInterval     time.Duration
	maxElapsedTime  time.Duration
	notify          func(err error, wait time.Duration)
}

type RetryOption func(*retryOptions)

// WithRetryCount sets the total number of attempts, the first call included.
func WithRetryCount(count int) RetryOption {
	return func(ro *retryOptions) {
		ro.retryCount = count
	}
}

func WithInterval(interval time.Duration) RetryOption {
	return func(ro *retryOptions) {
		ro.initialInterval = interval
	}
}

// WithMaxInterval caps the wait between two attempts. Only used by ExponentialRetry.
func WithMaxInterval(interval time.Duration) RetryOption {
	return func(ro *retryOptions) {
		ro.maxInterval = interval
	}
}

// WithMaxElapsedTime caps the total time spent retrying. Only used by ExponentialRetry.
func WithMaxElapsedTime(d time.Duration) RetryOption {
	return func(ro *retryOptions) {
		ro.maxElapsedTime = d
	}
}

// WithNotify registers a callback invoked after every failed attempt that will be retried.
func WithNotify(fn func(err error, wait time.Duration)) RetryOption {
	return func(ro *retryOptions) {
		ro.notify = fn
	}
}
