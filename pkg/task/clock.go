package task

import "time"

// Clock abstracts time for the task tree so timeout behavior can be tested
// deterministically.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// After returns a channel that delivers one value after d has elapsed.
	After(d time.Duration) <-chan time.Time
}

// SystemClock implements Clock using real time.
type SystemClock struct{}

// Now returns the current system time.
func (SystemClock) Now() time.Time { return time.Now() }

// After waits for the duration to elapse using a runtime timer.
func (SystemClock) After(d time.Duration) <-chan time.Time { return time.After(d) }
