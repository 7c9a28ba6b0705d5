package domain

import "github.com/jonboulle/clockwork"

// reportClock stamps Report.GeneratedAt.
var reportClock = clockwork.NewRealClock()

// SetClock pins the time NewReport records as GeneratedAt, so a report built
// from fixed readings serializes identically on every run. nil restores the
// wall clock.
func SetClock(c clockwork.Clock) {
	if c == nil {
		c = clockwork.NewRealClock()
	}
	reportClock = c
}
