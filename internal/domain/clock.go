package domain

import "github.com/jonboulle/clockwork"

// clock is a package-level time source so tests can freeze time via SetClock.
// Production code uses the real clock; tests inject a fake for deterministic output.
var clock = clockwork.NewRealClock()

// SetClock swaps the time source for document timestamps. Pass nil to reset to real time.
func SetClock(c clockwork.Clock) {
	if c == nil {
		clock = clockwork.NewRealClock()
		return
	}
	clock = c
}

// NowUTC returns the current UTC time as an ISO-8601 string with second
// precision and a trailing Z, the format stamped into every output document.
func NowUTC() string {
	return clock.Now().UTC().Format("2006-01-02T15:04:05Z")
}
