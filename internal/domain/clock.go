package domain

import "github.com/jonboulle/clockwork"

// clock is a package-level time source so tests can freeze the run date via
// SetClock. Gap-filling extends every location's series through "today",
// which makes reconciliation output time-dependent without this seam.
var clock = clockwork.NewRealClock()

// SetClock swaps the time source for reconciliation. Pass nil to reset to real time.
func SetClock(c clockwork.Clock) {
	if c == nil {
		clock = clockwork.NewRealClock()
		return
	}
	clock = c
}
