package clock

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// Clock provides time operations that can be faked in tests.
// Timers created through it are what the session renewal and the push
// reconnect delay run on.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
	AfterFunc(d time.Duration, f func()) clockwork.Timer
}

// New returns a Clock backed by the system clock
func New() Clock {
	return clockwork.NewRealClock()
}
