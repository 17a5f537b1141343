// Package scheduler provides the deferred-delivery primitive the table and
// detector use for suspect expiry, ping timeouts and period ticks (§4.3). A
// real implementation wraps time.AfterFunc; a manual one drives virtual time
// for deterministic tests.
package scheduler

import (
	"time"

	"github.com/meshring/swim/internal/domain"
)

// realScheduler delivers callbacks via time.AfterFunc, grounded on the
// AfterFunc-based ack/suspect timers in the reference SWIM implementation.
type realScheduler struct{}

// New returns a Scheduler backed by the runtime's monotonic timers.
func New() domain.Scheduler { return realScheduler{} }

func (realScheduler) After(d time.Duration, fn func()) {
	time.AfterFunc(d, fn)
}

// realClock reads wall-clock time via time.Now.
type realClock struct{}

// NewClock returns a Clock backed by time.Now.
func NewClock() domain.Clock { return realClock{} }

func (realClock) Now() time.Time { return time.Now() }
