// Package clock implements the simulation clock (spec.md §4.1, component
// C1): a monotonic, scalar, non-negative time value advanced in fixed
// steps by the driver. Grounded on the teacher's LogicalClock
// (pkg/mcast/core, Tick/Tock/Leap) but simplified to the real-valued,
// externally-advanced clock spec.md describes — there is no "tick" notion
// of logical ordering here, only elapsed simulated seconds.
package clock

import (
	"github.com/dtnsim/dtnsim/pkg/dtnsim/dtnerr"
)

// Clock is a monotonic non-negative real-valued time source. It is not a
// package-level singleton (spec.md §9 explicitly asks to replace
// static-initialized singletons with an explicit context object); callers
// own one Clock per Simulation and pass it down.
type Clock struct {
	now float64
}

// New returns a Clock starting at time zero.
func New() *Clock {
	return &Clock{now: 0}
}

// Now returns the current simulation time.
func (c *Clock) Now() float64 {
	return c.now
}

// Advance moves the clock forward by dt seconds. dt must be strictly
// positive; advancing by a non-positive step, or causing time to appear to
// move backward, is an InvariantError per spec.md §4.1.
func (c *Clock) Advance(dt float64) error {
	if dt <= 0 {
		return dtnerr.NewInvariantError("clock-monotonic", map[string]interface{}{
			"now": c.now,
			"dt":  dt,
		})
	}
	c.now += dt
	return nil
}

// Reset restores the clock to time zero. This is the explicit replacement
// for the teacher/source's "reset between scenarios" registration contract
// (spec.md §9): discarding the *Simulation* (which owns the *Clock*)
// achieves the same effect without any global registry to reset.
func (c *Clock) Reset() {
	c.now = 0
}
