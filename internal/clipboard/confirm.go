package clipboard

import "time"

// DefaultFeedback is how long a copy control reads "Copied ✓".
const DefaultFeedback = 1500 * time.Millisecond

// Confirmation is the timed "copied" state of a copy control.
//
// Each Trigger starts a new generation. The caller schedules a revert for
// that generation after Delay; Expire only reverts when no newer Trigger or
// Cancel happened in between, so stale timers are harmless.
type Confirmation struct {
	Delay  time.Duration
	gen    uint64
	active bool
}

// NewConfirmation returns a confirmation with the given delay, or the
// default when delay is not positive.
func NewConfirmation(delay time.Duration) Confirmation {
	if delay <= 0 {
		delay = DefaultFeedback
	}
	return Confirmation{Delay: delay}
}

// Trigger enters the confirmed state and returns the generation to pass to
// Expire.
func (c *Confirmation) Trigger() uint64 {
	c.gen++
	c.active = true
	return c.gen
}

// Expire reverts the confirmed state if gen is still current. It reports
// whether anything changed.
func (c *Confirmation) Expire(gen uint64) bool {
	if !c.active || gen != c.gen {
		return false
	}
	c.active = false
	return true
}

// Cancel drops the confirmed state and invalidates any pending revert.
func (c *Confirmation) Cancel() {
	c.gen++
	c.active = false
}

// Active reports whether the control currently shows the confirmation.
func (c Confirmation) Active() bool {
	return c.active
}

// Label returns confirmed while active, else idle.
func (c Confirmation) Label(idle, confirmed string) string {
	if c.active {
		return confirmed
	}
	return idle
}
