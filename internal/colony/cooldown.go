package colony

import "time"

// Cooldown rate-limits drone launches. Calls during the window are
// rejected, never queued.
type Cooldown struct {
	duration time.Duration
	started  time.Time
	armed    bool
}

func NewCooldown(d time.Duration) *Cooldown {
	return &Cooldown{duration: d}
}

func (c *Cooldown) Duration() time.Duration {
	return c.duration
}

func (c *Cooldown) Ready(now time.Time) bool {
	return c.Remaining(now) == 0
}

func (c *Cooldown) Remaining(now time.Time) time.Duration {
	if !c.armed {
		return 0
	}
	left := c.duration - now.Sub(c.started)
	if left <= 0 {
		return 0
	}
	return left
}

// Reset arms the cooldown starting at now.
func (c *Cooldown) Reset(now time.Time) {
	c.started = now
	c.armed = true
}

// Cancel disarms a running cooldown.
func (c *Cooldown) Cancel() {
	c.armed = false
}

func (c *Cooldown) LastStarted() (time.Time, bool) {
	return c.started, c.armed
}
