package colony

import (
	"math/rand"
	"sync"
	"time"
)

// Clock supplies the current time. Tests use ManualClock to advance
// virtual time explicitly.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock returns the wall clock.
func SystemClock() Clock { return systemClock{} }

type ManualClock struct {
	mu  sync.Mutex
	now time.Time
}

func NewManualClock(start time.Time) *ManualClock {
	return &ManualClock{now: start}
}

func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *ManualClock) Advance(d time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
	return c.now
}

func (c *ManualClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

// RandomSource is the subset of *rand.Rand the engine draws from.
type RandomSource interface {
	Intn(n int) int
	Float64() float64
}

func NewRandomSource(seed int64) RandomSource {
	return rand.New(rand.NewSource(seed))
}

// drawRange picks a uniform integer in [r.Low, r.High).
func drawRange(rng RandomSource, r Range) int {
	if r.High <= r.Low {
		return r.Low
	}
	return r.Low + rng.Intn(r.High-r.Low)
}
