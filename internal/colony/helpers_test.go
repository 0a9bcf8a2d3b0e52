package colony

import (
	"io"
	"log/slog"
	"testing"
	"time"
)

var testStart = time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

// scriptedRand replays fixed draws so tests can assert exact outcomes.
type scriptedRand struct {
	t      *testing.T
	ints   []int
	floats []float64
}

func (r *scriptedRand) Intn(n int) int {
	r.t.Helper()
	if len(r.ints) == 0 {
		r.t.Fatalf("scriptedRand: unexpected Intn(%d)", n)
	}
	v := r.ints[0]
	r.ints = r.ints[1:]
	if v < 0 || v >= n {
		r.t.Fatalf("scriptedRand: scripted %d outside [0, %d)", v, n)
	}
	return v
}

func (r *scriptedRand) Float64() float64 {
	r.t.Helper()
	if len(r.floats) == 0 {
		r.t.Fatalf("scriptedRand: unexpected Float64()")
	}
	v := r.floats[0]
	r.floats = r.floats[1:]
	return v
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestEngine(t *testing.T, cfg Config, rng RandomSource) (*Engine, *ManualClock) {
	t.Helper()
	clock := NewManualClock(testStart)
	if rng == nil {
		rng = &scriptedRand{t: t}
	}
	return NewEngine(cfg, DefaultCatalog(), clock, rng, discardLogger()), clock
}

func lastMessage(t *testing.T, e *Engine) string {
	t.Helper()
	ev, ok := e.Log().Last()
	if !ok {
		t.Fatal("event log is empty")
	}
	return ev.Message
}
