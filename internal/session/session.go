package session

import (
	"sync"
	"time"

	"colony-server/internal/colony"
)

// Session is one hosted colony. mu guards the engine and scheduler for the
// whole of every read-modify-write.
type Session struct {
	ID string

	mu         sync.Mutex
	engine     *colony.Engine
	scheduler  *colony.Scheduler
	createdAt  time.Time
	lastActive time.Time
	recorded   bool
	closed     bool
}

// advance catches the scheduler up to now. It reports whether any tick ran
// and whether the colony failed during this call.
func (s *Session) advance(now time.Time) (ticked, failedNow bool) {
	before := s.engine.Stats()
	wasFailed := s.engine.Failed()

	_ = s.scheduler.Advance(now)

	after := s.engine.Stats()
	ticked = after.ProductionTicks != before.ProductionTicks || after.ConsumptionTicks != before.ConsumptionTicks
	failedNow = !wasFailed && s.engine.Failed()
	return ticked, failedNow
}

func (s *Session) touch(now time.Time) {
	s.lastActive = now
}
