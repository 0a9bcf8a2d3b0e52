package colony

import (
	"fmt"
	"time"
)

// Snapshot is a read-only copy of the colony for renderers and caches.
type Snapshot struct {
	Resources         Quantities     `json:"resources"`
	Capacity          int            `json:"capacity"`
	Used              int            `json:"used"`
	GridSize          int            `json:"grid_size"`
	Placements        []Placement    `json:"placements"`
	CooldownRemaining time.Duration  `json:"cooldown_remaining_ns"`
	Failed            bool           `json:"failed"`
	FailureReasons    []ResourceKind `json:"failure_reasons,omitempty"`
	Stats             Stats          `json:"stats"`
	Log               []Event        `json:"log,omitempty"`
	TakenAt           time.Time      `json:"taken_at"`
}

// Snapshot copies the current state. withLog includes the event log.
func (e *Engine) Snapshot(withLog bool) Snapshot {
	now := e.clock.Now()
	s := Snapshot{
		Resources:         e.state.Pool.Quantities(),
		Capacity:          e.state.Pool.Capacity(),
		Used:              e.state.Pool.Used(),
		GridSize:          e.state.Grid.Size(),
		Placements:        e.state.Grid.Placements(),
		CooldownRemaining: e.state.Cooldown.Remaining(now),
		Failed:            e.Failed(),
		Stats:             e.state.Stats,
		TakenAt:           now,
	}
	if s.Placements == nil {
		s.Placements = []Placement{}
	}
	if e.state.Failure != nil {
		s.FailureReasons = append([]ResourceKind(nil), e.state.Failure.Reasons...)
	}
	if withLog {
		s.Log = e.log.Entries()
	}
	return s
}

// Restore replaces the engine state with a snapshot taken earlier.
func (e *Engine) Restore(s Snapshot) error {
	if s.GridSize < 1 {
		return fmt.Errorf("snapshot has invalid grid size %d", s.GridSize)
	}

	grid := NewGrid(s.GridSize)
	for _, p := range s.Placements {
		if _, ok := e.catalog.Module(p.Module); !ok {
			return fmt.Errorf("snapshot placement %s: %w: %q", p.Cell, ErrUnknownModule, p.Module)
		}
		if err := grid.Place(p.Cell, p.Module); err != nil {
			return fmt.Errorf("snapshot placement: %w", err)
		}
	}

	pool := NewResourcePool(nil, 0)
	pool.restore(s.Resources, s.Capacity, s.Used)

	cooldown := NewCooldown(e.cfg.DroneCooldown)
	if s.CooldownRemaining > 0 {
		elapsed := cooldown.Duration() - s.CooldownRemaining
		cooldown.Reset(e.clock.Now().Add(-elapsed))
	}

	var failure *ColonyFailure
	if s.Failed {
		failure = &ColonyFailure{Reasons: append([]ResourceKind(nil), s.FailureReasons...)}
	}

	e.state = &GameState{
		Pool:     pool,
		Grid:     grid,
		Cooldown: cooldown,
		Failure:  failure,
		Stats:    s.Stats,
	}
	if s.Log != nil {
		e.log.restore(s.Log)
	}

	e.logger.Debug("Colony state restored", "operation", "restore", "placements", len(s.Placements), "failed", s.Failed)
	return nil
}
