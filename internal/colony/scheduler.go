package colony

import (
	"errors"
	"fmt"
	"log/slog"
	"time"
)

const (
	TaskProduction  = "production"
	TaskConsumption = "consumption"
)

type task struct {
	name     string
	interval time.Duration
	run      func(at time.Time) error
	next     time.Time
	order    int
	runs     int
}

// Scheduler runs periodic tasks against virtual time. Advance executes
// every task whose due time has passed, in due order, so a driver may
// call it from a real ticker and a test may jump time arbitrarily.
type Scheduler struct {
	start   time.Time
	tasks   []*task
	halted  bool
	haltErr error
	logger  *slog.Logger
}

func NewScheduler(start time.Time, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		start:  start,
		logger: logger.With("component", "colony_scheduler"),
	}
}

// Every registers fn to run once per interval, first at start+interval.
func (s *Scheduler) Every(name string, interval time.Duration, fn func(at time.Time) error) error {
	if interval <= 0 {
		return fmt.Errorf("task %s: interval must be positive, got %s", name, interval)
	}
	s.tasks = append(s.tasks, &task{
		name:     name,
		interval: interval,
		run:      fn,
		next:     s.start.Add(interval),
		order:    len(s.tasks),
	})
	return nil
}

// Advance runs all tasks due at or before now. A task error matching
// ErrColonyFailed halts the scheduler and is returned; later calls do
// nothing.
func (s *Scheduler) Advance(now time.Time) error {
	if s.halted {
		return nil
	}

	for {
		t := s.nextDue(now)
		if t == nil {
			return nil
		}

		at := t.next
		t.next = t.next.Add(t.interval)
		t.runs++

		if err := t.run(at); err != nil {
			if errors.Is(err, ErrColonyFailed) {
				s.halt(err)
				s.logger.Info("Scheduler halted", "task", t.name, "at", at, "error", err)
				return err
			}
			s.logger.Warn("Scheduled task failed", "task", t.name, "at", at, "error", err)
		}
	}
}

func (s *Scheduler) nextDue(now time.Time) *task {
	var best *task
	for _, t := range s.tasks {
		if t.next.After(now) {
			continue
		}
		if best == nil || t.next.Before(best.next) || (t.next.Equal(best.next) && t.order < best.order) {
			best = t
		}
	}
	return best
}

func (s *Scheduler) halt(err error) {
	s.halted = true
	s.haltErr = err
}

// Stop halts the scheduler without an error.
func (s *Scheduler) Stop() {
	s.halt(nil)
}

func (s *Scheduler) Halted() bool {
	return s.halted
}

func (s *Scheduler) HaltError() error {
	return s.haltErr
}

// NextDue returns the earliest pending run time.
func (s *Scheduler) NextDue() (time.Time, bool) {
	if s.halted || len(s.tasks) == 0 {
		return time.Time{}, false
	}
	next := s.tasks[0].next
	for _, t := range s.tasks[1:] {
		if t.next.Before(next) {
			next = t.next
		}
	}
	return next, true
}

// Runs reports how many times the named task has run.
func (s *Scheduler) Runs(name string) int {
	for _, t := range s.tasks {
		if t.name == name {
			return t.runs
		}
	}
	return 0
}

// NewScheduler wires the engine's production and consumption ticks on
// their configured intervals, starting from the engine's clock.
func (e *Engine) NewScheduler() (*Scheduler, error) {
	s := NewScheduler(e.clock.Now(), e.base)

	err := s.Every(TaskProduction, e.cfg.ProductionInterval, func(time.Time) error {
		_, err := e.ProductionTick()
		return err
	})
	if err != nil {
		return nil, err
	}

	err = s.Every(TaskConsumption, e.cfg.ConsumptionInterval, func(time.Time) error {
		return e.ConsumptionTick()
	})
	if err != nil {
		return nil, err
	}

	if e.Failed() {
		s.halt(e.state.Failure)
	}
	return s, nil
}
