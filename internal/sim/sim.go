// Package sim runs a colony headlessly on virtual time.
package sim

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"colony-server/internal/colony"

	"golang.org/x/time/rate"
)

// BuildOrder is a build to attempt once the simulation reaches After.
// Orders are attempted in sequence; the head of the queue is retried each
// step while resources are short.
type BuildOrder struct {
	Module string
	Cell   colony.Cell
	After  time.Duration
}

// ParseBuildOrder parses "Module@row,col" with an optional "@delay"
// suffix, e.g. "Farm@0,1@30s".
func ParseBuildOrder(s string) (BuildOrder, error) {
	parts := strings.Split(s, "@")
	if len(parts) < 2 || len(parts) > 3 {
		return BuildOrder{}, fmt.Errorf("build order %q: want Module@row,col[@delay]", s)
	}

	coords := strings.Split(parts[1], ",")
	if len(coords) != 2 {
		return BuildOrder{}, fmt.Errorf("build order %q: cell must be row,col", s)
	}
	row, err := strconv.Atoi(strings.TrimSpace(coords[0]))
	if err != nil {
		return BuildOrder{}, fmt.Errorf("build order %q: bad row: %w", s, err)
	}
	col, err := strconv.Atoi(strings.TrimSpace(coords[1]))
	if err != nil {
		return BuildOrder{}, fmt.Errorf("build order %q: bad col: %w", s, err)
	}

	order := BuildOrder{Module: strings.TrimSpace(parts[0]), Cell: colony.Cell{Row: row, Col: col}}
	if len(parts) == 3 {
		after, err := time.ParseDuration(parts[2])
		if err != nil {
			return BuildOrder{}, fmt.Errorf("build order %q: bad delay: %w", s, err)
		}
		order.After = after
	}
	return order, nil
}

type Plan struct {
	Seed         int64
	Duration     time.Duration
	Step         time.Duration
	Builds       []BuildOrder
	ExploreEvery time.Duration
	Biome        colony.Biome
}

type Result struct {
	Snapshot    colony.Snapshot
	Events      []colony.Event
	Expeditions int
	Skipped     []BuildOrder
	Elapsed     time.Duration
}

// Epoch is the virtual time a simulation starts at.
var Epoch = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)

// Run simulates plan against a fresh colony and returns its final state.
func Run(plan Plan, cfg colony.Config, catalog *colony.Catalog, logger *slog.Logger) (*Result, error) {
	if plan.Duration <= 0 {
		return nil, fmt.Errorf("duration must be positive")
	}
	if plan.Step <= 0 {
		plan.Step = 250 * time.Millisecond
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.LogLimit < 10000 {
		cfg.LogLimit = 10000
	}

	clock := colony.NewManualClock(Epoch)
	engine := colony.NewEngine(cfg, catalog, clock, colony.NewRandomSource(plan.Seed), logger)
	scheduler, err := engine.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to start scheduler: %w", err)
	}

	var drone *rate.Limiter
	if plan.ExploreEvery > 0 {
		drone = rate.NewLimiter(rate.Every(plan.ExploreEvery), 1)
	}

	res := &Result{}
	queue := append([]BuildOrder(nil), plan.Builds...)

	for elapsed := time.Duration(0); elapsed <= plan.Duration; elapsed += plan.Step {
		now := clock.Now()
		if err := scheduler.Advance(now); err != nil {
			res.Elapsed = elapsed
			break
		}

		for len(queue) > 0 && queue[0].After <= elapsed {
			// Wait quietly for resources instead of logging a rejection
			// every step.
			if spec, ok := engine.Catalog().Module(queue[0].Module); ok && !engine.Pool().CanAfford(spec.Cost) {
				break
			}
			_, err := engine.Build(queue[0].Module, queue[0].Cell)
			if errors.Is(err, colony.ErrInsufficientResources) {
				break
			}
			if err != nil {
				res.Skipped = append(res.Skipped, queue[0])
			}
			queue = queue[1:]
		}

		if drone != nil && drone.AllowN(now, 1) {
			if _, err := engine.Explore(plan.Biome); err == nil {
				res.Expeditions++
			} else if !errors.Is(err, colony.ErrCoolingDown) {
				return nil, fmt.Errorf("exploration failed: %w", err)
			}
		}

		res.Elapsed = elapsed
		clock.Advance(plan.Step)
	}

	res.Skipped = append(res.Skipped, queue...)
	res.Snapshot = engine.Snapshot(false)
	events := engine.Log().Entries()
	for i, j := 0, len(events)-1; i < j; i, j = i+1, j-1 {
		events[i], events[j] = events[j], events[i]
	}
	res.Events = events
	return res, nil
}
