package colony

import "fmt"

// Expedition is the report of one drone launch.
type Expedition struct {
	Biome  Biome          `json:"biome"`
	Gains  []AddResult    `json:"gains"`
	Hazard *HazardOutcome `json:"hazard,omitempty"`
}

func (x *Expedition) Accepted(kind ResourceKind) int {
	for _, g := range x.Gains {
		if g.Kind == kind {
			return g.Accepted
		}
	}
	return 0
}

func (x *Expedition) Wasted() int {
	total := 0
	for _, g := range x.Gains {
		total += g.Wasted
	}
	return total
}

// Explore launches the drone into biome. Random draws happen in a fixed
// order: metal, energy and food yields, the hazard roll, the destroyed
// cell, then metal and food losses.
func (e *Engine) Explore(biome Biome) (*Expedition, error) {
	logger := e.logger.With("operation", "explore", "biome", biome)

	if e.Failed() {
		return nil, ErrColonyFailed
	}

	spec, ok := e.catalog.Biome(biome)
	if !ok {
		e.emit(fmt.Sprintf("Unknown biome %s!", biome))
		return nil, fmt.Errorf("%w: %q", ErrUnknownBiome, biome)
	}

	now := e.clock.Now()
	if !e.state.Cooldown.Ready(now) {
		e.emit("Drone cooling down...")
		remaining := e.state.Cooldown.Remaining(now)
		logger.Debug("Exploration rejected", "remaining", remaining)
		return nil, &CooldownError{Remaining: remaining}
	}
	e.state.Cooldown.Reset(now)
	e.state.Stats.Expeditions++

	metal := drawRange(e.rng, spec.Metal)
	energy := drawRange(e.rng, spec.Energy)
	food := drawRange(e.rng, spec.Food)

	expedition := &Expedition{Biome: spec.Name}
	for _, find := range []struct {
		kind   ResourceKind
		amount int
	}{{Metal, metal}, {Energy, energy}, {Food, food}} {
		if find.amount > 0 {
			expedition.Gains = append(expedition.Gains, e.AddResource(find.kind, find.amount))
		}
	}

	if spec.HazardChance > 0 && e.rng.Float64() < spec.HazardChance {
		e.state.Stats.Hazards++
		expedition.Hazard = e.applyHazard(spec)
	}

	logger.Debug("Exploration completed",
		"metal", metal, "energy", energy, "food", food,
		"hazard", expedition.Hazard != nil,
	)
	return expedition, nil
}
