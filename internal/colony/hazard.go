package colony

import (
	"fmt"
	"strings"
)

// HazardPolicy selects what a triggered hazard does to the colony.
type HazardPolicy string

const (
	HazardNone    HazardPolicy = "none"
	HazardDestroy HazardPolicy = "destroy"
	HazardDrain   HazardPolicy = "drain"
	HazardBoth    HazardPolicy = "both"
)

func ParseHazardPolicy(s string) (HazardPolicy, error) {
	p := HazardPolicy(strings.ToLower(strings.TrimSpace(s)))
	switch p {
	case HazardNone, HazardDestroy, HazardDrain, HazardBoth:
		return p, nil
	case "":
		return HazardBoth, nil
	}
	return "", fmt.Errorf("unknown hazard policy %q", s)
}

func (p HazardPolicy) DestroysModule() bool {
	return p == HazardDestroy || p == HazardBoth
}

func (p HazardPolicy) DrainsResources() bool {
	return p == HazardDrain || p == HazardBoth
}

// HazardOutcome records the damage from one triggered hazard.
type HazardOutcome struct {
	Destroyed *Placement `json:"destroyed,omitempty"`
	MetalLost int        `json:"metal_lost"`
	FoodLost  int        `json:"food_lost"`
}

// applyHazard runs the policy's effects in order: destroy, then drain.
func (e *Engine) applyHazard(spec BiomeSpec) *HazardOutcome {
	outcome := &HazardOutcome{}
	policy := e.cfg.HazardPolicy

	if policy.DestroysModule() {
		placements := e.state.Grid.Placements()
		if len(placements) > 0 {
			target := placements[e.rng.Intn(len(placements))]
			e.state.Grid.Clear(target.Cell)
			if lost, ok := e.catalog.Module(target.Module); ok {
				e.state.Pool.GrowCapacity(-lost.StorageBonus)
			}
			e.state.Pool.Recount()
			e.state.Stats.ModulesLost++
			outcome.Destroyed = &target
			e.emit(fmt.Sprintf("Hazard! %s destroyed at %s.", target.Module, target.Cell))
		}
	}

	if policy.DrainsResources() {
		metalLoss := drawRange(e.rng, spec.MetalLoss)
		foodLoss := drawRange(e.rng, spec.FoodLoss)
		outcome.MetalLost = e.state.Pool.Drain(Metal, metalLoss)
		outcome.FoodLost = e.state.Pool.Drain(Food, foodLoss)
		e.state.Pool.Recount()
		if outcome.MetalLost > 0 || outcome.FoodLost > 0 {
			e.emit(fmt.Sprintf("Hazard! Lost %d metal and %d food.", outcome.MetalLost, outcome.FoodLost))
		}
	}

	if outcome.Destroyed == nil && outcome.MetalLost == 0 && outcome.FoodLost == 0 {
		e.emit("Hazard! The drone escaped unharmed.")
	}
	return outcome
}
