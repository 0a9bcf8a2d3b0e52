package history

import (
	"strings"
	"time"

	"colony-server/internal/colony"
)

type Outcome string

const (
	OutcomeFailed    Outcome = "failed"
	OutcomeAbandoned Outcome = "abandoned"
	OutcomeExpired   Outcome = "expired"
)

// Record is one finished colony.
type Record struct {
	ID               int       `json:"id"`
	ColonyID         string    `json:"colony_id"`
	Outcome          Outcome   `json:"outcome"`
	Reasons          string    `json:"reasons,omitempty"`
	ModulesBuilt     int       `json:"modules_built"`
	ModulesLost      int       `json:"modules_lost"`
	Expeditions      int       `json:"expeditions"`
	Hazards          int       `json:"hazards"`
	ProductionTicks  int       `json:"production_ticks"`
	ConsumptionTicks int       `json:"consumption_ticks"`
	FinalMetal       int       `json:"final_metal"`
	FinalEnergy      int       `json:"final_energy"`
	FinalFood        int       `json:"final_food"`
	FinalOxygen      int       `json:"final_oxygen"`
	StartedAt        time.Time `json:"started_at"`
	EndedAt          time.Time `json:"ended_at"`
}

// Survived is how long the colony lasted.
func (r Record) Survived() time.Duration {
	return r.EndedAt.Sub(r.StartedAt)
}

func NewRecord(colonyID string, outcome Outcome, snap colony.Snapshot) Record {
	reasons := make([]string, len(snap.FailureReasons))
	for i, k := range snap.FailureReasons {
		reasons[i] = string(k)
	}

	return Record{
		ColonyID:         colonyID,
		Outcome:          outcome,
		Reasons:          strings.Join(reasons, " and "),
		ModulesBuilt:     snap.Stats.ModulesBuilt,
		ModulesLost:      snap.Stats.ModulesLost,
		Expeditions:      snap.Stats.Expeditions,
		Hazards:          snap.Stats.Hazards,
		ProductionTicks:  snap.Stats.ProductionTicks,
		ConsumptionTicks: snap.Stats.ConsumptionTicks,
		FinalMetal:       snap.Resources[colony.Metal],
		FinalEnergy:      snap.Resources[colony.Energy],
		FinalFood:        snap.Resources[colony.Food],
		FinalOxygen:      snap.Resources[colony.Oxygen],
		StartedAt:        snap.Stats.StartedAt,
		EndedAt:          snap.TakenAt,
	}
}
