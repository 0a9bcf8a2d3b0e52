package colony

import (
	"fmt"
	"log/slog"
	"time"
)

// Config holds the tunables of one colony.
type Config struct {
	GridSize            int
	Initial             Quantities
	StorageCapacity     int
	UpkeepPerModule     int
	DroneCooldown       time.Duration
	ProductionInterval  time.Duration
	ConsumptionInterval time.Duration
	HazardPolicy        HazardPolicy
	LogLimit            int
}

func DefaultConfig() Config {
	return Config{
		GridSize: 10,
		Initial: Quantities{
			Metal:  25,
			Energy: 15,
			Food:   25,
			Oxygen: 25,
		},
		StorageCapacity:     90,
		UpkeepPerModule:     1,
		DroneCooldown:       time.Second,
		ProductionInterval:  5 * time.Second,
		ConsumptionInterval: 10 * time.Second,
		HazardPolicy:        HazardBoth,
		LogLimit:            DefaultLogLimit,
	}
}

type Stats struct {
	StartedAt        time.Time `json:"started_at"`
	ModulesBuilt     int       `json:"modules_built"`
	ModulesLost      int       `json:"modules_lost"`
	Expeditions      int       `json:"expeditions"`
	Hazards          int       `json:"hazards"`
	ProductionTicks  int       `json:"production_ticks"`
	ConsumptionTicks int       `json:"consumption_ticks"`
}

// GameState is the single owned aggregate the engine mutates.
type GameState struct {
	Pool     *ResourcePool
	Grid     *Grid
	Cooldown *Cooldown
	Failure  *ColonyFailure
	Stats    Stats
}

// Engine runs the colony economy. It is not safe for concurrent use;
// callers serialise access (see session.Session).
type Engine struct {
	cfg     Config
	catalog *Catalog
	state   *GameState
	log     *EventLog
	clock   Clock
	rng     RandomSource
	base    *slog.Logger
	logger  *slog.Logger
}

func NewEngine(cfg Config, catalog *Catalog, clock Clock, rng RandomSource, logger *slog.Logger) *Engine {
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	if clock == nil {
		clock = SystemClock()
	}
	if rng == nil {
		rng = NewRandomSource(time.Now().UnixNano())
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.HazardPolicy == "" {
		cfg.HazardPolicy = HazardBoth
	}

	e := &Engine{
		cfg:     cfg,
		catalog: catalog,
		clock:   clock,
		rng:     rng,
		base:    logger,
		logger:  logger.With("component", "colony_engine"),
		log:     NewEventLog(cfg.LogLimit),
		state: &GameState{
			Pool:     NewResourcePool(cfg.Initial, cfg.StorageCapacity),
			Grid:     NewGrid(cfg.GridSize),
			Cooldown: NewCooldown(cfg.DroneCooldown),
			Stats:    Stats{StartedAt: clock.Now()},
		},
	}

	e.logger.Debug("Colony engine initialized",
		"grid_size", e.state.Grid.Size(),
		"storage_capacity", cfg.StorageCapacity,
		"hazard_policy", cfg.HazardPolicy,
	)
	return e
}

func (e *Engine) Catalog() *Catalog   { return e.catalog }
func (e *Engine) Log() *EventLog      { return e.log }
func (e *Engine) Pool() *ResourcePool { return e.state.Pool }
func (e *Engine) Grid() *Grid         { return e.state.Grid }
func (e *Engine) Stats() Stats        { return e.state.Stats }
func (e *Engine) Failed() bool        { return e.state.Failure != nil }

func (e *Engine) emit(message string) {
	e.log.Append(e.clock.Now(), message)
}

// Build places moduleName on cell and pays its cost. All checks run
// before any mutation, so a failed build leaves pool and grid untouched.
func (e *Engine) Build(moduleName string, cell Cell) (Placement, error) {
	logger := e.logger.With("operation", "build", "module", moduleName, "row", cell.Row, "col", cell.Col)

	if e.Failed() {
		return Placement{}, ErrColonyFailed
	}

	spec, ok := e.catalog.Module(moduleName)
	if !ok {
		e.emit(fmt.Sprintf("Unknown module %s!", moduleName))
		return Placement{}, fmt.Errorf("%w: %q", ErrUnknownModule, moduleName)
	}

	grid := e.state.Grid
	if !grid.InBounds(cell) {
		e.emit(fmt.Sprintf("Cannot build outside the colony at %s!", cell))
		return Placement{}, fmt.Errorf("%w: %s on a %dx%d grid", ErrInvalidCell, cell, grid.Size(), grid.Size())
	}
	if existing := grid.At(cell); existing != "" {
		e.emit(fmt.Sprintf("%s is already occupied by %s!", cell, existing))
		return Placement{}, fmt.Errorf("%w: %s holds %s", ErrCellOccupied, cell, existing)
	}

	pool := e.state.Pool
	if !pool.CanAfford(spec.Cost) {
		e.emit(fmt.Sprintf("Not enough resources for %s!", moduleName))
		logger.Debug("Build rejected",
			"metal", pool.Get(Metal), "energy", pool.Get(Energy), "food", pool.Get(Food))
		return Placement{}, fmt.Errorf("%w: %s needs %d metal, %d energy, %d food",
			ErrInsufficientResources, moduleName, spec.Cost.Metal, spec.Cost.Energy, spec.Cost.Food)
	}

	// Bounds and occupancy were checked above, so Place cannot fail here.
	pool.Spend(spec.Cost)
	if err := grid.Place(cell, moduleName); err != nil {
		panic(fmt.Sprintf("colony: placement failed after validation: %v", err))
	}
	pool.GrowCapacity(spec.StorageBonus)
	pool.Recount()
	e.state.Stats.ModulesBuilt++

	e.emit(fmt.Sprintf("%s built!", moduleName))
	logger.Debug("Module built", "used", pool.Used(), "capacity", pool.Capacity())

	return Placement{Cell: cell, Module: moduleName}, nil
}

// AddResource stores amount of kind subject to the storage cap and logs
// what was gained or wasted.
func (e *Engine) AddResource(kind ResourceKind, amount int) AddResult {
	pool := e.state.Pool
	if amount <= 0 {
		return AddResult{Kind: kind}
	}

	if pool.Capped() && pool.Used() >= pool.Capacity() {
		e.emit(fmt.Sprintf("No storage space! %d %s wasted.", amount, kind))
		return AddResult{Kind: kind, Wasted: amount}
	}

	result := pool.Add(kind, amount)
	if result.Wasted > 0 {
		e.emit(fmt.Sprintf("Storage full! %d %s wasted.", result.Wasted, kind))
	} else {
		e.emit(fmt.Sprintf("Gained %d %s.", result.Accepted, kind))
	}
	return result
}

// ProductionTick adds count × yield for every producing module kind on
// the grid, in catalog order.
func (e *Engine) ProductionTick() ([]AddResult, error) {
	if e.Failed() {
		return nil, ErrColonyFailed
	}

	var results []AddResult
	for _, spec := range e.catalog.Producers() {
		count := e.state.Grid.Count(spec.Name)
		if count == 0 {
			continue
		}
		results = append(results, e.AddResource(spec.Produces, count*spec.Yield))
	}
	e.state.Stats.ProductionTicks++

	e.logger.Debug("Production tick", "operation", "production_tick", "additions", len(results))
	return results, nil
}

// ConsumptionTick charges upkeep in food and oxygen for every built
// module. A negative balance is left in place and ends the colony.
func (e *Engine) ConsumptionTick() error {
	if e.Failed() {
		return ErrColonyFailed
	}

	pool := e.state.Pool
	upkeep := e.state.Grid.CountOccupied() * e.cfg.UpkeepPerModule
	pool.Consume(Food, upkeep)
	pool.Consume(Oxygen, upkeep)
	pool.Recount()
	e.state.Stats.ConsumptionTicks++

	var reasons []ResourceKind
	if pool.Get(Food) < 0 {
		reasons = append(reasons, Food)
	}
	if pool.Get(Oxygen) < 0 {
		reasons = append(reasons, Oxygen)
	}

	if len(reasons) > 0 {
		failure := &ColonyFailure{Reasons: reasons}
		e.state.Failure = failure
		e.emit(fmt.Sprintf("Your colony ran out of %s! Game Over.", failure.ReasonText()))
		e.logger.Info("Colony failed",
			"operation", "consumption_tick",
			"reasons", failure.ReasonText(),
			"food", pool.Get(Food),
			"oxygen", pool.Get(Oxygen),
		)
		return failure
	}

	e.logger.Debug("Consumption tick", "operation", "consumption_tick", "upkeep", upkeep)
	return nil
}

// CancelCooldown lets the next exploration launch immediately.
func (e *Engine) CancelCooldown() {
	e.state.Cooldown.Cancel()
}

func (e *Engine) CooldownRemaining() time.Duration {
	return e.state.Cooldown.Remaining(e.clock.Now())
}
