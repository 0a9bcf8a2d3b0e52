package colony

import (
	"errors"
	"strings"
	"testing"
)

func TestBuildPowerPlant(t *testing.T) {
	e, _ := newTestEngine(t, DefaultConfig(), nil)

	placement, err := e.Build(PowerPlant, Cell{Row: 2, Col: 3})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if placement.Module != PowerPlant {
		t.Errorf("placement module = %q, want %q", placement.Module, PowerPlant)
	}

	pool := e.Pool()
	if got := pool.Get(Metal); got != 5 {
		t.Errorf("metal = %d, want 5", got)
	}
	if got := pool.Get(Energy); got != 15 {
		t.Errorf("energy = %d, want 15", got)
	}
	if got := pool.Get(Food); got != 25 {
		t.Errorf("food = %d, want 25", got)
	}
	if got := e.Grid().At(Cell{Row: 2, Col: 3}); got != PowerPlant {
		t.Errorf("cell holds %q, want %q", got, PowerPlant)
	}
	if got := pool.Used(); got != 70 {
		t.Errorf("used = %d, want 70 after recount", got)
	}
	if msg := lastMessage(t, e); msg != "Power Plant built!" {
		t.Errorf("last message = %q", msg)
	}
}

func TestBuildSpendsExactCost(t *testing.T) {
	for _, spec := range DefaultCatalog().Modules() {
		t.Run(spec.Name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Initial = Quantities{Metal: 50, Energy: 50, Food: 50, Oxygen: 0}
			cfg.StorageCapacity = 200
			e, _ := newTestEngine(t, cfg, nil)

			if _, err := e.Build(spec.Name, Cell{Row: 0, Col: 0}); err != nil {
				t.Fatalf("Build failed: %v", err)
			}

			pool := e.Pool()
			if got, want := pool.Get(Metal), 50-spec.Cost.Metal; got != want {
				t.Errorf("metal = %d, want %d", got, want)
			}
			if got, want := pool.Get(Energy), 50-spec.Cost.Energy; got != want {
				t.Errorf("energy = %d, want %d", got, want)
			}
			if got, want := pool.Get(Food), 50-spec.Cost.Food; got != want {
				t.Errorf("food = %d, want %d", got, want)
			}
			if got, want := pool.Capacity(), 200+spec.StorageBonus; got != want {
				t.Errorf("capacity = %d, want %d", got, want)
			}
		})
	}
}

func TestBuildInsufficientResourcesLeavesStateUnchanged(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Initial = Quantities{Metal: 24, Energy: 14, Food: 25, Oxygen: 25}
	e, _ := newTestEngine(t, cfg, nil)

	before := e.Snapshot(false)
	_, err := e.Build(OxygenGenerator, Cell{Row: 0, Col: 0})
	if !errors.Is(err, ErrInsufficientResources) {
		t.Fatalf("err = %v, want ErrInsufficientResources", err)
	}

	after := e.Snapshot(false)
	for _, kind := range AllResourceKinds() {
		if before.Resources[kind] != after.Resources[kind] {
			t.Errorf("%s changed from %d to %d", kind, before.Resources[kind], after.Resources[kind])
		}
	}
	if after.Used != before.Used || after.Capacity != before.Capacity {
		t.Errorf("storage changed: %d/%d -> %d/%d", before.Used, before.Capacity, after.Used, after.Capacity)
	}
	if e.Grid().Occupied(Cell{Row: 0, Col: 0}) {
		t.Error("cell occupied after failed build")
	}
	if msg := lastMessage(t, e); msg != "Not enough resources for Oxygen Generator!" {
		t.Errorf("last message = %q", msg)
	}
}

func TestBuildOccupiedCellAlwaysFails(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Initial = Quantities{Metal: 500, Energy: 500, Food: 500}
	cfg.StorageCapacity = 0
	e, _ := newTestEngine(t, cfg, nil)

	cell := Cell{Row: 4, Col: 4}
	if _, err := e.Build(Farm, cell); err != nil {
		t.Fatalf("first Build failed: %v", err)
	}
	metal := e.Pool().Get(Metal)

	for _, name := range []string{Farm, LivingSpace, PowerPlant} {
		_, err := e.Build(name, cell)
		if !errors.Is(err, ErrCellOccupied) {
			t.Errorf("Build(%s) err = %v, want ErrCellOccupied", name, err)
		}
	}
	if got := e.Pool().Get(Metal); got != metal {
		t.Errorf("metal changed on rejected builds: %d -> %d", metal, got)
	}
	if got := e.Grid().At(cell); got != Farm {
		t.Errorf("cell holds %q, want %q", got, Farm)
	}
}

func TestBuildRejectsBadInput(t *testing.T) {
	tests := []struct {
		name    string
		module  string
		cell    Cell
		wantErr error
	}{
		{"negative row", Farm, Cell{Row: -1, Col: 0}, ErrInvalidCell},
		{"col past edge", Farm, Cell{Row: 0, Col: 10}, ErrInvalidCell},
		{"unknown module", "Shipyard", Cell{Row: 0, Col: 0}, ErrUnknownModule},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, _ := newTestEngine(t, DefaultConfig(), nil)
			_, err := e.Build(tt.module, tt.cell)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if n := e.Grid().CountOccupied(); n != 0 {
				t.Errorf("grid has %d modules, want 0", n)
			}
			if got := e.Pool().Get(Metal); got != 25 {
				t.Errorf("metal = %d, want 25", got)
			}
		})
	}
}

func TestAddResourceClampsToCapacity(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Initial = Quantities{Metal: 20, Energy: 20, Food: 20, Oxygen: 25}
	e, _ := newTestEngine(t, cfg, nil)

	if used := e.Pool().Used(); used != 85 {
		t.Fatalf("setup: used = %d, want 85", used)
	}

	result := e.AddResource(Metal, 10)
	if result.Accepted != 5 || result.Wasted != 5 {
		t.Errorf("result = %+v, want 5 accepted, 5 wasted", result)
	}
	if got := e.Pool().Used(); got != 90 {
		t.Errorf("used = %d, want 90", got)
	}
	if got := e.Pool().Get(Metal); got != 25 {
		t.Errorf("metal = %d, want 25", got)
	}
	if msg := lastMessage(t, e); msg != "Storage full! 5 metal wasted." {
		t.Errorf("last message = %q", msg)
	}
}

func TestAddResourceWhenStorageFull(t *testing.T) {
	e, _ := newTestEngine(t, DefaultConfig(), nil)

	result := e.AddResource(Food, 7)
	if result.Accepted != 0 || result.Wasted != 7 {
		t.Errorf("result = %+v, want everything wasted", result)
	}
	if got := e.Pool().Get(Food); got != 25 {
		t.Errorf("food = %d, want 25", got)
	}
	if msg := lastMessage(t, e); msg != "No storage space! 7 food wasted." {
		t.Errorf("last message = %q", msg)
	}
}

func TestAddResourceWithinCapacity(t *testing.T) {
	cfg := DefaultConfig()
	cfg.StorageCapacity = 100
	e, _ := newTestEngine(t, cfg, nil)

	result := e.AddResource(Energy, 4)
	if result.Accepted != 4 || result.Wasted != 0 {
		t.Errorf("result = %+v", result)
	}
	if got := e.Pool().Used(); got != 94 {
		t.Errorf("used = %d, want 94", got)
	}
	if msg := lastMessage(t, e); msg != "Gained 4 energy." {
		t.Errorf("last message = %q", msg)
	}
}

func TestProductionTick(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Initial = Quantities{Metal: 200, Energy: 100, Food: 0, Oxygen: 0}
	cfg.StorageCapacity = 0
	e, _ := newTestEngine(t, cfg, nil)

	for i, name := range []string{Farm, Farm, OxygenGenerator, PowerPlant, LivingSpace} {
		if _, err := e.Build(name, Cell{Row: 0, Col: i}); err != nil {
			t.Fatalf("Build(%s) failed: %v", name, err)
		}
	}
	food, oxygen, energy := e.Pool().Get(Food), e.Pool().Get(Oxygen), e.Pool().Get(Energy)

	results, err := e.ProductionTick()
	if err != nil {
		t.Fatalf("ProductionTick failed: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("got %d additions, want 3", len(results))
	}

	if got := e.Pool().Get(Food) - food; got != 10 {
		t.Errorf("food gained %d, want 10", got)
	}
	if got := e.Pool().Get(Oxygen) - oxygen; got != 5 {
		t.Errorf("oxygen gained %d, want 5", got)
	}
	if got := e.Pool().Get(Energy) - energy; got != 15 {
		t.Errorf("energy gained %d, want 15", got)
	}
}

func TestProductionTickRespectsCapacity(t *testing.T) {
	cfg := DefaultConfig()
	e, _ := newTestEngine(t, cfg, nil)

	if _, err := e.Build(PowerPlant, Cell{Row: 0, Col: 0}); err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	// 70 used of 90 after paying 20 metal.
	results, err := e.ProductionTick()
	if err != nil {
		t.Fatalf("ProductionTick failed: %v", err)
	}
	if len(results) != 1 || results[0].Accepted != 15 || results[0].Wasted != 0 {
		t.Fatalf("results = %+v", results)
	}

	results, _ = e.ProductionTick()
	if results[0].Accepted != 5 || results[0].Wasted != 10 {
		t.Errorf("second tick = %+v, want 5 accepted 10 wasted", results[0])
	}
	if e.Pool().Used() != e.Pool().Capacity() {
		t.Errorf("used %d != capacity %d", e.Pool().Used(), e.Pool().Capacity())
	}
}

func TestConsumptionTickCharges(t *testing.T) {
	e, _ := newTestEngine(t, DefaultConfig(), nil)

	if _, err := e.Build(LivingSpace, Cell{Row: 0, Col: 0}); err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if _, err := e.Build(LivingSpace, Cell{Row: 0, Col: 1}); err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if err := e.ConsumptionTick(); err != nil {
		t.Fatalf("ConsumptionTick failed: %v", err)
	}
	if got := e.Pool().Get(Food); got != 23 {
		t.Errorf("food = %d, want 23", got)
	}
	if got := e.Pool().Get(Oxygen); got != 23 {
		t.Errorf("oxygen = %d, want 23", got)
	}
}

func TestConsumptionTickColonyFailure(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Initial = Quantities{Metal: 25, Energy: 15, Food: 0, Oxygen: 5}
	e, _ := newTestEngine(t, cfg, nil)

	if _, err := e.Build(PowerPlant, Cell{Row: 0, Col: 0}); err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	err := e.ConsumptionTick()
	var failure *ColonyFailure
	if !errors.As(err, &failure) {
		t.Fatalf("err = %v, want *ColonyFailure", err)
	}
	if !errors.Is(err, ErrColonyFailed) {
		t.Error("ColonyFailure does not match ErrColonyFailed")
	}
	if len(failure.Reasons) != 1 || failure.Reasons[0] != Food {
		t.Errorf("reasons = %v, want [food]", failure.Reasons)
	}
	if !strings.Contains(err.Error(), "food") {
		t.Errorf("error %q does not mention food", err)
	}
	if got := e.Pool().Get(Food); got != -1 {
		t.Errorf("food = %d, want -1 to persist", got)
	}
	wantUsed := 0
	for _, kind := range AllResourceKinds() {
		wantUsed += max(e.Pool().Get(kind), 0)
	}
	if got := e.Pool().Used(); got != wantUsed {
		t.Errorf("used = %d, want %d after failing tick", got, wantUsed)
	}
	if msg := lastMessage(t, e); msg != "Your colony ran out of food! Game Over." {
		t.Errorf("last message = %q", msg)
	}

	before := e.Snapshot(false)
	if _, err := e.ProductionTick(); !errors.Is(err, ErrColonyFailed) {
		t.Errorf("ProductionTick err = %v, want ErrColonyFailed", err)
	}
	if err := e.ConsumptionTick(); !errors.Is(err, ErrColonyFailed) {
		t.Errorf("ConsumptionTick err = %v, want ErrColonyFailed", err)
	}
	if _, err := e.Build(Farm, Cell{Row: 1, Col: 1}); !errors.Is(err, ErrColonyFailed) {
		t.Errorf("Build err = %v, want ErrColonyFailed", err)
	}
	if _, err := e.Explore(Shallow); !errors.Is(err, ErrColonyFailed) {
		t.Errorf("Explore err = %v, want ErrColonyFailed", err)
	}

	after := e.Snapshot(false)
	for _, kind := range AllResourceKinds() {
		if before.Resources[kind] != after.Resources[kind] {
			t.Errorf("%s mutated after failure: %d -> %d", kind, before.Resources[kind], after.Resources[kind])
		}
	}
}

func TestConsumptionTickBothReasons(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Initial = Quantities{Metal: 25, Energy: 15}
	e, _ := newTestEngine(t, cfg, nil)

	if _, err := e.Build(PowerPlant, Cell{Row: 0, Col: 0}); err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	err := e.ConsumptionTick()
	var failure *ColonyFailure
	if !errors.As(err, &failure) {
		t.Fatalf("err = %v, want *ColonyFailure", err)
	}
	if got := failure.ReasonText(); got != "food and oxygen" {
		t.Errorf("reasons = %q, want %q", got, "food and oxygen")
	}
}

func TestConsumptionTickWithoutModules(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Initial = Quantities{}
	e, _ := newTestEngine(t, cfg, nil)

	if err := e.ConsumptionTick(); err != nil {
		t.Fatalf("empty colony failed: %v", err)
	}
	if e.Failed() {
		t.Error("colony with zero food and no modules should survive")
	}
}
