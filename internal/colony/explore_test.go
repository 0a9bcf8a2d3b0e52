package colony

import (
	"errors"
	"testing"
	"time"
)

func uncappedConfig(policy HazardPolicy) Config {
	cfg := DefaultConfig()
	cfg.StorageCapacity = 0
	cfg.HazardPolicy = policy
	return cfg
}

func TestExploreYields(t *testing.T) {
	rng := &scriptedRand{
		ints:   []int{3, 2, 0},
		floats: []float64{0.9},
	}
	rng.t = t
	e, _ := newTestEngine(t, uncappedConfig(HazardBoth), rng)

	x, err := e.Explore(Shallow)
	if err != nil {
		t.Fatalf("Explore failed: %v", err)
	}
	if x.Hazard != nil {
		t.Errorf("unexpected hazard %+v", x.Hazard)
	}
	if got := x.Accepted(Metal); got != 8 {
		t.Errorf("metal accepted = %d, want 8", got)
	}
	if got := x.Accepted(Energy); got != 2 {
		t.Errorf("energy accepted = %d, want 2", got)
	}
	if len(x.Gains) != 2 {
		t.Errorf("got %d gains, want 2 (zero food skipped)", len(x.Gains))
	}
	if got := e.Pool().Get(Metal); got != 33 {
		t.Errorf("metal = %d, want 33", got)
	}
	if got := e.Pool().Get(Energy); got != 17 {
		t.Errorf("energy = %d, want 17", got)
	}
}

func TestExploreGoesThroughStorageCap(t *testing.T) {
	rng := &scriptedRand{ints: []int{9, 0, 0}, floats: []float64{0.99}}
	rng.t = t
	cfg := DefaultConfig()
	cfg.StorageCapacity = 100
	e, _ := newTestEngine(t, cfg, rng)

	x, err := e.Explore(Shallow)
	if err != nil {
		t.Fatalf("Explore failed: %v", err)
	}
	if got := x.Accepted(Metal); got != 10 {
		t.Errorf("metal accepted = %d, want 10", got)
	}
	if got := x.Wasted(); got != 4 {
		t.Errorf("wasted = %d, want 4", got)
	}
	if msg := lastMessage(t, e); msg != "Storage full! 4 metal wasted." {
		t.Errorf("last message = %q", msg)
	}
}

func TestExploreCooldown(t *testing.T) {
	rng := &scriptedRand{
		ints:   []int{0, 0, 0, 1, 1, 1},
		floats: []float64{0.99, 0.99},
	}
	rng.t = t
	e, clock := newTestEngine(t, uncappedConfig(HazardBoth), rng)

	if _, err := e.Explore(Shallow); err != nil {
		t.Fatalf("first Explore failed: %v", err)
	}
	before := e.Snapshot(false)

	clock.Advance(500 * time.Millisecond)
	_, err := e.Explore(Shallow)
	if !errors.Is(err, ErrCoolingDown) {
		t.Fatalf("second Explore err = %v, want ErrCoolingDown", err)
	}
	var cd *CooldownError
	if !errors.As(err, &cd) || cd.Remaining != 500*time.Millisecond {
		t.Errorf("cooldown error = %#v, want 500ms remaining", err)
	}
	if msg := lastMessage(t, e); msg != "Drone cooling down..." {
		t.Errorf("last message = %q", msg)
	}
	after := e.Snapshot(false)
	for _, kind := range AllResourceKinds() {
		if before.Resources[kind] != after.Resources[kind] {
			t.Errorf("%s changed during cooldown", kind)
		}
	}
	if got := e.Stats().Expeditions; got != 1 {
		t.Errorf("expeditions = %d, want 1", got)
	}

	// The rejected call must not have restarted the cooldown.
	clock.Advance(500 * time.Millisecond)
	if e.CooldownRemaining() != 0 {
		t.Fatalf("cooldown still running: %s", e.CooldownRemaining())
	}
	if _, err := e.Explore(Shallow); err != nil {
		t.Fatalf("third Explore failed: %v", err)
	}
}

func TestExploreCancelCooldown(t *testing.T) {
	rng := &scriptedRand{
		ints:   []int{0, 0, 0, 0, 0, 0},
		floats: []float64{0.99, 0.99},
	}
	rng.t = t
	e, _ := newTestEngine(t, uncappedConfig(HazardBoth), rng)

	if _, err := e.Explore(Shallow); err != nil {
		t.Fatalf("Explore failed: %v", err)
	}
	e.CancelCooldown()
	if _, err := e.Explore(Shallow); err != nil {
		t.Fatalf("Explore after cancel failed: %v", err)
	}
}

func TestExploreUnknownBiome(t *testing.T) {
	e, _ := newTestEngine(t, DefaultConfig(), nil)

	_, err := e.Explore("lagoon")
	if !errors.Is(err, ErrUnknownBiome) {
		t.Fatalf("err = %v, want ErrUnknownBiome", err)
	}
	if e.CooldownRemaining() != 0 {
		t.Error("unknown biome armed the cooldown")
	}
}

func buildAt(t *testing.T, e *Engine, module string, cells ...Cell) {
	t.Helper()
	for _, c := range cells {
		if _, err := e.Build(module, c); err != nil {
			t.Fatalf("Build(%s, %s) failed: %v", module, c, err)
		}
	}
}

func TestHazardPolicies(t *testing.T) {
	first, second := Cell{Row: 1, Col: 1}, Cell{Row: 3, Col: 0}

	tests := []struct {
		name          string
		policy        HazardPolicy
		ints          []int
		wantDestroyed *Cell
		wantMetalLost int
		wantFoodLost  int
		wantModules   int
	}{
		{
			name:          "destroy",
			policy:        HazardDestroy,
			ints:          []int{0, 0, 0, 1},
			wantDestroyed: &second,
			wantModules:   1,
		},
		{
			name:          "drain",
			policy:        HazardDrain,
			ints:          []int{0, 0, 0, 10, 0},
			wantMetalLost: 15,
			wantFoodLost:  5,
			wantModules:   2,
		},
		{
			name:          "both",
			policy:        HazardBoth,
			ints:          []int{0, 0, 0, 0, 2, 3},
			wantDestroyed: &first,
			wantMetalLost: 7,
			wantFoodLost:  8,
			wantModules:   1,
		},
		{
			name:        "none",
			policy:      HazardNone,
			ints:        []int{0, 0, 0},
			wantModules: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rng := &scriptedRand{t: t, ints: tt.ints, floats: []float64{0.1}}
			cfg := uncappedConfig(tt.policy)
			cfg.Initial = Quantities{Metal: 100, Energy: 100, Food: 50, Oxygen: 50}
			e, _ := newTestEngine(t, cfg, rng)
			buildAt(t, e, PowerPlant, first, second)

			metalBefore := e.Pool().Get(Metal)
			foodBefore := e.Pool().Get(Food)

			x, err := e.Explore(Abyss)
			if err != nil {
				t.Fatalf("Explore failed: %v", err)
			}
			if x.Hazard == nil {
				t.Fatal("hazard did not trigger")
			}

			h := x.Hazard
			switch {
			case tt.wantDestroyed == nil && h.Destroyed != nil:
				t.Errorf("destroyed %+v, want nothing", h.Destroyed)
			case tt.wantDestroyed != nil && h.Destroyed == nil:
				t.Errorf("nothing destroyed, want %s", tt.wantDestroyed)
			case tt.wantDestroyed != nil && h.Destroyed.Cell != *tt.wantDestroyed:
				t.Errorf("destroyed %s, want %s", h.Destroyed.Cell, tt.wantDestroyed)
			}
			if tt.wantDestroyed != nil && e.Grid().Occupied(*tt.wantDestroyed) {
				t.Errorf("cell %s still occupied", tt.wantDestroyed)
			}
			if got := e.Grid().CountOccupied(); got != tt.wantModules {
				t.Errorf("modules = %d, want %d", got, tt.wantModules)
			}
			if h.MetalLost != tt.wantMetalLost || h.FoodLost != tt.wantFoodLost {
				t.Errorf("lost metal=%d food=%d, want %d/%d", h.MetalLost, h.FoodLost, tt.wantMetalLost, tt.wantFoodLost)
			}

			// Abyss yields with zero draws: 20 metal, 5 energy, 5 food.
			if got, want := e.Pool().Get(Metal), metalBefore+20-tt.wantMetalLost; got != want {
				t.Errorf("metal = %d, want %d", got, want)
			}
			if got, want := e.Pool().Get(Food), foodBefore+5-tt.wantFoodLost; got != want {
				t.Errorf("food = %d, want %d", got, want)
			}
		})
	}
}

func TestHazardDrainClampsAtZero(t *testing.T) {
	rng := &scriptedRand{t: t, ints: []int{0, 0, 0, 14, 14}, floats: []float64{0.0}}
	cfg := uncappedConfig(HazardDrain)
	cfg.Initial = Quantities{}
	e, _ := newTestEngine(t, cfg, rng)

	x, err := e.Explore(Abyss)
	if err != nil {
		t.Fatalf("Explore failed: %v", err)
	}
	// 20 metal and 5 food were found, then up to 19 of each lost.
	if x.Hazard.MetalLost != 19 || x.Hazard.FoodLost != 5 {
		t.Errorf("lost = %+v, want 19 metal, 5 food", x.Hazard)
	}
	if got := e.Pool().Get(Metal); got != 1 {
		t.Errorf("metal = %d, want 1", got)
	}
	if got := e.Pool().Get(Food); got != 0 {
		t.Errorf("food = %d, want 0", got)
	}
	if got := e.Pool().Used(); got != 6 {
		t.Errorf("used = %d, want 6 after recount", got)
	}
}

func TestHazardWithEmptyGrid(t *testing.T) {
	rng := &scriptedRand{t: t, ints: []int{0, 0, 0}, floats: []float64{0.0}}
	e, _ := newTestEngine(t, uncappedConfig(HazardDestroy), rng)

	x, err := e.Explore(Deep)
	if err != nil {
		t.Fatalf("Explore failed: %v", err)
	}
	if x.Hazard == nil || x.Hazard.Destroyed != nil {
		t.Fatalf("hazard = %+v, want triggered with nothing destroyed", x.Hazard)
	}
	if msg := lastMessage(t, e); msg != "Hazard! The drone escaped unharmed." {
		t.Errorf("last message = %q", msg)
	}
}

func TestHazardDestroysLivingSpaceBonus(t *testing.T) {
	rng := &scriptedRand{t: t, ints: []int{0, 0, 0, 0}, floats: []float64{0.1}}
	cfg := DefaultConfig()
	cfg.HazardPolicy = HazardDestroy
	e, _ := newTestEngine(t, cfg, rng)

	buildAt(t, e, LivingSpace, Cell{Row: 0, Col: 0})
	if got := e.Pool().Capacity(); got != 100 {
		t.Fatalf("capacity after build = %d, want 100", got)
	}

	// 75 used: +20 metal and +5 energy fit, the 5 food is wasted.
	x, err := e.Explore(Abyss)
	if err != nil {
		t.Fatalf("Explore failed: %v", err)
	}
	if x.Hazard == nil || x.Hazard.Destroyed == nil || x.Hazard.Destroyed.Module != LivingSpace {
		t.Fatalf("hazard = %+v, want Living Space destroyed", x.Hazard)
	}
	if got := e.Pool().Capacity(); got != 90 {
		t.Errorf("capacity after hazard = %d, want 90", got)
	}
	if got := e.Pool().Used(); got != 100 {
		t.Errorf("used = %d, want 100", got)
	}

	res := e.AddResource(Metal, 5)
	if res.Accepted != 0 || res.Wasted != 5 {
		t.Errorf("add over shrunken cap = %+v, want all wasted", res)
	}
	if msg := lastMessage(t, e); msg != "No storage space! 5 metal wasted." {
		t.Errorf("last message = %q", msg)
	}
}
