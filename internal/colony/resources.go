package colony

import (
	"fmt"
	"strings"
)

type ResourceKind string

const (
	Metal  ResourceKind = "metal"
	Energy ResourceKind = "energy"
	Food   ResourceKind = "food"
	Oxygen ResourceKind = "oxygen"
)

// AllResourceKinds returns the resource kinds in display order.
func AllResourceKinds() []ResourceKind {
	return []ResourceKind{Metal, Energy, Food, Oxygen}
}

func (k ResourceKind) String() string {
	return string(k)
}

func (k ResourceKind) IsValid() bool {
	switch k {
	case Metal, Energy, Food, Oxygen:
		return true
	}
	return false
}

func ParseResourceKind(s string) (ResourceKind, error) {
	kind := ResourceKind(strings.ToLower(strings.TrimSpace(s)))
	if !kind.IsValid() {
		return "", fmt.Errorf("unknown resource kind %q", s)
	}
	return kind, nil
}

// Quantities maps each resource kind to an amount.
type Quantities map[ResourceKind]int

// Cost is the one-time price of a module. Oxygen is never spent on builds.
type Cost struct {
	Metal  int `json:"metal" yaml:"metal"`
	Energy int `json:"energy" yaml:"energy"`
	Food   int `json:"food" yaml:"food"`
}

// AddResult reports how much of an addition the storage accepted.
type AddResult struct {
	Kind     ResourceKind `json:"kind"`
	Accepted int          `json:"accepted"`
	Wasted   int          `json:"wasted"`
}

// ResourcePool holds the colony's stock and storage accounting.
// A capacity <= 0 disables the storage cap.
type ResourcePool struct {
	quantities Quantities
	capacity   int
	used       int
}

func NewResourcePool(initial Quantities, capacity int) *ResourcePool {
	p := &ResourcePool{
		quantities: make(Quantities, 4),
		capacity:   capacity,
	}
	for _, kind := range AllResourceKinds() {
		p.quantities[kind] = initial[kind]
	}
	p.Recount()
	return p
}

func (p *ResourcePool) Get(kind ResourceKind) int {
	return p.quantities[kind]
}

func (p *ResourcePool) Capacity() int {
	return p.capacity
}

func (p *ResourcePool) Used() int {
	return p.used
}

func (p *ResourcePool) Capped() bool {
	return p.capacity > 0
}

func (p *ResourcePool) Quantities() Quantities {
	out := make(Quantities, len(p.quantities))
	for k, v := range p.quantities {
		out[k] = v
	}
	return out
}

// CanAfford reports whether every component of cost is covered.
func (p *ResourcePool) CanAfford(cost Cost) bool {
	return cost.Metal <= p.quantities[Metal] &&
		cost.Energy <= p.quantities[Energy] &&
		cost.Food <= p.quantities[Food]
}

// Spend deducts cost. Callers must check CanAfford first.
func (p *ResourcePool) Spend(cost Cost) {
	p.quantities[Metal] -= cost.Metal
	p.quantities[Energy] -= cost.Energy
	p.quantities[Food] -= cost.Food
}

// Add stores up to amount units of kind, clamped to the free capacity.
func (p *ResourcePool) Add(kind ResourceKind, amount int) AddResult {
	result := AddResult{Kind: kind}
	if amount <= 0 {
		return result
	}

	accepted := amount
	if p.Capped() {
		free := p.capacity - p.used
		if free < 0 {
			free = 0
		}
		accepted = min(amount, free)
	}

	p.quantities[kind] += accepted
	p.used += accepted
	result.Accepted = accepted
	result.Wasted = amount - accepted
	return result
}

// Consume subtracts amount without clamping; negative values are the
// colony-failure signal for food and oxygen.
func (p *ResourcePool) Consume(kind ResourceKind, amount int) {
	p.quantities[kind] -= amount
}

// Drain subtracts up to amount, never taking the quantity below zero,
// and returns what was actually removed.
func (p *ResourcePool) Drain(kind ResourceKind, amount int) int {
	if amount <= 0 {
		return 0
	}
	have := p.quantities[kind]
	if have <= 0 {
		return 0
	}
	taken := min(amount, have)
	p.quantities[kind] = have - taken
	return taken
}

// GrowCapacity adjusts an active cap by delta. A shrinking cap never
// drops below one, so it cannot switch the pool to uncapped. Quantities
// above the new cap are kept; later additions are wasted until used
// falls below it.
func (p *ResourcePool) GrowCapacity(delta int) {
	if delta == 0 || !p.Capped() {
		return
	}
	p.capacity = max(p.capacity+delta, 1)
}

// Recount resets the used counter to the sum of non-negative quantities.
func (p *ResourcePool) Recount() {
	used := 0
	for _, v := range p.quantities {
		if v > 0 {
			used += v
		}
	}
	p.used = used
}

// restore overwrites the pool from a snapshot without recounting.
func (p *ResourcePool) restore(q Quantities, capacity, used int) {
	for _, kind := range AllResourceKinds() {
		p.quantities[kind] = q[kind]
	}
	p.capacity = capacity
	p.used = used
}
