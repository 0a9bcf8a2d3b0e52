package colony

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	LivingSpace     = "Living Space"
	Farm            = "Farm"
	OxygenGenerator = "Oxygen Generator"
	PowerPlant      = "Power Plant"
)

type Biome string

const (
	Shallow Biome = "shallow"
	Deep    Biome = "deep"
	Abyss   Biome = "abyss"
)

func ParseBiome(s string) Biome {
	return Biome(strings.ToLower(strings.TrimSpace(s)))
}

// Range is a half-open integer interval [Low, High).
// In YAML it is written as a two element sequence: [5, 15].
type Range struct {
	Low  int `json:"low"`
	High int `json:"high"`
}

func (r *Range) UnmarshalYAML(value *yaml.Node) error {
	var bounds []int
	if err := value.Decode(&bounds); err != nil {
		return fmt.Errorf("line %d: range must be [low, high]: %w", value.Line, err)
	}
	if len(bounds) != 2 {
		return fmt.Errorf("line %d: range must have exactly two bounds, got %d", value.Line, len(bounds))
	}
	r.Low, r.High = bounds[0], bounds[1]
	return nil
}

func (r Range) MarshalYAML() (interface{}, error) {
	return []int{r.Low, r.High}, nil
}

func (r Range) validate() error {
	if r.Low < 0 {
		return fmt.Errorf("range low bound %d is negative", r.Low)
	}
	if r.High < r.Low {
		return fmt.Errorf("range [%d, %d) is inverted", r.Low, r.High)
	}
	return nil
}

// ModuleSpec describes a buildable module and its passive effects.
type ModuleSpec struct {
	Name         string       `json:"name" yaml:"name"`
	Cost         Cost         `json:"cost" yaml:"cost"`
	StorageBonus int          `json:"storage_bonus,omitempty" yaml:"storage_bonus"`
	Produces     ResourceKind `json:"produces,omitempty" yaml:"produces"`
	Yield        int          `json:"yield,omitempty" yaml:"yield"`
}

func (m ModuleSpec) IsProducer() bool {
	return m.Produces != "" && m.Yield > 0
}

// BiomeSpec is the exploration table for one biome.
type BiomeSpec struct {
	Name         Biome   `json:"name" yaml:"name"`
	Metal        Range   `json:"metal" yaml:"metal"`
	Energy       Range   `json:"energy" yaml:"energy"`
	Food         Range   `json:"food" yaml:"food"`
	HazardChance float64 `json:"hazard_chance" yaml:"hazard_chance"`
	MetalLoss    Range   `json:"metal_loss" yaml:"metal_loss"`
	FoodLoss     Range   `json:"food_loss" yaml:"food_loss"`
}

// Catalog is the immutable table of modules and biomes.
type Catalog struct {
	modules     []ModuleSpec
	moduleIndex map[string]int
	biomes      []BiomeSpec
	biomeIndex  map[Biome]int
}

type catalogFile struct {
	Modules []ModuleSpec `yaml:"modules"`
	Biomes  []BiomeSpec  `yaml:"biomes"`
}

func NewCatalog(modules []ModuleSpec, biomes []BiomeSpec) (*Catalog, error) {
	c := &Catalog{
		moduleIndex: make(map[string]int, len(modules)),
		biomeIndex:  make(map[Biome]int, len(biomes)),
	}

	for _, m := range modules {
		if m.Name == "" {
			return nil, fmt.Errorf("module with empty name")
		}
		if _, dup := c.moduleIndex[m.Name]; dup {
			return nil, fmt.Errorf("duplicate module %q", m.Name)
		}
		if m.Cost.Metal < 0 || m.Cost.Energy < 0 || m.Cost.Food < 0 {
			return nil, fmt.Errorf("module %q has a negative cost", m.Name)
		}
		if m.StorageBonus < 0 {
			return nil, fmt.Errorf("module %q has a negative storage bonus", m.Name)
		}
		if m.Yield < 0 {
			return nil, fmt.Errorf("module %q has a negative yield", m.Name)
		}
		if m.Yield > 0 && !m.Produces.IsValid() {
			return nil, fmt.Errorf("module %q produces unknown resource %q", m.Name, m.Produces)
		}
		c.moduleIndex[m.Name] = len(c.modules)
		c.modules = append(c.modules, m)
	}

	for _, b := range biomes {
		b.Name = ParseBiome(string(b.Name))
		if b.Name == "" {
			return nil, fmt.Errorf("biome with empty name")
		}
		if _, dup := c.biomeIndex[b.Name]; dup {
			return nil, fmt.Errorf("duplicate biome %q", b.Name)
		}
		if b.HazardChance < 0 || b.HazardChance > 1 {
			return nil, fmt.Errorf("biome %q hazard chance %.2f outside [0, 1]", b.Name, b.HazardChance)
		}
		for name, r := range map[string]Range{
			"metal": b.Metal, "energy": b.Energy, "food": b.Food,
			"metal_loss": b.MetalLoss, "food_loss": b.FoodLoss,
		} {
			if err := r.validate(); err != nil {
				return nil, fmt.Errorf("biome %q %s: %w", b.Name, name, err)
			}
		}
		c.biomeIndex[b.Name] = len(c.biomes)
		c.biomes = append(c.biomes, b)
	}

	if len(c.modules) == 0 {
		return nil, fmt.Errorf("catalog has no modules")
	}
	if len(c.biomes) == 0 {
		return nil, fmt.Errorf("catalog has no biomes")
	}

	return c, nil
}

// DefaultCatalog returns the stock modules and deep-sea biomes.
func DefaultCatalog() *Catalog {
	c, err := NewCatalog(defaultModules(), defaultBiomes())
	if err != nil {
		panic(fmt.Sprintf("default catalog is invalid: %v", err))
	}
	return c
}

func defaultModules() []ModuleSpec {
	return []ModuleSpec{
		{Name: LivingSpace, Cost: Cost{Metal: 10, Energy: 5}, StorageBonus: 10},
		{Name: Farm, Cost: Cost{Metal: 15, Energy: 5}, Produces: Food, Yield: 5},
		{Name: OxygenGenerator, Cost: Cost{Metal: 25, Energy: 15}, Produces: Oxygen, Yield: 5},
		{Name: PowerPlant, Cost: Cost{Metal: 20}, Produces: Energy, Yield: 15},
	}
}

func defaultBiomes() []BiomeSpec {
	return []BiomeSpec{
		{
			Name:  Shallow,
			Metal: Range{5, 15}, Energy: Range{0, 5}, Food: Range{0, 5},
			HazardChance: 0.05,
			MetalLoss:    Range{1, 5}, FoodLoss: Range{1, 5},
		},
		{
			Name:  Deep,
			Metal: Range{10, 30}, Energy: Range{2, 12}, Food: Range{2, 10},
			HazardChance: 0.15,
			MetalLoss:    Range{3, 10}, FoodLoss: Range{3, 10},
		},
		{
			Name:  Abyss,
			Metal: Range{20, 60}, Energy: Range{5, 25}, Food: Range{5, 20},
			HazardChance: 0.35,
			MetalLoss:    Range{5, 20}, FoodLoss: Range{5, 20},
		},
	}
}

// ParseCatalog decodes a YAML catalog. Missing sections fall back to the
// defaults so a file may override only modules or only biomes.
func ParseCatalog(data []byte) (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	if len(file.Modules) == 0 {
		file.Modules = defaultModules()
	}
	if len(file.Biomes) == 0 {
		file.Biomes = defaultBiomes()
	}
	return NewCatalog(file.Modules, file.Biomes)
}

func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog %s: %w", path, err)
	}
	return ParseCatalog(data)
}

// MarshalYAML writes the catalog in the same shape ParseCatalog reads.
func (c *Catalog) MarshalYAML() (interface{}, error) {
	return catalogFile{Modules: c.Modules(), Biomes: c.Biomes()}, nil
}

func (c *Catalog) Module(name string) (ModuleSpec, bool) {
	i, ok := c.moduleIndex[name]
	if !ok {
		return ModuleSpec{}, false
	}
	return c.modules[i], true
}

func (c *Catalog) Modules() []ModuleSpec {
	out := make([]ModuleSpec, len(c.modules))
	copy(out, c.modules)
	return out
}

func (c *Catalog) Biome(b Biome) (BiomeSpec, bool) {
	i, ok := c.biomeIndex[b]
	if !ok {
		return BiomeSpec{}, false
	}
	return c.biomes[i], true
}

func (c *Catalog) Biomes() []BiomeSpec {
	out := make([]BiomeSpec, len(c.biomes))
	copy(out, c.biomes)
	return out
}

// Producers returns the producing modules in catalog order.
func (c *Catalog) Producers() []ModuleSpec {
	var out []ModuleSpec
	for _, m := range c.modules {
		if m.IsProducer() {
			out = append(out, m)
		}
	}
	return out
}
