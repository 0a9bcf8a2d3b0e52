package session

import (
	"fmt"

	"colony-server/internal/colony"
	"colony-server/internal/shared/config"
)

// EngineConfig converts the colony settings into an engine configuration.
// Values the settings do not carry keep their engine defaults.
func EngineConfig(c config.ColonyConfig) (colony.Config, error) {
	cfg := colony.DefaultConfig()
	cfg.GridSize = c.GridSize
	cfg.StorageCapacity = c.StorageCapacity
	cfg.UpkeepPerModule = c.UpkeepPerModule
	cfg.ProductionInterval = c.ProductionInterval
	cfg.ConsumptionInterval = c.ConsumptionInterval
	cfg.DroneCooldown = c.DroneCooldown
	cfg.LogLimit = c.LogLimit

	policy, err := colony.ParseHazardPolicy(c.HazardPolicy)
	if err != nil {
		return colony.Config{}, fmt.Errorf("failed to parse hazard policy: %w", err)
	}
	cfg.HazardPolicy = policy
	return cfg, nil
}

// LoadCatalog reads the module catalog at path, or returns the built-in
// one when path is empty.
func LoadCatalog(path string) (*colony.Catalog, error) {
	if path == "" {
		return colony.DefaultCatalog(), nil
	}
	return colony.LoadCatalog(path)
}
