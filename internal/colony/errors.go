package colony

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrUnknownModule         = errors.New("unknown module")
	ErrUnknownBiome          = errors.New("unknown biome")
	ErrInvalidCell           = errors.New("invalid cell")
	ErrCellOccupied          = errors.New("cell occupied")
	ErrInsufficientResources = errors.New("insufficient resources")
	ErrCoolingDown           = errors.New("drone cooling down")
	ErrColonyFailed          = errors.New("colony failed")
)

// ColonyFailure is the terminal condition raised when food or oxygen
// drops below zero. It matches ErrColonyFailed under errors.Is.
type ColonyFailure struct {
	Reasons []ResourceKind
}

func (f *ColonyFailure) Error() string {
	return "colony ran out of " + f.ReasonText()
}

func (f *ColonyFailure) Is(target error) bool {
	return target == ErrColonyFailed
}

func (f *ColonyFailure) ReasonText() string {
	parts := make([]string, len(f.Reasons))
	for i, r := range f.Reasons {
		parts[i] = string(r)
	}
	return strings.Join(parts, " and ")
}

// CooldownError rejects an exploration launched before the drone is ready.
// It matches ErrCoolingDown under errors.Is.
type CooldownError struct {
	Remaining time.Duration
}

func (c *CooldownError) Error() string {
	return fmt.Sprintf("drone cooling down: %s remaining", c.Remaining)
}

func (c *CooldownError) Is(target error) bool {
	return target == ErrCoolingDown
}
