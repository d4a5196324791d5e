package parking

import (
	"fmt"
	"math"
)

const (
	DefaultFloors                 = 3
	DefaultOverstayThresholdHours = 24
	DefaultOverstayFine           = 50.0
	DefaultHourlyFine             = 5.0
)

// Config describes the facility layout and its billing policy.
type Config struct {
	Floors                 int
	SpotsPerFloor          map[SpotClass]int
	BaseRates              map[SpotClass]float64
	OverstayThresholdHours int
	OverstayFine           float64
	HourlyFine             float64
	FineScheme             FineScheme
}

func DefaultSpotsPerFloor() map[SpotClass]int {
	return map[SpotClass]int{
		Compact:     5,
		Regular:     5,
		Handicapped: 2,
		Reserved:    2,
	}
}

func DefaultBaseRates() map[SpotClass]float64 {
	rates := make(map[SpotClass]float64, len(defaultBaseRates))
	for _, c := range SpotClasses() {
		rates[c] = c.BaseRate()
	}
	return rates
}

func DefaultConfig() Config {
	return Config{
		Floors:                 DefaultFloors,
		SpotsPerFloor:          DefaultSpotsPerFloor(),
		BaseRates:              DefaultBaseRates(),
		OverstayThresholdHours: DefaultOverstayThresholdHours,
		OverstayFine:           DefaultOverstayFine,
		HourlyFine:             DefaultHourlyFine,
		FineScheme:             FineFixed,
	}
}

func (c Config) Validate() error {
	if c.Floors < 1 {
		return fmt.Errorf("floors must be at least 1, got %d: %w", c.Floors, ErrInvalidInput)
	}

	total := 0
	for class, n := range c.SpotsPerFloor {
		if !class.Valid() {
			return fmt.Errorf("spots per floor: %v: %w", class, ErrInvalidInput)
		}
		if n < 0 {
			return fmt.Errorf("spots per floor for %s must not be negative: %w", class, ErrInvalidInput)
		}
		total += n
	}
	if total == 0 {
		return fmt.Errorf("a floor needs at least one spot: %w", ErrInvalidInput)
	}

	for class, rate := range c.BaseRates {
		if !class.Valid() {
			return fmt.Errorf("base rates: %v: %w", class, ErrInvalidInput)
		}
		if !validAmount(rate) {
			return fmt.Errorf("base rate for %s must be a non-negative number: %w", class, ErrInvalidInput)
		}
	}

	if c.OverstayThresholdHours < 1 {
		return fmt.Errorf("overstay threshold must be at least 1 hour: %w", ErrInvalidInput)
	}
	if !validAmount(c.OverstayFine) || !validAmount(c.HourlyFine) {
		return fmt.Errorf("fines must be non-negative numbers: %w", ErrInvalidInput)
	}
	if !c.FineScheme.Valid() {
		return fmt.Errorf("fine scheme %v: %w", c.FineScheme, ErrInvalidInput)
	}
	return nil
}

// rate falls back to the class default when the config does not set one.
func (c Config) rate(class SpotClass) float64 {
	if r, ok := c.BaseRates[class]; ok {
		return r
	}
	return class.BaseRate()
}

func validAmount(v float64) bool {
	return v >= 0 && !math.IsNaN(v) && !math.IsInf(v, 0)
}
