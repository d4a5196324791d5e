package parking

import (
	"fmt"
	"strings"
)

var compatibility = map[VehicleClass][]SpotClass{
	Motorcycle:         {Compact},
	Car:                {Compact, Regular},
	SuvTruck:           {Regular},
	HandicappedVehicle: {Compact, Regular, Handicapped, Reserved},
}

// CompatibleSpotClasses returns the spot classes a vehicle class may use.
func CompatibleSpotClasses(vc VehicleClass) []SpotClass {
	classes := compatibility[vc]
	out := make([]SpotClass, len(classes))
	copy(out, classes)
	return out
}

func IsCompatible(vc VehicleClass, sc SpotClass) bool {
	for _, c := range compatibility[vc] {
		if c == sc {
			return true
		}
	}
	return false
}

type FineScheme int

const (
	FineFixed FineScheme = iota
	FineProgressive
	FineHourly
)

var fineSchemeNames = [...]string{
	FineFixed:       "fixed",
	FineProgressive: "progressive",
	FineHourly:      "hourly",
}

func (s FineScheme) Valid() bool {
	return s >= FineFixed && s <= FineHourly
}

func (s FineScheme) String() string {
	if !s.Valid() {
		return fmt.Sprintf("fine_scheme(%d)", int(s))
	}
	return fineSchemeNames[s]
}

func ParseFineScheme(s string) (FineScheme, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for i, n := range fineSchemeNames {
		if n == name {
			return FineScheme(i), nil
		}
	}
	return 0, fmt.Errorf("unknown fine scheme %q: %w", s, ErrInvalidInput)
}

func (s FineScheme) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("fine scheme %d: %w", int(s), ErrInvalidInput)
	}
	return []byte(s.String()), nil
}

func (s *FineScheme) UnmarshalText(text []byte) error {
	parsed, err := ParseFineScheme(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// OverstayPolicy holds the overstay parameters of a facility.
type OverstayPolicy struct {
	Scheme         FineScheme
	ThresholdHours int
	Fine           float64
	HourlyFine     float64
}

// FineFor returns the overstay fine for a session billed at hours. Nothing
// is due at or below the threshold.
//
//   - fixed: one flat Fine.
//   - progressive: Fine for every started threshold-long period past the threshold.
//   - hourly: HourlyFine for every hour past the threshold.
func (p OverstayPolicy) FineFor(hours int) float64 {
	over := hours - p.ThresholdHours
	if over <= 0 {
		return 0
	}
	switch p.Scheme {
	case FineFixed:
		return p.Fine
	case FineProgressive:
		periods := (over + p.ThresholdHours - 1) / p.ThresholdHours
		return float64(periods) * p.Fine
	case FineHourly:
		return float64(over) * p.HourlyFine
	default:
		return 0
	}
}
