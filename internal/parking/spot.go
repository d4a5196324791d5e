package parking

import (
	"fmt"
	"strings"
)

type SpotClass int

const (
	Compact SpotClass = iota
	Regular
	Handicapped
	Reserved
)

var spotClassNames = [...]string{
	Compact:     "compact",
	Regular:     "regular",
	Handicapped: "handicapped",
	Reserved:    "reserved",
}

var defaultBaseRates = [...]float64{
	Compact:     2.0,
	Regular:     5.0,
	Handicapped: 2.0,
	Reserved:    10.0,
}

// SpotClasses lists every spot class in the order spots are laid out on a floor.
func SpotClasses() []SpotClass {
	return []SpotClass{Compact, Regular, Handicapped, Reserved}
}

func (c SpotClass) Valid() bool {
	return c >= Compact && c <= Reserved
}

func (c SpotClass) String() string {
	if !c.Valid() {
		return fmt.Sprintf("spot_class(%d)", int(c))
	}
	return spotClassNames[c]
}

// BaseRate is the default hourly rate for the class. A facility may
// override it through Config.BaseRates.
func (c SpotClass) BaseRate() float64 {
	if !c.Valid() {
		return 0
	}
	return defaultBaseRates[c]
}

func ParseSpotClass(s string) (SpotClass, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for i, n := range spotClassNames {
		if n == name {
			return SpotClass(i), nil
		}
	}
	return 0, fmt.Errorf("unknown spot class %q: %w", s, ErrInvalidInput)
}

func (c SpotClass) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("spot class %d: %w", int(c), ErrInvalidInput)
	}
	return []byte(c.String()), nil
}

func (c *SpotClass) UnmarshalText(text []byte) error {
	parsed, err := ParseSpotClass(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Spot is a single parking space. Occupant is a plain reference to the
// vehicle of the active session; the ticket, not the spot, owns it.
type Spot struct {
	ID         string
	Floor      int
	Class      SpotClass
	IsOccupied bool
	Occupant   *Vehicle
}

func NewSpot(floor, index int, class SpotClass) *Spot {
	return &Spot{
		ID:    SpotID(floor, index),
		Floor: floor,
		Class: class,
	}
}

func SpotID(floor, index int) string {
	return fmt.Sprintf("F%d-S%d", floor, index)
}

func (s *Spot) Park(vehicle *Vehicle) {
	s.Occupant = vehicle
	s.IsOccupied = true
}

func (s *Spot) Leave() *Vehicle {
	vehicle := s.Occupant
	s.Occupant = nil
	s.IsOccupied = false
	return vehicle
}

// snapshot returns a copy that shares nothing with the live spot.
func (s *Spot) snapshot() Spot {
	c := *s
	if s.Occupant != nil {
		v := *s.Occupant
		c.Occupant = &v
	}
	return c
}
