package parking

import (
	"fmt"
	"strings"
)

type VehicleClass int

const (
	Motorcycle VehicleClass = iota
	Car
	SuvTruck
	HandicappedVehicle
)

var vehicleClassNames = [...]string{
	Motorcycle:         "motorcycle",
	Car:                "car",
	SuvTruck:           "suv_truck",
	HandicappedVehicle: "handicapped_vehicle",
}

// VehicleClasses lists every vehicle class in declaration order.
func VehicleClasses() []VehicleClass {
	return []VehicleClass{Motorcycle, Car, SuvTruck, HandicappedVehicle}
}

func (c VehicleClass) Valid() bool {
	return c >= Motorcycle && c <= HandicappedVehicle
}

func (c VehicleClass) String() string {
	if !c.Valid() {
		return fmt.Sprintf("vehicle_class(%d)", int(c))
	}
	return vehicleClassNames[c]
}

// ParseVehicleClass accepts the snake_case name in any case; dashes may
// stand in for underscores.
func ParseVehicleClass(s string) (VehicleClass, error) {
	name := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_")
	for i, n := range vehicleClassNames {
		if n == name {
			return VehicleClass(i), nil
		}
	}
	return 0, fmt.Errorf("unknown vehicle class %q: %w", s, ErrInvalidInput)
}

func (c VehicleClass) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("vehicle class %d: %w", int(c), ErrInvalidInput)
	}
	return []byte(c.String()), nil
}

func (c *VehicleClass) UnmarshalText(text []byte) error {
	parsed, err := ParseVehicleClass(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

type Vehicle struct {
	Plate string
	Class VehicleClass
}

func NewVehicle(plate string, class VehicleClass) *Vehicle {
	return &Vehicle{
		Plate: plate,
		Class: class,
	}
}
