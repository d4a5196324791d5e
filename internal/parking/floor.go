package parking

type Floor struct {
	Number int
	spots  []*Spot
}

func NewFloor(number int) *Floor {
	return &Floor{Number: number}
}

// AddSpots appends count spots of the given class, continuing the floor's
// index sequence.
func (f *Floor) AddSpots(class SpotClass, count int) {
	start := len(f.spots) + 1
	for i := 0; i < count; i++ {
		f.spots = append(f.spots, NewSpot(f.Number, start+i, class))
	}
}

func (f *Floor) Capacity() int {
	return len(f.spots)
}

func (f *Floor) OccupiedCount() int {
	n := 0
	for _, s := range f.spots {
		if s.IsOccupied {
			n++
		}
	}
	return n
}

type FloorOccupancy struct {
	Floor    int `json:"floor"`
	Occupied int `json:"occupied"`
	Total    int `json:"total"`
}
