package parking

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Facility owns the floors, the active tickets, the fines ledger and the
// revenue total. All of its methods are safe for concurrent use.
type Facility struct {
	mu       sync.RWMutex
	floors   []*Floor
	spots    map[string]*Spot
	tickets  map[string]*Ticket
	fines    map[string]float64
	revenue  float64
	rates    map[SpotClass]float64
	overstay OverstayPolicy
	clock    Clock
	ids      TicketIDGenerator
}

type Option func(*Facility)

func WithClock(clock Clock) Option {
	return func(f *Facility) {
		if clock != nil {
			f.clock = clock
		}
	}
}

func WithTicketIDs(ids TicketIDGenerator) Option {
	return func(f *Facility) {
		if ids != nil {
			f.ids = ids
		}
	}
}

func NewFacility(cfg Config, opts ...Option) (*Facility, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	f := &Facility{
		spots:   make(map[string]*Spot),
		tickets: make(map[string]*Ticket),
		fines:   make(map[string]float64),
		rates:   make(map[SpotClass]float64, len(SpotClasses())),
		overstay: OverstayPolicy{
			Scheme:         cfg.FineScheme,
			ThresholdHours: cfg.OverstayThresholdHours,
			Fine:           cfg.OverstayFine,
			HourlyFine:     cfg.HourlyFine,
		},
		clock: systemClock{},
		ids:   NewTimestampTicketIDs(),
	}
	for _, opt := range opts {
		opt(f)
	}

	for _, class := range SpotClasses() {
		f.rates[class] = cfg.rate(class)
	}

	for n := 1; n <= cfg.Floors; n++ {
		floor := NewFloor(n)
		for _, class := range SpotClasses() {
			floor.AddSpots(class, cfg.SpotsPerFloor[class])
		}
		for _, s := range floor.spots {
			f.spots[s.ID] = s
		}
		f.floors = append(f.floors, floor)
	}

	return f, nil
}

// FindAvailable lists free spots the vehicle class may use, floor by floor
// in index order. An empty result means the facility has no room for it.
func (f *Facility) FindAvailable(vc VehicleClass) ([]Spot, error) {
	if !vc.Valid() {
		return nil, fmt.Errorf("vehicle class %v: %w", vc, ErrInvalidInput)
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	available := []Spot{}
	for _, floor := range f.floors {
		for _, s := range floor.spots {
			if !s.IsOccupied && IsCompatible(vc, s.Class) {
				available = append(available, s.snapshot())
			}
		}
	}
	return available, nil
}

func (f *Facility) Allocate(plate string, vc VehicleClass, spotID string) (Ticket, error) {
	plate = strings.TrimSpace(plate)
	if plate == "" {
		return Ticket{}, fmt.Errorf("plate is required: %w", ErrInvalidInput)
	}
	if !vc.Valid() {
		return Ticket{}, fmt.Errorf("vehicle class %v: %w", vc, ErrInvalidInput)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	spot, ok := f.spots[spotID]
	if !ok {
		return Ticket{}, fmt.Errorf("spot %q: %w", spotID, ErrSpotNotFound)
	}
	if spot.IsOccupied {
		return Ticket{}, fmt.Errorf("spot %s: %w", spotID, ErrSpotOccupied)
	}
	if !IsCompatible(vc, spot.Class) {
		return Ticket{}, fmt.Errorf("%s cannot use %s spot %s: %w", vc, spot.Class, spotID, ErrIncompatibleSpot)
	}
	if existing, ok := f.tickets[plateKey(plate)]; ok {
		return Ticket{}, fmt.Errorf("plate %s holds spot %s: %w", plate, existing.SpotID, ErrAlreadyParked)
	}

	now := f.clock.Now()
	ticket := &Ticket{
		ID:           f.ids.NextTicketID(plate, now),
		Plate:        plate,
		VehicleClass: vc,
		SpotID:       spot.ID,
		EntryTime:    now,
	}
	spot.Park(NewVehicle(plate, vc))
	f.tickets[plateKey(plate)] = ticket

	return *ticket, nil
}

// ComputeBill prices the plate's session as of now without changing any
// state.
func (f *Facility) ComputeBill(plate string) (Bill, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	ticket, ok := f.tickets[plateKey(plate)]
	if !ok {
		return Bill{}, fmt.Errorf("plate %q: %w", plate, ErrNoActiveTicket)
	}
	return f.billLocked(ticket)
}

func (f *Facility) billLocked(ticket *Ticket) (Bill, error) {
	spot, ok := f.spots[ticket.SpotID]
	if !ok || !spot.IsOccupied || !strings.EqualFold(spot.Occupant.Plate, ticket.Plate) {
		return Bill{}, fmt.Errorf("spot %s not held by ticket %s: %w", ticket.SpotID, ticket.ID, ErrSpotNotFound)
	}

	now := f.clock.Now()
	hours := billedHours(now.Sub(ticket.EntryTime))
	rate := f.hourlyRate(ticket.VehicleClass, spot.Class)
	fee := float64(hours) * rate
	overstay := f.overstay.FineFor(hours)
	outstanding := f.fines[plateKey(ticket.Plate)]
	fine := overstay + outstanding

	return Bill{
		Ticket:          *ticket,
		ExitTime:        now,
		Hours:           hours,
		HourlyRate:      rate,
		Fee:             fee,
		OverstayFine:    overstay,
		OutstandingFine: outstanding,
		Fine:            fine,
		Total:           fee + fine,
	}, nil
}

// hourlyRate applies the handicapped rule: exempt in a handicapped spot,
// the handicapped rate anywhere else.
func (f *Facility) hourlyRate(vc VehicleClass, sc SpotClass) float64 {
	if vc == HandicappedVehicle {
		if sc == Handicapped {
			return 0
		}
		return f.rates[Handicapped]
	}
	return f.rates[sc]
}

// Settle closes the plate's session and books amountPaid as revenue. Any
// ledgered fine for the plate is cleared whatever the amount. It reports
// false, with no change, when the plate has no active ticket.
func (f *Facility) Settle(plate string, amountPaid float64) (bool, error) {
	if !validAmount(amountPaid) {
		return false, fmt.Errorf("amount %v: %w", amountPaid, ErrInvalidInput)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	key := plateKey(plate)
	ticket, ok := f.tickets[key]
	if !ok {
		return false, nil
	}

	f.releaseLocked(ticket)
	f.revenue += amountPaid
	delete(f.fines, key)

	return true, nil
}

// Tow ends an unpaid session. The spot is freed and the bill total is
// carried in the ledger until the plate next settles.
func (f *Facility) Tow(plate string) (Bill, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := plateKey(plate)
	ticket, ok := f.tickets[key]
	if !ok {
		return Bill{}, fmt.Errorf("plate %q: %w", plate, ErrNoActiveTicket)
	}

	bill, err := f.billLocked(ticket)
	if err != nil {
		return Bill{}, err
	}

	f.releaseLocked(ticket)
	if bill.Total > 0 {
		f.fines[key] = bill.Total
	}

	return bill, nil
}

func (f *Facility) releaseLocked(ticket *Ticket) {
	if spot, ok := f.spots[ticket.SpotID]; ok {
		spot.Leave()
	}
	delete(f.tickets, plateKey(ticket.Plate))
}

// RecordFine adds an unpaid fine to the plate's ledger entry.
func (f *Facility) RecordFine(plate string, amount float64) error {
	if strings.TrimSpace(plate) == "" {
		return fmt.Errorf("plate is required: %w", ErrInvalidInput)
	}
	if !validAmount(amount) || amount == 0 {
		return fmt.Errorf("fine amount %v: %w", amount, ErrInvalidInput)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.fines[plateKey(plate)] += amount
	return nil
}

func (f *Facility) OutstandingFine(plate string) float64 {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.fines[plateKey(plate)]
}

func (f *Facility) SetFineScheme(scheme FineScheme) error {
	if !scheme.Valid() {
		return fmt.Errorf("fine scheme %v: %w", scheme, ErrInvalidInput)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.overstay.Scheme = scheme
	return nil
}

func (f *Facility) FineScheme() FineScheme {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.overstay.Scheme
}

func (f *Facility) TotalRevenue() float64 {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.revenue
}

func (f *Facility) ActiveOccupancyCount() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.tickets)
}

func (f *Facility) Capacity() int {
	// Membership never changes after construction.
	return len(f.spots)
}

func (f *Facility) FloorOccupancy() []FloorOccupancy {
	return f.Report().Floors
}

// Spots returns every spot in floor-then-index order.
func (f *Facility) Spots() []Spot {
	f.mu.RLock()
	defer f.mu.RUnlock()

	out := make([]Spot, 0, len(f.spots))
	for _, floor := range f.floors {
		for _, s := range floor.spots {
			out = append(out, s.snapshot())
		}
	}
	return out
}

func (f *Facility) LookupSpot(id string) (Spot, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	s, ok := f.spots[id]
	if !ok {
		return Spot{}, fmt.Errorf("spot %q: %w", id, ErrSpotNotFound)
	}
	return s.snapshot(), nil
}

// ActiveTickets returns the open sessions ordered by entry time.
func (f *Facility) ActiveTickets() []Ticket {
	f.mu.RLock()
	defer f.mu.RUnlock()

	out := make([]Ticket, 0, len(f.tickets))
	for _, t := range f.tickets {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].EntryTime.Equal(out[j].EntryTime) {
			return out[i].ID < out[j].ID
		}
		return out[i].EntryTime.Before(out[j].EntryTime)
	})
	return out
}

func plateKey(plate string) string {
	return strings.ToUpper(strings.TrimSpace(plate))
}

// Report is a consistent view of the facility's counters.
type Report struct {
	TotalRevenue     float64           `json:"total_revenue"`
	ActiveOccupancy  int               `json:"active_occupancy"`
	Capacity         int               `json:"capacity"`
	FineScheme       FineScheme        `json:"fine_scheme"`
	OutstandingFines float64           `json:"outstanding_fines"`
	Available        map[SpotClass]int `json:"available"`
	Floors           []FloorOccupancy  `json:"floors"`
}

func (f *Facility) Report() Report {
	f.mu.RLock()
	defer f.mu.RUnlock()

	r := Report{
		TotalRevenue:    f.revenue,
		ActiveOccupancy: len(f.tickets),
		Capacity:        len(f.spots),
		FineScheme:      f.overstay.Scheme,
		Available:       make(map[SpotClass]int, len(SpotClasses())),
		Floors:          make([]FloorOccupancy, 0, len(f.floors)),
	}
	for _, amount := range f.fines {
		r.OutstandingFines += amount
	}
	for _, class := range SpotClasses() {
		r.Available[class] = 0
	}
	for _, floor := range f.floors {
		for _, s := range floor.spots {
			if !s.IsOccupied {
				r.Available[s.Class]++
			}
		}
		r.Floors = append(r.Floors, FloorOccupancy{
			Floor:    floor.Number,
			Occupied: floor.OccupiedCount(),
			Total:    floor.Capacity(),
		})
	}
	return r
}
