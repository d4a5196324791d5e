package parking

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

type Ticket struct {
	ID           string       `json:"ticket_id"`
	Plate        string       `json:"plate"`
	VehicleClass VehicleClass `json:"vehicle_class"`
	SpotID       string       `json:"spot_id"`
	EntryTime    time.Time    `json:"entry_time"`
}

type Clock interface {
	Now() time.Time
}

type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// TicketIDGenerator produces ticket identifiers. Implementations must never
// return the same id twice for the lifetime of a facility.
type TicketIDGenerator interface {
	NextTicketID(plate string, at time.Time) string
}

type TicketIDFunc func(plate string, at time.Time) string

func (f TicketIDFunc) NextTicketID(plate string, at time.Time) string { return f(plate, at) }

// TimestampTicketIDs formats ids as T-<PLATE>-<unix millis>. The
// millisecond component is bumped past the last issued value so that two
// tickets issued within the same millisecond stay distinct.
type TimestampTicketIDs struct {
	mu   sync.Mutex
	last int64
}

func NewTimestampTicketIDs() *TimestampTicketIDs {
	return &TimestampTicketIDs{}
}

func (g *TimestampTicketIDs) NextTicketID(plate string, at time.Time) string {
	g.mu.Lock()
	defer g.mu.Unlock()

	ms := at.UnixMilli()
	if ms <= g.last {
		ms = g.last + 1
	}
	g.last = ms
	return fmt.Sprintf("T-%s-%d", strings.ToUpper(plate), ms)
}
