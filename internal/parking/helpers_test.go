package parking

import (
	"fmt"
	"time"
)

var baseTime = time.Date(2026, time.March, 1, 8, 0, 0, 0, time.UTC)

type fakeClock struct {
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: baseTime}
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func sequentialIDs() TicketIDFunc {
	n := 0
	return func(plate string, _ time.Time) string {
		n++
		return fmt.Sprintf("T-%s-%d", plate, n)
	}
}

func newTestFacility(clock *fakeClock) *Facility {
	return newTestFacilityWithConfig(DefaultConfig(), clock)
}

func newTestFacilityWithConfig(cfg Config, clock *fakeClock) *Facility {
	f, err := NewFacility(cfg, WithClock(clock), WithTicketIDs(sequentialIDs()))
	if err != nil {
		panic(err)
	}
	return f
}
