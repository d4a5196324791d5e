package parking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTimestampTicketIDs(t *testing.T) {
	g := NewTimestampTicketIDs()
	at := time.UnixMilli(1772352000000)

	first := g.NextTicketID("wxy1234", at)
	second := g.NextTicketID("WXY1234", at)
	earlier := g.NextTicketID("ABC", at.Add(-time.Second))
	later := g.NextTicketID("ABC", at.Add(time.Second))

	assert.Equal(t, "T-WXY1234-1772352000000", first)
	assert.Equal(t, "T-WXY1234-1772352000001", second)
	assert.Equal(t, "T-ABC-1772352000002", earlier)
	assert.Equal(t, "T-ABC-1772352001000", later)
}

func TestBilledHours(t *testing.T) {
	assert.Equal(t, 1, billedHours(-time.Hour))
	assert.Equal(t, 1, billedHours(0))
	assert.Equal(t, 1, billedHours(59*time.Second))
	assert.Equal(t, 1, billedHours(time.Hour))
	assert.Equal(t, 2, billedHours(61*time.Minute))
	assert.Equal(t, 3, billedHours(130*time.Minute))
	assert.Equal(t, 24, billedHours(24*time.Hour))
	assert.Equal(t, 25, billedHours(24*time.Hour+time.Minute))
}
