package parking

import "time"

// Bill is the charge for ending a session, computed at ExitTime. It is a
// value; nothing in the facility changes when one is produced.
type Bill struct {
	Ticket          Ticket    `json:"ticket"`
	ExitTime        time.Time `json:"exit_time"`
	Hours           int       `json:"hours"`
	HourlyRate      float64   `json:"hourly_rate"`
	Fee             float64   `json:"fee"`
	OverstayFine    float64   `json:"overstay_fine"`
	OutstandingFine float64   `json:"outstanding_fine"`
	Fine            float64   `json:"fine"`
	Total           float64   `json:"total"`
}

// billedHours rounds elapsed whole minutes up to the hour, charging at
// least one hour.
func billedHours(elapsed time.Duration) int {
	minutes := int64(elapsed / time.Minute)
	hours := (minutes + 59) / 60
	if hours < 1 {
		return 1
	}
	return int(hours)
}
