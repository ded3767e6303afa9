package domain

import "time"

// Campaign adds a tagged keyword set for a bounded date range.
// StartDate and EndDate are civil dates stored as UTC midnight.
type Campaign struct {
	Name          string
	Keywords      []string
	StartDate     time.Time
	EndDate       time.Time
	NotifyAddress string
}

// ActiveOn reports whether t falls within [StartDate, EndDate], compared by calendar day
// in t's location.
func (c Campaign) ActiveOn(t time.Time) bool {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return !day.Before(c.StartDate) && !day.After(c.EndDate)
}
