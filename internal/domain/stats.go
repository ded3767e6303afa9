package domain

import (
	"fmt"
	"time"
)

// IngestStats holds statistics about an ingestion run.
type IngestStats struct {
	Fetched    int
	Duplicates int
	Blocked    int
	Added      int
	Errors     int
	Published  int
	Duration   time.Duration
}

func (s IngestStats) Message() string {
	return fmt.Sprintf("Crawl complete. Added: %d, Errors: %d", s.Added, s.Errors)
}

// DeliveryStats holds statistics about a delivery run.
type DeliveryStats struct {
	Unsent    int
	Digests   int
	Delivered int
	Duration  time.Duration
}

func (s DeliveryStats) Message() string {
	if s.Unsent == 0 {
		return "No unsent articles"
	}
	return fmt.Sprintf("Delivery complete. Sent: %d articles in %d digests", s.Delivered, s.Digests)
}

// RunState records the last completed run of a scheduled task.
type RunState struct {
	Task       string    `db:"task"`
	LastRunAt  time.Time `db:"last_run_at"`
	LastCount  int64     `db:"last_count"`
	TotalCount int64     `db:"total_count"`
}
