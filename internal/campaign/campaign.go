// Package campaign selects the campaigns that apply to a run.
package campaign

import (
	"time"

	"newsagent/internal/domain"
)

// Active returns the campaigns running on now's calendar day, in config order.
func Active(campaigns []domain.Campaign, now time.Time) []domain.Campaign {
	var active []domain.Campaign
	for _, c := range campaigns {
		if c.ActiveOn(now) {
			active = append(active, c)
		}
	}
	return active
}

// ByName indexes campaigns by name. Later duplicates are ignored.
func ByName(campaigns []domain.Campaign) map[string]domain.Campaign {
	out := make(map[string]domain.Campaign, len(campaigns))
	for _, c := range campaigns {
		if _, exists := out[c.Name]; !exists {
			out[c.Name] = c
		}
	}
	return out
}

// Recipient returns the campaign address, or fallback when none is set.
func Recipient(c domain.Campaign, fallback string) string {
	if c.NotifyAddress != "" {
		return c.NotifyAddress
	}
	return fallback
}
