package campaign

import (
	"testing"
	"time"

	"newsagent/internal/domain"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestActive(t *testing.T) {
	t.Parallel()

	campaigns := []domain.Campaign{
		{Name: "past", StartDate: day(2026, 9, 1), EndDate: day(2026, 9, 30)},
		{Name: "current", StartDate: day(2026, 10, 1), EndDate: day(2026, 10, 16)},
		{Name: "future", StartDate: day(2026, 10, 17), EndDate: day(2026, 10, 31)},
		{Name: "today-only", StartDate: day(2026, 10, 16), EndDate: day(2026, 10, 16)},
	}

	now := time.Date(2026, 10, 16, 21, 30, 0, 0, time.FixedZone("JST", 9*60*60))
	got := Active(campaigns, now)

	if len(got) != 2 {
		t.Fatalf("expected 2 active campaigns, got %d", len(got))
	}
	if got[0].Name != "current" || got[1].Name != "today-only" {
		t.Fatalf("unexpected active campaigns: %s, %s", got[0].Name, got[1].Name)
	}
}

func TestActive_UsesLocalCalendarDay(t *testing.T) {
	t.Parallel()

	campaigns := []domain.Campaign{
		{Name: "oct16", StartDate: day(2026, 10, 16), EndDate: day(2026, 10, 16)},
	}

	// 2026-10-15 16:00 UTC is already 2026-10-16 in Tokyo.
	utc := time.Date(2026, 10, 15, 16, 0, 0, 0, time.UTC)
	tokyo := utc.In(time.FixedZone("JST", 9*60*60))

	if len(Active(campaigns, utc)) != 0 {
		t.Fatalf("did not expect campaign to be active on the UTC day")
	}
	if len(Active(campaigns, tokyo)) != 1 {
		t.Fatalf("expected campaign to be active on the Tokyo day")
	}
}

func TestRecipient(t *testing.T) {
	t.Parallel()

	if got := Recipient(domain.Campaign{NotifyAddress: "c@example.com"}, "d@example.com"); got != "c@example.com" {
		t.Fatalf("unexpected recipient: %s", got)
	}
	if got := Recipient(domain.Campaign{}, "d@example.com"); got != "d@example.com" {
		t.Fatalf("unexpected fallback recipient: %s", got)
	}
}

func TestByName(t *testing.T) {
	t.Parallel()

	idx := ByName([]domain.Campaign{
		{Name: "a", NotifyAddress: "first"},
		{Name: "a", NotifyAddress: "second"},
		{Name: "b"},
	})
	if len(idx) != 2 || idx["a"].NotifyAddress != "first" {
		t.Fatalf("unexpected index: %+v", idx)
	}
}
