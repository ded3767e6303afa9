package reputation

import (
	"testing"

	"newsagent/internal/domain"
)

func rated(url string, ratings ...int) []domain.RatedURL {
	out := make([]domain.RatedURL, 0, len(ratings))
	for _, r := range ratings {
		out = append(out, domain.RatedURL{URL: url, Rating: r})
	}
	return out
}

func TestIsBlocked_Thresholds(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		ratings []int
		blocked bool
	}{
		{"two low ratings", []int{1, 1}, true},
		{"mean exactly two", []int{1, 3}, false},
		{"single rating", []int{1}, false},
		{"three ratings below two", []int{1, 2, 2}, true},
		{"high ratings", []int{5, 4}, false},
		{"unrated rows ignored", []int{0, 0, 1}, false},
	}

	for _, tc := range cases {
		f := NewFilter(rated("https://bad.example.com/a", tc.ratings...))
		if got := f.IsBlocked("https://bad.example.com/other"); got != tc.blocked {
			t.Fatalf("%s: expected blocked=%v, got %v", tc.name, tc.blocked, got)
		}
	}
}

func TestIsBlocked_AggregatesByHostname(t *testing.T) {
	t.Parallel()

	f := NewFilter([]domain.RatedURL{
		{URL: "https://Spam.example.com/a", Rating: 1},
		{URL: "https://spam.example.com/b?x=1", Rating: 1},
		{URL: "https://good.example.com/a", Rating: 1},
	})

	if !f.IsBlocked("https://spam.example.com/c") {
		t.Fatalf("expected spam.example.com to be blocked")
	}
	if f.IsBlocked("https://good.example.com/b") {
		t.Fatalf("did not expect good.example.com to be blocked")
	}
	if f.IsBlocked("https://unknown.example.com/") {
		t.Fatalf("did not expect unknown domain to be blocked")
	}
}

func TestIsBlocked_MalformedURLFailsOpen(t *testing.T) {
	t.Parallel()

	f := NewFilter([]domain.RatedURL{
		{URL: "::not a url", Rating: 1},
		{URL: "::not a url", Rating: 1},
	})

	if f.IsBlocked("::not a url") {
		t.Fatalf("malformed urls must never be blocked")
	}
	if f.IsBlocked("") {
		t.Fatalf("empty url must never be blocked")
	}
	if len(f.Ranking()) != 0 {
		t.Fatalf("malformed urls must not produce domain stats")
	}
}

func TestWithThreshold(t *testing.T) {
	t.Parallel()

	f := NewFilter(rated("https://meh.example.com/a", 3, 3, 3), WithThreshold(3, 3.5))
	if !f.IsBlocked("https://meh.example.com/b") {
		t.Fatalf("expected custom threshold to block")
	}
}

func TestRanking(t *testing.T) {
	t.Parallel()

	var in []domain.RatedURL
	in = append(in, rated("https://a.example.com/1", 5, 2)...)
	in = append(in, rated("https://b.example.com/1", 5)...)
	in = append(in, rated("https://c.example.com/1", 4, 4)...)
	in = append(in, rated("https://d.example.com/1", 1, 2)...)

	got := NewFilter(in).Ranking()
	want := []string{"b.example.com", "c.example.com", "a.example.com", "d.example.com"}

	if len(got) != len(want) {
		t.Fatalf("unexpected ranking size: got %d want %d", len(got), len(want))
	}
	for i := range want {
		if got[i].Domain != want[i] {
			t.Fatalf("unexpected domain at %d: got %s want %s", i, got[i].Domain, want[i])
		}
	}

	st, ok := NewFilter(in).Stats("A.example.com")
	if !ok || st.Sum != 7 || st.Count != 2 || st.Mean != 3.5 {
		t.Fatalf("unexpected stats for a.example.com: %+v", st)
	}
}

func TestRanking_MarksBlockedDomains(t *testing.T) {
	t.Parallel()

	var in []domain.RatedURL
	in = append(in, rated("https://spam.example.com/1", 1, 2)...)
	in = append(in, rated("https://good.example.com/1", 5)...)

	for _, st := range NewFilter(in).Ranking() {
		want := st.Domain == "spam.example.com"
		if st.Blocked != want {
			t.Fatalf("unexpected blocked flag for %s: got %v want %v", st.Domain, st.Blocked, want)
		}
	}
}
