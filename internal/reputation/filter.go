// Package reputation derives per-domain trust from user ratings and blocks
// candidates from domains that have been rated consistently low.
package reputation

import (
	"net/url"
	"sort"
	"strings"

	"newsagent/internal/domain"
)

const (
	DefaultMinRatings = 2
	DefaultMinMean    = 2.0
)

// DomainStats is the aggregate feedback for one hostname.
type DomainStats struct {
	Domain  string  `json:"domain"`
	Sum     int     `json:"sum"`
	Count   int     `json:"count"`
	Mean    float64 `json:"mean"`
	Blocked bool    `json:"blocked"`
}

type Option func(*Filter)

// WithThreshold overrides the blocking rule: a domain is blocked once it has at
// least minRatings ratings and a mean strictly below minMean.
func WithThreshold(minRatings int, minMean float64) Option {
	return func(f *Filter) {
		if minRatings > 0 {
			f.minRatings = minRatings
		}
		if minMean > 0 {
			f.minMean = minMean
		}
	}
}

// Filter is an immutable snapshot of domain reputation.
type Filter struct {
	domains    map[string]*DomainStats
	minRatings int
	minMean    float64
}

func NewFilter(rated []domain.RatedURL, opts ...Option) *Filter {
	f := &Filter{
		domains:    make(map[string]*DomainStats),
		minRatings: DefaultMinRatings,
		minMean:    DefaultMinMean,
	}
	for _, opt := range opts {
		opt(f)
	}

	for _, r := range rated {
		if r.Rating <= 0 {
			continue
		}
		host, ok := Hostname(r.URL)
		if !ok {
			continue
		}
		st, exists := f.domains[host]
		if !exists {
			st = &DomainStats{Domain: host}
			f.domains[host] = st
		}
		st.Sum += r.Rating
		st.Count++
	}
	for _, st := range f.domains {
		st.Mean = float64(st.Sum) / float64(st.Count)
		st.Blocked = st.Count >= f.minRatings && st.Mean < f.minMean
	}

	return f
}

// IsBlocked reports whether candidates from rawURL's domain should be rejected.
// Unknown and malformed URLs are never blocked.
func (f *Filter) IsBlocked(rawURL string) bool {
	host, ok := Hostname(rawURL)
	if !ok {
		return false
	}
	st, exists := f.domains[host]
	if !exists {
		return false
	}
	return st.Blocked
}

// Stats returns the aggregate for a hostname.
func (f *Filter) Stats(host string) (DomainStats, bool) {
	st, ok := f.domains[strings.ToLower(host)]
	if !ok {
		return DomainStats{}, false
	}
	return *st, true
}

// Ranking lists domains by mean rating, highest first. Ties go to the domain
// with more ratings, then alphabetical.
func (f *Filter) Ranking() []DomainStats {
	out := make([]DomainStats, 0, len(f.domains))
	for _, st := range f.domains {
		out = append(out, *st)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Mean != out[j].Mean {
			return out[i].Mean > out[j].Mean
		}
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Domain < out[j].Domain
	})
	return out
}

// Hostname extracts the lowercased host of rawURL.
func Hostname(rawURL string) (string, bool) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", false
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return "", false
	}
	return host, true
}
