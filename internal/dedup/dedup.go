// Package dedup decides whether a candidate URL has already been ingested.
//
// A Cache queries an ordered list of tiers. The in-process MemoryTier is
// authoritative within a run; shared tiers such as RedisTier extend the
// lookback across runs until their entries expire.
package dedup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// ErrCacheUnavailable marks a tier failure. It is logged, never returned.
var ErrCacheUnavailable = errors.New("cache unavailable")

// Tier is one level of the dedup cache.
type Tier interface {
	Name() string
	Lookup(ctx context.Context, url string) (bool, error)
	Insert(ctx context.Context, url string) error
}

// Cache checks tiers in order. A tier that fails is disabled for the lifetime
// of the Cache, which is one pipeline run.
type Cache struct {
	mu       sync.Mutex
	tiers    []Tier
	disabled map[string]bool
	logger   *slog.Logger
}

func New(logger *slog.Logger, tiers ...Tier) *Cache {
	live := make([]Tier, 0, len(tiers))
	for _, t := range tiers {
		if t != nil {
			live = append(live, t)
		}
	}
	return &Cache{
		tiers:    live,
		disabled: make(map[string]bool),
		logger:   logger.With("component", "dedup"),
	}
}

// Exists reports whether url was seen by any live tier.
func (c *Cache) Exists(ctx context.Context, url string) bool {
	for _, t := range c.liveTiers() {
		found, err := t.Lookup(ctx, url)
		if err != nil {
			c.disable(t, err)
			continue
		}
		if found {
			return true
		}
	}
	return false
}

// Add records url in every live tier.
func (c *Cache) Add(ctx context.Context, url string) {
	for _, t := range c.liveTiers() {
		if err := t.Insert(ctx, url); err != nil {
			c.disable(t, err)
		}
	}
}

func (c *Cache) liveTiers() []Tier {
	c.mu.Lock()
	defer c.mu.Unlock()

	live := make([]Tier, 0, len(c.tiers))
	for _, t := range c.tiers {
		if !c.disabled[t.Name()] {
			live = append(live, t)
		}
	}
	return live
}

func (c *Cache) disable(t Tier, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.disabled[t.Name()] {
		return
	}
	c.disabled[t.Name()] = true
	c.logger.Warn("dedup tier disabled for this run",
		"tier", t.Name(),
		"error", fmt.Errorf("%w: %w", ErrCacheUnavailable, err),
	)
}
