package service

import (
	"context"
	"fmt"

	"newsagent/internal/reputation"
)

// ReputationService reports per-domain feedback over the recent lookback.
type ReputationService struct {
	articles   ArticleStore
	lookback   int
	minRatings int
	minMean    float64
}

func NewReputationService(articles ArticleStore, lookback, minRatings int, minMean float64) *ReputationService {
	return &ReputationService{
		articles:   articles,
		lookback:   lookback,
		minRatings: minRatings,
		minMean:    minMean,
	}
}

// Ranking returns at most top domains, best rated first. top <= 0 returns all.
func (s *ReputationService) Ranking(ctx context.Context, top int) ([]reputation.DomainStats, error) {
	rated, err := s.articles.RecentRatings(ctx, s.lookback)
	if err != nil {
		return nil, fmt.Errorf("load ratings: %w", err)
	}

	ranking := reputation.NewFilter(rated, reputation.WithThreshold(s.minRatings, s.minMean)).Ranking()
	if top > 0 && len(ranking) > top {
		ranking = ranking[:top]
	}
	return ranking, nil
}
