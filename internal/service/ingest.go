package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"newsagent/internal/campaign"
	"newsagent/internal/dedup"
	"newsagent/internal/domain"
	"newsagent/internal/reputation"
	"newsagent/internal/source/googlenews"
)

// storeTimeout bounds the final batch write of a run whose context was cancelled.
const storeTimeout = 30 * time.Second

type IngestConfig struct {
	Keywords           []string
	Regions            []string
	Language           string
	Campaigns          []domain.Campaign
	Location           *time.Location
	DedupLookback      int
	ReputationLookback int
	MinRatings         int
	MinMean            float64
	PacingDelay        time.Duration
}

type IngestService struct {
	fetcher    Fetcher
	articles   ArticleStore
	txManager  TransactionManager
	publisher  Publisher
	sharedTier dedup.Tier
	logger     *slog.Logger
	config     IngestConfig
	now        func() time.Time
}

// NewIngestService wires the pipeline. publisher and sharedTier are optional.
func NewIngestService(
	fetcher Fetcher,
	articles ArticleStore,
	txManager TransactionManager,
	publisher Publisher,
	sharedTier dedup.Tier,
	logger *slog.Logger,
	cfg IngestConfig,
) *IngestService {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &IngestService{
		fetcher:    fetcher,
		articles:   articles,
		txManager:  txManager,
		publisher:  publisher,
		sharedTier: sharedTier,
		logger:     logger.With("component", "ingest"),
		config:     cfg,
		now:        time.Now,
	}
}

type feedJob struct {
	query domain.FeedQuery
	tag   string
}

// Run fetches every keyword/region combination, filters the candidates and
// stores the survivors in a single batch. If ctx is cancelled mid-run, the
// remaining combinations are skipped, the articles collected so far are still
// stored, and the cancellation is returned with the stats.
func (s *IngestService) Run(ctx context.Context) (*domain.IngestStats, error) {
	startTime := s.now()
	today := startTime.In(s.config.Location)

	seed, err := s.articles.RecentURLs(ctx, s.config.DedupLookback)
	if err != nil {
		return nil, fmt.Errorf("load recent urls: %w", err)
	}
	rated, err := s.articles.RecentRatings(ctx, s.config.ReputationLookback)
	if err != nil {
		return nil, fmt.Errorf("load ratings: %w", err)
	}

	cache := dedup.New(s.logger, dedup.NewMemoryTier(seed), s.sharedTier)
	filter := reputation.NewFilter(rated, reputation.WithThreshold(s.config.MinRatings, s.config.MinMean))
	active := campaign.Active(s.config.Campaigns, today)
	jobs := s.plan(active)

	s.logger.Info("starting crawl",
		"combinations", len(jobs),
		"active_campaigns", len(active),
		"seeded_urls", len(seed),
	)

	stats := &domain.IngestStats{}
	var batch []domain.Article

	completed := 0
	for i, job := range jobs {
		if i > 0 && s.config.PacingDelay > 0 {
			select {
			case <-ctx.Done():
			case <-time.After(s.config.PacingDelay):
			}
		}
		if ctx.Err() != nil {
			break
		}

		candidates, err := s.fetcher.Fetch(ctx, job.query)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			completed++
			var parseErr *googlenews.ParseError
			if errors.As(err, &parseErr) {
				s.logger.Warn("malformed feed, treating as empty",
					"keyword", job.query.Keyword,
					"region", job.query.Region,
					"error", err,
				)
				continue
			}
			stats.Errors++
			s.logger.Warn("fetch failed",
				"keyword", job.query.Keyword,
				"region", job.query.Region,
				"error", err,
			)
			continue
		}

		completed++
		stats.Fetched += len(candidates)
		for _, c := range candidates {
			if cache.Exists(ctx, c.URL) {
				stats.Duplicates++
				continue
			}
			if filter.IsBlocked(c.URL) {
				stats.Blocked++
				s.logger.Debug("blocked by reputation", "url", c.URL)
				continue
			}
			batch = append(batch, domain.Article{
				URL:         c.URL,
				Title:       c.Title,
				Source:      c.Source,
				Description: c.Description,
				PublishedAt: c.PublishedAt,
				Keyword:     job.query.Keyword,
				CampaignTag: job.tag,
			})
			cache.Add(ctx, c.URL)
		}
	}

	storeCtx := ctx
	interrupted := ctx.Err()
	if interrupted != nil {
		s.logger.Warn("crawl interrupted, storing collected articles",
			"completed", completed,
			"combinations", len(jobs),
			"collected", len(batch),
			"error", interrupted,
		)
		var cancel context.CancelFunc
		storeCtx, cancel = context.WithTimeout(context.WithoutCancel(ctx), storeTimeout)
		defer cancel()
	}

	var inserted []domain.Article
	if len(batch) > 0 {
		err = s.txManager.WithTransaction(storeCtx, func(txCtx context.Context) error {
			rows, err := s.articles.InsertBatch(txCtx, batch)
			if err != nil {
				return fmt.Errorf("insert batch: %w", err)
			}
			inserted = rows
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	stats.Added = len(inserted)

	if s.publisher != nil {
		for i := range inserted {
			if err := s.publisher.PublishArticle(storeCtx, &inserted[i]); err != nil {
				s.logger.Warn("publish failed", "url", inserted[i].URL, "error", err)
				continue
			}
			stats.Published++
		}
	}

	stats.Duration = s.now().Sub(startTime)

	s.logger.Info("crawl completed",
		"fetched", stats.Fetched,
		"duplicates", stats.Duplicates,
		"blocked", stats.Blocked,
		"added", stats.Added,
		"errors", stats.Errors,
		"published", stats.Published,
		"duration", stats.Duration,
	)

	if interrupted != nil {
		return stats, fmt.Errorf("crawl interrupted after %d of %d combinations: %w", completed, len(jobs), interrupted)
	}
	return stats, nil
}

// plan lists normal keywords first, then the keywords of each active campaign.
func (s *IngestService) plan(active []domain.Campaign) []feedJob {
	var jobs []feedJob
	add := func(keyword, tag string) {
		for _, region := range s.config.Regions {
			jobs = append(jobs, feedJob{
				query: domain.FeedQuery{Keyword: keyword, Region: region, Language: s.config.Language},
				tag:   tag,
			})
		}
	}

	for _, kw := range s.config.Keywords {
		add(kw, "")
	}
	for _, c := range active {
		for _, kw := range c.Keywords {
			add(kw, c.Name)
		}
	}
	return jobs
}
