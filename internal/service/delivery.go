package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"newsagent/internal/campaign"
	"newsagent/internal/digest"
	"newsagent/internal/domain"
	"newsagent/internal/notify"
)

type DeliveryConfig struct {
	ItemsPerGroup int
	Recipient     string
	MaxUnsent     int
	Campaigns     []domain.Campaign
	Location      *time.Location
}

type DeliveryService struct {
	articles ArticleStore
	mailer   Mailer
	logger   *slog.Logger
	config   DeliveryConfig
	now      func() time.Time
}

func NewDeliveryService(articles ArticleStore, mailer Mailer, logger *slog.Logger, cfg DeliveryConfig) *DeliveryService {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &DeliveryService{
		articles: articles,
		mailer:   mailer,
		logger:   logger.With("component", "delivery"),
		config:   cfg,
		now:      time.Now,
	}
}

// Deliver sends campaign digests first, then the default digest. Each digest is
// marked sent right after its own send succeeds; a failed send stops the run
// and leaves earlier digests marked.
func (s *DeliveryService) Deliver(ctx context.Context) (*domain.DeliveryStats, error) {
	startTime := s.now()

	unsent, err := s.articles.Unsent(ctx, s.config.MaxUnsent)
	if err != nil {
		return nil, fmt.Errorf("load unsent articles: %w", err)
	}

	stats := &domain.DeliveryStats{Unsent: len(unsent)}
	if len(unsent) == 0 {
		s.logger.Info("no unsent articles")
		return stats, nil
	}

	active := campaign.Active(s.config.Campaigns, startTime.In(s.config.Location))
	plan := digest.Split(unsent, active, s.config.ItemsPerGroup, s.config.Recipient)

	digests := append([]digest.Digest{}, plan.Campaigns...)
	if plan.Default.Len() > 0 {
		digests = append(digests, plan.Default)
	}

	for _, d := range digests {
		n, err := s.send(ctx, d, startTime)
		if err != nil {
			stats.Duration = s.now().Sub(startTime)
			return stats, err
		}
		stats.Digests++
		stats.Delivered += n
	}

	stats.Duration = s.now().Sub(startTime)

	s.logger.Info("delivery completed",
		"unsent", stats.Unsent,
		"digests", stats.Digests,
		"delivered", stats.Delivered,
		"duration", stats.Duration,
	)

	return stats, nil
}

func (s *DeliveryService) send(ctx context.Context, d digest.Digest, now time.Time) (int, error) {
	msg, err := digest.Render(d, now, s.config.Location)
	if err != nil {
		return 0, err
	}

	if err := s.mailer.Send(ctx, msg); err != nil {
		s.logger.Error("digest delivery failed",
			"campaign", d.Campaign,
			"recipient", msg.To,
			"error", err,
		)
		var deliveryErr *notify.DeliveryError
		if !errors.As(err, &deliveryErr) {
			err = &notify.DeliveryError{Recipient: msg.To, Err: err}
		}
		return 0, err
	}

	marked, err := s.articles.MarkSent(ctx, d.IDs())
	if err != nil {
		return 0, fmt.Errorf("mark sent: %w", err)
	}

	s.logger.Info("digest sent",
		"campaign", d.Campaign,
		"recipient", msg.To,
		"items", d.Len(),
		"marked", marked,
	)

	return d.Len(), nil
}
