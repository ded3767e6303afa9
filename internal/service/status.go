package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"newsagent/internal/domain"
)

var ErrInvalidRating = errors.New("rating must be between 0 and 5")

// StatusService records user feedback and routes high ratings to alert channels.
type StatusService struct {
	articles ArticleStore
	router   AlertRouter
	lookback int
	logger   *slog.Logger
}

func NewStatusService(articles ArticleStore, router AlertRouter, lookback int, logger *slog.Logger) *StatusService {
	return &StatusService{
		articles: articles,
		router:   router,
		lookback: lookback,
		logger:   logger.With("component", "status"),
	}
}

// Update applies upd to the stored article with the same URL. Alert delivery
// never changes the result.
func (s *StatusService) Update(ctx context.Context, upd domain.StatusUpdate) (*domain.Article, error) {
	upd.URL = strings.TrimSpace(upd.URL)
	if upd.URL == "" {
		return nil, errors.New("url is required")
	}
	if upd.Rating != nil && (*upd.Rating < 0 || *upd.Rating > 5) {
		return nil, ErrInvalidRating
	}

	article, err := s.articles.FindByURL(ctx, upd.URL, s.lookback)
	if err != nil {
		return nil, fmt.Errorf("find article: %w", err)
	}

	if err := s.articles.UpdateStatus(ctx, article.ID, upd); err != nil {
		return nil, fmt.Errorf("update status: %w", err)
	}

	if upd.Rating != nil {
		article.Rating = *upd.Rating
	}
	if upd.Comment != nil {
		article.Comment = *upd.Comment
	}
	if upd.Read != nil {
		article.Read = *upd.Read
	}

	s.logger.Info("status updated",
		"id", article.ID,
		"rating", article.Rating,
		"read", article.Read,
	)

	if upd.Rating != nil && s.router != nil {
		s.router.Route(ctx, domain.Alert{
			URL:     article.URL,
			Title:   article.Title,
			Source:  article.Source,
			Rating:  article.Rating,
			Comment: article.Comment,
		})
	}

	return article, nil
}
