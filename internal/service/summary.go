package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"newsagent/internal/domain"
)

var ErrSummaryDisabled = errors.New("summaries are not configured")

type SummaryService struct {
	articles   ArticleStore
	summarizer Summarizer
	language   string
	lookback   int
	logger     *slog.Logger
}

// NewSummaryService returns a service that reports ErrSummaryDisabled when summarizer is nil.
func NewSummaryService(articles ArticleStore, summarizer Summarizer, language string, lookback int, logger *slog.Logger) *SummaryService {
	return &SummaryService{
		articles:   articles,
		summarizer: summarizer,
		language:   language,
		lookback:   lookback,
		logger:     logger.With("component", "summary"),
	}
}

func (s *SummaryService) Enabled() bool {
	return s.summarizer != nil
}

func (s *SummaryService) Summarize(ctx context.Context, url string) (*domain.Article, error) {
	if !s.Enabled() {
		return nil, ErrSummaryDisabled
	}

	article, err := s.articles.FindByURL(ctx, strings.TrimSpace(url), s.lookback)
	if err != nil {
		return nil, fmt.Errorf("find article: %w", err)
	}

	content := article.Description
	if content == "" {
		content = article.Title
	}

	text, err := s.summarizer.Summarize(ctx, article.Title, content, s.language)
	if err != nil {
		return nil, fmt.Errorf("summarize: %w", err)
	}

	if err := s.articles.SetSummary(ctx, article.ID, text); err != nil {
		return nil, fmt.Errorf("save summary: %w", err)
	}
	article.Summary = &text

	s.logger.Info("summary stored", "id", article.ID, "length", len(text))
	return article, nil
}
