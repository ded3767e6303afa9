package service

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"

	"newsagent/internal/digest"
	"newsagent/internal/domain"
)

type ArticleStore interface {
	RecentURLs(ctx context.Context, limit int) ([]string, error)
	RecentRatings(ctx context.Context, limit int) ([]domain.RatedURL, error)
	InsertBatch(ctx context.Context, articles []domain.Article) ([]domain.Article, error)
	Unsent(ctx context.Context, limit int) ([]domain.Article, error)
	MarkSent(ctx context.Context, ids []int64) (int64, error)
	FindByURL(ctx context.Context, url string, lookback int) (*domain.Article, error)
	UpdateStatus(ctx context.Context, id int64, upd domain.StatusUpdate) error
	SetSummary(ctx context.Context, id int64, summary string) error
}

type RunStateStore interface {
	Get(ctx context.Context, task string) (*domain.RunState, error)
	Record(ctx context.Context, state *domain.RunState) error
}

type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type Fetcher interface {
	Fetch(ctx context.Context, q domain.FeedQuery) ([]domain.Candidate, error)
}

type Publisher interface {
	PublishArticle(ctx context.Context, article *domain.Article) error
}

type Mailer interface {
	Send(ctx context.Context, msg digest.Message) error
}

type AlertRouter interface {
	Route(ctx context.Context, alert domain.Alert) bool
}

type Summarizer interface {
	Summarize(ctx context.Context, title, content, language string) (string, error)
}

type Guard interface {
	Run(ctx context.Context, task string, fn func(ctx context.Context) error) error
}
