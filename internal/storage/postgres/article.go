package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"newsagent/internal/domain"
)

const insertChunkSize = 500

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

var articleColumns = []string{
	"id", "url", "title", "source", "description", "published_at", "keyword",
	"campaign_tag", "sent", "rating", "comment", "is_read", "summary", "created_at",
}

type ArticleStore struct {
	db *sqlx.DB
}

func NewArticleStore(db *sqlx.DB) *ArticleStore {
	return &ArticleStore{db: db}
}

// RecentURLs returns the urls of the most recently stored articles.
func (s *ArticleStore) RecentURLs(ctx context.Context, limit int) ([]string, error) {
	var urls []string
	err := sqlx.SelectContext(ctx, GetExecutor(ctx, s.db), &urls,
		`SELECT url FROM articles ORDER BY id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	return urls, nil
}

// RecentRatings returns rated articles among the most recent limit rows.
func (s *ArticleStore) RecentRatings(ctx context.Context, limit int) ([]domain.RatedURL, error) {
	query := `
		SELECT url, rating FROM (
			SELECT url, rating FROM articles ORDER BY id DESC LIMIT $1
		) recent
		WHERE rating > 0`

	var rated []domain.RatedURL
	if err := sqlx.SelectContext(ctx, GetExecutor(ctx, s.db), &rated, query, limit); err != nil {
		return nil, err
	}
	return rated, nil
}

// InsertBatch stores articles, skipping any url that already exists. It returns
// the rows that were actually inserted, with ID and CreatedAt set.
func (s *ArticleStore) InsertBatch(ctx context.Context, articles []domain.Article) ([]domain.Article, error) {
	var inserted []domain.Article

	for start := 0; start < len(articles); start += insertChunkSize {
		end := min(start+insertChunkSize, len(articles))
		rows, err := s.insertChunk(ctx, articles[start:end])
		if err != nil {
			return inserted, err
		}
		inserted = append(inserted, rows...)
	}

	return inserted, nil
}

func (s *ArticleStore) insertChunk(ctx context.Context, chunk []domain.Article) ([]domain.Article, error) {
	q := psql.Insert("articles").
		Columns("url", "title", "source", "description", "published_at", "keyword", "campaign_tag")
	for _, a := range chunk {
		q = q.Values(a.URL, a.Title, a.Source, a.Description, a.PublishedAt, a.Keyword, a.CampaignTag)
	}
	query, args, err := q.Suffix("ON CONFLICT (url) DO NOTHING RETURNING id, url, created_at").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build insert: %w", err)
	}

	rows, err := GetExecutor(ctx, s.db).QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	type insertedRow struct {
		ID        int64     `db:"id"`
		URL       string    `db:"url"`
		CreatedAt time.Time `db:"created_at"`
	}
	byURL := make(map[string]insertedRow)
	for rows.Next() {
		var r insertedRow
		if err := rows.StructScan(&r); err != nil {
			return nil, err
		}
		byURL[r.URL] = r
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]domain.Article, 0, len(byURL))
	for _, a := range chunk {
		r, ok := byURL[a.URL]
		if !ok {
			continue
		}
		delete(byURL, a.URL)
		a.ID = r.ID
		a.CreatedAt = r.CreatedAt
		out = append(out, a)
	}
	return out, nil
}

// Unsent returns up to limit undelivered articles, oldest first.
func (s *ArticleStore) Unsent(ctx context.Context, limit int) ([]domain.Article, error) {
	query, args, err := psql.Select(articleColumns...).
		From("articles").
		Where(sq.Eq{"sent": false}).
		OrderBy("id ASC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	var articles []domain.Article
	if err := sqlx.SelectContext(ctx, GetExecutor(ctx, s.db), &articles, query, args...); err != nil {
		return nil, err
	}
	return articles, nil
}

// MarkSent flags the given articles as delivered. Already-sent rows are left alone.
func (s *ArticleStore) MarkSent(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	res, err := GetExecutor(ctx, s.db).ExecContext(ctx,
		`UPDATE articles SET sent = TRUE, updated_at = NOW() WHERE id = ANY($1) AND sent = FALSE`,
		pq.Array(ids),
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// FindByURL looks the url up among the most recent lookback rows.
func (s *ArticleStore) FindByURL(ctx context.Context, url string, lookback int) (*domain.Article, error) {
	recent := psql.Select(articleColumns...).
		From("articles").
		OrderBy("id DESC").
		Limit(uint64(lookback))

	query, args, err := psql.Select(articleColumns...).
		FromSelect(recent, "recent").
		Where(sq.Eq{"url": url}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	var a domain.Article
	if err := sqlx.GetContext(ctx, GetExecutor(ctx, s.db), &a, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

// UpdateStatus applies the non-nil feedback fields of upd to article id.
func (s *ArticleStore) UpdateStatus(ctx context.Context, id int64, upd domain.StatusUpdate) error {
	set := sq.Eq{}
	if upd.Rating != nil {
		set["rating"] = *upd.Rating
	}
	if upd.Comment != nil {
		set["comment"] = *upd.Comment
	}
	if upd.Read != nil {
		set["is_read"] = *upd.Read
	}
	if len(set) == 0 {
		return nil
	}

	query, args, err := psql.Update("articles").
		SetMap(set).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	return s.execOne(ctx, query, args...)
}

func (s *ArticleStore) SetSummary(ctx context.Context, id int64, summary string) error {
	return s.execOne(ctx,
		`UPDATE articles SET summary = $1, updated_at = NOW() WHERE id = $2`,
		summary, id,
	)
}

func (s *ArticleStore) execOne(ctx context.Context, query string, args ...any) error {
	res, err := GetExecutor(ctx, s.db).ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
