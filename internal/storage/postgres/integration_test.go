//go:build integration

package postgres

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"newsagent/internal/domain"
	"newsagent/testdata/utils"
)

type PostgresIntegrationSuite struct {
	suite.Suite
	ctx       context.Context
	container *postgres.PostgresContainer
	db        *sqlx.DB
}

func (s *PostgresIntegrationSuite) SetupSuite() {
	s.ctx = context.Background()

	migrationsPath, err := filepath.Abs("../../../migrations")
	s.Require().NoError(err)

	container, err := postgres.Run(s.ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("test_db"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		postgres.WithInitScripts(
			filepath.Join(migrationsPath, "001_create_articles.up.sql"),
			filepath.Join(migrationsPath, "002_create_run_state.up.sql"),
		),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	s.Require().NoError(err)
	s.container = container

	connStr, err := container.ConnectionString(s.ctx, "sslmode=disable")
	s.Require().NoError(err)

	db, err := sqlx.Connect("postgres", connStr)
	s.Require().NoError(err)
	s.db = db
}

func (s *PostgresIntegrationSuite) TearDownSuite() {
	if s.db != nil {
		s.db.Close()
	}
	if s.container != nil {
		_ = s.container.Terminate(s.ctx)
	}
}

func (s *PostgresIntegrationSuite) SetupTest() {
	_, _ = s.db.ExecContext(s.ctx, "DELETE FROM articles")
	_, _ = s.db.ExecContext(s.ctx, "DELETE FROM run_state")
}

func TestPostgresIntegrationSuite(t *testing.T) {
	suite.Run(t, new(PostgresIntegrationSuite))
}

func newArticle(url, keyword string) domain.Article {
	return domain.Article{
		URL:         url,
		Title:       "Title " + url,
		Source:      "Example",
		Description: "desc",
		PublishedAt: time.Now().Add(-time.Hour).Truncate(time.Microsecond),
		Keyword:     keyword,
	}
}

func (s *PostgresIntegrationSuite) insert(articles ...domain.Article) []domain.Article {
	inserted, err := NewArticleStore(s.db).InsertBatch(s.ctx, articles)
	s.Require().NoError(err)
	return inserted
}

func (s *PostgresIntegrationSuite) TestInsertBatch_SkipsExistingURLs() {
	store := NewArticleStore(s.db)

	first, err := store.InsertBatch(s.ctx, []domain.Article{
		newArticle("https://a.example.com/1", "AI"),
		newArticle("https://a.example.com/2", "AI"),
	})
	s.NoError(err)
	s.Len(first, 2)
	s.Greater(first[0].ID, int64(0))
	s.False(first[0].CreatedAt.IsZero())

	second, err := store.InsertBatch(s.ctx, []domain.Article{
		newArticle("https://a.example.com/2", "AI"),
		newArticle("https://a.example.com/3", "AI"),
		newArticle("https://a.example.com/3", "AI"),
	})
	s.NoError(err)
	s.Len(second, 1)
	s.Equal("https://a.example.com/3", second[0].URL)

	var count int
	s.NoError(s.db.GetContext(s.ctx, &count, "SELECT COUNT(*) FROM articles"))
	s.Equal(3, count)
}

func (s *PostgresIntegrationSuite) TestInsertBatch_LargeBatchIsChunked() {
	var articles []domain.Article
	for i := 0; i < insertChunkSize+10; i++ {
		articles = append(articles, newArticle(fmt.Sprintf("https://bulk.example.com/%d", i), "bulk"))
	}

	inserted := s.insert(articles...)
	s.Len(inserted, insertChunkSize+10)
}

func (s *PostgresIntegrationSuite) TestInsertBatch_InsideTransaction() {
	store := NewArticleStore(s.db)
	tm := NewTransactionManager(s.db)

	err := tm.WithTransaction(s.ctx, func(txCtx context.Context) error {
		_, err := store.InsertBatch(txCtx, []domain.Article{newArticle("https://tx.example.com/1", "AI")})
		s.Require().NoError(err)
		return fmt.Errorf("rollback")
	})
	s.Error(err)

	urls, err := store.RecentURLs(s.ctx, 10)
	s.NoError(err)
	s.Empty(urls)
}

func (s *PostgresIntegrationSuite) TestRecentURLs_Bounded() {
	s.insert(
		newArticle("https://a.example.com/1", "AI"),
		newArticle("https://a.example.com/2", "AI"),
		newArticle("https://a.example.com/3", "AI"),
	)

	urls, err := NewArticleStore(s.db).RecentURLs(s.ctx, 2)
	s.NoError(err)
	s.Equal([]string{"https://a.example.com/3", "https://a.example.com/2"}, urls)
}

func (s *PostgresIntegrationSuite) TestRecentRatings_OnlyRatedWithinLookback() {
	store := NewArticleStore(s.db)
	inserted := s.insert(
		newArticle("https://old.example.com/1", "AI"),
		newArticle("https://a.example.com/1", "AI"),
		newArticle("https://a.example.com/2", "AI"),
		newArticle("https://a.example.com/3", "AI"),
	)
	s.NoError(store.UpdateStatus(s.ctx, inserted[0].ID, domain.StatusUpdate{Rating: utils.Ptr(1)}))
	s.NoError(store.UpdateStatus(s.ctx, inserted[1].ID, domain.StatusUpdate{Rating: utils.Ptr(2)}))
	s.NoError(store.UpdateStatus(s.ctx, inserted[3].ID, domain.StatusUpdate{Rating: utils.Ptr(5)}))

	rated, err := store.RecentRatings(s.ctx, 3)
	s.NoError(err)
	s.ElementsMatch([]domain.RatedURL{
		{URL: "https://a.example.com/1", Rating: 2},
		{URL: "https://a.example.com/3", Rating: 5},
	}, rated)
}

func (s *PostgresIntegrationSuite) TestUnsentAndMarkSent() {
	store := NewArticleStore(s.db)
	inserted := s.insert(
		newArticle("https://a.example.com/1", "A"),
		newArticle("https://a.example.com/2", "A"),
		newArticle("https://a.example.com/3", "B"),
	)

	unsent, err := store.Unsent(s.ctx, 10)
	s.NoError(err)
	s.Len(unsent, 3)
	s.Equal(inserted[0].ID, unsent[0].ID)
	s.Equal("A", unsent[0].Keyword)

	n, err := store.MarkSent(s.ctx, []int64{inserted[0].ID, inserted[2].ID})
	s.NoError(err)
	s.Equal(int64(2), n)

	n, err = store.MarkSent(s.ctx, []int64{inserted[0].ID})
	s.NoError(err)
	s.Equal(int64(0), n)

	unsent, err = store.Unsent(s.ctx, 10)
	s.NoError(err)
	s.Len(unsent, 1)
	s.Equal(inserted[1].ID, unsent[0].ID)
}

func (s *PostgresIntegrationSuite) TestFindByURL_WithinLookback() {
	store := NewArticleStore(s.db)
	s.insert(
		newArticle("https://a.example.com/1", "AI"),
		newArticle("https://a.example.com/2", "AI"),
		newArticle("https://a.example.com/3", "AI"),
	)

	a, err := store.FindByURL(s.ctx, "https://a.example.com/3", 2)
	s.NoError(err)
	s.Equal("https://a.example.com/3", a.URL)
	s.Nil(a.Summary)

	_, err = store.FindByURL(s.ctx, "https://a.example.com/1", 2)
	s.ErrorIs(err, domain.ErrNotFound)

	_, err = store.FindByURL(s.ctx, "https://missing.example.com/", 100)
	s.ErrorIs(err, domain.ErrNotFound)
}

func (s *PostgresIntegrationSuite) TestUpdateStatus_PartialFields() {
	store := NewArticleStore(s.db)
	inserted := s.insert(newArticle("https://a.example.com/1", "AI"))
	id := inserted[0].ID

	s.NoError(store.UpdateStatus(s.ctx, id, domain.StatusUpdate{Rating: utils.Ptr(4), Comment: utils.Ptr("good")}))
	s.NoError(store.UpdateStatus(s.ctx, id, domain.StatusUpdate{Read: utils.Ptr(true)}))
	s.NoError(store.UpdateStatus(s.ctx, id, domain.StatusUpdate{}))

	a, err := store.FindByURL(s.ctx, "https://a.example.com/1", 10)
	s.NoError(err)
	s.Equal(4, a.Rating)
	s.Equal("good", a.Comment)
	s.True(a.Read)
	s.False(a.Sent)

	err = store.UpdateStatus(s.ctx, id+1000, domain.StatusUpdate{Read: utils.Ptr(true)})
	s.ErrorIs(err, domain.ErrNotFound)
}

func (s *PostgresIntegrationSuite) TestSetSummary() {
	store := NewArticleStore(s.db)
	inserted := s.insert(newArticle("https://a.example.com/1", "AI"))

	s.NoError(store.SetSummary(s.ctx, inserted[0].ID, "short summary"))

	a, err := store.FindByURL(s.ctx, "https://a.example.com/1", 10)
	s.NoError(err)
	s.Require().NotNil(a.Summary)
	s.Equal("short summary", *a.Summary)
}

func (s *PostgresIntegrationSuite) TestRunStateStore() {
	store := NewRunStateStore(s.db)

	state, err := store.Get(s.ctx, "deliver")
	s.NoError(err)
	s.True(state.LastRunAt.IsZero())

	at := time.Date(2026, 10, 16, 7, 0, 0, 0, time.UTC)
	s.NoError(store.Record(s.ctx, &domain.RunState{Task: "deliver", LastRunAt: at, LastCount: 3}))
	s.NoError(store.Record(s.ctx, &domain.RunState{Task: "deliver", LastRunAt: at.Add(time.Hour), LastCount: 2}))

	state, err = store.Get(s.ctx, "deliver")
	s.NoError(err)
	s.True(state.LastRunAt.Equal(at.Add(time.Hour)))
	s.Equal(int64(2), state.LastCount)
	s.Equal(int64(5), state.TotalCount)
}

func (s *PostgresIntegrationSuite) TestWithTransaction_NestedCallsJoinOuter() {
	store := NewArticleStore(s.db)
	tm := NewTransactionManager(s.db)

	err := tm.WithTransaction(s.ctx, func(txCtx context.Context) error {
		inner := tm.WithTransaction(txCtx, func(innerCtx context.Context) error {
			_, err := store.InsertBatch(innerCtx, []domain.Article{newArticle("https://tx.example.com/nested", "AI")})
			return err
		})
		s.Require().NoError(inner)
		return fmt.Errorf("rollback outer")
	})
	s.Error(err)

	_, err = store.FindByURL(s.ctx, "https://tx.example.com/nested", 10)
	s.ErrorIs(err, domain.ErrNotFound)
}
