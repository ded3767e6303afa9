package service

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"newsagent/internal/domain"
	"newsagent/internal/service/mocks"
	"newsagent/testdata/utils"
)

type StatusServiceTestSuite struct {
	suite.Suite
	ctrl *gomock.Controller

	articles   *mocks.MockArticleStore
	router     *mocks.MockAlertRouter
	summarizer *mocks.MockSummarizer

	status  *StatusService
	summary *SummaryService
	logger  *slog.Logger
}

func (s *StatusServiceTestSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())

	s.articles = mocks.NewMockArticleStore(s.ctrl)
	s.router = mocks.NewMockAlertRouter(s.ctrl)
	s.summarizer = mocks.NewMockSummarizer(s.ctrl)
	s.logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	s.status = NewStatusService(s.articles, s.router, 2000, s.logger)
	s.summary = NewSummaryService(s.articles, s.summarizer, "ja", 2000, s.logger)
}

func (s *StatusServiceTestSuite) TearDownTest() {
	s.ctrl.Finish()
}

func TestStatusServiceTestSuite(t *testing.T) {
	suite.Run(t, new(StatusServiceTestSuite))
}

func storedArticle() *domain.Article {
	return &domain.Article{
		ID:          42,
		URL:         "https://news.example.com/story",
		Title:       "Story",
		Source:      "Example",
		Description: "Body text",
	}
}

func (s *StatusServiceTestSuite) TestUpdate_HighRatingIsRouted() {
	ctx := context.Background()
	upd := domain.StatusUpdate{
		URL:     "https://news.example.com/story",
		Rating:  utils.Ptr(5),
		Comment: utils.Ptr("must read"),
	}

	s.articles.EXPECT().FindByURL(ctx, upd.URL, 2000).Return(storedArticle(), nil)
	s.articles.EXPECT().UpdateStatus(ctx, int64(42), upd).Return(nil)
	s.router.EXPECT().Route(ctx, domain.Alert{
		URL:     "https://news.example.com/story",
		Title:   "Story",
		Source:  "Example",
		Rating:  5,
		Comment: "must read",
	}).Return(true)

	article, err := s.status.Update(ctx, upd)

	s.NoError(err)
	s.Equal(5, article.Rating)
	s.Equal("must read", article.Comment)
}

func (s *StatusServiceTestSuite) TestUpdate_ReadOnlySkipsRouter() {
	ctx := context.Background()
	upd := domain.StatusUpdate{URL: "https://news.example.com/story", Read: utils.Ptr(true)}

	s.articles.EXPECT().FindByURL(ctx, upd.URL, 2000).Return(storedArticle(), nil)
	s.articles.EXPECT().UpdateStatus(ctx, int64(42), upd).Return(nil)

	article, err := s.status.Update(ctx, upd)

	s.NoError(err)
	s.True(article.Read)
}

func (s *StatusServiceTestSuite) TestUpdate_InvalidRating() {
	_, err := s.status.Update(context.Background(), domain.StatusUpdate{
		URL:    "https://news.example.com/story",
		Rating: utils.Ptr(6),
	})

	s.ErrorIs(err, ErrInvalidRating)
}

func (s *StatusServiceTestSuite) TestUpdate_UnknownURL() {
	ctx := context.Background()

	s.articles.EXPECT().FindByURL(ctx, "https://missing.example.com/", 2000).Return(nil, domain.ErrNotFound)

	_, err := s.status.Update(ctx, domain.StatusUpdate{URL: "https://missing.example.com/", Rating: utils.Ptr(3)})

	s.ErrorIs(err, domain.ErrNotFound)
}

func (s *StatusServiceTestSuite) TestUpdate_MissingURL() {
	_, err := s.status.Update(context.Background(), domain.StatusUpdate{URL: "  "})

	s.Error(err)
}

func (s *StatusServiceTestSuite) TestSummarize_StoresSummary() {
	ctx := context.Background()

	s.articles.EXPECT().FindByURL(ctx, "https://news.example.com/story", 2000).Return(storedArticle(), nil)
	s.summarizer.EXPECT().Summarize(ctx, "Story", "Body text", "ja").Return("short", nil)
	s.articles.EXPECT().SetSummary(ctx, int64(42), "short").Return(nil)

	article, err := s.summary.Summarize(ctx, "https://news.example.com/story")

	s.NoError(err)
	s.Require().NotNil(article.Summary)
	s.Equal("short", *article.Summary)
}

func (s *StatusServiceTestSuite) TestSummarize_SummarizerError() {
	ctx := context.Background()

	s.articles.EXPECT().FindByURL(ctx, "https://news.example.com/story", 2000).Return(storedArticle(), nil)
	s.summarizer.EXPECT().Summarize(ctx, "Story", "Body text", "ja").Return("", errors.New("rate limited"))

	_, err := s.summary.Summarize(ctx, "https://news.example.com/story")

	s.Error(err)
	s.Contains(err.Error(), "summarize")
}

func (s *StatusServiceTestSuite) TestSummarize_Disabled() {
	svc := NewSummaryService(s.articles, nil, "ja", 2000, s.logger)

	_, err := svc.Summarize(context.Background(), "https://news.example.com/story")

	s.ErrorIs(err, ErrSummaryDisabled)
	s.False(svc.Enabled())
}

func (s *StatusServiceTestSuite) TestReputationRanking() {
	ctx := context.Background()
	svc := NewReputationService(s.articles, 1000, 2, 2.0)

	s.articles.EXPECT().RecentRatings(ctx, 1000).Return([]domain.RatedURL{
		{URL: "https://good.example.com/1", Rating: 5},
		{URL: "https://spam.example.com/1", Rating: 1},
		{URL: "https://spam.example.com/2", Rating: 1},
		{URL: "https://ok.example.com/1", Rating: 3},
	}, nil)

	ranking, err := svc.Ranking(ctx, 2)

	s.NoError(err)
	s.Require().Len(ranking, 2)
	s.Equal("good.example.com", ranking[0].Domain)
	s.Equal("ok.example.com", ranking[1].Domain)
}
