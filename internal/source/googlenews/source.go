package googlenews

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed/rss"

	"newsagent/internal/domain"
)

const (
	DefaultBaseURL = "https://news.google.com/rss/search"
	DefaultSource  = "Google News"
)

var errInvalidQuery = errors.New("invalid query")

// Config holds feed fetcher configuration.
type Config struct {
	BaseURL         string
	Language        string
	Timeout         time.Duration
	MaxAttempts     int
	BaseDelay       time.Duration
	FreshnessWindow time.Duration
}

// Fetcher retrieves Google News search feeds.
type Fetcher struct {
	httpClient      *http.Client
	baseURL         string
	language        string
	maxAttempts     int
	baseDelay       time.Duration
	freshnessWindow time.Duration
	now             func() time.Time
	logger          *slog.Logger
}

// New creates a new feed fetcher.
func New(cfg Config, logger *slog.Logger) *Fetcher {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	maxAttempts := cfg.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	return &Fetcher{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL:         baseURL,
		language:        cfg.Language,
		maxAttempts:     maxAttempts,
		baseDelay:       cfg.BaseDelay,
		freshnessWindow: cfg.FreshnessWindow,
		now:             time.Now,
		logger:          logger.With("component", "googlenews"),
	}
}

// QueryURL builds the search URL for q. Keyword and region are required.
func (f *Fetcher) QueryURL(q domain.FeedQuery) (string, error) {
	keyword := strings.TrimSpace(q.Keyword)
	region := strings.ToUpper(strings.TrimSpace(q.Region))
	if keyword == "" || region == "" {
		return "", fmt.Errorf("%w: keyword and region are required", errInvalidQuery)
	}
	lang := strings.TrimSpace(q.Language)
	if lang == "" {
		lang = f.language
	}

	params := url.Values{}
	params.Set("q", keyword)
	params.Set("hl", lang)
	params.Set("gl", region)
	params.Set("ceid", region+":"+lang)

	return f.baseURL + "?" + params.Encode(), nil
}

// Fetch returns fresh candidates for one keyword/region/language combination.
// A *FetchError is returned once every attempt failed; a *ParseError means the
// payload was malformed and should be treated as an empty result.
func (f *Fetcher) Fetch(ctx context.Context, q domain.FeedQuery) ([]domain.Candidate, error) {
	if q.Language == "" {
		q.Language = f.language
	}
	feedURL, err := f.QueryURL(q)
	if err != nil {
		return nil, err
	}

	var body []byte
	for attempt := 1; attempt <= f.maxAttempts; attempt++ {
		body, err = f.doRequest(ctx, feedURL)
		if err == nil {
			break
		}

		if attempt == f.maxAttempts {
			return nil, &FetchError{Query: q, Attempts: attempt, Err: err}
		}

		backoff := time.Duration(attempt) * f.baseDelay
		f.logger.Warn("request failed, retrying",
			"keyword", q.Keyword,
			"region", q.Region,
			"attempt", attempt,
			"backoff", backoff,
			"error", err,
		)

		select {
		case <-ctx.Done():
			return nil, &FetchError{Query: q, Attempts: attempt, Err: ctx.Err()}
		case <-time.After(backoff):
		}
	}

	parser := &rss.Parser{}
	feed, err := parser.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, &ParseError{Query: q, Err: err}
	}

	return f.transform(feed.Items), nil
}

func (f *Fetcher) doRequest(ctx context.Context, feedURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/rss+xml, application/xml;q=0.9, */*;q=0.8")
	req.Header.Set("User-Agent", "NewsAgent/1.0")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	return body, nil
}

func (f *Fetcher) transform(items []*rss.Item) []domain.Candidate {
	cutoff := f.now().Add(-f.freshnessWindow)
	candidates := make([]domain.Candidate, 0, len(items))

	for _, item := range items {
		link := strings.TrimSpace(item.Link)
		if link == "" {
			continue
		}

		if item.PubDateParsed == nil {
			f.logger.Debug("failed to parse date",
				"url", link,
				"date", item.PubDate,
			)
			continue
		}
		publishedAt := *item.PubDateParsed
		if f.freshnessWindow > 0 && publishedAt.Before(cutoff) {
			f.logger.Debug("dropping stale item",
				"url", link,
				"published_at", publishedAt,
			)
			continue
		}

		source := DefaultSource
		if item.Source != nil && strings.TrimSpace(item.Source.Title) != "" {
			source = strings.TrimSpace(item.Source.Title)
		}

		candidates = append(candidates, domain.Candidate{
			URL:         link,
			Title:       strings.TrimSpace(item.Title),
			Source:      source,
			Description: plainText(item.Description),
			PublishedAt: publishedAt,
		})
	}

	return candidates
}

// plainText strips markup from an item description.
func plainText(html string) string {
	if strings.TrimSpace(html) == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return strings.TrimSpace(html)
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}
