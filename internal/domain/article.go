package domain

import (
	"errors"
	"time"
)

var ErrNotFound = errors.New("not found")

// Article is a stored news item. URL is the unique key.
type Article struct {
	ID          int64     `db:"id" json:"id"`
	URL         string    `db:"url" json:"url"`
	Title       string    `db:"title" json:"title"`
	Source      string    `db:"source" json:"source"`
	Description string    `db:"description" json:"description,omitempty"`
	PublishedAt time.Time `db:"published_at" json:"published_at"`
	Keyword     string    `db:"keyword" json:"keyword"`
	CampaignTag string    `db:"campaign_tag" json:"campaign_tag,omitempty"`
	Sent        bool      `db:"sent" json:"sent"`
	Rating      int       `db:"rating" json:"rating"`
	Comment     string    `db:"comment" json:"comment,omitempty"`
	Read        bool      `db:"is_read" json:"read"`
	Summary     *string   `db:"summary" json:"summary,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// Candidate is a feed entry before dedup and reputation filtering.
type Candidate struct {
	URL         string
	Title       string
	Source      string
	Description string
	PublishedAt time.Time
}

// FeedQuery identifies one feed request.
type FeedQuery struct {
	Keyword  string
	Region   string
	Language string
}

// RatedURL is the read model used to compute domain reputation.
type RatedURL struct {
	URL    string `db:"url"`
	Rating int    `db:"rating"`
}

// StatusUpdate carries user feedback for a single article. Nil fields are left unchanged.
type StatusUpdate struct {
	URL     string
	Rating  *int
	Comment *string
	Read    *bool
}

// Alert is the payload routed to secondary channels for highly rated articles.
type Alert struct {
	URL     string `json:"url"`
	Title   string `json:"title"`
	Source  string `json:"source"`
	Rating  int    `json:"rating"`
	Comment string `json:"comment,omitempty"`
}
