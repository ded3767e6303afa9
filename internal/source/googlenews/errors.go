package googlenews

import (
	"fmt"

	"newsagent/internal/domain"
)

// FetchError is returned when every attempt for a query failed.
type FetchError struct {
	Query    domain.FeedQuery
	Attempts int
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %q (%s/%s): after %d attempts: %v",
		e.Query.Keyword, e.Query.Region, e.Query.Language, e.Attempts, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// ParseError is returned when the feed payload could not be decoded. It is never retried.
type ParseError struct {
	Query domain.FeedQuery
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse feed %q (%s/%s): %v",
		e.Query.Keyword, e.Query.Region, e.Query.Language, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
