package analyzer

import (
	"errors"
	"fmt"
)

// ErrInvalidURL is returned for URLs that are not absolute http(s) URLs.
var ErrInvalidURL = errors.New("invalid URL")

// FetchError reports a network failure while fetching a page.
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// HTTPStatusError reports a non-2xx response.
type HTTPStatusError struct {
	URL        string
	StatusCode int
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("fetch %s: unexpected status %d", e.URL, e.StatusCode)
}

// ParseError reports an unparsable Last-Modified header. It never aborts an
// analysis; the freshness check records it as a finding instead.
type ParseError struct {
	Value string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %q: %v", e.Value, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// IsFetchFailure reports whether err came from fetching the page, as opposed
// to a problem with the analysis itself.
func IsFetchFailure(err error) bool {
	var fetchErr *FetchError
	var statusErr *HTTPStatusError
	return errors.As(err, &fetchErr) || errors.As(err, &statusErr)
}
