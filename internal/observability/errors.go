package observability

import (
	"context"
	"errors"
	"net/http"

	"github.com/baxromumarov/roster-scraper/internal/httpx"
	"github.com/baxromumarov/roster-scraper/internal/scraper"
)

// Error labels for errors_total.
const (
	ErrorNetwork   = "network"
	ErrorTimeout   = "timeout"
	ErrorNotFound  = "not_found"
	ErrorParsing   = "parsing"
	ErrorRateLimit = "rate_limit"
	ErrorSink      = "sink"
	ErrorUnknown   = "unknown"
)

// ClassifyFetchError labels a failure returned by a document fetcher.
func ClassifyFetchError(err error) string {
	var fe *httpx.FetchError
	switch {
	case err == nil:
		return ErrorUnknown
	case errors.Is(err, context.DeadlineExceeded):
		return ErrorTimeout
	case errors.Is(err, httpx.ErrUnparsable):
		return ErrorParsing
	case !errors.As(err, &fe):
		return ErrorUnknown
	}

	switch fe.Status {
	case http.StatusTooManyRequests:
		return ErrorRateLimit
	case http.StatusNotFound, http.StatusGone:
		return ErrorNotFound
	}
	return ErrorNetwork
}

// ClassifyScrapeError labels a failure from fetching or extracting a profile.
// Rejections are not errors and should not reach here.
func ClassifyScrapeError(err error) string {
	if kind := ClassifyFetchError(err); kind != ErrorUnknown || err == nil {
		return kind
	}
	if errors.Is(err, scraper.ErrParse) {
		return ErrorParsing
	}
	return ErrorUnknown
}
