package httpx

import (
	"context"
	"fmt"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const (
	KindColly = "colly"
	KindHTTP  = "http"
)

type DocumentFetcher interface {
	FetchDocument(ctx context.Context, rawURL string) (*goquery.Document, error)
}

// NewFetcher returns the fetcher implementation named by kind.
func NewFetcher(kind, userAgent string, delay, timeout time.Duration) (DocumentFetcher, error) {
	switch kind {
	case "", KindColly:
		return NewCollyFetcher(userAgent, delay, timeout), nil
	case KindHTTP:
		return NewPoliteClient(userAgent, delay, timeout), nil
	default:
		return nil, fmt.Errorf("unknown fetcher %q", kind)
	}
}
