// Package interfaces provides service interfaces for dependency injection.
package interfaces

import (
	"context"

	"github.com/PuerkitoBio/goquery"
)

// PageFetcher retrieves remote pages and AJAX payloads.
// Implementations apply their own timeout, retry and rate-limit policy and
// wrap failures with models.ErrFetch.
type PageFetcher interface {
	// Fetch retrieves an HTML page and parses it into a queryable document.
	Fetch(ctx context.Context, url string) (*goquery.Document, error)

	// FetchJSON retrieves a raw JSON body, sending the extra headers given.
	FetchJSON(ctx context.Context, url string, headers map[string]string) ([]byte, error)
}
