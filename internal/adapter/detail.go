package adapter

import (
	"context"
	"log/slog"
	"net/http"
	"regexp"

	"github.com/ian939/jobtrack/internal/model"
)

var imgTagRe = regexp.MustCompile(`(?i)<img[^>]+src=`)

// PageContentFetcher fetches a listing's detail page and reduces it to plain
// text. All failures (transport errors, timeouts, bad statuses) come back
// as the failure sentinel so the classifier handles them uniformly and the
// run never aborts on a single page.
type PageContentFetcher struct {
	client *http.Client
	logger *slog.Logger
}

// NewPageContentFetcher creates a content fetcher.
func NewPageContentFetcher(client *http.Client, logger *slog.Logger) *PageContentFetcher {
	return &PageContentFetcher{client: client, logger: logger}
}

// FetchContent implements model.ContentFetcher.
func (f *PageContentFetcher) FetchContent(ctx context.Context, link string) string {
	page, err := fetchPage(ctx, f.client, link)
	if err != nil {
		f.logger.Debug("detail page fetch failed", "link", link, "error", err)
		return model.FetchFailedSentinel
	}

	text := extractText(page)
	if text == "" && imgTagRe.MatchString(page) {
		return model.ImageOnlyMarker
	}
	return text
}
