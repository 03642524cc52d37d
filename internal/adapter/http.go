// Package adapter contains the thin scraping wrappers around each job-posting
// source, plus the detail-page content fetcher. Source page structure is
// volatile by nature; everything durable lives upstream of this package.
package adapter

import (
	"context"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/ian939/jobtrack/internal/model"
)

// Portals block the default Go user agent outright.
const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"

// maxBodyBytes caps how much of a page is read.
const maxBodyBytes = 2 << 20

// fetchPage GETs the URL and returns the body as a string. Non-200 responses
// come back as *model.HTTPError so retry logic can inspect them.
func fetchPage(ctx context.Context, client *http.Client, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("build request for %s: %w", url, err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("get %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &model.HTTPError{
			StatusCode: resp.StatusCode,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
			Err:        fmt.Errorf("get %s", url),
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("read %s: %w", url, err)
	}
	return string(body), nil
}

// parseRetryAfter parses the Retry-After header value into a duration.
// Handles both forms the header allows: a seconds count (e.g. "120") and an
// HTTP-date. Returns zero if absent or unparseable.
func parseRetryAfter(value string) time.Duration {
	if value == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second
	}
	if at, err := http.ParseTime(value); err == nil {
		if wait := time.Until(at); wait > 0 {
			return wait
		}
	}
	return 0
}

var (
	htmlTagRegex    = regexp.MustCompile(`<[^>]*>`)
	scriptBlockRe   = regexp.MustCompile(`(?is)<(script|style)[^>]*>.*?</(script|style)>`)
	experienceParen = regexp.MustCompile(`\(([^)]*(?:경력|신입|무관)[^)]*)\)`)
)

// extractText converts an HTML fragment to plain text: drops script/style
// blocks, unescapes entities, strips tags, collapses whitespace.
func extractText(content string) string {
	content = scriptBlockRe.ReplaceAllString(content, " ")
	unescaped := html.UnescapeString(content)
	plain := htmlTagRegex.ReplaceAllString(unescaped, " ")
	return strings.Join(strings.Fields(plain), " ")
}

// splitExperience pulls an experience requirement like "(경력 3년)" out of a
// title, returning the cleaned title and the requirement text.
func splitExperience(title string) (string, string) {
	m := experienceParen.FindStringSubmatch(title)
	if m == nil {
		return strings.TrimSpace(title), ""
	}
	cleaned := strings.TrimSpace(strings.Replace(title, m[0], "", 1))
	return cleaned, strings.TrimSpace(m[1])
}

// hostOf extracts the host part of a URL for rate-limiting keys.
func hostOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw
	}
	return u.Host
}

// absoluteURL resolves href against the page URL when it is relative.
func absoluteURL(base, href string) string {
	b, err := url.Parse(base)
	if err != nil {
		return href
	}
	h, err := url.Parse(href)
	if err != nil {
		return href
	}
	return b.ResolveReference(h).String()
}
