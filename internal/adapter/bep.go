package adapter

import (
	"context"
	"net/http"
	"regexp"
	"strings"

	"github.com/ian939/jobtrack/internal/model"
	"github.com/ian939/jobtrack/internal/ratelimit"
)

// The official careers page lists every division; only anchors flagged as
// actively recruiting and belonging to the charging business are kept.
var (
	bepAnchorRe = regexp.MustCompile(`(?is)<a[^>]+href="([^"]*recruitmentView\?idx=[^"]*)"[^>]*>(.*?)</a>`)

	bepOpenMarker = "모집중"
	bepKeywords   = []string{"전기차", "충전", "워터", "WATER"}
	bepNoise      = []string{bepOpenMarker, "전기차충전사업부문"}
)

// BEPAdapter scrapes the company's official careers page.
type BEPAdapter struct {
	url     string
	company string
	client  *http.Client
	limiter *ratelimit.HostLimiter
}

// NewBEPAdapter creates an adapter for the official careers page at url.
func NewBEPAdapter(url, company string, client *http.Client, limiter *ratelimit.HostLimiter) *BEPAdapter {
	return &BEPAdapter{url: url, company: company, client: client, limiter: limiter}
}

func (a *BEPAdapter) Name() string { return "bep" }

// FetchPostings returns the open charging-division postings. Zero matches is
// an ordinary outcome and yields an empty slice.
func (a *BEPAdapter) FetchPostings(ctx context.Context) ([]model.RawPosting, error) {
	if err := a.limiter.Wait(ctx, hostOf(a.url)); err != nil {
		return nil, err
	}

	page, err := fetchPage(ctx, a.client, a.url)
	if err != nil {
		return nil, err
	}

	var postings []model.RawPosting
	for _, m := range bepAnchorRe.FindAllStringSubmatch(page, -1) {
		href, inner := m[1], m[2]
		text := extractText(inner)
		if !strings.Contains(text, bepOpenMarker) {
			continue
		}
		if !containsAny(text, bepKeywords) {
			continue
		}

		title := text
		for _, n := range bepNoise {
			title = strings.ReplaceAll(title, n, "")
		}
		title, experience := splitExperience(strings.TrimSpace(title))

		postings = append(postings, model.RawPosting{
			Source:     a.Name(),
			Company:    a.company,
			Title:      title,
			Experience: experience,
			Link:       absoluteURL(a.url, href),
		})
	}

	return postings, nil
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}
