package adapter

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/ian939/jobtrack/internal/model"
	"github.com/ian939/jobtrack/internal/ratelimit"
)

// saraminItemMarker opens each posting card in the search-result markup.
// The page is split on it so consecutive cards stay intact; a regex that
// matched up to the next marker would consume it and skip every other card.
const saraminItemMarker = `<div class="item_recruit"`

var (
	saraminCorpRe  = regexp.MustCompile(`(?is)class="corp_name"[^>]*>.*?<a[^>]*>(.*?)</a>`)
	saraminTitleRe = regexp.MustCompile(`(?is)class="job_tit"[^>]*>.*?<a[^>]+href="([^"]*)"[^>]*>(.*?)</a>`)
	saraminCondRe  = regexp.MustCompile(`(?is)class="job_condition"[^>]*>(.*?)</div>`)
	saraminSpanRe  = regexp.MustCompile(`(?is)<span[^>]*>(.*?)</span>`)
)

// SaraminAdapter searches the recruit portal for each target company.
// The portal also returns ads that merely mention the keyword; the pipeline's
// target filter removes those downstream.
type SaraminAdapter struct {
	baseURL   string
	companies []string
	client    *http.Client
	limiter   *ratelimit.HostLimiter
}

// NewSaraminAdapter creates an adapter that queries baseURL once per company.
func NewSaraminAdapter(baseURL string, companies []string, client *http.Client, limiter *ratelimit.HostLimiter) *SaraminAdapter {
	return &SaraminAdapter{baseURL: baseURL, companies: companies, client: client, limiter: limiter}
}

func (a *SaraminAdapter) Name() string { return "saramin" }

// FetchPostings queries one search page per target company, waiting on the
// host limiter between requests. A company whose search page fails is logged
// by the caller and simply contributes nothing; partial results are returned.
func (a *SaraminAdapter) FetchPostings(ctx context.Context) ([]model.RawPosting, error) {
	var postings []model.RawPosting
	var lastErr error

	for _, company := range a.companies {
		if err := a.limiter.Wait(ctx, hostOf(a.baseURL)); err != nil {
			return postings, err
		}

		searchURL := fmt.Sprintf("%s?searchType=search&searchword=%s", a.baseURL, url.QueryEscape(company))
		page, err := fetchPage(ctx, a.client, searchURL)
		if err != nil {
			lastErr = fmt.Errorf("saramin search for %s: %w", company, err)
			continue
		}
		postings = append(postings, a.parseItems(page)...)
	}

	if len(postings) == 0 && lastErr != nil {
		return nil, lastErr
	}
	return postings, nil
}

func (a *SaraminAdapter) parseItems(page string) []model.RawPosting {
	var postings []model.RawPosting
	blocks := strings.Split(page, saraminItemMarker)
	for _, block := range blocks[1:] {
		corp := saraminCorpRe.FindStringSubmatch(block)
		title := saraminTitleRe.FindStringSubmatch(block)
		if corp == nil || title == nil {
			continue
		}

		// Second condition span carries the experience requirement.
		experience := ""
		if cond := saraminCondRe.FindStringSubmatch(block); cond != nil {
			spans := saraminSpanRe.FindAllStringSubmatch(cond[1], -1)
			if len(spans) > 1 {
				experience = extractText(spans[1][1])
			}
		}

		postings = append(postings, model.RawPosting{
			Source:     a.Name(),
			Company:    extractText(corp[1]),
			Title:      extractText(title[2]),
			Experience: experience,
			Link:       absoluteURL(a.baseURL, strings.TrimSpace(title[1])),
		})
	}
	return postings
}
