// Package ratelimit enforces per-host politeness delays between outbound
// requests so scraping never hammers a single site.
package ratelimit

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/ian939/jobtrack/internal/model"
)

// HostLimiter enforces a minimum interval between requests to the same host.
// Limiters are created lazily per host; all adapters and fetchers targeting
// the same host should share one instance.
type HostLimiter struct {
	mu        sync.Mutex
	limiters  map[string]*rate.Limiter
	interval  time.Duration
	overrides map[string]time.Duration
}

// NewHostLimiter creates a limiter with a default interval and optional
// per-host overrides.
func NewHostLimiter(interval time.Duration, overrides map[string]time.Duration) *HostLimiter {
	return &HostLimiter{
		limiters:  make(map[string]*rate.Limiter),
		interval:  interval,
		overrides: overrides,
	}
}

// Wait blocks until the host's limiter allows the next request, or the
// context is cancelled.
func (h *HostLimiter) Wait(ctx context.Context, host string) error {
	h.mu.Lock()
	lim, ok := h.limiters[host]
	if !ok {
		interval := h.interval
		if d, over := h.overrides[host]; over {
			interval = d
		}
		if interval <= 0 {
			lim = rate.NewLimiter(rate.Inf, 1)
		} else {
			lim = rate.NewLimiter(rate.Every(interval), 1)
		}
		h.limiters[host] = lim
	}
	h.mu.Unlock()

	if err := lim.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter wait for %s: %w", host, err)
	}
	return nil
}

// PoliteFetcher decorates a ContentFetcher with per-host rate limiting.
type PoliteFetcher struct {
	inner   model.ContentFetcher
	limiter *HostLimiter
}

// NewPoliteFetcher wraps a ContentFetcher so each fetch first waits on the
// limiter for the link's host.
func NewPoliteFetcher(inner model.ContentFetcher, limiter *HostLimiter) *PoliteFetcher {
	return &PoliteFetcher{inner: inner, limiter: limiter}
}

// FetchContent waits for the host slot, then delegates. A wait cut short by
// cancellation reports as a failed fetch rather than aborting the run.
func (f *PoliteFetcher) FetchContent(ctx context.Context, link string) string {
	if err := f.limiter.Wait(ctx, hostOf(link)); err != nil {
		return model.FetchFailedSentinel
	}
	return f.inner.FetchContent(ctx, link)
}

func hostOf(link string) string {
	u, err := url.Parse(link)
	if err != nil || u.Host == "" {
		return link
	}
	return u.Host
}
