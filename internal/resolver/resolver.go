// Package resolver orchestrates preview resolution for a single URL.
//
// Resolution is two-tiered: a provider endpoint match always runs first,
// and generic scraping is only attempted when no provider matched or the
// provider fetch came back empty. Resolution never returns an error; any
// failure along the way resolves to the none preview.
package resolver

import (
	"context"
	"mime"
	"strings"

	"go.uber.org/zap"

	"github.com/previewd/previewd/internal/metrics"
	"github.com/previewd/previewd/internal/oembed"
	"github.com/previewd/previewd/internal/preview"
	"github.com/previewd/previewd/internal/scrape"
)

// Resolver resolves one URL to a normalized preview.
type Resolver struct {
	registry *oembed.Registry
	client   *oembed.Client
	fetcher  preview.Fetcher
	scraper  *scrape.Scraper
	logger   *zap.Logger
}

// New builds a resolver. A nil logger discards debug output.
func New(
	registry *oembed.Registry,
	client *oembed.Client,
	fetcher preview.Fetcher,
	scraper *scrape.Scraper,
	logger *zap.Logger,
) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{
		registry: registry,
		client:   client,
		fetcher:  fetcher,
		scraper:  scraper,
		logger:   logger,
	}
}

// Resolve produces a preview for url, or the none preview when nothing
// usable could be obtained.
func (r *Resolver) Resolve(ctx context.Context, url string) preview.Preview {
	if endpoint, ok := r.registry.Resolve(url); ok {
		if p := r.client.Fetch(ctx, endpoint, url); !p.IsNone() {
			metrics.ObserveResolution("oembed", "resolved")
			return p
		}
		r.logger.Debug("provider fetch yielded nothing, falling back to scrape",
			zap.String("url", url))
	}

	p := r.scrapeDirect(ctx, url)
	metrics.ObserveResolution("scrape", outcomeLabel(p))
	return p
}

func (r *Resolver) scrapeDirect(ctx context.Context, url string) preview.Preview {
	resp, err := r.fetcher.Fetch(ctx, preview.FetchRequest{URL: url})
	if err != nil {
		r.logger.Debug("direct fetch failed", zap.String("url", url), zap.Error(err))
		return preview.None()
	}
	metrics.ObserveFetchDuration("scrape", resp.Duration)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		r.logger.Debug("direct fetch returned error status",
			zap.String("url", url), zap.Int("status", resp.StatusCode))
		return preview.None()
	}
	if !isHTML(resp.ContentType) {
		return preview.None()
	}
	return r.scraper.Extract(resp.Body, resp.ContentType)
}

func outcomeLabel(p preview.Preview) string {
	if p.IsNone() {
		return "none"
	}
	return "resolved"
}

func isHTML(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = strings.ToLower(strings.TrimSpace(contentType))
	}
	switch mediaType {
	case "text/html", "application/xhtml+xml":
		return true
	}
	return false
}
