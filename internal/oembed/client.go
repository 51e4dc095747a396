// Package oembed implements provider-based preview resolution: the provider
// catalogue, the URL-pattern registry, and the client that fetches and
// normalizes structured metadata from a matched endpoint.
package oembed

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/previewd/previewd/internal/metrics"
	"github.com/previewd/previewd/internal/preview"
)

// Default media dimension caps sent to provider endpoints.
const (
	DefaultMaxWidth  = 640
	DefaultMaxHeight = 480
)

// Client fetches structured metadata from provider endpoints and normalizes
// it into a preview. Only photo and video resource kinds are accepted; all
// other kinds (rich, link, ...) resolve to the none variant.
type Client struct {
	fetcher   preview.Fetcher
	maxWidth  int
	maxHeight int
	logger    *zap.Logger
}

// NewClient constructs a Client. Zero dimensions fall back to the defaults.
func NewClient(fetcher preview.Fetcher, maxWidth, maxHeight int, logger *zap.Logger) *Client {
	if maxWidth <= 0 {
		maxWidth = DefaultMaxWidth
	}
	if maxHeight <= 0 {
		maxHeight = DefaultMaxHeight
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		fetcher:   fetcher,
		maxWidth:  maxWidth,
		maxHeight: maxHeight,
		logger:    logger,
	}
}

// response mirrors the structured-metadata JSON body. Unknown fields are
// ignored; required-vs-optional is enforced per resource kind below.
type response struct {
	Type         string `json:"type"`
	URL          string `json:"url"`
	Image        string `json:"image"`
	ThumbnailURL string `json:"thumbnail_url"`
	HTML         string `json:"html"`
	Title        string `json:"title"`
	Description  string `json:"description"`
}

// Fetch issues one structured-metadata request for targetURL against the
// matched endpoint. Network failure, a non-2xx status, or an unparseable
// body all return the none variant; third-party endpoints fail routinely
// and must never fail the surrounding reconciliation.
func (c *Client) Fetch(ctx context.Context, endpointURL, targetURL string) preview.Preview {
	params := url.Values{}
	params.Set("url", targetURL)
	params.Set("format", "json")
	params.Set("maxwidth", strconv.Itoa(c.maxWidth))
	params.Set("maxheight", strconv.Itoa(c.maxHeight))

	resp, err := c.fetcher.Fetch(ctx, preview.FetchRequest{URL: endpointURL + "?" + params.Encode()})
	if err != nil {
		c.logger.Debug("structured fetch failed",
			zap.String("endpoint", endpointURL),
			zap.String("url", targetURL),
			zap.Error(err),
		)
		return preview.None()
	}
	metrics.ObserveFetchDuration("oembed", resp.Duration)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Debug("structured fetch non-2xx",
			zap.String("endpoint", endpointURL),
			zap.Int("status", resp.StatusCode),
		)
		return preview.None()
	}

	var body response
	if err := json.Unmarshal(resp.Body, &body); err != nil {
		c.logger.Debug("structured fetch unparseable body",
			zap.String("endpoint", endpointURL),
			zap.Error(err),
		)
		return preview.None()
	}

	switch body.Type {
	case "photo":
		image := body.URL
		if image == "" {
			image = body.Image
		}
		return preview.NewPhoto(image, body.Title, body.Description)
	case "video":
		return preview.NewVideo(body.ThumbnailURL, stripCDATA(body.HTML), body.Title, body.Description)
	default:
		return preview.None()
	}
}

// stripCDATA unwraps embed markup delivered inside a CDATA section. Some
// providers generate their XML-format oEmbed payloads this way and leak the
// wrapper into the JSON html field.
func stripCDATA(html string) string {
	if strings.HasPrefix(html, "<![CDATA[") && strings.HasSuffix(html, "]]>") {
		return html[len("<![CDATA[") : len(html)-len("]]>")]
	}
	return html
}
