// Package scrape extracts preview metadata from raw HTML documents.
// It tries structured Open Graph properties first and falls back to
// document heuristics for any field the metadata left empty.
package scrape

import (
	"bytes"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
	"golang.org/x/net/html/charset"

	"github.com/previewd/previewd/internal/preview"
)

// Scraper turns an HTML payload into a basic preview. It never returns
// an error: a page with no usable metadata yields an empty basic preview.
type Scraper struct {
	logger *zap.Logger
}

// NewScraper creates a scraper. A nil logger discards debug output.
func NewScraper(logger *zap.Logger) *Scraper {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scraper{logger: logger}
}

// Extract decodes body according to the declared content type and pulls
// out title, description and a primary image. The content type's charset
// parameter wins; otherwise an in-document meta charset is honored, and
// invalid byte sequences decode permissively rather than failing.
func (s *Scraper) Extract(body []byte, contentType string) preview.Preview {
	reader, err := charset.NewReader(bytes.NewReader(body), contentType)
	if err != nil {
		s.logger.Debug("charset detection failed, using raw bytes", zap.Error(err))
		reader = bytes.NewReader(body)
	}

	doc, err := goquery.NewDocumentFromReader(reader)
	if err != nil {
		s.logger.Debug("html parse failed", zap.Error(err))
		return preview.NewBasic("", "", "")
	}

	meta := extractOpenGraph(doc)

	title := meta.title
	if title == "" {
		title = heuristicTitle(doc)
	}
	description := meta.description
	if description == "" {
		description = heuristicDescription(doc)
	}
	image := meta.image
	if image != "" {
		if _, err := url.Parse(image); err != nil {
			// A bad image URL drops only the image, not the extraction.
			s.logger.Debug("unparseable og:image dropped", zap.String("image", image))
			image = ""
		}
	}
	if image == "" {
		image = heuristicImage(doc)
	}

	return preview.NewBasic(title, description, image)
}

type openGraphData struct {
	title       string
	description string
	image       string
	pageType    string
	url         string
}

func extractOpenGraph(doc *goquery.Document) openGraphData {
	var og openGraphData
	doc.Find("meta[property]").Each(func(_ int, sel *goquery.Selection) {
		property, _ := sel.Attr("property")
		content, _ := sel.Attr("content")
		switch property {
		case "og:title":
			if og.title == "" {
				og.title = content
			}
		case "og:description":
			if og.description == "" {
				og.description = content
			}
		case "og:image":
			if og.image == "" {
				og.image = content
			}
		case "og:type":
			if og.pageType == "" {
				og.pageType = content
			}
		case "og:url":
			if og.url == "" {
				og.url = content
			}
		}
	})
	return og
}

func heuristicTitle(doc *goquery.Document) string {
	if title := strings.TrimSpace(doc.Find("title").First().Text()); title != "" {
		return title
	}
	return strings.TrimSpace(doc.Find("h1").First().Text())
}

func heuristicDescription(doc *goquery.Document) string {
	if p := strings.TrimSpace(doc.Find("p").First().Text()); p != "" {
		return p
	}
	desc, _ := doc.Find(`meta[name="description"]`).First().Attr("content")
	return strings.TrimSpace(desc)
}

// heuristicImage returns the src of the first img element carrying a
// parseable URL. Images declared only through data-src are skipped, and
// an unparseable src drops the image without aborting extraction.
func heuristicImage(doc *goquery.Document) string {
	var image string
	doc.Find("img").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		src, ok := sel.Attr("src")
		if !ok {
			return true
		}
		if _, err := url.Parse(src); err != nil || src == "" {
			return false
		}
		image = src
		return false
	})
	return image
}
