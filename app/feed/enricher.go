package feed

import (
	"bytes"
	"context"
	"log/slog"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/lysyi3m/world-on-fire/app/fetch"
)

const (
	minImageWidth  = 200
	minImageHeight = 150
)

var imageExcludeTerms = []string{
	"logo", "icon", "banner", "avatar", "favicon", "thumbnail",
	"advertisement", "sidebar", "footer", "sponsor", "navigation",
	"social", "button", "badge", "sprite", "pixel", "tracking",
	"emoji", "widget", "header",
}

var textContainerSelectors = []string{
	"article",
	"[class*=article]",
	"[class*=content]",
	"[class*=post]",
	"[class*=entry]",
	"main",
	"[role=main]",
}

const textNoiseSelector = "script, style, nav, footer, aside, header, noscript, form"

// Enricher scrapes an article page for a lead image and body text.
type Enricher struct {
	client    Getter
	extractor *ContentExtractor
	timeout   time.Duration
}

func NewEnricher(client Getter, extractor *ContentExtractor, timeout time.Duration) *Enricher {
	return &Enricher{
		client:    client,
		extractor: extractor,
		timeout:   timeout,
	}
}

// Enrich never fails; any problem yields an empty Enrichment.
func (e *Enricher) Enrich(ctx context.Context, link string) Enrichment {
	pageURL, err := url.Parse(link)
	if err != nil || (pageURL.Scheme != "http" && pageURL.Scheme != "https") {
		return Enrichment{}
	}

	data, err := e.client.Get(ctx, link, fetch.Request{
		Timeout:     e.timeout,
		Accept:      "text/html,application/xhtml+xml",
		ContentType: "html",
	})
	if err != nil {
		slog.Debug("Article page fetch failed", "url", link, "error", err)
		return Enrichment{}
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		slog.Debug("Article page parse failed", "url", link, "error", err)
		return Enrichment{}
	}

	result := Enrichment{
		ImageURL: FindImage(doc, pageURL),
		Text:     FindText(doc),
	}

	if result.Text == "" && e.extractor != nil {
		if text, err := e.extractor.Run(data, pageURL); err == nil {
			result.Text = text
		}
	}

	return result
}

// FindImage returns the first <img> that is not decoration, resolved against pageURL.
func FindImage(doc *goquery.Document, pageURL *url.URL) string {
	var found string

	doc.Find("img").EachWithBreak(func(_ int, img *goquery.Selection) bool {
		src := strings.TrimSpace(img.AttrOr("src", ""))
		if src == "" || !acceptableImage(img, src) {
			return true
		}

		resolved, err := url.Parse(src)
		if err != nil {
			return true
		}
		if pageURL != nil {
			resolved = pageURL.ResolveReference(resolved)
		}

		found = resolved.String()
		return false
	})

	return found
}

func acceptableImage(img *goquery.Selection, src string) bool {
	lowerSrc := strings.ToLower(src)
	if strings.HasPrefix(lowerSrc, "data:") {
		return false
	}

	imgPath := lowerSrc
	if u, err := url.Parse(lowerSrc); err == nil {
		imgPath = u.Path
	}
	switch path.Ext(imgPath) {
	case ".svg", ".gif":
		return false
	}

	haystack := strings.ToLower(strings.Join([]string{
		src,
		img.AttrOr("alt", ""),
		img.AttrOr("class", ""),
		img.AttrOr("id", ""),
	}, " "))
	for _, term := range imageExcludeTerms {
		if strings.Contains(haystack, term) {
			return false
		}
	}

	if w, ok := dimension(img, "width"); ok && w < minImageWidth {
		return false
	}
	if h, ok := dimension(img, "height"); ok && h < minImageHeight {
		return false
	}

	return true
}

// dimension reads a declared size like "50" or "50px".
func dimension(img *goquery.Selection, attr string) (int, bool) {
	v := strings.TrimSpace(img.AttrOr(attr, ""))
	v = strings.TrimSuffix(v, "px")
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

// FindText returns paragraph text from the most likely article container.
func FindText(doc *goquery.Document) string {
	container := doc.Find("body").First()
	for _, selector := range textContainerSelectors {
		if match := doc.Find(selector).First(); match.Length() > 0 {
			container = match
			break
		}
	}
	if container.Length() == 0 {
		return ""
	}

	container.Find(textNoiseSelector).Remove()

	var paragraphs []string
	container.Find("p").Each(func(_ int, p *goquery.Selection) {
		if text := collapseSpace(p.Text()); text != "" {
			paragraphs = append(paragraphs, text)
		}
	})

	if len(paragraphs) > 0 {
		return strings.Join(paragraphs, " ")
	}
	return collapseSpace(container.Text())
}
