package feed

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/araddon/dateparse"
	"github.com/mmcdole/gofeed"
	ext "github.com/mmcdole/gofeed/extensions"
)

type Parser struct {
	gofeedParser *gofeed.Parser
}

func NewParser() *Parser {
	return &Parser{
		gofeedParser: gofeed.NewParser(),
	}
}

func (p *Parser) Run(data []byte) (*Metadata, []Entry, error) {
	feed, err := p.gofeedParser.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	metadata := &Metadata{
		Title:       strings.TrimSpace(feed.Title),
		Link:        feed.Link,
		Description: feed.Description,
		Language:    feed.Language,
	}

	entries := make([]Entry, 0, len(feed.Items))
	for _, item := range feed.Items {
		if item == nil {
			continue
		}
		entries = append(entries, p.normalizeItem(item))
	}

	return metadata, entries, nil
}

func (p *Parser) normalizeItem(item *gofeed.Item) Entry {
	entry := Entry{
		Title:       strings.TrimSpace(item.Title),
		Link:        strings.TrimSpace(item.Link),
		Description: item.Description,
		Content:     item.Content,
		Published:   item.Published,
	}

	// Atom entries frequently carry only <updated>.
	if entry.Published == "" {
		entry.Published = item.Updated
	}

	entry.PublishedAt = p.parsePublished(item)
	entry.ImageURL = p.nativeImage(item)

	return entry
}

func (p *Parser) parsePublished(item *gofeed.Item) *time.Time {
	parsed := item.PublishedParsed
	if parsed == nil && item.Published != "" {
		if t, err := dateparse.ParseAny(item.Published); err == nil {
			parsed = &t
		}
	}
	if parsed == nil {
		parsed = item.UpdatedParsed
	}
	if parsed == nil {
		return nil
	}

	utc := parsed.UTC()
	return &utc
}

// nativeImage picks the first image the feed itself offers:
// media:content, media:thumbnail, image enclosure, item image, then <img> in the markup.
func (p *Parser) nativeImage(item *gofeed.Item) string {
	if media, ok := item.Extensions["media"]; ok {
		if url := mediaContentImage(media["content"]); url != "" {
			return url
		}
		for _, group := range media["group"] {
			if url := mediaContentImage(group.Children["content"]); url != "" {
				return url
			}
		}
		if url := firstAttr(media["thumbnail"], "url"); url != "" {
			return url
		}
		for _, group := range media["group"] {
			if url := firstAttr(group.Children["thumbnail"], "url"); url != "" {
				return url
			}
		}
	}

	for _, enclosure := range item.Enclosures {
		if enclosure != nil && enclosure.URL != "" && strings.HasPrefix(enclosure.Type, "image/") {
			return enclosure.URL
		}
	}

	if item.Image != nil && item.Image.URL != "" {
		return item.Image.URL
	}

	for _, markup := range []string{item.Description, item.Content} {
		if url := firstImgSrc(markup); url != "" {
			return url
		}
	}

	return ""
}

func mediaContentImage(contents []ext.Extension) string {
	for _, content := range contents {
		url := content.Attrs["url"]
		if url == "" {
			continue
		}
		medium := content.Attrs["medium"]
		mimeType := content.Attrs["type"]
		if medium == "image" || strings.HasPrefix(mimeType, "image/") || (medium == "" && mimeType == "") {
			return url
		}
	}
	return ""
}

func firstAttr(exts []ext.Extension, attr string) string {
	for _, e := range exts {
		if v := e.Attrs[attr]; v != "" {
			return v
		}
	}
	return ""
}

func firstImgSrc(markup string) string {
	if !strings.Contains(markup, "<img") {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return ""
	}

	var src string
	doc.Find("img").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if v, ok := s.Attr("src"); ok && v != "" && !strings.HasPrefix(v, "data:") {
			src = v
			return false
		}
		return true
	})
	return src
}
