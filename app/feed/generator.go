package feed

import (
	"bytes"
	"cmp"
	"encoding/xml"
	"fmt"
	"html"
	"mime"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/lysyi3m/world-on-fire/app/database"
)

const channelTitle = "World On Fire"

// Generator renders stored articles as an RSS 2.0 document.
type Generator struct {
	baseURL string
	version string
}

func NewGenerator(baseURL, version string) *Generator {
	return &Generator{baseURL: strings.TrimRight(baseURL, "/"), version: version}
}

// Run renders articles, newest first as given. location only affects the
// channel title and self link.
func (g *Generator) Run(location string, articles []database.Article) (string, error) {
	var buf bytes.Buffer

	buf.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	buf.WriteString("\n")
	buf.WriteString(`<rss version="2.0" xmlns:atom="http://www.w3.org/2005/Atom">`)
	buf.WriteString("\n  <channel>\n")

	title := channelTitle
	description := "Geotagged world news with sentiment"
	selfLink := g.baseURL + "/news/feed"
	if location != "" {
		title = fmt.Sprintf("%s: %s", channelTitle, location)
		description = fmt.Sprintf("Latest world news mentioning %s", location)
		selfLink += "?" + url.Values{"location": {location}}.Encode()
	}

	g.writeElement(&buf, "title", title, 4)
	g.writeElement(&buf, "link", g.baseURL+"/", 4)
	g.writeElement(&buf, "description", description, 4)
	buf.WriteString(fmt.Sprintf("    <atom:link href=\"%s\" rel=\"self\" type=\"application/rss+xml\" />\n",
		html.EscapeString(selfLink)))

	lastBuildDate := time.Now()
	if len(articles) > 0 {
		lastBuildDate = publishedOrCreated(articles[0])
	}
	g.writeElement(&buf, "lastBuildDate", lastBuildDate.Format(time.RFC1123Z), 4)
	g.writeElement(&buf, "generator", fmt.Sprintf("WorldOnFire/%s", g.version), 4)

	for _, article := range articles {
		g.writeItem(&buf, article)
	}

	buf.WriteString("  </channel>\n</rss>")

	return buf.String(), nil
}

func (g *Generator) writeItem(buf *bytes.Buffer, article database.Article) {
	buf.WriteString("    <item>\n")

	if article.URL != "" {
		buf.WriteString(fmt.Sprintf("      <guid isPermaLink=\"%t\">", g.isURL(article.URL)))
		xml.EscapeText(buf, []byte(article.URL))
		buf.WriteString("</guid>\n")
	}

	g.writeElement(buf, "title", article.Title, 6)
	g.writeElement(buf, "link", article.URL, 6)
	g.writeElement(buf, "description", cmp.Or(article.Description, "No description available"), 6)
	g.writeElement(buf, "pubDate", publishedOrCreated(article).Format(time.RFC1123Z), 6)

	if article.Source != "" && g.isURL(article.URL) {
		buf.WriteString(fmt.Sprintf("      <source url=\"%s\">", html.EscapeString(sourceURL(article.URL))))
		xml.EscapeText(buf, []byte(article.Source))
		buf.WriteString("</source>\n")
	}

	for _, location := range article.Locations {
		g.writeElement(buf, "category", location, 6)
	}

	if article.ImageURL != "" {
		buf.WriteString(fmt.Sprintf("      <enclosure url=\"%s\" length=\"0\" type=\"%s\" />\n",
			html.EscapeString(article.ImageURL),
			html.EscapeString(imageType(article.ImageURL))))
	}

	buf.WriteString("    </item>\n")
}

func (g *Generator) writeElement(buf *bytes.Buffer, tag, content string, indent int) {
	if content == "" {
		return
	}

	for i := 0; i < indent; i++ {
		buf.WriteByte(' ')
	}

	buf.WriteString("<")
	buf.WriteString(tag)
	buf.WriteString(">")
	xml.EscapeText(buf, []byte(content))
	buf.WriteString("</")
	buf.WriteString(tag)
	buf.WriteString(">\n")
}

func (g *Generator) isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

func publishedOrCreated(article database.Article) time.Time {
	if article.PublishedAt != nil {
		return *article.PublishedAt
	}
	return article.CreatedAt
}

func sourceURL(link string) string {
	u, err := url.Parse(link)
	if err != nil {
		return link
	}
	return u.Scheme + "://" + u.Host + "/"
}

// imageType guesses the enclosure MIME type from the URL path.
func imageType(imageURL string) string {
	u, err := url.Parse(imageURL)
	if err == nil {
		if t := mime.TypeByExtension(strings.ToLower(path.Ext(u.Path))); strings.HasPrefix(t, "image/") {
			return t
		}
	}
	return "image/jpeg"
}
