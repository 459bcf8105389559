package feed

import (
	"testing"
	"time"
)

func TestParseRSS2(t *testing.T) {
	rssData := `<?xml version="1.0"?>
<rss version="2.0" xmlns:media="http://search.yahoo.com/mrss/">
  <channel>
    <title>World News</title>
    <link>https://example.com</link>
    <description>Test Description</description>
    <language>en-us</language>
    <item>
      <title>Storm hits Tokyo</title>
      <link>https://example.com/tokyo</link>
      <description><![CDATA[<p>Heavy rain in <b>Tokyo</b>.</p>]]></description>
      <pubDate>Mon, 03 Jul 2023 10:00:00 GMT</pubDate>
      <media:content url="https://cdn.example.com/tokyo.jpg" medium="image" />
    </item>
    <item>
      <title>No date here</title>
      <link>https://example.com/nodate</link>
      <description>Plain text</description>
    </item>
  </channel>
</rss>`

	parser := NewParser()
	metadata, entries, err := parser.Run([]byte(rssData))
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if metadata.Title != "World News" {
		t.Errorf("Expected title 'World News', got: %s", metadata.Title)
	}
	if len(entries) != 2 {
		t.Fatalf("Expected 2 entries, got: %d", len(entries))
	}

	first := entries[0]
	if first.Title != "Storm hits Tokyo" {
		t.Errorf("Expected title 'Storm hits Tokyo', got: %s", first.Title)
	}
	if first.PublishedAt == nil {
		t.Fatal("Expected published time to be parsed")
	}
	expected := time.Date(2023, 7, 3, 10, 0, 0, 0, time.UTC)
	if !first.PublishedAt.Equal(expected) {
		t.Errorf("Expected published %v, got %v", expected, *first.PublishedAt)
	}
	if first.PublishedAt.Location() != time.UTC {
		t.Errorf("Expected UTC published time, got %v", first.PublishedAt.Location())
	}
	if first.ImageURL != "https://cdn.example.com/tokyo.jpg" {
		t.Errorf("Expected media:content image, got: %s", first.ImageURL)
	}

	if entries[1].PublishedAt != nil {
		t.Errorf("Expected no published time, got %v", *entries[1].PublishedAt)
	}
}

func TestParseImagePriority(t *testing.T) {
	tests := []struct {
		name     string
		item     string
		expected string
	}{
		{
			name: "thumbnail when no content",
			item: `<media:thumbnail url="https://cdn.example.com/thumb.jpg" />
			       <enclosure url="https://cdn.example.com/enc.jpg" type="image/jpeg" length="0" />`,
			expected: "https://cdn.example.com/thumb.jpg",
		},
		{
			name: "content inside group",
			item: `<media:group><media:content url="https://cdn.example.com/group.jpg" type="image/jpeg" /></media:group>
			       <media:thumbnail url="https://cdn.example.com/thumb.jpg" />`,
			expected: "https://cdn.example.com/group.jpg",
		},
		{
			name:     "image enclosure",
			item:     `<enclosure url="https://cdn.example.com/enc.jpg" type="image/jpeg" length="100" />`,
			expected: "https://cdn.example.com/enc.jpg",
		},
		{
			name:     "audio enclosure ignored, img in description used",
			item:     `<enclosure url="https://cdn.example.com/a.mp3" type="audio/mpeg" length="1" /><description><![CDATA[<img src="https://cdn.example.com/inline.jpg">]]></description>`,
			expected: "https://cdn.example.com/inline.jpg",
		},
		{
			name:     "video content skipped",
			item:     `<media:content url="https://cdn.example.com/clip.mp4" medium="video" />`,
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := `<?xml version="1.0"?>
<rss version="2.0" xmlns:media="http://search.yahoo.com/mrss/"><channel><title>T</title>
<item><title>Item</title><link>https://example.com/a</link>` + tt.item + `</item>
</channel></rss>`

			_, entries, err := NewParser().Run([]byte(data))
			if err != nil {
				t.Fatalf("Expected no error, got: %v", err)
			}
			if len(entries) != 1 {
				t.Fatalf("Expected 1 entry, got %d", len(entries))
			}
			if entries[0].ImageURL != tt.expected {
				t.Errorf("Expected image %q, got %q", tt.expected, entries[0].ImageURL)
			}
		})
	}
}

func TestParseFallbackDate(t *testing.T) {
	data := `<?xml version="1.0"?>
<rss version="2.0"><channel><title>T</title>
<item><title>Item</title><link>https://example.com/a</link><pubDate>2023-07-03 10:00:00</pubDate></item>
</channel></rss>`

	_, entries, err := NewParser().Run([]byte(data))
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if entries[0].PublishedAt == nil {
		t.Fatal("Expected non-standard date to be parsed")
	}
	if entries[0].Published != "2023-07-03 10:00:00" {
		t.Errorf("Expected raw published string to be kept, got %q", entries[0].Published)
	}
}

func TestParseInvalidFeed(t *testing.T) {
	if _, _, err := NewParser().Run([]byte("not a feed")); err == nil {
		t.Error("Expected error for invalid feed data")
	}
}

func TestPlainTextAndTruncate(t *testing.T) {
	if got := PlainText("<p>Fire &amp; <b>smoke</b></p>\n\n in  Lima"); got != "Fire & smoke in Lima" {
		t.Errorf("Unexpected plain text: %q", got)
	}

	long := ""
	for i := 0; i < 300; i++ {
		long += "é"
	}
	if got := truncateRunes(long, SummaryLimit); len([]rune(got)) != SummaryLimit {
		t.Errorf("Expected %d runes, got %d", SummaryLimit, len([]rune(got)))
	}
}
