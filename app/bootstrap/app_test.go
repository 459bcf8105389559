package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/lysyi3m/world-on-fire/app/cfg"
)

func newTestFeedServer(t *testing.T) *httptest.Server {
	t.Helper()

	pubDate := time.Now().UTC().Add(-time.Hour).Format(time.RFC1123Z)
	oldDate := time.Now().UTC().Add(-72 * time.Hour).Format(time.RFC1123Z)
	summary := strings.Repeat("Officials said the talks would continue through the week. ", 3)

	mux := http.NewServeMux()
	mux.HandleFunc("/rss", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		fmt.Fprintf(w, `<?xml version="1.0"?>
<rss version="2.0">
  <channel>
    <title>Integration News</title>
    <item>
      <title>Climate summit opens in Paris</title>
      <link>https://news.example.com/paris-summit</link>
      <description>%s</description>
      <pubDate>%s</pubDate>
      <enclosure url="https://cdn.example.com/paris.jpg" type="image/jpeg" length="1000" />
    </item>
    <item>
      <title>Archive story from London</title>
      <link>https://news.example.com/london-archive</link>
      <description>%s</description>
      <pubDate>%s</pubDate>
      <enclosure url="https://cdn.example.com/london.jpg" type="image/jpeg" length="1000" />
    </item>
    <item>
      <title>Village fete draws crowds</title>
      <link>https://news.example.com/fete</link>
      <description>%s</description>
      <pubDate>%s</pubDate>
    </item>
  </channel>
</rss>`, summary, pubDate, summary, oldDate, summary, pubDate)
	})
	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("q") == "Paris" {
			w.Write([]byte(`[{"lat":"48.8566","lon":"2.3522"}]`))
			return
		}
		w.Write([]byte(`[]`))
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func testConfig(t *testing.T, serverURL string) *cfg.Cfg {
	t.Helper()
	dir := t.TempDir()

	sources := filepath.Join(dir, "sources.txt")
	if err := os.WriteFile(sources, []byte("# test\n"+serverURL+"/rss\n"), 0644); err != nil {
		t.Fatal(err)
	}

	c, err := cfg.LoadArgs([]string{
		"--db-dsn", "file:" + filepath.Join(dir, "test.db"),
		"--sources-file", sources,
		"--nominatim-url", serverURL,
	})
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	return c
}

func TestNew_IngestAndHeatmap(t *testing.T) {
	server := newTestFeedServer(t)
	ctx := context.Background()

	app, err := New(ctx, testConfig(t, server.URL))
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	defer app.Close()

	if app.Cache != nil {
		t.Error("Expected no cache without Redis address")
	}

	report := app.Pipeline.Run(ctx)
	if report.Saved != 1 {
		t.Fatalf("Expected 1 saved article, got %d (errors: %v)", report.Saved, report.Errors)
	}
	if report.Stale != 1 {
		t.Errorf("Expected 1 stale article, got %d", report.Stale)
	}

	again := app.Pipeline.Run(ctx)
	if again.Saved != 0 || again.Duplicates != 1 {
		t.Errorf("Expected second run to find a duplicate, got saved=%d duplicates=%d", again.Saved, again.Duplicates)
	}

	h, err := app.Heatmap.Build(ctx)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(h.Points) != 1 || h.Points[0].Location != "Paris" {
		t.Fatalf("Expected a single Paris point, got %+v", h.Points)
	}
	if h.Points[0].Coordinates == nil || h.Points[0].Coordinates.Latitude != 48.8566 {
		t.Errorf("Expected geocoded coordinates, got %+v", h.Points[0].Coordinates)
	}

	cached, err := app.Locations.Get(ctx, "Paris")
	if err != nil || cached == nil {
		t.Errorf("Expected Paris in the location cache, got %+v (err=%v)", cached, err)
	}
}

func TestNew_InvalidDriver(t *testing.T) {
	c := testConfig(t, "http://127.0.0.1:1")
	c.DBDriver = "oracle"

	if _, err := New(context.Background(), c); err == nil {
		t.Error("Expected error for unsupported database driver")
	}
}
