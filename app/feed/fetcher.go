package feed

import (
	"context"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/lysyi3m/world-on-fire/app/config"
	"github.com/lysyi3m/world-on-fire/app/fetch"
)

const feedAccept = "application/rss+xml, application/atom+xml, application/xml;q=0.9, text/xml;q=0.8, */*;q=0.5"

type FetcherOptions struct {
	WorkerCount int
	Deadline    time.Duration
	FeedTimeout time.Duration
}

// Fetcher pulls every source through a bounded worker pool and merges the
// resulting articles by link.
type Fetcher struct {
	client    Getter
	parser    *Parser
	extractor PlaceExtractor
	filterer  *Filterer
	enricher  EnricherInterface
	opts      FetcherOptions
}

func NewFetcher(client Getter, parser *Parser, extractor PlaceExtractor, filterer *Filterer,
	enricher EnricherInterface, opts FetcherOptions) *Fetcher {
	if opts.WorkerCount < 1 {
		opts.WorkerCount = 1
	}
	return &Fetcher{
		client:    client,
		parser:    parser,
		extractor: extractor,
		filterer:  filterer,
		enricher:  enricher,
		opts:      opts,
	}
}

type sourceJob struct {
	index  int
	source config.Source
}

type sourceResult struct {
	index    int
	articles []Article
	entries  int
	dropped  int
	err      error
}

// Run fetches all sources. Sources still in flight when the deadline passes are
// abandoned and listed in FetchResult.Incomplete.
func (f *Fetcher) Run(ctx context.Context, sources []config.Source) *FetchResult {
	result := &FetchResult{}
	if len(sources) == 0 {
		return result
	}

	if f.opts.Deadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.opts.Deadline)
		defer cancel()
	}

	jobs := make(chan sourceJob)
	// Buffered so abandoned workers never block on send.
	results := make(chan sourceResult, len(sources))

	workers := min(f.opts.WorkerCount, len(sources))
	for i := 0; i < workers; i++ {
		go func() {
			for job := range jobs {
				results <- f.processSource(ctx, job)
			}
		}()
	}

	go func() {
		defer close(jobs)
		for i, source := range sources {
			select {
			case jobs <- sourceJob{index: i, source: source}:
			case <-ctx.Done():
				return
			}
		}
	}()

	merger := newMerger()
	done := make([]bool, len(sources))
	received := 0

collect:
	for received < len(sources) {
		select {
		case r := <-results:
			received++
			done[r.index] = true
			result.Entries += r.entries
			result.Dropped += r.dropped

			if r.err != nil {
				source := sources[r.index].Label()
				slog.Warn("Feed source failed", "source", source, "url", sources[r.index].URL, "error", r.err)
				result.Errors = append(result.Errors, SourceError{Source: source, Err: r.err})
				continue
			}
			for _, article := range r.articles {
				merger.add(article)
			}

		case <-ctx.Done():
			break collect
		}
	}

	for i, source := range sources {
		if !done[i] {
			result.Incomplete = append(result.Incomplete, source.URL)
		}
	}
	if len(result.Incomplete) > 0 {
		slog.Warn("Fetch deadline reached, sources abandoned", "incomplete", len(result.Incomplete), "deadline", f.opts.Deadline)
	}

	result.Articles = merger.articles
	return result
}

func (f *Fetcher) processSource(ctx context.Context, job sourceJob) sourceResult {
	res := sourceResult{index: job.index}

	data, err := f.client.Get(ctx, job.source.URL, fetch.Request{
		Timeout: f.opts.FeedTimeout,
		Accept:  feedAccept,
	})
	if err != nil {
		res.err = err
		return res
	}

	metadata, entries, err := f.parser.Run(data)
	if err != nil {
		res.err = err
		return res
	}

	sourceName := job.source.DisplayName(metadata.Title)
	res.entries = len(entries)

	for _, entry := range entries {
		if ctx.Err() != nil {
			break
		}

		article, ok := f.buildArticle(ctx, entry, sourceName)
		if !ok {
			res.dropped++
			continue
		}
		res.articles = append(res.articles, article)
	}

	slog.Debug("Feed source processed",
		"source", sourceName,
		"entries", res.entries,
		"kept", len(res.articles),
		"dropped", res.dropped)

	return res
}

// buildArticle extracts and filters places, enriching only entries that survive.
func (f *Fetcher) buildArticle(ctx context.Context, entry Entry, sourceName string) (Article, bool) {
	if entry.Link == "" {
		return Article{}, false
	}

	description := PlainText(entry.Description)
	content := PlainText(entry.Content)

	places := f.filterer.Run(f.extractor.Extract(entry.Title + " " + description + " " + content))
	if len(places) == 0 {
		return Article{}, false
	}

	summary := description
	if summary == "" {
		summary = content
	}

	article := Article{
		Title:       entry.Title,
		Link:        entry.Link,
		Source:      sourceName,
		Published:   entry.Published,
		PublishedAt: entry.PublishedAt,
		Summary:     truncateRunes(summary, SummaryLimit),
		ImageURL:    entry.ImageURL,
		Places:      places,
	}

	if f.enricher != nil && (article.ImageURL == "" || utf8.RuneCountInString(article.Summary) < ShortSummaryLen) {
		enrichment := f.enricher.Enrich(ctx, article.Link)
		if article.ImageURL == "" {
			article.ImageURL = enrichment.ImageURL
		}
		if utf8.RuneCountInString(article.Summary) < ShortSummaryLen && enrichment.Text != "" {
			article.Summary = truncateRunes(enrichment.Text, SummaryLimit)
		}
	}

	return article, true
}

// merger unions place sets of articles sharing a link, keeping first-seen order.
type merger struct {
	index    map[string]int
	articles []Article
}

func newMerger() *merger {
	return &merger{index: make(map[string]int)}
}

func (m *merger) add(article Article) {
	if i, ok := m.index[article.Link]; ok {
		m.articles[i].Places = m.articles[i].Places.Union(article.Places)
		return
	}
	m.index[article.Link] = len(m.articles)
	m.articles = append(m.articles, article)
}
