package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/lysyi3m/world-on-fire/app/database"
	"github.com/lysyi3m/world-on-fire/app/feed"
)

// Report summarises one ingestion run.
type Report struct {
	RunID      uuid.UUID     `json:"run_id"`
	StartedAt  time.Time     `json:"started_at"`
	Total      int           `json:"total"`
	Saved      int           `json:"saved"`
	Stale      int           `json:"stale"`
	Duplicates int           `json:"duplicates"`
	Skipped    int           `json:"skipped"`
	Incomplete []string      `json:"incomplete"`
	Errors     []string      `json:"errors"`
	Locations  []string      `json:"locations"`
	Duration   time.Duration `json:"duration_ns"`
}

// Pipeline runs load -> fetch -> gate -> score -> insert.
type Pipeline struct {
	loader  SourceLoader
	fetcher FeedFetcher
	gate    *Gate
	scorer  Scorer
	store   ArticleStore
	now     func() time.Time
}

func NewPipeline(loader SourceLoader, fetcher FeedFetcher, store ArticleStore, scorer Scorer, window time.Duration) *Pipeline {
	return &Pipeline{
		loader:  loader,
		fetcher: fetcher,
		gate:    NewGate(store, window),
		scorer:  scorer,
		store:   store,
		now:     time.Now,
	}
}

// Run performs one ingestion. Failures are recorded in the report; Run never
// aborts part-way because of a single source or article.
func (p *Pipeline) Run(ctx context.Context) *Report {
	start := p.now()
	report := &Report{
		RunID:      uuid.New(),
		StartedAt:  start.UTC(),
		Incomplete: []string{},
		Errors:     []string{},
		Locations:  []string{},
	}
	defer func() {
		report.Duration = time.Since(start)
	}()

	sources, err := p.loader.Load()
	if err != nil {
		slog.Error("Failed to load sources", "run_id", report.RunID, "error", err)
		report.Errors = append(report.Errors, fmt.Sprintf("Error loading sources: %v", err))
		return report
	}

	result := p.fetcher.Run(ctx, sources)
	report.Total = len(result.Articles)
	report.Incomplete = append(report.Incomplete, result.Incomplete...)
	for _, sourceErr := range result.Errors {
		report.Errors = append(report.Errors, fmt.Sprintf("Error fetching feed '%s': %v", sourceErr.Source, sourceErr.Err))
	}

	var locations feed.PlaceSet
	now := p.now()

	for _, article := range result.Articles {
		if ctx.Err() != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("Run cancelled: %v", ctx.Err()))
			break
		}

		verdict, err := p.gate.Check(ctx, article, now)
		if err != nil {
			p.recordFailure(report, article, err)
			continue
		}

		switch verdict {
		case Stale:
			report.Stale++
			continue
		case Duplicate:
			report.Duplicates++
			continue
		case NoPlaces, NoPublished:
			report.Skipped++
			slog.Debug("Article skipped", "title", article.Title, "reason", verdict)
			continue
		}

		if err := p.save(ctx, article); err != nil {
			p.recordFailure(report, article, err)
			continue
		}

		report.Saved++
		for _, place := range article.Places {
			locations = locations.Add(place)
		}
	}

	report.Locations = append(report.Locations, locations...)

	slog.Info("Ingestion completed",
		"run_id", report.RunID,
		"sources", len(sources),
		"total", report.Total,
		"saved", report.Saved,
		"stale", report.Stale,
		"duplicates", report.Duplicates,
		"incomplete", len(report.Incomplete),
		"errors", len(report.Errors),
		"duration", time.Since(start))

	return report
}

func (p *Pipeline) save(ctx context.Context, article feed.Article) error {
	score, err := p.scorer.Score(article.Title + " " + article.Summary)
	if err != nil {
		return fmt.Errorf("sentiment scoring failed: %w", err)
	}

	published := article.PublishedAt.UTC()
	_, err = p.store.Insert(ctx, database.Article{
		Title:       article.Title,
		Locations:   article.Places,
		ImageURL:    article.ImageURL,
		Description: article.Summary,
		Sentiment:   &score,
		URL:         article.Link,
		Source:      article.Source,
		PublishedAt: &published,
	})
	return err
}

func (p *Pipeline) recordFailure(report *Report, article feed.Article, err error) {
	slog.Error("Failed to save article", "run_id", report.RunID, "title", article.Title, "error", err)
	report.Errors = append(report.Errors, fmt.Sprintf("Error saving article '%s': %v", article.Title, err))
}
