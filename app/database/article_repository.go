package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
)

var articleColumns = []string{
	"id", "title", "locations", "image_url", "description",
	"sentiment", "url", "source", "published_at", "created_at",
}

const newestFirst = "COALESCE(published_at, created_at) DESC, id DESC"

// SQLArticleRepository handles database operations for news articles
type SQLArticleRepository struct {
	db *DB
}

// NewArticleRepository creates a new article repository
func NewArticleRepository(db *DB) *SQLArticleRepository {
	return &SQLArticleRepository{db: db}
}

func (r *SQLArticleRepository) ExistsByURL(ctx context.Context, url string) (bool, error) {
	return r.exists(ctx, sq.Eq{"url": url})
}

func (r *SQLArticleRepository) ExistsByTitle(ctx context.Context, title string) (bool, error) {
	return r.exists(ctx, sq.Eq{"title": title})
}

func (r *SQLArticleRepository) exists(ctx context.Context, pred sq.Eq) (bool, error) {
	query, args, err := r.db.builder().
		Select("1").
		From("news").
		Where(pred).
		Limit(1).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("failed to build query: %w", err)
	}

	var one int
	err = r.db.QueryRowContext(ctx, query, args...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check existing article: %w", err)
	}
	return true, nil
}

// Insert stores an article and returns its id. Times are stored in UTC.
func (r *SQLArticleRepository) Insert(ctx context.Context, article Article) (int64, error) {
	locations, err := encodeLocations(article.Locations)
	if err != nil {
		return 0, err
	}

	var published any
	if article.PublishedAt != nil {
		published = article.PublishedAt.UTC().Truncate(time.Second)
	}

	createdAt := article.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	query, args, err := r.db.builder().
		Insert("news").
		Columns("title", "locations", "image_url", "description", "sentiment", "url", "source", "published_at", "created_at").
		Values(
			article.Title,
			locations,
			nullString(article.ImageURL),
			nullString(article.Description),
			nullFloat(article.Sentiment),
			article.URL,
			nullString(article.Source),
			published,
			createdAt.UTC().Truncate(time.Second),
		).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build insert: %w", err)
	}

	var id int64
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to insert article: %w", err)
	}

	return id, nil
}

// SelectForHeatmap returns every article's title, locations and sentiment, newest first.
func (r *SQLArticleRepository) SelectForHeatmap(ctx context.Context) ([]HeatmapRow, error) {
	query, args, err := r.db.builder().
		Select("title", "locations", "sentiment").
		From("news").
		OrderBy(newestFirst).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query heatmap rows: %w", err)
	}
	defer rows.Close()

	var result []HeatmapRow
	for rows.Next() {
		var (
			row       HeatmapRow
			locations string
			sentiment sql.NullFloat64
		)
		if err := rows.Scan(&row.Title, &locations, &sentiment); err != nil {
			return nil, fmt.Errorf("failed to scan heatmap row: %w", err)
		}
		if row.Locations, err = decodeLocations(locations); err != nil {
			return nil, err
		}
		if sentiment.Valid {
			v := sentiment.Float64
			row.Sentiment = &v
		}
		result = append(result, row)
	}

	return result, rows.Err()
}

// Latest returns the newest articles.
func (r *SQLArticleRepository) Latest(ctx context.Context, limit int) ([]Article, error) {
	return r.selectArticles(ctx, nil, limit)
}

// Search returns the newest articles whose locations contain location exactly.
func (r *SQLArticleRepository) Search(ctx context.Context, location string, limit int) ([]Article, error) {
	var pred sq.Sqlizer
	if r.db.Dialect == DialectPostgres {
		needle, err := encodeLocations([]string{location})
		if err != nil {
			return nil, err
		}
		pred = sq.Expr("locations @> ?::jsonb", needle)
	} else {
		pred = sq.Expr("EXISTS (SELECT 1 FROM json_each(news.locations) WHERE json_each.value = ?)", location)
	}
	return r.selectArticles(ctx, pred, limit)
}

func (r *SQLArticleRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM news").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count articles: %w", err)
	}
	return count, nil
}

func (r *SQLArticleRepository) selectArticles(ctx context.Context, pred sq.Sqlizer, limit int) ([]Article, error) {
	builder := r.db.builder().
		Select(articleColumns...).
		From("news").
		OrderBy(newestFirst)
	if pred != nil {
		builder = builder.Where(pred)
	}
	if limit > 0 {
		builder = builder.Limit(uint64(limit))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query articles: %w", err)
	}
	defer rows.Close()

	var articles []Article
	for rows.Next() {
		article, err := scanArticle(rows)
		if err != nil {
			return nil, err
		}
		articles = append(articles, article)
	}

	return articles, rows.Err()
}

func scanArticle(rows *sql.Rows) (Article, error) {
	var (
		article     Article
		locations   string
		imageURL    sql.NullString
		description sql.NullString
		sentiment   sql.NullFloat64
		source      sql.NullString
		publishedAt sql.NullTime
	)

	err := rows.Scan(
		&article.ID, &article.Title, &locations, &imageURL, &description,
		&sentiment, &article.URL, &source, &publishedAt, &article.CreatedAt,
	)
	if err != nil {
		return Article{}, fmt.Errorf("failed to scan article: %w", err)
	}

	if article.Locations, err = decodeLocations(locations); err != nil {
		return Article{}, err
	}
	article.ImageURL = imageURL.String
	article.Description = description.String
	article.Source = source.String
	if sentiment.Valid {
		v := sentiment.Float64
		article.Sentiment = &v
	}
	if publishedAt.Valid {
		t := publishedAt.Time.UTC()
		article.PublishedAt = &t
	}
	article.CreatedAt = article.CreatedAt.UTC()

	return article, nil
}

func encodeLocations(locations []string) (string, error) {
	if locations == nil {
		locations = []string{}
	}
	data, err := json.Marshal(locations)
	if err != nil {
		return "", fmt.Errorf("failed to encode locations: %w", err)
	}
	return string(data), nil
}

func decodeLocations(raw string) ([]string, error) {
	if raw == "" {
		return nil, nil
	}
	var locations []string
	if err := json.Unmarshal([]byte(raw), &locations); err != nil {
		return nil, fmt.Errorf("failed to decode locations: %w", err)
	}
	return locations, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}
