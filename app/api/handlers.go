package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lysyi3m/world-on-fire/app/cache"
	"github.com/lysyi3m/world-on-fire/app/database"
	"github.com/lysyi3m/world-on-fire/app/heatmap"
	"github.com/lysyi3m/world-on-fire/app/places"
	"github.com/lysyi3m/world-on-fire/app/tasks"
)

const (
	defaultNewsLimit = 10
	maxNewsLimit     = 100
	feedItemLimit    = 50
)

func NewHandler(articles ArticleReader, heatmap HeatmapBuilder, ingester Ingester, cache ResponseCache,
	catalog PlaceCatalog, generator GeneratorInterface, cacheTTL time.Duration) *Handler {
	return &Handler{
		articles:  articles,
		heatmap:   heatmap,
		ingester:  ingester,
		cache:     cache,
		catalog:   catalog,
		generator: generator,
		cacheTTL:  cacheTTL,
	}
}

func (h *Handler) GetHealth(c *gin.Context) {
	ctx := c.Request.Context()
	health := map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
	}

	if count, err := h.articles.Count(ctx); err == nil {
		health["articles"] = count
	} else {
		slog.Error("Database error", "operation", "count_articles", "error", err)
		health["status"] = "degraded"
	}

	health["tracked_places"] = h.catalog.Count()
	health["cache"] = h.cache.Health(ctx)

	c.JSON(http.StatusOK, health)
}

func (h *Handler) GetLatest(c *gin.Context) {
	limit, ok := parseLimit(c)
	if !ok {
		return
	}

	key := cache.Key("news:latest", strconv.Itoa(limit))
	h.cachedNews(c, key, "", func() ([]database.Article, error) {
		return h.articles.Latest(c.Request.Context(), limit)
	})
}

func (h *Handler) GetSearch(c *gin.Context) {
	location := places.DisplayName(c.Query("location"))
	if location == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing location parameter"})
		return
	}

	limit, ok := parseLimit(c)
	if !ok {
		return
	}

	key := cache.Key("news:search", location, strconv.Itoa(limit))
	h.cachedNews(c, key, location, func() ([]database.Article, error) {
		return h.articles.Search(c.Request.Context(), location, limit)
	})
}

func (h *Handler) GetHeatmap(c *gin.Context) {
	ctx := c.Request.Context()
	key := cache.Key("heatmap")

	var cached heatmap.Heatmap
	found, err := h.cache.GetJSON(ctx, key, &cached)
	if err != nil {
		slog.Warn("Cache read failed", "key", key, "error", err)
	}
	if found {
		c.Header("X-Cache", "HIT")
		c.JSON(http.StatusOK, cached)
		return
	}

	result, err := h.heatmap.Build(ctx)
	if err != nil {
		slog.Error("Heatmap build error", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build heatmap"})
		return
	}

	// Unresolved places may geocode on the next request.
	if result.Stats.Unresolved == 0 {
		if err := h.cache.SetJSON(ctx, key, result, h.cacheTTL); err != nil {
			slog.Warn("Cache write failed", "key", key, "error", err)
		}
	}

	c.Header("X-Cache", "MISS")
	c.JSON(http.StatusOK, result)
}

func (h *Handler) GetFeed(c *gin.Context) {
	ctx := c.Request.Context()
	location := places.DisplayName(c.Query("location"))

	var (
		articles []database.Article
		err      error
	)
	if location != "" {
		articles, err = h.articles.Search(ctx, location, feedItemLimit)
	} else {
		articles, err = h.articles.Latest(ctx, feedItemLimit)
	}
	if err != nil {
		slog.Error("Database error", "operation", "feed_articles", "location", location, "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	rss, err := h.generator.Run(location, articles)
	if err != nil {
		slog.Error("RSS generation error", "location", location, "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	c.Header("Content-Type", "application/xml; charset=utf-8")
	c.Header("X-Feed-Items", strconv.Itoa(len(articles)))

	c.String(http.StatusOK, rss)
}

// APIIngest runs one ingestion synchronously and returns its report.
// It answers 409 while a scheduled ingestion is pending.
func (h *Handler) APIIngest(c *gin.Context) {
	report, err := h.ingester.RunIngest(c.Request.Context(), "api")
	if errors.Is(err, tasks.ErrIngestRunning) {
		c.JSON(http.StatusConflict, gin.H{"error": "Ingestion already running"})
		return
	}
	if err != nil {
		slog.Error("Ingestion failed", "trigger", "api", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ingestion failed"})
		return
	}

	c.JSON(http.StatusOK, report)
}

func (h *Handler) cachedNews(c *gin.Context, key, location string, load func() ([]database.Article, error)) {
	ctx := c.Request.Context()

	var cached NewsResponse
	found, err := h.cache.GetJSON(ctx, key, &cached)
	if err != nil {
		slog.Warn("Cache read failed", "key", key, "error", err)
	}
	if found {
		c.Header("X-Cache", "HIT")
		c.JSON(http.StatusOK, cached)
		return
	}

	articles, err := load()
	if err != nil {
		slog.Error("Database error", "operation", "load_news", "location", location, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	response := NewsResponse{Location: location, Count: len(articles), Items: make([]NewsItem, 0, len(articles))}
	for _, a := range articles {
		response.Items = append(response.Items, newNewsItem(a))
	}

	if err := h.cache.SetJSON(ctx, key, response, h.cacheTTL); err != nil {
		slog.Warn("Cache write failed", "key", key, "error", err)
	}

	c.Header("X-Cache", "MISS")
	c.JSON(http.StatusOK, response)
}

func parseLimit(c *gin.Context) (int, bool) {
	raw := strings.TrimSpace(c.Query("limit"))
	if raw == "" {
		return defaultNewsLimit, true
	}

	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 1 || limit > maxNewsLimit {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be between 1 and " + strconv.Itoa(maxNewsLimit)})
		return 0, false
	}
	return limit, true
}
