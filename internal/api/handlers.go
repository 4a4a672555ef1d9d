package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mlundberg/borsradar/internal/pipeline"
	"github.com/mlundberg/borsradar/pkg/logger"
	"github.com/mlundberg/borsradar/pkg/models"
)

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleReady(c *gin.Context) {
	if s.deps.DB != nil {
		if err := s.deps.DB.Health(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "database": err.Error()})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

func (s *Server) handlePodcasts(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"podcasts":        s.cfg.Podcasts.Shows,
		"catalog_enabled": s.deps.Catalog != nil,
	})
}

type episodeView struct {
	models.ContentItem
	IsAnalyzed bool `json:"is_analyzed"`
}

func (s *Server) handleEpisodes(c *gin.Context) {
	if s.deps.Catalog == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "podcast catalog is not configured"})
		return
	}

	name := c.Param("name")
	max := intQuery(c, "max", s.cfg.Podcasts.MaxEpisodes)

	episodes, err := s.deps.Catalog.Episodes(c.Request.Context(), name, max)
	if err != nil {
		logger.Warn("episode listing failed",
			zap.String("show", name),
			zap.Error(err),
		)
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to list episodes"})
		return
	}

	views := make([]episodeView, 0, len(episodes))
	for _, ep := range episodes {
		analyzed, err := s.deps.Dedupe.HasAnalyzed(c.Request.Context(), ep.ItemID)
		if err != nil {
			analyzed = false
		}
		views = append(views, episodeView{ContentItem: ep, IsAnalyzed: analyzed})
	}

	c.JSON(http.StatusOK, gin.H{"podcast": name, "episodes": views})
}

type analyzeRequest struct {
	PodcastName string `json:"podcast_name" binding:"required"`
	MaxEpisodes int    `json:"max_episodes"`
}

func (s *Server) handleAnalyzePodcast(c *gin.Context) {
	if s.deps.Catalog == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "podcast catalog is not configured"})
		return
	}

	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "podcast_name is required"})
		return
	}
	if req.MaxEpisodes <= 0 {
		req.MaxEpisodes = s.cfg.Podcasts.MaxEpisodes
	}

	episodes, err := s.deps.Catalog.Episodes(c.Request.Context(), req.PodcastName, req.MaxEpisodes)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to list episodes"})
		return
	}

	// The runner is reserved before the 202 goes out, so a second
	// request racing this one gets a definitive 409.
	if err := s.deps.Runner.RunAsync(episodes, req.MaxEpisodes); err != nil {
		if errors.Is(err, pipeline.ErrBusy) {
			c.JSON(http.StatusConflict, gin.H{"error": "an analysis batch is already running"})
			return
		}
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"status":   "started",
		"podcast":  req.PodcastName,
		"episodes": len(episodes),
	})
}

func (s *Server) handleAnalyzeEpisode(c *gin.Context) {
	if s.deps.Catalog == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "podcast catalog is not configured"})
		return
	}

	itemID := c.Param("id")
	item, found := s.findEpisode(c.Request.Context(), itemID)
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "episode not found"})
		return
	}

	result, err := s.deps.Runner.RunOne(c.Request.Context(), item)
	if err != nil {
		if errors.Is(err, pipeline.ErrBusy) {
			c.JSON(http.StatusConflict, gin.H{"error": "an analysis batch is already running"})
			return
		}
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"item": item, "result": result})
}

// findEpisode locates an item id among the configured shows' recent
// episodes.
func (s *Server) findEpisode(ctx context.Context, itemID string) (models.ContentItem, bool) {
	for _, show := range s.cfg.Podcasts.Shows {
		episodes, err := s.deps.Catalog.Episodes(ctx, show, s.cfg.Podcasts.MaxEpisodes)
		if err != nil {
			continue
		}
		for _, ep := range episodes {
			if ep.ItemID == itemID {
				return ep, true
			}
		}
	}
	return models.ContentItem{}, false
}

func (s *Server) handleLatestResults(c *gin.Context) {
	if s.deps.Repo == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "database is not configured"})
		return
	}

	items, err := s.deps.Repo.Latest(c.Request.Context(), intQuery(c, "limit", 20))
	if err != nil {
		logger.Warn("latest results query failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": items})
}

func (s *Server) handleShowResults(c *gin.Context) {
	if s.deps.Repo == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "database is not configured"})
		return
	}

	name := c.Param("name")
	items, err := s.deps.Repo.ByShow(c.Request.Context(), name, intQuery(c, "limit", 50))
	if err != nil {
		logger.Warn("show results query failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"podcast": name, "results": items})
}

func (s *Server) handleItemResult(c *gin.Context) {
	itemID := c.Param("id")

	if s.deps.Repo != nil {
		if item, err := s.deps.Repo.ByItem(c.Request.Context(), itemID); err == nil {
			c.JSON(http.StatusOK, item)
			return
		}
	}

	// File fallback keeps the read path alive without a database.
	if result, ok := s.deps.Files.Load(itemID); ok {
		c.JSON(http.StatusOK, gin.H{"result": result})
		return
	}
	c.JSON(http.StatusNotFound, gin.H{"error": "no analysis for item"})
}

func (s *Server) handleStockSearch(c *gin.Context) {
	if s.deps.Repo == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "database is not configured"})
		return
	}

	q := models.MentionQuery{
		Stock: c.Param("name"),
		Days:  intQuery(c, "days", 30),
		Limit: intQuery(c, "limit", 100),
	}

	hits, err := s.deps.Repo.SearchMentions(c.Request.Context(), q)
	if err != nil {
		logger.Warn("mention search failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"stock": q.Stock, "days": q.Days, "mentions": hits})
}

func (s *Server) handleTrending(c *gin.Context) {
	if s.deps.Repo == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "database is not configured"})
		return
	}

	days := intQuery(c, "days", 7)
	trending, err := s.deps.Repo.Trending(c.Request.Context(), days, intQuery(c, "limit", 10))
	if err != nil {
		logger.Warn("trending query failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"days": days, "stocks": trending})
}

func (s *Server) handleArticles(c *gin.Context) {
	articles, err := s.loadArticles(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	skip := intQuery(c, "skip", 0)
	limit := intQuery(c, "limit", 20)

	if skip > len(articles) {
		skip = len(articles)
	}
	end := skip + limit
	if end > len(articles) {
		end = len(articles)
	}

	c.JSON(http.StatusOK, gin.H{
		"total":    len(articles),
		"articles": articles[skip:end],
	})
}

func (s *Server) handleArticle(c *gin.Context) {
	articles, err := s.loadArticles(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	id := c.Param("id")
	for _, article := range articles {
		if article.ItemID == id {
			c.JSON(http.StatusOK, article)
			return
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"error": "article not found"})
}

func (s *Server) handleRefreshArticles(c *gin.Context) {
	if s.deps.Scraper == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "news scraping is not configured"})
		return
	}

	s.deps.Articles.Invalidate()
	articles, err := s.loadArticles(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	limit := intQuery(c, "limit", len(articles))
	if limit > len(articles) {
		limit = len(articles)
	}
	c.JSON(http.StatusOK, gin.H{"refreshed": true, "articles": articles[:limit]})
}

// loadArticles serves from the TTL cache, scraping on a miss
func (s *Server) loadArticles(ctx context.Context) ([]models.ContentItem, error) {
	if articles, ok := s.deps.Articles.Get(); ok {
		return articles, nil
	}
	if s.deps.Scraper == nil {
		return nil, errors.New("news scraping is not configured")
	}

	articles, err := s.deps.Scraper.Articles(ctx)
	if err != nil {
		return nil, errors.New("failed to fetch articles")
	}
	s.deps.Articles.Set(articles)
	return articles, nil
}

func intQuery(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return fallback
	}
	return v
}
