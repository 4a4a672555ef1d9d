package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mlundberg/borsradar/internal/adapters/catalog"
	"github.com/mlundberg/borsradar/internal/adapters/config"
	"github.com/mlundberg/borsradar/internal/adapters/database"
	"github.com/mlundberg/borsradar/internal/adapters/news"
	"github.com/mlundberg/borsradar/internal/dedup"
	"github.com/mlundberg/borsradar/internal/pipeline"
	"github.com/mlundberg/borsradar/internal/results"
	"github.com/mlundberg/borsradar/internal/stream"
	"github.com/mlundberg/borsradar/pkg/logger"
)

// Deps carries the wired components the API serves. db, repo, catalog
// and scraper may be nil when the corresponding capability is not
// configured; affected endpoints answer 503.
type Deps struct {
	DB       *database.DB
	Runner   *pipeline.Runner
	Catalog  catalog.Provider
	Repo     *results.Repository
	Files    *results.FileSink
	Dedupe   dedup.Store
	Scraper  *news.Scraper
	Articles *news.Cache
	Hub      *stream.Hub
}

// Server is the REST + WebSocket front of the service
type Server struct {
	cfg    *config.Config
	deps   Deps
	engine *gin.Engine
	http   *http.Server
}

// NewServer builds the router and handlers
func NewServer(cfg *config.Config, deps Deps) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	corsCfg := cors.DefaultConfig()
	corsCfg.AllowOrigins = cfg.Server.CORSOrigins
	if len(corsCfg.AllowOrigins) == 1 && corsCfg.AllowOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowOrigins = nil
	}
	engine.Use(cors.New(corsCfg))

	s := &Server{cfg: cfg, deps: deps, engine: engine}
	s.routes()

	s.http = &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	return s
}

func (s *Server) routes() {
	s.engine.GET("/health", s.handleHealth)
	s.engine.GET("/ready", s.handleReady)

	api := s.engine.Group("/api")
	{
		api.GET("/podcasts", s.handlePodcasts)
		api.GET("/podcasts/:name/episodes", s.handleEpisodes)
		api.POST("/analyze/podcast", s.handleAnalyzePodcast)
		api.POST("/analyze/episode/:id", s.handleAnalyzeEpisode)
		api.GET("/results/latest", s.handleLatestResults)
		api.GET("/results/podcast/:name", s.handleShowResults)
		api.GET("/results/episode/:id", s.handleItemResult)
		api.GET("/stock/:name", s.handleStockSearch)
		api.GET("/stocks/trending", s.handleTrending)
		api.GET("/articles", s.handleArticles)
		api.GET("/articles/:id", s.handleArticle)
		api.GET("/refresh-articles", s.handleRefreshArticles)
	}

	if s.deps.Hub != nil {
		s.engine.GET("/ws/mentions", gin.WrapH(s.deps.Hub))
	}
}

// Handler exposes the router for tests
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until the listener fails or Shutdown is called
func (s *Server) Run() error {
	logger.Info("http server listening",
		zap.String("addr", s.http.Addr),
	)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the server gracefully
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
