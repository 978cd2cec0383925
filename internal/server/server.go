package server

import (
	"net/http"
	"net/http/pprof"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/ZanzyTHEbar/review-sentiment/docs"
	"github.com/ZanzyTHEbar/review-sentiment/internal/cache"
	"github.com/ZanzyTHEbar/review-sentiment/internal/database"
	"github.com/ZanzyTHEbar/review-sentiment/internal/middleware"
	apperrors "github.com/ZanzyTHEbar/review-sentiment/internal/errors"
	"github.com/ZanzyTHEbar/review-sentiment/internal/monitoring"
	"github.com/ZanzyTHEbar/review-sentiment/internal/ratelimit"
	"github.com/ZanzyTHEbar/review-sentiment/internal/security"
	"github.com/ZanzyTHEbar/review-sentiment/internal/service"
)

// Version is reported by the health endpoint
const Version = "1.0.0"

// Options carries everything the HTTP layer needs
type Options struct {
	Service     *service.Service
	Corpus      *database.CorpusService
	DB          *database.DB
	Cache       *cache.Cache
	Limiter     *ratelimit.RateLimiter
	Security    *security.SecurityMiddleware
	Compression *middleware.CompressionMiddleware
	Metrics     *monitoring.Metrics
	Prometheus  *monitoring.Prometheus
	Logger      *monitoring.Logger

	AllowedOrigins  []string
	EnableHSTS      bool
	EnableProfiling bool
}

// Server is the review sentiment HTTP API
type Server struct {
	opts   Options
	router *gin.Engine
}

// New builds the router. Cached analyze responses are dropped whenever a
// new model is swapped in.
func New(opts Options) *Server {
	if opts.Security == nil {
		opts.Security = security.NewSecurityMiddleware(security.DefaultSecurityConfig())
	}
	if opts.Metrics == nil {
		opts.Metrics = monitoring.NewMetrics()
	}
	if opts.Compression == nil {
		opts.Compression = middleware.NewCompressionMiddleware(middleware.DefaultCompressionConfig())
	}
	s := &Server{opts: opts}

	if opts.Cache != nil {
		opts.Service.Holder().OnSwap(opts.Cache.Clear)
	}

	s.router = s.routes()
	return s
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()

	r.Use(monitoring.RequestIDMiddleware())
	r.Use(monitoring.MonitoringMiddleware(s.opts.Metrics, s.opts.Logger))
	r.Use(monitoring.SecurityMonitoringMiddleware(s.opts.Logger))
	r.Use(apperrors.ErrorHandler())
	r.Use(apperrors.RecoveryHandler())
	r.Use(corsMiddleware(s.opts.AllowedOrigins))
	r.Use(security.SecurityHeadersMiddleware(s.opts.EnableHSTS))

	r.GET("/health", s.handleHealth)
	r.GET("/stats", s.handleStats)
	if s.opts.Prometheus != nil {
		r.GET("/metrics", gin.WrapH(s.opts.Prometheus.Handler()))
	}
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	if s.opts.EnableProfiling {
		r.GET("/debug/pprof/*filepath", handleProfile)
	}

	api := r.Group("/api/v1")
	if s.opts.Limiter != nil {
		api.Use(s.opts.Limiter.IPRateLimitMiddleware())
	}
	api.Use(s.opts.Compression.Handler())
	api.Use(s.opts.Security.ValidateContentType)
	api.Use(s.opts.Security.RequestTimeout)

	analyze := []gin.HandlerFunc{}
	if s.opts.Cache != nil {
		analyze = append(analyze, s.opts.Cache.Middleware(s.opts.Metrics, s.opts.Logger))
	}
	api.POST("/analyze", append(analyze, s.handleAnalyze)...)
	api.POST("/analyze/batch", s.handleBatchAnalyze)
	api.POST("/aspects", s.handleScoreAspects)
	api.GET("/aspects", s.handleListAspects)
	api.POST("/reconcile", s.handleReconcile)
	api.GET("/history", s.handleHistory)
	api.POST("/reviews", s.handleAddReviews)
	api.GET("/reviews/stats", s.handleCorpusStats)

	train := []gin.HandlerFunc{}
	if s.opts.Limiter != nil {
		train = append(train, s.opts.Limiter.TrainRateLimitMiddleware())
	}
	api.POST("/model/train", append(train, s.handleTrain)...)
	api.GET("/model", s.handleModelStatus)

	return r
}

// handleProfile serves net/http/pprof under one catch-all route
func handleProfile(c *gin.Context) {
	switch strings.TrimPrefix(c.Param("filepath"), "/") {
	case "cmdline":
		pprof.Cmdline(c.Writer, c.Request)
	case "profile":
		pprof.Profile(c.Writer, c.Request)
	case "symbol":
		pprof.Symbol(c.Writer, c.Request)
	case "trace":
		pprof.Trace(c.Writer, c.Request)
	default:
		pprof.Index(c.Writer, c.Request)
	}
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	config := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", monitoring.RequestIDHeader},
		ExposeHeaders: []string{monitoring.RequestIDHeader, "X-Cache", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "Retry-After"},
		MaxAge:        12 * time.Hour,
	}

	for _, o := range origins {
		if o == "*" {
			config.AllowAllOrigins = true
			return cors.New(config)
		}
	}
	if len(origins) == 0 {
		config.AllowAllOrigins = true
		return cors.New(config)
	}

	config.AllowOrigins = origins
	return cors.New(config)
}
