package server

import (
	"fmt"
	"net/http"

	"github.com/gin-contrib/static"
	"github.com/gin-gonic/gin"

	"dino-analyzer/internal/shared/config"
	"dino-analyzer/internal/shared/metrics"
	"dino-analyzer/internal/shared/server/middleware"
	"dino-analyzer/internal/shared/server/respond"
	"dino-analyzer/internal/web"
)

const analyzeRateLimitGroup = "ANALYZE"

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(cfg config.Config, h *web.Handler) (*gin.Engine, error) {
	if gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(cfg.CORSAllowOrigin),
	)
	if cfg.AnalyzeRate > 0 {
		r.Use(middleware.RateLimit(middleware.RateLimitConfig{
			GroupFor: analyzeGroup,
			Rules: map[string]middleware.RateLimitRule{
				analyzeRateLimitGroup: middleware.PerMinute(cfg.AnalyzeRate, cfg.AnalyzeBurst),
			},
		}))
	}

	tmpl, err := web.Templates()
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	r.SetHTMLTemplate(tmpl)

	assets, err := web.StaticFiles()
	if err != nil {
		return nil, fmt.Errorf("static assets: %w", err)
	}
	r.Use(static.Serve(web.StaticPrefix, assets))

	h.RegisterPages(r)
	api := r.Group("/api/v1")
	h.RegisterAPI(api)
	r.GET("/metrics", metrics.Handler())

	r.NoRoute(func(c *gin.Context) {
		respond.Error(c, http.StatusNotFound, respond.CodeNotFound, "Страница не найдена", nil)
	})

	return r, nil
}

// analyzeGroup puts the two analysis routes in their own rate limit bucket.
func analyzeGroup(c *gin.Context) string {
	if c.Request.Method != http.MethodPost {
		return ""
	}
	switch c.FullPath() {
	case "/analyze", "/api/v1/analyses":
		return analyzeRateLimitGroup
	}
	return ""
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8501"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
