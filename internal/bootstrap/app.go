package bootstrap

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"

	"dino-analyzer/internal/analyzer"
	"dino-analyzer/internal/llm"
	"dino-analyzer/internal/llm/gemini"
	"dino-analyzer/internal/services/health"
	"dino-analyzer/internal/shared/config"
	"dino-analyzer/internal/shared/server"
	"dino-analyzer/internal/web"
)

// App holds shared dependencies.
type App struct {
	Config          config.Config
	Router          *gin.Engine
	LLM             llm.Client
	AnalyzerService *analyzer.Service
	HealthService   *health.Service
	WebHandler      *web.Handler
}

// Build prepares dependencies and the router with the Gemini client.
func Build(cfg config.Config) (*App, error) {
	return BuildWithLLM(cfg, nil)
}

// BuildWithLLM is Build with the model client replaced; nil selects Gemini.
// Tests use it to avoid network calls.
func BuildWithLLM(cfg config.Config, client llm.Client) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if client == nil {
		gc, err := gemini.NewClient(cfg.GeminiModel, cfg.Temperature)
		if err != nil {
			return nil, fmt.Errorf("gemini client: %w", err)
		}
		client = gc
	}

	svc := analyzer.NewService(cfg, client)
	healthSvc := health.NewService(cfg.GeminiModel, svc.HasServerKey)
	handler := web.NewHandler(svc, healthSvc, cfg.MaxUploadBytes)

	router, err := server.NewRouter(cfg, handler)
	if err != nil {
		return nil, err
	}

	return &App{
		Config:          cfg,
		Router:          router,
		LLM:             client,
		AnalyzerService: svc,
		HealthService:   healthSvc,
		WebHandler:      handler,
	}, nil
}
