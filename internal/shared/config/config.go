package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// PlaceholderAPIKey is the value shipped in .env.example; it counts as no key.
const PlaceholderAPIKey = "your_api_key_here"

// Config holds application configuration.
type Config struct {
	Port            string        `env:"PORT" envDefault:"8501"`
	Env             string        `env:"ENV" envDefault:"dev"`
	EnvFile         string        `env:"DINO_ENV_FILE" envDefault:".env"`
	CORSAllowOrigin []string      `env:"CORS_ALLOW_ORIGINS" envDefault:"http://localhost:8501" envSeparator:","`
	GeminiAPIKey    string        `env:"GEMINI_API_KEY"`
	GeminiModel     string        `env:"GEMINI_MODEL" envDefault:"gemini-1.5-flash-latest"`
	Temperature     float32       `env:"GEMINI_TEMPERATURE" envDefault:"0.2"`
	LLMTimeout      time.Duration `env:"GEMINI_TIMEOUT" envDefault:"60s"`
	MaxUploadBytes  int64         `env:"MAX_UPLOAD_BYTES" envDefault:"20971520"`
	MaxImagePixels  int           `env:"MAX_IMAGE_PIXELS" envDefault:"50000000"`
	ImageMaxWidth   int           `env:"IMAGE_MAX_WIDTH" envDefault:"1024"`
	ImageMaxHeight  int           `env:"IMAGE_MAX_HEIGHT" envDefault:"1024"`
	JPEGQuality     int           `env:"IMAGE_JPEG_QUALITY" envDefault:"85"`
	AnalyzeRate     float64       `env:"ANALYZE_RATE_PER_MINUTE" envDefault:"0"`
	AnalyzeBurst    int           `env:"ANALYZE_RATE_BURST" envDefault:"5"`

	// EnvFileLoaded reports whether the dotenv file was found during Load.
	EnvFileLoaded bool
}

// Load reads the dotenv file (if any) and then environment variables.
func Load() (Config, error) {
	path := envFilePath()
	loaded := loadEnvFile(path)

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.Env = normalizeEnv(cfg.Env)
	cfg.CORSAllowOrigin = splitAndTrim(cfg.CORSAllowOrigin)
	cfg.GeminiAPIKey = NormalizeAPIKey(cfg.GeminiAPIKey)
	cfg.GeminiModel = strings.TrimSpace(cfg.GeminiModel)
	cfg.EnvFile = path
	cfg.EnvFileLoaded = loaded
	return cfg, nil
}

// HasAPIKey reports whether a usable server-side key is configured.
func (c Config) HasAPIKey() bool {
	return c.GeminiAPIKey != ""
}

// NormalizeAPIKey trims the key and maps the example placeholder to "".
func NormalizeAPIKey(raw string) string {
	key := strings.TrimSpace(raw)
	if key == PlaceholderAPIKey {
		return ""
	}
	return key
}

func splitAndTrim(raw []string) []string {
	var out []string
	for _, p := range raw {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	default:
		return "dev"
	}
}
