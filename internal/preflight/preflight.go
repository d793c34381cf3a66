// Package preflight decides whether the web process may start.
package preflight

import (
	"fmt"
	"strconv"
	"strings"

	"dino-analyzer/internal/shared/config"
	"dino-analyzer/internal/web"
)

// Problem codes.
const (
	ProblemEnvironmentMissing = "environment_missing"
	ProblemConfigInvalid      = "config_invalid"
	ProblemAssetsInvalid      = "assets_invalid"
)

// Problem is one reason the launcher refuses to start.
type Problem struct {
	Code    string
	Message string
}

// Report collects every problem found by Check.
type Report struct {
	EnvFile  string
	Problems []Problem
}

// OK reports whether the web process may start.
func (r Report) OK() bool {
	return len(r.Problems) == 0
}

// LookupFunc reads the process environment; os.LookupEnv in production.
type LookupFunc func(key string) (string, bool)

// Check validates the environment, the configuration and the embedded assets.
func Check(cfg config.Config, lookup LookupFunc) Report {
	envFile := cfg.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	r := Report{EnvFile: envFile}

	if !environmentConfigured(cfg, lookup) {
		r.add(ProblemEnvironmentMissing, fmt.Sprintf("файл %s не найден и переменная GEMINI_API_KEY не задана", envFile))
	}
	for _, msg := range configProblems(cfg) {
		r.add(ProblemConfigInvalid, msg)
	}
	if err := checkAssets(); err != nil {
		r.add(ProblemAssetsInvalid, err.Error())
	}
	return r
}

func (r *Report) add(code, msg string) {
	r.Problems = append(r.Problems, Problem{Code: code, Message: msg})
}

func environmentConfigured(cfg config.Config, lookup LookupFunc) bool {
	if cfg.EnvFileLoaded {
		return true
	}
	if lookup == nil {
		return false
	}
	v, ok := lookup("GEMINI_API_KEY")
	return ok && strings.TrimSpace(v) != ""
}

func configProblems(cfg config.Config) []string {
	var out []string
	if cfg.MaxUploadBytes <= 0 {
		out = append(out, "MAX_UPLOAD_BYTES должен быть больше нуля")
	}
	if cfg.MaxImagePixels <= 0 {
		out = append(out, "MAX_IMAGE_PIXELS должен быть больше нуля")
	}
	if cfg.ImageMaxWidth <= 0 || cfg.ImageMaxHeight <= 0 {
		out = append(out, "IMAGE_MAX_WIDTH и IMAGE_MAX_HEIGHT должны быть больше нуля")
	}
	if cfg.JPEGQuality < 1 || cfg.JPEGQuality > 100 {
		out = append(out, "IMAGE_JPEG_QUALITY должен быть в диапазоне 1..100")
	}
	if strings.TrimSpace(cfg.GeminiModel) == "" {
		out = append(out, "GEMINI_MODEL не может быть пустым")
	}
	if cfg.Temperature < 0 || cfg.Temperature > 2 {
		out = append(out, "GEMINI_TEMPERATURE должен быть в диапазоне 0..2")
	}
	if cfg.LLMTimeout <= 0 {
		out = append(out, "GEMINI_TIMEOUT должен быть больше нуля")
	}
	if !validPort(cfg.Port) {
		out = append(out, fmt.Sprintf("PORT %q не является корректным портом", cfg.Port))
	}
	if cfg.AnalyzeRate < 0 {
		out = append(out, "ANALYZE_RATE_PER_MINUTE не может быть отрицательным")
	}
	if cfg.AnalyzeRate > 0 && cfg.AnalyzeBurst <= 0 {
		out = append(out, "ANALYZE_RATE_BURST должен быть больше нуля при включенном ограничении")
	}
	return out
}

func validPort(raw string) bool {
	p, err := strconv.Atoi(strings.TrimPrefix(strings.TrimSpace(raw), ":"))
	return err == nil && p >= 0 && p <= 65535
}

func checkAssets() error {
	tmpl, err := web.Templates()
	if err != nil {
		return fmt.Errorf("шаблоны не разобраны: %w", err)
	}
	if tmpl.Lookup(web.PageTemplate) == nil {
		return fmt.Errorf("шаблон %s не найден", web.PageTemplate)
	}
	if _, err := web.StaticFiles(); err != nil {
		return fmt.Errorf("статические файлы недоступны: %w", err)
	}
	return nil
}

// Instructions renders the problems and the setup steps for the terminal.
func (r Report) Instructions() string {
	var b strings.Builder
	b.WriteString("❌ DINO не может быть запущен:\n")
	for _, p := range r.Problems {
		fmt.Fprintf(&b, "  - [%s] %s\n", p.Code, p.Message)
	}
	b.WriteString("\nНастройка:\n")
	fmt.Fprintf(&b, "  1. Скопируйте .env.example в %s\n", r.EnvFile)
	b.WriteString("  2. Укажите GEMINI_API_KEY=<ваш ключ> (ключ можно получить на https://aistudio.google.com/app/apikey)\n")
	b.WriteString("  3. Проверьте значения остальных переменных в файле\n")
	b.WriteString("  4. Запустите снова: go run ./cmd/dino\n")
	return b.String()
}
