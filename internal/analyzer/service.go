// Package analyzer runs one figurine analysis: key resolution, image
// preparation, the model call and strict validation of its answer.
package analyzer

import (
	"context"
	"fmt"
	"time"

	"dino-analyzer/internal/dinosaur"
	"dino-analyzer/internal/imageprep"
	"dino-analyzer/internal/llm"
	"dino-analyzer/internal/shared/config"
	"dino-analyzer/internal/shared/metrics"
	"dino-analyzer/internal/shared/telemetry"
	"dino-analyzer/internal/shared/util"
)

const (
	StatusStarted   = "started"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Stages reported in failure logs.
const (
	stageKey      = "api_key"
	stageInspect  = "inspect"
	stageOptimize = "optimize"
	stageLLM      = "llm"
	stageParse    = "parse"
)

// Service contains the analysis pipeline.
type Service struct {
	LLM           llm.Client
	APIKey        string
	Model         string
	PromptVersion string
	Timeout       time.Duration
	Limits        imageprep.Limits
	Image         imageprep.Options
}

// NewService builds a Service from configuration.
func NewService(cfg config.Config, client llm.Client) *Service {
	return &Service{
		LLM:     client,
		APIKey:  cfg.GeminiAPIKey,
		Model:   cfg.GeminiModel,
		Timeout: cfg.LLMTimeout,
		Limits: imageprep.Limits{
			MaxBytes:  cfg.MaxUploadBytes,
			MaxPixels: cfg.MaxImagePixels,
		},
		Image: imageprep.Options{
			MaxWidth:  cfg.ImageMaxWidth,
			MaxHeight: cfg.ImageMaxHeight,
			Quality:   cfg.JPEGQuality,
		},
	}
}

// Input is one user action.
type Input struct {
	Image    []byte
	FileName string
	// APIKey is the key typed into the form, if any.
	APIKey string
}

// Outcome is a fully validated result.
type Outcome struct {
	Info  dinosaur.Info  `json:"result"`
	Image imageprep.Meta `json:"image"`
}

// HasServerKey reports whether a key is configured on the server.
func (s *Service) HasServerKey() bool {
	return config.NormalizeAPIKey(s.APIKey) != ""
}

// ResolveAPIKey picks the form key over the server key. The example
// placeholder counts as absent in both places.
func (s *Service) ResolveAPIKey(formKey string) (key, source string, err error) {
	if k := config.NormalizeAPIKey(formKey); k != "" {
		return k, "form", nil
	}
	if k := config.NormalizeAPIKey(s.APIKey); k != "" {
		return k, "env", nil
	}
	return "", "", ErrMissingAPIKey
}

// Analyze runs the pipeline once. It never returns a partial Outcome: on
// error the Outcome is zero.
func (s *Service) Analyze(ctx context.Context, in Input) (Outcome, error) {
	startedAt := time.Now()
	metrics.IncAnalysisStarted()
	telemetry.Info("analysis.status", map[string]any{
		"request_id": requestIDFromContext(ctx),
		"status":     StatusStarted,
		"file_name":  util.SanitizeFileName(in.FileName),
		"bytes_in":   len(in.Image),
		"sha256":     util.ContentDigest(in.Image),
	})

	out, stage, err := s.run(ctx, in)
	if err != nil {
		s.fail(ctx, stage, err, startedAt)
		return Outcome{}, err
	}

	elapsed := durationMs(startedAt)
	metrics.IncAnalysisCompleted()
	metrics.ObserveAnalysisDurationMs(elapsed)
	telemetry.Info("analysis.status", map[string]any{
		"request_id":  requestIDFromContext(ctx),
		"status":      StatusCompleted,
		"species":     out.Info.SpeciesName,
		"width":       out.Image.Width,
		"height":      out.Image.Height,
		"format":      out.Image.Format,
		"duration_ms": elapsed,
	})
	return out, nil
}

func (s *Service) run(ctx context.Context, in Input) (Outcome, string, error) {
	if s.LLM == nil {
		return Outcome{}, stageLLM, fmt.Errorf("missing llm client")
	}
	key, source, err := s.ResolveAPIKey(in.APIKey)
	if err != nil {
		return Outcome{}, stageKey, err
	}

	meta, err := imageprep.Inspect(in.Image, s.Limits)
	if err != nil {
		return Outcome{}, stageInspect, err
	}
	prepared, err := imageprep.Optimize(in.Image, s.Image)
	if err != nil {
		return Outcome{}, stageOptimize, err
	}

	callCtx := ctx
	if s.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}
	telemetry.Info("analysis.llm_request", map[string]any{
		"request_id":  requestIDFromContext(ctx),
		"model":       s.Model,
		"key_source":  source,
		"image_bytes": len(prepared.Data),
		"width":       prepared.Width,
		"height":      prepared.Height,
	})
	raw, err := s.LLM.DescribeFigurine(callCtx, llm.Request{
		APIKey:        key,
		Model:         s.Model,
		Image:         prepared.Data,
		MIMEType:      prepared.MIME,
		PromptVersion: s.PromptVersion,
	})
	if err != nil {
		return Outcome{}, stageLLM, err
	}

	info, err := dinosaur.Parse([]byte(raw))
	if err != nil {
		return Outcome{}, stageParse, err
	}
	return Outcome{Info: info, Image: meta}, "", nil
}

func (s *Service) fail(ctx context.Context, stage string, err error, startedAt time.Time) {
	code, status, _, _ := Classify(err)
	elapsed := durationMs(startedAt)
	metrics.IncAnalysisFailed(code)
	metrics.ObserveAnalysisDurationMs(elapsed)
	fields := map[string]any{
		"request_id":  requestIDFromContext(ctx),
		"status":      StatusFailed,
		"stage":       stage,
		"error_code":  code,
		"http_status": status,
		"error":       err.Error(),
		"duration_ms": elapsed,
	}
	if details := Details(err); details != nil {
		fields["details"] = details
	}
	telemetry.Warn("analysis.status", fields)
}

func durationMs(startedAt time.Time) float64 {
	return float64(time.Since(startedAt).Microseconds()) / 1000.0
}
