package gemini

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"dino-analyzer/internal/dinosaur"
	"dino-analyzer/internal/llm"
	"dino-analyzer/internal/shared/telemetry"
)

const userPrompt = "Определи динозавра на фото и верни JSON по схеме."

// generator is the part of *genai.GenerativeModel the client uses.
type generator interface {
	GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

// dialFunc opens a configured model for one request. The returned close
// function releases the underlying connection.
type dialFunc func(ctx context.Context, apiKey, model string, configure func(*genai.GenerativeModel)) (generator, func() error, error)

// Client implements llm.Client using the Gemini API.
type Client struct {
	model       string
	temperature float32
	dial        dialFunc
}

// NewClient constructs a Gemini client. The API key is supplied per request
// because a user may override the configured one.
func NewClient(model string, temperature float32) (*Client, error) {
	if strings.TrimSpace(model) == "" {
		return nil, fmt.Errorf("GEMINI_MODEL is required")
	}
	return &Client{
		model:       strings.TrimSpace(model),
		temperature: temperature,
		dial:        dialGenAI,
	}, nil
}

func dialGenAI(ctx context.Context, apiKey, model string, configure func(*genai.GenerativeModel)) (generator, func() error, error) {
	cl, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, nil, err
	}
	m := cl.GenerativeModel(model)
	configure(m)
	return m, cl.Close, nil
}

// DescribeFigurine sends the image with the system instruction and response
// schema and returns the text of the first candidate.
func (c *Client) DescribeFigurine(ctx context.Context, req llm.Request) (string, error) {
	if strings.TrimSpace(req.APIKey) == "" {
		return "", fmt.Errorf("gemini: API key is empty")
	}
	if len(req.Image) == 0 {
		return "", fmt.Errorf("gemini: image is empty")
	}
	model := strings.TrimSpace(req.Model)
	if model == "" {
		model = c.model
	}
	version := req.PromptVersion
	if version == "" {
		version = llm.DefaultPromptVersion
	}
	instruction, _ := llm.PromptTemplate(version)

	gen, closeFn, err := c.dial(ctx, req.APIKey, model, c.configure(instruction))
	if err != nil {
		return "", classify(ctx, err)
	}
	defer func() { _ = closeFn() }()

	mime := req.MIMEType
	if mime == "" {
		mime = "image/jpeg"
	}
	start := time.Now()
	resp, err := gen.GenerateContent(ctx,
		genai.Text(userPrompt),
		&genai.Blob{MIMEType: mime, Data: req.Image},
	)
	if err != nil {
		return "", classify(ctx, err)
	}
	logUsage(model, version, resp, time.Since(start))

	text := candidateText(resp)
	if strings.TrimSpace(text) == "" {
		return "", llm.ErrEmptyResponse
	}
	return text, nil
}

func (c *Client) configure(instruction string) func(*genai.GenerativeModel) {
	return func(m *genai.GenerativeModel) {
		m.GenerationConfig = genai.GenerationConfig{
			Temperature:      ptrFloat32(c.temperature),
			ResponseMIMEType: "application/json",
			ResponseSchema:   dinosaur.ResponseSchema(),
		}
		m.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(instruction)},
		}
	}
}

// candidateText joins the text parts of the first candidate that has content.
func candidateText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		var b strings.Builder
		for _, p := range cand.Content.Parts {
			if t, ok := p.(genai.Text); ok {
				b.WriteString(string(t))
			}
		}
		if b.Len() > 0 {
			return b.String()
		}
	}
	return ""
}

func logUsage(model, promptVersion string, resp *genai.GenerateContentResponse, elapsed time.Duration) {
	fields := map[string]any{
		"model":          model,
		"prompt_version": promptVersion,
		"duration_ms":    elapsed.Milliseconds(),
	}
	if resp != nil && resp.UsageMetadata != nil {
		fields["prompt_tokens"] = resp.UsageMetadata.PromptTokenCount
		fields["completion_tokens"] = resp.UsageMetadata.CandidatesTokenCount
		fields["total_tokens"] = resp.UsageMetadata.TotalTokenCount
	}
	telemetry.Info("llm.response", fields)
}

func ptrFloat32(v float32) *float32 { return &v }

var _ llm.Client = (*Client)(nil)
