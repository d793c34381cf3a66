package gemini

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/generative-ai-go/genai"

	"dino-analyzer/internal/llm"
)

type fakeGenerator struct {
	resp  *genai.GenerateContentResponse
	err   error
	parts []genai.Part
}

func (f *fakeGenerator) GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error) {
	f.parts = parts
	return f.resp, f.err
}

type dialRecord struct {
	apiKey string
	model  string
	cfg    genai.GenerativeModel
	closed bool
}

func fakeDial(gen *fakeGenerator, rec *dialRecord) dialFunc {
	return func(ctx context.Context, apiKey, model string, configure func(*genai.GenerativeModel)) (generator, func() error, error) {
		rec.apiKey = apiKey
		rec.model = model
		configure(&rec.cfg)
		return gen, func() error {
			rec.closed = true
			return nil
		}, nil
	}
}

func textResponse(parts ...string) *genai.GenerateContentResponse {
	content := &genai.Content{Role: "model"}
	for _, p := range parts {
		content.Parts = append(content.Parts, genai.Text(p))
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: content}},
	}
}

func TestNewClientRequiresModel(t *testing.T) {
	if _, err := NewClient("  ", 0.2); err == nil {
		t.Fatalf("expected error for empty model")
	}
}

func TestDescribeFigurineConfiguresModel(t *testing.T) {
	client, err := NewClient("gemini-1.5-flash-latest", 0.2)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	gen := &fakeGenerator{resp: textResponse(`{"species_name":`, `"Трицератопс"}`)}
	rec := &dialRecord{}
	client.dial = fakeDial(gen, rec)

	text, err := client.DescribeFigurine(context.Background(), llm.Request{
		APIKey:   "key-123",
		Image:    []byte{0xff, 0xd8},
		MIMEType: "image/jpeg",
	})
	if err != nil {
		t.Fatalf("DescribeFigurine: %v", err)
	}
	if text != `{"species_name":"Трицератопс"}` {
		t.Fatalf("text = %q", text)
	}
	if rec.apiKey != "key-123" || rec.model != "gemini-1.5-flash-latest" {
		t.Fatalf("dial got key=%q model=%q", rec.apiKey, rec.model)
	}
	if !rec.closed {
		t.Fatalf("client was not closed")
	}
	if rec.cfg.ResponseMIMEType != "application/json" {
		t.Fatalf("mime = %q", rec.cfg.ResponseMIMEType)
	}
	if rec.cfg.Temperature == nil || *rec.cfg.Temperature != 0.2 {
		t.Fatalf("temperature not set")
	}
	if rec.cfg.ResponseSchema == nil || len(rec.cfg.ResponseSchema.Required) != 4 {
		t.Fatalf("response schema not set")
	}
	if rec.cfg.SystemInstruction == nil || len(rec.cfg.SystemInstruction.Parts) != 1 {
		t.Fatalf("system instruction not set")
	}
	if len(gen.parts) != 2 {
		t.Fatalf("expected text and image parts, got %d", len(gen.parts))
	}
	blob, ok := gen.parts[1].(*genai.Blob)
	if !ok || blob.MIMEType != "image/jpeg" || len(blob.Data) != 2 {
		t.Fatalf("unexpected image part %#v", gen.parts[1])
	}
}

func TestDescribeFigurineModelOverride(t *testing.T) {
	client, _ := NewClient("gemini-1.5-flash-latest", 0)
	rec := &dialRecord{}
	client.dial = fakeDial(&fakeGenerator{resp: textResponse("{}")}, rec)

	if _, err := client.DescribeFigurine(context.Background(), llm.Request{APIKey: "k", Model: "gemini-2.0-flash", Image: []byte{1}}); err != nil {
		t.Fatalf("DescribeFigurine: %v", err)
	}
	if rec.model != "gemini-2.0-flash" {
		t.Fatalf("model = %q", rec.model)
	}
}

func TestDescribeFigurineEmptyResponse(t *testing.T) {
	client, _ := NewClient("m", 0)
	tests := []struct {
		name string
		resp *genai.GenerateContentResponse
	}{
		{name: "nil", resp: nil},
		{name: "no candidates", resp: &genai.GenerateContentResponse{}},
		{name: "blank text", resp: textResponse("  ")},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			client.dial = fakeDial(&fakeGenerator{resp: tt.resp}, &dialRecord{})
			_, err := client.DescribeFigurine(context.Background(), llm.Request{APIKey: "k", Image: []byte{1}})
			if !errors.Is(err, llm.ErrEmptyResponse) {
				t.Fatalf("expected ErrEmptyResponse, got %v", err)
			}
		})
	}
}

func TestDescribeFigurineClassifiesErrors(t *testing.T) {
	client, _ := NewClient("m", 0)
	client.dial = fakeDial(&fakeGenerator{err: &genai.BlockedError{}}, &dialRecord{})
	_, err := client.DescribeFigurine(context.Background(), llm.Request{APIKey: "k", Image: []byte{1}})
	if !errors.Is(err, llm.ErrBlocked) {
		t.Fatalf("expected ErrBlocked, got %v", err)
	}
}

func TestDescribeFigurineRejectsMissingInputs(t *testing.T) {
	client, _ := NewClient("m", 0)
	called := false
	client.dial = func(ctx context.Context, apiKey, model string, configure func(*genai.GenerativeModel)) (generator, func() error, error) {
		called = true
		return nil, nil, errors.New("unexpected")
	}
	if _, err := client.DescribeFigurine(context.Background(), llm.Request{Image: []byte{1}}); err == nil {
		t.Fatalf("expected error without key")
	}
	if _, err := client.DescribeFigurine(context.Background(), llm.Request{APIKey: "k"}); err == nil {
		t.Fatalf("expected error without image")
	}
	if called {
		t.Fatalf("dial should not be called")
	}
}

func TestCandidateTextSkipsNonText(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: nil},
			{Content: &genai.Content{Parts: []genai.Part{&genai.Blob{MIMEType: "image/png"}, genai.Text("ok")}}},
		},
	}
	if got := candidateText(resp); !strings.EqualFold(got, "ok") {
		t.Fatalf("candidateText = %q", got)
	}
}
