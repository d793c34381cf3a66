package analyzer

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"testing"
	"time"

	"dino-analyzer/internal/imageprep"
	"dino-analyzer/internal/llm"
)

const trexResponse = `{"species_name":"Тираннозавр","color_description":"Зеленый с коричневым","geological_period":"Поздний меловой период","brief_info":"Мог развивать огромную силу укуса."}`

func pngFixture(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: 30, G: 140, B: 60, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

type recordingLLM struct {
	resp  string
	err   error
	calls []llm.Request
	ctxs  []context.Context
}

func (r *recordingLLM) DescribeFigurine(ctx context.Context, req llm.Request) (string, error) {
	r.calls = append(r.calls, req)
	r.ctxs = append(r.ctxs, ctx)
	return r.resp, r.err
}

func newTestService(client llm.Client) *Service {
	return &Service{
		LLM:     client,
		APIKey:  "env-key",
		Model:   "gemini-test",
		Timeout: time.Minute,
		Limits:  imageprep.Limits{MaxBytes: 1 << 20, MaxPixels: 1 << 20},
		Image:   imageprep.DefaultOptions(),
	}
}
