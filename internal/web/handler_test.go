package web_test

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"dino-analyzer/internal/bootstrap"
	"dino-analyzer/internal/dinosaur"
	"dino-analyzer/internal/llm"
	"dino-analyzer/internal/shared/config"
)

const trexResponse = `{"species_name":"Тираннозавр рекс","color_description":"Темно-зеленый с коричневыми полосами","geological_period":"Поздний меловой период","brief_info":"Тираннозавр обладал одним из самых сильных укусов среди наземных животных."}`

type fakeLLM struct {
	resp  string
	err   error
	calls []llm.Request
}

func (f *fakeLLM) DescribeFigurine(ctx context.Context, req llm.Request) (string, error) {
	f.calls = append(f.calls, req)
	return f.resp, f.err
}

func testConfig() config.Config {
	return config.Config{
		Port:            "0",
		Env:             "dev",
		CORSAllowOrigin: []string{"http://localhost:8501"},
		GeminiAPIKey:    "server-key",
		GeminiModel:     "gemini-1.5-flash-latest",
		LLMTimeout:      time.Minute,
		MaxUploadBytes:  1 << 20,
		MaxImagePixels:  1 << 20,
		ImageMaxWidth:   1024,
		ImageMaxHeight:  1024,
		JPEGQuality:     85,
	}
}

func newRouter(t *testing.T, cfg config.Config, client llm.Client) http.Handler {
	t.Helper()
	gin.SetMode(gin.TestMode)
	app, err := bootstrap.BuildWithLLM(cfg, client)
	if err != nil {
		t.Fatalf("bootstrap build: %v", err)
	}
	return app.Router
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: 40, G: 120, B: 50, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func uploadRequest(t *testing.T, target string, image []byte, fields map[string]string) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	if image != nil {
		fw, err := writer.CreateFormFile("image", "dino.png")
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := fw.Write(image); err != nil {
			t.Fatalf("write file: %v", err)
		}
	}
	for k, v := range fields {
		if err := writer.WriteField(k, v); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, target, body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func serve(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func TestIndexPage(t *testing.T) {
	r := newRouter(t, testConfig(), &fakeLLM{})
	resp := serve(r, httptest.NewRequest(http.MethodGet, "/", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	body := resp.Body.String()
	for _, want := range []string{"DINO - Анализатор динозавров", `name="image"`, "PNG, JPG, JPEG", "API ключ настроен на сервере"} {
		if !strings.Contains(body, want) {
			t.Fatalf("page missing %q", want)
		}
	}
	if strings.Contains(body, "data-field") {
		t.Fatalf("empty page must not show result fields")
	}
}

func TestIndexPageWithoutServerKey(t *testing.T) {
	cfg := testConfig()
	cfg.GeminiAPIKey = ""
	r := newRouter(t, cfg, &fakeLLM{})
	body := serve(r, httptest.NewRequest(http.MethodGet, "/", nil)).Body.String()
	if !strings.Contains(body, "API ключ не найден") {
		t.Fatalf("expected missing key warning")
	}
}

func TestAnalyzePageDisplaysExactFields(t *testing.T) {
	client := &fakeLLM{resp: trexResponse}
	r := newRouter(t, testConfig(), client)

	resp := serve(r, uploadRequest(t, "/analyze", pngBytes(t, 64, 48), nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	body := resp.Body.String()
	want, err := dinosaur.Parse([]byte(trexResponse))
	if err != nil {
		t.Fatalf("parse fixture: %v", err)
	}
	for _, f := range dinosaur.Fields {
		cell := `data-field="` + f.Name + `">` + want.Value(f.Name) + `</dd>`
		if !strings.Contains(body, cell) {
			t.Fatalf("page missing %q", cell)
		}
	}
	for _, want := range []string{"Анализ завершен", "64 × 48", "Размер файла", `action="/export"`} {
		if !strings.Contains(body, want) {
			t.Fatalf("page missing %q", want)
		}
	}
	if len(client.calls) != 1 || client.calls[0].APIKey != "server-key" {
		t.Fatalf("unexpected model calls %+v", client.calls)
	}
}

func TestAnalyzePageRejectsPartialResponse(t *testing.T) {
	r := newRouter(t, testConfig(), &fakeLLM{resp: `{"species_name":"X"}`})

	resp := serve(r, uploadRequest(t, "/analyze", pngBytes(t, 16, 16), nil))
	if resp.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", resp.Code)
	}
	body := resp.Body.String()
	if strings.Contains(body, "data-field") {
		t.Fatalf("no field may be displayed on validation failure")
	}
	if !strings.Contains(body, `data-code="llm_schema_mismatch"`) {
		t.Fatalf("expected schema mismatch error in page")
	}
}

func TestAnalyzePageErrors(t *testing.T) {
	validPNG := func(t *testing.T) []byte { return pngBytes(t, 8, 8) }
	tests := []struct {
		name       string
		serverKey  string
		image      func(t *testing.T) []byte
		llmErr     error
		wantStatus int
		wantCode   string
		wantCall   bool
	}{
		{name: "missing key", image: validPNG, wantStatus: http.StatusBadRequest, wantCode: "missing_api_key"},
		{name: "placeholder key", serverKey: "your_api_key_here", image: validPNG, wantStatus: http.StatusBadRequest, wantCode: "missing_api_key"},
		{name: "no file", serverKey: "k", image: func(t *testing.T) []byte { return nil }, wantStatus: http.StatusBadRequest, wantCode: "validation_error"},
		{name: "unsupported", serverKey: "k", image: func(t *testing.T) []byte { return []byte("plain text file") }, wantStatus: http.StatusUnsupportedMediaType, wantCode: "unsupported_format"},
		{name: "service down", serverKey: "k", image: validPNG, llmErr: llm.ErrUnavailable, wantStatus: http.StatusBadGateway, wantCode: "llm_unavailable", wantCall: true},
		{name: "timeout", serverKey: "k", image: validPNG, llmErr: llm.ErrTimeout, wantStatus: http.StatusGatewayTimeout, wantCode: "llm_timeout", wantCall: true},
		{name: "bad key", serverKey: "k", image: validPNG, llmErr: llm.ErrUnauthorized, wantStatus: http.StatusUnauthorized, wantCode: "llm_unauthorized", wantCall: true},
		{name: "blocked", serverKey: "k", image: validPNG, llmErr: llm.ErrBlocked, wantStatus: http.StatusUnprocessableEntity, wantCode: "llm_blocked", wantCall: true},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			cfg.GeminiAPIKey = tt.serverKey
			client := &fakeLLM{resp: trexResponse, err: tt.llmErr}
			r := newRouter(t, cfg, client)

			resp := serve(r, uploadRequest(t, "/analyze", tt.image(t), nil))
			if resp.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", resp.Code, tt.wantStatus)
			}
			body := resp.Body.String()
			if !strings.Contains(body, `data-code="`+tt.wantCode+`"`) {
				t.Fatalf("expected error code %s in page", tt.wantCode)
			}
			if strings.Contains(body, "data-field") {
				t.Fatalf("no field may be displayed on failure")
			}
			if called := len(client.calls) > 0; called != tt.wantCall {
				t.Fatalf("model called = %v, want %v", called, tt.wantCall)
			}
		})
	}
}

func TestAnalyzeFormKeyOverridesServerKey(t *testing.T) {
	cfg := testConfig()
	cfg.GeminiAPIKey = ""
	client := &fakeLLM{resp: trexResponse}
	r := newRouter(t, cfg, client)

	resp := serve(r, uploadRequest(t, "/analyze", pngBytes(t, 8, 8), map[string]string{"api_key": "user-key"}))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if client.calls[0].APIKey != "user-key" {
		t.Fatalf("expected form key, got %q", client.calls[0].APIKey)
	}
}

func TestAnalyzeRejectsOversizedUpload(t *testing.T) {
	cfg := testConfig()
	cfg.MaxUploadBytes = 100
	client := &fakeLLM{resp: trexResponse}
	r := newRouter(t, cfg, client)

	resp := serve(r, uploadRequest(t, "/analyze", pngBytes(t, 200, 200), nil))
	if resp.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", resp.Code)
	}
	if len(client.calls) != 0 {
		t.Fatalf("model must not be called")
	}
}

func TestAPIAnalysesSuccess(t *testing.T) {
	r := newRouter(t, testConfig(), &fakeLLM{resp: trexResponse})

	resp := serve(r, uploadRequest(t, "/api/v1/analyses", pngBytes(t, 30, 20), nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var payload struct {
		Result dinosaur.Info `json:"result"`
		Image  struct {
			Width     int    `json:"width"`
			Height    int    `json:"height"`
			Format    string `json:"format"`
			SizeBytes int64  `json:"sizeBytes"`
			Size      string `json:"size"`
		} `json:"image"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	want, _ := dinosaur.Parse([]byte(trexResponse))
	if payload.Result != want {
		t.Fatalf("result = %+v, want %+v", payload.Result, want)
	}
	if payload.Image.Width != 30 || payload.Image.Height != 20 || payload.Image.Format != "png" || payload.Image.Size == "" {
		t.Fatalf("unexpected image %+v", payload.Image)
	}
}

func TestAPIAnalysesErrorEnvelope(t *testing.T) {
	r := newRouter(t, testConfig(), &fakeLLM{resp: `{"species_name":"X"}`})

	resp := serve(r, uploadRequest(t, "/api/v1/analyses", pngBytes(t, 8, 8), nil))
	if resp.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", resp.Code)
	}
	var payload struct {
		Error struct {
			Code    string         `json:"code"`
			Message string         `json:"message"`
			Details map[string]any `json:"details"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.Error.Code != "llm_schema_mismatch" || payload.Error.Message == "" {
		t.Fatalf("unexpected error %+v", payload.Error)
	}
	fields, ok := payload.Error.Details["fields"].([]any)
	if !ok || len(fields) != 3 {
		t.Fatalf("expected three offending fields, got %v", payload.Error.Details)
	}
	if _, ok := payload.Error.Details["hint"]; !ok {
		t.Fatalf("expected hint in details")
	}
}

func exportForm(format string, info dinosaur.Info) url.Values {
	form := url.Values{}
	for _, f := range dinosaur.Fields {
		form.Set(f.Name, info.Value(f.Name))
	}
	if format != "" {
		form.Set("format", format)
	}
	return form
}

func postForm(r http.Handler, target string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return serve(r, req)
}

func TestExportJSONAndText(t *testing.T) {
	r := newRouter(t, testConfig(), &fakeLLM{})
	info, _ := dinosaur.Parse([]byte(trexResponse))

	resp := postForm(r, "/export", exportForm("json", info))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if cd := resp.Header().Get("Content-Disposition"); !strings.Contains(cd, "dinosaur_info.json") {
		t.Fatalf("unexpected Content-Disposition %q", cd)
	}
	wantJSON, _ := info.JSON()
	if resp.Body.String() != string(wantJSON) {
		t.Fatalf("json export = %s, want %s", resp.Body.String(), wantJSON)
	}

	resp = postForm(r, "/export", exportForm("text", info))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if cd := resp.Header().Get("Content-Disposition"); !strings.Contains(cd, "dinosaur_info.txt") {
		t.Fatalf("unexpected Content-Disposition %q", cd)
	}
	if resp.Body.String() != info.Text() {
		t.Fatalf("text export = %q", resp.Body.String())
	}
	if ct := resp.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Fatalf("unexpected content type %q", ct)
	}
}

func TestExportRejectsIncompleteData(t *testing.T) {
	r := newRouter(t, testConfig(), &fakeLLM{})

	form := url.Values{}
	form.Set("species_name", "X")
	form.Set("format", "json")
	resp := postForm(r, "/export", form)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}

	info, _ := dinosaur.Parse([]byte(trexResponse))
	resp = postForm(r, "/export", exportForm("xml", info))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown format, got %d", resp.Code)
	}
}

func TestHealth(t *testing.T) {
	r := newRouter(t, testConfig(), &fakeLLM{})
	resp := serve(r, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var payload map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload["ok"] != true || payload["apiKeyConfigured"] != true || payload["model"] != "gemini-1.5-flash-latest" {
		t.Fatalf("unexpected payload %v", payload)
	}
}

func TestStaticStylesheet(t *testing.T) {
	r := newRouter(t, testConfig(), &fakeLLM{})
	resp := serve(r, httptest.NewRequest(http.MethodGet, "/static/style.css", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if !strings.Contains(resp.Header().Get("Content-Type"), "text/css") {
		t.Fatalf("unexpected content type %q", resp.Header().Get("Content-Type"))
	}

	missing := serve(r, httptest.NewRequest(http.MethodGet, "/static/missing.css", nil))
	if missing.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", missing.Code)
	}
}
