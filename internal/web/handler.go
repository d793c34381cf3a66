// Package web serves the single page UI, the export downloads and the JSON API.
package web

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"dino-analyzer/internal/analyzer"
	"dino-analyzer/internal/dinosaur"
	"dino-analyzer/internal/imageprep"
	"dino-analyzer/internal/services/health"
	"dino-analyzer/internal/shared/server/middleware"
	"dino-analyzer/internal/shared/server/respond"
)

// multipartOverhead is the slack allowed on top of the image limit for the
// multipart envelope and the api_key field.
const multipartOverhead = 1 << 20

const (
	outcomeCompleted = "completed"
	outcomeFailed    = "failed"
)

var errNoImage = errors.New("image is required")

// Handler wires HTTP handlers to the analyzer.
type Handler struct {
	Svc            *analyzer.Service
	Health         *health.Service
	MaxUploadBytes int64
}

// NewHandler constructs a Handler.
func NewHandler(svc *analyzer.Service, healthSvc *health.Service, maxUploadBytes int64) *Handler {
	return &Handler{Svc: svc, Health: healthSvc, MaxUploadBytes: maxUploadBytes}
}

// RegisterPages attaches the HTML routes.
func (h *Handler) RegisterPages(r gin.IRoutes) {
	r.GET("/", h.index)
	r.POST("/analyze", h.analyzePage)
	r.POST("/export", h.export)
}

// RegisterAPI attaches the JSON routes to the /api/v1 group.
func (h *Handler) RegisterAPI(rg *gin.RouterGroup) {
	rg.GET("/health", h.health)
	rg.POST("/analyses", h.analyzeAPI)
}

func (h *Handler) page() pageData {
	return pageData{
		Model:        h.Svc.Model,
		HasServerKey: h.Svc.HasServerKey(),
		Formats:      supportedFormats,
		Accept:       acceptAttr(),
		MaxUpload:    imageprep.FormatSize(h.MaxUploadBytes),
	}
}

func (h *Handler) index(c *gin.Context) {
	c.HTML(http.StatusOK, PageTemplate, h.page())
}

func (h *Handler) analyzePage(c *gin.Context) {
	data := h.page()
	out, fileName, err := h.analyze(c)
	if err != nil {
		code, status, message, hint := classify(err)
		c.Set(middleware.ErrorCodeKey, code)
		data.Error = &errorView{Code: code, Message: message, Hint: hint}
		c.HTML(status, PageTemplate, data)
		return
	}

	view, err := newResultView(fileName, out)
	if err != nil {
		c.Set(middleware.ErrorCodeKey, analyzer.ErrorCodeInternal)
		data.Error = &errorView{
			Code:    analyzer.ErrorCodeInternal,
			Message: "Не удалось отобразить результат.",
			Hint:    "Попробуйте еще раз.",
		}
		c.HTML(http.StatusInternalServerError, PageTemplate, data)
		return
	}
	data.Result = view
	c.HTML(http.StatusOK, PageTemplate, data)
}

func (h *Handler) analyzeAPI(c *gin.Context) {
	out, _, err := h.analyze(c)
	if err != nil {
		code, status, message, hint := classify(err)
		c.Set(middleware.ErrorCodeKey, code)
		details := map[string]any{"hint": hint}
		for k, v := range analyzer.Details(err) {
			details[k] = v
		}
		respond.Error(c, status, code, message, details)
		return
	}
	respond.OK(c, toAnalysisResponse(out))
}

// analyze reads the upload and runs the pipeline, recording the outcome for
// the request log.
func (h *Handler) analyze(c *gin.Context) (analyzer.Outcome, string, error) {
	img, fileName, err := h.readUpload(c)
	if err != nil {
		c.Set(middleware.OutcomeKey, outcomeFailed)
		return analyzer.Outcome{}, "", err
	}

	ctx := analyzer.WithRequestID(c.Request.Context(), middleware.RequestIDFromContext(c))
	out, err := h.Svc.Analyze(ctx, analyzer.Input{
		Image:    img,
		FileName: fileName,
		APIKey:   c.PostForm("api_key"),
	})
	if err != nil {
		c.Set(middleware.OutcomeKey, outcomeFailed)
		return analyzer.Outcome{}, "", err
	}
	c.Set(middleware.OutcomeKey, outcomeCompleted)
	return out, fileName, nil
}

func (h *Handler) readUpload(c *gin.Context) ([]byte, string, error) {
	if h.MaxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.MaxUploadBytes+multipartOverhead)
	}

	fileHeader, err := c.FormFile("image")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, "", fmt.Errorf("%w: upload exceeds %s", imageprep.ErrTooLarge, imageprep.FormatSize(h.MaxUploadBytes))
		}
		return nil, "", errNoImage
	}
	if h.MaxUploadBytes > 0 && fileHeader.Size > h.MaxUploadBytes {
		return nil, "", fmt.Errorf("%w: upload exceeds %s", imageprep.ErrTooLarge, imageprep.FormatSize(h.MaxUploadBytes))
	}

	file, err := fileHeader.Open()
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", imageprep.ErrInvalidImage, err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", imageprep.ErrInvalidImage, err)
	}
	return data, fileHeader.Filename, nil
}

func (h *Handler) export(c *gin.Context) {
	values := make(map[string]string, len(dinosaur.Fields))
	for _, f := range dinosaur.Fields {
		if v, ok := c.GetPostForm(f.Name); ok {
			values[f.Name] = v
		}
	}
	info, err := dinosaur.FromValues(values)
	if err != nil {
		var details any
		var verr *dinosaur.ValidationError
		if errors.As(err, &verr) {
			details = gin.H{"fields": verr.Issues}
		}
		respond.Error(c, http.StatusBadRequest, respond.CodeValidation, "Нет данных для экспорта: заполнены не все поля.", details)
		return
	}

	switch c.DefaultPostForm("format", "json") {
	case "json":
		data, err := info.JSON()
		if err != nil {
			respond.Error(c, http.StatusInternalServerError, respond.CodeInternal, "Не удалось сформировать JSON.", nil)
			return
		}
		respond.Attachment(c, dinosaur.JSONFileName, "application/json; charset=utf-8", data)
	case "text":
		respond.Attachment(c, dinosaur.TextFileName, "text/plain; charset=utf-8", []byte(info.Text()))
	default:
		respond.Error(c, http.StatusBadRequest, respond.CodeValidation, "Неизвестный формат экспорта.", gin.H{"allowed": []string{"json", "text"}})
	}
}

func (h *Handler) health(c *gin.Context) {
	respond.OK(c, h.Health.Status())
}

func classify(err error) (code string, status int, message, hint string) {
	if errors.Is(err, errNoImage) {
		return respond.CodeValidation, http.StatusBadRequest,
			"Изображение не выбрано.",
			"Выберите фото фигурки в формате PNG, JPG или JPEG."
	}
	return analyzer.Classify(err)
}
