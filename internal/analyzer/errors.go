package analyzer

import (
	"errors"
	"net/http"

	"dino-analyzer/internal/dinosaur"
	"dino-analyzer/internal/imageprep"
	"dino-analyzer/internal/llm"
)

var ErrMissingAPIKey = errors.New("gemini API key is not configured")

const (
	ErrorCodeMissingAPIKey     = "missing_api_key"
	ErrorCodeInvalidImage      = "invalid_image"
	ErrorCodeUnsupportedFormat = "unsupported_format"
	ErrorCodeImageTooLarge     = "image_too_large"
	ErrorCodeLLMUnavailable    = "llm_unavailable"
	ErrorCodeLLMTimeout        = "llm_timeout"
	ErrorCodeLLMUnauthorized   = "llm_unauthorized"
	ErrorCodeLLMBlocked        = "llm_blocked"
	ErrorCodeLLMEmptyResponse  = "llm_empty_response"
	ErrorCodeLLMInvalidJSON    = "llm_invalid_json"
	ErrorCodeLLMSchemaMismatch = "llm_schema_mismatch"
	ErrorCodeInternal          = "internal_error"
)

type failureKind struct {
	sentinel error
	code     string
	status   int
	message  string
	hint     string
}

// Order matters: the first matching sentinel wins.
var failureKinds = []failureKind{
	{ErrMissingAPIKey, ErrorCodeMissingAPIKey, http.StatusBadRequest,
		"API-ключ Gemini не указан.",
		"Введите ключ в поле формы или задайте GEMINI_API_KEY в файле .env."},
	{imageprep.ErrInvalidImage, ErrorCodeInvalidImage, http.StatusBadRequest,
		"Не удалось прочитать изображение.",
		"Проверьте, что файл не поврежден, и загрузите его еще раз."},
	{imageprep.ErrUnsupportedFormat, ErrorCodeUnsupportedFormat, http.StatusUnsupportedMediaType,
		"Неподдерживаемый формат изображения.",
		"Загрузите фото в формате PNG, JPG или JPEG."},
	{imageprep.ErrTooLarge, ErrorCodeImageTooLarge, http.StatusRequestEntityTooLarge,
		"Изображение слишком большое.",
		"Уменьшите размер файла или разрешение фото."},
	{llm.ErrUnauthorized, ErrorCodeLLMUnauthorized, http.StatusUnauthorized,
		"Сервис Gemini отклонил API-ключ.",
		"Проверьте, что ключ указан полностью и активен."},
	{llm.ErrTimeout, ErrorCodeLLMTimeout, http.StatusGatewayTimeout,
		"Сервис анализа не ответил вовремя.",
		"Попробуйте еще раз через несколько секунд."},
	{llm.ErrBlocked, ErrorCodeLLMBlocked, http.StatusUnprocessableEntity,
		"Запрос заблокирован фильтрами безопасности.",
		"Попробуйте другое фото фигурки."},
	{llm.ErrEmptyResponse, ErrorCodeLLMEmptyResponse, http.StatusBadGateway,
		"Сервис анализа вернул пустой ответ.",
		"Попробуйте другое фото или повторите запрос."},
	{llm.ErrUnavailable, ErrorCodeLLMUnavailable, http.StatusBadGateway,
		"Сервис анализа недоступен.",
		"Проверьте подключение к интернету и попробуйте позже."},
	{dinosaur.ErrInvalidJSON, ErrorCodeLLMInvalidJSON, http.StatusBadGateway,
		"Ответ сервиса не является корректным JSON.",
		"Повторите запрос. Если ошибка повторяется, попробуйте другое фото."},
	{dinosaur.ErrSchemaMismatch, ErrorCodeLLMSchemaMismatch, http.StatusBadGateway,
		"Ответ сервиса не содержит всех нужных полей.",
		"Повторите запрос или загрузите более четкое фото."},
}

// Classify maps an Analyze error to its code, HTTP status and the Russian
// message and hint shown to the user.
func Classify(err error) (code string, status int, message, hint string) {
	for _, k := range failureKinds {
		if errors.Is(err, k.sentinel) {
			return k.code, k.status, k.message, k.hint
		}
	}
	return ErrorCodeInternal, http.StatusInternalServerError,
		"Внутренняя ошибка при анализе изображения.",
		"Попробуйте еще раз позже."
}

// Details returns structured context for an error, or nil.
func Details(err error) map[string]any {
	var verr *dinosaur.ValidationError
	if errors.As(err, &verr) {
		return map[string]any{"fields": verr.Issues}
	}
	var perr *dinosaur.ParseError
	if errors.As(err, &perr) && perr.Offset > 0 {
		return map[string]any{"offset": perr.Offset}
	}
	return nil
}
