package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/googleapis/gax-go/v2/apierror"
	"google.golang.org/api/googleapi"
	"google.golang.org/grpc/codes"

	"dino-analyzer/internal/llm"
)

// classify wraps a provider error with the matching llm sentinel while
// keeping the underlying error in the chain.
func classify(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", llm.ErrTimeout, err)
	}

	var blocked *genai.BlockedError
	if errors.As(err, &blocked) {
		return fmt.Errorf("%w: %w", llm.ErrBlocked, err)
	}

	var apiErr *apierror.APIError
	if errors.As(err, &apiErr) {
		if kind := classifyAPIError(apiErr); kind != nil {
			return fmt.Errorf("%w: %w", kind, err)
		}
	}

	var gErr *googleapi.Error
	if errors.As(err, &gErr) {
		return fmt.Errorf("%w: %w", classifyHTTP(gErr.Code, gErr.Message), err)
	}

	return fmt.Errorf("%w: %w", llm.ErrUnavailable, err)
}

func classifyAPIError(apiErr *apierror.APIError) error {
	if isKeyReason(apiErr.Reason()) {
		return llm.ErrUnauthorized
	}
	if code := apiErr.HTTPCode(); code > 0 {
		return classifyHTTP(code, apiErr.Error())
	}
	if st := apiErr.GRPCStatus(); st != nil {
		switch st.Code() {
		case codes.Unauthenticated, codes.PermissionDenied:
			return llm.ErrUnauthorized
		case codes.DeadlineExceeded:
			return llm.ErrTimeout
		case codes.InvalidArgument:
			if mentionsAPIKey(st.Message()) {
				return llm.ErrUnauthorized
			}
		}
		return llm.ErrUnavailable
	}
	return nil
}

func classifyHTTP(code int, message string) error {
	switch code {
	case http.StatusUnauthorized, http.StatusForbidden:
		return llm.ErrUnauthorized
	case http.StatusRequestTimeout, http.StatusGatewayTimeout:
		return llm.ErrTimeout
	case http.StatusBadRequest:
		if mentionsAPIKey(message) {
			return llm.ErrUnauthorized
		}
	}
	return llm.ErrUnavailable
}

func isKeyReason(reason string) bool {
	switch reason {
	case "API_KEY_INVALID", "API_KEY_SERVICE_BLOCKED", "API_KEY_HTTP_REFERRER_BLOCKED":
		return true
	}
	return false
}

func mentionsAPIKey(message string) bool {
	return strings.Contains(strings.ToLower(message), "api key")
}
