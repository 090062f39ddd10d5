package openai

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	openai "github.com/sashabaranov/go-openai"

	"github.com/kailas-cloud/vince/internal/domain"
)

// parseAPIError extracts a human-readable error from the API response and wraps
// it with sentinel. 429 responses additionally wrap domain.ErrRateLimited.
func parseAPIError(op string, err error, sentinel error) error {
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		detail := extractDetail(reqErr.Body)
		if detail == "" {
			detail = string(reqErr.Body)
		}
		return wrapStatus(op, reqErr.HTTPStatusCode, detail, sentinel)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return wrapStatus(op, apiErr.HTTPStatusCode, apiErr.Message, sentinel)
	}

	return fmt.Errorf("%s request failed: %w: %w", op, sentinel, err)
}

func wrapStatus(op string, status int, detail string, sentinel error) error {
	if status == http.StatusTooManyRequests {
		return fmt.Errorf("%s API error %d: %s: %w: %w", op, status, detail, domain.ErrRateLimited, sentinel)
	}
	return fmt.Errorf("%s API error %d: %s: %w", op, status, detail, sentinel)
}

// extractDetail extracts the "detail" field from a JSON error body (Nebius error format).
func extractDetail(body []byte) string {
	var parsed struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(body, &parsed) == nil && parsed.Detail != "" {
		return parsed.Detail
	}
	return ""
}

func newClient(apiKey, baseURL string) *openai.Client {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return openai.NewClientWithConfig(cfg)
}
