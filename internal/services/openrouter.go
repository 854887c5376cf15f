package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"slices"
	"time"

	"parley-backend/internal/models"
)

// OpenRouterConfig carries everything the upstream client needs. Endpoint and
// credential are injected here rather than read from the environment inside
// the client.
type OpenRouterConfig struct {
	Endpoint      string
	APIKey        string
	Temperature   float64
	MaxTokens     int
	AllowedModels []string

	// ResponseTimeout bounds the wait for upstream response headers. Zero
	// falls back to the transport default.
	ResponseTimeout time.Duration
}

type OpenRouterService struct {
	cfg    OpenRouterConfig
	client *http.Client
}

func NewOpenRouterService(cfg OpenRouterConfig) *OpenRouterService {
	transport := &http.Transport{
		ResponseHeaderTimeout: cfg.ResponseTimeout,
		IdleConnTimeout:       90 * time.Second,
	}

	return &OpenRouterService{
		cfg: cfg,
		// No overall client timeout: the body is a long-lived stream and is
		// bounded by the request context instead.
		client: &http.Client{Transport: transport},
	}
}

// UpstreamRequestError is a non-2xx answer from the completion endpoint. It
// is fatal for the current turn and must not be retried automatically.
type UpstreamRequestError struct {
	StatusCode int
}

func (e *UpstreamRequestError) Error() string {
	return fmt.Sprintf("upstream completion request failed with status %d", e.StatusCode)
}

func (s *OpenRouterService) ModelAllowed(model string) bool {
	return slices.Contains(s.cfg.AllowedModels, model)
}

func (s *OpenRouterService) AllowedModels() []string {
	return slices.Clone(s.cfg.AllowedModels)
}

type completionRequest struct {
	Model       string                   `json:"model"`
	Messages    []models.ProviderMessage `json:"messages"`
	Stream      bool                     `json:"stream"`
	Temperature float64                  `json:"temperature"`
	MaxTokens   int                      `json:"max_tokens"`
}

// StreamCompletion opens a streaming chat completion and returns the raw
// response body on a 2xx status. The caller owns the returned body and must
// close it; cancelling ctx closes the upstream connection.
func (s *OpenRouterService) StreamCompletion(ctx context.Context, model string, messages []models.ProviderMessage) (io.ReadCloser, error) {
	payload := completionRequest{
		Model:       model,
		Messages:    messages,
		Stream:      true,
		Temperature: s.cfg.Temperature,
		MaxTokens:   s.cfg.MaxTokens,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode completion request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build completion request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Title", "Parley")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("completion request failed: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		resp.Body.Close()
		return nil, &UpstreamRequestError{StatusCode: resp.StatusCode}
	}

	return resp.Body, nil
}
