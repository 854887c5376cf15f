package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"parley-backend/internal/models"
)

func testConfig(endpoint string) OpenRouterConfig {
	return OpenRouterConfig{
		Endpoint:        endpoint,
		APIKey:          "test-key",
		Temperature:     0.7,
		MaxTokens:       4000,
		AllowedModels:   []string{"openai/gpt-4o", "deepseek/deepseek-chat"},
		ResponseTimeout: 5 * time.Second,
	}
}

func TestStreamCompletion_RequestShape(t *testing.T) {
	var gotAuth, gotContentType string
	var gotBody completionRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotContentType = r.Header.Get("Content-Type")
		json.NewDecoder(r.Body).Decode(&gotBody)
		io.WriteString(w, "data: [DONE]\n\n")
	}))
	defer srv.Close()

	svc := NewOpenRouterService(testConfig(srv.URL))
	body, err := svc.StreamCompletion(context.Background(), "openai/gpt-4o", []models.ProviderMessage{
		{Role: models.RoleUser, Content: []models.ContentPart{{Type: models.PartTypeText, Text: "hi"}}},
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	body.Close()

	if gotAuth != "Bearer test-key" {
		t.Errorf("Expected bearer credential, got %q", gotAuth)
	}
	if gotContentType != "application/json" {
		t.Errorf("Expected application/json, got %q", gotContentType)
	}
	if !gotBody.Stream {
		t.Error("Expected stream: true")
	}
	if gotBody.Temperature != 0.7 {
		t.Errorf("Expected temperature 0.7, got %v", gotBody.Temperature)
	}
	if gotBody.MaxTokens != 4000 {
		t.Errorf("Expected max_tokens 4000, got %d", gotBody.MaxTokens)
	}
	if gotBody.Model != "openai/gpt-4o" {
		t.Errorf("Expected model openai/gpt-4o, got %q", gotBody.Model)
	}
	if len(gotBody.Messages) != 1 || gotBody.Messages[0].Role != models.RoleUser {
		t.Errorf("Expected the provider messages to pass through, got %+v", gotBody.Messages)
	}
}

func TestStreamCompletion_NonSuccessStatus(t *testing.T) {
	tests := []struct {
		name   string
		status int
	}{
		{"rate limited", http.StatusTooManyRequests},
		{"server error", http.StatusInternalServerError},
		{"unauthorized", http.StatusUnauthorized},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
			}))
			defer srv.Close()

			svc := NewOpenRouterService(testConfig(srv.URL))
			body, err := svc.StreamCompletion(context.Background(), "openai/gpt-4o", nil)
			if body != nil {
				body.Close()
				t.Fatal("Expected no body on non-2xx status")
			}

			var upstreamErr *UpstreamRequestError
			if !errors.As(err, &upstreamErr) {
				t.Fatalf("Expected UpstreamRequestError, got %T: %v", err, err)
			}
			if upstreamErr.StatusCode != tc.status {
				t.Errorf("Expected status %d, got %d", tc.status, upstreamErr.StatusCode)
			}
		})
	}
}

func TestStreamCompletion_Cancellation(t *testing.T) {
	blocked := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-blocked
	}))
	defer srv.Close()
	defer close(blocked)

	cfg := testConfig(srv.URL)
	cfg.ResponseTimeout = 0
	svc := NewOpenRouterService(cfg)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	_, err := svc.StreamCompletion(ctx, "openai/gpt-4o", nil)
	if err == nil {
		t.Fatal("Expected cancellation error")
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestModelAllowed(t *testing.T) {
	svc := NewOpenRouterService(testConfig("http://unused"))

	tests := []struct {
		model   string
		allowed bool
	}{
		{"openai/gpt-4o", true},
		{"deepseek/deepseek-chat", true},
		{"anthropic/claude-3", false},
		{"", false},
	}

	for _, tc := range tests {
		if got := svc.ModelAllowed(tc.model); got != tc.allowed {
			t.Errorf("ModelAllowed(%q) = %v, want %v", tc.model, got, tc.allowed)
		}
	}
}
