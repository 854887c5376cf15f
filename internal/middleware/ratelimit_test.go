package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(3, time.Minute)
	handler := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	doRequest := func(addr string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = addr
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		return rr.Code
	}

	for i := 0; i < 3; i++ {
		if code := doRequest("10.0.0.1:1234"); code != http.StatusOK {
			t.Fatalf("Request %d: expected 200, got %d", i+1, code)
		}
	}
	if code := doRequest("10.0.0.1:1234"); code != http.StatusTooManyRequests {
		t.Errorf("Expected 429 after limit, got %d", code)
	}

	// A different client is not affected
	if code := doRequest("10.0.0.2:1234"); code != http.StatusOK {
		t.Errorf("Expected 200 for other client, got %d", code)
	}
}
