//nolint:revive // "api" package name is intentionally concise for this layer.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
)

type fakePinger struct {
	err error
}

func (f fakePinger) Ping(context.Context) error { return f.err }

type healthBody struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func serveHealth(t *testing.T, p Pinger) (int, healthBody) {
	t.Helper()
	r := chi.NewRouter()
	NewHealthHandler(p, time.Second).RegisterHealth(r)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	var body healthBody
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	return rr.Code, body
}

func TestHealthOK(t *testing.T) {
	code, body := serveHealth(t, fakePinger{})
	if code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", code)
	}
	if body.Status != "healthy" || body.Checks["api"] != "ok" || body.Checks["database"] != "ok" {
		t.Fatalf("Unexpected body: %+v", body)
	}
}

func TestHealthDatabaseDown(t *testing.T) {
	code, body := serveHealth(t, fakePinger{err: errors.New("disk I/O error")})
	if code != http.StatusServiceUnavailable {
		t.Fatalf("Expected 503, got %d", code)
	}
	if body.Status != "degraded" || body.Checks["database"] != "unreachable" {
		t.Fatalf("Unexpected body: %+v", body)
	}
}
