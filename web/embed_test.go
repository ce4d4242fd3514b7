package web

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestStaticHandlerServesAssets(t *testing.T) {
	h := StaticHandler()

	tests := []struct {
		path        string
		contentType string
		contains    string
	}{
		{"/static/styles.css", "text/css", ".chat-widget"},
		{"/static/js/chat.js", "javascript", "X-Chat-Session-ID"},
		{"/static/js/menu.js", "javascript", "mobile-menu"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d", rec.Code)
			}
			if ct := rec.Header().Get("Content-Type"); !strings.Contains(ct, tt.contentType) {
				t.Fatalf("expected content type %q, got %q", tt.contentType, ct)
			}
			if !strings.Contains(rec.Body.String(), tt.contains) {
				t.Fatalf("expected body to contain %q", tt.contains)
			}
		})
	}
}

func TestStaticHandlerHidesDirectories(t *testing.T) {
	h := StaticHandler()

	for _, path := range []string{"/static/", "/static/js/", "/static/missing.css"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Fatalf("%s: expected 404, got %d", path, rec.Code)
		}
	}
}
