package identity

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/smagents/landing/internal/store"
)

func newRepo(t *testing.T) store.Repository {
	t.Helper()
	repo, err := store.NewSQLite(filepath.Join(t.TempDir(), "identity.db"))
	if err != nil {
		t.Fatalf("NewSQLite failed: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func TestMiddlewareIssuesVisitorCookie(t *testing.T) {
	repo := newRepo(t)

	var gotVisitor, gotSession string
	h := Middleware(repo, true)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotVisitor = VisitorIDFromContext(r.Context())
		gotSession = SessionIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/chat", nil)
	req.Header.Set(SessionHeaderName, "tab-1")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if !isValidVisitorID(gotVisitor) {
		t.Fatalf("expected generated visitor id, got %q", gotVisitor)
	}
	if gotSession != "tab-1" {
		t.Fatalf("expected session tab-1, got %q", gotSession)
	}

	cookies := rr.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != VisitorCookieName || cookies[0].Value != gotVisitor {
		t.Fatalf("expected visitor cookie, got %+v", cookies)
	}

	v, err := repo.GetVisitor(context.Background(), gotVisitor)
	if err != nil || v == nil {
		t.Fatalf("expected visitor to be stored, err=%v", err)
	}
}

func TestMiddlewareReusesValidCookie(t *testing.T) {
	repo := newRepo(t)
	const existing = "anon_0123456789abcdef0123456789abcdef"

	var gotVisitor string
	h := Middleware(repo, true)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotVisitor = VisitorIDFromContext(r.Context())
	}))

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: VisitorCookieName, Value: existing})
		h.ServeHTTP(httptest.NewRecorder(), req)
		if gotVisitor != existing {
			t.Fatalf("expected %s, got %s", existing, gotVisitor)
		}
	}
}

func TestSanitizeSessionID(t *testing.T) {
	cases := map[string]string{
		"":              DefaultSessionIDValue,
		"  ":            DefaultSessionIDValue,
		"tab-1":         "tab-1",
		"bad id!":       DefaultSessionIDValue,
		"a.b:c_d-e":     "a.b:c_d-e",
		"<script>x</x>": DefaultSessionIDValue,
	}
	for in, want := range cases {
		if got := sanitizeSessionID(in); got != want {
			t.Errorf("sanitizeSessionID(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSessionIDFromQuery(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/ws/chat?session_id=tab-9", nil)
	if got := sessionIDFromRequest(req); got != "tab-9" {
		t.Fatalf("expected tab-9, got %q", got)
	}
}

func TestIPFromRequest(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "203.0.113.7:51234"
	if got := IPFromRequest(req); got != "203.0.113.7" {
		t.Fatalf("expected host without port, got %q", got)
	}

	req.RemoteAddr = "203.0.113.7"
	if got := IPFromRequest(req); got != "203.0.113.7" {
		t.Fatalf("expected bare address unchanged, got %q", got)
	}
}
