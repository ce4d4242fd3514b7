package site

import (
	"bytes"
	"log/slog"
	"net/http"
	"time"

	g "maragu.dev/gomponents"
)

// LandingPage assembles the full page.
func LandingPage(c Contacts) g.Node {
	if c.Year == 0 {
		c.Year = time.Now().Year()
	}
	return Layout(
		PageConfig{},
		Navbar(),
		g.El("main",
			Hero(c),
			TrustMarkers(),
			Services(),
			Process(),
			Architecture(),
			WhyUs(),
			Tech(),
			Standards(),
			FinalCTA(c),
		),
		PageFooter(c),
	)
}

// Handler serves the landing page.
type Handler struct {
	contacts Contacts
}

// NewHandler creates a page handler rendering the given contact details.
func NewHandler(c Contacts) *Handler {
	return &Handler{contacts: c}
}

// ServeHTTP renders the page into a buffer first so a render error never
// leaves a half-written document.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := LandingPage(h.contacts).Render(&buf); err != nil {
		slog.Error("Failed to render landing page", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := buf.WriteTo(w); err != nil {
		slog.Debug("Failed to write landing page", "error", err)
	}
}
