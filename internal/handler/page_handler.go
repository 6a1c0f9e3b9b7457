package handler

import (
	"bytes"
	"net/http"
	"strings"

	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"

	"activities-web/internal/middleware"
	"activities-web/internal/reconciler"
	"activities-web/internal/render"
	"activities-web/pkg/logger"
)

// PageHandler serves the activities page and the form posts that change it.
// Every post answers with a 303 back to the page.
type PageHandler struct {
	reconciler *reconciler.Reconciler
	logger     *logger.Logger
}

// NewPageHandler creates a new page handler
func NewPageHandler(reconciler *reconciler.Reconciler, logger *logger.Logger) *PageHandler {
	return &PageHandler{
		reconciler: reconciler,
		logger:     logger.Named("page"),
	}
}

// Index handles GET /
func (h *PageHandler) Index(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.session(w, r)
	if !ok {
		return
	}

	view, err := h.reconciler.View(r.Context(), sessionID)
	if err != nil {
		h.sendError(w, err, "Failed to load view")
		return
	}
	h.sendHTML(w, r, render.Page(view, h.reconciler.Now()))
}

// Partial handles GET /partials/activities. It serves the list and selector
// fragment of the session's current view to external callers such as
// embedding pages; the page itself never requests it. The view is only
// loaded when the session has none yet.
func (h *PageHandler) Partial(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.session(w, r)
	if !ok {
		return
	}

	view, err := h.reconciler.Current(r.Context(), sessionID)
	if err != nil {
		h.sendError(w, err, "Failed to load view")
		return
	}
	h.sendHTML(w, r, render.Activities(view))
}

// Signup handles POST /signup
func (h *PageHandler) Signup(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.session(w, r)
	if !ok {
		return
	}

	// Browsers strip surrounding whitespace from email inputs.
	activity := r.PostFormValue("activity")
	email := strings.TrimSpace(r.PostFormValue("email"))

	if _, err := h.reconciler.Signup(r.Context(), sessionID, activity, email); err != nil {
		h.sendError(w, err, "Failed to sign up")
		return
	}
	h.redirectHome(w, r)
}

// Unregister handles POST /participants/{entryID}/unregister
func (h *PageHandler) Unregister(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.session(w, r)
	if !ok {
		return
	}

	entryID := chi.URLParam(r, "entryID")
	activity := r.PostFormValue("activity")
	email := r.PostFormValue("email")

	if activity == "" || email == "" {
		h.logger.WithField("entry_id", entryID).Warn("Unregister posted without activity or email")
	}
	if _, err := h.reconciler.Unregister(r.Context(), sessionID, entryID, activity, email); err != nil {
		h.sendError(w, err, "Failed to unregister")
		return
	}
	h.redirectHome(w, r)
}

// Refresh handles POST /refresh
func (h *PageHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.session(w, r)
	if !ok {
		return
	}

	if _, err := h.reconciler.Refresh(r.Context(), sessionID); err != nil {
		h.sendError(w, err, "Failed to refresh activities")
		return
	}
	h.redirectHome(w, r)
}

func (h *PageHandler) session(w http.ResponseWriter, r *http.Request) (string, bool) {
	sessionID, ok := middleware.SessionID(r.Context())
	if !ok {
		h.logger.Error("Request reached page handler without a view session")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
	return sessionID, ok
}

// sendHTML renders into a buffer first so render failures can still become
// a 500.
func (h *PageHandler) sendHTML(w http.ResponseWriter, r *http.Request, component templ.Component) {
	var buf bytes.Buffer
	if err := component.Render(r.Context(), &buf); err != nil {
		h.sendError(w, err, "Failed to render page")
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		h.logger.WithError(err).Debug("Client went away while writing page")
	}
}

func (h *PageHandler) sendError(w http.ResponseWriter, err error, message string) {
	h.logger.WithError(err).Error(message)
	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
}

func (h *PageHandler) redirectHome(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
