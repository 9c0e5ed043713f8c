package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/clipstream/clipstream/internal/handler/dto"
	"github.com/clipstream/clipstream/internal/ranking"
	"github.com/clipstream/clipstream/internal/service"
)

// FeedHandler handles feed and preference endpoints.
type FeedHandler struct {
	svc    *service.FeedService
	logger *slog.Logger
}

// NewFeedHandler creates a new FeedHandler.
func NewFeedHandler(svc *service.FeedService, logger *slog.Logger) *FeedHandler {
	return &FeedHandler{
		svc:    svc,
		logger: logger,
	}
}

// Feed handles GET /api/v1/feed.
// Query parameters: kind, category, limit, offset. Malformed paging
// values fall back to defaults; the ranking layer clamps the rest.
func (h *FeedHandler) Feed(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	kind, ok := ranking.ParseKind(query.Get("kind"))
	if !ok {
		if query.Get("kind") != "" {
			writeError(w, http.StatusBadRequest, "INVALID_KIND", "Unknown feed kind")
			return
		}
		kind = ranking.KindPopularity
	}

	if kind == ranking.KindCategory && query.Get("category") == "" {
		writeError(w, http.StatusBadRequest, "MISSING_CATEGORY", "Category is required for the category feed")
		return
	}

	page := ranking.Page{Limit: defaultLimit(kind)}
	if l := query.Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil {
			page.Limit = parsed
		}
	}
	if o := query.Get("offset"); o != "" {
		if parsed, err := strconv.Atoi(o); err == nil {
			page.Offset = parsed
		}
	}
	page = page.Clamp(ranking.CapFor(kind))

	input := service.RankInput{
		Kind:     kind,
		Category: query.Get("category"),
		ViewerID: r.Header.Get(viewerHeader),
		Page:     page,
	}

	videos, err := h.svc.Rank(r.Context(), input)
	if err != nil {
		h.logger.Error("feed_error", "kind", kind, "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
		return
	}

	writeJSON(w, http.StatusOK, dto.ToFeedResponse(string(kind), page.Limit, page.Offset, videos))
}

// GetPreferences handles GET /api/v1/viewers/{id}/preferences.
func (h *FeedHandler) GetPreferences(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "MISSING_ID", "Viewer ID is required")
		return
	}

	prefs, err := h.svc.GetPreferences(r.Context(), id)
	if err != nil {
		h.handlePreferenceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.PreferencesResponse{
		UserID:      id,
		Preferences: prefs,
	})
}

// UpdatePreferences handles PUT /api/v1/viewers/{id}/preferences.
func (h *FeedHandler) UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "MISSING_ID", "Viewer ID is required")
		return
	}

	var req dto.PreferencesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	if err := h.svc.UpdatePreferences(r.Context(), id, req.Preferences); err != nil {
		h.handlePreferenceError(w, err)
		return
	}

	h.logger.Info("preferences_updated",
		"viewer_id", id,
		"preference_count", len(req.Preferences),
	)

	writeJSON(w, http.StatusOK, dto.PreferencesResponse{
		UserID:      id,
		Preferences: req.Preferences,
	})
}

func (h *FeedHandler) handlePreferenceError(w http.ResponseWriter, err error) {
	if errors.Is(err, service.ErrViewerRequired) {
		writeError(w, http.StatusBadRequest, "VIEWER_REQUIRED", "Viewer ID is required")
		return
	}
	h.logger.Error("internal_error", "error", err)
	writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
}

// defaultLimit is the page size used when the caller sends none.
func defaultLimit(kind ranking.Kind) int {
	if kind == ranking.KindFeatured {
		return ranking.CapFeatured
	}
	return 20
}
