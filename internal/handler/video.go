package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/clipstream/clipstream/internal/handler/dto"
	"github.com/clipstream/clipstream/internal/service"
)

// viewerHeader carries the end-user identity forwarded by the calling
// service. The service key authenticates the caller; this header names
// the viewer the call is on behalf of.
const viewerHeader = "X-Viewer-ID"

// VideoHandler handles HTTP requests for video and engagement operations.
type VideoHandler struct {
	videos     *service.VideoService
	engagement *service.EngagementService
	logger     *slog.Logger
}

// NewVideoHandler creates a new VideoHandler.
func NewVideoHandler(videos *service.VideoService, engagement *service.EngagementService, logger *slog.Logger) *VideoHandler {
	return &VideoHandler{
		videos:     videos,
		engagement: engagement,
		logger:     logger,
	}
}

// Create handles POST /api/v1/videos.
func (h *VideoHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateVideoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	input := service.CreateVideoInput{
		ID:               req.ID,
		OwnerID:          req.OwnerID,
		Title:            req.Title,
		Category:         req.Category,
		Visibility:       req.Visibility,
		ViewLimit:        req.ViewLimit,
		AutoPrivateAfter: req.AutoPrivateAfter,
	}
	input.UploadedAt = req.UploadedAt

	video, err := h.videos.CreateVideo(r.Context(), input)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.logger.Info("video_registered",
		"video_id", video.ID,
		"owner_id", video.OwnerID,
		"visibility", video.Visibility,
	)

	writeJSON(w, http.StatusCreated, dto.ToVideoResponse(video))
}

// Get handles GET /api/v1/videos/{id}.
func (h *VideoHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "MISSING_ID", "Video ID is required")
		return
	}

	video, err := h.videos.GetVideo(r.Context(), id, r.Header.Get(viewerHeader))
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToVideoResponse(video))
}

// RecordView handles POST /api/v1/videos/{id}/view.
func (h *VideoHandler) RecordView(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "MISSING_ID", "Video ID is required")
		return
	}

	out, err := h.engagement.RecordView(r.Context(), id, r.Header.Get(viewerHeader))
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	if out.BecamePrivate {
		h.logger.Info("video_auto_privatized",
			"video_id", id,
			"views", out.Views,
		)
	}

	writeJSON(w, http.StatusOK, dto.ViewResponse{
		VideoID:       id,
		Views:         out.Views,
		BecamePrivate: out.BecamePrivate,
	})
}

// ToggleLike handles POST /api/v1/videos/{id}/like.
func (h *VideoHandler) ToggleLike(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "MISSING_ID", "Video ID is required")
		return
	}

	out, err := h.engagement.ToggleLike(r.Context(), id, r.Header.Get(viewerHeader))
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.LikeResponse{
		VideoID: id,
		Liked:   out.Liked,
		Likes:   out.Likes,
	})
}

// CreateShare handles POST /api/v1/videos/{id}/share.
func (h *VideoHandler) CreateShare(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "MISSING_ID", "Video ID is required")
		return
	}

	share, err := h.engagement.CreateShare(r.Context(), id, r.Header.Get(viewerHeader))
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.logger.Info("share_created",
		"video_id", id,
		"share_id", share.ID,
	)

	writeJSON(w, http.StatusCreated, dto.ToShareResponse(share))
}

// handleServiceError maps service errors to HTTP responses.
func (h *VideoHandler) handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrVideoNotFound):
		writeError(w, http.StatusNotFound, "VIDEO_NOT_FOUND", "Video not found")
	case errors.Is(err, service.ErrVideoPrivate):
		writeError(w, http.StatusForbidden, "VIDEO_PRIVATE", "video is private")
	case errors.Is(err, service.ErrViewerRequired):
		writeError(w, http.StatusUnauthorized, "VIEWER_REQUIRED", "X-Viewer-ID header is required")
	case errors.Is(err, service.ErrTitleRequired):
		writeError(w, http.StatusBadRequest, "TITLE_REQUIRED", "Title is required")
	case errors.Is(err, service.ErrInvalidVisibility):
		writeError(w, http.StatusBadRequest, "INVALID_VISIBILITY", "Visibility must be public, unlisted or private")
	case errors.Is(err, service.ErrInvalidViewLimit):
		writeError(w, http.StatusBadRequest, "INVALID_VIEW_LIMIT", "View limit must not be negative")
	case errors.Is(err, service.ErrExpiryInPast):
		writeError(w, http.StatusUnprocessableEntity, "EXPIRY_IN_PAST", "auto_private_after must be in the future")
	default:
		h.logger.Error("internal_error", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
	}
}
