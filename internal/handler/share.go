package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/clipstream/clipstream/internal/handler/dto"
	"github.com/clipstream/clipstream/internal/service"
)

// ShareHandler handles share token redemption and revocation.
type ShareHandler struct {
	svc    *service.EngagementService
	logger *slog.Logger
}

// NewShareHandler creates a new ShareHandler.
func NewShareHandler(svc *service.EngagementService, logger *slog.Logger) *ShareHandler {
	return &ShareHandler{
		svc:    svc,
		logger: logger,
	}
}

// Redeem handles GET /s/{token}.
// A valid token returns the video regardless of its visibility. Every
// failure mode returns the same 404 so tokens cannot be probed for
// state.
func (h *ShareHandler) Redeem(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	if token == "" {
		h.writeNotFound(w)
		return
	}

	start := time.Now()

	video, err := h.svc.RedeemShare(r.Context(), token)
	duration := time.Since(start)

	if err != nil {
		h.handleRedeemError(w, token, err, duration)
		return
	}

	h.logger.Info("share_redeemed",
		"video_id", video.ID,
		"duration_ms", float64(duration.Microseconds())/1000,
	)

	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Cache-Control", "private, max-age=0")

	writeJSON(w, http.StatusOK, dto.ToVideoResponse(video))
}

// Revoke handles DELETE /api/v1/shares/{token}.
func (h *ShareHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	if token == "" {
		writeError(w, http.StatusBadRequest, "MISSING_TOKEN", "Share token is required")
		return
	}

	if err := h.svc.RevokeShare(r.Context(), token); err != nil {
		if errors.Is(err, service.ErrShareNotFound) {
			writeError(w, http.StatusNotFound, "SHARE_NOT_FOUND", "Share link not found")
			return
		}
		h.logger.Error("internal_error", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
		return
	}

	h.logger.Info("share_revoked", "token_prefix", tokenPrefix(token))

	w.WriteHeader(http.StatusNoContent)
}

// handleRedeemError handles errors during token redemption.
func (h *ShareHandler) handleRedeemError(w http.ResponseWriter, token string, err error, duration time.Duration) {
	if errors.Is(err, service.ErrShareNotFound) {
		h.logger.Info("share_redeem_not_found",
			"token_prefix", tokenPrefix(token),
			"duration_ms", float64(duration.Microseconds())/1000,
		)
		h.writeNotFound(w)
		return
	}

	h.logger.Error("share_redeem_error",
		"token_prefix", tokenPrefix(token),
		"error", err,
		"duration_ms", float64(duration.Microseconds())/1000,
	)
	writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
}

func (h *ShareHandler) writeNotFound(w http.ResponseWriter) {
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Cache-Control", "private, max-age=0")
	writeError(w, http.StatusNotFound, "SHARE_NOT_FOUND", "Share link not found")
}

// tokenPrefix returns the loggable head of a token. Full tokens never
// reach the logs.
func tokenPrefix(token string) string {
	if len(token) <= 8 {
		return token
	}
	return token[:8]
}
