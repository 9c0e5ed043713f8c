// Package dto provides Data Transfer Objects for API requests and responses.
package dto

import (
	"time"

	"github.com/clipstream/clipstream/internal/model"
)

// CreateVideoRequest represents the request body for registering a video.
// ID is optional; the upload collaborator may supply its own.
type CreateVideoRequest struct {
	ID               string     `json:"id,omitempty"`
	OwnerID          string     `json:"owner_id"`
	Title            string     `json:"title"`
	Category         string     `json:"category,omitempty"`
	Visibility       string     `json:"visibility,omitempty"`
	ViewLimit        *int64     `json:"view_limit,omitempty"`
	AutoPrivateAfter *time.Time `json:"auto_private_after,omitempty"`
	UploadedAt       *time.Time `json:"uploaded_at,omitempty"`
}

// VideoResponse represents a video in API responses.
type VideoResponse struct {
	ID               string     `json:"id"`
	OwnerID          string     `json:"owner_id"`
	Title            string     `json:"title"`
	Category         string     `json:"category,omitempty"`
	Visibility       string     `json:"visibility"`
	Views            int64      `json:"views"`
	Likes            int64      `json:"likes"`
	ViewLimit        *int64     `json:"view_limit,omitempty"`
	AutoPrivateAfter *time.Time `json:"auto_private_after,omitempty"`
	UploadedAt       time.Time  `json:"uploaded_at"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// FeedResponse represents an ordered page of videos.
type FeedResponse struct {
	Kind   string          `json:"kind"`
	Limit  int             `json:"limit"`
	Offset int             `json:"offset"`
	Data   []VideoResponse `json:"data"`
}

// ViewResponse is returned after recording a view.
type ViewResponse struct {
	VideoID       string `json:"video_id"`
	Views         int64  `json:"views"`
	BecamePrivate bool   `json:"became_private"`
}

// LikeResponse is returned after toggling a like.
type LikeResponse struct {
	VideoID string `json:"video_id"`
	Liked   bool   `json:"liked"`
	Likes   int64  `json:"likes"`
}

// ShareResponse represents a share link in API responses.
// The token is the full secret; callers embed it in their own URLs.
type ShareResponse struct {
	Token     string    `json:"token"`
	VideoID   string    `json:"video_id"`
	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}

// PreferencesRequest represents the request body for updating viewer
// preferences.
type PreferencesRequest struct {
	Preferences []string `json:"preferences"`
}

// PreferencesResponse represents a viewer's stored preferences.
type PreferencesResponse struct {
	UserID      string   `json:"user_id"`
	Preferences []string `json:"preferences"`
}

// ToVideoResponse converts a Video model to VideoResponse DTO.
func ToVideoResponse(v *model.Video) *VideoResponse {
	return &VideoResponse{
		ID:               v.ID,
		OwnerID:          v.OwnerID,
		Title:            v.Title,
		Category:         v.Category,
		Visibility:       string(v.Visibility),
		Views:            v.Views,
		Likes:            v.Likes,
		ViewLimit:        v.ViewLimit,
		AutoPrivateAfter: v.AutoPrivateAfter,
		UploadedAt:       v.UploadedAt,
		CreatedAt:        v.CreatedAt,
		UpdatedAt:        v.UpdatedAt,
	}
}

// ToFeedResponse converts a ranked page of videos to a FeedResponse.
func ToFeedResponse(kind string, limit, offset int, videos []*model.Video) *FeedResponse {
	data := make([]VideoResponse, len(videos))
	for i, v := range videos {
		data[i] = *ToVideoResponse(v)
	}
	return &FeedResponse{
		Kind:   kind,
		Limit:  limit,
		Offset: offset,
		Data:   data,
	}
}

// ToShareResponse converts a ShareLink model to ShareResponse DTO.
func ToShareResponse(s *model.ShareLink) *ShareResponse {
	return &ShareResponse{
		Token:     s.Token,
		VideoID:   s.VideoID,
		CreatedBy: s.CreatedBy,
		CreatedAt: s.CreatedAt,
	}
}
