package model

import "time"

// ViewEvent records that an authenticated viewer watched a video.
// At most one row exists per (video, viewer) pair; a repeat view updates
// ViewedAt instead of creating a duplicate. The raw Video.Views counter
// counts every view call including anonymous and repeat ones, so history
// queries read these rows, not the counter.
type ViewEvent struct {
	ID       string    `json:"id"`
	VideoID  string    `json:"video_id"`
	ViewerID string    `json:"viewer_id"`
	ViewedAt time.Time `json:"viewed_at"`
}

// LikeEvent records that a user currently likes a video.
// The row's existence is the source of truth for "has this user liked
// this video"; Video.Likes tracks row existence 1:1 per user.
type LikeEvent struct {
	ID        string    `json:"id"`
	VideoID   string    `json:"video_id"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}
