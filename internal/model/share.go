package model

import "time"

// ShareLink grants access to a video through an opaque, unguessable
// token, independent of the video's visibility. Rows are never mutated
// after creation except for AccessCount and Active.
type ShareLink struct {
	ID          string    `json:"id"`
	Token       string    `json:"token"`
	VideoID     string    `json:"video_id"`
	CreatedBy   string    `json:"created_by"`
	AccessCount int64     `json:"access_count"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
}
