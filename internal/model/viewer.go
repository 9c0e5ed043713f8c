package model

import "time"

// ViewerProfile holds per-viewer personalization state consumed by the
// recommendations entry point. Preferences are free-text category
// interests written by the profile collaborator; an empty list means the
// viewer falls back to the popularity feed.
type ViewerProfile struct {
	UserID      string    `json:"user_id"`
	Preferences []string  `json:"preferences"`
	UpdatedAt   time.Time `json:"updated_at"`
}
