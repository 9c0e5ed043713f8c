// Package service provides business logic for the application.
package service

import "errors"

// Service errors.
var (
	ErrVideoNotFound     = errors.New("video not found")
	ErrVideoPrivate      = errors.New("video is private")
	ErrViewerRequired    = errors.New("viewer identity required")
	ErrShareNotFound     = errors.New("share link not found")
	ErrTitleRequired     = errors.New("title is required")
	ErrInvalidVisibility = errors.New("invalid visibility")
	ErrInvalidViewLimit  = errors.New("view limit must not be negative")
	ErrExpiryInPast      = errors.New("auto_private_after must be in the future")
)
