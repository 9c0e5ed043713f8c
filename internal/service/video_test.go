package service

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestVideoService_CreateVideo_Validation(t *testing.T) {
	fixed := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	svc := &VideoService{now: func() time.Time { return fixed }}
	ctx := context.Background()

	negative := int64(-1)
	past := fixed.Add(-time.Minute)

	tests := []struct {
		name  string
		input CreateVideoInput
		want  error
	}{
		{"missing title", CreateVideoInput{}, ErrTitleRequired},
		{"bad visibility", CreateVideoInput{Title: "t", Visibility: "friends-only"}, ErrInvalidVisibility},
		{"negative view limit", CreateVideoInput{Title: "t", ViewLimit: &negative}, ErrInvalidViewLimit},
		{"expiry in past", CreateVideoInput{Title: "t", AutoPrivateAfter: &past}, ErrExpiryInPast},
		{"expiry exactly now", CreateVideoInput{Title: "t", AutoPrivateAfter: &fixed}, ErrExpiryInPast},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateVideo(ctx, tt.input)
			if !errors.Is(err, tt.want) {
				t.Errorf("CreateVideo() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestFeedService_PreferencesRequireViewer(t *testing.T) {
	svc := &FeedService{}
	ctx := context.Background()

	if _, err := svc.GetPreferences(ctx, ""); !errors.Is(err, ErrViewerRequired) {
		t.Errorf("GetPreferences without viewer: got %v, want ErrViewerRequired", err)
	}
	if err := svc.UpdatePreferences(ctx, "", nil); !errors.Is(err, ErrViewerRequired) {
		t.Errorf("UpdatePreferences without viewer: got %v, want ErrViewerRequired", err)
	}
}
