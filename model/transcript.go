package model

import (
	"time"

	"github.com/google/uuid"
)

// Transcript is the raw caption text fetched for a video. There is at most
// one per video, keyed by the video id.
type Transcript struct {
	VideoID   uuid.UUID
	UserID    string
	Content   string
	Language  string
	CreatedAt time.Time
	UpdatedAt time.Time
}
