package model

import (
	"time"

	"github.com/google/uuid"
)

type VideoStatus string

const (
	StatusPending    VideoStatus = "pending"
	StatusProcessing VideoStatus = "processing"
	StatusCompleted  VideoStatus = "completed"
	StatusFailed     VideoStatus = "failed"
)

// transitions lists the moves the pipeline itself may make. Reprocessing a
// completed video re-enters through NeedsReprocessing, not through here.
var transitions = map[VideoStatus][]VideoStatus{
	StatusPending:    {StatusProcessing},
	StatusProcessing: {StatusProcessing, StatusCompleted, StatusFailed},
	StatusFailed:     {StatusProcessing},
}

func (s VideoStatus) CanTransition(next VideoStatus) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// YoutubeVideoID is the 11 character identifier YouTube assigns to a video.
type YoutubeVideoID string

type Video struct {
	ID           uuid.UUID
	UserID       string
	YoutubeURL   string
	YoutubeID    YoutubeVideoID
	Title        string
	Description  string
	ThumbnailURL string
	Duration     string
	Status       VideoStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NeedsReprocessing reports whether a video should be sent through the
// pipeline again: it failed, or it claims to be completed while one of its
// result records is missing.
func NeedsReprocessing(video *Video, hasTranscript, hasAnalysis bool) bool {
	if video.Status == StatusFailed {
		return true
	}
	return video.Status == StatusCompleted && (!hasTranscript || !hasAnalysis)
}
