package storage

import (
	"context"
	"errors"

	"ewintr.nl/tubescribe/model"
	"github.com/google/uuid"
)

var ErrNotFound = errors.New("not found")

type VideoRepository interface {
	Save(ctx context.Context, video *model.Video) error
	Find(ctx context.Context, id uuid.UUID) (*model.Video, error)
	FindByUser(ctx context.Context, userID string) ([]*model.Video, error)
	FindByStatus(ctx context.Context, statuses ...model.VideoStatus) ([]*model.Video, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.VideoStatus) error
}

type TranscriptRepository interface {
	Save(ctx context.Context, transcript *model.Transcript) error
	FindByVideo(ctx context.Context, videoID uuid.UUID) (*model.Transcript, error)
}

type AnalysisRepository interface {
	Save(ctx context.Context, analysis *model.Analysis) error
	FindByVideo(ctx context.Context, videoID uuid.UUID) (*model.Analysis, error)
}

// AnalysisVecRepository mirrors completed analyses into a vector store for
// semantic search. Writes are best-effort from the pipeline's point of view.
type AnalysisVecRepository interface {
	Save(ctx context.Context, video *model.Video, analysis *model.Analysis) error
}
