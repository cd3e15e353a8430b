package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ewintr.nl/tubescribe/model"
	"ewintr.nl/tubescribe/storage"
	"ewintr.nl/tubescribe/youtube"
	"github.com/google/uuid"
	"golang.org/x/exp/slog"
)

var (
	// ErrMissingSource signals a request that carries neither a video id
	// nor a URL. It maps to a client error, no retries.
	ErrMissingSource = errors.New("either a youtube id or a youtube url is required")

	ErrInvalidURL = errors.New("invalid youtube url")
)

const (
	analysisSaveAttempts = 3
	analysisSaveDelay    = time.Second
)

type TranscriptFetcher interface {
	Fetch(ctx context.Context, youtubeID model.YoutubeVideoID, fallbackURL, language string) (string, error)
}

type Analyzer interface {
	Analyze(ctx context.Context, transcriptText string) (*model.Analysis, error)
}

// Pipeline sequences transcript fetching, analysis and persistence for one
// video and guarantees a terminal status on every run.
type Pipeline struct {
	videos      storage.VideoRepository
	transcripts storage.TranscriptRepository
	analyses    storage.AnalysisRepository
	vectors     storage.AnalysisVecRepository
	fetcher     TranscriptFetcher
	analyzer    Analyzer
	language    string
	logger      *slog.Logger
}

func New(videos storage.VideoRepository, transcripts storage.TranscriptRepository, analyses storage.AnalysisRepository, vectors storage.AnalysisVecRepository, fetcher TranscriptFetcher, analyzer Analyzer, language string, logger *slog.Logger) *Pipeline {
	if language == "" {
		language = "en"
	}
	return &Pipeline{
		videos:      videos,
		transcripts: transcripts,
		analyses:    analyses,
		vectors:     vectors,
		fetcher:     fetcher,
		analyzer:    analyzer,
		language:    language,
		logger:      logger,
	}
}

// Submit creates the video record for a user supplied URL. Processing is a
// separate call so callers decide whether to run it inline or in a task.
func (p *Pipeline) Submit(ctx context.Context, userID, youtubeURL string) (*model.Video, error) {
	youtubeID, ok := youtube.ExtractVideoID(youtubeURL)
	if !ok {
		return nil, ErrInvalidURL
	}

	video := &model.Video{
		ID:         uuid.New(),
		UserID:     userID,
		YoutubeURL: youtubeURL,
		YoutubeID:  youtubeID,
		Status:     model.StatusProcessing,
	}
	if err := p.videos.Save(ctx, video); err != nil {
		return nil, fmt.Errorf("failed to save video: %w", err)
	}

	return video, nil
}

// Process runs the full fetch, analyze, persist sequence. Except for input
// validation, every outcome leaves the video in a terminal status. The
// returned error reflects the primary failure; status write failures are
// logged and swallowed so they never mask it.
func (p *Pipeline) Process(ctx context.Context, video *model.Video) error {
	if video.YoutubeID == "" && video.YoutubeURL == "" {
		return ErrMissingSource
	}
	youtubeID := video.YoutubeID
	if youtubeID == "" {
		youtubeID, _ = youtube.ExtractVideoID(video.YoutubeURL)
	}

	transcript, trErr := p.transcripts.FindByVideo(ctx, video.ID)
	if trErr != nil && !errors.Is(trErr, storage.ErrNotFound) {
		return fmt.Errorf("failed to load transcript: %w", trErr)
	}

	if video.Status == model.StatusCompleted {
		if trErr == nil {
			if _, err := p.analyses.FindByVideo(ctx, video.ID); err == nil {
				p.logger.Info("video has transcript and analysis, nothing to do", slog.String("video", video.ID.String()))
				return nil
			}
		}
		// completed but missing a record, re-enter from the top
		video.Status = model.StatusPending
	}

	p.setStatus(ctx, video, model.StatusProcessing)

	var content string
	if trErr == nil {
		// analysis retries reuse the stored transcript, the fetch is
		// never run twice for the same video
		content = transcript.Content
	} else {
		fetched, err := p.fetcher.Fetch(ctx, youtubeID, video.YoutubeURL, p.language)
		if err != nil {
			p.logger.Error("failed to fetch transcript", slog.String("video", video.ID.String()), slog.String("error", err.Error()))
			p.setStatus(ctx, video, model.StatusFailed)
			return fmt.Errorf("failed to fetch transcript: %w", err)
		}
		content = fetched

		if err := p.transcripts.Save(ctx, &model.Transcript{
			VideoID:  video.ID,
			UserID:   video.UserID,
			Content:  content,
			Language: p.language,
		}); err != nil {
			p.logger.Error("failed to save transcript", slog.String("video", video.ID.String()), slog.String("error", err.Error()))
			p.setStatus(ctx, video, model.StatusFailed)
			return fmt.Errorf("failed to save transcript: %w", err)
		}
		p.setStatus(ctx, video, model.StatusProcessing)
	}

	analysis, err := p.analyzer.Analyze(ctx, content)
	if err != nil {
		p.logger.Error("failed to analyze transcript", slog.String("video", video.ID.String()), slog.String("error", err.Error()))
		p.setStatus(ctx, video, model.StatusFailed)
		return fmt.Errorf("failed to analyze transcript: %w", err)
	}
	analysis.VideoID = video.ID

	if err := p.saveAnalysis(ctx, analysis); err != nil {
		p.logger.Error("failed to save analysis", slog.String("video", video.ID.String()), slog.String("error", err.Error()))
		p.setStatus(ctx, video, model.StatusFailed)
		return fmt.Errorf("failed to save analysis: %w", err)
	}

	if p.vectors != nil {
		if err := p.vectors.Save(ctx, video, analysis); err != nil {
			p.logger.Error("failed to save analysis in vector store", slog.String("video", video.ID.String()), slog.String("error", err.Error()))
		}
	}

	p.setStatus(ctx, video, model.StatusCompleted)
	p.logger.Info("video processed", slog.String("video", video.ID.String()))

	return nil
}

func (p *Pipeline) saveAnalysis(ctx context.Context, analysis *model.Analysis) error {
	var lastErr error
	for attempt := 0; attempt < analysisSaveAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(analysisSaveDelay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		if lastErr = p.analyses.Save(ctx, analysis); lastErr == nil {
			return nil
		}
	}

	return lastErr
}

// setStatus writes the status best-effort. An illegal transition or a failed
// write is logged, never propagated, so the primary result stays visible.
func (p *Pipeline) setStatus(ctx context.Context, video *model.Video, status model.VideoStatus) {
	if video.Status == status && status != model.StatusProcessing {
		return
	}
	if !video.Status.CanTransition(status) {
		p.logger.Error("refusing invalid status transition", slog.String("video", video.ID.String()),
			slog.String("from", string(video.Status)), slog.String("to", string(status)))
		return
	}
	if err := p.videos.UpdateStatus(ctx, video.ID, status); err != nil {
		p.logger.Error("failed to update video status", slog.String("video", video.ID.String()),
			slog.String("status", string(status)), slog.String("error", err.Error()))
		return
	}
	video.Status = status
}
