package pipeline

import (
	"context"

	"ewintr.nl/tubescribe/model"
	"ewintr.nl/tubescribe/storage"
	"github.com/robfig/cron/v3"
	"golang.org/x/exp/slog"
)

// Processor re-runs the pipeline for one video.
type Processor interface {
	Process(ctx context.Context, video *model.Video) error
}

// Sweeper periodically looks for videos that need reprocessing, either
// failed ones or completed ones that lost a transcript or analysis record,
// and sends them through the pipeline again.
type Sweeper struct {
	videos      storage.VideoRepository
	transcripts storage.TranscriptRepository
	analyses    storage.AnalysisRepository
	processor   Processor
	schedule    string
	cron        *cron.Cron
	logger      *slog.Logger
}

func NewSweeper(videos storage.VideoRepository, transcripts storage.TranscriptRepository, analyses storage.AnalysisRepository, processor Processor, schedule string, logger *slog.Logger) *Sweeper {
	return &Sweeper{
		videos:      videos,
		transcripts: transcripts,
		analyses:    analyses,
		processor:   processor,
		schedule:    schedule,
		// overlapping sweeps would race each other on the same videos
		cron:   cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger))),
		logger: logger,
	}
}

func (s *Sweeper) Start() error {
	if _, err := s.cron.AddFunc(s.schedule, func() {
		s.Sweep(context.Background())
	}); err != nil {
		return err
	}
	s.cron.Start()

	return nil
}

func (s *Sweeper) Stop() {
	s.cron.Stop()
}

func (s *Sweeper) Sweep(ctx context.Context) {
	videos, err := s.videos.FindByStatus(ctx, model.StatusFailed, model.StatusCompleted)
	if err != nil {
		s.logger.Error("failed to fetch videos for sweep", slog.String("error", err.Error()))
		return
	}

	count := 0
	for _, video := range videos {
		_, trErr := s.transcripts.FindByVideo(ctx, video.ID)
		_, anErr := s.analyses.FindByVideo(ctx, video.ID)
		if !model.NeedsReprocessing(video, trErr == nil, anErr == nil) {
			continue
		}

		count++
		if err := s.processor.Process(ctx, video); err != nil {
			s.logger.Error("failed to reprocess video", slog.String("video", video.ID.String()), slog.String("error", err.Error()))
		}
	}
	if count > 0 {
		s.logger.Info("swept videos", slog.Int("count", count))
	}
}
