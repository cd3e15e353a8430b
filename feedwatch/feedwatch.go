package feedwatch

import (
	"context"
	"errors"
	"time"

	"ewintr.nl/tubescribe/model"
	"ewintr.nl/tubescribe/pipeline"
	"golang.org/x/exp/slog"
	"miniflux.app/client"
)

// Submitter is the pipeline entry the watcher feeds.
type Submitter interface {
	Submit(ctx context.Context, userID, youtubeURL string) (*model.Video, error)
	Process(ctx context.Context, video *model.Video) error
}

type MinifluxInfo struct {
	Endpoint string
	ApiKey   string
}

// Watcher polls a miniflux instance for unread entries on subscribed
// channels and submits each video through the pipeline, marking the entry
// read afterwards so it is only picked up once.
type Watcher struct {
	client    *client.Client
	submitter Submitter
	userID    string
	interval  time.Duration
	logger    *slog.Logger
}

func NewWatcher(mflInfo MinifluxInfo, submitter Submitter, userID string, interval time.Duration, logger *slog.Logger) *Watcher {
	return &Watcher{
		client:    client.New(mflInfo.Endpoint, mflInfo.ApiKey),
		submitter: submitter,
		userID:    userID,
		interval:  interval,
		logger:    logger,
	}
}

func (w *Watcher) Run(ctx context.Context) {
	w.logger.Info("started feed watcher")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("feed watcher stopped")
			return
		case <-ticker.C:
			w.sweepUnread(ctx)
		}
	}
}

func (w *Watcher) sweepUnread(ctx context.Context) {
	result, err := w.client.Entries(&client.Filter{Status: "unread"})
	if err != nil {
		w.logger.Error("failed to fetch unread entries", slog.String("error", err.Error()))
		return
	}
	if len(result.Entries) == 0 {
		return
	}
	w.logger.Info("fetched unread entries", slog.Int("count", len(result.Entries)))

	for _, entry := range result.Entries {
		video, err := w.submitter.Submit(ctx, w.userID, entry.URL)
		switch {
		case errors.Is(err, pipeline.ErrInvalidURL):
			// not a video entry, skip it
		case err != nil:
			w.logger.Error("failed to submit video", slog.String("url", entry.URL), slog.String("error", err.Error()))
			continue
		default:
			if err := w.submitter.Process(ctx, video); err != nil {
				w.logger.Error("failed to process video", slog.String("video", video.ID.String()), slog.String("error", err.Error()))
			}
		}

		if err := w.client.UpdateEntries([]int64{entry.ID}, "read"); err != nil {
			w.logger.Error("failed to mark entry as read", slog.String("error", err.Error()))
		}
	}
}
