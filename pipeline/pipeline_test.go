package pipeline_test

import (
	"context"
	"errors"
	"io"
	"testing"

	"ewintr.nl/tubescribe/model"
	"ewintr.nl/tubescribe/pipeline"
	"ewintr.nl/tubescribe/storage"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard))

type memVideos struct {
	videos    map[uuid.UUID]*model.Video
	updateErr error
}

func newMemVideos() *memVideos {
	return &memVideos{videos: map[uuid.UUID]*model.Video{}}
}

func (m *memVideos) Save(ctx context.Context, video *model.Video) error {
	cp := *video
	m.videos[video.ID] = &cp
	return nil
}

func (m *memVideos) Find(ctx context.Context, id uuid.UUID) (*model.Video, error) {
	video, ok := m.videos[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	cp := *video
	return &cp, nil
}

func (m *memVideos) FindByUser(ctx context.Context, userID string) ([]*model.Video, error) {
	var result []*model.Video
	for _, video := range m.videos {
		if video.UserID == userID {
			cp := *video
			result = append(result, &cp)
		}
	}
	return result, nil
}

func (m *memVideos) FindByStatus(ctx context.Context, statuses ...model.VideoStatus) ([]*model.Video, error) {
	var result []*model.Video
	for _, video := range m.videos {
		for _, status := range statuses {
			if video.Status == status {
				cp := *video
				result = append(result, &cp)
				break
			}
		}
	}
	return result, nil
}

func (m *memVideos) UpdateStatus(ctx context.Context, id uuid.UUID, status model.VideoStatus) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	video, ok := m.videos[id]
	if !ok {
		return storage.ErrNotFound
	}
	video.Status = status
	return nil
}

type memTranscripts struct {
	transcripts map[uuid.UUID]*model.Transcript
	saveErr     error
}

func newMemTranscripts() *memTranscripts {
	return &memTranscripts{transcripts: map[uuid.UUID]*model.Transcript{}}
}

func (m *memTranscripts) Save(ctx context.Context, transcript *model.Transcript) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	cp := *transcript
	m.transcripts[transcript.VideoID] = &cp
	return nil
}

func (m *memTranscripts) FindByVideo(ctx context.Context, videoID uuid.UUID) (*model.Transcript, error) {
	transcript, ok := m.transcripts[videoID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	cp := *transcript
	return &cp, nil
}

type memAnalyses struct {
	analyses map[uuid.UUID]*model.Analysis
}

func newMemAnalyses() *memAnalyses {
	return &memAnalyses{analyses: map[uuid.UUID]*model.Analysis{}}
}

func (m *memAnalyses) Save(ctx context.Context, analysis *model.Analysis) error {
	cp := *analysis
	m.analyses[analysis.VideoID] = &cp
	return nil
}

func (m *memAnalyses) FindByVideo(ctx context.Context, videoID uuid.UUID) (*model.Analysis, error) {
	analysis, ok := m.analyses[videoID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	cp := *analysis
	return &cp, nil
}

type fakeFetcher struct {
	text  string
	err   error
	calls int
}

func (f *fakeFetcher) Fetch(ctx context.Context, youtubeID model.YoutubeVideoID, fallbackURL, language string) (string, error) {
	f.calls++
	return f.text, f.err
}

type fakeAnalyzer struct {
	analysis *model.Analysis
	err      error
	inputs   []string
}

func (f *fakeAnalyzer) Analyze(ctx context.Context, transcriptText string) (*model.Analysis, error) {
	f.inputs = append(f.inputs, transcriptText)
	if f.err != nil {
		return nil, f.err
	}
	cp := *f.analysis
	return &cp, nil
}

type fakeVectors struct {
	err   error
	saved int
}

func (f *fakeVectors) Save(ctx context.Context, video *model.Video, analysis *model.Analysis) error {
	f.saved++
	return f.err
}

func validAnalysis() *model.Analysis {
	return &model.Analysis{
		Summary:       "a summary",
		KeyPoints:     []string{"one", "two"},
		Sentiment:     "neutral",
		ContentRating: "General",
		SuggestedTags: []string{"tag"},
	}
}

type fixture struct {
	videos      *memVideos
	transcripts *memTranscripts
	analyses    *memAnalyses
	vectors     *fakeVectors
	fetcher     *fakeFetcher
	analyzer    *fakeAnalyzer
	pipeline    *pipeline.Pipeline
}

func newFixture() *fixture {
	f := &fixture{
		videos:      newMemVideos(),
		transcripts: newMemTranscripts(),
		analyses:    newMemAnalyses(),
		vectors:     &fakeVectors{},
		fetcher:     &fakeFetcher{text: "hello world"},
		analyzer:    &fakeAnalyzer{analysis: validAnalysis()},
	}
	f.pipeline = pipeline.New(f.videos, f.transcripts, f.analyses, f.vectors, f.fetcher, f.analyzer, "en", discardLogger)
	return f
}

func TestSubmit(t *testing.T) {
	f := newFixture()

	video, err := f.pipeline.Submit(context.Background(), "user-1", "https://www.youtube.com/watch?v=dQw4w9WgXcQ")
	require.NoError(t, err)
	assert.Equal(t, model.YoutubeVideoID("dQw4w9WgXcQ"), video.YoutubeID)
	assert.Equal(t, "user-1", video.UserID)
	assert.Equal(t, model.StatusProcessing, video.Status)

	stored, err := f.videos.Find(context.Background(), video.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusProcessing, stored.Status)
}

func TestSubmitInvalidURL(t *testing.T) {
	f := newFixture()

	_, err := f.pipeline.Submit(context.Background(), "user-1", "https://example.com/not-a-video")
	assert.ErrorIs(t, err, pipeline.ErrInvalidURL)
	assert.Empty(t, f.videos.videos)
}

func TestProcessHappyPath(t *testing.T) {
	f := newFixture()
	video, err := f.pipeline.Submit(context.Background(), "user-1", "https://www.youtube.com/watch?v=dQw4w9WgXcQ")
	require.NoError(t, err)

	require.NoError(t, f.pipeline.Process(context.Background(), video))

	assert.Equal(t, model.StatusCompleted, video.Status)
	stored, err := f.videos.Find(context.Background(), video.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, stored.Status)

	transcript, err := f.transcripts.FindByVideo(context.Background(), video.ID)
	require.NoError(t, err)
	assert.Equal(t, "hello world", transcript.Content)
	assert.Equal(t, "en", transcript.Language)
	assert.Equal(t, "user-1", transcript.UserID)

	analysis, err := f.analyses.FindByVideo(context.Background(), video.ID)
	require.NoError(t, err)
	assert.Equal(t, "a summary", analysis.Summary)
	assert.Equal(t, video.ID, analysis.VideoID)

	assert.Equal(t, 1, f.vectors.saved)
	assert.Equal(t, []string{"hello world"}, f.analyzer.inputs)
}

func TestProcessMissingSource(t *testing.T) {
	f := newFixture()
	video := &model.Video{ID: uuid.New(), Status: model.StatusPending}

	err := f.pipeline.Process(context.Background(), video)
	assert.ErrorIs(t, err, pipeline.ErrMissingSource)
	assert.Equal(t, model.StatusPending, video.Status)
	assert.Zero(t, f.fetcher.calls)
}

func TestProcessFetchFailure(t *testing.T) {
	f := newFixture()
	f.fetcher.err = errors.New("no captions")
	video, err := f.pipeline.Submit(context.Background(), "user-1", "https://www.youtube.com/watch?v=dQw4w9WgXcQ")
	require.NoError(t, err)

	err = f.pipeline.Process(context.Background(), video)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to fetch transcript")

	assert.Equal(t, model.StatusFailed, video.Status)
	_, err = f.transcripts.FindByVideo(context.Background(), video.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.Empty(t, f.analyzer.inputs)
}

func TestProcessAnalyzeFailure(t *testing.T) {
	f := newFixture()
	f.analyzer.err = errors.New("model unavailable")
	video, err := f.pipeline.Submit(context.Background(), "user-1", "https://www.youtube.com/watch?v=dQw4w9WgXcQ")
	require.NoError(t, err)

	err = f.pipeline.Process(context.Background(), video)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to analyze transcript")

	// the transcript survives the failed analysis so a retry can reuse it
	assert.Equal(t, model.StatusFailed, video.Status)
	transcript, trErr := f.transcripts.FindByVideo(context.Background(), video.ID)
	require.NoError(t, trErr)
	assert.Equal(t, "hello world", transcript.Content)
	_, anErr := f.analyses.FindByVideo(context.Background(), video.ID)
	assert.ErrorIs(t, anErr, storage.ErrNotFound)
}

func TestProcessReusesStoredTranscript(t *testing.T) {
	f := newFixture()
	video, err := f.pipeline.Submit(context.Background(), "user-1", "https://www.youtube.com/watch?v=dQw4w9WgXcQ")
	require.NoError(t, err)
	require.NoError(t, f.transcripts.Save(context.Background(), &model.Transcript{
		VideoID: video.ID,
		UserID:  "user-1",
		Content: "previously fetched",
	}))

	require.NoError(t, f.pipeline.Process(context.Background(), video))

	assert.Zero(t, f.fetcher.calls)
	assert.Equal(t, []string{"previously fetched"}, f.analyzer.inputs)
	assert.Equal(t, model.StatusCompleted, video.Status)
}

func TestProcessFailedVideoRetries(t *testing.T) {
	f := newFixture()
	video, err := f.pipeline.Submit(context.Background(), "user-1", "https://www.youtube.com/watch?v=dQw4w9WgXcQ")
	require.NoError(t, err)
	require.NoError(t, f.videos.UpdateStatus(context.Background(), video.ID, model.StatusFailed))
	video.Status = model.StatusFailed

	require.NoError(t, f.pipeline.Process(context.Background(), video))
	assert.Equal(t, model.StatusCompleted, video.Status)
}

func TestProcessCompletedWithRecordsIsNoop(t *testing.T) {
	f := newFixture()
	video, err := f.pipeline.Submit(context.Background(), "user-1", "https://www.youtube.com/watch?v=dQw4w9WgXcQ")
	require.NoError(t, err)
	require.NoError(t, f.pipeline.Process(context.Background(), video))
	require.Equal(t, model.StatusCompleted, video.Status)

	require.NoError(t, f.pipeline.Process(context.Background(), video))

	assert.Equal(t, 1, f.fetcher.calls)
	assert.Len(t, f.analyzer.inputs, 1)
	assert.Equal(t, model.StatusCompleted, video.Status)
}

func TestProcessCompletedMissingAnalysis(t *testing.T) {
	f := newFixture()
	video, err := f.pipeline.Submit(context.Background(), "user-1", "https://www.youtube.com/watch?v=dQw4w9WgXcQ")
	require.NoError(t, err)
	require.NoError(t, f.pipeline.Process(context.Background(), video))
	delete(f.analyses.analyses, video.ID)

	require.NoError(t, f.pipeline.Process(context.Background(), video))

	// the stored transcript is reused, only the analysis is redone
	assert.Equal(t, 1, f.fetcher.calls)
	assert.Len(t, f.analyzer.inputs, 2)
	assert.Equal(t, model.StatusCompleted, video.Status)
	_, err = f.analyses.FindByVideo(context.Background(), video.ID)
	assert.NoError(t, err)
}

func TestProcessVectorSaveFailureIsNotFatal(t *testing.T) {
	f := newFixture()
	f.vectors.err = errors.New("weaviate down")
	video, err := f.pipeline.Submit(context.Background(), "user-1", "https://www.youtube.com/watch?v=dQw4w9WgXcQ")
	require.NoError(t, err)

	require.NoError(t, f.pipeline.Process(context.Background(), video))
	assert.Equal(t, model.StatusCompleted, video.Status)
}

func TestProcessStatusWriteFailureDoesNotMaskResult(t *testing.T) {
	f := newFixture()
	video, err := f.pipeline.Submit(context.Background(), "user-1", "https://www.youtube.com/watch?v=dQw4w9WgXcQ")
	require.NoError(t, err)
	f.videos.updateErr = errors.New("connection reset")

	require.NoError(t, f.pipeline.Process(context.Background(), video))

	// the work itself succeeded, only the status writes were lost
	_, trErr := f.transcripts.FindByVideo(context.Background(), video.ID)
	assert.NoError(t, trErr)
	_, anErr := f.analyses.FindByVideo(context.Background(), video.ID)
	assert.NoError(t, anErr)
}
