package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"ewintr.nl/tubescribe/model"
	"ewintr.nl/tubescribe/pipeline"
	"ewintr.nl/tubescribe/storage"
	"ewintr.nl/tubescribe/youtube"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"golang.org/x/exp/slog"
)

// VideoProcessor is the part of the pipeline the API triggers.
type VideoProcessor interface {
	Submit(ctx context.Context, userID, youtubeURL string) (*model.Video, error)
	Process(ctx context.Context, video *model.Video) error
}

type MetadataFetcher interface {
	FetchMetadata(ctx context.Context, id model.YoutubeVideoID) (youtube.Metadata, error)
}

type VideoAPI struct {
	videos      storage.VideoRepository
	transcripts storage.TranscriptRepository
	analyses    storage.AnalysisRepository
	processor   VideoProcessor
	metadata    MetadataFetcher
	auth        Authorizer
	logger      *slog.Logger
}

func NewVideoAPI(videos storage.VideoRepository, transcripts storage.TranscriptRepository, analyses storage.AnalysisRepository, processor VideoProcessor, metadata MetadataFetcher, auth Authorizer, logger *slog.Logger) *VideoAPI {
	return &VideoAPI{
		videos:      videos,
		transcripts: transcripts,
		analyses:    analyses,
		processor:   processor,
		metadata:    metadata,
		auth:        auth,
		logger:      logger,
	}
}

func (api *VideoAPI) Create(w http.ResponseWriter, r *http.Request) {
	userID, err := api.auth.CurrentUserID(r)
	if err != nil {
		Error(w, http.StatusUnauthorized, "Unauthorized", nil)
		return
	}

	var body struct {
		YoutubeURL string `json:"youtubeUrl"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		Error(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	video, err := api.processor.Submit(r.Context(), userID, body.YoutubeURL)
	switch {
	case errors.Is(err, pipeline.ErrInvalidURL):
		Error(w, http.StatusBadRequest, "Invalid YouTube URL", nil)
		return
	case err != nil:
		api.returnErr(w, "Failed to create video", err)
		return
	}

	JSON(w, http.StatusCreated, struct {
		VideoID string `json:"videoId"`
	}{VideoID: video.ID.String()})
}

func (api *VideoAPI) List(w http.ResponseWriter, r *http.Request) {
	userID, err := api.auth.CurrentUserID(r)
	if err != nil {
		Error(w, http.StatusUnauthorized, "Unauthorized", nil)
		return
	}

	videos, err := api.videos.FindByUser(r.Context(), userID)
	if err != nil {
		api.returnErr(w, "Failed to list videos", err)
		return
	}

	response := make([]respVideo, 0, len(videos))
	for _, video := range videos {
		response = append(response, newRespVideo(video))
	}
	JSON(w, http.StatusOK, response)
}

func (api *VideoAPI) Get(w http.ResponseWriter, r *http.Request) {
	userID, err := api.auth.CurrentUserID(r)
	if err != nil {
		Error(w, http.StatusUnauthorized, "Unauthorized", nil)
		return
	}

	video, ok := api.loadVideo(w, r, userID, mux.Vars(r)["videoId"])
	if !ok {
		return
	}

	response := struct {
		respVideo
		Transcript *respTranscript `json:"transcript,omitempty"`
		Analysis   *model.Analysis `json:"analysis,omitempty"`
	}{respVideo: newRespVideo(video)}

	if transcript, err := api.transcripts.FindByVideo(r.Context(), video.ID); err == nil {
		response.Transcript = &respTranscript{Content: transcript.Content, Language: transcript.Language}
	}
	if analysis, err := api.analyses.FindByVideo(r.Context(), video.ID); err == nil {
		response.Analysis = analysis
	}

	JSON(w, http.StatusOK, response)
}

// Metadata patches the video record with title, description, thumbnail and
// duration from the metadata provider. It runs before the transcript stage
// in the dashboard flow but is independent of it.
func (api *VideoAPI) Metadata(w http.ResponseWriter, r *http.Request) {
	userID, err := api.auth.CurrentUserID(r)
	if err != nil {
		Error(w, http.StatusUnauthorized, "Unauthorized", nil)
		return
	}

	var body struct {
		VideoID string `json:"videoId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		Error(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	video, ok := api.loadVideo(w, r, userID, body.VideoID)
	if !ok {
		return
	}

	md, err := api.metadata.FetchMetadata(r.Context(), video.YoutubeID)
	if err != nil {
		api.returnErr(w, "Failed to fetch video metadata", err)
		return
	}

	video.Title = md.Title
	video.Description = md.Description
	video.ThumbnailURL = md.ThumbnailURL
	video.Duration = md.Duration
	if err := api.videos.Save(r.Context(), video); err != nil {
		api.returnErr(w, "Failed to save video metadata", err)
		return
	}

	JSON(w, http.StatusOK, struct {
		Title        string `json:"title"`
		Description  string `json:"description"`
		ThumbnailURL string `json:"thumbnailUrl"`
		Duration     string `json:"duration"`
	}{md.Title, md.Description, md.ThumbnailURL, md.Duration})
}

// ProcessTranscript runs the full pipeline for a video: fetch the
// transcript, analyze it and move the status to a terminal state.
func (api *VideoAPI) ProcessTranscript(w http.ResponseWriter, r *http.Request) {
	userID, err := api.auth.CurrentUserID(r)
	if err != nil {
		Error(w, http.StatusUnauthorized, "Unauthorized", nil)
		return
	}

	var body struct {
		VideoID    string `json:"videoId"`
		YoutubeID  string `json:"youtubeId"`
		YoutubeURL string `json:"youtubeUrl"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		Error(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if body.YoutubeID == "" && body.YoutubeURL == "" {
		Error(w, http.StatusBadRequest, "Either youtubeId or youtubeUrl is required", nil)
		return
	}

	video, ok := api.loadVideo(w, r, userID, body.VideoID)
	if !ok {
		return
	}
	if id, ok := youtube.ExtractVideoID(body.YoutubeID); ok {
		video.YoutubeID = id
	}
	if body.YoutubeURL != "" {
		video.YoutubeURL = body.YoutubeURL
	}

	if err := api.processor.Process(r.Context(), video); err != nil {
		if errors.Is(err, pipeline.ErrMissingSource) {
			Error(w, http.StatusBadRequest, "Either youtubeId or youtubeUrl is required", nil)
			return
		}
		api.returnErr(w, "Failed to process video", err)
		return
	}

	Success(w)
}

func (api *VideoAPI) loadVideo(w http.ResponseWriter, r *http.Request, userID, rawID string) (*model.Video, bool) {
	videoID, err := uuid.Parse(rawID)
	if err != nil {
		Error(w, http.StatusBadRequest, "Invalid video id", err)
		return nil, false
	}

	video, err := api.videos.Find(r.Context(), videoID)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		Error(w, http.StatusBadRequest, "Video not found", nil)
		return nil, false
	case err != nil:
		api.returnErr(w, "Failed to load video", err)
		return nil, false
	case video.UserID != userID:
		Error(w, http.StatusForbidden, "Forbidden", nil)
		return nil, false
	}

	return video, true
}

func (api *VideoAPI) returnErr(w http.ResponseWriter, message string, err error) {
	api.logger.Error(message, slog.String("error", err.Error()))
	Error(w, http.StatusInternalServerError, message, err)
}

type respVideo struct {
	ID           string    `json:"id"`
	YoutubeID    string    `json:"youtubeId"`
	YoutubeURL   string    `json:"youtubeUrl"`
	Title        string    `json:"title"`
	ThumbnailURL string    `json:"thumbnailUrl"`
	Duration     string    `json:"duration"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"createdAt"`
}

type respTranscript struct {
	Content  string `json:"content"`
	Language string `json:"language"`
}

func newRespVideo(video *model.Video) respVideo {
	return respVideo{
		ID:           video.ID.String(),
		YoutubeID:    string(video.YoutubeID),
		YoutubeURL:   video.YoutubeURL,
		Title:        video.Title,
		ThumbnailURL: video.ThumbnailURL,
		Duration:     video.Duration,
		Status:       string(video.Status),
		CreatedAt:    video.CreatedAt,
	}
}
