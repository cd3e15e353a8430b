package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"ewintr.nl/tubescribe/storage"
	"github.com/google/uuid"
	"golang.org/x/exp/slog"
)

// Generator is the same single operation the analyzer uses, here with
// free-form prompts.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type ChatAPI struct {
	gen         Generator
	transcripts storage.TranscriptRepository
	analyses    storage.AnalysisRepository
	auth        Authorizer
	logger      *slog.Logger
}

func NewChatAPI(gen Generator, transcripts storage.TranscriptRepository, analyses storage.AnalysisRepository, auth Authorizer, logger *slog.Logger) *ChatAPI {
	return &ChatAPI{
		gen:         gen,
		transcripts: transcripts,
		analyses:    analyses,
		auth:        auth,
		logger:      logger,
	}
}

// VideoChat answers a question grounded in the stored transcript and
// analysis of one video.
func (api *ChatAPI) VideoChat(w http.ResponseWriter, r *http.Request) {
	if _, err := api.auth.CurrentUserID(r); err != nil {
		Error(w, http.StatusUnauthorized, "Unauthorized", nil)
		return
	}

	var body struct {
		Message string `json:"message"`
		VideoID string `json:"videoId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		Error(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if body.Message == "" {
		Error(w, http.StatusBadRequest, "Message is required", nil)
		return
	}
	videoID, err := uuid.Parse(body.VideoID)
	if err != nil {
		Error(w, http.StatusBadRequest, "Invalid video id", err)
		return
	}

	transcript, err := api.transcripts.FindByVideo(r.Context(), videoID)
	if errors.Is(err, storage.ErrNotFound) {
		Error(w, http.StatusBadRequest, "No transcript for video", nil)
		return
	}
	if err != nil {
		api.returnErr(w, "Failed to load transcript", err)
		return
	}

	var sb strings.Builder
	sb.WriteString("You are an AI assistant analyzing a YouTube video.\n")
	fmt.Fprintf(&sb, "Here's the video transcript: %s\n\n", transcript.Content)
	if analysis, err := api.analyses.FindByVideo(r.Context(), videoID); err == nil {
		sb.WriteString("Analysis of the video:\n")
		fmt.Fprintf(&sb, "- Summary: %s\n", analysis.Summary)
		fmt.Fprintf(&sb, "- Key Points: %s\n", strings.Join(analysis.KeyPoints, ", "))
		fmt.Fprintf(&sb, "- Sentiment: %s\n", analysis.Sentiment)
		fmt.Fprintf(&sb, "- Content Rating: %s\n\n", analysis.ContentRating)
	}
	sb.WriteString("Please provide a detailed, accurate response based on this context.\n\n")
	fmt.Fprintf(&sb, "Question: %s", body.Message)

	response, err := api.gen.Generate(r.Context(), sb.String())
	if err != nil {
		api.returnErr(w, "Failed to generate response", err)
		return
	}

	JSON(w, http.StatusOK, struct {
		Response string `json:"response"`
	}{Response: response})
}

// ScriptChat assists with a script the user is drafting. The script itself
// travels in the request, nothing is read from the store.
func (api *ChatAPI) ScriptChat(w http.ResponseWriter, r *http.Request) {
	if _, err := api.auth.CurrentUserID(r); err != nil {
		Error(w, http.StatusUnauthorized, "Unauthorized", nil)
		return
	}

	var body struct {
		Message string `json:"message"`
		Context struct {
			ScriptContent string `json:"scriptContent"`
		} `json:"context"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		Error(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if body.Message == "" {
		Error(w, http.StatusBadRequest, "Message is required", nil)
		return
	}

	var sb strings.Builder
	sb.WriteString("You are an AI assistant helping with a YouTube script. ")
	sb.WriteString("Answer questions about the script content, provide suggestions for improvements, and help with any script-related queries. ")
	sb.WriteString("Be concise, helpful, and creative.\n\n")
	fmt.Fprintf(&sb, "Here is the script content for reference:\n%s\n\n", body.Context.ScriptContent)
	fmt.Fprintf(&sb, "Question: %s", body.Message)

	response, err := api.gen.Generate(r.Context(), sb.String())
	if err != nil {
		api.returnErr(w, "Failed to generate response", err)
		return
	}

	JSON(w, http.StatusOK, struct {
		Response string `json:"response"`
	}{Response: response})
}

func (api *ChatAPI) returnErr(w http.ResponseWriter, message string, err error) {
	api.logger.Error(message, slog.String("error", err.Error()))
	Error(w, http.StatusInternalServerError, message, err)
}
