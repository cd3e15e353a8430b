package handler

import (
	"net/http"

	"github.com/gorilla/mux"
	"golang.org/x/exp/slog"
)

type Server struct {
	router *mux.Router
	logger *slog.Logger
}

func NewServer(videoAPI *VideoAPI, chatAPI *ChatAPI, logger *slog.Logger) *Server {
	router := mux.NewRouter()
	router.HandleFunc("/api/videos", videoAPI.Create).Methods(http.MethodPost)
	router.HandleFunc("/api/videos", videoAPI.List).Methods(http.MethodGet)
	router.HandleFunc("/api/videos/metadata", videoAPI.Metadata).Methods(http.MethodPost)
	router.HandleFunc("/api/videos/transcript", videoAPI.ProcessTranscript).Methods(http.MethodPost)
	router.HandleFunc("/api/videos/{videoId}", videoAPI.Get).Methods(http.MethodGet)
	router.HandleFunc("/api/chat", chatAPI.VideoChat).Methods(http.MethodPost)
	router.HandleFunc("/api/script-chat", chatAPI.ScriptChat).Methods(http.MethodPost)
	router.HandleFunc("/api/health", health).Methods(http.MethodGet)

	return &Server{
		router: router,
		logger: logger,
	}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Add("Content-Type", "application/json")
	s.router.ServeHTTP(w, r)
	s.logger.Info("request served", slog.String("method", r.Method), slog.String("path", r.URL.Path))
}

func health(w http.ResponseWriter, _ *http.Request) {
	JSON(w, http.StatusOK, struct {
		Status string `json:"status"`
	}{Status: "ok"})
}
