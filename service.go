package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"ewintr.nl/tubescribe/analyze"
	"ewintr.nl/tubescribe/config"
	"ewintr.nl/tubescribe/feedwatch"
	"ewintr.nl/tubescribe/handler"
	"ewintr.nl/tubescribe/pipeline"
	"ewintr.nl/tubescribe/storage"
	"ewintr.nl/tubescribe/transcript"
	"ewintr.nl/tubescribe/youtube"
	"golang.org/x/exp/slog"
	"google.golang.org/api/option"
	youtubeapi "google.golang.org/api/youtube/v3"
)

func main() {

	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(os.Stderr))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("unable to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	postgres, err := storage.NewPostgres(storage.PostgresInfo{
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		Database: cfg.Database.Database,
	})
	if err != nil {
		logger.Error("unable to connect to postgres", slog.String("error", err.Error()))
		os.Exit(1)
	}
	videoRepo := storage.NewPostgresVideoRepository(postgres)
	transcriptRepo := storage.NewPostgresTranscriptRepository(postgres)
	analysisRepo := storage.NewPostgresAnalysisRepository(postgres)

	var vecRepo storage.AnalysisVecRepository
	if cfg.Weaviate.Host != "" {
		weaviate, err := storage.NewWeaviate(cfg.Weaviate.Host, cfg.Weaviate.APIKey, cfg.OpenAI.APIKey)
		if err != nil {
			logger.Error("unable to create weaviate client", slog.String("error", err.Error()))
			os.Exit(1)
		}
		vecRepo = weaviate
	}

	ytService, err := youtubeapi.NewService(ctx, option.WithAPIKey(cfg.YouTube.APIKey))
	if err != nil {
		logger.Error("unable to create youtube service", slog.String("error", err.Error()))
		os.Exit(1)
	}
	metadataClient := youtube.NewClient(ytService)

	fetcher := transcript.NewFetcher(youtube.NewTranscriptSource(&http.Client{}))
	generator := analyze.NewOpenAI(cfg.OpenAI.APIKey, cfg.OpenAI.Model)
	analyzer := analyze.NewAnalyzer(generator)

	pl := pipeline.New(videoRepo, transcriptRepo, analysisRepo, vecRepo, fetcher, analyzer, cfg.Language, logger)

	sweeper := pipeline.NewSweeper(videoRepo, transcriptRepo, analysisRepo, pl, cfg.Sweeper.Schedule, logger)
	if err := sweeper.Start(); err != nil {
		logger.Error("unable to start sweeper", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("sweeper started", slog.String("schedule", cfg.Sweeper.Schedule))

	if cfg.Miniflux.Endpoint != "" {
		interval, err := time.ParseDuration(cfg.Miniflux.Interval)
		if err != nil {
			logger.Error("unable to parse fetch interval", slog.String("error", err.Error()))
			os.Exit(1)
		}
		watcher := feedwatch.NewWatcher(feedwatch.MinifluxInfo{
			Endpoint: cfg.Miniflux.Endpoint,
			ApiKey:   cfg.Miniflux.APIKey,
		}, pl, cfg.Miniflux.UserID, interval, logger)
		go watcher.Run(ctx)
	}

	auth := handler.NewTokenAuthorizer(cfg.Auth.Tokens)
	videoAPI := handler.NewVideoAPI(videoRepo, transcriptRepo, analysisRepo, pl, metadataClient, auth, logger)
	chatAPI := handler.NewChatAPI(generator, transcriptRepo, analysisRepo, auth, logger)
	go http.ListenAndServe(fmt.Sprintf(":%d", cfg.Port), handler.NewServer(videoAPI, chatAPI, logger))
	logger.Info("http server started", slog.Int("port", cfg.Port))

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt)
	<-done

	sweeper.Stop()
	logger.Info("service stopped")
}
