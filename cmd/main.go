package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	awstranscribe "github.com/aws/aws-sdk-go-v2/service/transcribe"
	"github.com/joho/godotenv"

	"ai-meeting-insights-service/internal/app"
	"ai-meeting-insights-service/internal/config"
	"ai-meeting-insights-service/internal/events"
	"ai-meeting-insights-service/internal/httpapi"
	"ai-meeting-insights-service/internal/media"
	"ai-meeting-insights-service/internal/observability"
	"ai-meeting-insights-service/internal/service/assign"
	"ai-meeting-insights-service/internal/service/combine"
	"ai-meeting-insights-service/internal/service/embed/httpmodel"
	"ai-meeting-insights-service/internal/service/ingest"
	llmopenai "ai-meeting-insights-service/internal/service/llm/openai"
	"ai-meeting-insights-service/internal/service/normalizer"
	"ai-meeting-insights-service/internal/service/notes"
	"ai-meeting-insights-service/internal/service/transcribe"
	"ai-meeting-insights-service/internal/service/voiceprint"
	"ai-meeting-insights-service/internal/storage"
)

func main() {
	// .env is optional; real deployments configure through the environment.
	_ = godotenv.Load()

	cfg := config.Load()
	application := app.New(cfg)
	logger := application.Logger

	if err := application.Start(); err != nil {
		log.Fatalf("startup failed: %v", err)
	}
	defer application.Shutdown()

	publisher := events.New(&events.Config{
		Enabled:         cfg.Kafka.Enabled,
		Brokers:         cfg.Kafka.Brokers,
		TopicNormalized: cfg.Kafka.TopicNormalized,
		TopicResolved:   cfg.Kafka.TopicResolved,
		Principal:       cfg.Kafka.Principal,
	})
	defer publisher.Close()

	store, err := voiceprint.NewStore(cfg.Voiceprint.Dir, logger)
	if err != nil {
		log.Fatalf("voiceprint store init failed: %v", err)
	}

	converter := media.NewFFmpeg(cfg.Media.FFmpegBinary)
	embedder := httpmodel.New(cfg.Embedding.Endpoint)
	matcher := voiceprint.NewMatcher(embedder, store, converter, cfg.Voiceprint.MatchThreshold, logger)

	completer := llmopenai.New(llmopenai.Config{
		APIKey:  cfg.OpenAI.APIKey,
		Model:   cfg.OpenAI.Model,
		BaseURL: cfg.OpenAI.BaseURL,
	})
	resolver := assign.NewResolver(assign.New(completer, logger), logger)

	deps := httpapi.Deps{
		Normalizer: normalizer.New(logger),
		Notes:      notes.New(logger),
		Combiner:   combine.New(logger),
		Resolver:   resolver,
		Matcher:    matcher,
		Store:      store,
		Publisher:  publisher,
		Logger:     logger,
	}

	// S3 and Transcribe are optional: without AWS credentials the service
	// still serves normalization, resolution and voiceprint routes.
	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(cfg.AWS.Region))
	if err != nil {
		logger.Warn().Err(err).Msg("AWS config unavailable, ingest and transcribe routes disabled")
	} else {
		meetingStore := storage.NewMeetingStore(s3.NewFromConfig(awsCfg), cfg.AWS.Bucket, logger)
		deps.Ingestor = ingest.New(meetingStore, converter, logger)
		deps.Transcriber = transcribe.NewRunner(awstranscribe.NewFromConfig(awsCfg), meetingStore, transcribe.Config{
			OutputBucket: cfg.AWS.Bucket,
			MaxSpeakers:  cfg.Transcribe.MaxSpeakers,
			PollInterval: cfg.Transcribe.PollInterval,
			MaxWait:      cfg.Transcribe.MaxWait,
		}, logger)
	}

	obsServer := observability.NewServer(cfg.Observability.Addr, nil)
	obsServer.Start()

	apiServer := &http.Server{
		Addr:         ":" + cfg.Service.HTTPPort,
		Handler:      httpapi.NewRouter(deps),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute, // uploads and LLM calls are slow
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Str("port", cfg.Service.HTTPPort).Msg("Meeting insights API listening")
		if err := apiServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("API server failed")
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	logger.Info().Msg("Shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := apiServer.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("API server shutdown error")
	}
	if err := obsServer.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("Observability server shutdown error")
	}
}
