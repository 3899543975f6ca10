// Package transcribe starts and tracks diarized transcription jobs on
// Amazon Transcribe and fetches their raw output from S3.
package transcribe

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/transcribe"
	"github.com/aws/aws-sdk-go-v2/service/transcribe/types"
	"github.com/rs/zerolog"

	"ai-meeting-insights-service/internal/observability/metrics"
	"ai-meeting-insights-service/internal/storage"
)

// ErrJobFailed is returned when the transcription job finished in a
// failed state. The failure reason is attached to the wrapping error.
var ErrJobFailed = errors.New("transcription job failed")

// ErrTimeout is returned when the job did not finish within the
// configured wait bound.
var ErrTimeout = errors.New("transcription job timed out")

// Client abstracts the Transcribe API operations used by [Runner].
// The [transcribe.Client] type satisfies this interface.
type Client interface {
	StartTranscriptionJob(ctx context.Context, params *transcribe.StartTranscriptionJobInput, optFns ...func(*transcribe.Options)) (*transcribe.StartTranscriptionJobOutput, error)
	GetTranscriptionJob(ctx context.Context, params *transcribe.GetTranscriptionJobInput, optFns ...func(*transcribe.Options)) (*transcribe.GetTranscriptionJobOutput, error)
}

// Config holds job parameters.
type Config struct {
	OutputBucket string
	MaxSpeakers  int32
	PollInterval time.Duration
	MaxWait      time.Duration
}

// Runner drives a transcription job from submission to fetched output.
type Runner struct {
	client  Client
	store   *storage.MeetingStore
	cfg     Config
	log     zerolog.Logger
	metrics *metrics.Metrics
}

// NewRunner creates a Runner. Zero-valued Config fields get defaults:
// 10 speakers, 5s poll interval, 15m max wait.
func NewRunner(client Client, store *storage.MeetingStore, cfg Config, log zerolog.Logger) *Runner {
	if cfg.MaxSpeakers <= 0 {
		cfg.MaxSpeakers = 10
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 5 * time.Second
	}
	if cfg.MaxWait <= 0 {
		cfg.MaxWait = 15 * time.Minute
	}
	return &Runner{
		client:  client,
		store:   store,
		cfg:     cfg,
		log:     log.With().Str("component", "transcribe-runner").Logger(),
		metrics: metrics.DefaultMetrics,
	}
}

// SanitizeJobName maps a raw name to the character set Transcribe accepts
// for job names: alphanumerics, '.', '_' and '-'. Everything else
// becomes '-'.
func SanitizeJobName(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '.', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteRune('-')
		}
	}
	return b.String()
}

// Start submits a diarized transcription job for the media at mediaURI.
// The job writes its output JSON to outputKey in the configured bucket.
func (r *Runner) Start(ctx context.Context, jobName, mediaURI, outputKey string) error {
	jobName = SanitizeJobName(jobName)

	_, err := r.client.StartTranscriptionJob(ctx, &transcribe.StartTranscriptionJobInput{
		TranscriptionJobName: aws.String(jobName),
		LanguageCode:         types.LanguageCodeEnUs,
		Media: &types.Media{
			MediaFileUri: aws.String(mediaURI),
		},
		MediaFormat:      types.MediaFormatWav,
		OutputBucketName: aws.String(r.cfg.OutputBucket),
		OutputKey:        aws.String(outputKey),
		Settings: &types.Settings{
			ShowSpeakerLabels: aws.Bool(true),
			MaxSpeakerLabels:  aws.Int32(r.cfg.MaxSpeakers),
		},
	})
	if err != nil {
		r.log.Error().Err(err).Str("jobName", jobName).Msg("Failed to start transcription job")
		r.metrics.RecordTranscribeJob("start_failed")
		return err
	}

	r.log.Info().Str("jobName", jobName).Str("mediaUri", mediaURI).Msg("Started transcription job")
	r.metrics.RecordTranscribeJob("started")
	return nil
}

// Wait polls the job until it completes, fails, or the wait bound
// elapses. Returns nil only on completion.
func (r *Runner) Wait(ctx context.Context, jobName string) error {
	jobName = SanitizeJobName(jobName)
	deadline := time.Now().Add(r.cfg.MaxWait)

	ticker := time.NewTicker(r.cfg.PollInterval)
	defer ticker.Stop()

	for {
		out, err := r.client.GetTranscriptionJob(ctx, &transcribe.GetTranscriptionJobInput{
			TranscriptionJobName: aws.String(jobName),
		})
		if err != nil {
			r.log.Error().Err(err).Str("jobName", jobName).Msg("Failed to poll transcription job")
			return err
		}

		status := out.TranscriptionJob.TranscriptionJobStatus
		switch status {
		case types.TranscriptionJobStatusCompleted:
			r.log.Info().Str("jobName", jobName).Msg("Transcription job completed")
			r.metrics.RecordTranscribeJob("completed")
			return nil
		case types.TranscriptionJobStatusFailed:
			reason := aws.ToString(out.TranscriptionJob.FailureReason)
			r.log.Error().Str("jobName", jobName).Str("reason", reason).Msg("Transcription job failed")
			r.metrics.RecordTranscribeJob("failed")
			return fmt.Errorf("%w: %s", ErrJobFailed, reason)
		}

		if time.Now().After(deadline) {
			r.log.Error().Str("jobName", jobName).Dur("maxWait", r.cfg.MaxWait).
				Msg("Transcription job did not finish in time")
			r.metrics.RecordTranscribeJob("timeout")
			return fmt.Errorf("%w: %s after %s", ErrTimeout, jobName, r.cfg.MaxWait)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// FetchOutput downloads the job's raw diarization JSON from the output
// bucket.
func (r *Runner) FetchOutput(ctx context.Context, outputKey string) ([]byte, error) {
	return r.store.Download(ctx, outputKey)
}

// Run submits the job, waits for it, and returns the raw output payload.
func (r *Runner) Run(ctx context.Context, jobName, mediaURI, outputKey string) ([]byte, error) {
	if err := r.Start(ctx, jobName, mediaURI, outputKey); err != nil {
		return nil, err
	}
	if err := r.Wait(ctx, jobName); err != nil {
		return nil, err
	}
	return r.FetchOutput(ctx, outputKey)
}
