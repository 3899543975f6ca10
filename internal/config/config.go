// Package config loads service configuration from the environment.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is the full service configuration, sectioned by concern.
type Config struct {
	Service       ServiceConfig
	Observability ObservabilityConfig
	Kafka         KafkaConfig
	OpenAI        OpenAIConfig
	Embedding     EmbeddingConfig
	Voiceprint    VoiceprintConfig
	AWS           AWSConfig
	Transcribe    TranscribeConfig
	Media         MediaConfig
}

// ServiceConfig holds service identity and the API listener.
type ServiceConfig struct {
	Principal string
	HTTPPort  string
}

// ObservabilityConfig holds logging and the metrics listener.
type ObservabilityConfig struct {
	LogLevel  string
	LogFormat string
	Addr      string
}

// KafkaConfig holds event publishing configuration.
type KafkaConfig struct {
	Enabled         bool
	Brokers         []string
	TopicNormalized string
	TopicResolved   string
	Principal       string
}

// OpenAIConfig holds the completion model configuration.
type OpenAIConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

// EmbeddingConfig holds the voice embedding model endpoint.
type EmbeddingConfig struct {
	Endpoint string
}

// VoiceprintConfig holds the embedding store and matching parameters.
type VoiceprintConfig struct {
	Dir            string
	MatchThreshold float64
}

// AWSConfig holds region and bucket for media and transcript storage.
type AWSConfig struct {
	Region string
	Bucket string
}

// TranscribeConfig holds transcription job parameters.
type TranscribeConfig struct {
	MaxSpeakers  int32
	PollInterval time.Duration
	MaxWait      time.Duration
}

// MediaConfig holds audio conversion configuration.
type MediaConfig struct {
	FFmpegBinary string
}

// Load reads configuration from environment variables, falling back to
// defaults on missing or unparseable values. The Kafka principal falls
// back to the service principal when unset.
func Load() *Config {
	principal := envOrDefault("SERVICE_PRINCIPAL", "svc-meeting-insights")

	return &Config{
		Service: ServiceConfig{
			Principal: principal,
			HTTPPort:  envOrDefault("HTTP_PORT", "8080"),
		},
		Observability: ObservabilityConfig{
			LogLevel:  envOrDefault("LOG_LEVEL", "info"),
			LogFormat: envOrDefault("LOG_FORMAT", "json"),
			Addr:      envOrDefault("OBSERVABILITY_ADDR", ":9090"),
		},
		Kafka: KafkaConfig{
			Enabled:         envOrDefaultBool("KAFKA_ENABLED", false),
			Brokers:         envList("KAFKA_BROKERS"),
			TopicNormalized: envOrDefault("KAFKA_TOPIC_NORMALIZED", "meeting.transcript.normalized"),
			TopicResolved:   envOrDefault("KAFKA_TOPIC_RESOLVED", "meeting.speakers.resolved"),
			Principal:       envOrDefault("KAFKA_PRINCIPAL", principal),
		},
		OpenAI: OpenAIConfig{
			APIKey:  os.Getenv("OPENAI_API_KEY"),
			Model:   envOrDefault("OPENAI_MODEL", "gpt-4o-mini"),
			BaseURL: os.Getenv("OPENAI_BASE_URL"),
		},
		Embedding: EmbeddingConfig{
			Endpoint: envOrDefault("EMBEDDING_ENDPOINT", "http://localhost:8500/embed"),
		},
		Voiceprint: VoiceprintConfig{
			Dir:            envOrDefault("VOICEPRINT_DIR", "data/voiceprints"),
			MatchThreshold: envOrDefaultFloat("VOICEPRINT_MATCH_THRESHOLD", 0.85),
		},
		AWS: AWSConfig{
			Region: envOrDefault("AWS_REGION", "us-east-1"),
			Bucket: envOrDefault("MEETINGS_BUCKET", "meeting-insights"),
		},
		Transcribe: TranscribeConfig{
			MaxSpeakers:  int32(envOrDefaultInt("TRANSCRIBE_MAX_SPEAKERS", 10)),
			PollInterval: envOrDefaultDuration("TRANSCRIBE_POLL_INTERVAL", 5*time.Second),
			MaxWait:      envOrDefaultDuration("TRANSCRIBE_MAX_WAIT", 15*time.Minute),
		},
		Media: MediaConfig{
			FFmpegBinary: envOrDefault("FFMPEG_BINARY", "ffmpeg"),
		},
	}
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envOrDefaultBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(strings.ToLower(v))
	if err != nil {
		return def
	}
	return b
}

func envOrDefaultInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func envOrDefaultFloat(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

func envOrDefaultDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

func envList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
