// Package events publishes meeting lifecycle events to Kafka.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"

	"ai-meeting-insights-service/internal/observability/metrics"
)

// Publisher publishes meeting events to separate Kafka topics: one for
// normalized transcripts, one for resolved speaker mappings. When Kafka
// is disabled the publisher runs in log-only mode and every publish
// succeeds without a broker.
type Publisher struct {
	writerNormalized *kafka.Writer
	writerResolved   *kafka.Writer
	principal        string
	topicNormalized  string
	topicResolved    string
	enabled          bool
	metrics          *metrics.Metrics
}

// Config holds Kafka publisher configuration.
type Config struct {
	Brokers         []string
	TopicNormalized string
	TopicResolved   string
	Principal       string
	Enabled         bool
}

// New creates a Kafka event publisher.
func New(cfg *Config) *Publisher {
	m := metrics.DefaultMetrics

	if cfg == nil {
		log.Info().Msg("Kafka disabled (nil config), using log-only mode")
		return &Publisher{
			enabled: false,
			metrics: m,
		}
	}

	if !cfg.Enabled || len(cfg.Brokers) == 0 {
		log.Info().Msg("Kafka disabled, using log-only mode")
		return &Publisher{
			principal:       cfg.Principal,
			topicNormalized: cfg.TopicNormalized,
			topicResolved:   cfg.TopicResolved,
			enabled:         false,
			metrics:         m,
		}
	}

	// Longer dial timeout for DNS resolution in Kubernetes.
	dialer := &kafka.Dialer{
		Timeout:   10 * time.Second,
		DualStack: true,
	}
	transport := &kafka.Transport{
		Dial: dialer.DialFunc,
	}

	newWriter := func(topic string) *kafka.Writer {
		return &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Topic:        topic,
			Balancer:     &kafka.LeastBytes{},
			BatchTimeout: 10 * time.Millisecond,
			WriteTimeout: 10 * time.Second,
			RequiredAcks: kafka.RequireOne,
			Transport:    transport,
		}
	}

	log.Info().
		Strs("brokers", cfg.Brokers).
		Str("topicNormalized", cfg.TopicNormalized).
		Str("topicResolved", cfg.TopicResolved).
		Str("principal", cfg.Principal).
		Msg("Kafka publisher initialized")

	return &Publisher{
		writerNormalized: newWriter(cfg.TopicNormalized),
		writerResolved:   newWriter(cfg.TopicResolved),
		principal:        cfg.Principal,
		topicNormalized:  cfg.TopicNormalized,
		topicResolved:    cfg.TopicResolved,
		enabled:          true,
		metrics:          m,
	}
}

// PublishNormalized publishes a transcript-normalized event.
func (p *Publisher) PublishNormalized(ctx context.Context, key string, event any) error {
	return p.publish(ctx, p.writerNormalized, p.topicNormalized, "normalized", key, event)
}

// PublishResolved publishes a speakers-resolved event.
func (p *Publisher) PublishResolved(ctx context.Context, key string, event any) error {
	return p.publish(ctx, p.writerResolved, p.topicResolved, "resolved", key, event)
}

func (p *Publisher) publish(ctx context.Context, writer *kafka.Writer, topic, eventType, key string, event any) error {
	start := time.Now()

	payload, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Str("topic", topic).Msg("Failed to marshal event")
		return err
	}

	log.Debug().
		Str("principal", p.principal).
		Str("topic", topic).
		Str("key", key).
		RawJSON("payload", payload).
		Msg("Publishing event")

	if !p.enabled || writer == nil {
		p.metrics.RecordKafkaPublish(topic, eventType, nil, time.Since(start).Seconds())
		return nil
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "eventType", Value: []byte(eventType)},
			{Key: "principal", Value: []byte(p.principal)},
		},
	}

	if err := writer.WriteMessages(ctx, msg); err != nil {
		log.Error().
			Err(err).
			Str("topic", topic).
			Str("key", key).
			Msg("Failed to write to Kafka")
		p.metrics.RecordKafkaPublish(topic, eventType, err, time.Since(start).Seconds())
		return err
	}

	p.metrics.RecordKafkaPublish(topic, eventType, nil, time.Since(start).Seconds())
	return nil
}

// Close closes both Kafka writers.
func (p *Publisher) Close() error {
	var err error
	if p.writerNormalized != nil {
		if e := p.writerNormalized.Close(); e != nil {
			log.Error().Err(e).Msg("Error closing normalized writer")
			err = e
		}
	}
	if p.writerResolved != nil {
		if e := p.writerResolved.Close(); e != nil {
			log.Error().Err(e).Msg("Error closing resolved writer")
			err = e
		}
	}
	return err
}
