// Package kafka mirrors audit events to a Kafka topic for downstream
// consumers (SIEM pipelines, the archiver). The local store stays the
// source of truth; the sink is a best-effort mirror.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	audit "registrar/pkg/platform/audit"

	"github.com/google/uuid"
	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"
)

// DefaultTopic is where audit events land unless configured otherwise.
const DefaultTopic = "registrar.audit"

// Config holds connection settings for the audit topic.
type Config struct {
	Brokers []string
	Topic   string
	// Partitions and ReplicationFactor apply only when the topic does not
	// exist yet.
	Partitions        int32
	ReplicationFactor int16
}

// Sink produces audit events to Kafka. Safe for concurrent use.
type Sink struct {
	client *kgo.Client
	topic  string
}

// NewSink connects to the brokers and ensures the audit topic exists.
func NewSink(ctx context.Context, cfg Config) (*Sink, error) {
	if cfg.Topic == "" {
		cfg.Topic = DefaultTopic
	}
	if cfg.Partitions <= 0 {
		cfg.Partitions = 3
	}
	if cfg.ReplicationFactor <= 0 {
		cfg.ReplicationFactor = 1
	}

	client, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.DefaultProduceTopic(cfg.Topic),
		kgo.ProducerLinger(5*time.Millisecond),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}

	if err := ensureTopic(ctx, client, cfg); err != nil {
		client.Close()
		return nil, err
	}

	return &Sink{client: client, topic: cfg.Topic}, nil
}

func ensureTopic(ctx context.Context, client *kgo.Client, cfg Config) error {
	adm := kadm.NewClient(client)
	resp, err := adm.CreateTopic(ctx, cfg.Partitions, cfg.ReplicationFactor, nil, cfg.Topic)
	if err != nil {
		return fmt.Errorf("create topic %q: %w", cfg.Topic, err)
	}
	if resp.Err != nil && !errors.Is(resp.Err, kerr.TopicAlreadyExists) {
		return fmt.Errorf("create topic %q: %w", cfg.Topic, resp.Err)
	}
	return nil
}

// payload is the JSON structure produced to Kafka. Field names match
// audit.Event so the archiver can deserialize without a mapping layer.
type payload struct {
	ID        string `json:"ID"`
	Category  string `json:"Category"`
	Timestamp string `json:"Timestamp"`
	Reference string `json:"Reference,omitempty"`
	Subject   string `json:"Subject,omitempty"`
	Number    string `json:"Number,omitempty"`
	Format    string `json:"Format,omitempty"`
	Action    string `json:"Action"`
	Reason    string `json:"Reason,omitempty"`
	RequestID string `json:"RequestID,omitempty"`
	ClientIP  string `json:"ClientIP,omitempty"`
}

// Emit produces one event. The record key is a fresh event ID so the
// archiver can deduplicate redeliveries.
func (s *Sink) Emit(ctx context.Context, event audit.Event) error {
	eventID := uuid.New()

	category := event.Category
	if category == "" {
		category = audit.AuditEvent(event.Action).Category()
	}

	body := payload{
		ID:        eventID.String(),
		Category:  string(category),
		Timestamp: event.Timestamp.Format(time.RFC3339Nano),
		Reference: event.Reference.String(),
		Subject:   event.Subject,
		Number:    event.Number,
		Format:    event.Format,
		Action:    event.Action,
		Reason:    event.Reason,
		RequestID: event.RequestID,
		ClientIP:  event.ClientIP,
	}

	value, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal audit payload: %w", err)
	}

	record := &kgo.Record{
		Topic: s.topic,
		Key:   []byte(eventID.String()),
		Value: value,
	}
	if err := s.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce audit event: %w", err)
	}
	return nil
}

// Close flushes buffered records and releases the client.
func (s *Sink) Close() {
	s.client.Close()
}
