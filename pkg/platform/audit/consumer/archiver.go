// Package consumer materializes mirrored audit events from Kafka back into
// the audit_events table. Deployments that run the publisher without a
// local Postgres store use this to build the queryable trail downstream.
package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"registrar/internal/platform/kafka/consumer"
	id "registrar/pkg/domain"
	audit "registrar/pkg/platform/audit"

	"github.com/google/uuid"
)

// ArchiveStore persists events keyed by their Kafka record ID so
// redeliveries collapse into a single row.
type ArchiveStore interface {
	AppendWithID(ctx context.Context, eventID uuid.UUID, event audit.Event) error
}

// Archiver handles audit topic messages.
type Archiver struct {
	store  ArchiveStore
	logger *slog.Logger
}

func NewArchiver(store ArchiveStore, logger *slog.Logger) *Archiver {
	return &Archiver{store: store, logger: logger}
}

// payload matches the JSON structure the Kafka sink produces.
type payload struct {
	ID        string `json:"ID"`
	Category  string `json:"Category"`
	Timestamp string `json:"Timestamp"`
	Reference string `json:"Reference"`
	Subject   string `json:"Subject"`
	Number    string `json:"Number"`
	Format    string `json:"Format"`
	Action    string `json:"Action"`
	Reason    string `json:"Reason"`
	RequestID string `json:"RequestID"`
	ClientIP  string `json:"ClientIP"`
}

// Handle processes one audit event message. Malformed messages are logged
// and committed; only store failures trigger redelivery.
func (a *Archiver) Handle(ctx context.Context, msg *consumer.Message) error {
	eventID, err := uuid.Parse(string(msg.Key))
	if err != nil {
		a.logger.Error("failed to parse audit event ID",
			"key", string(msg.Key),
			"error", err,
		)
		// Return nil to commit - malformed messages must not block the
		// partition.
		return nil
	}

	var body payload
	if err := json.Unmarshal(msg.Value, &body); err != nil {
		a.logger.Error("failed to unmarshal audit payload",
			"event_id", eventID,
			"error", err,
		)
		return nil
	}

	if body.Action == "" {
		a.logger.Error("audit payload missing action", "event_id", eventID)
		return nil
	}

	event := audit.Event{
		Category:  audit.EventCategory(body.Category),
		Reference: id.Reference(body.Reference),
		Subject:   body.Subject,
		Number:    body.Number,
		Format:    body.Format,
		Action:    body.Action,
		Reason:    body.Reason,
		RequestID: body.RequestID,
		ClientIP:  body.ClientIP,
	}

	if body.Timestamp != "" {
		if ts, err := time.Parse(time.RFC3339Nano, body.Timestamp); err == nil {
			event.Timestamp = ts
		} else {
			event.Timestamp = time.Now()
		}
	} else {
		event.Timestamp = time.Now()
	}

	if err := a.store.AppendWithID(ctx, eventID, event); err != nil {
		a.logger.Error("failed to store audit event",
			"event_id", eventID,
			"action", event.Action,
			"error", err,
		)
		return fmt.Errorf("store audit event: %w", err)
	}

	a.logger.Debug("archived audit event",
		"event_id", eventID,
		"action", event.Action,
		"category", event.Category,
	)

	return nil
}
