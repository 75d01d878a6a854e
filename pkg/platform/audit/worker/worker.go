package worker

import (
	"context"
	"log/slog"

	audit "registrar/pkg/platform/audit"
)

// Appender persists a single audit event.
type Appender interface {
	Append(ctx context.Context, event audit.Event) error
}

// Worker drains audit events from a channel into an Appender. It keeps
// background processing testable without wiring queue implementations.
type Worker struct {
	out    Appender
	inbox  <-chan audit.Event
	logger *slog.Logger
}

func NewWorker(out Appender, inbox <-chan audit.Event, logger *slog.Logger) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{out: out, inbox: inbox, logger: logger}
}

// Run consumes until the context is cancelled or the inbox is closed.
// Append failures are logged and skipped; one bad event must not stall
// the drain.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.inbox:
			if !ok {
				return nil
			}
			if err := w.out.Append(ctx, event); err != nil {
				w.logger.Error("append audit event",
					"action", event.Action,
					"error", err,
				)
			}
		}
	}
}
