// Package worker decouples audit emission from request handling: services
// push events onto a channel and the worker drains it into a sink.
package worker

import (
	"context"
	"errors"
	"log/slog"

	"custodia/internal/platform/audit"
)

// Worker consumes audit events from a channel and forwards them to a sink.
type Worker struct {
	sink   audit.Sink
	inbox  <-chan audit.Event
	logger *slog.Logger
}

// New creates a worker reading from inbox.
func New(sink audit.Sink, inbox <-chan audit.Event, logger *slog.Logger) *Worker {
	return &Worker{sink: sink, inbox: inbox, logger: logger}
}

// ChannelSink adapts an inbox channel into a Sink for the producing side.
// Append never blocks; events are dropped when the inbox is full.
func ChannelSink(inbox chan<- audit.Event) audit.Sink {
	return audit.SinkFunc(func(_ context.Context, event audit.Event) error {
		select {
		case inbox <- event:
			return nil
		default:
			return errInboxFull
		}
	})
}

var errInboxFull = errors.New("audit inbox full, event dropped")

// Run drains the inbox until ctx is cancelled. Sink failures are logged
// and do not stop the worker: the custody trail is fail-open here, with
// the ledger itself remaining the authoritative record.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.inbox:
			if err := w.sink.Append(ctx, event); err != nil && w.logger != nil {
				w.logger.ErrorContext(ctx, "audit append failed",
					"action", string(event.Action),
					"asset_id", event.AssetID.Hex(),
					"error", err,
				)
			}
		}
	}
}
