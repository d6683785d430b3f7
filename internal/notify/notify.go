// Package notify holds the optional side-effect sinks of the chat backend:
// a Slack webhook for poor satisfaction ratings, a spreadsheet log of
// interactions and routed requests, and an AMQP event publisher. Every sink
// has a log-only variant used when it is not configured, so callers never
// branch on configuration.
package notify

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Routing keys of published events.
const (
	KeyServiceRequest = "request.service"
	KeyEventInquiry   = "request.event"
	KeyRatingNegative = "rating.negative"
	KeyMissingAnswer  = "answer.missing"
)

// Meta identifies one published event.
type Meta struct {
	ID            string    `json:"id"`
	CorrelationID string    `json:"correlationId,omitempty"`
	TenantID      string    `json:"tenantId"`
	OccurredAt    time.Time `json:"occurredAt"`
}

// Envelope wraps an event payload with its metadata.
type Envelope struct {
	Meta Meta `json:"meta"`
	Data any  `json:"data"`
}

// NewEnvelope stamps data with a fresh id and the current time. The session
// id, when present, doubles as the correlation id.
func NewEnvelope(tenantID, sessionID string, data any) Envelope {
	return Envelope{
		Meta: Meta{
			ID:            uuid.NewString(),
			CorrelationID: sessionID,
			TenantID:      tenantID,
			OccurredAt:    time.Now().UTC(),
		},
		Data: data,
	}
}

// Publisher emits domain events.
type Publisher interface {
	Publish(ctx context.Context, key string, msg Envelope) error
	Close() error
}

// LogPublisher logs events instead of publishing them.
type LogPublisher struct{}

// Publish implements Publisher.
func (LogPublisher) Publish(ctx context.Context, key string, msg Envelope) error {
	log.Ctx(ctx).Info().
		Str("key", key).
		Str("event_id", msg.Meta.ID).
		Str("tenant", msg.Meta.TenantID).
		Interface("data", msg.Data).
		Msg("event logged (AMQP not configured)")
	return nil
}

// Close implements Publisher.
func (LogPublisher) Close() error { return nil }

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
