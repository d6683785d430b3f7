// Package services – ChatService
//
// This file implements ChatService, which runs the chat pipeline for one
// inbound message:
//
//  1. resolve the tenant (never fails, falls back to the default tenant),
//  2. validate and sanitize the message,
//  3. classify the intent,
//  4. generate a reply in the tenant's personality,
//  5. route the follow-up action, mailing the department when the request
//     qualifies.
//
// Only validation produces an error. Everything after the reply is generated
// (email routing, session persistence, spreadsheet and event logging,
// self-rating) is a side effect: failures are logged and never change the
// response.
//
// Observability: Reply is OpenTelemetry-instrumented; the span carries the
// tenant, session and intent.
package services

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/chatguus/chatguus-backend/internal/action"
	"github.com/chatguus/chatguus-backend/internal/domain"
	"github.com/chatguus/chatguus-backend/internal/email"
	"github.com/chatguus/chatguus-backend/internal/intent"
	"github.com/chatguus/chatguus-backend/internal/notify"
	"github.com/chatguus/chatguus-backend/internal/observability"
	"github.com/chatguus/chatguus-backend/internal/personality"
	"github.com/chatguus/chatguus-backend/internal/repo"
	"github.com/chatguus/chatguus-backend/internal/sanitize"
	"github.com/chatguus/chatguus-backend/internal/tenant"
)

// Responder produces the reply text for a classified message. It never
// fails; implementations fall back to a canned message.
type Responder interface {
	Generate(ctx context.Context, t *domain.Tenant, in intent.Intent, message string, history []personality.Turn) string
	Fallback(t *domain.Tenant) string
}

// ChatRequest is one inbound widget message.
type ChatRequest struct {
	Message   string             `json:"message"`
	SessionID string             `json:"sessionId"`
	UserAgent string             `json:"userAgent,omitempty"`
	URL       string             `json:"url,omitempty"`
	TenantID  string             `json:"tenantId,omitempty"`
	History   []personality.Turn `json:"history,omitempty"`

	// Tenant carries the transport-level identifiers (header, query, host,
	// origin). ID is filled from TenantID when empty.
	Tenant tenant.Identifier `json:"-"`
}

// ChatReply is the response to a ChatRequest.
type ChatReply struct {
	Message   string         `json:"message"`
	Action    *action.Action `json:"action,omitempty"`
	SessionID string         `json:"sessionId"`
	Timestamp time.Time      `json:"timestamp"`
	TenantID  string         `json:"tenantId"`
	Intent    intent.Type    `json:"intent"`
}

// ChatService runs the chat pipeline.
type ChatService struct {
	DB        *gorm.DB
	Tenants   *TenantService
	Responder Responder
	Actions   *action.Router
	Analytics *AIAnalyticsService
	Sheets    *notify.Spreadsheet
	Events    notify.Publisher

	now func() time.Time
}

// NewChatService wires a ChatService. Analytics, Sheets and Events may be nil.
func NewChatService(db *gorm.DB, tenants *TenantService, r Responder, actions *action.Router, an *AIAnalyticsService, sheets *notify.Spreadsheet, events notify.Publisher) *ChatService {
	return &ChatService{
		DB:        db,
		Tenants:   tenants,
		Responder: r,
		Actions:   actions,
		Analytics: an,
		Sheets:    sheets,
		Events:    events,
		now:       time.Now,
	}
}

// ResolveTenant returns the tenant req is addressed to.
func (s *ChatService) ResolveTenant(ctx context.Context, req ChatRequest) *domain.Tenant {
	id := req.Tenant
	if id.ID == "" {
		id.ID = req.TenantID
	}
	return s.Tenants.Resolve(ctx, id)
}

// Fallback returns the tenant of req and a reply that points the visitor to a
// human contact. Handlers answer with it when the pipeline fails.
func (s *ChatService) Fallback(ctx context.Context, req ChatRequest) (*domain.Tenant, string) {
	t := s.ResolveTenant(ctx, req)
	return t, s.Responder.Fallback(t)
}

// Reply validates req and produces the chat reply. The returned error is
// always a *ValidationError.
func (s *ChatService) Reply(ctx context.Context, req ChatRequest) (*ChatReply, error) {
	tr := otel.Tracer("services/chat")
	ctx, span := tr.Start(ctx, "Reply",
		trace.WithAttributes(attribute.String("session.id", req.SessionID)),
	)
	defer span.End()

	if v := sanitize.ValidateChatMessage(req.Message); !v.IsValid {
		return nil, NewValidationError("Invalid message", v.Errors...)
	}
	sessionID := strings.TrimSpace(req.SessionID)
	if sessionID == "" {
		return nil, NewValidationError("Session ID is required")
	}
	message := sanitize.UserInput(req.Message)
	if message == "" {
		return nil, NewValidationError("Invalid message", "Message content is required")
	}

	t := s.ResolveTenant(ctx, req)
	in := intent.Classify(message)
	observability.IntentsTotal.WithLabelValues(string(in.Type)).Inc()
	span.SetAttributes(
		attribute.String("tenant.id", t.ID),
		attribute.String("intent.type", string(in.Type)),
		attribute.Float64("intent.confidence", in.Confidence),
	)

	reply := sanitize.BotResponse(s.Responder.Generate(ctx, t, in, message, cleanHistory(req.History)))
	if reply == "" {
		reply = s.Responder.Fallback(t)
	}

	now := s.now().UTC()
	var out action.Outcome
	if s.Actions != nil {
		out = s.Actions.Route(ctx, t, in, email.Request{
			Message:   message,
			SessionID: sessionID,
			UserAgent: req.UserAgent,
			URL:       req.URL,
			Timestamp: now,
		})
	}

	res := &ChatReply{
		Message:   reply,
		Action:    out.Action,
		SessionID: sessionID,
		Timestamp: now,
		TenantID:  t.ID,
		Intent:    in.Type,
	}

	s.recordDispatch(ctx, t, in, sessionID, message, req.URL, out, now)
	s.persist(ctx, t, in, req, sessionID, message, reply, out.Action, now)
	s.rate(ctx, t, sessionID, message, reply)

	log.Ctx(ctx).Info().
		Str("tenant", t.ID).
		Str("session", sessionID).
		Str("intent", string(in.Type)).
		Bool("action", out.Action != nil).
		Msg("chat reply")
	return res, nil
}

// recordDispatch logs a routed request to the spreadsheet and publishes it as
// an event.
func (s *ChatService) recordDispatch(ctx context.Context, t *domain.Tenant, in intent.Intent, sessionID, message, url string, out action.Outcome, now time.Time) {
	if out.Dispatch == nil {
		return
	}
	key := notify.KeyServiceRequest
	if in.Type == intent.EventInquiry {
		key = notify.KeyEventInquiry
	}

	if s.Sheets != nil && tenant.Enabled(t, tenant.FeatureGoogleSheets) {
		var err error
		if key == notify.KeyEventInquiry {
			err = s.Sheets.LogEventInquiry(ctx, notify.EventInquiryLog{
				SessionID:    sessionID,
				EventType:    in.Category,
				Message:      message,
				Requirements: strings.Join(in.Keywords, ", "),
				Timestamp:    now,
			})
		} else {
			err = s.Sheets.LogServiceRequest(ctx, notify.ServiceRequestLog{
				SessionID:   sessionID,
				RequestType: in.Category,
				Message:     message,
				RoutedTo:    out.Dispatch.TargetEmail,
				URL:         url,
				Timestamp:   now,
			})
		}
		if err != nil {
			log.Ctx(ctx).Warn().Err(err).Str("tenant", t.ID).Str("session", sessionID).Msg("spreadsheet dispatch log failed")
		}
	}

	if s.Events != nil {
		env := notify.NewEnvelope(t.ID, sessionID, map[string]any{
			"intent":     in.Type,
			"category":   in.Category,
			"priority":   in.Priority,
			"urgent":     in.Urgent,
			"message":    sanitize.ForLogging(message),
			"department": out.Dispatch.Department,
			"emailSent":  out.Dispatch.EmailSent,
			"messageId":  out.Dispatch.MessageID,
		})
		if err := s.Events.Publish(ctx, key, env); err != nil {
			log.Ctx(ctx).Warn().Err(err).Str("key", key).Str("session", sessionID).Msg("dispatch event failed")
		}
	}
}

// persist appends the exchange to the session transcript and logs the
// interaction to the spreadsheet.
func (s *ChatService) persist(ctx context.Context, t *domain.Tenant, in intent.Intent, req ChatRequest, sessionID, message, reply string, a *action.Action, now time.Time) {
	msgs := []domain.SessionMessage{
		{Content: message, Sender: domain.SenderUser, Timestamp: now, Intent: string(in.Type), Keywords: in.Keywords},
		{Content: reply, Sender: domain.SenderAI, Timestamp: now},
	}
	if a != nil {
		msgs[1].Action = string(a.Type)
	}
	meta := domain.SessionMetadata{
		UserAgent: req.UserAgent,
		URL:       req.URL,
		Language:  tenant.NormalizeLanguage(t.Personality.Data().Language),
	}
	if _, err := repo.UpsertSessionMessages(ctx, s.DB, sessionID, t.ID, msgs, meta); err != nil {
		log.Ctx(ctx).Error().Err(err).Str("tenant", t.ID).Str("session", sessionID).Msg("session persistence failed")
	}

	if s.Sheets != nil && tenant.Enabled(t, tenant.FeatureGoogleSheets) {
		err := s.Sheets.LogInteraction(ctx, notify.Interaction{
			SessionID: sessionID,
			Message:   message,
			Response:  sanitize.PlainText(reply),
			Intent:    string(in.Type),
			UserAgent: req.UserAgent,
			URL:       req.URL,
			Timestamp: now,
		})
		if err != nil {
			log.Ctx(ctx).Warn().Err(err).Str("tenant", t.ID).Str("session", sessionID).Msg("spreadsheet interaction log failed")
		}
	}
}

func (s *ChatService) rate(ctx context.Context, t *domain.Tenant, sessionID, message, reply string) {
	if s.Analytics == nil {
		return
	}
	if _, err := s.Analytics.RateReply(ctx, t.ID, sessionID, message, sanitize.PlainText(reply)); err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("tenant", t.ID).Str("session", sessionID).Msg("self-rating failed")
	}
}

// cleanHistory keeps well-formed turns, sanitized, and drops the rest.
func cleanHistory(h []personality.Turn) []personality.Turn {
	out := make([]personality.Turn, 0, len(h))
	for _, turn := range h {
		role := strings.ToLower(strings.TrimSpace(turn.Role))
		switch role {
		case "user":
		case "assistant", "ai", "bot":
			role = "assistant"
		default:
			continue
		}
		content := sanitize.UserInput(turn.Content)
		if content == "" {
			continue
		}
		out = append(out, personality.Turn{Role: role, Content: content})
	}
	return out
}
