// Package services – SatisfactionService
//
// This file implements SatisfactionService, which accepts user satisfaction
// ratings (1..5) for a chat session and aggregates them into the satisfaction
// report.
//
// Submission fans out to three independent writes: the store, the low-rating
// alert and the rating event. They run concurrently and settle independently;
// only a failed store write fails the submission.
package services

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/chatguus/chatguus-backend/internal/analytics"
	"github.com/chatguus/chatguus-backend/internal/domain"
	"github.com/chatguus/chatguus-backend/internal/notify"
	"github.com/chatguus/chatguus-backend/internal/observability"
	"github.com/chatguus/chatguus-backend/internal/repo"
	"github.com/chatguus/chatguus-backend/internal/sanitize"
	"github.com/chatguus/chatguus-backend/internal/tenant"
)

// DefaultReportPeriod applies when a report period is missing or unknown.
const DefaultReportPeriod = "90d"

// SatisfactionInput is a rating submitted by the widget.
type SatisfactionInput struct {
	SessionID       string   `json:"sessionId"`
	TenantID        string   `json:"tenantId,omitempty"`
	Rating          int      `json:"rating"`
	Feedback        string   `json:"feedback,omitempty"`
	Categories      []string `json:"categories,omitempty"`
	SessionDuration int64    `json:"sessionDuration,omitempty"`
	MessageCount    int      `json:"messageCount,omitempty"`
	WasResolved     *bool    `json:"wasResolved,omitempty"`
	WasEscalated    *bool    `json:"wasEscalated,omitempty"`
	UserAgent       string   `json:"userAgent,omitempty"`
	URL             string   `json:"url,omitempty"`
	Language        string   `json:"language,omitempty"`

	Tenant tenant.Identifier `json:"-"`
}

// SubmittedRating is the result of Submit.
type SubmittedRating struct {
	Success  bool                  `json:"success"`
	RatingID string                `json:"ratingId"`
	Message  string                `json:"message"`
	Analysis domain.RatingAnalysis `json:"analysis"`
}

// SatisfactionService stores and reports satisfaction ratings.
type SatisfactionService struct {
	DB      *gorm.DB
	Tenants *TenantService
	Alerts  notify.Alerter
	Sheets  *notify.Spreadsheet
	Events  notify.Publisher

	now func() time.Time
}

// NewSatisfactionService wires a SatisfactionService. alerts, sheets and
// events may be nil.
func NewSatisfactionService(db *gorm.DB, tenants *TenantService, alerts notify.Alerter, sheets *notify.Spreadsheet, events notify.Publisher) *SatisfactionService {
	return &SatisfactionService{DB: db, Tenants: tenants, Alerts: alerts, Sheets: sheets, Events: events, now: time.Now}
}

// Submit validates in, analyses it and stores it.
func (s *SatisfactionService) Submit(ctx context.Context, in SatisfactionInput) (*SubmittedRating, error) {
	ctx, span := otel.Tracer("services/satisfaction").Start(ctx, "Submit",
		trace.WithAttributes(
			attribute.String("session.id", in.SessionID),
			attribute.Int("rating", in.Rating),
		),
	)
	defer span.End()

	sessionID := strings.TrimSpace(in.SessionID)
	if in.Rating == 0 || sessionID == "" {
		return nil, NewValidationError("Missing required fields: rating, sessionId")
	}
	if in.Rating < 1 || in.Rating > 5 {
		return nil, NewValidationError("Invalid rating", "rating must be between 1 and 5")
	}

	id := in.Tenant
	if id.ID == "" {
		id.ID = in.TenantID
	}
	t := s.Tenants.Resolve(ctx, id)

	lang := tenant.NormalizeLanguage(in.Language)
	if strings.TrimSpace(in.Language) == "" {
		lang = tenant.NormalizeLanguage(t.Personality.Data().Language)
	}
	feedback := sanitize.UserInput(in.Feedback)
	a := analytics.AnalyzeRating(in.Rating, feedback, in.Categories)

	rec := domain.SatisfactionRating{
		ID:              uuid.NewString(),
		SessionID:       sessionID,
		TenantID:        t.ID,
		Rating:          in.Rating,
		Feedback:        feedback,
		Categories:      datatypes.NewJSONSlice(nonNil(in.Categories)),
		SessionDuration: in.SessionDuration,
		MessageCount:    in.MessageCount,
		WasResolved:     in.WasResolved,
		WasEscalated:    in.WasEscalated,
		UserAgent:       analytics.SanitizeUserAgent(in.UserAgent),
		URL:             analytics.SanitizeURL(in.URL),
		Language:        lang,
		Sentiment:       a.Sentiment,
		Analysis:        datatypes.NewJSONType(a),
		CreatedAt:       s.now().UTC(),
	}

	storeErr := s.fanOut(ctx, rec)
	if storeErr != nil {
		span.RecordError(storeErr)
		return nil, storeErr
	}
	observability.SatisfactionRatingsTotal.WithLabelValues(a.Sentiment).Inc()

	log.Ctx(ctx).Info().
		Str("tenant", t.ID).
		Str("session", sessionID).
		Int("rating", in.Rating).
		Str("sentiment", a.Sentiment).
		Str("priority", a.Priority).
		Msg("satisfaction rating stored")

	return &SubmittedRating{
		Success:  true,
		RatingID: rec.ID,
		Message:  analytics.RatingMessage(in.Rating),
		Analysis: a,
	}, nil
}

// fanOut runs the store write, the alert, the sheet row and the event
// concurrently and waits for all of them. It returns the store error only.
func (s *SatisfactionService) fanOut(ctx context.Context, rec domain.SatisfactionRating) error {
	var (
		wg       sync.WaitGroup
		storeErr error
	)

	wg.Add(1)
	go func() {
		defer wg.Done()
		r := rec
		storeErr = repo.InsertSatisfactionRating(ctx, s.DB, &r)
	}()

	if s.Alerts != nil && rec.Rating <= notify.LowRatingThreshold {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := s.Alerts.LowRating(ctx, rec); err != nil {
				log.Ctx(ctx).Warn().Err(err).Str("rating", rec.ID).Msg("low rating alert failed")
			}
		}()
	}

	if s.Sheets != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := s.Sheets.LogRating(ctx, rec); err != nil {
				log.Ctx(ctx).Warn().Err(err).Str("rating", rec.ID).Msg("rating sheet row failed")
			}
		}()
	}

	if s.Events != nil && rec.Analysis.Data().ActionRequired {
		wg.Add(1)
		go func() {
			defer wg.Done()
			env := notify.NewEnvelope(rec.TenantID, rec.SessionID, map[string]any{
				"ratingId":  rec.ID,
				"rating":    rec.Rating,
				"feedback":  sanitize.ForLogging(rec.Feedback),
				"analysis":  rec.Analysis.Data(),
				"createdAt": rec.CreatedAt,
			})
			if err := s.Events.Publish(ctx, notify.KeyRatingNegative, env); err != nil {
				log.Ctx(ctx).Warn().Err(err).Str("rating", rec.ID).Msg("rating event failed")
			}
		}()
	}

	wg.Wait()
	return storeErr
}

// Report aggregates the ratings of tenantID (every tenant when empty or
// "all") over period.
func (s *SatisfactionService) Report(ctx context.Context, tenantID, period string) (analytics.Report, error) {
	ctx, span := otel.Tracer("services/satisfaction").Start(ctx, "Report",
		trace.WithAttributes(
			attribute.String("tenant.id", tenantID),
			attribute.String("period", period),
		),
	)
	defer span.End()

	tenantID = allToEmpty(tenantID)
	now := s.now().UTC()
	since, ok := repo.PeriodStart(period, now)
	if !ok {
		period = DefaultReportPeriod
		since, _ = repo.PeriodStart(period, now)
	}

	ratings, err := repo.ListSatisfactionRatings(ctx, s.DB, tenantID, since)
	if err != nil {
		return analytics.Report{}, err
	}
	sessions, err := repo.CountSessions(ctx, s.DB, tenantID)
	if err != nil {
		return analytics.Report{}, err
	}
	return analytics.Aggregate(ratings, sessions, analytics.Scope{
		Tenant: tenantID,
		Period: period,
		Since:  since,
		Now:    now,
	}), nil
}
