// Package services – AIAnalyticsService
//
// This file implements AIAnalyticsService, which stores the automatic
// self-ratings of generated replies, tracks the questions the bot could not
// answer well (missing answers) and serves the AI quality dashboard.
//
// Dashboards are cached per tenant and period for the cache TTL. Every write
// invalidates all cached dashboards; a miss recomputes from the store, so the
// cache never changes what a caller sees beyond the TTL window.
package services

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/chatguus/chatguus-backend/internal/analytics"
	"github.com/chatguus/chatguus-backend/internal/cache"
	"github.com/chatguus/chatguus-backend/internal/domain"
	"github.com/chatguus/chatguus-backend/internal/notify"
	"github.com/chatguus/chatguus-backend/internal/repo"
	"github.com/chatguus/chatguus-backend/internal/tenant"
	"github.com/chatguus/chatguus-backend/internal/utils"
)

// MergeThreshold is the question similarity at which a missing answer is
// merged into an existing one.
const MergeThreshold = 0.8

// Pagination defaults for rating listings.
const (
	DefaultRatingsLimit = 50
	MaxRatingsLimit     = 500
)

const dashboardPrefix = "dashboard:"

// DashboardCacheKey is the cache key of a dashboard for tenantID and period.
// Empty values are keyed as "all".
func DashboardCacheKey(tenantID, period string) string {
	return dashboardPrefix + orAll(tenantID) + ":" + orAll(period)
}

// AIAnalyticsService stores and aggregates AI quality data.
type AIAnalyticsService struct {
	DB     *gorm.DB
	Cache  cache.Cache
	Events notify.Publisher

	now func() time.Time
}

// NewAIAnalyticsService wires an AIAnalyticsService. c and events may be nil.
func NewAIAnalyticsService(db *gorm.DB, c cache.Cache, events notify.Publisher) *AIAnalyticsService {
	return &AIAnalyticsService{DB: db, Cache: c, Events: events, now: time.Now}
}

// AIRatingInput is a self-rating submitted by a client. When Rating is nil
// the reply is scored with the built-in heuristic.
type AIRatingInput struct {
	SessionID    string                `json:"sessionId"`
	TenantID     string                `json:"tenantId"`
	UserQuestion string                `json:"userQuestion"`
	AIResponse   string                `json:"aiResponse"`
	Rating       *analytics.SelfRating `json:"rating,omitempty"`
	Context      map[string]any        `json:"context,omitempty"`
}

// StoredRating is the result of StoreAIRating.
type StoredRating struct {
	Rating        *domain.AIRating      `json:"-"`
	MissingAnswer *domain.MissingAnswer `json:"-"`
	Success       bool                  `json:"success"`
	RatingID      string                `json:"ratingId"`
	Message       string                `json:"message"`
}

// StoreAIRating validates and stores in. Replies below the review
// thresholds are also tracked as missing answers.
func (s *AIAnalyticsService) StoreAIRating(ctx context.Context, in AIRatingInput) (*StoredRating, error) {
	ctx, span := otel.Tracer("services/ai_analytics").Start(ctx, "StoreAIRating",
		trace.WithAttributes(attribute.String("tenant.id", in.TenantID)),
	)
	defer span.End()

	if strings.TrimSpace(in.AIResponse) == "" {
		return nil, NewValidationError("Invalid AI rating", "aiResponse is required")
	}
	sr := analytics.RateResponse(in.AIResponse)
	if in.Rating != nil {
		if problems := checkSelfRating(*in.Rating); len(problems) > 0 {
			return nil, NewValidationError("Invalid AI rating", problems...)
		}
		sr = *in.Rating
		if sr.Overall == 0 {
			sr.Overall = float64(sr.Accuracy+sr.Helpfulness+sr.Completeness+sr.Clarity+sr.Relevance) / 5
		}
		if sr.Category == "" {
			sr.Category = analytics.RatedGeneral
		}
	}

	rec, err := s.insertRating(ctx, orDefaultTenant(in.TenantID), in.SessionID, in.UserQuestion, in.AIResponse, sr, in.Context)
	if err != nil {
		return nil, err
	}
	out := &StoredRating{Rating: rec, Success: true, RatingID: rec.ID, Message: "AI rating stored successfully"}

	if sr.NeedsReview() && strings.TrimSpace(in.UserQuestion) != "" {
		ma, _, err := s.trackMissing(ctx, &domain.MissingAnswer{
			TenantID:     rec.TenantID,
			SessionID:    in.SessionID,
			UserQuestion: in.UserQuestion,
			AIResponse:   in.AIResponse,
			Category:     sr.Category,
			Priority:     analytics.MissingPriority(sr.Confidence, sr.Helpfulness),
		})
		if err != nil {
			log.Ctx(ctx).Warn().Err(err).Str("rating", rec.ID).Msg("missing answer tracking failed")
		}
		out.MissingAnswer = ma
	}
	return out, nil
}

// RateReply scores a reply produced by the chat pipeline, stores the rating
// and tracks a missing answer when the reply needs review. It returns the
// self-rating even when storage fails.
func (s *AIAnalyticsService) RateReply(ctx context.Context, tenantID, sessionID, question, reply string) (analytics.SelfRating, error) {
	sr := analytics.RateResponse(reply)
	ctxData := map[string]any{"source": "chat"}
	if _, err := s.insertRating(ctx, tenantID, sessionID, question, reply, sr, ctxData); err != nil {
		return sr, err
	}
	if !sr.NeedsReview() {
		return sr, nil
	}
	_, _, err := s.trackMissing(ctx, &domain.MissingAnswer{
		TenantID:     tenantID,
		SessionID:    sessionID,
		UserQuestion: question,
		AIResponse:   reply,
		Category:     sr.Category,
		Priority:     analytics.MissingPriority(sr.Confidence, sr.Helpfulness),
	})
	return sr, err
}

func (s *AIAnalyticsService) insertRating(ctx context.Context, tenantID, sessionID, question, reply string, sr analytics.SelfRating, extra map[string]any) (*domain.AIRating, error) {
	q := sr.Scores()
	rec := &domain.AIRating{
		SessionID:   sessionID,
		TenantID:    tenantID,
		UserMessage: question,
		AIResponse:  reply,
		Scores:      datatypes.NewJSONType(q),
		Overall:     q.Overall,
		Confidence:  sr.Confidence,
		Category:    sr.Category,
		Suggestions: datatypes.NewJSONSlice(nonNil(sr.Suggestions)),
	}
	if len(extra) > 0 {
		b, err := json.Marshal(extra)
		if err != nil {
			return nil, NewValidationError("Invalid AI rating", "context must be a JSON object")
		}
		rec.Context = datatypes.JSON(b)
	}
	if err := repo.InsertAIRating(ctx, s.DB, rec); err != nil {
		return nil, err
	}
	s.invalidateDashboards(ctx)
	return rec, nil
}

// MissingAnswerInput is a missing answer submitted by a client.
type MissingAnswerInput struct {
	TenantID     string `json:"tenantId"`
	SessionID    string `json:"sessionId"`
	UserQuestion string `json:"userQuestion"`
	AIResponse   string `json:"aiResponse"`
	Category     string `json:"category"`
	Priority     string `json:"priority"`
}

// StoredMissingAnswer is the result of StoreMissingAnswer.
type StoredMissingAnswer struct {
	Success         bool   `json:"success"`
	MissingAnswerID string `json:"missingAnswerId"`
	Frequency       int    `json:"frequency"`
	Merged          bool   `json:"merged"`
	Message         string `json:"message"`
}

// StoreMissingAnswer stores in, merging it into a similar question of the
// same tenant.
func (s *AIAnalyticsService) StoreMissingAnswer(ctx context.Context, in MissingAnswerInput) (*StoredMissingAnswer, error) {
	ctx, span := otel.Tracer("services/ai_analytics").Start(ctx, "StoreMissingAnswer",
		trace.WithAttributes(attribute.String("tenant.id", in.TenantID)),
	)
	defer span.End()

	if strings.TrimSpace(in.UserQuestion) == "" {
		return nil, NewValidationError("Invalid missing answer", "userQuestion is required")
	}
	prio := strings.ToLower(strings.TrimSpace(in.Priority))
	if prio == "" {
		prio = "medium"
	}
	if !validPriority(prio) {
		return nil, NewValidationError("Invalid missing answer", "priority must be low, medium or high")
	}
	cat := in.Category
	if cat == "" {
		cat = analytics.RatedUnknown
	}

	ma, created, err := s.trackMissing(ctx, &domain.MissingAnswer{
		TenantID:     orDefaultTenant(in.TenantID),
		SessionID:    in.SessionID,
		UserQuestion: in.UserQuestion,
		AIResponse:   in.AIResponse,
		Category:     cat,
		Priority:     prio,
	})
	if err != nil {
		return nil, err
	}
	return &StoredMissingAnswer{
		Success:         true,
		MissingAnswerID: ma.ID,
		Frequency:       ma.Frequency,
		Merged:          !created,
		Message:         "Missing answer stored successfully",
	}, nil
}

func (s *AIAnalyticsService) trackMissing(ctx context.Context, rec *domain.MissingAnswer) (*domain.MissingAnswer, bool, error) {
	ma, created, err := repo.UpsertMissingAnswer(ctx, s.DB, rec, MergeThreshold)
	if err != nil {
		return nil, false, err
	}
	s.invalidateDashboards(ctx)

	if created && s.Events != nil {
		env := notify.NewEnvelope(ma.TenantID, ma.SessionID, ma)
		if err := s.Events.Publish(ctx, notify.KeyMissingAnswer, env); err != nil {
			log.Ctx(ctx).Warn().Err(err).Str("missing_answer", ma.ID).Msg("missing answer event failed")
		}
	}
	return ma, created, nil
}

// RatingQuery selects a page of AI ratings.
type RatingQuery struct {
	TenantID string
	Category string
	Period   string
	Page     int
	Limit    int
}

// RatingPage is a page of AI ratings.
type RatingPage struct {
	Ratings    []domain.AIRating `json:"ratings"`
	Total      int64             `json:"total"`
	Page       int               `json:"page"`
	Limit      int               `json:"limit"`
	TotalPages int               `json:"totalPages"`
}

// ListAIRatings returns a page of ratings, newest first.
func (s *AIAnalyticsService) ListAIRatings(ctx context.Context, q RatingQuery) (RatingPage, error) {
	ctx, span := otel.Tracer("services/ai_analytics").Start(ctx, "ListAIRatings",
		trace.WithAttributes(
			attribute.String("tenant.id", q.TenantID),
			attribute.Int("page", q.Page),
			attribute.Int("limit", q.Limit),
		),
	)
	defer span.End()

	pg := utils.ClampPage(q.Page, q.Limit, DefaultRatingsLimit, MaxRatingsLimit)
	q.Page, q.Limit = pg.Page, pg.Limit

	f := repo.AIRatingFilter{TenantID: allToEmpty(q.TenantID), Category: allToEmpty(q.Category)}
	if since, ok := repo.PeriodStart(q.Period, s.now()); ok {
		f.Since = since
	}

	total, err := repo.CountAIRatings(ctx, s.DB, f)
	if err != nil {
		return RatingPage{}, err
	}
	out := RatingPage{
		Ratings:    []domain.AIRating{},
		Total:      total,
		Page:       q.Page,
		Limit:      q.Limit,
		TotalPages: int(math.Ceil(float64(total) / float64(q.Limit))),
	}
	if total == 0 {
		return out, nil
	}
	out.Ratings, err = repo.ListAIRatings(ctx, s.DB, f, pg.Offset(), q.Limit)
	return out, err
}

// MissingQuery filters missing answers.
type MissingQuery struct {
	TenantID string
	Priority string
	Status   string
	Category string
	Period   string
}

// MissingSummary counts a missing answer listing by priority and status.
type MissingSummary struct {
	HighPriority   int `json:"highPriority"`
	MediumPriority int `json:"mediumPriority"`
	LowPriority    int `json:"lowPriority"`
	NeedsReview    int `json:"needsReview"`
}

// MissingList is the missing answer listing.
type MissingList struct {
	MissingAnswers []domain.MissingAnswer `json:"missingAnswers"`
	Total          int                    `json:"total"`
	Summary        MissingSummary         `json:"summary"`
}

// ListMissingAnswers returns every matching record in review order.
func (s *AIAnalyticsService) ListMissingAnswers(ctx context.Context, q MissingQuery) (MissingList, error) {
	f := repo.MissingAnswerFilter{
		TenantID: allToEmpty(q.TenantID),
		Priority: allToEmpty(q.Priority),
		Status:   allToEmpty(q.Status),
		Category: allToEmpty(q.Category),
	}
	if since, ok := repo.PeriodStart(q.Period, s.now()); ok {
		f.Since = since
	}
	items, err := repo.ListMissingAnswers(ctx, s.DB, f, 0, 0)
	if err != nil {
		return MissingList{}, err
	}
	out := MissingList{MissingAnswers: nonNilMissing(items), Total: len(items)}
	for _, m := range items {
		switch m.Priority {
		case "high":
			out.Summary.HighPriority++
		case "medium":
			out.Summary.MediumPriority++
		default:
			out.Summary.LowPriority++
		}
		if m.Status == domain.StatusNeedsReview {
			out.Summary.NeedsReview++
		}
	}
	return out, nil
}

// Dashboard returns the AI quality dashboard for f, cached.
func (s *AIAnalyticsService) Dashboard(ctx context.Context, f analytics.Filters) (analytics.Dashboard, error) {
	ctx, span := otel.Tracer("services/ai_analytics").Start(ctx, "Dashboard",
		trace.WithAttributes(
			attribute.String("tenant.id", f.TenantID),
			attribute.String("period", f.Period),
		),
	)
	defer span.End()

	f.TenantID = allToEmpty(f.TenantID)
	key := DashboardCacheKey(f.TenantID, f.Period)
	if s.Cache != nil {
		var d analytics.Dashboard
		if ok, err := s.Cache.Get(ctx, key, &d); ok && err == nil {
			span.SetAttributes(attribute.Bool("cache.hit", true))
			return d, nil
		}
	}

	d, err := s.buildDashboard(ctx, f)
	if err != nil {
		return analytics.Dashboard{}, err
	}
	if s.Cache != nil {
		if err := s.Cache.Set(ctx, key, d); err != nil {
			log.Ctx(ctx).Debug().Err(err).Str("key", key).Msg("dashboard cache set failed")
		}
	}
	return d, nil
}

// WarmDashboard rebuilds and caches the dashboard for f.
func (s *AIAnalyticsService) WarmDashboard(ctx context.Context, f analytics.Filters) error {
	d, err := s.buildDashboard(ctx, f)
	if err != nil {
		return err
	}
	if s.Cache == nil {
		return nil
	}
	return s.Cache.Set(ctx, DashboardCacheKey(f.TenantID, f.Period), d)
}

func (s *AIAnalyticsService) buildDashboard(ctx context.Context, f analytics.Filters) (analytics.Dashboard, error) {
	ratings, missing, sat, err := s.load(ctx, f)
	if err != nil {
		return analytics.Dashboard{}, err
	}
	return analytics.BuildDashboard(ratings, missing, sat, f, s.now()), nil
}

func (s *AIAnalyticsService) load(ctx context.Context, f analytics.Filters) ([]domain.AIRating, []domain.MissingAnswer, []domain.SatisfactionRating, error) {
	var since time.Time
	if v, ok := repo.PeriodStart(f.Period, s.now()); ok {
		since = v
	}
	ratings, err := repo.ListAIRatings(ctx, s.DB, repo.AIRatingFilter{TenantID: f.TenantID, Since: since}, 0, 0)
	if err != nil {
		return nil, nil, nil, err
	}
	missing, err := repo.ListMissingAnswers(ctx, s.DB, repo.MissingAnswerFilter{TenantID: f.TenantID, Since: since}, 0, 0)
	if err != nil {
		return nil, nil, nil, err
	}
	sat, err := repo.ListSatisfactionRatings(ctx, s.DB, f.TenantID, since)
	if err != nil {
		return nil, nil, nil, err
	}
	return ratings, missing, sat, nil
}

// Export returns every rating and missing answer for f with the dashboard
// computed over the same rows.
func (s *AIAnalyticsService) Export(ctx context.Context, f analytics.Filters) (analytics.Export, error) {
	ctx, span := otel.Tracer("services/ai_analytics").Start(ctx, "Export",
		trace.WithAttributes(attribute.String("tenant.id", f.TenantID)),
	)
	defer span.End()

	f.TenantID = allToEmpty(f.TenantID)
	ratings, missing, sat, err := s.load(ctx, f)
	if err != nil {
		return analytics.Export{}, err
	}
	now := s.now()
	return analytics.NewExport(ratings, missing, analytics.BuildDashboard(ratings, missing, sat, f, now), now), nil
}

// StatusUpdate changes the review state of a missing answer.
type StatusUpdate struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Notes  string `json:"notes"`
}

// UpdateMissingAnswerStatus applies u.
func (s *AIAnalyticsService) UpdateMissingAnswerStatus(ctx context.Context, u StatusUpdate) error {
	var problems []string
	if strings.TrimSpace(u.ID) == "" {
		problems = append(problems, "id is required")
	}
	switch u.Status {
	case domain.StatusNeedsReview, domain.StatusResolved, domain.StatusIgnored:
	default:
		problems = append(problems, "status must be needs_review, resolved or ignored")
	}
	if len(problems) > 0 {
		return NewValidationError("Invalid status update", problems...)
	}

	if err := repo.UpdateMissingAnswerStatus(ctx, s.DB, u.ID, u.Status, u.Notes); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return &NotFoundError{Message: "Missing answer not found", Kind: ErrNotFound}
		}
		return err
	}
	s.invalidateDashboards(ctx)
	return nil
}

// StoreHealth reports whether the store answers.
type StoreHealth struct {
	Status    string `json:"status"`
	Connected bool   `json:"connected"`
	Error     string `json:"error,omitempty"`
}

// Health pings the store.
func (s *AIAnalyticsService) Health(ctx context.Context) StoreHealth {
	sqlDB, err := s.DB.DB()
	if err == nil {
		err = sqlDB.PingContext(ctx)
	}
	if err != nil {
		return StoreHealth{Status: "unhealthy", Error: err.Error()}
	}
	return StoreHealth{Status: "healthy", Connected: true}
}

func (s *AIAnalyticsService) invalidateDashboards(ctx context.Context) {
	if s.Cache == nil {
		return
	}
	if err := s.Cache.InvalidatePrefix(ctx, dashboardPrefix); err != nil {
		log.Ctx(ctx).Warn().Err(err).Msg("dashboard cache invalidation failed")
	}
}

func checkSelfRating(r analytics.SelfRating) []string {
	var problems []string
	scores := []struct {
		name string
		v    int
	}{
		{"accuracy", r.Accuracy},
		{"helpfulness", r.Helpfulness},
		{"completeness", r.Completeness},
		{"clarity", r.Clarity},
		{"relevance", r.Relevance},
	}
	for _, sc := range scores {
		if sc.v < 1 || sc.v > 5 {
			problems = append(problems, "rating."+sc.name+" must be between 1 and 5")
		}
	}
	if r.Confidence < 0 || r.Confidence > 1 {
		problems = append(problems, "rating.confidence must be between 0 and 1")
	}
	if r.Overall < 0 || r.Overall > 5 {
		problems = append(problems, "rating.overall must be between 1 and 5")
	}
	return problems
}

func validPriority(p string) bool { return p == "low" || p == "medium" || p == "high" }

func orDefaultTenant(id string) string {
	id = strings.ToLower(strings.TrimSpace(id))
	if id == "" {
		return tenant.DefaultID
	}
	return id
}

func orAll(s string) string {
	if s == "" {
		return "all"
	}
	return s
}

func allToEmpty(s string) string {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "all") {
		return ""
	}
	return s
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func nonNilMissing(s []domain.MissingAnswer) []domain.MissingAnswer {
	if s == nil {
		return []domain.MissingAnswer{}
	}
	return s
}
