package handlers

import (
	"context"
	"time"

	"github.com/chatguus/chatguus-backend/internal/analytics"
	"github.com/chatguus/chatguus-backend/internal/domain"
	"github.com/chatguus/chatguus-backend/internal/repo"
	"github.com/chatguus/chatguus-backend/internal/services"
	"github.com/chatguus/chatguus-backend/internal/tenant"
)

//
// Service contracts (context-aware)
//

// ChatService runs the chat pipeline.
type ChatService interface {
	Reply(ctx context.Context, req services.ChatRequest) (*services.ChatReply, error)
	Fallback(ctx context.Context, req services.ChatRequest) (*domain.Tenant, string)
}

// SatisfactionService stores and reports satisfaction ratings.
type SatisfactionService interface {
	Submit(ctx context.Context, in services.SatisfactionInput) (*services.SubmittedRating, error)
	Report(ctx context.Context, tenantID, period string) (analytics.Report, error)
}

// AIAnalyticsService exposes AI quality analytics.
type AIAnalyticsService interface {
	StoreAIRating(ctx context.Context, in services.AIRatingInput) (*services.StoredRating, error)
	StoreMissingAnswer(ctx context.Context, in services.MissingAnswerInput) (*services.StoredMissingAnswer, error)
	ListAIRatings(ctx context.Context, q services.RatingQuery) (services.RatingPage, error)
	ListMissingAnswers(ctx context.Context, q services.MissingQuery) (services.MissingList, error)
	Dashboard(ctx context.Context, f analytics.Filters) (analytics.Dashboard, error)
	Export(ctx context.Context, f analytics.Filters) (analytics.Export, error)
	UpdateMissingAnswerStatus(ctx context.Context, u services.StatusUpdate) error
	Health(ctx context.Context) services.StoreHealth
}

// TenantService manages tenants and their artifacts.
type TenantService interface {
	Resolve(ctx context.Context, id tenant.Identifier) *domain.Tenant
	List(ctx context.Context) (services.TenantList, error)
	Get(ctx context.Context, id string) (*domain.Tenant, error)
	Create(ctx context.Context, c tenant.Config) (*services.CreatedTenant, error)
	Update(ctx context.Context, id string, p tenant.Patch) (*domain.Tenant, error)
	Delete(ctx context.Context, id string) error
	CSS(ctx context.Context, id string) (string, error)
	CSSFor(ctx context.Context, t *domain.Tenant) string
	Stats(ctx context.Context, id string) (repo.TenantUsage, error)
	Version(ctx context.Context) (int64, string, error)
}

// UsageService stores widget usage events.
type UsageService interface {
	Record(ctx context.Context, in services.UsageInput) (*services.RecordedEvent, error)
}

// IdempotencyRecorder remembers a completed (scope, key) so a retry is
// detected as a replay.
type IdempotencyRecorder func(ctx context.Context, scope, key, resourceID string, status int) error

// Meta describes the running service for /health and the widget.
type Meta struct {
	Service     string
	Version     string
	Environment string
	// Development exposes internal error text in 500 bodies.
	Development bool
	// APIEndpoint is the absolute API base used in widget bundles.
	APIEndpoint string
	// Integrations reports which optional dependencies are configured.
	Integrations map[string]bool
}

//
// Handler wiring
//

// Deps lists the collaborators of Handlers. Any service may be nil when the
// corresponding routes are not mounted.
type Deps struct {
	Chat         ChatService
	Satisfaction SatisfactionService
	AIAnalytics  AIAnalyticsService
	Tenants      TenantService
	Usage        UsageService
	Idempotency  IdempotencyRecorder
	Meta         Meta
}

// Handlers groups the HTTP endpoints of the widget API.
type Handlers struct {
	chatSvc   ChatService
	satSvc    SatisfactionService
	aiSvc     AIAnalyticsService
	tenantSvc TenantService
	usageSvc  UsageService
	idem      IdempotencyRecorder
	meta      Meta

	now func() time.Time
}

// New constructs Handlers from d.
func New(d Deps) *Handlers {
	return &Handlers{
		chatSvc:   d.Chat,
		satSvc:    d.Satisfaction,
		aiSvc:     d.AIAnalytics,
		tenantSvc: d.Tenants,
		usageSvc:  d.Usage,
		idem:      d.Idempotency,
		meta:      d.Meta,
		now:       time.Now,
	}
}
