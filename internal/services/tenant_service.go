// Package services – TenantService
//
// This file implements TenantService, which owns tenant resolution for chat
// traffic and the tenant management API. Resolution never fails: unknown or
// inactive identifiers fall back to the default tenant, and when the store
// itself is unavailable the built-in default configuration is served.
//
// Every mutation invalidates the derived artifacts (rendered CSS and system
// prompt) cached under the tenant id.
package services

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/chatguus/chatguus-backend/internal/cache"
	"github.com/chatguus/chatguus-backend/internal/domain"
	"github.com/chatguus/chatguus-backend/internal/personality"
	"github.com/chatguus/chatguus-backend/internal/repo"
	"github.com/chatguus/chatguus-backend/internal/tenant"
)

// CSSCacheKey is the artifact cache key of a tenant's rendered CSS.
func CSSCacheKey(tenantID string) string { return "css:" + tenantID }

// TenantService resolves and manages tenants.
type TenantService struct {
	DB    *gorm.DB
	Cache cache.Cache

	// PublicBaseURL and APIBasePath build the widget and chat URLs returned
	// on creation.
	PublicBaseURL string
	APIBasePath   string
}

// NewTenantService wires a TenantService. c may be nil.
func NewTenantService(db *gorm.DB, c cache.Cache, publicBaseURL, apiBasePath string) *TenantService {
	return &TenantService{DB: db, Cache: c, PublicBaseURL: publicBaseURL, APIBasePath: apiBasePath}
}

// CreatedTenant is the result of Create. APIKey is only ever returned here.
type CreatedTenant struct {
	Success     bool           `json:"success"`
	Tenant      *domain.Tenant `json:"tenant"`
	APIKey      string         `json:"apiKey"`
	WidgetURL   string         `json:"widgetUrl"`
	APIEndpoint string         `json:"apiEndpoint"`
}

// TenantList is the management list view.
type TenantList struct {
	Tenants []tenant.Summary `json:"tenants"`
	Stats   tenant.Stats     `json:"stats"`
}

// SeedDefaults stores the built-in tenants that are not yet present.
func (s *TenantService) SeedDefaults(ctx context.Context) error {
	for _, t := range tenant.Defaults() {
		ok, err := repo.TenantExists(ctx, s.DB, t.ID)
		if err != nil {
			return err
		}
		if ok {
			continue
		}
		t := t
		if err := repo.CreateTenant(ctx, s.DB, &t); err != nil && !errors.Is(err, repo.ErrDuplicate) {
			return err
		}
		log.Info().Str("tenant", t.ID).Msg("seeded default tenant")
	}
	return nil
}

// Resolve selects the tenant for a request: explicit ids first (id, header,
// query), then host and origin domains, then the default tenant.
func (s *TenantService) Resolve(ctx context.Context, id tenant.Identifier) *domain.Tenant {
	ctx, span := otel.Tracer("services/tenant").Start(ctx, "Resolve")
	defer span.End()

	for _, v := range id.IDs() {
		t, err := repo.GetTenant(ctx, s.DB, strings.ToLower(v))
		if err == nil && t.Active {
			span.SetAttributes(attribute.String("tenant.id", t.ID), attribute.String("tenant.via", "id"))
			return t
		}
		if err != nil && !errors.Is(err, repo.ErrNotFound) {
			log.Ctx(ctx).Warn().Err(err).Str("tenant", v).Msg("tenant lookup failed")
		}
	}
	for _, d := range id.Domains() {
		t, err := repo.GetTenantByDomain(ctx, s.DB, d)
		if err == nil {
			span.SetAttributes(attribute.String("tenant.id", t.ID), attribute.String("tenant.via", "domain"))
			return t
		}
		if !errors.Is(err, repo.ErrNotFound) {
			log.Ctx(ctx).Warn().Err(err).Str("domain", d).Msg("tenant domain lookup failed")
		}
	}

	span.SetAttributes(attribute.String("tenant.via", "default"))
	if t, err := repo.GetTenant(ctx, s.DB, tenant.DefaultID); err == nil {
		return t
	}
	def := tenant.Default()
	return &def
}

// List returns every tenant with aggregate counts.
func (s *TenantService) List(ctx context.Context) (TenantList, error) {
	ts, err := repo.ListTenants(ctx, s.DB)
	if err != nil {
		return TenantList{}, err
	}
	sums, st := tenant.Summarize(ts)
	return TenantList{Tenants: sums, Stats: st}, nil
}

// Get returns the tenant with id, or an error matching ErrTenantNotFound.
func (s *TenantService) Get(ctx context.Context, id string) (*domain.Tenant, error) {
	t, err := repo.GetTenant(ctx, s.DB, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, tenantNotFound(id)
	}
	return t, err
}

// Create validates c, generates an API key and stores the tenant.
func (s *TenantService) Create(ctx context.Context, c tenant.Config) (*CreatedTenant, error) {
	ctx, span := otel.Tracer("services/tenant").Start(ctx, "Create",
		trace.WithAttributes(attribute.String("tenant.id", c.ID)),
	)
	defer span.End()

	if err := tenant.Validate(c); err != nil {
		return nil, tenantValidation(err)
	}
	t := tenant.ToModel(c)
	key, err := tenant.NewAPIKey()
	if err != nil {
		return nil, err
	}
	t.APIKey = key

	if err := repo.CreateTenant(ctx, s.DB, &t); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, ErrTenantExists
		}
		return nil, err
	}
	s.invalidate(ctx, t.ID)

	base := strings.TrimRight(s.PublicBaseURL, "/") + s.APIBasePath
	return &CreatedTenant{
		Success:     true,
		Tenant:      &t,
		APIKey:      key,
		WidgetURL:   base + "/widget?tenant=" + t.ID,
		APIEndpoint: base + "/chat?tenant=" + t.ID,
	}, nil
}

// Update merges p into the stored tenant, validates the result and saves it.
func (s *TenantService) Update(ctx context.Context, id string, p tenant.Patch) (*domain.Tenant, error) {
	ctx, span := otel.Tracer("services/tenant").Start(ctx, "Update",
		trace.WithAttributes(attribute.String("tenant.id", id)),
	)
	defer span.End()

	t, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := tenant.Apply(t, p); err != nil {
		return nil, NewValidationError("Invalid tenant update", err.Error())
	}
	if err := tenant.Validate(tenant.FromModel(t)); err != nil {
		return nil, tenantValidation(err)
	}
	if err := repo.SaveTenant(ctx, s.DB, t); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, tenantNotFound(id)
		}
		return nil, err
	}
	s.invalidate(ctx, id)
	return t, nil
}

// Delete removes a tenant. The default tenant cannot be deleted.
func (s *TenantService) Delete(ctx context.Context, id string) error {
	if id == tenant.DefaultID {
		return ErrDefaultTenantProtected
	}
	if err := repo.DeleteTenant(ctx, s.DB, id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return tenantNotFound(id)
		}
		return err
	}
	s.invalidate(ctx, id)
	return nil
}

// CSS returns the rendered stylesheet of tenant id, cached.
func (s *TenantService) CSS(ctx context.Context, id string) (string, error) {
	t, err := s.Get(ctx, id)
	if err != nil {
		return "", err
	}
	return s.CSSFor(ctx, t), nil
}

// CSSFor renders (or fetches from cache) the stylesheet of t.
func (s *TenantService) CSSFor(ctx context.Context, t *domain.Tenant) string {
	key := CSSCacheKey(t.ID)
	if s.Cache != nil {
		var css string
		if ok, err := s.Cache.Get(ctx, key, &css); ok && err == nil {
			return css
		}
	}
	css := tenant.CSS(t)
	if s.Cache != nil {
		if err := s.Cache.Set(ctx, key, css); err != nil {
			log.Ctx(ctx).Debug().Err(err).Str("tenant", t.ID).Msg("css cache set failed")
		}
	}
	return css
}

// Stats returns stored activity counts for tenant id.
func (s *TenantService) Stats(ctx context.Context, id string) (repo.TenantUsage, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return repo.TenantUsage{}, err
	}
	return repo.TenantUsageStats(ctx, s.DB, id)
}

// Version returns the ETag inputs of the tenant list.
func (s *TenantService) Version(ctx context.Context) (int64, string, error) {
	n, ts, err := repo.TenantsVersion(ctx, s.DB)
	if err != nil || ts == nil {
		return n, "", err
	}
	return n, ts.UTC().Format("20060102T150405.000000000"), nil
}

func (s *TenantService) invalidate(ctx context.Context, id string) {
	if s.Cache == nil {
		return
	}
	if err := s.Cache.Invalidate(ctx, CSSCacheKey(id), personality.PromptCacheKey(id)); err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("tenant", id).Msg("artifact cache invalidation failed")
	}
}

func tenantValidation(err error) error {
	var ve *tenant.ValidationError
	if errors.As(err, &ve) {
		return NewValidationError("Invalid tenant configuration", ve.Problems...)
	}
	return NewValidationError("Invalid tenant configuration", err.Error())
}
