package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/chatguus/chatguus-backend/internal/analytics"
	"github.com/chatguus/chatguus-backend/internal/domain"
	"github.com/chatguus/chatguus-backend/internal/repo"
	"github.com/chatguus/chatguus-backend/internal/services"
	"github.com/chatguus/chatguus-backend/internal/tenant"
)

// ---------- stubs ----------

type stubChat struct {
	reply    func(context.Context, services.ChatRequest) (*services.ChatReply, error)
	fallback string
}

func (s stubChat) Reply(ctx context.Context, req services.ChatRequest) (*services.ChatReply, error) {
	return s.reply(ctx, req)
}

func (s stubChat) Fallback(ctx context.Context, req services.ChatRequest) (*domain.Tenant, string) {
	def := tenant.Default()
	return &def, s.fallback
}

type stubSatisfaction struct {
	submit func(context.Context, services.SatisfactionInput) (*services.SubmittedRating, error)
	report func(context.Context, string, string) (analytics.Report, error)
}

func (s stubSatisfaction) Submit(ctx context.Context, in services.SatisfactionInput) (*services.SubmittedRating, error) {
	return s.submit(ctx, in)
}

func (s stubSatisfaction) Report(ctx context.Context, tenantID, period string) (analytics.Report, error) {
	return s.report(ctx, tenantID, period)
}

// stubAI records the last query it saw; unset funcs return zero values.
type stubAI struct {
	lastRatingQuery  services.RatingQuery
	lastMissingQuery services.MissingQuery
	lastFilters      analytics.Filters

	export func(analytics.Filters) (analytics.Export, error)
	update func(services.StatusUpdate) error
	health services.StoreHealth
}

func (s *stubAI) StoreAIRating(ctx context.Context, in services.AIRatingInput) (*services.StoredRating, error) {
	if in.SessionID == "" {
		return nil, services.NewValidationError("Missing required fields", "sessionId is required")
	}
	return &services.StoredRating{Success: true, RatingID: "r1", Message: "AI rating stored successfully"}, nil
}

func (s *stubAI) StoreMissingAnswer(ctx context.Context, in services.MissingAnswerInput) (*services.StoredMissingAnswer, error) {
	return &services.StoredMissingAnswer{Success: true, MissingAnswerID: "m1", Frequency: 1}, nil
}

func (s *stubAI) ListAIRatings(ctx context.Context, q services.RatingQuery) (services.RatingPage, error) {
	s.lastRatingQuery = q
	return services.RatingPage{Ratings: []domain.AIRating{}, Page: q.Page, Limit: q.Limit}, nil
}

func (s *stubAI) ListMissingAnswers(ctx context.Context, q services.MissingQuery) (services.MissingList, error) {
	s.lastMissingQuery = q
	return services.MissingList{MissingAnswers: []domain.MissingAnswer{}}, nil
}

func (s *stubAI) Dashboard(ctx context.Context, f analytics.Filters) (analytics.Dashboard, error) {
	s.lastFilters = f
	return analytics.Dashboard{Filters: f}, nil
}

func (s *stubAI) Export(ctx context.Context, f analytics.Filters) (analytics.Export, error) {
	s.lastFilters = f
	if s.export != nil {
		return s.export(f)
	}
	return analytics.Export{}, nil
}

func (s *stubAI) UpdateMissingAnswerStatus(ctx context.Context, u services.StatusUpdate) error {
	if s.update != nil {
		return s.update(u)
	}
	return nil
}

func (s *stubAI) Health(ctx context.Context) services.StoreHealth { return s.health }

type stubTenants struct {
	tenants map[string]*domain.Tenant
	version int64
	ts      string
	creates int
}

func newStubTenants() *stubTenants {
	st := &stubTenants{tenants: map[string]*domain.Tenant{}, version: 2, ts: "20260101T000000.000000000"}
	for _, t := range tenant.Defaults() {
		t := t
		st.tenants[t.ID] = &t
	}
	return st
}

func (s *stubTenants) Resolve(ctx context.Context, id tenant.Identifier) *domain.Tenant {
	for _, v := range id.IDs() {
		if t, ok := s.tenants[v]; ok {
			return t
		}
	}
	return s.tenants[tenant.DefaultID]
}

func (s *stubTenants) List(ctx context.Context) (services.TenantList, error) {
	ts := make([]domain.Tenant, 0, len(s.tenants))
	for _, t := range s.tenants {
		ts = append(ts, *t)
	}
	sums, st := tenant.Summarize(ts)
	return services.TenantList{Tenants: sums, Stats: st}, nil
}

func (s *stubTenants) Get(ctx context.Context, id string) (*domain.Tenant, error) {
	if t, ok := s.tenants[id]; ok {
		return t, nil
	}
	return nil, &services.NotFoundError{Message: "Tenant " + id + " not found", Kind: services.ErrTenantNotFound}
}

func (s *stubTenants) Create(ctx context.Context, c tenant.Config) (*services.CreatedTenant, error) {
	if c.ID == "" {
		return nil, services.NewValidationError("Invalid tenant configuration", "id is required")
	}
	if _, ok := s.tenants[c.ID]; ok {
		return nil, services.ErrTenantExists
	}
	s.creates++
	t := &domain.Tenant{ID: c.ID, Name: c.Name, Domain: c.Domain, Active: true}
	s.tenants[c.ID] = t
	return &services.CreatedTenant{Success: true, Tenant: t, APIKey: "tk_x"}, nil
}

func (s *stubTenants) Update(ctx context.Context, id string, p tenant.Patch) (*domain.Tenant, error) {
	t, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Name != nil {
		t.Name = *p.Name
	}
	return t, nil
}

func (s *stubTenants) Delete(ctx context.Context, id string) error {
	if id == tenant.DefaultID {
		return services.ErrDefaultTenantProtected
	}
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	delete(s.tenants, id)
	return nil
}

func (s *stubTenants) CSS(ctx context.Context, id string) (string, error) {
	t, err := s.Get(ctx, id)
	if err != nil {
		return "", err
	}
	return s.CSSFor(ctx, t), nil
}

func (s *stubTenants) CSSFor(ctx context.Context, t *domain.Tenant) string {
	return tenant.CSS(t)
}

func (s *stubTenants) Stats(ctx context.Context, id string) (repo.TenantUsage, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return repo.TenantUsage{}, err
	}
	return repo.TenantUsage{Sessions: 3, Ratings: 2, AverageRating: 4.5}, nil
}

func (s *stubTenants) Version(ctx context.Context) (int64, string, error) {
	return s.version, s.ts, nil
}

type stubUsage struct{ last services.UsageInput }

func (s *stubUsage) Record(ctx context.Context, in services.UsageInput) (*services.RecordedEvent, error) {
	if in.Event == "" || in.Context == nil {
		return nil, services.NewValidationError("Invalid analytics payload")
	}
	s.last = in
	return &services.RecordedEvent{Success: true, EventID: "e1", Timestamp: time.Unix(0, 0).UTC()}, nil
}

// ---------- harness ----------

func testMeta() Meta {
	return Meta{
		Service:      "chatguus-backend",
		Version:      "test",
		Environment:  "test",
		APIEndpoint:  "https://bot.example.com/api",
		Integrations: map[string]bool{"openai": false, "database": true},
	}
}

// newEngine mounts h the way the router does, without the rate limiter.
func newEngine(h *Handlers, mw ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(mw...)
	r.POST("/chat", h.PostChat)
	r.POST("/satisfaction", h.SubmitSatisfaction)
	r.GET("/satisfaction", h.SatisfactionReport)
	r.Any("/ai-analytics", h.AIAnalytics)
	r.GET("/tenants", h.ListTenants)
	r.POST("/tenants", h.CreateTenant)
	r.GET("/tenants/:id", h.GetTenant)
	r.PUT("/tenants/:id", h.UpdateTenant)
	r.DELETE("/tenants/:id", h.DeleteTenant)
	r.GET("/tenants/:id/css", h.TenantCSS)
	r.GET("/tenants/:id/stats", h.TenantStats)
	r.GET("/widget", h.Widget)
	r.POST("/analytics", h.RecordUsage)
	r.GET("/health", h.Health)
	return r
}

func do(r http.Handler, method, path string, body any, hdr ...string) *httptest.ResponseRecorder {
	var rd *bytes.Reader
	switch b := body.(type) {
	case nil:
		rd = bytes.NewReader(nil)
	case string:
		rd = bytes.NewReader([]byte(b))
	default:
		raw, _ := json.Marshal(b)
		rd = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(hdr); i += 2 {
		req.Header.Set(hdr[i], hdr[i+1])
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("json: %v (%s)", err, w.Body.String())
	}
	return v
}
