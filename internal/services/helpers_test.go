package services

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/chatguus/chatguus-backend/internal/cache"
	"github.com/chatguus/chatguus-backend/internal/domain"
	"github.com/chatguus/chatguus-backend/internal/email"
	"github.com/chatguus/chatguus-backend/internal/intent"
	"github.com/chatguus/chatguus-backend/internal/notify"
	"github.com/chatguus/chatguus-backend/internal/personality"
	"github.com/chatguus/chatguus-backend/internal/repo"
)

// newTestDB opens a migrated SQLite database in a per-test temp directory.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := repo.OpenSQLite(filepath.Join(t.TempDir(), "services_test.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

// newTenants returns a TenantService over a seeded store.
func newTenants(t *testing.T, db *gorm.DB) *TenantService {
	t.Helper()
	s := NewTenantService(db, cache.NewMemory(time.Minute), "https://bot.example.com", "/api")
	if err := s.SeedDefaults(context.Background()); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return s
}

var errBoom = errors.New("boom")

type fakeResponder struct {
	reply   string
	history []personality.Turn
}

func (f *fakeResponder) Generate(_ context.Context, _ *domain.Tenant, _ intent.Intent, _ string, history []personality.Turn) string {
	f.history = history
	return f.reply
}

func (f *fakeResponder) Fallback(t *domain.Tenant) string {
	return "Neem contact op via " + t.Routing.Data()["general"]
}

type fakeDispatcher struct {
	service, event int
}

func (f *fakeDispatcher) RouteServiceRequest(_ context.Context, _ *domain.Tenant, _ intent.Intent, _ email.Request) (email.Result, error) {
	f.service++
	return email.Result{TargetEmail: "support@axs-ict.com", Department: email.DeptIT, MessageID: "<1@test>", Mode: "test", EmailSent: true}, nil
}

func (f *fakeDispatcher) RouteEventInquiry(_ context.Context, _ *domain.Tenant, _ intent.Intent, _ email.Request) (email.Result, error) {
	f.event++
	return email.Result{TargetEmail: "irene@cupolaxs.nl", Department: email.DeptEvents, MessageID: "<2@test>", Mode: "test", EmailSent: true}, nil
}

type fakePublisher struct {
	mu   sync.Mutex
	keys []string
	err  error
}

func (f *fakePublisher) Publish(_ context.Context, key string, _ notify.Envelope) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.keys = append(f.keys, key)
	return f.err
}

func (f *fakePublisher) Close() error { return nil }

func (f *fakePublisher) published() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.keys...)
}

type fakeAlerter struct {
	mu      sync.Mutex
	ratings []int
	err     error
}

func (f *fakeAlerter) LowRating(_ context.Context, r domain.SatisfactionRating) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ratings = append(f.ratings, r.Rating)
	return f.err
}

type fakeAppender struct {
	mu     sync.Mutex
	sheets []string
	rows   [][]any
	err    error
}

func (f *fakeAppender) AppendRow(_ context.Context, sheet string, row []any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sheets = append(f.sheets, sheet)
	f.rows = append(f.rows, row)
	return f.err
}

func fixedClock(t time.Time) func() time.Time { return func() time.Time { return t } }
