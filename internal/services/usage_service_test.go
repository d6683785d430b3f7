package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/chatguus/chatguus-backend/internal/domain"
	"github.com/chatguus/chatguus-backend/internal/repo"
)

func TestUsageService_AnonymousID(t *testing.T) {
	s := NewUsageService(nil, "pepper")
	a, b := s.AnonymousID("fp-123"), s.AnonymousID("fp-123")
	if a != b || !strings.HasPrefix(a, "anon_") || len(a) != len("anon_")+16 {
		t.Fatalf("ids = %q %q", a, b)
	}
	if s.AnonymousID("fp-124") == a {
		t.Fatalf("different fingerprints share an id")
	}
	if NewUsageService(nil, "salt").AnonymousID("fp-123") == a {
		t.Fatalf("salt not applied")
	}
	if s.AnonymousID("") != "" {
		t.Fatalf("empty fingerprint should yield empty id")
	}
}

func TestStripSensitive(t *testing.T) {
	got := StripSensitive(map[string]any{
		"Password": "x", "token": "y", "apiKey": "z", "api_key": "z", "SECRET": "s",
		"rating": 5,
	})
	if len(got) != 1 || got["rating"] != 5 {
		t.Fatalf("got %v", got)
	}
	if StripSensitive(nil) != nil {
		t.Fatalf("nil input should stay nil")
	}
}

func TestUsageService_Record(t *testing.T) {
	db := newTestDB(t)
	s := NewUsageService(db, "pepper")
	now := time.Date(2024, 7, 1, 8, 0, 0, 0, time.UTC)
	s.now = fixedClock(now)
	ctx := context.Background()

	out, err := s.Record(ctx, UsageInput{
		Event:    " widget_opened ",
		TenantID: "Koepel",
		Data:     map[string]any{"button": "launcher", "token": "abc"},
		User:     &UsageUser{Fingerprint: "fp-1", Session: "sess-1", IsReturning: true},
		Context: &UsageContext{
			URL:       "https://cupolaxs.nl/page?token=abc&x=1",
			UserAgent: "Mozilla/5.0",
			Timezone:  "Europe/Amsterdam",
		},
	})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if !out.Success || out.EventID == "" || !out.Timestamp.Equal(now) {
		t.Fatalf("result = %+v", out)
	}

	var e domain.UsageEvent
	if err := db.First(&e, "id = ?", out.EventID).Error; err != nil {
		t.Fatalf("load: %v", err)
	}
	if e.Event != "widget_opened" || e.TenantID != "koepel" || e.AnonymousID != s.AnonymousID("fp-1") || !e.IsReturning {
		t.Fatalf("event = %+v", e)
	}
	if strings.Contains(e.URL, "token") {
		t.Fatalf("url kept token: %s", e.URL)
	}
	var data map[string]any
	if err := json.Unmarshal(e.Data, &data); err != nil || data["button"] != "launcher" || data["token"] != nil {
		t.Fatalf("data = %s, err = %v", e.Data, err)
	}

	n, err := repo.CountUsageEvents(ctx, db, "koepel", "widget_opened", now.Add(-time.Hour))
	if err != nil || n != 1 {
		t.Fatalf("count = %d, err = %v", n, err)
	}
}

func TestNewUsageService_RandomSaltWhenUnset(t *testing.T) {
	a, b := NewUsageService(nil, ""), NewUsageService(nil, "")
	if a.Salt == "" || a.Salt == b.Salt {
		t.Fatalf("salts = %q, %q", a.Salt, b.Salt)
	}
}

func TestUsageService_Record_Validation(t *testing.T) {
	s := NewUsageService(newTestDB(t), "")
	ctx := context.Background()

	cases := map[string]UsageInput{
		"missing event":   {Context: &UsageContext{}},
		"missing context": {Event: "widget_opened"},
		"long name":       {Event: strings.Repeat("e", 65), Context: &UsageContext{}},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := s.Record(ctx, in); !errors.Is(err, ErrValidation) {
				t.Fatalf("err = %v", err)
			}
		})
	}
}
