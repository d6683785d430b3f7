package repo

import (
	"context"
	"testing"
	"time"

	"gorm.io/datatypes"

	"github.com/chatguus/chatguus-backend/internal/domain"
)

func TestSatisfactionRatings_ListAndSummarize(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	now := time.Now().UTC()

	seed := []struct {
		tenant string
		rating int
		age    time.Duration
	}{
		{"koepel", 5, 0},
		{"koepel", 3, time.Hour},
		{"koepel", 1, 40 * 24 * time.Hour},
		{"demo-company", 4, 0},
	}
	for _, s := range seed {
		r := &domain.SatisfactionRating{
			SessionID: "sess",
			TenantID:  s.tenant,
			Rating:    s.rating,
			Sentiment: domain.SentimentNeutral,
			CreatedAt: now.Add(-s.age),
		}
		if err := InsertSatisfactionRating(ctx, db, r); err != nil {
			t.Fatalf("insert: %v", err)
		}
		if r.ID == "" {
			t.Fatalf("id not assigned")
		}
	}

	all, err := ListSatisfactionRatings(ctx, db, "koepel", time.Time{})
	if err != nil || len(all) != 3 {
		t.Fatalf("list all: n=%d err=%v", len(all), err)
	}
	if all[0].Rating != 1 {
		t.Fatalf("want oldest first, got %+v", all[0])
	}

	recent, err := ListSatisfactionRatings(ctx, db, "koepel", now.AddDate(0, 0, -30))
	if err != nil || len(recent) != 2 {
		t.Fatalf("list recent: n=%d err=%v", len(recent), err)
	}

	sum, err := SummarizeSatisfaction(ctx, db, "koepel")
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	if sum.Count != 3 || sum.Average != 3 {
		t.Fatalf("summary = %+v", sum)
	}

	empty, err := SummarizeSatisfaction(ctx, db, "nobody")
	if err != nil || empty.Count != 0 || empty.Average != 0 {
		t.Fatalf("empty summary = %+v err=%v", empty, err)
	}
}

func TestSatisfactionRating_RejectsOutOfRange(t *testing.T) {
	db := newTestDB(t)
	r := &domain.SatisfactionRating{SessionID: "s", TenantID: "koepel", Rating: 6, Sentiment: domain.SentimentPositive}
	if err := InsertSatisfactionRating(context.Background(), db, r); err == nil {
		t.Fatalf("expected check constraint failure for rating 6")
	}
}

func TestAIRatings_FilterAndPage(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	now := time.Now().UTC()

	for i, c := range []struct {
		category string
		overall  float64
	}{
		{"service_request", 0.9},
		{"service_request", 0.4},
		{"faq", 0.55},
		{"general", 0.8},
	} {
		r := &domain.AIRating{
			TenantID:  "koepel",
			SessionID: "s",
			Scores:    datatypes.NewJSONType(domain.QualityScores{Overall: c.overall}),
			Overall:   c.overall,
			Category:  c.category,
			CreatedAt: now.Add(time.Duration(i) * time.Second),
		}
		if err := InsertAIRating(ctx, db, r); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	if n, _ := CountAIRatings(ctx, db, AIRatingFilter{TenantID: "koepel"}); n != 4 {
		t.Fatalf("count = %d", n)
	}
	if n, _ := CountAIRatings(ctx, db, AIRatingFilter{TenantID: "koepel", Category: "service_request"}); n != 2 {
		t.Fatalf("count by category = %d", n)
	}
	low, err := ListAIRatings(ctx, db, AIRatingFilter{TenantID: "koepel", MaxOverall: 0.6}, 0, 0)
	if err != nil || len(low) != 2 {
		t.Fatalf("low ratings n=%d err=%v", len(low), err)
	}
	// Newest first: faq (i=2) before service_request 0.4 (i=1).
	if low[0].Category != "faq" {
		t.Fatalf("want newest first, got %+v", low[0])
	}

	page, err := ListAIRatings(ctx, db, AIRatingFilter{TenantID: "koepel"}, 1, 2)
	if err != nil || len(page) != 2 || page[0].Category != "faq" {
		t.Fatalf("page = %+v err=%v", page, err)
	}
	if page[0].Scores.Data().Overall != 0.55 {
		t.Fatalf("scores not restored: %+v", page[0].Scores.Data())
	}
}
