package repo

import (
	"context"
	"errors"
	"testing"

	"github.com/chatguus/chatguus-backend/internal/domain"
)

func missing(tenant, q, priority string) *domain.MissingAnswer {
	return &domain.MissingAnswer{TenantID: tenant, SessionID: "s", UserQuestion: q, Category: "faq", Priority: priority}
}

func TestUpsertMissingAnswer_MergesNearDuplicates(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)

	first, created, err := UpsertMissingAnswer(ctx, db, missing("koepel", "Wat zijn de openingstijden?", "low"), 0.8)
	if err != nil || !created {
		t.Fatalf("first upsert: created=%v err=%v", created, err)
	}
	if first.Frequency != 1 || first.Status != domain.StatusNeedsReview {
		t.Fatalf("defaults not applied: %+v", first)
	}

	second, created, err := UpsertMissingAnswer(ctx, db, missing("koepel", "wat zijn de openingstijden", "high"), 0.8)
	if err != nil || created {
		t.Fatalf("second upsert should merge: created=%v err=%v", created, err)
	}
	if second.ID != first.ID || second.Frequency != 2 || second.Priority != "high" {
		t.Fatalf("merge result = %+v", second)
	}

	// Lower priority never downgrades.
	third, _, err := UpsertMissingAnswer(ctx, db, missing("koepel", "Wat zijn de openingstijden", "low"), 0.8)
	if err != nil || third.Priority != "high" || third.Frequency != 3 {
		t.Fatalf("third = %+v err=%v", third, err)
	}

	// Same question for another tenant is a new record.
	if _, created, _ := UpsertMissingAnswer(ctx, db, missing("demo-company", "Wat zijn de openingstijden?", "low"), 0.8); !created {
		t.Fatalf("other tenant must not merge")
	}
	// A different question is a new record.
	if _, created, _ := UpsertMissingAnswer(ctx, db, missing("koepel", "Kan ik parkeren bij het gebouw?", "medium"), 0.8); !created {
		t.Fatalf("unrelated question must not merge")
	}

	if n, _ := CountMissingAnswers(ctx, db, MissingAnswerFilter{TenantID: "koepel"}); n != 2 {
		t.Fatalf("koepel records = %d, want 2", n)
	}
}

func TestListMissingAnswers_OrderedByPriorityThenFrequency(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)

	inputs := []*domain.MissingAnswer{
		missing("koepel", "vraag over parkeren", "low"),
		missing("koepel", "vraag over wifi", "medium"),
		missing("koepel", "vraag over catering", "high"),
		missing("koepel", "vraag over beamer", "medium"),
	}
	for _, in := range inputs {
		if _, _, err := UpsertMissingAnswer(ctx, db, in, 0.8); err != nil {
			t.Fatalf("upsert: %v", err)
		}
	}
	// Bump wifi to frequency 2.
	if _, created, _ := UpsertMissingAnswer(ctx, db, missing("koepel", "Vraag over WiFi", "medium"), 0.8); created {
		t.Fatalf("expected merge for wifi")
	}

	list, err := ListMissingAnswers(ctx, db, MissingAnswerFilter{TenantID: "koepel"}, 0, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	want := []string{"vraag over catering", "vraag over wifi", "vraag over beamer", "vraag over parkeren"}
	if len(list) != len(want) {
		t.Fatalf("len = %d", len(list))
	}
	for i, w := range want {
		if list[i].UserQuestion != w {
			t.Fatalf("list[%d] = %q, want %q", i, list[i].UserQuestion, w)
		}
	}

	high, _ := ListMissingAnswers(ctx, db, MissingAnswerFilter{TenantID: "koepel", Priority: "high"}, 0, 0)
	if len(high) != 1 {
		t.Fatalf("high filter = %d", len(high))
	}
}

func TestUpdateMissingAnswerStatus(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)

	rec, _, err := UpsertMissingAnswer(ctx, db, missing("koepel", "Is er een lift?", "medium"), 0.8)
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := UpdateMissingAnswerStatus(ctx, db, rec.ID, domain.StatusResolved, "toegevoegd aan FAQ"); err != nil {
		t.Fatalf("update: %v", err)
	}
	if n, _ := CountMissingAnswers(ctx, db, MissingAnswerFilter{TenantID: "koepel", Status: domain.StatusNeedsReview}); n != 0 {
		t.Fatalf("open records = %d, want 0", n)
	}
	if err := UpdateMissingAnswerStatus(ctx, db, "nope", domain.StatusIgnored, ""); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}
