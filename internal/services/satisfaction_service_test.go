package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/chatguus/chatguus-backend/internal/analytics"
	"github.com/chatguus/chatguus-backend/internal/domain"
	"github.com/chatguus/chatguus-backend/internal/notify"
	"github.com/chatguus/chatguus-backend/internal/observability"
	"github.com/chatguus/chatguus-backend/internal/repo"
	"github.com/chatguus/chatguus-backend/internal/tenant"
)

func newSatisfaction(t *testing.T) (*SatisfactionService, *fakeAlerter, *fakePublisher) {
	t.Helper()
	db := newTestDB(t)
	alerts, events := &fakeAlerter{}, &fakePublisher{}
	s := NewSatisfactionService(db, newTenants(t, db), alerts, notify.NewSpreadsheet(&fakeAppender{}), events)
	s.now = fixedClock(time.Date(2024, 6, 3, 14, 0, 0, 0, time.UTC))
	return s, alerts, events
}

func TestSatisfactionService_Submit_Validation(t *testing.T) {
	s, _, _ := newSatisfaction(t)
	ctx := context.Background()

	cases := []struct {
		name string
		in   SatisfactionInput
		msg  string
	}{
		{"missing rating", SatisfactionInput{SessionID: "s"}, "Missing required fields: rating, sessionId"},
		{"missing session", SatisfactionInput{Rating: 4, SessionID: "  "}, "Missing required fields: rating, sessionId"},
		{"too high", SatisfactionInput{Rating: 6, SessionID: "s"}, "Invalid rating"},
		{"negative", SatisfactionInput{Rating: -1, SessionID: "s"}, "Invalid rating"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := s.Submit(ctx, tc.in)
			var ve *ValidationError
			if !errors.As(err, &ve) || ve.Message != tc.msg {
				t.Fatalf("err = %v, want %q", err, tc.msg)
			}
		})
	}
}

func TestSatisfactionService_Submit_NegativeFansOut(t *testing.T) {
	s, alerts, events := newSatisfaction(t)
	ctx := context.Background()
	before := testutil.ToFloat64(observability.SatisfactionRatingsTotal.WithLabelValues(domain.SentimentNegative))

	out, err := s.Submit(ctx, SatisfactionInput{
		SessionID: "sess-neg",
		Rating:    1,
		Feedback:  "This is urgent, terrible service",
		UserAgent: "Mozilla/5.0",
		URL:       "https://cupolaxs.nl/?token=secret",
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	a := out.Analysis
	if !out.Success || out.RatingID == "" || a.Sentiment != domain.SentimentNegative || a.Priority != analytics.PriorityUrgent || !a.ActionRequired {
		t.Fatalf("result = %+v", out)
	}
	if out.Message != analytics.RatingMessage(1) {
		t.Fatalf("message = %q", out.Message)
	}
	if len(alerts.ratings) != 1 || alerts.ratings[0] != 1 {
		t.Fatalf("alerts = %v", alerts.ratings)
	}
	if got := events.published(); len(got) != 1 || got[0] != notify.KeyRatingNegative {
		t.Fatalf("events = %v", got)
	}
	if after := testutil.ToFloat64(observability.SatisfactionRatingsTotal.WithLabelValues(domain.SentimentNegative)); after != before+1 {
		t.Fatalf("counter %v -> %v", before, after)
	}

	rows, err := repo.ListSatisfactionRatings(ctx, s.DB, tenant.DefaultID, time.Time{})
	if err != nil || len(rows) != 1 {
		t.Fatalf("rows = %d, err = %v", len(rows), err)
	}
	r := rows[0]
	if r.TenantID != tenant.DefaultID || r.Language != "nl" || r.Sentiment != domain.SentimentNegative {
		t.Fatalf("stored = %+v", r)
	}
	if r.URL != analytics.SanitizeURL("https://cupolaxs.nl/?token=secret") {
		t.Fatalf("url = %q", r.URL)
	}
}

func TestSatisfactionService_Submit_PositiveIsQuiet(t *testing.T) {
	s, alerts, events := newSatisfaction(t)
	out, err := s.Submit(context.Background(), SatisfactionInput{
		SessionID: "sess-pos",
		Rating:    5,
		Language:  "en-GB",
		Tenant:    tenant.Identifier{Header: "demo-company"},
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if out.Analysis.ActionRequired || len(alerts.ratings) != 0 || len(events.published()) != 0 {
		t.Fatalf("unexpected fan-out: %+v alerts=%v events=%v", out.Analysis, alerts.ratings, events.published())
	}
	rows, _ := repo.ListSatisfactionRatings(context.Background(), s.DB, "demo-company", time.Time{})
	if len(rows) != 1 || rows[0].Language != "en" {
		t.Fatalf("rows = %+v", rows)
	}
}

func TestSatisfactionService_Submit_SideEffectFailuresDoNotFail(t *testing.T) {
	s, alerts, events := newSatisfaction(t)
	alerts.err = errBoom
	events.err = errBoom

	if _, err := s.Submit(context.Background(), SatisfactionInput{SessionID: "s", Rating: 2}); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if len(alerts.ratings) != 1 || len(events.published()) != 1 {
		t.Fatalf("fan-out not attempted: alerts=%v events=%v", alerts.ratings, events.published())
	}
}

func sheetOf(s *SatisfactionService) *fakeAppender {
	return s.Sheets.Appender.(*fakeAppender)
}

func TestSatisfactionService_Submit_AppendsSheetRow(t *testing.T) {
	s, _, _ := newSatisfaction(t)
	out, err := s.Submit(context.Background(), SatisfactionInput{SessionID: "sess-sheet", Rating: 4, Feedback: "Fijne hulp"})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	f := sheetOf(s)
	if len(f.sheets) != 1 || f.sheets[0] != notify.SheetRatings {
		t.Fatalf("sheets = %v", f.sheets)
	}
	row := f.rows[0]
	if row[0] != "3-6-2024 16:00:00" || row[1] != out.RatingID || row[2] != tenant.DefaultID || row[3] != "sess-sheet" || row[4] != 4 {
		t.Fatalf("row = %v", row)
	}
	if row[5] != out.Analysis.Sentiment || row[6] != "Fijne hulp" || row[7] != out.Analysis.Priority {
		t.Fatalf("row = %v", row)
	}
}

func TestSatisfactionService_Submit_SheetFailureDoesNotFail(t *testing.T) {
	s, _, _ := newSatisfaction(t)
	sheetOf(s).err = errBoom

	out, err := s.Submit(context.Background(), SatisfactionInput{SessionID: "s", Rating: 3})
	if err != nil || !out.Success {
		t.Fatalf("Submit = %+v, %v", out, err)
	}
	if len(sheetOf(s).sheets) != 1 {
		t.Fatalf("sheet append not attempted")
	}
	rows, _ := repo.ListSatisfactionRatings(context.Background(), s.DB, tenant.DefaultID, time.Time{})
	if len(rows) != 1 {
		t.Fatalf("rows = %d", len(rows))
	}
}

func TestSatisfactionService_Submit_NilSheetsSkipped(t *testing.T) {
	s, _, _ := newSatisfaction(t)
	s.Sheets = nil
	if _, err := s.Submit(context.Background(), SatisfactionInput{SessionID: "s", Rating: 5}); err != nil {
		t.Fatalf("Submit: %v", err)
	}
}

func TestSatisfactionService_Submit_StoreFailure(t *testing.T) {
	s, alerts, _ := newSatisfaction(t)
	sqlDB, _ := s.DB.DB()
	_ = sqlDB.Close()

	if _, err := s.Submit(context.Background(), SatisfactionInput{SessionID: "s", Rating: 1}); err == nil {
		t.Fatalf("expected store error")
	}
	if len(alerts.ratings) != 1 {
		t.Fatalf("alert should still be sent, got %v", alerts.ratings)
	}
}

func TestSatisfactionService_Report(t *testing.T) {
	s, _, _ := newSatisfaction(t)
	ctx := context.Background()

	empty, err := s.Report(ctx, "all", "bogus")
	if err != nil {
		t.Fatalf("Report: %v", err)
	}
	if empty.Metadata.DataSource != analytics.SourceEmpty || empty.Metadata.Period != DefaultReportPeriod || empty.Summary.TotalRatings != 0 {
		t.Fatalf("empty report = %+v", empty.Metadata)
	}

	for i, r := range []int{5, 4, 1} {
		if _, err := s.Submit(ctx, SatisfactionInput{SessionID: string(rune('a' + i)), Rating: r}); err != nil {
			t.Fatalf("Submit: %v", err)
		}
	}
	if _, err := s.Submit(ctx, SatisfactionInput{SessionID: "other", Rating: 3, TenantID: "demo-company"}); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	rep, err := s.Report(ctx, tenant.DefaultID, "30d")
	if err != nil {
		t.Fatalf("Report: %v", err)
	}
	sum := rep.Summary
	if sum.TotalRatings != 3 || sum.AverageRating != 3.3 || sum.SatisfactionRate != 67 {
		t.Fatalf("summary = %+v", sum)
	}
	if rep.Distribution[1] != 1 || rep.Distribution[4] != 1 || rep.Distribution[5] != 1 || rep.Distribution[3] != 0 {
		t.Fatalf("distribution = %v", rep.Distribution)
	}
	if rep.Metadata.Tenant != tenant.DefaultID || rep.Metadata.DataSource != analytics.SourceLive {
		t.Fatalf("metadata = %+v", rep.Metadata)
	}

	all, _ := s.Report(ctx, "", "today")
	if all.Summary.TotalRatings != 4 || all.Segmentation.ByTenant["demo-company"].Total != 1 {
		t.Fatalf("all-tenant report = %+v", all.Summary)
	}
}
