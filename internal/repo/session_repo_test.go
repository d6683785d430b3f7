package repo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/chatguus/chatguus-backend/internal/domain"
)

func msg(sender, content string) domain.SessionMessage {
	return domain.SessionMessage{Sender: sender, Content: content, Timestamp: time.Now().UTC()}
}

func TestUpsertSessionMessages_CreateThenAppend(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	meta := domain.SessionMetadata{UserAgent: "ua-1", Language: "nl"}

	s, err := UpsertSessionMessages(ctx, db, "sess-1", "koepel",
		[]domain.SessionMessage{msg(domain.SenderUser, "hallo"), msg(domain.SenderAI, "Hoi!")}, meta)
	if err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	if s.ID == "" || len(s.Messages) != 2 {
		t.Fatalf("unexpected session: %+v", s)
	}

	// Metadata from later requests is ignored.
	_, err = UpsertSessionMessages(ctx, db, "sess-1", "koepel",
		[]domain.SessionMessage{msg(domain.SenderUser, "printer kapot"), msg(domain.SenderAI, "Vervelend!")},
		domain.SessionMetadata{UserAgent: "ua-2"})
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	got, err := GetSession(ctx, db, "sess-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	want := []string{"hallo", "Hoi!", "printer kapot", "Vervelend!"}
	if len(got.Messages) != len(want) {
		t.Fatalf("messages = %d, want %d", len(got.Messages), len(want))
	}
	for i, w := range want {
		if got.Messages[i].Content != w {
			t.Fatalf("message[%d] = %q, want %q", i, got.Messages[i].Content, w)
		}
	}
	if got.Metadata.Data().UserAgent != "ua-1" {
		t.Fatalf("metadata overwritten: %+v", got.Metadata.Data())
	}
	if got.LastActivity.Before(got.CreatedAt) {
		t.Fatalf("last activity before creation")
	}
}

func TestGetSession_NotFound(t *testing.T) {
	db := newTestDB(t)
	if _, err := GetSession(context.Background(), db, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestCountSessions_ByTenant(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)

	for _, c := range []struct{ sess, tenant string }{{"a", "koepel"}, {"b", "koepel"}, {"c", "demo-company"}} {
		if _, err := UpsertSessionMessages(ctx, db, c.sess, c.tenant, []domain.SessionMessage{msg(domain.SenderUser, "x")}, domain.SessionMetadata{}); err != nil {
			t.Fatalf("upsert %s: %v", c.sess, err)
		}
	}

	if n, _ := CountSessions(ctx, db, "koepel"); n != 2 {
		t.Fatalf("koepel sessions = %d, want 2", n)
	}
	if n, _ := CountSessions(ctx, db, ""); n != 3 {
		t.Fatalf("all sessions = %d, want 3", n)
	}
}
