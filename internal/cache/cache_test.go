package cache

import (
	"context"
	"testing"
	"time"
)

type dashboard struct {
	Total int     `json:"total"`
	Avg   float64 `json:"avg"`
}

func TestMemory_SetGet(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(time.Minute)

	var got dashboard
	if ok, err := m.Get(ctx, "dash:koepel", &got); ok || err != nil {
		t.Fatalf("expected miss, got ok=%v err=%v", ok, err)
	}
	if err := m.Set(ctx, "dash:koepel", dashboard{Total: 3, Avg: 4.5}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	ok, err := m.Get(ctx, "dash:koepel", &got)
	if !ok || err != nil || got.Total != 3 || got.Avg != 4.5 {
		t.Fatalf("Get = %+v ok=%v err=%v", got, ok, err)
	}
	if m.TTL() != time.Minute {
		t.Fatalf("ttl = %v", m.TTL())
	}
}

func TestMemory_Expiry(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(5 * time.Minute)
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }

	_ = m.Set(ctx, "k", "v")
	now = now.Add(4 * time.Minute)
	var s string
	if ok, _ := m.Get(ctx, "k", &s); !ok || s != "v" {
		t.Fatalf("expected hit before ttl")
	}
	now = now.Add(time.Minute)
	if ok, _ := m.Get(ctx, "k", &s); ok {
		t.Fatalf("expected miss at ttl")
	}
	if m.Len() != 0 {
		t.Fatalf("expired entry not evicted")
	}
}

func TestMemory_Invalidate(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(time.Minute)
	for _, k := range []string{"css:koepel", "prompt:koepel", "css:demo", "dashboard:koepel:week"} {
		_ = m.Set(ctx, k, k)
	}

	_ = m.Invalidate(ctx, "css:koepel", "missing")
	var s string
	if ok, _ := m.Get(ctx, "css:koepel", &s); ok {
		t.Fatalf("css:koepel should be gone")
	}
	if ok, _ := m.Get(ctx, "prompt:koepel", &s); !ok {
		t.Fatalf("prompt:koepel should remain")
	}

	_ = m.InvalidatePrefix(ctx, "dashboard:")
	if ok, _ := m.Get(ctx, "dashboard:koepel:week", &s); ok {
		t.Fatalf("prefix invalidation failed")
	}
	if m.Len() != 2 {
		t.Fatalf("expected 2 entries left, got %d", m.Len())
	}
}

func TestMemory_DecodeIntoMismatchedTypeErrors(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(time.Minute)
	_ = m.Set(ctx, "k", "text")
	var d dashboard
	if ok, err := m.Get(ctx, "k", &d); ok || err == nil {
		t.Fatalf("expected decode error, got ok=%v err=%v", ok, err)
	}
}

func TestRedis_InvalidURL(t *testing.T) {
	if _, err := NewRedis(context.Background(), "not-a-url", time.Minute); err == nil {
		t.Fatalf("expected parse error")
	}
}

var (
	_ Cache = (*Memory)(nil)
	_ Cache = (*Redis)(nil)
)
