package widget

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/chatguus/chatguus-backend/internal/keywords"
	"github.com/chatguus/chatguus-backend/internal/tenant"
)

func TestNewConfig_DefaultTenant(t *testing.T) {
	def := tenant.Default()
	cfg := NewConfig(&def, "https://bot.example.com/api/")

	if cfg.TenantID != tenant.DefaultID || cfg.APIEndpoint != "https://bot.example.com/api" {
		t.Fatalf("cfg = %+v", cfg)
	}
	if cfg.KeywordsVersion != keywords.Version || len(cfg.Categories) != len(Categories) {
		t.Fatalf("keywords = %q %v", cfg.KeywordsVersion, cfg.Categories)
	}
	if len(cfg.Keywords["it"]) == 0 || len(cfg.QuickReplies) == 0 {
		t.Fatalf("missing lists or replies: %+v", cfg)
	}
	if cfg.Placeholder != "Typ je bericht..." || !strings.Contains(cfg.Fallback, "@") {
		t.Fatalf("placeholder %q fallback %q", cfg.Placeholder, cfg.Fallback)
	}
}

func TestBundle_EscapesTenantStrings(t *testing.T) {
	def := tenant.Default()
	cfg := NewConfig(&def, "/api")
	cfg.Branding.CompanyName = "</script><script>alert(1)</script>"

	out, err := Bundle(cfg, "body{}</style>")
	if err != nil {
		t.Fatalf("Bundle: %v", err)
	}
	js := string(out)
	if !strings.HasPrefix(js, "window.CHATGUUS_CONFIG = {") {
		t.Fatalf("bundle prefix: %.60s", js)
	}
	if strings.Contains(js, "</script>") || strings.Contains(js, "</style>") {
		t.Fatalf("bundle leaks closing tags")
	}
	if !strings.Contains(js, "window.ChatGuus =") {
		t.Fatalf("bootstrap missing")
	}

	line := strings.TrimSuffix(strings.SplitN(js, "\n", 2)[0], ";")
	var back Config
	if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "window.CHATGUUS_CONFIG = ")), &back); err != nil {
		t.Fatalf("config is not JSON: %v", err)
	}
	if back.Branding.CompanyName != cfg.Branding.CompanyName {
		t.Fatalf("company = %q", back.Branding.CompanyName)
	}
}

func TestNewConfig_UrgencyIsExactOnly(t *testing.T) {
	def := tenant.Default()
	cfg := NewConfig(&def, "/api")
	if len(cfg.ExactLists) != 1 || cfg.ExactLists[0] != string(keywords.Urgency) {
		t.Fatalf("exactLists = %v", cfg.ExactLists)
	}
}

func TestBootstrap_RendersAndRetriesSafely(t *testing.T) {
	for _, want := range []string{
		"new AbortController()",
		"res.status >= 500",
		"return again(err)",
		"createTextNode(part)",
		"content: plain(reply)",
		"cfg.exactLists",
	} {
		if !strings.Contains(bootstrap, want) {
			t.Fatalf("widget script missing %q", want)
		}
	}
	if strings.Contains(bootstrap, "innerHTML = text") || strings.Contains(bootstrap, "!res.ok && retry") {
		t.Fatalf("widget script renders raw html or retries client errors")
	}
}
