// Package widget assembles the self-contained script served at /widget: the
// tenant configuration, the tenant stylesheet and the embedded bootstrap.
package widget

import (
	_ "embed"
	"encoding/json"
	"strings"

	"github.com/chatguus/chatguus-backend/internal/domain"
	"github.com/chatguus/chatguus-backend/internal/keywords"
	"github.com/chatguus/chatguus-backend/internal/personality"
)

//go:embed assets/widget.js
var bootstrap string

// Categories is the client-side categorization order. It mirrors the
// classifier's priority for the lists a visitor message can hit.
var Categories = []keywords.List{
	keywords.Urgency,
	keywords.Complaint,
	keywords.Accessibility,
	keywords.Modification,
	keywords.IT,
	keywords.Cleaning,
	keywords.Event,
	keywords.Booking,
	keywords.FAQ,
	keywords.Greeting,
}

// Config is serialized as window.CHATGUUS_CONFIG.
type Config struct {
	TenantID        string              `json:"tenantId"`
	APIEndpoint     string              `json:"apiEndpoint"`
	Branding        domain.Branding     `json:"branding"`
	Language        string              `json:"language"`
	QuickReplies    []string            `json:"quickReplies"`
	Fallback        string              `json:"fallback"`
	Placeholder     string              `json:"placeholder"`
	KeywordsVersion string              `json:"keywordsVersion"`
	Categories      []string            `json:"categories"`
	Keywords        map[string][]string `json:"keywords"`
	ExactLists      []string            `json:"exactLists"`
}

// NewConfig derives the widget configuration of t. apiEndpoint is the
// absolute base of the API (public URL plus base path).
func NewConfig(t *domain.Tenant, apiEndpoint string) Config {
	lang := t.Personality.Data().Language
	cats := make([]string, 0, len(Categories))
	lists := make(map[string][]string, len(Categories))
	var exact []string
	for _, l := range Categories {
		cats = append(cats, string(l))
		lists[string(l)] = keywords.Words(l)
		if keywords.ExactOnly(l) {
			exact = append(exact, string(l))
		}
	}

	placeholder := "Type your message..."
	if strings.HasPrefix(strings.ToLower(lang), "nl") {
		placeholder = "Typ je bericht..."
	}
	fallback := ""
	if fb := personality.FallbackMessages(t); len(fb) > 0 {
		fallback = fb[0]
	}

	return Config{
		TenantID:        t.ID,
		APIEndpoint:     strings.TrimRight(apiEndpoint, "/"),
		Branding:        t.Branding.Data(),
		Language:        lang,
		QuickReplies:    personality.ConversationStarters(lang),
		Fallback:        fallback,
		Placeholder:     placeholder,
		KeywordsVersion: keywords.Version,
		Categories:      cats,
		Keywords:        lists,
		ExactLists:      exact,
	}
}

// Bundle renders the script. json.Marshal escapes <, > and &, so tenant
// strings cannot close the surrounding script element.
func Bundle(cfg Config, css string) ([]byte, error) {
	cfgJSON, err := json.Marshal(cfg)
	if err != nil {
		return nil, err
	}
	cssJSON, err := json.Marshal(css)
	if err != nil {
		return nil, err
	}

	var sb strings.Builder
	sb.Grow(len(bootstrap) + len(cfgJSON) + len(cssJSON) + 256)
	sb.WriteString("window.CHATGUUS_CONFIG = ")
	sb.Write(cfgJSON)
	sb.WriteString(";\n(function () {\n  var style = document.createElement(\"style\");\n  style.textContent = ")
	sb.Write(cssJSON)
	sb.WriteString(";\n  document.head.appendChild(style);\n})();\n")
	sb.WriteString(bootstrap)
	return []byte(sb.String()), nil
}
