package tenant

import (
	"crypto/rand"
	"encoding/hex"
	"net"
	"regexp"
	"strings"

	"golang.org/x/text/language"
)

// Identifier carries every request attribute that can select a tenant.
// Resolution tries ID, Header, Query, then Host and Origin as domains.
type Identifier struct {
	ID     string // explicit id (path or body)
	Header string // X-Tenant-ID / X-Tenant
	Query  string // ?tenant= / ?tenantId=
	Host   string
	Origin string
}

// IDs returns the non-empty explicit identifiers in resolution order.
func (id Identifier) IDs() []string {
	var out []string
	for _, v := range []string{id.ID, id.Header, id.Query} {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// Domains returns the cleaned, non-empty domains in resolution order.
func (id Identifier) Domains() []string {
	var out []string
	for _, v := range []string{id.Host, id.Origin} {
		if d := CleanDomain(v); d != "" {
			out = append(out, d)
		}
	}
	return out
}

// CleanDomain lowercases s and strips the scheme, a leading "www.", any
// path and any port.
func CleanDomain(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.TrimPrefix(s, "https://")
	s = strings.TrimPrefix(s, "http://")
	s = strings.TrimPrefix(s, "www.")
	if i := strings.IndexAny(s, "/?#"); i >= 0 {
		s = s[:i]
	}
	if h, _, err := net.SplitHostPort(s); err == nil {
		s = h
	}
	return s
}

var slugRE = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// IsSlug reports whether s is a valid tenant id.
func IsSlug(s string) bool { return len(s) <= 64 && slugRE.MatchString(s) }

// NewAPIKey returns "tk_" followed by 32 random hex characters.
func NewAPIKey() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return "tk_" + hex.EncodeToString(b), nil
}

// NormalizeLanguage reduces a language tag to its base code ("nl-NL" → "nl").
// Unparseable input is returned lowercased and trimmed.
func NormalizeLanguage(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	tag, err := language.Parse(s)
	if err != nil {
		return strings.ToLower(s)
	}
	base, _ := tag.Base()
	return base.String()
}

// IsDutch reports whether lang normalizes to Dutch.
func IsDutch(lang string) bool { return NormalizeLanguage(lang) == "nl" }
