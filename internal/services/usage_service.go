package services

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/blake2b"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/chatguus/chatguus-backend/internal/analytics"
	"github.com/chatguus/chatguus-backend/internal/domain"
	"github.com/chatguus/chatguus-backend/internal/repo"
)

const maxEventName = 64

// sensitiveKeys are dropped from event data, compared case-insensitively.
var sensitiveKeys = map[string]struct{}{
	"password": {}, "token": {}, "apikey": {}, "api_key": {}, "secret": {},
}

// UsageUser identifies the widget visitor. Fingerprint never reaches the
// store; it is replaced by an anonymous id.
type UsageUser struct {
	Fingerprint string `json:"fingerprint"`
	Session     string `json:"session"`
	IsReturning bool   `json:"isReturning"`
}

// UsageContext describes where an event happened.
type UsageContext struct {
	URL       string `json:"url"`
	Referrer  string `json:"referrer"`
	UserAgent string `json:"userAgent"`
	Timestamp string `json:"timestamp"`
	Timezone  string `json:"timezone"`
}

// UsageInput is one widget analytics event.
type UsageInput struct {
	Event    string         `json:"event"`
	TenantID string         `json:"tenantId,omitempty"`
	Data     map[string]any `json:"data,omitempty"`
	User     *UsageUser     `json:"user,omitempty"`
	Context  *UsageContext  `json:"context"`
}

// RecordedEvent is the result of Record.
type RecordedEvent struct {
	Success   bool      `json:"success"`
	EventID   string    `json:"eventId"`
	Timestamp time.Time `json:"timestamp"`
}

// UsageService stores anonymized widget usage events.
type UsageService struct {
	DB *gorm.DB
	// Salt is mixed into anonymous ids.
	Salt string

	now func() time.Time
}

// NewUsageService wires a UsageService. An empty salt is replaced by a
// random one, so anonymous ids only correlate within one process.
func NewUsageService(db *gorm.DB, salt string) *UsageService {
	if salt == "" {
		salt = uuid.NewString()
		log.Warn().Msg("ANALYTICS_SALT not set, anonymous ids reset on restart")
	}
	return &UsageService{DB: db, Salt: salt, now: time.Now}
}

// Record validates, anonymizes and stores in.
func (s *UsageService) Record(ctx context.Context, in UsageInput) (*RecordedEvent, error) {
	name := strings.TrimSpace(in.Event)
	if name == "" || in.Context == nil {
		return nil, NewValidationError("Invalid analytics payload")
	}
	if utf8.RuneCountInString(name) > maxEventName {
		return nil, NewValidationError("Invalid analytics payload", "event name too long")
	}

	e := &domain.UsageEvent{
		Event:      name,
		TenantID:   allToEmpty(strings.ToLower(in.TenantID)),
		URL:        analytics.SanitizeURL(in.Context.URL),
		Referrer:   analytics.SanitizeURL(in.Context.Referrer),
		UserAgent:  analytics.SanitizeUserAgent(in.Context.UserAgent),
		Timezone:   in.Context.Timezone,
		ClientTime: in.Context.Timestamp,
		CreatedAt:  s.now().UTC(),
	}
	if in.User != nil {
		e.AnonymousID = s.AnonymousID(in.User.Fingerprint)
		e.SessionID = in.User.Session
		e.IsReturning = in.User.IsReturning
	}
	if data := StripSensitive(in.Data); len(data) > 0 {
		b, err := json.Marshal(data)
		if err != nil {
			return nil, NewValidationError("Invalid analytics payload", "data must be a JSON object")
		}
		e.Data = datatypes.JSON(b)
	}

	if err := repo.InsertUsageEvent(ctx, s.DB, e); err != nil {
		return nil, err
	}
	log.Ctx(ctx).Debug().
		Str("event", e.Event).
		Str("anonymous_id", e.AnonymousID).
		Str("url", e.URL).
		Msg("usage event stored")

	return &RecordedEvent{Success: true, EventID: e.ID, Timestamp: e.CreatedAt}, nil
}

// AnonymousID derives a stable, non-reversible id from a fingerprint:
// "anon_" followed by 16 hex digits of a salted BLAKE2b-256 digest. An empty
// fingerprint yields "".
func (s *UsageService) AnonymousID(fingerprint string) string {
	if fingerprint == "" {
		return ""
	}
	sum := blake2b.Sum256([]byte(fingerprint + s.Salt))
	return "anon_" + hex.EncodeToString(sum[:])[:16]
}

// StripSensitive returns a copy of data without credential-like keys.
func StripSensitive(data map[string]any) map[string]any {
	if len(data) == 0 {
		return nil
	}
	out := make(map[string]any, len(data))
	for k, v := range data {
		if _, bad := sensitiveKeys[strings.ToLower(k)]; bad {
			continue
		}
		out[k] = v
	}
	return out
}
