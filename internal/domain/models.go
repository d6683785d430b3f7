// Package domain defines the persistence models for tenants, chat sessions,
// ratings, missing answers and usage events. These types are mapped with GORM
// and form the document store of the chatbot backend. Nested documents are
// stored as JSON columns via gorm.io/datatypes.
package domain

import (
	"time"

	"gorm.io/datatypes"
)

// Message senders within a chat session.
const (
	SenderUser = "user"
	SenderAI   = "ai"
)

// Missing-answer review states.
const (
	StatusNeedsReview = "needs_review"
	StatusResolved    = "resolved"
	StatusIgnored     = "ignored"
)

// Sentiments derived from a satisfaction rating.
const (
	SentimentPositive = "positive"
	SentimentNeutral  = "neutral"
	SentimentNegative = "negative"
)

// Branding holds the visual identity of a tenant.
type Branding struct {
	PrimaryColor   string `json:"primaryColor"             validate:"required,hexcolor"`
	SecondaryColor string `json:"secondaryColor,omitempty" validate:"omitempty,hexcolor"`
	Logo           string `json:"logo,omitempty"`
	Avatar         string `json:"avatar,omitempty"`
	CompanyName    string `json:"companyName"              validate:"required"`
	BotName        string `json:"botName"                  validate:"required"`
	WelcomeMessage string `json:"welcomeMessage"           validate:"required"`
}

// Personality describes the voice of the tenant's bot. SystemPrompt, when
// set, replaces the generated prompt entirely.
type Personality struct {
	Name         string   `json:"name"                   validate:"required"`
	Traits       []string `json:"traits"`
	Tone         string   `json:"tone"`
	Language     string   `json:"language"               validate:"required"`
	SystemPrompt string   `json:"systemPrompt,omitempty"`
}

// Tenant is one customer configuration served by the shared backend.
//
// Fields:
//   - ID: lowercase slug primary key ("koepel").
//   - Domain: host the widget is embedded on; indexed for resolution by host.
//   - Active: inactive tenants resolve to the default tenant.
//   - Routing: department name to destination email address.
//   - Features: feature flag name to enabled.
type Tenant struct {
	ID          string                                `json:"id"          gorm:"type:varchar(64);primaryKey"`
	Name        string                                `json:"name"        gorm:"type:varchar(255);not null"`
	Domain      string                                `json:"domain"      gorm:"type:varchar(255);not null;index"`
	Active      bool                                  `json:"active"      gorm:"not null"`
	APIKey      string                                `json:"-"           gorm:"type:varchar(64)"`
	Branding    datatypes.JSONType[Branding]          `json:"branding"`
	Personality datatypes.JSONType[Personality]       `json:"personality"`
	Routing     datatypes.JSONType[map[string]string] `json:"routing"`
	Features    datatypes.JSONType[map[string]bool]   `json:"features"`
	CreatedAt   time.Time                             `json:"createdAt"`
	UpdatedAt   time.Time                             `json:"updatedAt"`
}

// TableName returns the database table name for Tenant.
func (Tenant) TableName() string { return "tenants" }

// SessionMessage is one entry of a chat session transcript.
type SessionMessage struct {
	Content   string    `json:"content"`
	Sender    string    `json:"sender"`
	Timestamp time.Time `json:"timestamp"`
	Intent    string    `json:"intent,omitempty"`
	Keywords  []string  `json:"keywords,omitempty"`
	Action    string    `json:"action,omitempty"`
}

// SessionMetadata is captured from the first request of a session.
type SessionMetadata struct {
	UserAgent string `json:"userAgent,omitempty"`
	URL       string `json:"url,omitempty"`
	Language  string `json:"language,omitempty"`
}

// ChatSession is the append-only transcript of one widget conversation,
// upserted by SessionID.
type ChatSession struct {
	ID           string                              `json:"id"           gorm:"type:char(36);primaryKey"`
	SessionID    string                              `json:"sessionId"    gorm:"type:varchar(128);not null;uniqueIndex:ux_session_id"`
	TenantID     string                              `json:"tenantId"     gorm:"type:varchar(64);not null;index"`
	Messages     datatypes.JSONSlice[SessionMessage] `json:"messages"`
	Metadata     datatypes.JSONType[SessionMetadata] `json:"metadata"`
	CreatedAt    time.Time                           `json:"createdAt"`
	UpdatedAt    time.Time                           `json:"updatedAt"`
	LastActivity time.Time                           `json:"lastActivity" gorm:"index"`
}

// TableName returns the database table name for ChatSession.
func (ChatSession) TableName() string { return "chat_sessions" }

// RatingAnalysis is derived from a satisfaction rating and its feedback text.
type RatingAnalysis struct {
	Sentiment      string   `json:"sentiment"`
	Category       string   `json:"category"`
	Priority       string   `json:"priority"`
	ActionRequired bool     `json:"actionRequired"`
	Keywords       []string `json:"keywords"`
}

// SatisfactionRating is a user-submitted 1..5 score for a session.
type SatisfactionRating struct {
	ID              string                             `json:"id"              gorm:"type:char(36);primaryKey"`
	SessionID       string                             `json:"sessionId"       gorm:"type:varchar(128);not null;index"`
	TenantID        string                             `json:"tenantId"        gorm:"type:varchar(64);not null;index:idx_satisfaction_tenant_time,priority:1"`
	Rating          int                                `json:"rating"          gorm:"not null;check:rating BETWEEN 1 AND 5"`
	Feedback        string                             `json:"feedback"        gorm:"type:text"`
	Categories      datatypes.JSONSlice[string]        `json:"categories"`
	SessionDuration int64                              `json:"sessionDuration"`
	MessageCount    int                                `json:"messageCount"`
	WasResolved     *bool                              `json:"wasResolved,omitempty"`
	WasEscalated    *bool                              `json:"wasEscalated,omitempty"`
	UserAgent       string                             `json:"userAgent,omitempty" gorm:"type:varchar(512)"`
	URL             string                             `json:"url,omitempty"       gorm:"type:varchar(1024)"`
	Language        string                             `json:"language,omitempty"  gorm:"type:varchar(8)"`
	Sentiment       string                             `json:"sentiment"       gorm:"type:varchar(16);not null;index"`
	Analysis        datatypes.JSONType[RatingAnalysis] `json:"analysis"`
	CreatedAt       time.Time                          `json:"createdAt"       gorm:"index:idx_satisfaction_tenant_time,priority:2"`
}

// TableName returns the database table name for SatisfactionRating.
func (SatisfactionRating) TableName() string { return "satisfaction_ratings" }

// QualityScores is the automatic self-assessment of one generated reply.
// Every score lies in [0,1].
type QualityScores struct {
	Accuracy     float64 `json:"accuracy"`
	Helpfulness  float64 `json:"helpfulness"`
	Completeness float64 `json:"completeness"`
	Clarity      float64 `json:"clarity"`
	Relevance    float64 `json:"relevance"`
	Overall      float64 `json:"overall"`
}

// AIRating stores a self-rating of one assistant reply.
type AIRating struct {
	ID          string                            `json:"id"          gorm:"type:char(36);primaryKey"`
	SessionID   string                            `json:"sessionId"   gorm:"type:varchar(128);index"`
	TenantID    string                            `json:"tenantId"    gorm:"type:varchar(64);not null;index:idx_ai_ratings_tenant_time,priority:1"`
	UserMessage string                            `json:"userMessage" gorm:"type:text"`
	AIResponse  string                            `json:"aiResponse"  gorm:"type:text"`
	Scores      datatypes.JSONType[QualityScores] `json:"scores"`
	Overall     float64                           `json:"overall"     gorm:"not null"`
	Confidence  float64                           `json:"confidence"`
	Category    string                            `json:"category"    gorm:"type:varchar(64);index"`
	Suggestions datatypes.JSONSlice[string]       `json:"suggestions"`
	Context     datatypes.JSON                    `json:"context,omitempty"`
	CreatedAt   time.Time                         `json:"createdAt"   gorm:"index:idx_ai_ratings_tenant_time,priority:2"`
}

// TableName returns the database table name for AIRating.
func (AIRating) TableName() string { return "ai_ratings" }

// MissingAnswer is a user question the bot could not answer well. Near
// duplicates within a tenant are merged by incrementing Frequency.
type MissingAnswer struct {
	ID           string    `json:"id"           gorm:"type:char(36);primaryKey"`
	TenantID     string    `json:"tenantId"     gorm:"type:varchar(64);not null;index"`
	SessionID    string    `json:"sessionId"    gorm:"type:varchar(128)"`
	UserQuestion string    `json:"userQuestion" gorm:"type:text;not null"`
	AIResponse   string    `json:"aiResponse"   gorm:"type:text"`
	Category     string    `json:"category"     gorm:"type:varchar(64)"`
	Priority     string    `json:"priority"     gorm:"type:varchar(16);not null;check:priority IN ('low','medium','high')"`
	Frequency    int       `json:"frequency"    gorm:"not null"`
	Status       string    `json:"status"       gorm:"type:varchar(16);not null;index;check:status IN ('needs_review','resolved','ignored')"`
	Notes        string    `json:"notes,omitempty" gorm:"type:text"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
	LastAskedAt  time.Time `json:"lastAskedAt"  gorm:"index"`
}

// TableName returns the database table name for MissingAnswer.
func (MissingAnswer) TableName() string { return "missing_answers" }

// UsageEvent is an anonymized widget analytics event.
type UsageEvent struct {
	ID          string         `json:"id"          gorm:"type:char(36);primaryKey"`
	Event       string         `json:"event"       gorm:"type:varchar(64);not null;index"`
	TenantID    string         `json:"tenantId"    gorm:"type:varchar(64);index"`
	AnonymousID string         `json:"anonymousId" gorm:"type:varchar(64);index"`
	SessionID   string         `json:"sessionId"   gorm:"type:varchar(128)"`
	IsReturning bool           `json:"isReturning"`
	Data        datatypes.JSON `json:"data,omitempty"`
	URL         string         `json:"url"         gorm:"type:varchar(1024)"`
	Referrer    string         `json:"referrer"    gorm:"type:varchar(1024)"`
	UserAgent   string         `json:"userAgent"   gorm:"type:varchar(512)"`
	Timezone    string         `json:"timezone"    gorm:"type:varchar(64)"`
	ClientTime  string         `json:"clientTime"  gorm:"type:varchar(64)"`
	CreatedAt   time.Time      `json:"createdAt"   gorm:"index"`
}

// TableName returns the database table name for UsageEvent.
func (UsageEvent) TableName() string { return "usage_events" }
