package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/chatguus/chatguus-backend/internal/domain"
)

// LowRatingThreshold is the highest rating that triggers an alert.
const LowRatingThreshold = 2

// Alerter reports poor satisfaction ratings to humans.
type Alerter interface {
	LowRating(ctx context.Context, r domain.SatisfactionRating) error
}

// Slack posts alerts to an incoming webhook. A Slack with an empty URL logs
// the alert instead.
type Slack struct {
	url    string
	client *http.Client
}

// NewSlack returns an alerter for webhookURL.
func NewSlack(webhookURL string) *Slack {
	return &Slack{
		url: webhookURL,
		client: &http.Client{
			Timeout:   10 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

type slackText struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type slackBlock struct {
	Type string    `json:"type"`
	Text slackText `json:"text"`
}

type slackMessage struct {
	Text   string       `json:"text"`
	Blocks []slackBlock `json:"blocks"`
}

func section(text string) slackBlock {
	return slackBlock{Type: "section", Text: slackText{Type: "mrkdwn", Text: text}}
}

func yesNo(b *bool) string {
	if b != nil && *b {
		return "Yes"
	}
	return "No"
}

func lowRatingMessage(r domain.SatisfactionRating) slackMessage {
	msg := slackMessage{
		Text: "🚨 Low Satisfaction Rating Alert",
		Blocks: []slackBlock{section(fmt.Sprintf("*Low Rating Alert* 🚨\n\n*Rating:* %d/5 ⭐\n*Tenant:* %s\n*Session:* %s",
			r.Rating, r.TenantID, r.SessionID))},
	}
	if r.Feedback != "" {
		msg.Blocks = append(msg.Blocks, section("*Feedback:* \"" + r.Feedback + "\""))
	}
	msg.Blocks = append(msg.Blocks, section(fmt.Sprintf(
		"*Session Details:*\n• Duration: %ds\n• Messages: %d\n• Resolved: %s\n• Escalated: %s",
		int64(math.Round(float64(r.SessionDuration)/1000)), r.MessageCount, yesNo(r.WasResolved), yesNo(r.WasEscalated))))
	return msg
}

// LowRating implements Alerter. Ratings above LowRatingThreshold are ignored.
func (s *Slack) LowRating(ctx context.Context, r domain.SatisfactionRating) error {
	if r.Rating > LowRatingThreshold {
		return nil
	}
	msg := lowRatingMessage(r)
	if s.url == "" {
		log.Ctx(ctx).Info().Int("rating", r.Rating).Str("tenant", r.TenantID).
			Str("session", r.SessionID).Msg("low rating alert logged (Slack not configured)")
		return nil
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("slack webhook: unexpected status %d", resp.StatusCode)
	}
	return nil
}
