package analytics

import (
	"strings"

	"github.com/chatguus/chatguus-backend/internal/domain"
)

// Self-rating categories.
const (
	RatedGeneral        = "general"
	RatedUnknown        = "unknown"
	RatedServiceRequest = "service_request"
	RatedEventInquiry   = "event_inquiry"
)

// Review thresholds: a reply below either one is tracked as a missing answer.
const (
	ReviewConfidence  = 0.7
	ReviewHelpfulness = 3
)

var (
	unsureWording  = []string{"sorry", "i don't know", "ik weet het niet", "weet ik niet"}
	contactWording = []string{"contact", "email", "e-mail"}
	eventWording   = []string{"event", "booking", "boeking", "reservering"}
)

// SelfRating is the automatic assessment of one reply. Scores are on a 1..5
// scale; Overall is their mean.
type SelfRating struct {
	Accuracy     int      `json:"accuracy"`
	Helpfulness  int      `json:"helpfulness"`
	Completeness int      `json:"completeness"`
	Clarity      int      `json:"clarity"`
	Relevance    int      `json:"relevance"`
	Overall      float64  `json:"overall"`
	Confidence   float64  `json:"confidence"`
	Category     string   `json:"category"`
	Suggestions  []string `json:"suggestions"`
	MissingInfo  string   `json:"missingInfo,omitempty"`
}

// RateResponse scores reply with a wording heuristic. Replies that apologise
// or admit not knowing score low on helpfulness and confidence; replies that
// point to a contact or an event are categorized accordingly; very short
// replies lose a completeness point and long ones gain one.
func RateResponse(reply string) SelfRating {
	lower := strings.ToLower(reply)
	r := SelfRating{
		Accuracy: 4, Helpfulness: 4, Completeness: 4, Clarity: 4, Relevance: 4,
		Confidence:  0.8,
		Category:    RatedGeneral,
		Suggestions: []string{},
	}

	if containsAny(lower, unsureWording) {
		r.Helpfulness = 2
		r.Completeness = 2
		r.Confidence = 0.4
		r.Category = RatedUnknown
		r.Suggestions = append(r.Suggestions, "Needs more specific information or escalation")
		r.MissingInfo = "Specific answer to user question"
	}
	if containsAny(lower, contactWording) {
		r.Category = RatedServiceRequest
		r.Helpfulness = 4
	}
	if containsAny(lower, eventWording) {
		r.Category = RatedEventInquiry
	}

	switch n := len([]rune(lower)); {
	case n < 50:
		r.Completeness = max(2, r.Completeness-1)
	case n > 200:
		r.Completeness = min(5, r.Completeness+1)
	}

	r.Overall = float64(r.Accuracy+r.Helpfulness+r.Completeness+r.Clarity+r.Relevance) / 5
	return r
}

// Scores returns the rating normalized to [0,1] for storage.
func (r SelfRating) Scores() domain.QualityScores {
	return domain.QualityScores{
		Accuracy:     unit(float64(r.Accuracy)),
		Helpfulness:  unit(float64(r.Helpfulness)),
		Completeness: unit(float64(r.Completeness)),
		Clarity:      unit(float64(r.Clarity)),
		Relevance:    unit(float64(r.Relevance)),
		Overall:      unit(r.Overall),
	}
}

// NeedsReview reports whether the reply should be tracked as a missing
// answer.
func (r SelfRating) NeedsReview() bool {
	return r.Confidence < ReviewConfidence || r.Helpfulness < ReviewHelpfulness
}

// MissingPriority ranks a missing answer from the self-rating of the reply:
// high below 0.3 confidence or 2 helpfulness, medium below 0.5 confidence or
// 3 helpfulness, low otherwise.
func MissingPriority(confidence float64, helpfulness int) string {
	switch {
	case confidence < 0.3 || helpfulness < 2:
		return "high"
	case confidence < 0.5 || helpfulness < 3:
		return "medium"
	default:
		return "low"
	}
}

func unit(score float64) float64 {
	return round(min(5, max(0, score))/5, 2)
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
