// Package analytics derives insight from stored feedback: the analysis of a
// single satisfaction rating, period reports over many ratings, the automatic
// self-rating of generated replies and the AI quality dashboard.
//
// Everything here is pure: callers load rows through the repo package and
// pass them in, so the same inputs always produce the same report.
package analytics

import (
	"net/url"
	"slices"
	"strings"

	"github.com/chatguus/chatguus-backend/internal/domain"
	"github.com/chatguus/chatguus-backend/internal/keywords"
)

// Analysis priorities. Normal and high follow the rating; urgent is raised by
// feedback wording.
const (
	PriorityNormal = "normal"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

// Feedback categories. CategoryGeneral is used when no issue keyword matches.
const (
	CategoryTechnical   = "technical"
	CategoryUsability   = "usability"
	CategoryPerformance = "performance"
	CategoryContent     = "content"
	CategoryService     = "service"
	CategoryGeneral     = "general"
)

const maxFeedbackKeywords = 10

// issueCategories is checked in order; the first category with a substring
// hit wins.
var issueCategories = []struct {
	name  string
	words []string
}{
	{CategoryTechnical, []string{"error", "bug", "broken", "not working", "crash", "loading"}},
	{CategoryUsability, []string{"confusing", "unclear", "difficult", "hard to use", "complicated"}},
	{CategoryPerformance, []string{"slow", "timeout", "delay", "waiting", "loading"}},
	{CategoryContent, []string{"wrong", "incorrect", "outdated", "missing", "inaccurate"}},
	{CategoryService, []string{"rude", "unhelpful", "impatient", "unprofessional"}},
}

var urgentFeedback = []string{
	"urgent", "emergency", "immediately", "asap", "critical",
	"terrible", "awful", "horrible", "worst", "angry",
	"refund", "cancel", "complaint", "lawyer", "legal",
}

// Quick-feedback chips that always ask for follow-up.
var actionCategories = []string{"confusing", "slow"}

var commonWords = map[string]struct{}{
	"the": {}, "and": {}, "but": {}, "for": {}, "with": {}, "was": {}, "are": {}, "were": {},
	"een": {}, "het": {}, "van": {}, "dat": {}, "niet": {}, "met": {}, "voor": {},
}

var ratingMessages = map[int]string{
	5: "Thank you for the excellent rating! We're thrilled we could help! 🌟",
	4: "Thanks for the great feedback! We're glad we could assist you! 😊",
	3: "Thank you for your feedback! We'll keep working to improve! 👍",
	2: "Thanks for your honest feedback. We'll work harder to improve your experience! 💪",
	1: "We're sorry we didn't meet your expectations. Your feedback is valuable and we'll do better! 🙏",
}

// Sentiment maps a 1..5 rating to positive (4 and up), negative (2 and
// below) or neutral.
func Sentiment(rating int) string {
	switch {
	case rating >= 4:
		return domain.SentimentPositive
	case rating <= 2:
		return domain.SentimentNegative
	default:
		return domain.SentimentNeutral
	}
}

// AnalyzeRating derives the analysis stored with a satisfaction rating.
// ActionRequired is set for negative ratings, urgent feedback wording and the
// "confusing" or "slow" quick-feedback categories.
func AnalyzeRating(rating int, feedback string, categories []string) domain.RatingAnalysis {
	a := domain.RatingAnalysis{
		Sentiment: Sentiment(rating),
		Category:  CategoryGeneral,
		Priority:  PriorityNormal,
		Keywords:  []string{},
	}
	if a.Sentiment == domain.SentimentNegative {
		a.Priority = PriorityHigh
		a.ActionRequired = true
	}

	if strings.TrimSpace(feedback) != "" {
		a.Keywords = FeedbackKeywords(feedback)
		a.Category = CategorizeFeedback(feedback)
		if HasUrgentWording(feedback) {
			a.Priority = PriorityUrgent
			a.ActionRequired = true
		}
	}

	for _, c := range categories {
		if slices.Contains(actionCategories, strings.ToLower(c)) {
			a.ActionRequired = true
			break
		}
	}
	return a
}

// FeedbackKeywords returns up to ten distinct words longer than two letters,
// in order of appearance, skipping filler words.
func FeedbackKeywords(text string) []string {
	out := []string{}
	seen := map[string]struct{}{}
	for _, w := range keywords.Tokens(text) {
		if len([]rune(w)) <= 2 {
			continue
		}
		if _, skip := commonWords[w]; skip {
			continue
		}
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, w)
		if len(out) == maxFeedbackKeywords {
			break
		}
	}
	return out
}

// CategorizeFeedback returns the first issue category whose wording occurs in
// text, or CategoryGeneral.
func CategorizeFeedback(text string) string {
	lower := strings.ToLower(text)
	for _, c := range issueCategories {
		for _, w := range c.words {
			if strings.Contains(lower, w) {
				return c.name
			}
		}
	}
	return CategoryGeneral
}

// HasUrgentWording reports whether text contains escalation wording.
func HasUrgentWording(text string) bool {
	lower := strings.ToLower(text)
	for _, w := range urgentFeedback {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}

// RatingMessage is the thank-you text returned to the widget for rating.
func RatingMessage(rating int) string {
	if m, ok := ratingMessages[rating]; ok {
		return m
	}
	return "Thank you for your feedback!"
}

// SanitizeUserAgent caps a user agent at 200 characters.
func SanitizeUserAgent(ua string) string {
	r := []rune(ua)
	if len(r) <= 200 {
		return ua
	}
	return string(r[:200]) + "..."
}

var sensitiveParams = []string{"token", "api_key", "password", "auth"}

// SanitizeURL removes credential-like query parameters. Unparseable or
// relative URLs yield "".
func SanitizeURL(raw string) string {
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ""
	}
	q := u.Query()
	for _, p := range sensitiveParams {
		q.Del(p)
	}
	u.RawQuery = q.Encode()
	return u.String()
}
