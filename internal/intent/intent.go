// Package intent classifies a chat message into exactly one intent using the
// shared keyword table. Classification is pure and deterministic: the same
// message always yields the same Intent, and no network calls are made.
package intent

import (
	"regexp"

	"github.com/chatguus/chatguus-backend/internal/keywords"
)

// Type is the closed set of intent kinds.
type Type string

const (
	ServiceRequest       Type = "service_request"
	EventInquiry         Type = "event_inquiry"
	EventModification    Type = "event_modification"
	EventInfo            Type = "event_info"
	FAQ                  Type = "faq"
	Complaint            Type = "complaint"
	Compliment           Type = "compliment"
	PricingInquiry       Type = "pricing_inquiry"
	AccessibilityInquiry Type = "accessibility_inquiry"
	General              Type = "general"
)

// Types lists every intent kind in classification order.
var Types = []Type{
	Complaint, Compliment, PricingInquiry, AccessibilityInquiry, EventModification,
	ServiceRequest, EventInquiry, EventInfo, FAQ, General,
}

// Priority is derived from type, urgency and keyword signals.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Service request categories.
const (
	CategoryIT       = "it"
	CategoryCleaning = "cleaning"
	CategoryGeneral  = "general"
	CategoryEvents   = "events"
)

// Intent is the classification of a single message.
//
// Fields:
//   - Type: the single assigned kind.
//   - Confidence: heuristic match strength in [0,1].
//   - Category: routing subcategory (it, cleaning, general, events or a FAQ topic).
//   - Urgent: set by urgency keywords regardless of Type.
//   - Priority: low, medium or high.
//   - RequiresForm: whether the client should render a follow-up form.
//   - HasCompleteInfo: whether the message carries enough detail to route by email now.
//   - Keywords: the keywords that decided the classification.
type Intent struct {
	Type            Type     `json:"type"`
	Confidence      float64  `json:"confidence"`
	Category        string   `json:"category,omitempty"`
	Urgent          bool     `json:"urgent"`
	Priority        Priority `json:"priority"`
	RequiresForm    bool     `json:"requiresForm"`
	HasCompleteInfo bool     `json:"hasCompleteInfo"`
	Keywords        []string `json:"keywords,omitempty"`
}

// Completeness thresholds for HasCompleteInfo.
const (
	minDetailSignals = 2
	minDetailWords   = 8
)

var (
	numberRE  = regexp.MustCompile(`\d`)
	contactRE = regexp.MustCompile(`[\w.+-]+@[\w-]+\.[\w.]+|\+?\d[\d\s-]{7,}\d`)
)

// Classify maps message to an Intent. The first matching rule wins; urgency
// is evaluated independently and carried into whichever rule matches.
func Classify(message string) Intent {
	txt := keywords.Parse(message)
	urgentWords := txt.Matched(keywords.Urgency)
	urgent := len(urgentWords) > 0

	in := classify(txt, message, urgent)
	in.Urgent = urgent
	in.Keywords = append(in.Keywords, urgentWords...)

	switch in.Type {
	case ServiceRequest, EventInquiry, EventModification:
		in.HasCompleteInfo = txt.WordCount() >= minDetailWords && detailSignals(txt, message) >= minDetailSignals
	}
	return in
}

func classify(txt keywords.Text, raw string, urgent bool) Intent {
	escalated := PriorityMedium
	if urgent {
		escalated = PriorityHigh
	}

	if m := txt.Matched(keywords.Complaint); len(m) > 0 {
		return Intent{Type: Complaint, Confidence: 0.9, RequiresForm: true, Priority: escalated, Keywords: m}
	}
	if m := txt.Matched(keywords.Compliment); len(m) > 0 {
		return Intent{Type: Compliment, Confidence: 0.8, Priority: PriorityLow, Keywords: m}
	}
	if m := txt.Matched(keywords.Pricing); len(m) > 0 {
		return Intent{Type: PricingInquiry, Confidence: 0.8, Priority: PriorityMedium, Keywords: m}
	}
	if m := txt.Matched(keywords.Accessibility); len(m) > 0 {
		return Intent{Type: AccessibilityInquiry, Confidence: 0.9, Priority: PriorityHigh, Keywords: m}
	}

	eventWords := append(txt.Matched(keywords.Event), txt.Matched(keywords.Booking)...)
	if m := txt.Matched(keywords.Modification); len(m) > 0 && len(eventWords) > 0 {
		return Intent{
			Type: EventModification, Confidence: 0.9, Category: CategoryEvents,
			RequiresForm: true, Priority: escalated, Keywords: append(m, eventWords...),
		}
	}

	problem := txt.Matched(keywords.Problem)
	help := txt.Matched(keywords.HelpAction)
	if len(problem) > 0 && len(help) > 0 {
		return Intent{
			Type: ServiceRequest, Confidence: 0.8, Category: ServiceCategory(raw),
			RequiresForm: true, Priority: escalated, Keywords: append(problem, help...),
		}
	}
	if m := txt.Matched(keywords.Device); len(m) > 0 {
		return Intent{
			Type: ServiceRequest, Confidence: 0.7, Category: CategoryIT,
			Priority: escalated, Keywords: m,
		}
	}

	if len(eventWords) > 0 {
		if m := txt.Matched(keywords.Organize); len(m) > 0 {
			return Intent{
				Type: EventInquiry, Confidence: 0.9, Category: CategoryEvents,
				RequiresForm: true, Priority: escalated, Keywords: append(eventWords, m...),
			}
		}
		if m := txt.Matched(keywords.EventInfo); len(m) > 0 {
			return Intent{
				Type: EventInfo, Confidence: 0.8, Category: CategoryEvents,
				Priority: PriorityLow, Keywords: append(eventWords, m...),
			}
		}
	}

	if m := txt.Matched(keywords.FAQ); len(m) > 0 {
		return Intent{Type: FAQ, Confidence: 0.8, Category: m[0], Priority: PriorityLow, Keywords: m}
	}
	if m := txt.Matched(keywords.Greeting); len(m) > 0 {
		return Intent{Type: General, Confidence: 0.8, Priority: PriorityLow, Keywords: m}
	}
	return Intent{Type: General, Confidence: 0.5, Priority: PriorityLow}
}

// ServiceCategory picks it, cleaning or general from the shared table.
func ServiceCategory(message string) string {
	txt := keywords.Parse(message)
	switch {
	case txt.Any(keywords.IT):
		return CategoryIT
	case txt.Any(keywords.Cleaning):
		return CategoryCleaning
	default:
		return CategoryGeneral
	}
}

func detailSignals(txt keywords.Text, raw string) int {
	n := 0
	if numberRE.MatchString(raw) {
		n++
	}
	if txt.Any(keywords.DetailTime) {
		n++
	}
	if txt.Any(keywords.DetailPlace) {
		n++
	}
	if contactRE.MatchString(raw) {
		n++
	}
	return n
}
