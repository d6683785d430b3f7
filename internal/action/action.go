// Package action decides which follow-up the widget should render for a
// classified message and whether the message is forwarded to a department
// mailbox. Email failures are logged and surface only as EmailSent=false.
package action

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/chatguus/chatguus-backend/internal/domain"
	"github.com/chatguus/chatguus-backend/internal/email"
	"github.com/chatguus/chatguus-backend/internal/intent"
	"github.com/chatguus/chatguus-backend/internal/personality"
	"github.com/chatguus/chatguus-backend/internal/tenant"
)

// Kind names the client-side form to render.
type Kind string

const (
	ServiceRequestForm    Kind = "service_request_form"
	EventInquiryForm      Kind = "event_inquiry_form"
	EventModificationForm Kind = "event_modification_form"
	FeedbackForm          Kind = "feedback_form"
	ContactForm           Kind = "contact_form"
)

// dispatchConfidence is the confidence above which a service request or
// event inquiry is mailed even without complete details.
const dispatchConfidence = 0.8

type rule struct {
	kind    Kind
	feature string
}

var rules = map[intent.Type]rule{
	intent.ServiceRequest:       {ServiceRequestForm, tenant.FeatureServiceRequests},
	intent.EventInquiry:         {EventInquiryForm, tenant.FeatureEventInquiries},
	intent.EventModification:    {EventModificationForm, tenant.FeatureEventInquiries},
	intent.Complaint:            {FeedbackForm, tenant.FeatureServiceRequests},
	intent.AccessibilityInquiry: {ContactForm, tenant.FeatureServiceRequests},
}

// Action is the structured follow-up returned with a chat reply.
type Action struct {
	Type         Kind            `json:"type"`
	Category     string          `json:"category,omitempty"`
	Priority     intent.Priority `json:"priority,omitempty"`
	Urgent       bool            `json:"urgent,omitempty"`
	QuickReplies []string        `json:"quickReplies,omitempty"`
	EmailSent    bool            `json:"emailSent"`
	Department   string          `json:"department,omitempty"`
}

// Dispatcher forwards a request to a department mailbox.
type Dispatcher interface {
	RouteServiceRequest(ctx context.Context, t *domain.Tenant, in intent.Intent, req email.Request) (email.Result, error)
	RouteEventInquiry(ctx context.Context, t *domain.Tenant, in intent.Intent, req email.Request) (email.Result, error)
}

// Outcome is the result of Route. Dispatch is set when an email was
// attempted, whether or not it was delivered.
type Outcome struct {
	Action   *Action
	Dispatch *email.Result
}

// Router maps intents to actions.
type Router struct {
	Email Dispatcher
}

// NewRouter returns a router dispatching through d. d may be nil, which
// disables email routing.
func NewRouter(d Dispatcher) *Router { return &Router{Email: d} }

// For returns the action kind of an intent type and the feature gating it.
func For(t intent.Type) (Kind, string, bool) {
	r, ok := rules[t]
	return r.kind, r.feature, ok
}

// ShouldDispatch reports whether in qualifies for immediate email routing.
func ShouldDispatch(in intent.Intent) bool {
	if in.HasCompleteInfo {
		return true
	}
	switch in.Type {
	case intent.ServiceRequest, intent.EventInquiry:
		return in.Confidence > dispatchConfidence
	}
	return false
}

// Route builds the action for in and, when it qualifies, forwards the
// request by email once. Intents without a form, or whose feature is off for
// t, produce an empty Outcome.
func (r *Router) Route(ctx context.Context, t *domain.Tenant, in intent.Intent, req email.Request) Outcome {
	ru, ok := rules[in.Type]
	if !ok || !tenant.Enabled(t, ru.feature) {
		return Outcome{}
	}

	a := &Action{
		Type:         ru.kind,
		Category:     in.Category,
		Priority:     in.Priority,
		Urgent:       in.Urgent,
		QuickReplies: personality.QuickReplies(in.Type, t.Personality.Data().Language),
	}
	out := Outcome{Action: a}

	if r.Email == nil || !ShouldDispatch(in) || !tenant.Enabled(t, tenant.FeatureEmailRouting) {
		return out
	}

	var (
		res email.Result
		err error
	)
	if in.Type == intent.EventInquiry {
		res, err = r.Email.RouteEventInquiry(ctx, t, in, req)
	} else {
		res, err = r.Email.RouteServiceRequest(ctx, t, in, req)
	}
	out.Dispatch = &res
	if err != nil {
		log.Ctx(ctx).Error().Err(err).
			Str("tenant", t.ID).
			Str("session", req.SessionID).
			Str("intent", string(in.Type)).
			Msg("email routing failed")
		return out
	}
	a.EmailSent = res.EmailSent
	a.Department = res.Department
	return out
}
