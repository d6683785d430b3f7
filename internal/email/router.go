// Package email routes qualifying chat requests to a department mailbox.
//
// The destination is chosen from the raw message text with the shared keyword
// table, independently of the classifier's category. Delivery goes through a
// Sender: SMTP when configured, otherwise the rendered mail is logged and a
// synthetic message id returned, so a missing mail setup never blocks a chat.
package email

import (
	"context"
	"embed"
	"html/template"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/chatguus/chatguus-backend/internal/config"
	"github.com/chatguus/chatguus-backend/internal/domain"
	"github.com/chatguus/chatguus-backend/internal/intent"
	"github.com/chatguus/chatguus-backend/internal/keywords"
	"github.com/chatguus/chatguus-backend/internal/observability"
)

// Department display names.
const (
	DeptIT            = "IT Support"
	DeptCleaning      = "Schoonmaak Team"
	DeptExistingEvent = "Events Coordinatie"
	DeptGeneral       = "Algemeen Team"
	DeptEvents        = "Events Team"
)

// Subject lines.
const (
	serviceSubjectPrefix = "🤖 Nieuwe servicevraag via ChatGuusPT - "
	eventSubject         = "🎉 Nieuwe event uitvraag via ChatGuusPT"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// Request is the context of the message being routed.
type Request struct {
	Message   string
	SessionID string
	UserAgent string
	URL       string
	Timestamp time.Time
}

// Result describes a completed dispatch.
type Result struct {
	TargetEmail string `json:"targetEmail"`
	Department  string `json:"department"`
	MessageID   string `json:"messageId"`
	Mode        string `json:"mode"`
	EmailSent   bool   `json:"emailSent"`
}

// Router resolves departments and hands rendered mail to a Sender.
type Router struct {
	Defaults config.EmailConfig
	Sender   Sender
}

// NewRouter picks SMTP delivery when credentials are configured and log-only
// delivery otherwise.
func NewRouter(cfg config.EmailConfig) *Router {
	var s Sender = NewLogSender()
	if cfg.SMTPConfigured() {
		s = NewSMTPSender(cfg)
	} else {
		log.Warn().Msg("SMTP not configured, emails will be logged only")
	}
	return &Router{Defaults: cfg, Sender: s}
}

// Address returns the mailbox of dept ("general", "it", "cleaning", "events")
// for t. A department missing from the tenant routing table goes to the
// tenant's general mailbox; the configured defaults apply only when the tenant
// has no general mailbox either.
func (r *Router) Address(t *domain.Tenant, dept string) string {
	if t != nil {
		routing := t.Routing.Data()
		if a := strings.TrimSpace(routing[dept]); a != "" {
			return a
		}
		if a := strings.TrimSpace(routing[intent.CategoryGeneral]); a != "" {
			return a
		}
	}
	var def string
	switch dept {
	case intent.CategoryIT:
		def = r.Defaults.IT
	case intent.CategoryCleaning:
		def = r.Defaults.Cleaning
	case intent.CategoryEvents:
		def = r.Defaults.Events
	}
	if def != "" {
		return def
	}
	return r.Defaults.General
}

// Resolve scans message for department keywords and returns the target
// address, display name and routing key.
func (r *Router) Resolve(t *domain.Tenant, message string) (addr, department, key string) {
	txt := keywords.Parse(message)
	switch {
	case txt.Any(keywords.IT):
		return r.Address(t, intent.CategoryIT), DeptIT, intent.CategoryIT
	case txt.Any(keywords.Cleaning):
		return r.Address(t, intent.CategoryCleaning), DeptCleaning, intent.CategoryCleaning
	case txt.Any(keywords.ExistingEvent):
		return r.Address(t, intent.CategoryGeneral), DeptExistingEvent, intent.CategoryGeneral
	default:
		return r.Address(t, intent.CategoryGeneral), DeptGeneral, intent.CategoryGeneral
	}
}

// RouteServiceRequest sends the service request mail to the resolved
// department.
func (r *Router) RouteServiceRequest(ctx context.Context, t *domain.Tenant, in intent.Intent, req Request) (Result, error) {
	addr, dept, key := r.Resolve(t, req.Message)
	if in.Type == intent.ServiceRequest && in.Category != "" && in.Category != key {
		log.Ctx(ctx).Warn().
			Str("classifier_category", in.Category).
			Str("router_department", key).
			Str("session", req.SessionID).
			Msg("email department differs from classifier category")
	}

	html, err := render("service_request.html", r.view(t, dept, req))
	if err != nil {
		return Result{}, err
	}
	return r.dispatch(ctx, Mail{To: addr, Subject: serviceSubjectPrefix + dept, HTML: html}, dept)
}

// RouteEventInquiry sends the event inquiry mail to the events mailbox.
func (r *Router) RouteEventInquiry(ctx context.Context, t *domain.Tenant, _ intent.Intent, req Request) (Result, error) {
	addr := r.Address(t, intent.CategoryEvents)
	v := r.view(t, DeptEvents, req)
	v.Contact = addr

	html, err := render("event_inquiry.html", v)
	if err != nil {
		return Result{}, err
	}
	return r.dispatch(ctx, Mail{To: addr, Subject: eventSubject, HTML: html}, DeptEvents)
}

func (r *Router) dispatch(ctx context.Context, m Mail, dept string) (Result, error) {
	ctx, span := otel.Tracer("email").Start(ctx, "Dispatch",
		trace.WithAttributes(
			attribute.String("email.department", dept),
			attribute.String("email.mode", r.Sender.Mode()),
		),
	)
	defer span.End()

	id, err := r.Sender.Send(ctx, m)
	if err != nil {
		span.RecordError(err)
		observability.EmailDispatchTotal.WithLabelValues(dept, "failed").Inc()
		return Result{TargetEmail: m.To, Department: dept, Mode: r.Sender.Mode()}, err
	}
	observability.EmailDispatchTotal.WithLabelValues(dept, r.Sender.Mode()).Inc()
	return Result{TargetEmail: m.To, Department: dept, MessageID: id, Mode: r.Sender.Mode(), EmailSent: true}, nil
}

type view struct {
	Department string
	Lines      []string
	SessionID  string
	Time       string
	URL        string
	UserAgent  string
	Contact    string
}

func (r *Router) view(t *domain.Tenant, dept string, req Request) view {
	ts := req.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	msg := strings.ReplaceAll(req.Message, "\r\n", "\n")
	return view{
		Department: dept,
		Lines:      strings.Split(msg, "\n"),
		SessionID:  req.SessionID,
		Time:       ts.In(amsterdam).Format("2-1-2006 15:04:05"),
		URL:        req.URL,
		UserAgent:  req.UserAgent,
		Contact:    r.Address(t, intent.CategoryGeneral),
	}
}

var amsterdam = func() *time.Location {
	loc, err := time.LoadLocation("Europe/Amsterdam")
	if err != nil {
		return time.UTC
	}
	return loc
}()

func render(name string, v view) (string, error) {
	var sb strings.Builder
	if err := templates.ExecuteTemplate(&sb, name, v); err != nil {
		return "", err
	}
	return sb.String(), nil
}
