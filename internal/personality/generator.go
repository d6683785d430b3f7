// Package personality turns a classified message into the bot's reply. It
// builds the tenant system prompt, adds an intent-specific hint, calls the
// language model and falls back to canned text whenever the call fails.
// Generate never returns an error: every failure path yields a reply that
// contains a human contact address.
package personality

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/chatguus/chatguus-backend/internal/cache"
	"github.com/chatguus/chatguus-backend/internal/domain"
	"github.com/chatguus/chatguus-backend/internal/intent"
	"github.com/chatguus/chatguus-backend/internal/llm"
	"github.com/chatguus/chatguus-backend/internal/observability"
)

// MaxHistory is the number of prior turns forwarded to the model.
const MaxHistory = 10

// Sampling settings for replies.
const (
	replyPresencePenalty  = 0.1
	replyFrequencyPenalty = 0.1
)

// Turn is one prior message of the conversation. Role is "user" or
// "assistant" ("ai" is accepted as an alias).
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Generator produces replies. LLM may be nil, in which case deterministic
// template replies are used.
type Generator struct {
	LLM       llm.Completer
	Knowledge Knowledge
	Cache     cache.Cache

	// pick selects an index in [0,n); defaults to math/rand.
	pick func(n int) int
}

// NewGenerator wires a generator. completer may be nil.
func NewGenerator(completer llm.Completer, kb Knowledge, c cache.Cache) *Generator {
	return &Generator{LLM: completer, Knowledge: kb, Cache: c}
}

// PromptCacheKey is the artifact cache key of a tenant's system prompt.
func PromptCacheKey(tenantID string) string { return "prompt:" + tenantID }

// SystemPrompt returns the cached system prompt of t, building it on a miss.
func (g *Generator) SystemPrompt(ctx context.Context, t *domain.Tenant) string {
	key := PromptCacheKey(t.ID)
	if g.Cache != nil {
		var p string
		if ok, err := g.Cache.Get(ctx, key, &p); ok && err == nil {
			return p
		}
	}
	p := BuildSystemPrompt(t)
	if g.Cache != nil {
		if err := g.Cache.Set(ctx, key, p); err != nil {
			log.Ctx(ctx).Debug().Err(err).Str("tenant", t.ID).Msg("prompt cache set failed")
		}
	}
	return p
}

// Generate returns the reply to message for t. history holds earlier turns,
// oldest first; only the last MaxHistory are sent.
func (g *Generator) Generate(ctx context.Context, t *domain.Tenant, in intent.Intent, message string, history []Turn) string {
	ctx, span := otel.Tracer("personality").Start(ctx, "Generate",
		trace.WithAttributes(
			attribute.String("tenant.id", t.ID),
			attribute.String("intent.type", string(in.Type)),
			attribute.Int("history.len", len(history)),
		),
	)
	defer span.End()

	if g.LLM == nil {
		observability.LLMRequestsTotal.WithLabelValues("disabled").Inc()
		return g.TemplateReply(t, in, message)
	}

	msgs := []llm.Message{{Role: llm.RoleSystem, Content: g.SystemPrompt(ctx, t)}}
	if hint := g.contextHint(t, in, message); hint != "" {
		msgs = append(msgs, llm.Message{Role: llm.RoleSystem, Content: hint})
	}
	if len(history) > MaxHistory {
		history = history[len(history)-MaxHistory:]
	}
	for _, h := range history {
		if strings.TrimSpace(h.Content) == "" {
			continue
		}
		role := llm.RoleUser
		if h.Role == "assistant" || h.Role == domain.SenderAI {
			role = llm.RoleAssistant
		}
		msgs = append(msgs, llm.Message{Role: role, Content: h.Content})
	}
	msgs = append(msgs, llm.Message{Role: llm.RoleUser, Content: message})

	out, err := g.LLM.Complete(ctx, llm.Request{
		Messages:         msgs,
		PresencePenalty:  replyPresencePenalty,
		FrequencyPenalty: replyFrequencyPenalty,
	})
	if err != nil || strings.TrimSpace(out) == "" {
		span.RecordError(err)
		log.Ctx(ctx).Warn().Err(err).Str("tenant", t.ID).Msg("reply generation failed, using fallback")
		return g.Fallback(t)
	}
	return out
}

// Fallback returns a random failure reply of t.
func (g *Generator) Fallback(t *domain.Tenant) string {
	msgs := FallbackMessages(t)
	pick := g.pick
	if pick == nil {
		pick = rand.IntN
	}
	return msgs[pick(len(msgs))]
}

// contextHint tells the model how to handle the classified intent, in the
// tenant's language.
func (g *Generator) contextHint(t *domain.Tenant, in intent.Intent, message string) string {
	lang := t.Personality.Data().Language
	bot := t.Personality.Data().Name
	hints := hintsEN
	if dutch(t) {
		hints = hintsNL
	}
	switch in.Type {
	case intent.ServiceRequest:
		return fmt.Sprintf(hints.service, bot) + ServicePrompt(in.Category, lang)
	case intent.EventInquiry:
		return fmt.Sprintf(hints.event, bot) + EventChecklist(t.Branding.Data().CompanyName, lang)
	case intent.FAQ, intent.PricingInquiry, intent.AccessibilityInquiry:
		if r, ok := g.Knowledge.Lookup(t.ID, message); ok {
			return fmt.Sprintf(hints.faq, bot) + r.Answer
		}
	}
	return ""
}

type hintSet struct{ service, event, faq string }

var (
	hintsNL = hintSet{
		service: "De gebruiker heeft een serviceverzoek. Reageer als %s in de geest van: ",
		event:   "De gebruiker vraagt naar evenementen. Reageer als %s in de geest van: ",
		faq:     "Beantwoord deze FAQ vraag als %s met deze informatie: ",
	}
	hintsEN = hintSet{
		service: "The user has a service request. Reply as %s along the lines of: ",
		event:   "The user is asking about events. Reply as %s along the lines of: ",
		faq:     "Answer this FAQ question as %s using this information: ",
	}
)

// TemplateReply is the deterministic reply used when no language model is
// configured. Every variant names a contact address.
func (g *Generator) TemplateReply(t *domain.Tenant, in intent.Intent, message string) string {
	p := t.Personality.Data()
	company := t.Branding.Data().CompanyName
	nl := dutch(t)
	email := generalEmail(t)

	switch in.Type {
	case intent.ServiceRequest:
		dept := in.Category
		if dept == "" {
			dept = intent.CategoryGeneral
		}
		if nl {
			return ServicePrompt(in.Category, p.Language) + "\n\nJe kunt ook direct mailen naar " + routeEmail(t, dept) + "."
		}
		return ServicePrompt(in.Category, p.Language) + "\n\nYou can also email " + routeEmail(t, dept) + " directly."
	case intent.EventInquiry, intent.EventModification, intent.EventInfo:
		events := routeEmail(t, "events")
		if in.Type == intent.EventInquiry {
			if nl {
				return EventChecklist(company, p.Language) + "\n\nJe kunt ook mailen naar " + events + "."
			}
			return EventChecklist(company, p.Language) + "\n\nYou can also email " + events + "."
		}
		if nl {
			return "Voor vragen over een bestaand evenement helpt ons events team je graag verder via " + events + "."
		}
		return "For questions about an existing event our events team is happy to help at " + events + "."
	case intent.FAQ, intent.PricingInquiry, intent.AccessibilityInquiry:
		if r, ok := g.Knowledge.Lookup(t.ID, message); ok {
			if strings.Contains(r.Answer, "@") {
				return r.Answer
			}
			if nl {
				return r.Answer + " Meer weten? Mail naar " + email + "."
			}
			return r.Answer + " Want to know more? Email " + email + "."
		}
		if nl {
			return "Goede vraag! Die kan ik nu niet met zekerheid beantwoorden. Neem contact op via " + email + ", dan helpen we je verder."
		}
		return "Good question! I can't answer that with certainty right now. Please contact " + email + " and we'll help you further."
	case intent.Complaint:
		if nl {
			return "Wat vervelend om te horen, dat spijt me echt. Ik zorg dat je klacht bij het juiste team terechtkomt. " +
				"Je kunt ook direct contact opnemen via " + email + "."
		}
		return "I'm sorry to hear that. I'll make sure your complaint reaches the right team. You can also contact us directly at " + email + "."
	case intent.Compliment:
		if nl {
			return "Dank je wel voor je compliment! Dat doet ons goed. Kan ik nog ergens mee helpen? Je bereikt ons altijd via " + email + "."
		}
		return "Thank you for the kind words! Is there anything else I can help with? You can always reach us at " + email + "."
	default:
		welcome := t.Branding.Data().WelcomeMessage
		if welcome == "" {
			welcome = WelcomeMessages(t)[0]
		}
		if nl {
			return welcome + " Je kunt ons ook bereiken via " + email + "."
		}
		return welcome + " You can also reach us at " + email + "."
	}
}
