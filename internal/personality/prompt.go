package personality

import (
	"fmt"
	"sort"
	"strings"

	"github.com/chatguus/chatguus-backend/internal/domain"
	"github.com/chatguus/chatguus-backend/internal/tenant"
)

// HonestyRule returns the instruction that forbids invented facts, in the
// tenant's language.
func HonestyRule(t *domain.Tenant) string {
	if dutch(t) {
		return fmt.Sprintf("Als je iets niet weet, zeg dan eerlijk dat je het niet weet en verzin nooit feiten. "+
			"Verwijs in dat geval naar %s.", generalEmail(t))
	}
	return fmt.Sprintf("If you don't know something, say honestly that you don't know and never invent facts. "+
		"In that case refer the user to %s.", generalEmail(t))
}

// BuildSystemPrompt composes the system prompt of t from its persona,
// enabled features, routing table and language. A custom prompt in the
// personality replaces the generated body; the honesty rule is always
// appended.
func BuildSystemPrompt(t *domain.Tenant) string {
	p := t.Personality.Data()
	if custom := strings.TrimSpace(p.SystemPrompt); custom != "" {
		return custom + "\n\n" + HonestyRule(t)
	}

	b := t.Branding.Data()
	routing := t.Routing.Data()
	traits := p.Traits
	if len(traits) == 0 {
		traits = []string{"behulpzame"}
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Je bent %s, een %s assistent van %s.\n\n", p.Name, strings.Join(traits, ", "), b.CompanyName)

	sb.WriteString("PERSOONLIJKHEID:\n")
	for _, tr := range traits {
		fmt.Fprintf(&sb, "- %s\n", tr)
	}

	sb.WriteString("\nCOMMUNICATIESTIJL:\n")
	fmt.Fprintf(&sb, "- Toon: %s\n", p.Tone)
	fmt.Fprintf(&sb, "- Taal: %s\n", p.Language)
	sb.WriteString("- Altijd behulpzaam en proactief\n")

	sb.WriteString("\nHOOFDTAKEN:")
	n := 0
	if tenant.Enabled(t, tenant.FeatureServiceRequests) {
		n++
		fmt.Fprintf(&sb, "\n\n%d. SERVICEVRAGEN AFHANDELEN:\n   - Verzamel volledige informatie\n   - Routeer naar juiste teams:", n)
		depts := make([]string, 0, len(routing))
		for d := range routing {
			depts = append(depts, d)
		}
		sort.Strings(depts)
		for _, d := range depts {
			fmt.Fprintf(&sb, "\n     * %s: %s", d, routing[d])
		}
	}
	if tenant.Enabled(t, tenant.FeatureEventInquiries) {
		n++
		fmt.Fprintf(&sb, "\n\n%d. EVENEMENTEN:\n   - Vraag door naar type, aantal personen, budget\n   - Stuur door naar: %s",
			n, routeEmail(t, "events"))
	}
	if tenant.Enabled(t, tenant.FeatureFAQ) {
		n++
		fmt.Fprintf(&sb, "\n\n%d. FAQ ONDERSTEUNING:\n   - Beantwoord vragen met bedrijfsinformatie\n   - Verwijs naar relevante contactpersonen", n)
	}

	sb.WriteString("\n\nEERLIJKHEID:\n- ")
	sb.WriteString(HonestyRule(t))

	lang := "Engels"
	if dutch(t) {
		lang = "Nederlands"
	}
	fmt.Fprintf(&sb, "\n\nReageer altijd in het %s en blijf in karakter als %s.", lang, p.Name)
	return sb.String()
}
