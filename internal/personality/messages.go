package personality

import (
	"fmt"

	"github.com/chatguus/chatguus-backend/internal/domain"
	"github.com/chatguus/chatguus-backend/internal/intent"
	"github.com/chatguus/chatguus-backend/internal/tenant"
)

// generalEmail is the human contact address of t.
func generalEmail(t *domain.Tenant) string {
	if e := t.Routing.Data()["general"]; e != "" {
		return e
	}
	return "welcome@cupolaxs.nl"
}

func routeEmail(t *domain.Tenant, dept string) string {
	if e := t.Routing.Data()[dept]; e != "" {
		return e
	}
	return generalEmail(t)
}

func dutch(t *domain.Tenant) bool { return tenant.IsDutch(t.Personality.Data().Language) }

// WelcomeMessages returns the greeting variants for t.
func WelcomeMessages(t *domain.Tenant) []string {
	bot := t.Personality.Data().Name
	company := t.Branding.Data().CompanyName
	if dutch(t) {
		return []string{
			fmt.Sprintf("Hallo! Ik ben %s van %s. Waar kan ik je mee helpen? 👋", bot, company),
			fmt.Sprintf("Welkom bij %s! Ik sta klaar om je te helpen. Wat zou je willen weten? 😊", company),
			fmt.Sprintf("Hoi! Fijn dat je er bent. Ik help je graag met al je vragen over %s! 🏢", company),
		}
	}
	return []string{
		fmt.Sprintf("Hello! I'm %s from %s. How can I help you today? 👋", bot, company),
		fmt.Sprintf("Welcome to %s! I'm here to assist you. What would you like to know? 😊", company),
		fmt.Sprintf("Hi there! Great to see you. I'm happy to help with any questions about %s! 🏢", company),
	}
}

// FallbackMessages returns the failure replies for t. Every variant carries
// the general contact address.
func FallbackMessages(t *domain.Tenant) []string {
	email := generalEmail(t)
	if dutch(t) {
		return []string{
			"Sorry, ik had even een technisch probleempje! Kun je je vraag opnieuw stellen? Of neem direct contact op via " + email,
			"Oeps, er ging iets mis aan mijn kant. Probeer het nog eens, of mail ons direct voor snelle hulp via " + email,
			"Excuses voor de storing! Waar kan ik je mee helpen? Anders kun je altijd terecht bij " + email,
		}
	}
	return []string{
		"Sorry, I had a technical hiccup! Could you please rephrase your question? Or contact us directly at " + email,
		"Oops, something went wrong on my side. Please try again, or email us for immediate assistance at " + email,
		"Apologies for the issue! How can I help you? You can always reach us at " + email,
	}
}

// ConversationStarters are the suggested opening questions of the widget.
func ConversationStarters(lang string) []string {
	if tenant.IsDutch(lang) {
		return []string{
			"Waar kan ik je mee helpen?",
			"Heb je vragen over onze faciliteiten?",
			"Wil je een evenement organiseren?",
			"Kan ik je ergens mee van dienst zijn?",
		}
	}
	return []string{
		"How can I help you?",
		"Do you have questions about our facilities?",
		"Would you like to organize an event?",
		"Is there anything I can do for you?",
	}
}

var quickReplies = map[string]map[intent.Type][]string{
	"nl": {
		intent.ServiceRequest: {"IT probleem", "Schoonmaak verzoek", "Algemene vraag", "Bestaand evenement"},
		intent.EventInquiry:   {"Bedrijfsborrel", "Vergadering", "Workshop", "Netwerkbijeenkomst", "Anders"},
		intent.FAQ:            {"Openingstijden", "Locatie & bereikbaarheid", "Faciliteiten", "Prijzen", "Contact"},
		intent.General:        {"Serviceverzoek", "Evenement plannen", "Informatie", "Contact opnemen"},
	},
	"en": {
		intent.ServiceRequest: {"IT problem", "Cleaning request", "General question", "Existing event"},
		intent.EventInquiry:   {"Company drinks", "Meeting", "Workshop", "Networking event", "Other"},
		intent.FAQ:            {"Opening hours", "Location & directions", "Facilities", "Pricing", "Contact"},
		intent.General:        {"Service request", "Plan an event", "Information", "Get in touch"},
	},
}

// QuickReplies returns the suggested follow-ups for an intent type. Types
// without their own set use the general set.
func QuickReplies(typ intent.Type, lang string) []string {
	set := quickReplies["en"]
	if tenant.IsDutch(lang) {
		set = quickReplies["nl"]
	}
	if r, ok := set[typ]; ok {
		return append([]string(nil), r...)
	}
	return append([]string(nil), set[intent.General]...)
}

var servicePrompts = map[string]string{
	intent.CategoryIT: "Ik zie dat je een IT-gerelateerde vraag hebt. Ik help je graag! Kun je me vertellen wat voor " +
		"technisch probleem je hebt? Denk aan details zoals welke apparaten, software of systemen het betreft.",
	intent.CategoryCleaning: "Ik help je graag met je schoonmaakvraag! Kun je me vertellen wat er geregeld moet worden? " +
		"Gaat het om dagelijkse schoonmaak, een eenmalige klus, of iets speciaals?",
	intent.CategoryGeneral: "Ik help je graag met je serviceverzoek! Om je goed te kunnen helpen, heb ik wat meer " +
		"informatie nodig. Kun je me vertellen:\n\n• Wat is de aard van je verzoek?\n• Wanneer moet dit uitgevoerd " +
		"worden?\n• Zijn er specifieke vereisten?\n\nMet deze informatie kan ik je verzoek direct naar het juiste team doorsturen!",
}

var servicePromptsEN = map[string]string{
	intent.CategoryIT: "It looks like you have an IT question. I'm happy to help! Could you tell me what technical " +
		"problem you are running into, and which devices, software or systems are involved?",
	intent.CategoryCleaning: "I'm happy to help with your cleaning request! What needs to be arranged: daily cleaning, " +
		"a one-off job or something special?",
	intent.CategoryGeneral: "I'm happy to help with your service request! Could you tell me:\n\n• What is the request " +
		"about?\n• When should it be done?\n• Are there specific requirements?\n\nWith that I can forward your request to the right team!",
}

// ServicePrompt returns the follow-up questions for a service category.
func ServicePrompt(category, lang string) string {
	set := servicePromptsEN
	if tenant.IsDutch(lang) {
		set = servicePrompts
	}
	if p, ok := set[category]; ok {
		return p
	}
	return set[intent.CategoryGeneral]
}

// EventChecklist returns the questions asked for a new event.
func EventChecklist(company, lang string) string {
	if tenant.IsDutch(lang) {
		return fmt.Sprintf("Wat leuk dat je een evenement wilt organiseren bij %s! 🎉\n\n"+
			"Om je de beste service te kunnen bieden, wil ik graag wat meer weten over je plannen:\n\n"+
			"🎯 **Type evenement:** Wat voor soort evenement ga je organiseren?\n"+
			"🏢 **Waarom %s:** Wat spreekt je aan in onze locatie?\n"+
			"👥 **Aantal gasten:** Hoeveel personen verwacht je ongeveer?\n"+
			"💰 **Budget:** Heb je een budget indicatie?\n"+
			"📅 **Timing:** Wanneer wil je het evenement houden?\n\n"+
			"Vertel me meer over je plannen, dan kan ik je direct in contact brengen met ons events team!", company, company)
	}
	return fmt.Sprintf("Great that you want to organize an event at %s! 🎉\n\n"+
		"To help you best, I'd like to know a bit more:\n\n"+
		"🎯 **Type of event:** What kind of event are you planning?\n"+
		"👥 **Guests:** How many people do you expect?\n"+
		"💰 **Budget:** Do you have a budget indication?\n"+
		"📅 **Timing:** When would you like to hold it?\n\n"+
		"Tell me more and I'll put you in touch with our events team!", company)
}
