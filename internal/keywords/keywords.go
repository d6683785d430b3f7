// Package keywords holds the single keyword table shared by the intent
// classifier, the email router and the widget bundle. Every layer that needs
// to decide "does this message talk about X" asks this package, so the three
// consumers can never disagree about the vocabulary.
//
// Matching rules:
//
//   - Text is lowercased and split into tokens of letters and digits.
//   - A single-word keyword matches a token equal to it. Keywords of four or
//     more letters also match a token that ends with them, so Dutch compounds
//     match their head noun ("bedrijfsborrel" matches "borrel").
//   - A multi-word keyword matches as a contiguous phrase of tokens.
//   - Urgency keywords never suffix-match, so "indirect" is not "direct".
//
// There is no stemming and no weighting.
package keywords

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

// Version identifies the revision of the table. It is exposed to the widget
// so client-side categorization can detect drift.
const Version = "2024.11.1"

// List names one keyword list.
type List string

const (
	Urgency       List = "urgency"
	Complaint     List = "complaint"
	Compliment    List = "compliment"
	Pricing       List = "pricing"
	Accessibility List = "accessibility"
	Modification  List = "modification"
	Booking       List = "booking"
	Problem       List = "problem"
	HelpAction    List = "help_action"
	IT            List = "it"
	Device        List = "device"
	Cleaning      List = "cleaning"
	ExistingEvent List = "existing_event"
	Event         List = "event"
	Organize      List = "organize"
	EventInfo     List = "event_info"
	FAQ           List = "faq"
	Greeting      List = "greeting"
	DetailTime    List = "detail_time"
	DetailPlace   List = "detail_place"
)

var table = map[List][]string{
	Urgency:    {"dringend", "spoed", "urgent", "asap", "direct", "zo snel mogelijk"},
	Complaint:  {"klacht", "ontevreden", "slecht", "problematisch", "irritant", "teleurgesteld"},
	Compliment: {"compliment", "tevreden", "goed", "uitstekend", "perfect", "geweldig"},
	Pricing: {
		"prijs", "prijzen", "kosten", "kost", "tarief", "tarieven", "budget", "offerte",
		"price", "pricing", "cost", "costs", "quote", "rates",
	},
	Accessibility: {
		"rolstoel", "toegankelijk", "toegankelijkheid", "mindervalide", "invalide", "lift",
		"slechthorend", "slechtziend", "wheelchair", "accessible", "accessibility", "mobility",
	},
	Modification: {
		"annuleren", "annulering", "verplaatsen", "verzetten", "wijzigen", "wijziging",
		"aanpassen", "aanpassing", "omboeken", "cancel", "reschedule", "postpone", "move",
	},
	Booking: {"boeking", "reservering", "geboekt", "gereserveerd", "booking", "reservation"},
	Problem: {
		"probleem", "storing", "kapot", "defect", "werkt niet", "doet het niet", "fout",
		"error", "stuk", "vuil", "smerig", "lekt", "verstopt", "broken", "not working", "issue",
	},
	HelpAction: {
		"help", "hulp", "helpen", "oplossen", "repareren", "maken", "nodig", "graag",
		"support", "fix", "assist",
	},
	IT: {
		"computer", "laptop", "internet", "wifi", "netwerk", "software", "systeem",
		"inloggen", "wachtwoord", "email", "printer", "beamer", "technisch", "ict",
		"helpdesk", "it afdeling", "it support", "it storing",
	},
	Device: {
		"computer", "laptop", "internet", "wifi", "netwerk", "software", "inloggen",
		"wachtwoord", "printer", "beamer", "helpdesk",
	},
	Cleaning: {
		"schoonmaak", "schoon", "vuil", "opruimen", "stofzuigen", "dweil", "ramen",
		"toilet", "afval", "vuilnis", "hygiëne", "cleaning",
	},
	ExistingEvent: {
		"bestaand evenement", "geplande bijeenkomst", "lopend event", "wijziging evenement",
		"annuleren", "verplaatsen", "aanpassing", "extra faciliteiten",
	},
	Event: {
		"event", "evenement", "borrel", "vergadering", "workshop", "bijeenkomst",
		"netwerkbijeenkomst", "feest", "presentatie", "lunch", "diner", "training",
		"congres", "seminar", "meeting", "party", "ruimte", "zaal",
	},
	Organize: {
		"organiseren", "plannen", "boeken", "reserveren", "houden", "huren",
		"organise", "organize", "plan", "book", "reserve", "host",
	},
	EventInfo: {"wanneer", "programma", "mijn", "agenda", "tijdstip", "schedule", "when", "my"},
	FAQ: {
		"openingstijden", "geopend", "open", "locatie", "adres", "bereikbaarheid",
		"parkeren", "parkeerplaats", "faciliteiten", "contact", "telefoonnummer",
		"opening hours", "location", "parking", "facilities",
	},
	Greeting: {
		"hallo", "hoi", "hey", "goedemorgen", "goedemiddag", "goedenavond", "dag",
		"bedankt", "dankjewel", "dank je", "dank u", "hello", "hi", "thanks", "thank you",
	},
	DetailTime: {
		"maandag", "dinsdag", "woensdag", "donderdag", "vrijdag", "zaterdag", "zondag",
		"morgen", "vandaag", "volgende week", "ochtend", "middag", "avond", "uur",
		"januari", "februari", "maart", "april", "mei", "juni", "juli", "augustus",
		"september", "oktober", "november", "december",
		"monday", "tuesday", "wednesday", "thursday", "friday", "tomorrow", "today",
	},
	DetailPlace: {
		"kamer", "zaal", "ruimte", "verdieping", "etage", "vleugel", "kantoor", "balie",
		"room", "floor", "office",
	},
}

// exactOnly lists are matched token-for-token, without the suffix rule.
var exactOnly = map[List]bool{Urgency: true}

var tokenRE = regexp.MustCompile(`[\p{L}\p{N}]+`)

// Tokens lowercases s and returns its letter/digit tokens in order.
func Tokens(s string) []string {
	return tokenRE.FindAllString(strings.ToLower(s), -1)
}

// Text is a tokenized message ready for repeated keyword lookups.
type Text struct {
	tokens []string
}

// Parse tokenizes s once so several lists can be checked cheaply.
func Parse(s string) Text { return Text{tokens: Tokens(s)} }

// WordCount returns the number of tokens in the text.
func (t Text) WordCount() int { return len(t.tokens) }

// Contains reports whether a single keyword or phrase occurs in the text.
func (t Text) Contains(keyword string) bool {
	return t.contains(keyword, true)
}

func (t Text) contains(keyword string, suffix bool) bool {
	kw := Tokens(keyword)
	switch len(kw) {
	case 0:
		return false
	case 1:
		for _, tok := range t.tokens {
			if tok == kw[0] || (suffix && suffixMatches(tok, kw[0])) {
				return true
			}
		}
		return false
	}
	for i := 0; i+len(kw) <= len(t.tokens); i++ {
		ok := true
		for j := range kw {
			if t.tokens[i+j] != kw[j] {
				ok = false
				break
			}
		}
		if ok {
			return true
		}
	}
	return false
}

// Any reports whether any keyword of list occurs in the text.
func (t Text) Any(list List) bool {
	suffix := !exactOnly[list]
	for _, kw := range table[list] {
		if t.contains(kw, suffix) {
			return true
		}
	}
	return false
}

// Matched returns the keywords of list that occur in the text, in table order.
func (t Text) Matched(list List) []string {
	var out []string
	suffix := !exactOnly[list]
	for _, kw := range table[list] {
		if t.contains(kw, suffix) {
			out = append(out, kw)
		}
	}
	return out
}

func suffixMatches(tok, kw string) bool {
	return utf8.RuneCountInString(kw) >= 4 && strings.HasSuffix(tok, kw)
}

// ExactOnly reports whether list is matched without the suffix rule.
func ExactOnly(list List) bool { return exactOnly[list] }

// Words returns a copy of the keywords in list.
func Words(list List) []string {
	return append([]string(nil), table[list]...)
}

// Lists returns all list names in sorted order.
func Lists() []List {
	out := make([]List, 0, len(table))
	for l := range table {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Snapshot returns a copy of the full table keyed by list name, for
// serialization into the widget bundle.
func Snapshot() map[string][]string {
	out := make(map[string][]string, len(table))
	for l, words := range table {
		out[string(l)] = append([]string(nil), words...)
	}
	return out
}
