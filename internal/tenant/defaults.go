// Package tenant holds the tenant-level rules that do not need storage:
// the seeded default tenants, configuration validation, update merging,
// identifier normalization, API key generation and widget CSS rendering.
package tenant

import (
	"gorm.io/datatypes"

	"github.com/chatguus/chatguus-backend/internal/domain"
)

// DefaultID is the tenant every unresolved request falls back to. It can
// never be deleted.
const DefaultID = "koepel"

// Feature flag names.
const (
	FeatureServiceRequests = "serviceRequests"
	FeatureEventInquiries  = "eventInquiries"
	FeatureFAQ             = "faqSystem"
	FeatureEmailRouting    = "emailRouting"
	FeatureGoogleSheets    = "googleSheets"
)

// FeatureNames lists the known feature flags in display order.
var FeatureNames = []string{
	FeatureServiceRequests, FeatureEventInquiries, FeatureFAQ, FeatureEmailRouting, FeatureGoogleSheets,
}

// Enabled reports whether feature is on for t. A flag absent from the map
// counts as enabled.
func Enabled(t *domain.Tenant, feature string) bool {
	if t == nil {
		return false
	}
	on, ok := t.Features.Data()[feature]
	return !ok || on
}

// Defaults returns fresh copies of the tenants seeded at start.
func Defaults() []domain.Tenant {
	return []domain.Tenant{
		{
			ID:     DefaultID,
			Name:   "De Koepel",
			Domain: "cupolaxs.nl",
			Active: true,
			Branding: datatypes.NewJSONType(domain.Branding{
				PrimaryColor:   "#2563eb",
				SecondaryColor: "#64748b",
				Logo:           "/assets/koepel-logo.png",
				Avatar:         "🤖",
				CompanyName:    "De Koepel",
				BotName:        "Guus",
				WelcomeMessage: "Hallo! Ik ben Guus van de Koepel. Waar kan ik je mee helpen?",
			}),
			Personality: datatypes.NewJSONType(domain.Personality{
				Name:     "Guus",
				Traits:   []string{"vriendelijk", "gastvrij", "behulpzaam", "professioneel"},
				Tone:     "informeel maar respectvol",
				Language: "nl",
			}),
			Routing: datatypes.NewJSONType(map[string]string{
				"general":  "welcome@cupolaxs.nl",
				"it":       "support@axs-ict.com",
				"cleaning": "ralphcassa@gmail.com",
				"events":   "irene@cupolaxs.nl",
			}),
			Features: datatypes.NewJSONType(map[string]bool{
				FeatureServiceRequests: true,
				FeatureEventInquiries:  true,
				FeatureFAQ:             true,
				FeatureEmailRouting:    true,
				FeatureGoogleSheets:    true,
			}),
		},
		{
			ID:     "demo-company",
			Name:   "Demo Company",
			Domain: "demo.example.com",
			Active: true,
			Branding: datatypes.NewJSONType(domain.Branding{
				PrimaryColor:   "#059669",
				SecondaryColor: "#6b7280",
				Logo:           "/assets/demo-logo.png",
				Avatar:         "🏢",
				CompanyName:    "Demo Company",
				BotName:        "Assistant",
				WelcomeMessage: "Hello! I'm your virtual assistant. How can I help you today?",
			}),
			Personality: datatypes.NewJSONType(domain.Personality{
				Name:     "Assistant",
				Traits:   []string{"professional", "efficient", "helpful"},
				Tone:     "formal but friendly",
				Language: "en",
			}),
			Routing: datatypes.NewJSONType(map[string]string{
				"general": "info@demo.example.com",
				"it":      "tech@demo.example.com",
				"sales":   "sales@demo.example.com",
				"support": "support@demo.example.com",
			}),
			Features: datatypes.NewJSONType(map[string]bool{
				FeatureServiceRequests: true,
				FeatureEventInquiries:  false,
				FeatureFAQ:             true,
				FeatureEmailRouting:    true,
				FeatureGoogleSheets:    false,
			}),
		},
	}
}

// Default returns a fresh copy of the default tenant.
func Default() domain.Tenant {
	return Defaults()[0]
}
