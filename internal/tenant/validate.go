package tenant

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"gorm.io/datatypes"

	"github.com/chatguus/chatguus-backend/internal/domain"
)

// Config is the management API representation of a tenant.
type Config struct {
	ID          string              `json:"id"          validate:"required"`
	Name        string              `json:"name"        validate:"required"`
	Domain      string              `json:"domain"      validate:"required"`
	Active      *bool               `json:"active,omitempty"`
	Branding    *domain.Branding    `json:"branding"    validate:"required"`
	Personality *domain.Personality `json:"personality" validate:"required"`
	Routing     map[string]string   `json:"routing"     validate:"required"`
	Features    map[string]bool     `json:"features,omitempty"`
}

// ValidationError lists every problem found in a Config.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string { return strings.Join(e.Problems, "; ") }

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks c and returns a *ValidationError describing every problem,
// or nil. Missing top-level and branding fields are reported as grouped
// lists; format problems follow one per line.
func Validate(c Config) error {
	var missing, missingBranding, problems []string

	if err := validate.Struct(c); err != nil {
		verrs, ok := err.(validator.ValidationErrors)
		if !ok {
			return &ValidationError{Problems: []string{err.Error()}}
		}
		for _, fe := range verrs {
			path := fieldPath(fe.Namespace())
			switch {
			case fe.Tag() == "required" && !strings.Contains(path, "."):
				missing = append(missing, path)
			case fe.Tag() == "required" && strings.HasPrefix(path, "branding."):
				missingBranding = append(missingBranding, strings.TrimPrefix(path, "branding."))
			case fe.Tag() == "required":
				problems = append(problems, path+" is required")
			case fe.Tag() == "hexcolor":
				problems = append(problems, path+" must be a hex color")
			default:
				problems = append(problems, fmt.Sprintf("%s is invalid (%s)", path, fe.Tag()))
			}
		}
	}

	if c.ID != "" && !IsSlug(c.ID) {
		problems = append(problems, "id must be a lowercase slug (a-z, 0-9, dashes)")
	}
	if c.Routing != nil {
		if err := validate.Var(c.Routing["general"], "required,email"); err != nil {
			problems = append(problems, "routing.general must be a valid email address")
		}
		for dept, addr := range c.Routing {
			if dept == "general" || addr == "" {
				continue
			}
			if err := validate.Var(addr, "email"); err != nil {
				problems = append(problems, fmt.Sprintf("routing.%s must be a valid email address", dept))
			}
		}
	}

	var out []string
	if len(missing) > 0 {
		out = append(out, "Missing required fields: "+strings.Join(missing, ", "))
	}
	if len(missingBranding) > 0 {
		out = append(out, "Missing required branding fields: "+strings.Join(missingBranding, ", "))
	}
	out = append(out, problems...)
	if len(out) == 0 {
		return nil
	}
	return &ValidationError{Problems: out}
}

// fieldPath drops the root struct name from a validator namespace.
func fieldPath(ns string) string {
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

// ToModel converts a validated Config into a storable tenant. Active defaults
// to true and the personality language is normalized.
func ToModel(c Config) domain.Tenant {
	active := true
	if c.Active != nil {
		active = *c.Active
	}
	p := *c.Personality
	p.Language = NormalizeLanguage(p.Language)
	features := c.Features
	if features == nil {
		features = map[string]bool{}
	}
	return domain.Tenant{
		ID:          c.ID,
		Name:        strings.TrimSpace(c.Name),
		Domain:      CleanDomain(c.Domain),
		Active:      active,
		Branding:    datatypes.NewJSONType(*c.Branding),
		Personality: datatypes.NewJSONType(p),
		Routing:     datatypes.NewJSONType(c.Routing),
		Features:    datatypes.NewJSONType(features),
	}
}

// FromModel is the inverse of ToModel.
func FromModel(t *domain.Tenant) Config {
	b := t.Branding.Data()
	p := t.Personality.Data()
	active := t.Active
	return Config{
		ID:          t.ID,
		Name:        t.Name,
		Domain:      t.Domain,
		Active:      &active,
		Branding:    &b,
		Personality: &p,
		Routing:     t.Routing.Data(),
		Features:    t.Features.Data(),
	}
}
