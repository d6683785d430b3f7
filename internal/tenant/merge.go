package tenant

import (
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"

	"github.com/chatguus/chatguus-backend/internal/domain"
)

// Patch is a partial tenant update. Nil fields are left untouched; the
// nested documents are merged key by key so a patch of one branding color
// keeps the rest of the branding.
type Patch struct {
	Name        *string           `json:"name,omitempty"`
	Domain      *string           `json:"domain,omitempty"`
	Active      *bool             `json:"active,omitempty"`
	Branding    map[string]any    `json:"branding,omitempty"`
	Personality map[string]any    `json:"personality,omitempty"`
	Routing     map[string]string `json:"routing,omitempty"`
	Features    map[string]bool   `json:"features,omitempty"`
}

// Apply merges p into t in place. The id is immutable.
func Apply(t *domain.Tenant, p Patch) error {
	if p.Name != nil {
		t.Name = *p.Name
	}
	if p.Domain != nil {
		t.Domain = CleanDomain(*p.Domain)
	}
	if p.Active != nil {
		t.Active = *p.Active
	}
	if len(p.Branding) > 0 {
		b := t.Branding.Data()
		if err := mergeJSON(&b, p.Branding); err != nil {
			return fmt.Errorf("branding: %w", err)
		}
		t.Branding = datatypes.NewJSONType(b)
	}
	if len(p.Personality) > 0 {
		pers := t.Personality.Data()
		if err := mergeJSON(&pers, p.Personality); err != nil {
			return fmt.Errorf("personality: %w", err)
		}
		pers.Language = NormalizeLanguage(pers.Language)
		t.Personality = datatypes.NewJSONType(pers)
	}
	if len(p.Routing) > 0 {
		r := copyMap(t.Routing.Data())
		for k, v := range p.Routing {
			r[k] = v
		}
		t.Routing = datatypes.NewJSONType(r)
	}
	if len(p.Features) > 0 {
		f := copyMap(t.Features.Data())
		for k, v := range p.Features {
			f[k] = v
		}
		t.Features = datatypes.NewJSONType(f)
	}
	return nil
}

// mergeJSON overlays the keys of patch onto dst through its JSON form.
func mergeJSON(dst any, patch map[string]any) error {
	cur, err := json.Marshal(dst)
	if err != nil {
		return err
	}
	m := map[string]any{}
	if err := json.Unmarshal(cur, &m); err != nil {
		return err
	}
	for k, v := range patch {
		m[k] = v
	}
	merged, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return json.Unmarshal(merged, dst)
}

func copyMap[V any](in map[string]V) map[string]V {
	out := make(map[string]V, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
