package tenant

import (
	"time"

	"github.com/chatguus/chatguus-backend/internal/domain"
)

// Summary is the list view of a tenant.
type Summary struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Domain    string          `json:"domain"`
	Active    bool            `json:"active"`
	Features  map[string]bool `json:"features"`
	CreatedAt time.Time       `json:"createdAt"`
}

// Stats aggregates a tenant list.
type Stats struct {
	Total      int            `json:"total"`
	Active     int            `json:"active"`
	ByLanguage map[string]int `json:"byLanguage"`
	Features   map[string]int `json:"features"`
}

// Summarize builds the list view and the aggregate counts in one pass.
func Summarize(ts []domain.Tenant) ([]Summary, Stats) {
	st := Stats{
		Total:      len(ts),
		ByLanguage: map[string]int{},
		Features:   map[string]int{},
	}
	for _, name := range FeatureNames {
		st.Features[name] = 0
	}
	out := make([]Summary, 0, len(ts))
	for i := range ts {
		t := &ts[i]
		if t.Active {
			st.Active++
		}
		st.ByLanguage[t.Personality.Data().Language]++
		for name, on := range t.Features.Data() {
			if on {
				st.Features[name]++
			}
		}
		out = append(out, Summary{
			ID:        t.ID,
			Name:      t.Name,
			Domain:    t.Domain,
			Active:    t.Active,
			Features:  t.Features.Data(),
			CreatedAt: t.CreatedAt,
		})
	}
	return out, st
}
