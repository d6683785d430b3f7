package analytics

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"github.com/chatguus/chatguus-backend/internal/domain"
)

// Export is the full analytics download.
type Export struct {
	AIRatings      []domain.AIRating      `json:"aiRatings"`
	MissingAnswers []domain.MissingAnswer `json:"missingAnswers"`
	Analytics      Dashboard              `json:"analytics"`
	ExportedAt     time.Time              `json:"exportedAt"`
	TotalRecords   int                    `json:"totalRecords"`
}

// NewExport bundles rows with the dashboard computed from them.
func NewExport(ratings []domain.AIRating, missing []domain.MissingAnswer, dash Dashboard, now time.Time) Export {
	if ratings == nil {
		ratings = []domain.AIRating{}
	}
	if missing == nil {
		missing = []domain.MissingAnswer{}
	}
	return Export{
		AIRatings:      ratings,
		MissingAnswers: missing,
		Analytics:      dash,
		ExportedAt:     now.UTC(),
		TotalRecords:   len(ratings) + len(missing),
	}
}

// CSVHeader is the first row written by WriteCSV.
var CSVHeader = []string{
	"record_type", "id", "tenant_id", "session_id", "created_at", "category",
	"overall", "confidence", "priority", "status", "frequency", "question", "response",
}

// WriteCSV writes AI ratings followed by missing answers as one table. Cells
// that do not apply to a record type are left empty.
func WriteCSV(w io.Writer, e Export) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return err
	}
	for _, r := range e.AIRatings {
		row := []string{
			"ai_rating", r.ID, r.TenantID, r.SessionID, r.CreatedAt.UTC().Format(time.RFC3339), r.Category,
			strconv.FormatFloat(r.Overall, 'f', 2, 64), strconv.FormatFloat(r.Confidence, 'f', 2, 64),
			"", "", "", r.UserMessage, r.AIResponse,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	for _, m := range e.MissingAnswers {
		row := []string{
			"missing_answer", m.ID, m.TenantID, m.SessionID, m.CreatedAt.UTC().Format(time.RFC3339), m.Category,
			"", "", m.Priority, m.Status, strconv.Itoa(m.Frequency), m.UserQuestion, m.AIResponse,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
