package notify

import (
	"context"
	"fmt"
	"time"
	_ "time/tzdata"

	"github.com/rs/zerolog/log"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/chatguus/chatguus-backend/internal/domain"
)

// Sheet titles and header rows of the spreadsheet log.
const (
	SheetInteractions    = "Chat Interactions"
	SheetServiceRequests = "Service Requests"
	SheetEventInquiries  = "Event Inquiries"
	SheetRatings         = "Satisfaction Ratings"
)

var sheetHeaders = map[string][]any{
	SheetInteractions:    {"Timestamp", "Session ID", "Message", "Response", "Intent", "User Agent", "URL", "Status"},
	SheetServiceRequests: {"Timestamp", "Session ID", "Request Type", "Message", "Routed To", "Status", "URL"},
	SheetEventInquiries:  {"Timestamp", "Session ID", "Event Type", "Message", "Requirements", "Status", "Contact Info"},
	SheetRatings:         {"Timestamp", "Rating ID", "Tenant", "Session ID", "Rating", "Sentiment", "Feedback", "Priority"},
}

// sheetOrder fixes the creation order of missing sheets.
var sheetOrder = []string{SheetInteractions, SheetServiceRequests, SheetEventInquiries, SheetRatings}

// Appender appends one row to a named sheet.
type Appender interface {
	AppendRow(ctx context.Context, sheet string, row []any) error
}

// LogAppender logs rows instead of writing them.
type LogAppender struct{}

// AppendRow implements Appender.
func (LogAppender) AppendRow(ctx context.Context, sheet string, row []any) error {
	log.Ctx(ctx).Info().Str("sheet", sheet).Interface("row", row).Msg("sheet row logged (Google Sheets not configured)")
	return nil
}

// GoogleSheets appends rows to a Google spreadsheet.
type GoogleSheets struct {
	svc *sheets.Service
	id  string
}

// NewGoogleSheets authenticates with a service account key (JSON) and makes
// sure the log sheets exist.
func NewGoogleSheets(ctx context.Context, spreadsheetID, serviceAccountJSON string, opts ...option.ClientOption) (*GoogleSheets, error) {
	if serviceAccountJSON != "" {
		opts = append([]option.ClientOption{
			option.WithCredentialsJSON([]byte(serviceAccountJSON)),
			option.WithScopes(sheets.SpreadsheetsScope),
		}, opts...)
	}
	svc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("sheets client: %w", err)
	}
	g := &GoogleSheets{svc: svc, id: spreadsheetID}
	if err := g.ensureSheets(ctx); err != nil {
		return nil, err
	}
	return g, nil
}

func (g *GoogleSheets) ensureSheets(ctx context.Context) error {
	doc, err := g.svc.Spreadsheets.Get(g.id).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("load spreadsheet: %w", err)
	}
	have := make(map[string]bool, len(doc.Sheets))
	for _, s := range doc.Sheets {
		if s.Properties != nil {
			have[s.Properties.Title] = true
		}
	}

	var reqs []*sheets.Request
	var created []string
	for _, title := range sheetOrder {
		if have[title] {
			continue
		}
		reqs = append(reqs, &sheets.Request{AddSheet: &sheets.AddSheetRequest{
			Properties: &sheets.SheetProperties{Title: title},
		}})
		created = append(created, title)
	}
	if len(reqs) == 0 {
		return nil
	}
	if _, err := g.svc.Spreadsheets.BatchUpdate(g.id, &sheets.BatchUpdateSpreadsheetRequest{Requests: reqs}).Context(ctx).Do(); err != nil {
		return fmt.Errorf("create sheets: %w", err)
	}
	for _, title := range created {
		log.Info().Str("sheet", title).Msg("created spreadsheet sheet")
		if err := g.AppendRow(ctx, title, sheetHeaders[title]); err != nil {
			return err
		}
	}
	return nil
}

// AppendRow implements Appender.
func (g *GoogleSheets) AppendRow(ctx context.Context, sheet string, row []any) error {
	_, err := g.svc.Spreadsheets.Values.Append(g.id, "'"+sheet+"'!A1", &sheets.ValueRange{Values: [][]any{row}}).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	return err
}

// Interaction is one chat exchange.
type Interaction struct {
	SessionID string
	Message   string
	Response  string
	Intent    string
	UserAgent string
	URL       string
	Timestamp time.Time
}

// ServiceRequestLog is a routed service request.
type ServiceRequestLog struct {
	SessionID   string
	RequestType string
	Message     string
	RoutedTo    string
	URL         string
	Timestamp   time.Time
}

// EventInquiryLog is a routed event inquiry.
type EventInquiryLog struct {
	SessionID    string
	EventType    string
	Message      string
	Requirements string
	ContactInfo  string
	Timestamp    time.Time
}

// Spreadsheet formats log rows and writes them through an Appender. Write
// failures fall back to the log and are returned to the caller.
type Spreadsheet struct {
	Appender Appender
}

// NewSpreadsheet wraps a. A nil a logs rows only.
func NewSpreadsheet(a Appender) *Spreadsheet {
	if a == nil {
		a = LogAppender{}
	}
	return &Spreadsheet{Appender: a}
}

func stamp(t time.Time) string {
	if t.IsZero() {
		t = time.Now()
	}
	return t.In(amsterdam).Format("2-1-2006 15:04:05")
}

var amsterdam = func() *time.Location {
	loc, err := time.LoadLocation("Europe/Amsterdam")
	if err != nil {
		return time.UTC
	}
	return loc
}()

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func (s *Spreadsheet) append(ctx context.Context, sheet string, row []any) error {
	if err := s.Appender.AppendRow(ctx, sheet, row); err != nil {
		log.Ctx(ctx).Error().Err(err).Str("sheet", sheet).Interface("row", row).Msg("failed to log to Google Sheets")
		return err
	}
	return nil
}

// LogInteraction appends to the interactions sheet.
func (s *Spreadsheet) LogInteraction(ctx context.Context, in Interaction) error {
	return s.append(ctx, SheetInteractions, []any{
		stamp(in.Timestamp), in.SessionID, truncate(in.Message, 500), truncate(in.Response, 500),
		in.Intent, truncate(in.UserAgent, 200), in.URL, "Processed",
	})
}

// LogServiceRequest appends to the service requests sheet.
func (s *Spreadsheet) LogServiceRequest(ctx context.Context, r ServiceRequestLog) error {
	return s.append(ctx, SheetServiceRequests, []any{
		stamp(r.Timestamp), r.SessionID, r.RequestType, truncate(r.Message, 1000), r.RoutedTo, "Routed", r.URL,
	})
}

// LogEventInquiry appends to the event inquiries sheet.
func (s *Spreadsheet) LogEventInquiry(ctx context.Context, e EventInquiryLog) error {
	return s.append(ctx, SheetEventInquiries, []any{
		stamp(e.Timestamp), e.SessionID, orDefault(e.EventType, "Niet gespecificeerd"), truncate(e.Message, 1000),
		orDefault(e.Requirements, "Nog te bepalen"), "New Inquiry", orDefault(e.ContactInfo, "Via chat"),
	})
}

// LogRating appends to the satisfaction ratings sheet.
func (s *Spreadsheet) LogRating(ctx context.Context, r domain.SatisfactionRating) error {
	return s.append(ctx, SheetRatings, []any{
		stamp(r.CreatedAt), r.ID, r.TenantID, r.SessionID, r.Rating, r.Sentiment,
		truncate(r.Feedback, 1000), r.Analysis.Data().Priority,
	})
}
