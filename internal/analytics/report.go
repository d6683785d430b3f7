package analytics

import (
	"cmp"
	"math"
	"slices"
	"time"

	"github.com/chatguus/chatguus-backend/internal/domain"
)

// ReportVersion identifies the layout of Report.
const ReportVersion = "2.0.0"

// Data sources reported in Metadata.
const (
	SourceLive  = "live"
	SourceEmpty = "empty"
)

// DefaultPeriodDays applies when a report period has no fixed window.
const DefaultPeriodDays = 90

const maxTopIssues = 5

// Scope describes which ratings a report covers. Since is the inclusive
// lower bound; Now is the report time.
type Scope struct {
	Tenant string
	Period string
	Since  time.Time
	Now    time.Time
}

// Summary holds the headline figures of a satisfaction report. Rates are
// whole percentages; NPS counts 4 and 5 as promoters and 1 and 2 as
// detractors.
type Summary struct {
	AverageRating    float64 `json:"averageRating"`
	TotalRatings     int     `json:"totalRatings"`
	ResponseRate     int     `json:"responseRate"`
	SatisfactionRate int     `json:"satisfactionRate"`
	NPS              int     `json:"nps"`
}

// TrendPoint is one day or week of ratings. Date is the bucket start.
type TrendPoint struct {
	Date             string  `json:"date"`
	AverageRating    float64 `json:"averageRating"`
	TotalRatings     int     `json:"totalRatings"`
	SatisfactionRate int     `json:"satisfactionRate"`
}

// Trends buckets ratings per calendar day and per ISO week (Monday start).
type Trends struct {
	Daily  []TrendPoint `json:"daily"`
	Weekly []TrendPoint `json:"weekly"`
}

// Issue is a feedback category that came up in the period.
type Issue struct {
	Category      string  `json:"category"`
	Count         int     `json:"count"`
	AverageRating float64 `json:"averageRating"`
	Impact        string  `json:"impact"`
}

// Insights summarizes free-text feedback.
type Insights struct {
	TopIssues    []Issue  `json:"topIssues"`
	Improvements []string `json:"improvements"`
	Strengths    []string `json:"strengths"`
}

// Segment is the count and mean rating of one slice of the ratings.
type Segment struct {
	Total   int     `json:"total"`
	Sum     int     `json:"sum"`
	Average float64 `json:"average"`
}

// Segmentation splits ratings by tenant and by widget language.
type Segmentation struct {
	ByTenant   map[string]Segment `json:"byTenant"`
	ByLanguage map[string]Segment `json:"byLanguage"`
}

// Metadata describes how a report was produced.
type Metadata struct {
	Period      string    `json:"period"`
	Tenant      string    `json:"tenant"`
	GeneratedAt time.Time `json:"generatedAt"`
	Version     string    `json:"version"`
	DataSource  string    `json:"dataSource"`
}

// Report is the satisfaction analytics object served by GET /satisfaction.
type Report struct {
	Summary      Summary      `json:"summary"`
	Distribution map[int]int  `json:"distribution"`
	Trends       Trends       `json:"trends"`
	Insights     Insights     `json:"insights"`
	Segmentation Segmentation `json:"segmentation"`
	Metadata     Metadata     `json:"metadata"`
}

var improvementFor = map[string]string{
	CategoryTechnical:   "Investigate reported errors and loading problems in the widget",
	CategoryUsability:   "Simplify answers and follow-up forms that users find confusing",
	CategoryPerformance: "Reduce response time for common questions",
	CategoryContent:     "Review the knowledge base for wrong or outdated answers",
	CategoryService:     "Adjust the assistant tone towards friendlier, more helpful replies",
}

// Aggregate builds the report for ratings, which must already be filtered to
// the scope. sessions is the number of chat sessions in the same window and
// is used for the response rate. A window without ratings yields a zeroed
// report with DataSource "empty".
func Aggregate(ratings []domain.SatisfactionRating, sessions int64, s Scope) Report {
	tenant := s.Tenant
	if tenant == "" {
		tenant = "all"
	}
	r := Report{
		Distribution: map[int]int{1: 0, 2: 0, 3: 0, 4: 0, 5: 0},
		Trends:       Trends{Daily: []TrendPoint{}, Weekly: []TrendPoint{}},
		Insights:     Insights{TopIssues: []Issue{}, Improvements: []string{}, Strengths: []string{}},
		Segmentation: Segmentation{ByTenant: map[string]Segment{}, ByLanguage: map[string]Segment{}},
		Metadata: Metadata{
			Period:      s.Period,
			Tenant:      tenant,
			GeneratedAt: s.Now.UTC(),
			Version:     ReportVersion,
			DataSource:  SourceEmpty,
		},
	}
	if len(ratings) == 0 {
		return r
	}
	r.Metadata.DataSource = SourceLive

	var sum, satisfied, detractors int
	for _, rt := range ratings {
		sum += rt.Rating
		r.Distribution[rt.Rating]++
		switch {
		case rt.Rating >= 4:
			satisfied++
		case rt.Rating <= 2:
			detractors++
		}
		addSegment(r.Segmentation.ByTenant, cmp.Or(rt.TenantID, "default"), rt.Rating)
		addSegment(r.Segmentation.ByLanguage, cmp.Or(rt.Language, "en"), rt.Rating)
	}
	n := len(ratings)
	r.Summary = Summary{
		AverageRating:    round(float64(sum)/float64(n), 1),
		TotalRatings:     n,
		ResponseRate:     responseRate(n, sessions),
		SatisfactionRate: percent(satisfied, n),
		NPS:              percent(satisfied-detractors, n),
	}

	since := s.Since
	if since.IsZero() {
		since = ratings[0].CreatedAt
		for _, rt := range ratings[1:] {
			if rt.CreatedAt.Before(since) {
				since = rt.CreatedAt
			}
		}
	}
	r.Trends = trends(ratings, since, s.Now)
	r.Insights = insights(ratings, r.Summary)
	return r
}

func addSegment(m map[string]Segment, key string, rating int) {
	seg := m[key]
	seg.Total++
	seg.Sum += rating
	seg.Average = round(float64(seg.Sum)/float64(seg.Total), 1)
	m[key] = seg
}

func responseRate(ratings int, sessions int64) int {
	if sessions <= 0 {
		return 0
	}
	return min(100, int(math.Round(float64(ratings)/float64(sessions)*100)))
}

type bucket struct {
	sum, count, satisfied int
}

func (b bucket) point(date string) TrendPoint {
	p := TrendPoint{Date: date, TotalRatings: b.count}
	if b.count > 0 {
		p.AverageRating = round(float64(b.sum)/float64(b.count), 1)
		p.SatisfactionRate = percent(b.satisfied, b.count)
	}
	return p
}

func (b *bucket) add(rating int) {
	b.sum += rating
	b.count++
	if rating >= 4 {
		b.satisfied++
	}
}

// trends emits one point per day and per week between from and to, empty
// buckets included, so charts have a continuous axis.
func trends(ratings []domain.SatisfactionRating, from, to time.Time) Trends {
	first, last := day(from), day(to)
	if last.Before(first) {
		last = first
	}
	daily := map[string]*bucket{}
	weekly := map[string]*bucket{}
	for _, rt := range ratings {
		dk := day(rt.CreatedAt).Format(time.DateOnly)
		wk := weekStart(rt.CreatedAt).Format(time.DateOnly)
		if daily[dk] == nil {
			daily[dk] = &bucket{}
		}
		if weekly[wk] == nil {
			weekly[wk] = &bucket{}
		}
		daily[dk].add(rt.Rating)
		weekly[wk].add(rt.Rating)
	}

	var t Trends
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		k := d.Format(time.DateOnly)
		t.Daily = append(t.Daily, valueOr(daily[k]).point(k))
	}
	for w := weekStart(first); !w.After(last); w = w.AddDate(0, 0, 7) {
		k := w.Format(time.DateOnly)
		t.Weekly = append(t.Weekly, valueOr(weekly[k]).point(k))
	}
	return t
}

func valueOr(b *bucket) bucket {
	if b == nil {
		return bucket{}
	}
	return *b
}

func day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func weekStart(t time.Time) time.Time {
	d := day(t)
	offset := (int(d.Weekday()) + 6) % 7
	return d.AddDate(0, 0, -offset)
}

func insights(ratings []domain.SatisfactionRating, sum Summary) Insights {
	in := Insights{TopIssues: []Issue{}, Improvements: []string{}, Strengths: []string{}}

	type acc struct{ count, sum int }
	byCat := map[string]*acc{}
	var resolved, escalated, withOutcome int
	for _, rt := range ratings {
		if rt.WasResolved != nil {
			withOutcome++
			if *rt.WasResolved {
				resolved++
			}
		}
		if rt.WasEscalated != nil && *rt.WasEscalated {
			escalated++
		}
		if rt.Feedback == "" {
			continue
		}
		cat := rt.Analysis.Data().Category
		if cat == "" || cat == CategoryGeneral {
			continue
		}
		if byCat[cat] == nil {
			byCat[cat] = &acc{}
		}
		byCat[cat].count++
		byCat[cat].sum += rt.Rating
	}

	for cat, a := range byCat {
		avg := round(float64(a.sum)/float64(a.count), 1)
		in.TopIssues = append(in.TopIssues, Issue{Category: cat, Count: a.count, AverageRating: avg, Impact: impact(avg)})
	}
	slices.SortFunc(in.TopIssues, func(a, b Issue) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Category, b.Category)
	})
	if len(in.TopIssues) > maxTopIssues {
		in.TopIssues = in.TopIssues[:maxTopIssues]
	}
	for _, is := range in.TopIssues {
		in.Improvements = append(in.Improvements, improvementFor[is.Category])
	}

	if sum.SatisfactionRate >= 80 {
		in.Strengths = append(in.Strengths, "Consistently high satisfaction ratings")
	}
	if withOutcome > 0 && percent(resolved, withOutcome) >= 70 {
		in.Strengths = append(in.Strengths, "Most conversations are resolved in the chat")
	}
	if percent(escalated, len(ratings)) <= 10 {
		in.Strengths = append(in.Strengths, "Few conversations need escalation to staff")
	}
	return in
}

func impact(avg float64) string {
	switch {
	case avg <= 2:
		return "high"
	case avg < 3.5:
		return "medium"
	default:
		return "low"
	}
}

func percent(part, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(part) / float64(total) * 100))
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
