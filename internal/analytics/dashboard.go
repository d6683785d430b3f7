package analytics

import (
	"cmp"
	"slices"
	"time"

	"github.com/chatguus/chatguus-backend/internal/domain"
)

const (
	dashboardListSize = 20
	topQuestionsSize  = 10
	trendDays         = 30
)

// Filters echoes the query a dashboard was built for.
type Filters struct {
	TenantID string `json:"tenantId,omitempty"`
	Period   string `json:"period,omitempty"`
}

// DashboardSummary holds the headline numbers of the AI dashboard.
// AverageAIRating is on the 1..5 scale; AverageConfidence is a percentage.
type DashboardSummary struct {
	TotalRatings         int     `json:"totalRatings"`
	AverageAIRating      float64 `json:"averageAIRating"`
	AverageConfidence    float64 `json:"averageConfidence"`
	UserSatisfactionRate int     `json:"userSatisfactionRate"`
	MissingAnswersCount  int     `json:"missingAnswersCount"`
}

// Averages are mean self-rating scores on the 1..5 scale, with Confidence as
// a percentage.
type Averages struct {
	Overall      float64 `json:"overall"`
	Accuracy     float64 `json:"accuracy"`
	Helpfulness  float64 `json:"helpfulness"`
	Completeness float64 `json:"completeness"`
	Clarity      float64 `json:"clarity"`
	Relevance    float64 `json:"relevance"`
	Confidence   float64 `json:"confidence"`
}

// CategoryStat counts self-ratings of one category.
type CategoryStat struct {
	Count     int     `json:"count"`
	AvgRating float64 `json:"avgRating"`
}

// ConfidenceDistribution buckets ratings at 0.8 and 0.6 confidence.
type ConfidenceDistribution struct {
	High   int `json:"high"`
	Medium int `json:"medium"`
	Low    int `json:"low"`
}

// DailyTrend is the self-rating activity of one day.
type DailyTrend struct {
	Date          string  `json:"date"`
	Count         int     `json:"count"`
	AvgRating     float64 `json:"avgRating"`
	AvgConfidence float64 `json:"avgConfidence"`
}

// AIRatingStats aggregates stored self-ratings.
type AIRatingStats struct {
	Total                  int                     `json:"total"`
	Averages               Averages                `json:"averages"`
	CategoryBreakdown      map[string]CategoryStat `json:"categoryBreakdown"`
	ConfidenceDistribution ConfidenceDistribution  `json:"confidenceDistribution"`
	Trends                 []DailyTrend            `json:"trends"`
}

// MissingCategory counts missing answers of one category.
type MissingCategory struct {
	Count        int `json:"count"`
	HighPriority int `json:"highPriority"`
}

// TopQuestion is a frequently asked unanswered question.
type TopQuestion struct {
	Question  string `json:"question"`
	Frequency int    `json:"frequency"`
	Priority  string `json:"priority"`
	Category  string `json:"category"`
}

// MissingAnswerStats aggregates missing answers.
type MissingAnswerStats struct {
	Total          int                        `json:"total"`
	HighPriority   int                        `json:"highPriority"`
	MediumPriority int                        `json:"mediumPriority"`
	LowPriority    int                        `json:"lowPriority"`
	NeedsReview    int                        `json:"needsReview"`
	Categories     map[string]MissingCategory `json:"categories"`
	TopQuestions   []TopQuestion              `json:"topQuestions"`
	List           []domain.MissingAnswer     `json:"list"`
}

// SatisfactionStats is the user satisfaction side of the dashboard.
type SatisfactionStats struct {
	TotalRatings     int     `json:"totalRatings"`
	AvgRating        float64 `json:"avgRating"`
	SatisfactionRate int     `json:"satisfactionRate"`
}

// Dashboard is the AI quality dashboard.
type Dashboard struct {
	Summary        DashboardSummary   `json:"summary"`
	AIRatings      AIRatingStats      `json:"aiRatings"`
	MissingAnswers MissingAnswerStats `json:"missingAnswers"`
	Satisfaction   SatisfactionStats  `json:"satisfaction"`
	Filters        Filters            `json:"filters"`
	LastUpdated    time.Time          `json:"lastUpdated"`
}

// BuildDashboard aggregates rows already filtered by tenant and period.
// missing should be ordered for review (priority, then frequency); the first
// twenty are listed verbatim.
func BuildDashboard(ratings []domain.AIRating, missing []domain.MissingAnswer, sat []domain.SatisfactionRating, f Filters, now time.Time) Dashboard {
	d := Dashboard{
		AIRatings:      aiRatingStats(ratings, now),
		MissingAnswers: missingStats(missing),
		Satisfaction:   satisfactionStats(sat),
		Filters:        f,
		LastUpdated:    now.UTC(),
	}
	d.Summary = DashboardSummary{
		TotalRatings:         d.AIRatings.Total,
		AverageAIRating:      d.AIRatings.Averages.Overall,
		AverageConfidence:    d.AIRatings.Averages.Confidence,
		UserSatisfactionRate: d.Satisfaction.SatisfactionRate,
		MissingAnswersCount:  d.MissingAnswers.Total,
	}
	return d
}

func aiRatingStats(ratings []domain.AIRating, now time.Time) AIRatingStats {
	s := AIRatingStats{
		Total:             len(ratings),
		CategoryBreakdown: map[string]CategoryStat{},
		Trends:            []DailyTrend{},
	}
	if len(ratings) == 0 {
		return s
	}

	var sum domain.QualityScores
	var conf float64
	type acc struct {
		count      int
		overall    float64
		confidence float64
	}
	cats := map[string]*acc{}
	days := map[string]*acc{}
	for _, r := range ratings {
		q := r.Scores.Data()
		sum.Overall += r.Overall
		sum.Accuracy += q.Accuracy
		sum.Helpfulness += q.Helpfulness
		sum.Completeness += q.Completeness
		sum.Clarity += q.Clarity
		sum.Relevance += q.Relevance
		conf += r.Confidence

		switch {
		case r.Confidence >= 0.8:
			s.ConfidenceDistribution.High++
		case r.Confidence >= 0.6:
			s.ConfidenceDistribution.Medium++
		default:
			s.ConfidenceDistribution.Low++
		}

		cat := cmp.Or(r.Category, RatedUnknown)
		if cats[cat] == nil {
			cats[cat] = &acc{}
		}
		cats[cat].count++
		cats[cat].overall += r.Overall

		k := day(r.CreatedAt).Format(time.DateOnly)
		if days[k] == nil {
			days[k] = &acc{}
		}
		days[k].count++
		days[k].overall += r.Overall
		days[k].confidence += r.Confidence
	}

	n := float64(len(ratings))
	s.Averages = Averages{
		Overall:      round(sum.Overall/n*5, 2),
		Accuracy:     round(sum.Accuracy/n*5, 2),
		Helpfulness:  round(sum.Helpfulness/n*5, 2),
		Completeness: round(sum.Completeness/n*5, 2),
		Clarity:      round(sum.Clarity/n*5, 2),
		Relevance:    round(sum.Relevance/n*5, 2),
		Confidence:   round(conf/n*100, 1),
	}
	for cat, a := range cats {
		s.CategoryBreakdown[cat] = CategoryStat{Count: a.count, AvgRating: round(a.overall/float64(a.count)*5, 2)}
	}

	cutoff := day(now).AddDate(0, 0, -(trendDays - 1)).Format(time.DateOnly)
	for k, a := range days {
		if k < cutoff {
			continue
		}
		s.Trends = append(s.Trends, DailyTrend{
			Date:          k,
			Count:         a.count,
			AvgRating:     round(a.overall/float64(a.count)*5, 2),
			AvgConfidence: round(a.confidence/float64(a.count)*100, 1),
		})
	}
	slices.SortFunc(s.Trends, func(a, b DailyTrend) int { return cmp.Compare(a.Date, b.Date) })
	return s
}

func missingStats(missing []domain.MissingAnswer) MissingAnswerStats {
	s := MissingAnswerStats{
		Total:        len(missing),
		Categories:   map[string]MissingCategory{},
		TopQuestions: []TopQuestion{},
		List:         missing[:min(len(missing), dashboardListSize)],
	}
	if s.List == nil {
		s.List = []domain.MissingAnswer{}
	}
	for _, m := range missing {
		switch m.Priority {
		case "high":
			s.HighPriority++
		case "medium":
			s.MediumPriority++
		default:
			s.LowPriority++
		}
		if m.Status == domain.StatusNeedsReview {
			s.NeedsReview++
		}
		cat := cmp.Or(m.Category, RatedUnknown)
		c := s.Categories[cat]
		c.Count++
		if m.Priority == "high" {
			c.HighPriority++
		}
		s.Categories[cat] = c
	}

	byFreq := slices.Clone(missing)
	slices.SortStableFunc(byFreq, func(a, b domain.MissingAnswer) int { return cmp.Compare(b.Frequency, a.Frequency) })
	for _, m := range byFreq[:min(len(byFreq), topQuestionsSize)] {
		s.TopQuestions = append(s.TopQuestions, TopQuestion{
			Question:  m.UserQuestion,
			Frequency: m.Frequency,
			Priority:  m.Priority,
			Category:  m.Category,
		})
	}
	return s
}

func satisfactionStats(sat []domain.SatisfactionRating) SatisfactionStats {
	if len(sat) == 0 {
		return SatisfactionStats{}
	}
	var sum, satisfied int
	for _, r := range sat {
		sum += r.Rating
		if r.Rating >= 4 {
			satisfied++
		}
	}
	return SatisfactionStats{
		TotalRatings:     len(sat),
		AvgRating:        round(float64(sum)/float64(len(sat)), 1),
		SatisfactionRate: percent(satisfied, len(sat)),
	}
}
