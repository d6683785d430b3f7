package observability

import "github.com/prometheus/client_golang/prometheus"

// Domain counters for the chat pipeline. HTTP-level metrics live in the
// middleware package; these track what happened inside a request.
var (
	// IntentsTotal counts classified messages by intent type.
	IntentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatguus_intents_total",
			Help: "Classified chat messages by intent type.",
		},
		[]string{"type"},
	)

	// EmailDispatchTotal counts routed emails by department and delivery mode
	// (smtp, logged, failed).
	EmailDispatchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatguus_email_dispatch_total",
			Help: "Routed emails by department and delivery mode.",
		},
		[]string{"department", "mode"},
	)

	// LLMRequestsTotal counts completion calls by outcome (ok, error, disabled).
	LLMRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatguus_llm_requests_total",
			Help: "Language model completion calls by outcome.",
		},
		[]string{"outcome"},
	)

	// SatisfactionRatingsTotal counts submitted ratings by derived sentiment.
	SatisfactionRatingsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatguus_satisfaction_ratings_total",
			Help: "Submitted satisfaction ratings by sentiment.",
		},
		[]string{"sentiment"},
	)

	// JobRunsTotal counts scheduled job runs by job name and outcome
	// (ok, error, panic).
	JobRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatguus_job_runs_total",
			Help: "Scheduled job runs by job and outcome.",
		},
		[]string{"job", "outcome"},
	)
)

func init() {
	prometheus.MustRegister(IntentsTotal, EmailDispatchTotal, LLMRequestsTotal, SatisfactionRatingsTotal, JobRunsTotal)
}
