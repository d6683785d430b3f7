// Satisfaction HTTP handlers.
//
//   - POST /satisfaction  submit a 1..5 rating (Idempotency-Key aware)
//   - GET  /satisfaction  aggregated report per tenant and period
package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/chatguus/chatguus-backend/internal/http/middleware"
	"github.com/chatguus/chatguus-backend/internal/services"
)

// defaultReportQueryPeriod applies when the period query is absent.
const defaultReportQueryPeriod = "30d"

// SubmitSatisfaction godoc
// @ID          submitSatisfaction
// @Summary     Submit a satisfaction rating
// @Description Stores a rating with its sentiment analysis. Ratings of 2 or lower alert the team. A repeated Idempotency-Key answers 409 without a second write.
// @Tags        Satisfaction
// @Accept      json
// @Produce     json
//
// @Param       Idempotency-Key  header  string                       false  "Client retry key"  example(rate-7f3a)
// @Param       body             body    services.SatisfactionInput   true   "Rating"
//
// @Success     200  {object}  services.SubmittedRating
// @Failure     400  {object}  handlers.ErrorResponse  "Missing fields or invalid rating"
// @Failure     409  {object}  handlers.ErrorResponse  "Replay of a completed submission"
// @Failure     500  {object}  handlers.ErrorResponse  "Failed to process rating"
// @Router      /satisfaction [post]
func (h *Handlers) SubmitSatisfaction(c *gin.Context) {
	if middleware.IsReplay(c) {
		fail(c, http.StatusConflict, ErrCodeReplay, "Rating already submitted")
		return
	}

	var in services.SatisfactionInput
	if err := c.ShouldBindJSON(&in); err != nil {
		failBind(c, err)
		return
	}
	in.Tenant = middleware.IdentifierFrom(c)

	res, err := h.satSvc.Submit(c.Request.Context(), in)
	if err != nil {
		if errors.Is(err, services.ErrValidation) {
			failErr(c, err)
			return
		}
		_ = c.Error(err)
		var details []string
		if h.meta.Development {
			details = []string{err.Error()}
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "Failed to process rating", details...)
		return
	}

	h.remember(c, res.RatingID, http.StatusOK)
	ok(c, http.StatusOK, res)
}

// SatisfactionReport godoc
// @ID          satisfactionReport
// @Summary     Satisfaction report
// @Description Aggregates ratings of a tenant (or every tenant with tenant=all) over a period. Unknown periods fall back to 90d.
// @Tags        Satisfaction
// @Produce     json
//
// @Param       tenant  query  string  false  "Tenant id or all"   example(koepel)
// @Param       period  query  string  false  "today|week|month|quarter|7d|30d|90d"  default(30d)
//
// @Success     200  {object}  analytics.Report
// @Failure     500  {object}  handlers.ErrorResponse  "Analytics generation failed"
// @Router      /satisfaction [get]
func (h *Handlers) SatisfactionReport(c *gin.Context) {
	period := strings.TrimSpace(c.Query("period"))
	if period == "" {
		period = defaultReportQueryPeriod
	}
	rep, err := h.satSvc.Report(c.Request.Context(), strings.ToLower(c.Query("tenant")), period)
	if err != nil {
		_ = c.Error(err)
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "Analytics generation failed")
		return
	}
	ok(c, http.StatusOK, rep)
}

// remember records the Idempotency-Key of a completed write. Failures only
// weaken replay detection and are logged.
func (h *Handlers) remember(c *gin.Context, resourceID string, status int) {
	key, has := middleware.GetIdempotencyKey(c)
	if !has || h.idem == nil {
		return
	}
	if err := h.idem(c.Request.Context(), middleware.IdempotencyScope(c), key, resourceID, status); err != nil {
		middleware.LoggerFrom(c).Warn().Err(err).Str("key", key).Msg("idempotency record failed")
	}
}
