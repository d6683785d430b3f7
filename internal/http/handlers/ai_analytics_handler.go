// AI analytics HTTP handler.
//
// One endpoint dispatches on the action query parameter. Write actions read a
// JSON body, read actions take their filters from the query string.
package handlers

import (
	"bytes"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/chatguus/chatguus-backend/internal/analytics"
	"github.com/chatguus/chatguus-backend/internal/http/middleware"
	"github.com/chatguus/chatguus-backend/internal/services"
	"github.com/chatguus/chatguus-backend/internal/utils"
)

const (
	exportFilenameJSON = "chatguus-analytics-export.json"
	exportFilenameCSV  = "chatguus-analytics-export.csv"
)

// ValidActions lists the action values accepted by /ai-analytics.
var ValidActions = []string{
	"store_ai_rating",
	"store_missing_answer",
	"get_ai_ratings",
	"get_missing_answers",
	"get_dashboard_data",
	"export_data",
	"update_missing_answer_status",
	"health_check",
}

// InvalidAction is the 400 body for an unknown action.
type InvalidAction struct {
	Error        string   `json:"error" example:"Invalid action"`
	Code         string   `json:"code" example:"invalid_action"`
	ValidActions []string `json:"validActions"`
	RequestID    string   `json:"requestId,omitempty"`
}

// StatusUpdated is the success body of update_missing_answer_status.
type StatusUpdated struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// AIAnalytics godoc
// @ID          aiAnalytics
// @Summary     AI quality analytics
// @Description Dispatches on action: store_ai_rating, store_missing_answer and update_missing_answer_status read a JSON body; get_ai_ratings, get_missing_answers, get_dashboard_data and export_data read query filters; health_check pings the store.
// @Tags        Analytics
// @Accept      json
// @Produce     json,text/csv
//
// @Param       action    query  string  true   "Action"  Enums(store_ai_rating,store_missing_answer,get_ai_ratings,get_missing_answers,get_dashboard_data,export_data,update_missing_answer_status,health_check)
// @Param       tenantId  query  string  false  "Tenant id or all"
// @Param       period    query  string  false  "today|week|month|quarter|7d|30d|90d"
// @Param       category  query  string  false  "Category filter"
// @Param       priority  query  string  false  "Missing answer priority"
// @Param       status    query  string  false  "Missing answer status"
// @Param       page      query  int     false  "Page"   default(1)
// @Param       limit     query  int     false  "Limit"  default(50)
// @Param       format    query  string  false  "Export format"  Enums(json,csv)
//
// @Success     200  {object}  analytics.Dashboard
// @Failure     400  {object}  handlers.InvalidAction
// @Failure     404  {object}  handlers.ErrorResponse  "Missing answer not found"
// @Failure     500  {object}  handlers.ErrorResponse
// @Router      /ai-analytics [get]
// @Router      /ai-analytics [post]
func (h *Handlers) AIAnalytics(c *gin.Context) {
	switch c.Query("action") {
	case "store_ai_rating":
		h.storeAIRating(c)
	case "store_missing_answer":
		h.storeMissingAnswer(c)
	case "get_ai_ratings":
		h.getAIRatings(c)
	case "get_missing_answers":
		h.getMissingAnswers(c)
	case "get_dashboard_data":
		h.getDashboard(c)
	case "export_data":
		h.exportData(c)
	case "update_missing_answer_status":
		h.updateMissingStatus(c)
	case "health_check":
		h.analyticsHealth(c)
	default:
		c.AbortWithStatusJSON(http.StatusBadRequest, InvalidAction{
			Error:        "Invalid action",
			Code:         ErrCodeInvalidAction,
			ValidActions: ValidActions,
			RequestID:    middleware.GetRequestID(c),
		})
	}
}

func (h *Handlers) storeAIRating(c *gin.Context) {
	var in services.AIRatingInput
	if err := c.ShouldBindJSON(&in); err != nil {
		failBind(c, err)
		return
	}
	res, err := h.aiSvc.StoreAIRating(c.Request.Context(), in)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, res)
}

func (h *Handlers) storeMissingAnswer(c *gin.Context) {
	var in services.MissingAnswerInput
	if err := c.ShouldBindJSON(&in); err != nil {
		failBind(c, err)
		return
	}
	res, err := h.aiSvc.StoreMissingAnswer(c.Request.Context(), in)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, res)
}

func (h *Handlers) getAIRatings(c *gin.Context) {
	pg := utils.ParsePage(c.Query("page"), c.Query("limit"), services.DefaultRatingsLimit, services.MaxRatingsLimit)

	res, err := h.aiSvc.ListAIRatings(c.Request.Context(), services.RatingQuery{
		TenantID: analyticsTenant(c),
		Category: c.Query("category"),
		Period:   c.Query("period"),
		Page:     pg.Page,
		Limit:    pg.Limit,
	})
	if err != nil {
		_ = c.Error(err)
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "Failed to get AI ratings")
		return
	}
	ok(c, http.StatusOK, res)
}

func (h *Handlers) getMissingAnswers(c *gin.Context) {
	res, err := h.aiSvc.ListMissingAnswers(c.Request.Context(), services.MissingQuery{
		TenantID: analyticsTenant(c),
		Priority: c.Query("priority"),
		Status:   c.Query("status"),
		Category: c.Query("category"),
		Period:   c.Query("period"),
	})
	if err != nil {
		_ = c.Error(err)
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "Failed to get missing answers")
		return
	}
	ok(c, http.StatusOK, res)
}

func (h *Handlers) getDashboard(c *gin.Context) {
	res, err := h.aiSvc.Dashboard(c.Request.Context(), analyticsFilters(c))
	if err != nil {
		_ = c.Error(err)
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "Failed to get dashboard data")
		return
	}
	ok(c, http.StatusOK, res)
}

func (h *Handlers) exportData(c *gin.Context) {
	format := strings.ToLower(c.DefaultQuery("format", "json"))
	if format != "json" && format != "csv" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "Unsupported export format", "format must be json or csv")
		return
	}

	exp, err := h.aiSvc.Export(c.Request.Context(), analyticsFilters(c))
	if err != nil {
		_ = c.Error(err)
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "Failed to export data")
		return
	}

	if format == "csv" {
		var buf bytes.Buffer
		if err := analytics.WriteCSV(&buf, exp); err != nil {
			_ = c.Error(err)
			fail(c, http.StatusInternalServerError, ErrCodeInternal, "Failed to export data")
			return
		}
		c.Header("Content-Disposition", `attachment; filename="`+exportFilenameCSV+`"`)
		c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+exportFilenameJSON+`"`)
	c.IndentedJSON(http.StatusOK, exp)
}

func (h *Handlers) updateMissingStatus(c *gin.Context) {
	var u services.StatusUpdate
	if err := c.ShouldBindJSON(&u); err != nil {
		failBind(c, err)
		return
	}
	if err := h.aiSvc.UpdateMissingAnswerStatus(c.Request.Context(), u); err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, StatusUpdated{Success: true, Message: "Missing answer status updated successfully"})
}

func (h *Handlers) analyticsHealth(c *gin.Context) {
	db := h.aiSvc.Health(c.Request.Context())
	status := http.StatusOK
	if !db.Connected {
		status = http.StatusInternalServerError
	}
	ok(c, status, gin.H{
		"status":    db.Status,
		"database":  db,
		"timestamp": h.now().UTC(),
		"version":   h.meta.Version,
	})
}

// analyticsTenant reads tenantId, falling back to tenant. "all" and the empty
// string select every tenant.
func analyticsTenant(c *gin.Context) string {
	id := strings.TrimSpace(c.Query("tenantId"))
	if id == "" {
		id = strings.TrimSpace(c.Query("tenant"))
	}
	return strings.ToLower(id)
}

func analyticsFilters(c *gin.Context) analytics.Filters {
	return analytics.Filters{TenantID: analyticsTenant(c), Period: c.Query("period")}
}
