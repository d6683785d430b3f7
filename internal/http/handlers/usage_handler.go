package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/chatguus/chatguus-backend/internal/http/middleware"
	"github.com/chatguus/chatguus-backend/internal/services"
)

// RecordUsage godoc
// @ID          recordUsage
// @Summary     Record a widget usage event
// @Description Strips sensitive data keys and URL query parameters and replaces the fingerprint with an anonymous id before storing.
// @Tags        Analytics
// @Accept      json
// @Produce     json
// @Param       body  body  services.UsageInput  true  "Usage event"
// @Success     200  {object}  services.RecordedEvent
// @Failure     400  {object}  handlers.ErrorResponse  "Invalid analytics payload"
// @Failure     500  {object}  handlers.ErrorResponse
// @Router      /analytics [post]
func (h *Handlers) RecordUsage(c *gin.Context) {
	var in services.UsageInput
	if err := c.ShouldBindJSON(&in); err != nil {
		failBind(c, err)
		return
	}
	if in.TenantID == "" {
		if t := middleware.TenantFrom(c); t != nil {
			in.TenantID = t.ID
		}
	}

	res, err := h.usageSvc.Record(c.Request.Context(), in)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, res)
}
