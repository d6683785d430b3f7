package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/chatguus/chatguus-backend/internal/http/middleware"
	"github.com/chatguus/chatguus-backend/internal/widget"
)

const widgetCacheControl = "public, max-age=300"

// Widget godoc
// @ID          widget
// @Summary     Widget script
// @Description Self-contained JavaScript bundle for the resolved tenant: configuration, branding CSS and the widget bootstrap.
// @Tags        Widget
// @Produce     application/javascript
// @Param       tenant  query  string  false  "Tenant id"  example(koepel)
// @Success     200  {string}  string  "JavaScript"
// @Failure     500  {object}  handlers.ErrorResponse
// @Router      /widget [get]
func (h *Handlers) Widget(c *gin.Context) {
	ctx := c.Request.Context()

	t := middleware.TenantFrom(c)
	if t == nil {
		t = h.tenantSvc.Resolve(ctx, middleware.IdentifierFrom(c))
	}

	js, err := widget.Bundle(widget.NewConfig(t, h.meta.APIEndpoint), h.tenantSvc.CSSFor(ctx, t))
	if err != nil {
		_ = c.Error(err)
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "Widget generation failed")
		return
	}

	hdr := c.Writer.Header()
	hdr.Del("Pragma")
	hdr.Del("Expires")
	hdr.Set("Cache-Control", widgetCacheControl)
	c.Data(http.StatusOK, "application/javascript; charset=utf-8", js)
}
