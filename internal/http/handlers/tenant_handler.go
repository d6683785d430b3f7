// Tenant management HTTP handlers.
//
// Responsibilities:
//   - list tenants with a weak ETag derived from count and latest update
//   - create (201, Idempotency-Key aware), read, merge-update and delete
//   - expose the rendered branding CSS and per-tenant activity counts
package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/chatguus/chatguus-backend/internal/http/middleware"
	"github.com/chatguus/chatguus-backend/internal/tenant"
)

// Deleted is the body of a successful delete.
type Deleted struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// ListTenants godoc
// @ID          listTenants
// @Summary     List tenants
// @Description Returns every tenant summary with aggregate counts. Honors If-None-Match.
// @Tags        Tenants
// @Produce     json
//
// @Param       If-None-Match  header  string  false  "Previously returned ETag"
//
// @Success     200  {object}  services.TenantList
// @Success     304  "Not modified"
// @Failure     500  {object}  handlers.ErrorResponse
// @Router      /tenants [get]
func (h *Handlers) ListTenants(c *gin.Context) {
	ctx := c.Request.Context()

	// ETag pre-check (best effort).
	if n, ts, err := h.tenantSvc.Version(ctx); err == nil {
		etag := fmt.Sprintf(`W/"tenants:%d:%s"`, n, ts)
		c.Header("ETag", etag)
		if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
			c.Status(http.StatusNotModified)
			return
		}
	}

	list, err := h.tenantSvc.List(ctx)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, list)
}

// CreateTenant godoc
// @ID          createTenant
// @Summary     Create a tenant
// @Description Validates and stores a tenant. The generated API key is only returned here.
// @Tags        Tenants
// @Accept      json
// @Produce     json
//
// @Param       Idempotency-Key  header  string         false  "Client retry key"
// @Param       body             body    tenant.Config  true   "Tenant configuration"
//
// @Success     201  {object}  services.CreatedTenant
// @Failure     400  {object}  handlers.ErrorResponse  "Invalid tenant configuration"
// @Failure     409  {object}  handlers.ErrorResponse  "Tenant already exists or replay"
// @Router      /tenants [post]
func (h *Handlers) CreateTenant(c *gin.Context) {
	if middleware.IsReplay(c) {
		fail(c, http.StatusConflict, ErrCodeReplay, "Tenant already created")
		return
	}

	var cfg tenant.Config
	if err := c.ShouldBindJSON(&cfg); err != nil {
		failBind(c, err)
		return
	}
	cfg.ID = strings.ToLower(strings.TrimSpace(cfg.ID))

	res, err := h.tenantSvc.Create(c.Request.Context(), cfg)
	if err != nil {
		failErr(c, err)
		return
	}

	h.remember(c, res.Tenant.ID, http.StatusCreated)
	c.Header("Location", strings.TrimSuffix(c.FullPath(), "/")+"/"+res.Tenant.ID)
	ok(c, http.StatusCreated, res)
}

// GetTenant godoc
// @ID          getTenant
// @Summary     Get a tenant
// @Tags        Tenants
// @Produce     json
// @Param       id  path  string  true  "Tenant id"  example(koepel)
// @Success     200  {object}  domain.Tenant
// @Failure     404  {object}  handlers.ErrorResponse  "Tenant <id> not found"
// @Router      /tenants/{id} [get]
func (h *Handlers) GetTenant(c *gin.Context) {
	t, err := h.tenantSvc.Get(c.Request.Context(), tenantParam(c))
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, t)
}

// UpdateTenant godoc
// @ID          updateTenant
// @Summary     Update a tenant
// @Description Merges the patch key-wise into branding, personality, routing and features.
// @Tags        Tenants
// @Accept      json
// @Produce     json
// @Param       id    path  string        true  "Tenant id"
// @Param       body  body  tenant.Patch  true  "Partial tenant"
// @Success     200  {object}  domain.Tenant
// @Failure     400  {object}  handlers.ErrorResponse
// @Failure     404  {object}  handlers.ErrorResponse
// @Router      /tenants/{id} [put]
func (h *Handlers) UpdateTenant(c *gin.Context) {
	var p tenant.Patch
	if err := c.ShouldBindJSON(&p); err != nil {
		failBind(c, err)
		return
	}
	t, err := h.tenantSvc.Update(c.Request.Context(), tenantParam(c), p)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, t)
}

// DeleteTenant godoc
// @ID          deleteTenant
// @Summary     Delete a tenant
// @Description The default tenant cannot be deleted.
// @Tags        Tenants
// @Produce     json
// @Param       id  path  string  true  "Tenant id"
// @Success     200  {object}  handlers.Deleted
// @Failure     400  {object}  handlers.ErrorResponse  "Cannot delete default tenant"
// @Failure     404  {object}  handlers.ErrorResponse
// @Router      /tenants/{id} [delete]
func (h *Handlers) DeleteTenant(c *gin.Context) {
	id := tenantParam(c)
	if err := h.tenantSvc.Delete(c.Request.Context(), id); err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, Deleted{Success: true, Message: "Tenant " + id + " deleted"})
}

// TenantCSS godoc
// @ID          tenantCSS
// @Summary     Tenant branding CSS
// @Tags        Tenants
// @Produce     text/css
// @Param       id  path  string  true  "Tenant id"
// @Success     200  {string}  string  "CSS custom properties"
// @Failure     404  {object}  handlers.ErrorResponse
// @Router      /tenants/{id}/css [get]
func (h *Handlers) TenantCSS(c *gin.Context) {
	css, err := h.tenantSvc.CSS(c.Request.Context(), tenantParam(c))
	if err != nil {
		failErr(c, err)
		return
	}
	c.Data(http.StatusOK, "text/css; charset=utf-8", []byte(css))
}

// TenantStats godoc
// @ID          tenantStats
// @Summary     Tenant activity counts
// @Tags        Tenants
// @Produce     json
// @Param       id  path  string  true  "Tenant id"
// @Success     200  {object}  repo.TenantUsage
// @Failure     404  {object}  handlers.ErrorResponse
// @Router      /tenants/{id}/stats [get]
func (h *Handlers) TenantStats(c *gin.Context) {
	st, err := h.tenantSvc.Stats(c.Request.Context(), tenantParam(c))
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, st)
}

func tenantParam(c *gin.Context) string {
	return strings.ToLower(strings.TrimSpace(c.Param("id")))
}
