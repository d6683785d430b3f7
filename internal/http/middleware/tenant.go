package middleware

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/chatguus/chatguus-backend/internal/domain"
	"github.com/chatguus/chatguus-backend/internal/tenant"
)

const (
	tenantKey     = "tenant"
	tenantIDKey   = "tenantID"
	identifierKey = "tenant.identifier"
)

// TenantResolver selects the tenant for a request. It must not return nil.
type TenantResolver func(ctx context.Context, id tenant.Identifier) *domain.Tenant

// Tenant resolves the tenant of every request from ?tenant= / ?tenantId=,
// the X-Tenant-ID / X-Tenant headers, the Host and the Origin, and stores the
// tenant, its id and the raw identifier in the Gin context.
func Tenant(resolve TenantResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := RequestIdentifier(c)
		c.Set(identifierKey, id)
		if t := resolve(c.Request.Context(), id); t != nil {
			c.Set(tenantKey, t)
			c.Set(tenantIDKey, t.ID)
		}
		c.Next()
	}
}

// RequestIdentifier builds the tenant identifier of a request. The explicit
// ID is left empty; handlers fill it from a body field when they have one.
func RequestIdentifier(c *gin.Context) tenant.Identifier {
	q := c.Query("tenant")
	if q == "" {
		q = c.Query("tenantId")
	}
	h := c.GetHeader("X-Tenant-ID")
	if h == "" {
		h = c.GetHeader("X-Tenant")
	}
	return tenant.Identifier{
		Header: h,
		Query:  q,
		Host:   c.Request.Host,
		Origin: c.GetHeader("Origin"),
	}
}

// TenantFrom returns the tenant resolved by Tenant, or nil.
func TenantFrom(c *gin.Context) *domain.Tenant {
	if v, ok := c.Get(tenantKey); ok {
		if t, ok := v.(*domain.Tenant); ok {
			return t
		}
	}
	return nil
}

// IdentifierFrom returns the identifier stored by Tenant, building it when
// the middleware did not run.
func IdentifierFrom(c *gin.Context) tenant.Identifier {
	if v, ok := c.Get(identifierKey); ok {
		if id, ok := v.(tenant.Identifier); ok {
			return id
		}
	}
	return RequestIdentifier(c)
}
