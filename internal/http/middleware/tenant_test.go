package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/chatguus/chatguus-backend/internal/domain"
	"github.com/chatguus/chatguus-backend/internal/tenant"
)

func TestTenant_ResolvesAndStores(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var seen tenant.Identifier
	resolve := func(_ context.Context, id tenant.Identifier) *domain.Tenant {
		seen = id
		return &domain.Tenant{ID: "demo-company"}
	}

	r := gin.New()
	r.Use(Tenant(resolve))
	r.GET("/chat", func(c *gin.Context) {
		if got := TenantFrom(c); got == nil || got.ID != "demo-company" {
			t.Fatalf("TenantFrom = %+v", got)
		}
		if asString(mustGet(c, tenantIDKey)) != "demo-company" {
			t.Fatalf("tenant id not stored")
		}
		if IdentifierFrom(c) != seen {
			t.Fatalf("identifier mismatch: %+v vs %+v", IdentifierFrom(c), seen)
		}
		c.Status(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/chat?tenantId=q-tenant", nil)
	req.Host = "demo.example.com"
	req.Header.Set("X-Tenant", "h-tenant")
	req.Header.Set("Origin", "https://www.demo.example.com")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d", w.Code)
	}
	want := tenant.Identifier{
		Header: "h-tenant",
		Query:  "q-tenant",
		Host:   "demo.example.com",
		Origin: "https://www.demo.example.com",
	}
	if seen != want {
		t.Fatalf("identifier = %+v, want %+v", seen, want)
	}
}

func TestRequestIdentifier_Precedence(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	req := httptest.NewRequest(http.MethodGet, "/?tenant=a&tenantId=b", nil)
	req.Header.Set("X-Tenant-ID", "primary")
	req.Header.Set("X-Tenant", "secondary")
	c.Request = req

	id := RequestIdentifier(c)
	if id.Query != "a" || id.Header != "primary" || id.ID != "" {
		t.Fatalf("identifier = %+v", id)
	}
}

func TestTenantFrom_Absent(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/?tenant=koepel", nil)

	if TenantFrom(c) != nil {
		t.Fatalf("expected nil tenant")
	}
	if id := IdentifierFrom(c); id.Query != "koepel" {
		t.Fatalf("fallback identifier = %+v", id)
	}
}
