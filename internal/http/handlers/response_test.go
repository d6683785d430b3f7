package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/chatguus/chatguus-backend/internal/services"
)

func Test_fail_500_LogsAndBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	// capture logs from LoggerFrom(c)
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	// simulate RequestID + request-scoped logger
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("X-Request-ID", "rid-500")
		c.Set("logger", &logger)
		c.Next()
	})
	r.GET("/boom", func(c *gin.Context) {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "kaboom")
	})

	w := do(r, http.MethodGet, "/boom", nil)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status=%d", w.Code)
	}
	resp := decode[ErrorResponse](t, w)
	if resp.RequestID != "rid-500" || resp.Code != ErrCodeInternal || resp.Error != "kaboom" {
		t.Fatalf("unexpected body: %+v", resp)
	}
	if !strings.Contains(buf.String(), `"level":"error"`) {
		t.Fatalf("expected error log, got: %s", buf.String())
	}
}

func Test_Fail_4xx_NotLogged(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	r.Use(func(c *gin.Context) {
		c.Set("logger", &logger)
		c.Next()
	})
	r.GET("/missing", func(c *gin.Context) {
		Fail(c, http.StatusNotFound, ErrCodeNotFound, "nope")
	})

	w := do(r, http.MethodGet, "/missing", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status=%d", w.Code)
	}
	if strings.Contains(w.Body.String(), "details") {
		t.Fatalf("empty details must be omitted: %s", w.Body.String())
	}
	if buf.Len() != 0 {
		t.Fatalf("4xx logged: %s", buf.String())
	}
}

func Test_failErr_Mapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantMsg    string
	}{
		{"validation", services.NewValidationError("Invalid message", "Message too long"), http.StatusBadRequest, ErrCodeValidation, "Invalid message"},
		{"wrapped validation", fmt.Errorf("create: %w", services.NewValidationError("Invalid tenant configuration")), http.StatusBadRequest, ErrCodeValidation, "Invalid tenant configuration"},
		{"not found", &services.NotFoundError{Message: "Tenant x not found", Kind: services.ErrTenantNotFound}, http.StatusNotFound, ErrCodeNotFound, "Tenant x not found"},
		{"bare not found", services.ErrNotFound, http.StatusNotFound, ErrCodeNotFound, "Not found"},
		{"exists", services.ErrTenantExists, http.StatusConflict, ErrCodeConflict, "Tenant already exists"},
		{"default protected", services.ErrDefaultTenantProtected, http.StatusBadRequest, ErrCodeValidation, "Cannot delete default tenant"},
		{"unknown", errors.New("sql: connection refused"), http.StatusInternalServerError, ErrCodeInternal, "Internal server error"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			gin.SetMode(gin.TestMode)
			r := gin.New()
			r.GET("/x", func(c *gin.Context) { failErr(c, tc.err) })

			w := do(r, http.MethodGet, "/x", nil)
			if w.Code != tc.wantStatus {
				t.Fatalf("status=%d", w.Code)
			}
			resp := decode[ErrorResponse](t, w)
			if resp.Code != tc.wantCode || resp.Error != tc.wantMsg {
				t.Fatalf("resp = %+v", resp)
			}
			if strings.Contains(w.Body.String(), "connection refused") {
				t.Fatalf("internal error text leaked")
			}
		})
	}
}
