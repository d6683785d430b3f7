// Package httpapi wires the HTTP transport (Gin) to the application services,
// middleware and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging/redaction, panic recovery, metrics,
// CORS, security headers, tenant resolution, idempotency and rate limiting.
//
// The widget is embedded on third-party sites, so CORS is open unless an
// allowlist is configured and every route answers preflight requests.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/chatguus/chatguus-backend/internal/config"
	"github.com/chatguus/chatguus-backend/internal/http/handlers"
	"github.com/chatguus/chatguus-backend/internal/http/middleware"
	"github.com/chatguus/chatguus-backend/internal/repo"
)

// ServiceName identifies the backend in /health and traces.
const ServiceName = "chatguus-backend"

// maxBodyBytes caps every request body.
const maxBodyBytes = 1 << 20

// Services are the application services behind the routes.
type Services struct {
	Chat         handlers.ChatService
	Satisfaction handlers.SatisfactionService
	AIAnalytics  handlers.AIAnalyticsService
	Tenants      handlers.TenantService
	Usage        handlers.UsageService
}

// RegisterRoutes attaches all middleware and HTTP endpoints to r. /health
// and /metrics live at the root; the widget API is mounted under
// cfg.APIBasePath.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. RedactingLogger: structured logs with PII scrubbing
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Metrics
//  7. CORS, security headers and compression
//
// On the API group:
//  8. Tenant resolution (scopes idempotency and rate limiting)
//  9. Idempotency validator (before rate limiter to allow bypass on replay)
//  10. Rate limiter (per tenant and IP, bypass on replay)
func RegisterRoutes(r *gin.Engine, db *gorm.DB, svc Services, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	serviceName := cfg.OTEL.ServiceName
	if serviceName == "" {
		serviceName = ServiceName
	}

	r.Use(otelgin.Middleware(serviceName))
	r.Use(middleware.RequestID())
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{
		MaskHeaders: []string{"X-API-Key"},
	}))
	r.Use(middleware.Recovery())
	r.Use(limitBody(maxBodyBytes))

	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.Use(corsMiddleware(cfg.CORS.AllowedOrigins)...)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      false,
		EnablePolicy: true,
	}))
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})))

	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "Route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "Method not allowed")
	})

	h := handlers.New(handlers.Deps{
		Chat:         svc.Chat,
		Satisfaction: svc.Satisfaction,
		AIAnalytics:  svc.AIAnalytics,
		Tenants:      svc.Tenants,
		Usage:        svc.Usage,
		Idempotency:  idempotencyRecorder(db, cfg.IdempotencyTTL),
		Meta:         buildMeta(cfg, serviceName, db != nil),
	})

	r.GET("/health", h.Health)

	api := groupWithPrefix(r, cfg.APIBasePath)
	api.Use(middleware.Tenant(svc.Tenants.Resolve))
	api.Use(middleware.IdempotencyValidator(
		middleware.IdempotencyOptions{MaxLen: 200},
		idempotencyLookup(db),
	))
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByTenantAndIP())
	api.Use(rl.Handler())
	{
		if api.BasePath() != "/" {
			api.GET("/health", h.Health)
		}

		api.POST("/chat", h.PostChat)

		api.POST("/satisfaction", h.SubmitSatisfaction)
		api.GET("/satisfaction", h.SatisfactionReport)

		api.GET("/ai-analytics", h.AIAnalytics)
		api.POST("/ai-analytics", h.AIAnalytics)

		api.GET("/tenants", h.ListTenants)
		api.POST("/tenants", h.CreateTenant)
		api.GET("/tenants/:id", h.GetTenant)
		api.PUT("/tenants/:id", h.UpdateTenant)
		api.DELETE("/tenants/:id", h.DeleteTenant)
		api.GET("/tenants/:id/css", h.TenantCSS)
		api.GET("/tenants/:id/stats", h.TenantStats)

		api.GET("/widget", h.Widget)
		api.POST("/analytics", h.RecordUsage)
	}
}

// corsMiddleware allows every origin when allowed is empty and echoes
// allowlisted origins otherwise.
func corsMiddleware(allowed []string) []gin.HandlerFunc {
	base := cors.Config{
		AllowMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders: []string{
			"Origin", "Content-Type", "Accept", "Authorization",
			"X-Tenant-ID", "X-Tenant", "X-Request-ID", middleware.HeaderIdempotencyKey,
		},
		ExposeHeaders:    []string{"X-Request-ID", "Content-Length", "ETag", "Retry-After"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}

	if len(allowed) == 0 {
		base.AllowAllOrigins = true
		return []gin.HandlerFunc{
			// ACAO: * even without an Origin header (health checks, curl).
			func(c *gin.Context) {
				c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
				c.Next()
			},
			cors.New(base),
		}
	}

	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		set[o] = struct{}{}
	}
	base.AllowOrigins = allowed
	return []gin.HandlerFunc{
		func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := set[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		},
		cors.New(base),
	}
}

// idempotencyLookup reports whether (scope, key) completed and has not
// expired. Store errors count as unseen.
func idempotencyLookup(db *gorm.DB) middleware.IdempotencyLookup {
	if db == nil {
		return nil
	}
	return func(ctx context.Context, scope, key string, now time.Time) (bool, error) {
		rec, err := repo.GetIdempotency(ctx, db, scope, key, now)
		if err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return false, nil
			}
			return false, err
		}
		return rec != nil, nil
	}
}

// idempotencyRecorder stores completed keys for ttl. A concurrent duplicate
// is not an error: the first writer already recorded the outcome.
func idempotencyRecorder(db *gorm.DB, ttl time.Duration) handlers.IdempotencyRecorder {
	if db == nil {
		return nil
	}
	return func(ctx context.Context, scope, key, resourceID string, status int) error {
		_, err := repo.CreateIdempotency(ctx, db, scope, key, resourceID, status, ttl)
		if errors.Is(err, repo.ErrDuplicate) {
			return nil
		}
		return err
	}
}

func buildMeta(cfg config.Config, serviceName string, database bool) handlers.Meta {
	endpoint := strings.TrimRight(cfg.PublicBaseURL, "/") + cfg.APIBasePath
	if cfg.APIBasePath == "/" {
		endpoint = strings.TrimRight(cfg.PublicBaseURL, "/")
	}
	return handlers.Meta{
		Service:     serviceName,
		Version:     cfg.Version,
		Environment: cfg.Env,
		Development: cfg.IsDevelopment(),
		APIEndpoint: endpoint,
		Integrations: map[string]bool{
			"openai":   cfg.OpenAI.Enabled(),
			"email":    cfg.Email.SMTPConfigured(),
			"sheets":   cfg.Integrations.SheetsConfigured,
			"database": database,
			"mongodb":  cfg.Integrations.MongoURIPresent,
			"slack":    cfg.Integrations.SlackConfigured,
			"redis":    cfg.Integrations.RedisConfigured,
			"amqp":     cfg.Integrations.AMQPConfigured,
		},
	}
}

// limitBody caps the request body size at maxBytes using
// http.MaxBytesReader. Oversized bodies fail on read.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
