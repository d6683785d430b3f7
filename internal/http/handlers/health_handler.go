package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// HealthStatus is the liveness body. Config only reports which integrations
// are configured, never their values.
type HealthStatus struct {
	Status      string          `json:"status" example:"healthy"`
	Timestamp   time.Time       `json:"timestamp"`
	Version     string          `json:"version" example:"2.0.0"`
	Service     string          `json:"service" example:"chatguus-backend"`
	Environment string          `json:"environment" example:"production"`
	Config      map[string]bool `json:"config"`
}

// Health godoc
// @ID          health
// @Summary     Liveness
// @Tags        Health
// @Produce     json
// @Success     200  {object}  handlers.HealthStatus
// @Router      /health [get]
func (h *Handlers) Health(c *gin.Context) {
	cfg := make(map[string]bool, len(h.meta.Integrations))
	for k, v := range h.meta.Integrations {
		cfg[k] = v
	}
	ok(c, http.StatusOK, HealthStatus{
		Status:      "healthy",
		Timestamp:   h.now().UTC(),
		Version:     h.meta.Version,
		Service:     h.meta.Service,
		Environment: h.meta.Environment,
		Config:      cfg,
	})
}
