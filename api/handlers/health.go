package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/OldStager01/getaround-pricing/internal/logger"
	"github.com/OldStager01/getaround-pricing/pkg/database"
)

const healthTimeout = 5 * time.Second

type healthCheck struct {
	name string
	run  func(ctx context.Context) error
}

// HealthHandler runs the readiness checks: the model pipeline always, the
// audit database only when one is configured.
type HealthHandler struct {
	checks []healthCheck
}

func NewHealthHandler(ready func() error, db *database.DB) *HealthHandler {
	h := &HealthHandler{}
	h.checks = append(h.checks, healthCheck{
		name: "pipeline",
		run:  func(context.Context) error { return ready() },
	})
	if db != nil {
		h.checks = append(h.checks, healthCheck{name: "database", run: db.HealthCheck})
	}
	return h
}

type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

func (h *HealthHandler) run(c *gin.Context) (map[string]string, bool) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	results := make(map[string]string, len(h.checks))
	ok := true
	for _, check := range h.checks {
		if err := check.run(ctx); err != nil {
			logger.FromContext(ctx).WithField("check", check.name).Warnf("health check failed: %v", err)
			results[check.name] = "unhealthy"
			ok = false
			continue
		}
		results[check.name] = "healthy"
	}
	return results, ok
}

func respondHealth(c *gin.Context, code int, status string, checks map[string]string) {
	c.JSON(code, HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
	})
}

// Health godoc
// @Summary Service health
// @Tags Health
// @Produce json
// @Success 200 {object} HealthResponse
// @Failure 503 {object} HealthResponse
// @Router /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	checks, ok := h.run(c)
	if !ok {
		respondHealth(c, http.StatusServiceUnavailable, "unhealthy", checks)
		return
	}
	respondHealth(c, http.StatusOK, "healthy", checks)
}

// Ready answers 503 until every check passes.
func (h *HealthHandler) Ready(c *gin.Context) {
	if _, ok := h.run(c); !ok {
		respondHealth(c, http.StatusServiceUnavailable, "not ready", nil)
		return
	}
	respondHealth(c, http.StatusOK, "ready", nil)
}

// Live only reports that the process is serving requests.
func (h *HealthHandler) Live(c *gin.Context) {
	respondHealth(c, http.StatusOK, "alive", nil)
}
