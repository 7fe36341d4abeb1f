package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/OldStager01/getaround-pricing/internal/logger"
	"github.com/OldStager01/getaround-pricing/pkg/models"
)

// PredictionStore is satisfied by *queries.PredictionRepository.
type PredictionStore interface {
	GetRecent(ctx context.Context, limit int) ([]models.PredictionRecord, error)
	CountByErrorKind(ctx context.Context, since time.Time) (map[string]int, error)
}

type PredictionsHandler struct {
	store        PredictionStore
	defaultLimit int
	maxLimit     int
}

// NewPredictionsHandler serves the audit log. store is nil when the database
// is disabled.
func NewPredictionsHandler(store PredictionStore, defaultLimit, maxLimit int) *PredictionsHandler {
	if maxLimit <= 0 {
		maxLimit = 500
	}
	if defaultLimit <= 0 || defaultLimit > maxLimit {
		defaultLimit = min(50, maxLimit)
	}
	return &PredictionsHandler{store: store, defaultLimit: defaultLimit, maxLimit: maxLimit}
}

// Recent godoc
// @Summary Recent predictions
// @Description Latest audited predictions, newest first.
// @Tags Prediction
// @Produce json
// @Param limit query int false "Maximum records (default 50)"
// @Success 200 {object} map[string]interface{} "Recent predictions"
// @Failure 400 {object} map[string]string "Invalid limit"
// @Failure 404 {object} map[string]string "Audit store disabled"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /predictions/recent [get]
func (h *PredictionsHandler) Recent(c *gin.Context) {
	if h.store == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "prediction audit store is disabled"})
		return
	}

	limit := h.defaultLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = min(n, h.maxLimit)
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	records, err := h.store.GetRecent(ctx, limit)
	if err != nil {
		logger.FromContext(c.Request.Context()).Errorf("failed to fetch predictions: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch predictions"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"predictions": records,
		"count":       len(records),
	})
}

// Stats godoc
// @Summary Prediction outcomes
// @Description Predictions per outcome over a time window ("ok" or an error kind).
// @Tags Prediction
// @Produce json
// @Param window query string false "Window as a Go duration (default 24h)"
// @Success 200 {object} map[string]interface{} "Counts by outcome"
// @Failure 400 {object} map[string]string "Invalid window"
// @Failure 404 {object} map[string]string "Audit store disabled"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /predictions/stats [get]
func (h *PredictionsHandler) Stats(c *gin.Context) {
	if h.store == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "prediction audit store is disabled"})
		return
	}

	window := 24 * time.Hour
	if raw := c.Query("window"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "window must be a positive duration"})
			return
		}
		window = d
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	counts, err := h.store.CountByErrorKind(ctx, time.Now().Add(-window))
	if err != nil {
		logger.FromContext(c.Request.Context()).Errorf("failed to count predictions: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to count predictions"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"window": window.String(),
		"counts": counts,
	})
}
