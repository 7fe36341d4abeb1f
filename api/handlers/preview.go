package handlers

import (
	"context"
	"math/rand"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-gota/gota/dataframe"

	"github.com/OldStager01/getaround-pricing/internal/dataset"
	"github.com/OldStager01/getaround-pricing/internal/logger"
)

// PricingSource is satisfied by *dataset.Store.
type PricingSource interface {
	Pricing(ctx context.Context) (dataframe.DataFrame, error)
}

type PreviewHandler struct {
	source      PricingSource
	defaultRows int
	maxRows     int

	mu  sync.Mutex
	rng *rand.Rand
}

func NewPreviewHandler(source PricingSource, defaultRows, maxRows int) *PreviewHandler {
	if maxRows <= 0 {
		maxRows = 100
	}
	if defaultRows <= 0 || defaultRows > maxRows {
		defaultRows = min(5, maxRows)
	}
	return &PreviewHandler{
		source:      source,
		defaultRows: defaultRows,
		maxRows:     maxRows,
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Preview godoc
// @Summary Preview the pricing dataset
// @Description Returns random rows of the pricing dataset as a JSON-encoded string holding an array of records.
// @Tags Dataset
// @Produce json
// @Param rows query int false "Number of rows (default 5)"
// @Success 200 {string} string "JSON array of records"
// @Failure 400 {object} map[string]string "Invalid rows parameter"
// @Failure 503 {object} map[string]string "Dataset unavailable"
// @Router / [get]
func (h *PreviewHandler) Preview(c *gin.Context) {
	rows := h.defaultRows
	if raw := c.Query("rows"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "rows must be a positive integer"})
			return
		}
		rows = min(n, h.maxRows)
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
	defer cancel()

	df, err := h.source.Pricing(ctx)
	if err != nil {
		logger.FromContext(c.Request.Context()).Errorf("failed to load pricing dataset: %v", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "pricing dataset unavailable"})
		return
	}

	h.mu.Lock()
	sample := dataset.Sample(df, rows, h.rng)
	h.mu.Unlock()

	body, err := dataset.RecordsJSON(sample)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to encode dataset"})
		return
	}

	c.JSON(http.StatusOK, body)
}
