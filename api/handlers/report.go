package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/OldStager01/getaround-pricing/internal/dataset"
	"github.com/OldStager01/getaround-pricing/internal/delay"
	"github.com/OldStager01/getaround-pricing/internal/logger"
	"github.com/OldStager01/getaround-pricing/internal/resilience"
)

// DelayReporter is satisfied by *delay.Reporter.
type DelayReporter interface {
	Report(ctx context.Context) (*delay.Report, error)
}

type ReportHandler struct {
	reporter DelayReporter
}

func NewReportHandler(reporter DelayReporter) *ReportHandler {
	return &ReportHandler{reporter: reporter}
}

// Delays godoc
// @Summary Checkout delay report
// @Description Delay buckets per state and checkin type, late driver statistics, revenue loss and threshold simulation.
// @Tags Reports
// @Produce json
// @Success 200 {object} delay.Report
// @Failure 502 {object} map[string]string "Dataset could not be fetched"
// @Failure 503 {object} map[string]string "Dataset source unavailable"
// @Failure 500 {object} map[string]string "Dataset could not be analyzed"
// @Router /report/delays [get]
func (h *ReportHandler) Delays(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 60*time.Second)
	defer cancel()

	report, err := h.reporter.Report(ctx)
	if err != nil {
		logger.FromContext(c.Request.Context()).Errorf("failed to build delay report: %v", err)
		c.JSON(reportStatus(err), gin.H{"error": "failed to build delay report"})
		return
	}

	c.JSON(http.StatusOK, report)
}

func reportStatus(err error) int {
	switch {
	case errors.Is(err, resilience.ErrCircuitOpen), errors.Is(err, dataset.ErrNotFound):
		return http.StatusServiceUnavailable
	case errors.Is(err, dataset.ErrFetchFailed), errors.Is(err, dataset.ErrTimeout):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
