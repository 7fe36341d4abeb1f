package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/OldStager01/getaround-pricing/internal/logger"
	"github.com/OldStager01/getaround-pricing/internal/normalizer"
	"github.com/OldStager01/getaround-pricing/internal/pipeline"
)

type ModelHandler struct {
	pipeline *pipeline.Pipeline
	loadErr  error
}

// NewModelHandler describes p. p is nil when the artifacts failed to load;
// loadErr is then logged, never returned to the client.
func NewModelHandler(p *pipeline.Pipeline, loadErr error) *ModelHandler {
	return &ModelHandler{pipeline: p, loadErr: loadErr}
}

type ModelResponse struct {
	Pipeline      *pipeline.Info      `json:"pipeline,omitempty"`
	Error         string              `json:"error,omitempty"`
	ExclusionSets map[string][]string `json:"exclusion_sets"`
	Categories    map[string][]string `json:"categories,omitempty"`
}

// Info godoc
// @Summary Describe the loaded pricing pipeline
// @Description Artifact versions, regressor kind, feature count, the category exclusion sets and the known categories.
// @Tags Prediction
// @Produce json
// @Success 200 {object} ModelResponse
// @Failure 503 {object} ModelResponse "Artifacts not loaded"
// @Router /model [get]
func (h *ModelHandler) Info(c *gin.Context) {
	resp := ModelResponse{ExclusionSets: make(map[string][]string)}
	for _, field := range normalizer.Fields() {
		resp.ExclusionSets[string(field)] = normalizer.ExclusionSet(field)
	}

	if h.pipeline == nil {
		if h.loadErr != nil {
			logger.FromContext(c.Request.Context()).Warnf("model info requested without pipeline: %v", h.loadErr)
		}
		resp.Error = "pipeline not loaded"
		c.JSON(http.StatusServiceUnavailable, resp)
		return
	}

	info := h.pipeline.Info()
	resp.Pipeline = &info
	resp.Categories = make(map[string][]string)
	for _, column := range []string{"model_key", "fuel", "paint_color", "car_type"} {
		if cats := h.pipeline.Preprocessor().Categories(column); len(cats) > 0 {
			resp.Categories[column] = cats
		}
	}

	c.JSON(http.StatusOK, resp)
}
