package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/OldStager01/getaround-pricing/internal/prediction"
	"github.com/OldStager01/getaround-pricing/pkg/models"
)

// Predictor is satisfied by *prediction.Service.
type Predictor interface {
	Predict(ctx context.Context, features models.CarFeatures) models.PredictionResponse
}

type PredictHandler struct {
	service Predictor
}

func NewPredictHandler(service Predictor) *PredictHandler {
	return &PredictHandler{service: service}
}

// BindingErrorResponse is returned when the body does not match the request schema.
type BindingErrorResponse struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// Predict godoc
// @Summary Predict a daily rental price
// @Description Returns the estimated rental price per day in dollars. Any pipeline failure yields the usage hint with status 200.
// @Tags Prediction
// @Accept json
// @Produce json
// @Param request body models.PredictionRequest true "Car features"
// @Success 200 {object} models.PredictionResponse
// @Failure 422 {object} BindingErrorResponse "Missing field or wrong type"
// @Router /predict [post]
func (h *PredictHandler) Predict(c *gin.Context) {
	var req models.PredictionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, BindingErrorResponse{
			Message: prediction.UsageHint,
			Error:   err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, h.service.Predict(c.Request.Context(), req.ToFeatures()))
}
