package handlers

import (
	"errors"
	"log"
	"net/http"

	"rent-stress/internal/api/models"
	"rent-stress/internal/calibration"
	"rent-stress/internal/model"
	"rent-stress/internal/store"
	"rent-stress/internal/stress"

	"github.com/gin-gonic/gin"
)

// respondError maps domain errors onto the API error envelope.
func respondError(c *gin.Context, err error) {
	status, detail := classify(err)
	if status >= http.StatusInternalServerError {
		log.Printf("API: %s %s failed: %v", c.Request.Method, c.FullPath(), err)
	}
	c.JSON(status, models.ErrorResponse{Error: detail})
}

func classify(err error) (int, models.ErrorDetail) {
	detail := models.ErrorDetail{Message: err.Error()}

	var cell *stress.DegenerateCellError
	var notFound *calibration.PresetNotFoundError
	var bad *model.InvalidInputError

	switch {
	// checked first: a degenerate cell also wraps ErrInvalidInput
	case errors.As(err, &cell):
		detail.Code = "NUMERIC_DEGENERACY"
		detail.Details = map[string]interface{}{
			"rate_shock_bp":        cell.RateShockBP,
			"occupancy_multiplier": cell.OccupancyMultiplier,
			"interest_rate":        cell.InterestRate,
		}
		return http.StatusUnprocessableEntity, detail
	case errors.Is(err, model.ErrNumericDegeneracy):
		detail.Code = "NUMERIC_DEGENERACY"
		return http.StatusUnprocessableEntity, detail
	case errors.As(err, &notFound):
		detail.Code = "CONFIGURATION_ERROR"
		detail.Details = map[string]interface{}{"available": notFound.Available}
		return http.StatusNotFound, detail
	case errors.Is(err, model.ErrConfiguration):
		detail.Code = "CONFIGURATION_ERROR"
		return http.StatusBadRequest, detail
	case errors.As(err, &bad):
		detail.Code = "INVALID_INPUT"
		detail.Details = map[string]interface{}{"field": bad.Field, "value": bad.Value}
		return http.StatusBadRequest, detail
	case errors.Is(err, model.ErrInvalidInput):
		detail.Code = "INVALID_INPUT"
		return http.StatusBadRequest, detail
	case errors.Is(err, store.ErrRunNotFound):
		detail.Code = "NOT_FOUND"
		return http.StatusNotFound, detail
	}

	detail.Code = "INTERNAL_ERROR"
	return http.StatusInternalServerError, detail
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, models.ErrorResponse{
		Error: models.ErrorDetail{
			Code:    "INVALID_REQUEST",
			Message: err.Error(),
		},
	})
}
