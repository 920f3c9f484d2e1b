package handlers

import (
	"net/http"

	"rent-stress/internal/api/models"
	"rent-stress/internal/calibration"
	"rent-stress/internal/config"

	"github.com/gin-gonic/gin"
)

// PresetHandler handles calibration preset requests
type PresetHandler struct {
	cfg *config.Config
}

// NewPresetHandler creates a new preset handler
func NewPresetHandler(cfg *config.Config) *PresetHandler {
	return &PresetHandler{cfg: cfg}
}

// ListPresets handles GET /api/v1/presets
func (h *PresetHandler) ListPresets(c *gin.Context) {
	cal := h.cfg.Calibration
	resp := models.PresetsResponse{
		DefaultPreset: cal.DefaultPreset,
		Presets:       []models.PresetInfo{},
	}

	for _, name := range cal.PresetNames() {
		p := cal.Presets[name]
		info := models.PresetInfo{
			Name:        name,
			Description: p.Description,
			Default:     name == cal.DefaultPreset,
		}
		theta, source, err := calibration.Theta(p)
		if err != nil {
			info.Error = err.Error()
		} else {
			info.Theta = &theta
			info.ThetaSource = source
		}
		resp.Presets = append(resp.Presets, info)
	}

	c.JSON(http.StatusOK, resp)
}
