package models

import (
	"rent-stress/internal/store"
	"rent-stress/internal/stress"
)

// PresetsResponse lists calibration presets
type PresetsResponse struct {
	DefaultPreset string       `json:"default_preset"`
	Presets       []PresetInfo `json:"presets"`
}

// PresetInfo describes one preset and the theta it resolves to. A preset
// that cannot be resolved is still listed, with Error set.
type PresetInfo struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Default     bool     `json:"default"`
	Theta       *float64 `json:"theta,omitempty"`
	ThetaSource string   `json:"theta_source,omitempty"`
	Error       string   `json:"error,omitempty"`
}

// StressResponse represents the response from a stress sweep
type StressResponse struct {
	ID           string         `json:"id,omitempty"` // set when the run was archived
	Status       string         `json:"status"`
	Preset       string         `json:"preset"`
	ThetaSource  string         `json:"theta_source"`
	Theta        float64        `json:"theta"`
	Debt         float64        `json:"debt"`
	BaseRate     float64        `json:"base_rate"`
	RateShocksBP []float64      `json:"rate_shocks_bp"`
	Occupancy    []float64      `json:"occupancy_multipliers"`
	Summary      stress.Summary `json:"summary"`
	Rows         []stress.Row   `json:"rows,omitempty"`
}

// BreakEvenResponse compares analytical and swept break-even occupancy
type BreakEvenResponse struct {
	Preset   string                  `json:"preset"`
	Theta    float64                 `json:"theta"`
	Debt     float64                 `json:"debt"`
	BaseRate float64                 `json:"base_rate"`
	Curve    []stress.BreakEvenPoint `json:"curve"`
}

// RunsResponse lists archived runs
type RunsResponse struct {
	Runs []store.Run `json:"runs"`
}

// RowsResponse carries an archived result table
type RowsResponse struct {
	ID   string       `json:"id"`
	Rows []stress.Row `json:"rows"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information
type ErrorDetail struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}
