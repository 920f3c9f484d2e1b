package models

// StressRequest represents the request body for running a stress sweep.
// Every field is optional; zero values fall back to the loaded assumptions.
type StressRequest struct {
	Preset      string   `json:"preset,omitempty"`
	BaseRate    *float64 `json:"base_rate,omitempty"`
	IncludeRows bool     `json:"include_rows,omitempty"` // default: false
}

// BreakEvenRequest represents the query for the break-even curve
type BreakEvenRequest struct {
	Preset   string   `form:"preset"`
	BaseRate *float64 `form:"base_rate"`
}

// ListRunsRequest filters archived runs
type ListRunsRequest struct {
	Preset string `form:"preset"`
}

// RowsRequest selects the encoding of archived rows
type RowsRequest struct {
	Format string `form:"format"` // "json" (default) or "csv"
}
