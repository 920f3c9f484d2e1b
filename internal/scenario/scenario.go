// Package scenario wires a loaded configuration through calibration, grid
// generation and the stress engine. CLI and API share it.
package scenario

import (
	"fmt"

	"rent-stress/internal/calibration"
	"rent-stress/internal/config"
	"rent-stress/internal/stress"
)

// Request selects what to run. Zero values mean "use the configuration".
type Request struct {
	Preset   string
	BaseRate *float64
}

// Outcome is everything downstream collaborators need from one run.
type Outcome struct {
	Calibration *calibration.Resolution
	BaseRate    float64
	Table       *stress.Table
	Summary     stress.Summary
}

// Prepare resolves calibration and grids into engine inputs.
func Prepare(cfg *config.Config, req Request) (stress.Inputs, *calibration.Resolution, error) {
	res, err := calibration.Resolve(&cfg.Calibration, req.Preset)
	if err != nil {
		return stress.Inputs{}, nil, err
	}

	baseRate := cfg.BaseRate()
	if req.BaseRate != nil {
		baseRate = *req.BaseRate
	}

	opts := cfg.GridOptions()

	shockSpec, err := cfg.RateShockSpec()
	if err != nil {
		return stress.Inputs{}, nil, err
	}
	shocks, err := opts.Generate(shockSpec)
	if err != nil {
		return stress.Inputs{}, nil, fmt.Errorf("rate shock grid %s: %w", shockSpec, err)
	}

	occSpec, err := cfg.OccupancySpec(&res.Preset)
	if err != nil {
		return stress.Inputs{}, nil, err
	}
	occ, err := opts.Generate(occSpec)
	if err != nil {
		return stress.Inputs{}, nil, fmt.Errorf("occupancy grid %s: %w", occSpec, err)
	}

	return stress.Inputs{
		Cashflow:     cfg.Cashflow(),
		BaseRate:     baseRate,
		Theta:        res.Theta,
		RateShocksBP: shocks,
		Occupancy:    occ,
	}, res, nil
}

// Run prepares inputs and executes the sweep.
func Run(cfg *config.Config, req Request) (*Outcome, error) {
	in, res, err := Prepare(cfg, req)
	if err != nil {
		return nil, err
	}
	table, err := stress.New().Run(in)
	if err != nil {
		return nil, fmt.Errorf("preset %q: %w", res.Name, err)
	}
	return &Outcome{
		Calibration: res,
		BaseRate:    in.BaseRate,
		Table:       table,
		Summary:     stress.Summarize(table),
	}, nil
}
