// Package calibration selects a named preset and derives theta, the
// rent-to-debt ratio that fixes the debt balance for a stress run.
package calibration

import (
	"fmt"
	"strings"

	"rent-stress/internal/config"
	"rent-stress/internal/model"
)

// Resolution is the canonical output of Resolve.
type Resolution struct {
	Theta    float64
	Name     string
	Encoding string
	Preset   config.Preset
}

// Encoding is one way a preset can express theta. Encodings are tried in
// the order of Encodings; the first whose Present reports true is used.
type Encoding struct {
	Name    string
	Present func(p config.Preset) bool
	Extract func(p config.Preset) (float64, error)
}

// Encodings is the precedence order for theta derivation.
var Encodings = []Encoding{
	{
		Name:    "rent_to_debt_ratio",
		Present: func(p config.Preset) bool { return p.RentToDebtRatio != nil },
		Extract: func(p config.Preset) (float64, error) { return *p.RentToDebtRatio, nil },
	},
	{
		Name:    "gross_yield and ltv",
		Present: func(p config.Preset) bool { return p.GrossYield != nil && p.LTV != nil },
		Extract: func(p config.Preset) (float64, error) { return model.ThetaFromYieldLTV(*p.GrossYield, *p.LTV) },
	},
	{
		Name: "annual_rent and mortgage_balance",
		Present: func(p config.Preset) bool {
			rent, balance := rentAndBalance(p)
			return rent != nil && balance != nil
		},
		Extract: func(p config.Preset) (float64, error) {
			rent, balance := rentAndBalance(p)
			if *balance <= 0 {
				return 0, &model.InvalidInputError{Field: "mortgage_balance", Value: *balance, Reason: "must be > 0"}
			}
			return *rent / *balance, nil
		},
	},
}

// rentAndBalance prefers the plain spelling and falls back to the
// currency-suffixed legacy keys.
func rentAndBalance(p config.Preset) (rent, balance *float64) {
	rent, balance = p.AnnualRent, p.MortgageBalance
	if rent == nil {
		rent = p.AnnualRentGBP
	}
	if balance == nil {
		balance = p.MortgageBalanceGBP
	}
	return rent, balance
}

func encodingNames() []string {
	out := make([]string, len(Encodings))
	for i, e := range Encodings {
		out[i] = e.Name
	}
	return out
}

// Resolve picks the preset named requested (or the configured default when
// requested is empty) and derives its theta.
func Resolve(cal *config.Calibration, requested string) (*Resolution, error) {
	if cal == nil {
		return nil, fmt.Errorf("calibration section missing: %w", model.ErrConfiguration)
	}
	name := requested
	if name == "" {
		name = cal.DefaultPreset
	}
	preset, ok := cal.Presets[name]
	if !ok {
		return nil, &PresetNotFoundError{Name: name, Available: cal.PresetNames()}
	}
	theta, encoding, err := Theta(preset)
	if err != nil {
		return nil, fmt.Errorf("preset %q: %w", name, err)
	}
	return &Resolution{Theta: theta, Name: name, Encoding: encoding, Preset: preset}, nil
}

// Theta derives the rent/debt ratio from the first encoding present on p.
func Theta(p config.Preset) (float64, string, error) {
	for _, enc := range Encodings {
		if !enc.Present(p) {
			continue
		}
		theta, err := enc.Extract(p)
		if err != nil {
			return 0, enc.Name, err
		}
		if theta <= 0 {
			return 0, enc.Name, &model.InvalidInputError{Field: "theta", Value: theta, Reason: "rent/debt ratio must be > 0"}
		}
		return theta, enc.Name, nil
	}
	return 0, "", &MissingEncodingError{Accepted: encodingNames()}
}

// PresetNotFoundError lists the presets that do exist.
type PresetNotFoundError struct {
	Name      string
	Available []string
}

func (e *PresetNotFoundError) Error() string {
	return fmt.Sprintf("unknown preset %q. Available: [%s]", e.Name, strings.Join(e.Available, ", "))
}

func (e *PresetNotFoundError) Unwrap() error { return model.ErrConfiguration }

// MissingEncodingError names every accepted theta encoding.
type MissingEncodingError struct {
	Accepted []string
}

func (e *MissingEncodingError) Error() string {
	return "preset must define " + strings.Join(e.Accepted, " OR ")
}

func (e *MissingEncodingError) Unwrap() error { return model.ErrConfiguration }
