package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"rent-stress/internal/grid"
	"rent-stress/internal/model"

	"github.com/hjson/hjson-go/v4"
	"gopkg.in/yaml.v3"
)

// DefaultBaseRate is used when financing.base_interest_rate_value is absent.
const DefaultBaseRate = 0.05

// DefaultResultsDir is where CSV and report artifacts go unless output.results_dir is set.
const DefaultResultsDir = "results"

// Config is the on-disk assumptions shape (YAML, or HJSON/JSON).
type Config struct {
	BaseCashflow       BaseCashflowConfig `yaml:"base_cashflow" json:"base_cashflow"`
	Financing          FinancingConfig    `yaml:"financing" json:"financing"`
	InterestRateStress InterestRateStress `yaml:"interest_rate_stress" json:"interest_rate_stress"`
	RevenueStress      RevenueStress      `yaml:"revenue_stress" json:"revenue_stress"`
	Calibration        Calibration        `yaml:"calibration" json:"calibration"`
	Grid               GridConfig         `yaml:"grid" json:"grid"`
	Output             OutputConfig       `yaml:"output" json:"output"`
}

type BaseCashflowConfig struct {
	GrossAnnualRent    float64 `yaml:"gross_annual_rent" json:"gross_annual_rent"`
	OperatingCostRatio float64 `yaml:"operating_cost_ratio" json:"operating_cost_ratio"`
}

type FinancingConfig struct {
	BaseInterestRateValue *float64 `yaml:"base_interest_rate_value" json:"base_interest_rate_value,omitempty"`
}

// InterestRateStress is either an explicit shocks_bp list (legacy) or a bp range.
type InterestRateStress struct {
	ShocksBP []float64 `yaml:"shocks_bp" json:"shocks_bp,omitempty"`
	StartBP  *float64  `yaml:"start_bp" json:"start_bp,omitempty"`
	StopBP   *float64  `yaml:"stop_bp" json:"stop_bp,omitempty"`
	StepBP   *float64  `yaml:"step_bp" json:"step_bp,omitempty"`
}

// OccupancyRange is either {start, stop, step} or a named multiplier map (legacy).
type OccupancyRange struct {
	Start                *float64           `yaml:"start" json:"start,omitempty"`
	Stop                 *float64           `yaml:"stop" json:"stop,omitempty"`
	Step                 *float64           `yaml:"step" json:"step,omitempty"`
	OccupancyMultipliers map[string]float64 `yaml:"occupancy_multipliers" json:"occupancy_multipliers,omitempty"`
}

type RevenueStress struct {
	OccupancyRange *OccupancyRange `yaml:"occupancy_range" json:"occupancy_range,omitempty"`
	// Legacy configs put the multiplier map directly under revenue_stress.
	OccupancyMultipliers map[string]float64 `yaml:"occupancy_multipliers" json:"occupancy_multipliers,omitempty"`
}

type Calibration struct {
	// Optional: load presets from a separate file. Inline presets override
	// file presets with the same name.
	PresetsFile   string            `yaml:"presets_file" json:"presets_file,omitempty"`
	DefaultPreset string            `yaml:"default_preset" json:"default_preset"`
	Presets       map[string]Preset `yaml:"presets" json:"presets"`
}

// Preset carries one of three rent/debt encodings; see calibration.Resolve.
type Preset struct {
	Description string `yaml:"description" json:"description,omitempty"`

	RentToDebtRatio *float64 `yaml:"rent_to_debt_ratio" json:"rent_to_debt_ratio,omitempty"`

	GrossYield *float64 `yaml:"gross_yield" json:"gross_yield,omitempty"`
	LTV        *float64 `yaml:"ltv" json:"ltv,omitempty"`

	AnnualRent      *float64 `yaml:"annual_rent" json:"annual_rent,omitempty"`
	MortgageBalance *float64 `yaml:"mortgage_balance" json:"mortgage_balance,omitempty"`
	// Currency-suffixed spellings used by older assumption files.
	AnnualRentGBP      *float64 `yaml:"annual_rent_gbp" json:"annual_rent_gbp,omitempty"`
	MortgageBalanceGBP *float64 `yaml:"mortgage_balance_gbp" json:"mortgage_balance_gbp,omitempty"`

	OccupancyRangeOverride *OccupancyRange `yaml:"occupancy_range_override" json:"occupancy_range_override,omitempty"`
}

// GridConfig overrides the range tolerances. Zero values keep the defaults.
type GridConfig struct {
	FloorSlack        float64 `yaml:"floor_slack" json:"floor_slack,omitempty"`
	EndpointTolerance float64 `yaml:"endpoint_tolerance" json:"endpoint_tolerance,omitempty"`
	Decimals          *int32  `yaml:"decimals" json:"decimals,omitempty"`
}

type OutputConfig struct {
	ResultsDir string `yaml:"results_dir" json:"results_dir,omitempty"`
}

func Load(path string) (*Config, error) {
	c, err := LoadUnchecked(path)
	if err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadUnchecked loads and merges config, but does not validate it.
func LoadUnchecked(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c, err := Parse(raw, formatFor(path))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if c.Calibration.PresetsFile != "" {
		presetsPath := c.Calibration.PresetsFile
		if !filepath.IsAbs(presetsPath) {
			// Relative to the config file first, then to the cwd.
			cand := filepath.Join(filepath.Dir(path), presetsPath)
			if _, err := os.Stat(cand); err == nil {
				presetsPath = cand
			}
		}
		loaded, err := loadPresetsFile(presetsPath)
		if err != nil {
			return nil, fmt.Errorf("presets_file %s: %w", presetsPath, err)
		}
		c.Calibration.Presets = MergePresets(loaded, c.Calibration.Presets)
	}
	return c, nil
}

// Format selects the decoder used by Parse.
type Format string

const (
	FormatYAML  Format = "yaml"
	FormatHJSON Format = "hjson"
)

func formatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".hjson":
		return FormatHJSON
	default:
		return FormatYAML
	}
}

// Parse decodes raw assumptions. HJSON is a superset of JSON, so plain JSON
// files go through the same decoder.
func Parse(raw []byte, format Format) (*Config, error) {
	var c Config
	switch format {
	case FormatHJSON:
		if err := hjson.Unmarshal(raw, &c); err != nil {
			return nil, err
		}
	case FormatYAML, "":
		if err := yaml.Unmarshal(raw, &c); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported config format %q", format)
	}
	return &c, nil
}

type presetsFileWrapper struct {
	Presets map[string]Preset `yaml:"presets" json:"presets"`
}

func loadPresetsFile(path string) (map[string]Preset, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var w presetsFileWrapper
	switch formatFor(path) {
	case FormatHJSON:
		err = hjson.Unmarshal(raw, &w)
	default:
		err = yaml.Unmarshal(raw, &w)
	}
	if err != nil {
		return nil, err
	}
	return w.Presets, nil
}

// MergePresets overlays override onto base by preset name.
func MergePresets(base, override map[string]Preset) map[string]Preset {
	out := make(map[string]Preset, len(base)+len(override))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range override {
		out[k] = v
	}
	return out
}

func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if err := c.Cashflow().Validate(); err != nil {
		return fmt.Errorf("base_cashflow invalid: %w", err)
	}
	if len(c.Calibration.Presets) == 0 {
		return fmt.Errorf("calibration.presets is empty: %w", model.ErrConfiguration)
	}
	if d := c.Grid.Decimals; d != nil && *d < 0 {
		return fmt.Errorf("grid.decimals must be >= 0: %w", model.ErrInvalidInput)
	}

	// grids are generated here so a bad step fails at load, not mid-sweep
	opts := c.GridOptions()
	shocks, err := c.RateShockSpec()
	if err != nil {
		return err
	}
	if _, err := opts.Generate(shocks); err != nil {
		return fmt.Errorf("interest_rate_stress: %w", err)
	}
	occ, err := c.OccupancySpec(nil)
	if err != nil {
		return err
	}
	if _, err := opts.Generate(occ); err != nil {
		return fmt.Errorf("revenue_stress: %w", err)
	}
	for _, name := range c.Calibration.PresetNames() {
		p := c.Calibration.Presets[name]
		if p.OccupancyRangeOverride == nil {
			continue
		}
		spec, err := c.OccupancySpec(&p)
		if err != nil {
			return fmt.Errorf("preset %q: %w", name, err)
		}
		if _, err := opts.Generate(spec); err != nil {
			return fmt.Errorf("preset %q occupancy_range_override: %w", name, err)
		}
	}
	return nil
}

func (c *Config) Cashflow() model.BaseCashflow {
	return model.BaseCashflow{
		GrossAnnualRent:    c.BaseCashflow.GrossAnnualRent,
		OperatingCostRatio: c.BaseCashflow.OperatingCostRatio,
	}
}

// BaseRate returns the configured base interest rate, or DefaultBaseRate.
func (c *Config) BaseRate() float64 {
	if c.Financing.BaseInterestRateValue != nil {
		return *c.Financing.BaseInterestRateValue
	}
	return DefaultBaseRate
}

func (c *Config) ResultsDir() string {
	if c.Output.ResultsDir != "" {
		return c.Output.ResultsDir
	}
	return DefaultResultsDir
}

func (c *Config) GridOptions() grid.Options {
	o := grid.DefaultOptions()
	if c.Grid.FloorSlack > 0 {
		o.FloorSlack = c.Grid.FloorSlack
	}
	if c.Grid.EndpointTolerance > 0 {
		o.EndpointTolerance = c.Grid.EndpointTolerance
	}
	if c.Grid.Decimals != nil {
		o.Decimals = *c.Grid.Decimals
	}
	return o
}

// RateShockSpec converts interest_rate_stress to a grid spec. shocks_bp wins
// over the range keys when both are present.
func (c *Config) RateShockSpec() (grid.Spec, error) {
	ir := c.InterestRateStress
	if ir.ShocksBP != nil {
		return grid.FromValues(ir.ShocksBP...), nil
	}
	if ir.StartBP == nil || ir.StopBP == nil || ir.StepBP == nil {
		return grid.Spec{}, fmt.Errorf(
			"interest_rate_stress must define shocks_bp OR (start_bp, stop_bp and step_bp): %w",
			model.ErrConfiguration)
	}
	return grid.FromRange(*ir.StartBP, *ir.StopBP, *ir.StepBP), nil
}

// OccupancySpec converts the occupancy configuration to a grid spec. A
// preset's occupancy_range_override replaces the global one.
func (c *Config) OccupancySpec(preset *Preset) (grid.Spec, error) {
	if preset != nil && preset.OccupancyRangeOverride != nil {
		spec, err := preset.OccupancyRangeOverride.Spec()
		if err != nil {
			return grid.Spec{}, fmt.Errorf("occupancy_range_override: %w", err)
		}
		return spec, nil
	}
	rs := c.RevenueStress
	if len(rs.OccupancyMultipliers) > 0 {
		return grid.FromValues(mapValues(rs.OccupancyMultipliers)...), nil
	}
	if rs.OccupancyRange == nil {
		return grid.Spec{}, fmt.Errorf(
			"revenue_stress must define occupancy_range or occupancy_multipliers: %w",
			model.ErrConfiguration)
	}
	spec, err := rs.OccupancyRange.Spec()
	if err != nil {
		return grid.Spec{}, fmt.Errorf("revenue_stress.occupancy_range: %w", err)
	}
	return spec, nil
}

func (o OccupancyRange) Spec() (grid.Spec, error) {
	if len(o.OccupancyMultipliers) > 0 {
		return grid.FromValues(mapValues(o.OccupancyMultipliers)...), nil
	}
	if o.Start == nil || o.Stop == nil || o.Step == nil {
		return grid.Spec{}, fmt.Errorf(
			"must define occupancy_multipliers OR (start, stop and step): %w", model.ErrConfiguration)
	}
	return grid.FromRange(*o.Start, *o.Stop, *o.Step), nil
}

// PresetNames returns the configured preset names, sorted.
func (c *Calibration) PresetNames() []string {
	names := make([]string, 0, len(c.Presets))
	for k := range c.Presets {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// mapValues returns the map's values in key order so explicit grids are
// built deterministically before sorting.
func mapValues(m map[string]float64) []float64 {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]float64, 0, len(m))
	for _, k := range keys {
		out = append(out, m[k])
	}
	return out
}
