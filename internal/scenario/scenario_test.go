package scenario

import (
	"path/filepath"
	"testing"

	"rent-stress/internal/calibration"
	"rent-stress/internal/config"
	"rent-stress/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadExample(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load(filepath.Join("..", "..", "examples", "assumptions.yaml"))
	require.NoError(t, err)
	return cfg
}

func TestRunDefaultPreset(t *testing.T) {
	out, err := Run(loadExample(t), Request{})
	require.NoError(t, err)

	assert.Equal(t, "uk_btl_typical", out.Calibration.Name)
	assert.InDelta(t, 0.1, out.Calibration.Theta, 1e-12)
	assert.InDelta(t, 0.05, out.BaseRate, 1e-12)
	assert.Len(t, out.Table.RateShocksBP, 25)
	assert.Len(t, out.Table.Occupancy, 13)
	assert.Len(t, out.Table.Rows, 25*13)

	require.NotNil(t, out.Summary.Base)
	assert.InDelta(t, 1.3, out.Summary.Base.DSCR, 1e-9)
	assert.InDelta(t, 18000, out.Summary.Base.NetCashflow, 1e-6)
}

func TestRunPresetOverridesOccupancy(t *testing.T) {
	out, err := Run(loadExample(t), Request{Preset: "high_leverage"})
	require.NoError(t, err)
	assert.Equal(t, []float64{0.6, 0.7, 0.8, 0.9, 1.0}, out.Table.Occupancy)
	assert.InDelta(t, 0.055/0.75, out.Calibration.Theta, 1e-12)
}

func TestRunBaseRateOverride(t *testing.T) {
	rate := 0.07
	out, err := Run(loadExample(t), Request{BaseRate: &rate})
	require.NoError(t, err)
	assert.InDelta(t, 0.07, out.BaseRate, 1e-12)
	row, ok := out.Table.Lookup(0, 1)
	require.True(t, ok)
	assert.InDelta(t, 0.07, row.InterestRate, 1e-12)
}

func TestRunDegenerateBaseRate(t *testing.T) {
	rate := 0.01
	_, err := Run(loadExample(t), Request{BaseRate: &rate})
	assert.ErrorIs(t, err, model.ErrNumericDegeneracy)
}

func TestRunUnknownPreset(t *testing.T) {
	_, err := Run(loadExample(t), Request{Preset: "nope"})
	var nf *calibration.PresetNotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Contains(t, nf.Available, "single_asset")
}

func TestPrepareUsesGridOptions(t *testing.T) {
	cfg := loadExample(t)
	one := int32(1)
	cfg.Grid.Decimals = &one
	in, _, err := Prepare(cfg, Request{})
	require.NoError(t, err)
	// 0.05 steps rounded to one decimal collapse to 0.1 spacing.
	assert.Equal(t, []float64{0.5, 0.6, 0.7, 0.8, 0.9, 1.0, 1.1}, in.Occupancy)
}
