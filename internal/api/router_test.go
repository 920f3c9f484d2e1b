package api

import (
	"encoding/csv"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"rent-stress/internal/api/models"
	"rent-stress/internal/config"
	"rent-stress/internal/scenario"
	"rent-stress/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func loadConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load(filepath.Join("..", "..", "examples", "assumptions.yaml"))
	require.NoError(t, err)
	return cfg
}

func newServer(t *testing.T, withStore bool) *gin.Engine {
	t.Helper()
	if !withStore {
		return NewRouter(loadConfig(t), Options{})
	}
	s, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return NewRouter(loadConfig(t), Options{Runs: s, Cache: scenario.NewCache(time.Hour)})
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestHealth(t *testing.T) {
	w := do(newServer(t, false), http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}

func TestListPresets(t *testing.T) {
	w := do(newServer(t, false), http.MethodGet, "/api/v1/presets", "")
	require.Equal(t, http.StatusOK, w.Code)

	resp := decode[models.PresetsResponse](t, w)
	assert.Equal(t, "uk_btl_typical", resp.DefaultPreset)
	require.Len(t, resp.Presets, 4)

	names := make([]string, len(resp.Presets))
	for i, p := range resp.Presets {
		names[i] = p.Name
		require.NotNil(t, p.Theta, p.Name)
		assert.Empty(t, p.Error)
	}
	assert.Equal(t, []string{"direct_ratio", "high_leverage", "single_asset", "uk_btl_typical"}, names)
	assert.InDelta(t, 0.08, *resp.Presets[0].Theta, 1e-12)
	assert.Equal(t, "rent_to_debt_ratio", resp.Presets[0].ThetaSource)
	assert.True(t, resp.Presets[3].Default)
}

func TestRunStressDefaults(t *testing.T) {
	w := do(newServer(t, false), http.MethodPost, "/api/v1/stress", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	resp := decode[models.StressResponse](t, w)
	assert.Equal(t, "completed", resp.Status)
	assert.Equal(t, "uk_btl_typical", resp.Preset)
	assert.Empty(t, resp.ID)
	assert.InDelta(t, 0.1, resp.Theta, 1e-12)
	assert.InDelta(t, 1_200_000, resp.Debt, 1e-6)
	assert.Len(t, resp.RateShocksBP, 25)
	assert.Len(t, resp.Occupancy, 13)
	assert.Equal(t, 325, resp.Summary.Cells)
	require.NotNil(t, resp.Summary.Base)
	assert.InDelta(t, 1.3, resp.Summary.Base.DSCR, 1e-12)
	assert.Empty(t, resp.Rows)
}

func TestRunStressWithRowsAndOverrides(t *testing.T) {
	w := do(newServer(t, false), http.MethodPost, "/api/v1/stress",
		`{"preset":"high_leverage","base_rate":0.06,"include_rows":true}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	resp := decode[models.StressResponse](t, w)
	assert.Equal(t, "high_leverage", resp.Preset)
	assert.InDelta(t, 0.06, resp.BaseRate, 1e-12)
	assert.Equal(t, []float64{0.6, 0.7, 0.8, 0.9, 1.0}, resp.Occupancy)
	assert.Len(t, resp.Rows, 5*25)
	assert.InDelta(t, 0.04, resp.Rows[0].InterestRate, 1e-12)
}

func TestRunStressErrors(t *testing.T) {
	r := newServer(t, false)

	t.Run("unknown preset", func(t *testing.T) {
		w := do(r, http.MethodPost, "/api/v1/stress", `{"preset":"nope"}`)
		assert.Equal(t, http.StatusNotFound, w.Code)
		resp := decode[models.ErrorResponse](t, w)
		assert.Equal(t, "CONFIGURATION_ERROR", resp.Error.Code)
		assert.Contains(t, resp.Error.Message, "uk_btl_typical")
		assert.Len(t, resp.Error.Details["available"], 4)
	})

	t.Run("degenerate cell", func(t *testing.T) {
		w := do(r, http.MethodPost, "/api/v1/stress", `{"base_rate":0.01}`)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		resp := decode[models.ErrorResponse](t, w)
		assert.Equal(t, "NUMERIC_DEGENERACY", resp.Error.Code)
		assert.Equal(t, -200.0, resp.Error.Details["rate_shock_bp"])
		assert.Equal(t, 0.5, resp.Error.Details["occupancy_multiplier"])
	})

	t.Run("malformed body", func(t *testing.T) {
		w := do(r, http.MethodPost, "/api/v1/stress", `{"base_rate":"high"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "INVALID_REQUEST", decode[models.ErrorResponse](t, w).Error.Code)
	})
}

func TestBreakEven(t *testing.T) {
	w := do(newServer(t, false), http.MethodGet, "/api/v1/breakeven?preset=uk_btl_typical&base_rate=0.05", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	resp := decode[models.BreakEvenResponse](t, w)
	require.Len(t, resp.Curve, 25)
	for _, p := range resp.Curve {
		if p.HasNumeric {
			assert.InEpsilon(t, p.Analytical, p.Numeric, 1e-4, "shock %g", p.RateShockBP)
		}
	}
	// 0bp: 0.05 * 1.2M / (0.65 * 120k)
	assert.InDelta(t, 60000.0/78000.0, resp.Curve[8].Analytical, 1e-12)
	assert.True(t, resp.Curve[8].HasNumeric)
}

func TestArchiveDisabled(t *testing.T) {
	w := do(newServer(t, false), http.MethodGet, "/api/v1/stress/abc/rows", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "STORE_DISABLED", decode[models.ErrorResponse](t, w).Error.Code)
}

func TestArchiveRoundTrip(t *testing.T) {
	r := newServer(t, true)

	w := do(r, http.MethodPost, "/api/v1/stress", `{"preset":"single_asset"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	id := decode[models.StressResponse](t, w).ID
	require.NotEmpty(t, id)

	w = do(r, http.MethodGet, "/api/v1/stress", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[models.RunsResponse](t, w).Runs, 1)

	w = do(r, http.MethodGet, "/api/v1/stress/"+id, "")
	require.Equal(t, http.StatusOK, w.Code)
	run := decode[store.Run](t, w)
	assert.Equal(t, "single_asset", run.Preset)
	assert.InDelta(t, 0.08, run.Theta, 1e-12)

	w = do(r, http.MethodGet, "/api/v1/stress/"+id+"/rows", "")
	require.Equal(t, http.StatusOK, w.Code)
	rows := decode[models.RowsResponse](t, w)
	assert.Equal(t, id, rows.ID)
	assert.Len(t, rows.Rows, 325)

	w = do(r, http.MethodGet, "/api/v1/stress/"+id+"/rows?format=csv", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/csv")
	records, err := csv.NewReader(w.Body).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, "interest_rate", records[0][0])
	assert.Len(t, records, 326)

	w = do(r, http.MethodGet, "/api/v1/stress/"+id+"/rows?format=xml", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestArchiveMissingRun(t *testing.T) {
	w := do(newServer(t, true), http.MethodGet, "/api/v1/stress/missing/rows", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", decode[models.ErrorResponse](t, w).Error.Code)
}

func TestCORSPreflight(t *testing.T) {
	r := NewRouter(loadConfig(t), Options{CORSOrigins: []string{"http://localhost:5173"}})
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/stress", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCachedSweepsArchiveSeparately(t *testing.T) {
	r := newServer(t, true)

	w1 := do(r, http.MethodPost, "/api/v1/stress", `{"preset":"direct_ratio"}`)
	w2 := do(r, http.MethodPost, "/api/v1/stress", `{"preset":"direct_ratio"}`)
	require.Equal(t, http.StatusOK, w1.Code)
	require.Equal(t, http.StatusOK, w2.Code)

	a, b := decode[models.StressResponse](t, w1), decode[models.StressResponse](t, w2)
	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, a.Summary, b.Summary)

	w := do(r, http.MethodGet, "/api/v1/stress?preset=direct_ratio", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[models.RunsResponse](t, w).Runs, 2)
}
