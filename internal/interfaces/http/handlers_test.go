package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/plateau/internal/plateau"
	"github.com/sawpanic/plateau/internal/sweep"
)

func testRecords() []sweep.Record {
	var records []sweep.Record
	for _, slow := range []int{10, 20} {
		for _, fast := range []int{1, 2} {
			records = append(records, sweep.Record{
				ID: fmt.Sprintf("bt_%d_%d", fast, slow),
				Entry: []sweep.IndicatorGroup{{
					IndicatorType: "MA",
					StratIdx:      "1",
					Fields: map[string]string{
						"fast": fmt.Sprintf("%d", fast),
						"slow": fmt.Sprintf("%d", slow),
					},
				}},
				Exit: []sweep.IndicatorGroup{{
					IndicatorType: "MA",
					StratIdx:      "1",
					Fields:        map[string]string{"period": "5"},
				}},
				Metrics: map[string]string{"Sharpe": "1.5"},
			})
		}
	}
	return records
}

func testRouter(t *testing.T, holder *plateau.Holder, reload ReloadFunc) *mux.Router {
	t.Helper()
	h := NewHandlers(holder, reload, NewMetricsRegistry())

	router := mux.NewRouter()
	router.HandleFunc("/health", h.Health).Methods("GET")
	router.HandleFunc("/strategies", h.Strategies).Methods("GET")
	router.HandleFunc("/strategies/{key}/variables", h.Variables).Methods("POST")
	router.HandleFunc("/matrix", h.Matrix).Methods("POST")
	router.HandleFunc("/colorscale", h.Colorscale).Methods("GET")
	router.HandleFunc("/reload", h.Reload).Methods("POST")
	return router
}

func loadedHolder(t *testing.T) *plateau.Holder {
	t.Helper()
	sess, err := plateau.NewSession(&sweep.Dataset{ID: "test:ds", Source: "fixture", Records: testRecords()}, 0)
	require.NoError(t, err)
	return plateau.NewHolder(sess)
}

func TestHealthWithoutDataset(t *testing.T) {
	router := testRouter(t, plateau.NewHolder(nil), nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "no_dataset", resp.Status)
	assert.Nil(t, resp.Dataset)
}

func TestHealthWithDataset(t *testing.T) {
	router := testRouter(t, loadedHolder(t), nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Status)
	require.NotNil(t, resp.Dataset)
	assert.Equal(t, 4, resp.Dataset.Records)
}

func TestStrategiesListing(t *testing.T) {
	router := testRouter(t, loadedHolder(t), nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/strategies", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp StrategiesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Strategies, 1)
	assert.Equal(t, "Entry:MA1|Exit:MA1", resp.Strategies[0].Key)
	assert.Equal(t, 4, resp.Strategies[0].Members)
	assert.Contains(t, resp.Strategies[0].Label, "4 combinations")
}

func TestStrategiesWithoutDataset(t *testing.T) {
	router := testRouter(t, plateau.NewHolder(nil), nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/strategies", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestVariablesEndpoint(t *testing.T) {
	router := testRouter(t, loadedHolder(t), nil)

	body := bytes.NewBufferString(`{"fixed": {}}`)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("POST", "/strategies/Entry:MA1|Exit:MA1/variables", body))

	require.Equal(t, http.StatusOK, rec.Code)
	var vs plateau.VariableSet
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &vs))
	assert.ElementsMatch(t, []string{"Entry_MA1_fast", "Entry_MA1_slow"}, vs.Names)
	assert.False(t, vs.InsufficientAxes)
}

func TestVariablesInsufficientAxes(t *testing.T) {
	router := testRouter(t, loadedHolder(t), nil)

	body := bytes.NewBufferString(`{"fixed": {"Entry_MA1_fast": "1"}}`)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("POST", "/strategies/Entry:MA1|Exit:MA1/variables", body))

	require.Equal(t, http.StatusOK, rec.Code)
	var vs plateau.VariableSet
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &vs))
	assert.True(t, vs.InsufficientAxes)
}

func TestMatrixEndpoint(t *testing.T) {
	router := testRouter(t, loadedHolder(t), nil)

	payload := `{
		"strategy": "Entry:MA1|Exit:MA1",
		"x_axis": "Entry_MA1_fast",
		"y_axis": "Entry_MA1_slow",
		"metric": "Sharpe"
	}`
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("POST", "/matrix", bytes.NewBufferString(payload)))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp MatrixResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 4, resp.Matrix.ValidCells)
	assert.Equal(t, 4, resp.Matrix.TotalCells)
	assert.Len(t, resp.Scale.Stops, 5)
	assert.Equal(t, 0.5, resp.Scale.ZMin)
}

func TestMatrixMissingFields(t *testing.T) {
	router := testRouter(t, loadedHolder(t), nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("POST", "/matrix", bytes.NewBufferString(`{"strategy": "x"}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestColorscaleEndpoint(t *testing.T) {
	router := testRouter(t, loadedHolder(t), nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/colorscale?metric=Max_drawdown&min=-0.05", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var scale plateau.Scale
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &scale))
	assert.Equal(t, "excellent", scale.Band)
}

func TestColorscaleRequiresMetric(t *testing.T) {
	router := testRouter(t, loadedHolder(t), nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/colorscale", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReloadUnsupported(t *testing.T) {
	router := testRouter(t, loadedHolder(t), nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("POST", "/reload", nil))
	assert.Equal(t, http.StatusNotImplemented, rec.Code)
}
