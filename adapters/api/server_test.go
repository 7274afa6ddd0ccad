package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gomend/domain/table"
	"gomend/internal/config"
	"gomend/internal/missing"
	"gomend/internal/outlier"
)

func newTestServer() *httptest.Server {
	return httptest.NewServer(NewServer(config.Default(), nil).Handler())
}

func post(t *testing.T, srv *httptest.Server, path string, body interface{}) *http.Response {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(srv.URL+path, "application/json", bytes.NewReader(raw))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func numbers(xs ...interface{}) TablePayload {
	return TablePayload{Columns: []ColumnPayload{{Name: "x", DType: "float", Values: xs}}}
}

func TestHealth(t *testing.T) {
	srv := newTestServer()
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestMissingReportEndpoint(t *testing.T) {
	srv := newTestServer()
	defer srv.Close()

	resp := post(t, srv, "/v1/missing/report", MissingReportRequest{
		Table:          numbers(1.0, nil, -999.0, 4.0),
		TreatAsMissing: []interface{}{-999.0},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var report missing.Report
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&report))
	assert.Equal(t, 2, report.TotalMissing)
	assert.Equal(t, 0.5, report.Columns[0].Ratio)
	assert.Equal(t, missing.StatusCritical, report.Columns[0].Status)
}

func TestRepairEndpoint(t *testing.T) {
	srv := newTestServer()
	defer srv.Close()

	resp := post(t, srv, "/v1/missing/repair", RepairRequest{Table: numbers(1.0, nil, 3.0), Column: "x", Strategy: "mean"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out TableResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, []interface{}{1.0, 2.0, 3.0}, out.Table.Columns[0].Values)
	assert.Equal(t, []int64{0, 1, 2}, out.Table.Index)
}

func TestDetectEndpoint(t *testing.T) {
	srv := newTestServer()
	defer srv.Close()

	resp := post(t, srv, "/v1/outliers/detect", map[string]interface{}{
		"table":    numbers(1.0, 2.0, 3.0, 4.0, 5.0, 6.0, 7.0, 8.0, 9.0, 100.0),
		"columns":  []string{"x"},
		"detector": map[string]interface{}{"method": "IQR"},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out DetectResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, outlier.MethodIQR, out.Method)
	assert.Equal(t, []table.RowID{9}, out.Rows)
}

func TestHandleEndpoint(t *testing.T) {
	srv := newTestServer()
	defer srv.Close()

	payload := numbers(1.0, 2.0, 3.0, 4.0, 5.0, 6.0, 7.0, 8.0, 9.0, 100.0)
	payload.Index = []int64{10, 11, 12, 13, 14, 15, 16, 17, 18, 19}
	resp := post(t, srv, "/v1/outliers/handle", HandleRequest{Table: payload, Column: "x", Strategy: "median"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out struct {
		Flagged []table.RowID `json:"flagged"`
		Table   TablePayload  `json:"table"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, []table.RowID{19}, out.Flagged)
	assert.Equal(t, 5.0, out.Table.Columns[0].Values[9])
}

func TestTransformEndpoint(t *testing.T) {
	srv := newTestServer()
	defer srv.Close()

	resp := post(t, srv, "/v1/transform", TransformRequest{Table: numbers(-4.0, 9.0), Column: "0", Transform: "sqrt"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out TransformResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, []interface{}{nil, 3.0}, out.Table.Columns[0].Values)
	assert.Equal(t, 1, out.Dropped)
}

func TestErrorStatuses(t *testing.T) {
	srv := newTestServer()
	defer srv.Close()

	text := TablePayload{Columns: []ColumnPayload{{Name: "s", DType: "string", Values: []interface{}{"a", nil}}}}
	tests := []struct {
		name string
		path string
		body interface{}
		want int
	}{
		{"unknown column", "/v1/missing/repair", RepairRequest{Table: text, Column: "nope", Strategy: "mode"}, http.StatusNotFound},
		{"not numeric", "/v1/missing/repair", RepairRequest{Table: text, Column: "s", Strategy: "mean"}, http.StatusUnprocessableEntity},
		{"bad strategy", "/v1/missing/repair", RepairRequest{Table: text, Column: "s", Strategy: "guess"}, http.StatusBadRequest},
		{"bad detector", "/v1/outliers/detect", map[string]interface{}{"table": numbers(1.0), "columns": []string{"x"}, "detector": map[string]string{"method": "kmeans"}}, http.StatusBadRequest},
		{"bad dtype", "/v1/plan", TableRequest{Table: TablePayload{Columns: []ColumnPayload{{Name: "a", DType: "complex"}}}}, http.StatusBadRequest},
		{"unknown field", "/v1/plan", map[string]interface{}{"rows": 1}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := post(t, srv, tt.path, tt.body)
			assert.Equal(t, tt.want, resp.StatusCode)

			var body ErrorResponse
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.NotEmpty(t, body.Code)
		})
	}
}

func TestCodecRoundTrip(t *testing.T) {
	p := TablePayload{
		Index: []int64{4, 9},
		Columns: []ColumnPayload{
			{Name: "when", DType: "datetime", Values: []interface{}{"2024-01-02T03:04:05Z", nil}},
			{Name: "ok", DType: "bool", Values: []interface{}{true, false}},
		},
	}
	tbl, err := p.ToTable()
	require.NoError(t, err)
	assert.Equal(t, []table.RowID{4, 9}, tbl.Index())
	assert.True(t, tbl.Column(0).At(0).IsTimestamp())

	back := FromTable(tbl)
	assert.Equal(t, p, back)
}

func TestHandleUsesConfiguredDefaults(t *testing.T) {
	cfg := config.Default()
	cfg.Cleaning.DefaultDetector = "zscore"
	cfg.Cleaning.DefaultStrategy = "median"
	cfg.Outliers.ZScoreThreshold = 2
	srv := httptest.NewServer(NewServer(cfg, nil).Handler())
	defer srv.Close()

	resp := post(t, srv, "/v1/outliers/handle", HandleRequest{
		Table:  numbers(1.0, 2.0, 3.0, 4.0, 5.0, 6.0, 7.0, 8.0, 9.0, 100.0),
		Column: "x",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out struct {
		Method  outlier.Method   `json:"method"`
		Repair  missing.Strategy `json:"repair"`
		Flagged []table.RowID    `json:"flagged"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, outlier.MethodZScore, out.Method)
	assert.Equal(t, missing.StrategyMedian, out.Repair)
	assert.Equal(t, []table.RowID{9}, out.Flagged)
}
