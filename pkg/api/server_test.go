package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markus-lassfolk/rfwatch/pkg/interference"
	"github.com/markus-lassfolk/rfwatch/pkg/logx"
	"github.com/markus-lassfolk/rfwatch/pkg/metrics"
	"github.com/markus-lassfolk/rfwatch/pkg/pathloss"
	"github.com/markus-lassfolk/rfwatch/pkg/survey"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	logger := logx.NewLogger("error", "test")

	detector, err := interference.NewDetector(pathloss.DefaultConfig(), logger)
	require.NoError(t, err)

	sessions, err := survey.OpenSessionStore(filepath.Join(t.TempDir(), "sessions.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { sessions.Close() })

	return NewServer(detector, sessions, metrics.NewCollector(), nil, 50, logger)
}

func doJSON(t *testing.T, s *Server, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
}

func addSurveyPoints(t *testing.T, s *Server) {
	t.Helper()
	for _, p := range []measurementRequest{
		{X: 0, Y: 0, RSSI: -45, Frequency: 2437},
		{X: 5, Y: 0, RSSI: -55, Frequency: 2437},
		{X: 2.5, Y: 4, RSSI: -50, Frequency: 2437},
	} {
		rec := doJSON(t, s, http.MethodPost, "/api/measurements", p)
		require.Equal(t, http.StatusCreated, rec.Code)
	}
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMeasurementLifecycle(t *testing.T) {
	s := newTestServer(t)
	addSurveyPoints(t, s)

	rec := doJSON(t, s, http.MethodGet, "/api/measurements", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var listing struct {
		Count        int                       `json:"count"`
		Measurements []survey.MeasurementPoint `json:"measurements"`
	}
	decodeBody(t, rec, &listing)
	assert.Equal(t, 3, listing.Count)
	require.Len(t, listing.Measurements, 3)
	assert.Equal(t, -45.0, listing.Measurements[0].RSSI)

	rec = doJSON(t, s, http.MethodDelete, "/api/measurements", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, s, http.MethodGet, "/api/measurements", nil)
	decodeBody(t, rec, &listing)
	assert.Equal(t, 0, listing.Count)
}

func TestAddMeasurementRejectsBadBody(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/measurements", bytes.NewBufferString("{not json"))
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDetectAndSources(t *testing.T) {
	s := newTestServer(t)
	addSurveyPoints(t, s)

	rec := doJSON(t, s, http.MethodPost, "/api/detect", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var result struct {
		Count   int                    `json:"count"`
		Sources []*interference.Source `json:"sources"`
	}
	decodeBody(t, rec, &result)
	require.Equal(t, 1, result.Count)
	assert.NotNil(t, result.Sources[0].Location)

	rec = doJSON(t, s, http.MethodGet, "/api/sources", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &result)
	assert.Equal(t, 1, result.Count)
}

func TestHeatmapEndpoint(t *testing.T) {
	s := newTestServer(t)
	addSurveyPoints(t, s)
	doJSON(t, s, http.MethodPost, "/api/detect", nil)

	rec := doJSON(t, s, http.MethodGet, "/api/heatmap?size=16", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var hm struct {
		XMin float64     `json:"x_min"`
		XMax float64     `json:"x_max"`
		Grid [][]float64 `json:"grid"`
	}
	decodeBody(t, rec, &hm)
	assert.Less(t, hm.XMin, hm.XMax)
	assert.Len(t, hm.Grid, 16)

	rec = doJSON(t, s, http.MethodGet, "/api/heatmap?size=0", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = doJSON(t, s, http.MethodGet, "/api/heatmap?size=bogus", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExportEndpoint(t *testing.T) {
	s := newTestServer(t)
	addSurveyPoints(t, s)
	doJSON(t, s, http.MethodPost, "/api/detect", nil)

	rec := doJSON(t, s, http.MethodGet, "/api/export", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	doc, err := interference.ParseExport(rec.Body.Bytes())
	require.NoError(t, err)
	assert.Equal(t, 3, doc.MeasurementCount)
	assert.Len(t, doc.InterferenceSources, 1)
}

func TestPathLossConfigEndpoint(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodGet, "/api/config/pathloss", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var cfg pathloss.Config
	decodeBody(t, rec, &cfg)
	assert.Equal(t, 2.0, cfg.Exponent)

	rec = doJSON(t, s, http.MethodPut, "/api/config/pathloss",
		pathloss.Config{Exponent: 3.2, ReferenceDistance: 1, ReferenceRSSI: -42})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, s, http.MethodGet, "/api/config/pathloss", nil)
	decodeBody(t, rec, &cfg)
	assert.Equal(t, 3.2, cfg.Exponent)

	rec = doJSON(t, s, http.MethodPut, "/api/config/pathloss",
		pathloss.Config{Exponent: -1, ReferenceDistance: 1, ReferenceRSSI: -42})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCalibrateEndpoint(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/api/calibrate", calibrateRequest{
		ReferenceDistance: 1,
		Samples: []pathloss.CalibrationSample{
			{Distance: 1, RSSI: -40},
			{Distance: 10, RSSI: -70},
		},
		Apply: true,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var cfg pathloss.Config
	decodeBody(t, rec, &cfg)
	assert.InDelta(t, 3.0, cfg.Exponent, 1e-6)

	rec = doJSON(t, s, http.MethodGet, "/api/config/pathloss", nil)
	decodeBody(t, rec, &cfg)
	assert.InDelta(t, 3.0, cfg.Exponent, 1e-6)

	rec = doJSON(t, s, http.MethodPost, "/api/calibrate", calibrateRequest{Samples: nil})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSessionEndpoints(t *testing.T) {
	s := newTestServer(t)
	addSurveyPoints(t, s)

	rec := doJSON(t, s, http.MethodPost, "/api/sessions", saveSessionRequest{Name: "walk 1"})
	require.Equal(t, http.StatusCreated, rec.Code)

	var saved survey.Session
	decodeBody(t, rec, &saved)
	assert.NotEmpty(t, saved.ID)

	rec = doJSON(t, s, http.MethodGet, "/api/sessions", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var listing struct {
		Count int `json:"count"`
	}
	decodeBody(t, rec, &listing)
	assert.Equal(t, 1, listing.Count)

	// Wipe and restore from the saved session.
	doJSON(t, s, http.MethodDelete, "/api/measurements", nil)
	rec = doJSON(t, s, http.MethodPost, fmt.Sprintf("/api/sessions/%s/restore", saved.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, s, http.MethodGet, "/api/measurements", nil)
	var measurements struct {
		Count int `json:"count"`
	}
	decodeBody(t, rec, &measurements)
	assert.Equal(t, 3, measurements.Count)

	rec = doJSON(t, s, http.MethodPost, "/api/sessions/nope/restore", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, s, http.MethodDelete, "/api/sessions/"+saved.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestServerWithoutOptionalComponents(t *testing.T) {
	logger := logx.NewLogger("error", "test")
	detector, err := interference.NewDetector(pathloss.DefaultConfig(), logger)
	require.NoError(t, err)

	s := NewServer(detector, nil, nil, nil, 50, logger)

	// Route construction must not panic and the core endpoints still work.
	rec := doJSON(t, s, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, s, http.MethodPost, "/api/measurements",
		measurementRequest{X: 1, Y: 1, RSSI: -50, Frequency: 2437})
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, s, http.MethodPost, "/api/detect", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	// Endpoints backed by absent components are simply not routed.
	rec = doJSON(t, s, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = doJSON(t, s, http.MethodGet, "/api/sessions", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t)
	addSurveyPoints(t, s)
	doJSON(t, s, http.MethodPost, "/api/detect", nil)

	rec := doJSON(t, s, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "rfwatch_measurements_total")
	assert.Contains(t, rec.Body.String(), "rfwatch_detections_total")
}
