package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"github.com/markus-lassfolk/rfwatch/pkg/interference"
	"github.com/markus-lassfolk/rfwatch/pkg/logx"
	"github.com/markus-lassfolk/rfwatch/pkg/metrics"
	"github.com/markus-lassfolk/rfwatch/pkg/mqtt"
	"github.com/markus-lassfolk/rfwatch/pkg/pathloss"
	"github.com/markus-lassfolk/rfwatch/pkg/survey"
)

// Server exposes one detection session over HTTP for the GUI and reporting
// layers. The detector core is lock-free by design, so the server serializes
// all access to it with a single mutex.
type Server struct {
	detector  *interference.Detector
	sessions  *survey.SessionStore
	collector *metrics.Collector
	publisher *mqtt.Publisher
	logger    *logx.Logger
	gridSize  int

	mu  sync.Mutex
	srv *http.Server
}

// NewServer wires the HTTP layer around a detector. sessions, collector and
// publisher may be nil, disabling the corresponding endpoints and side
// effects.
func NewServer(detector *interference.Detector, sessions *survey.SessionStore, collector *metrics.Collector, publisher *mqtt.Publisher, gridSize int, logger *logx.Logger) *Server {
	return &Server{
		detector:  detector,
		sessions:  sessions,
		collector: collector,
		publisher: publisher,
		gridSize:  gridSize,
		logger:    logger,
	}
}

// Router builds the HTTP route table.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/healthz", s.handleHealthz).Methods(http.MethodGet)
	if s.collector != nil {
		r.Handle("/metrics", s.collector.Handler()).Methods(http.MethodGet)
	}

	apiRouter := r.PathPrefix("/api").Subrouter()
	apiRouter.HandleFunc("/measurements", s.handleAddMeasurement).Methods(http.MethodPost)
	apiRouter.HandleFunc("/measurements", s.handleListMeasurements).Methods(http.MethodGet)
	apiRouter.HandleFunc("/measurements", s.handleClearMeasurements).Methods(http.MethodDelete)
	apiRouter.HandleFunc("/detect", s.handleDetect).Methods(http.MethodPost)
	apiRouter.HandleFunc("/sources", s.handleSources).Methods(http.MethodGet)
	apiRouter.HandleFunc("/heatmap", s.handleHeatmap).Methods(http.MethodGet)
	apiRouter.HandleFunc("/export", s.handleExport).Methods(http.MethodGet)
	apiRouter.HandleFunc("/config/pathloss", s.handleGetPathLoss).Methods(http.MethodGet)
	apiRouter.HandleFunc("/config/pathloss", s.handleSetPathLoss).Methods(http.MethodPut)
	apiRouter.HandleFunc("/calibrate", s.handleCalibrate).Methods(http.MethodPost)

	if s.sessions != nil {
		apiRouter.HandleFunc("/sessions", s.handleSaveSession).Methods(http.MethodPost)
		apiRouter.HandleFunc("/sessions", s.handleListSessions).Methods(http.MethodGet)
		apiRouter.HandleFunc("/sessions/{id}/restore", s.handleRestoreSession).Methods(http.MethodPost)
		apiRouter.HandleFunc("/sessions/{id}", s.handleDeleteSession).Methods(http.MethodDelete)
	}

	return r
}

// Start begins serving on addr in the background.
func (s *Server) Start(addr string) error {
	s.srv = &http.Server{
		Addr:         addr,
		Handler:      s.Router(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("HTTP server failed", "error", err)
		}
	}()

	s.logger.Info("HTTP API listening", "addr", addr)
	return nil
}

// Stop shuts down the HTTP server gracefully.
func (s *Server) Stop() error {
	if s.srv == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.srv.Shutdown(ctx)
}

type measurementRequest struct {
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	RSSI      float64 `json:"rssi"`
	Frequency float64 `json:"frequency"`
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleAddMeasurement(w http.ResponseWriter, r *http.Request) {
	var req measurementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid measurement body: %w", err))
		return
	}

	s.mu.Lock()
	point := s.detector.AddMeasurement(req.X, req.Y, req.RSSI, req.Frequency)
	s.mu.Unlock()

	if s.collector != nil {
		s.collector.MeasurementsTotal.Inc()
	}

	s.writeJSON(w, http.StatusCreated, point)
}

func (s *Server) handleListMeasurements(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	points := s.detector.Measurements()
	s.mu.Unlock()

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"count":        len(points),
		"measurements": points,
	})
}

func (s *Server) handleClearMeasurements(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.detector.ClearMeasurements()
	s.mu.Unlock()

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDetect(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	start := time.Now()
	sources := s.detector.DetectSources()
	elapsed := time.Since(start)
	doc := s.detector.Export()
	s.mu.Unlock()

	if s.collector != nil {
		s.collector.ObserveDetection(elapsed, sources)
	}

	if s.publisher != nil {
		if err := s.publisher.PublishReport(doc); err != nil {
			s.logger.Warn("Failed to publish detection report", "error", err)
		}
		if err := s.publisher.PublishSources(sources); err != nil {
			s.logger.Warn("Failed to publish source list", "error", err)
		}
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"count":   len(sources),
		"sources": sources,
	})
}

func (s *Server) handleSources(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	sources := s.detector.Sources()
	s.mu.Unlock()

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"count":   len(sources),
		"sources": sources,
	})
}

func (s *Server) handleHeatmap(w http.ResponseWriter, r *http.Request) {
	gridSize := s.gridSize
	if raw := r.URL.Query().Get("size"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 500 {
			s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid grid size %q", raw))
			return
		}
		gridSize = parsed
	}

	s.mu.Lock()
	hm := s.detector.Heatmap(gridSize)
	s.mu.Unlock()

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"x_min": hm.XMin,
		"x_max": hm.XMax,
		"y_min": hm.YMin,
		"y_max": hm.YMax,
		"grid":  hm.Grid,
	})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	doc := s.detector.Export()
	s.mu.Unlock()

	s.writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handleGetPathLoss(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	cfg := s.detector.PathLoss()
	s.mu.Unlock()

	s.writeJSON(w, http.StatusOK, cfg)
}

func (s *Server) handleSetPathLoss(w http.ResponseWriter, r *http.Request) {
	var cfg pathloss.Config
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid path loss body: %w", err))
		return
	}

	s.mu.Lock()
	err := s.detector.SetPathLoss(cfg)
	s.mu.Unlock()

	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	s.logger.Info("Path loss configuration updated",
		"exponent", cfg.Exponent,
		"reference_distance", cfg.ReferenceDistance,
		"reference_rssi", cfg.ReferenceRSSI)

	s.writeJSON(w, http.StatusOK, cfg)
}

type calibrateRequest struct {
	ReferenceDistance float64                      `json:"reference_distance"`
	Samples           []pathloss.CalibrationSample `json:"samples"`
	Apply             bool                         `json:"apply"`
}

func (s *Server) handleCalibrate(w http.ResponseWriter, r *http.Request) {
	var req calibrateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid calibration body: %w", err))
		return
	}
	if req.ReferenceDistance == 0 {
		req.ReferenceDistance = 1.0
	}

	cfg, err := pathloss.Calibrate(req.Samples, req.ReferenceDistance)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	if req.Apply {
		s.mu.Lock()
		err = s.detector.SetPathLoss(cfg)
		s.mu.Unlock()
		if err != nil {
			s.writeError(w, http.StatusBadRequest, err)
			return
		}
	}

	s.writeJSON(w, http.StatusOK, cfg)
}

type saveSessionRequest struct {
	Name string `json:"name"`
}

func (s *Server) handleSaveSession(w http.ResponseWriter, r *http.Request) {
	var req saveSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid session body: %w", err))
		return
	}

	s.mu.Lock()
	points := s.detector.Measurements()
	s.mu.Unlock()

	session, err := s.sessions.Save(req.Name, points)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, session)
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.sessions.List()
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"count":    len(sessions),
		"sessions": sessions,
	})
}

func (s *Server) handleRestoreSession(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	session, err := s.sessions.Load(id)
	if err != nil {
		s.writeError(w, http.StatusNotFound, err)
		return
	}

	s.mu.Lock()
	s.detector.RestoreMeasurements(session.Points)
	s.mu.Unlock()

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"id":     session.ID,
		"name":   session.Name,
		"points": len(session.Points),
	})
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Delete(mux.Vars(r)["id"]); err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("Failed to encode response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.logger.Warn("Request failed", "status", status, "error", err.Error())
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}
