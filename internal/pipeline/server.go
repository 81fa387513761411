package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/sanspareilsmyn/kpilens/internal/store"
)

const (
	serverReadTimeout     = 10 * time.Second
	serverWriteTimeout    = 10 * time.Second
	serverShutdownTimeout = 5 * time.Second
)

// Server exposes Prometheus metrics, a health probe, the latest feature vector per series and
// stored evaluation reports.
type Server struct {
	addr      string
	publisher *Publisher
	reports   store.Store
	logger    *zap.Logger
	started   time.Time
}

// NewServer creates the HTTP surface. reports may be nil, in which case report lookups 404.
func NewServer(addr string, publisher *Publisher, reports store.Store, logger *zap.Logger) *Server {
	return &Server{
		addr:      addr,
		publisher: publisher,
		reports:   reports,
		logger:    logger,
		started:   time.Now(),
	}
}

// Router builds the route table.
func (s *Server) Router() *mux.Router {
	router := mux.NewRouter()
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")
	router.HandleFunc("/healthz", s.handleHealth).Methods("GET")

	api := router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/series", s.handleSeriesList).Methods("GET")
	api.HandleFunc("/series/{id}/features", s.handleFeatures).Methods("GET")
	api.HandleFunc("/reports/{runID}", s.handleReport).Methods("GET")
	return router
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:         s.addr,
		Handler:      s.Router(),
		ReadTimeout:  serverReadTimeout,
		WriteTimeout: serverWriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", zap.String("addr", s.addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), serverShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn("HTTP server shutdown incomplete", zap.Error(err))
	}
	s.logger.Info("HTTP server stopped")
	return ctx.Err()
}

type featuresResponse struct {
	SeriesID  string              `json:"series_id"`
	Timestamp int64               `json:"timestamp"`
	Value     float64             `json:"value"`
	Features  map[string]*float64 `json:"features"` // null while a window is filling
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "healthy",
		"uptime": time.Since(s.started).String(),
		"series": len(s.publisher.SeriesIDs()),
	})
}

func (s *Server) handleSeriesList(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"series": s.publisher.SeriesIDs()})
}

func (s *Server) handleFeatures(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	vec, ok := s.publisher.Latest(id)
	if !ok {
		s.writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown series " + id})
		return
	}

	resp := featuresResponse{
		SeriesID:  vec.SeriesID,
		Timestamp: vec.Timestamp,
		Value:     vec.Value,
		Features:  make(map[string]*float64, len(vec.Features)),
	}
	for _, f := range vec.Features {
		if math.IsNaN(f.Value) || math.IsInf(f.Value, 0) {
			resp.Features[f.Name] = nil
			continue
		}
		v := f.Value
		resp.Features[f.Name] = &v
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	runID := mux.Vars(r)["runID"]
	if s.reports == nil {
		s.writeJSON(w, http.StatusNotFound, map[string]string{"error": "no report store configured"})
		return
	}

	blob, err := s.reports.Load(r.Context(), store.ReportKey(runID))
	if errors.Is(err, store.ErrNotFound) {
		s.writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown run " + runID})
		return
	}
	if err != nil {
		s.logger.Error("Failed to load report", zap.String("run_id", runID), zap.Error(err))
		s.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to load report"})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(blob)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Warn("Failed to encode response", zap.Error(err))
	}
}
