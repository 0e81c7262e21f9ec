// Package server exposes the analysis pipeline over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/veritaslab/veritas/internal/model"
	"github.com/veritaslab/veritas/internal/pipeline"
)

// Analyzer is the slice of pipeline.Pipeline the server needs
type Analyzer interface {
	Analyze(ctx context.Context, in pipeline.Input) (*model.AnalysisReport, error)
}

// Server serves the analysis API
type Server struct {
	addr     string
	analyzer Analyzer
	log      *zap.Logger
}

type analyzeRequest struct {
	URL  string `json:"url"`
	Text string `json:"text"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// New creates a server bound to addr
func New(addr string, analyzer Analyzer, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{addr: addr, analyzer: analyzer, log: log}
}

// Handler returns the API routes
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/analyze", s.handleAnalyze)
	mux.HandleFunc("/healthz", s.handleHealth)
	return mux
}

// ListenAndServe runs the server until ctx is cancelled
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("server listening", zap.String("addr", s.addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}

	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	report, err := s.analyzer.Analyze(r.Context(), pipeline.Input{URL: req.URL, Text: req.Text})
	if err != nil {
		s.writeAnalyzeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, report)
}

// writeAnalyzeError maps pipeline errors onto HTTP statuses. Degraded
// reports never reach here; they are 200s with diagnostic details.
func (s *Server) writeAnalyzeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, pipeline.ErrNoInput), errors.Is(err, pipeline.ErrInvalidURL):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, pipeline.ErrEmptyTranscript):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		s.log.Error("analysis failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "analysis failed")
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
