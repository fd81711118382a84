package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/bobmcallan/carteira/internal/storage/sqlite"
)

// routeRisk dispatches /api/risk/{ticker} and /api/risk/{ticker}/history.
func (s *Server) routeRisk(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/risk/")
	if strings.HasSuffix(rest, "/history") {
		s.handleEnsureHistory(w, r, strings.TrimSuffix(rest, "/history"))
		return
	}
	s.handleRiskReport(w, r, rest)
}

// handleRiskReport handles GET /api/risk/{ticker}?benchmark=&start=&end=.
func (s *Server) handleRiskReport(w http.ResponseWriter, r *http.Request, ticker string) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	if ticker == "" {
		WriteError(w, http.StatusBadRequest, "ticker is required")
		return
	}

	benchmark := r.URL.Query().Get("benchmark")
	if benchmark == "" {
		benchmark = s.app.Config.Benchmark
	}

	report, err := s.app.Risk.Report(r.Context(), ticker, benchmark,
		r.URL.Query().Get("start"), r.URL.Query().Get("end"))
	if err != nil {
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, report)
}

type ensureHistoryRequest struct {
	End string `json:"end"`
}

// handleEnsureHistory handles POST /api/risk/{ticker}/history, the explicit
// cache fill for risk statistics.
func (s *Server) handleEnsureHistory(w http.ResponseWriter, r *http.Request, ticker string) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	if ticker == "" {
		WriteError(w, http.StatusBadRequest, "ticker is required")
		return
	}

	var req ensureHistoryRequest
	if r.ContentLength > 0 && !DecodeJSON(w, r, &req) {
		return
	}
	if req.End == "" {
		req.End = time.Now().UTC().Format("2006-01-02")
	}

	written, err := s.app.Risk.EnsureHistory(r.Context(), ticker, req.End)
	if err != nil {
		if errors.Is(err, sqlite.ErrNotFound) {
			WriteError(w, http.StatusNotFound, err.Error())
			return
		}
		WriteError(w, http.StatusBadGateway, err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{"ticker": ticker, "observations": written})
}
