package server

import (
	"errors"
	"net/http"

	"github.com/bobmcallan/carteira/internal/models"
	"github.com/bobmcallan/carteira/internal/services/valuation"
)

// handleSnapshot handles GET /api/portfolio/snapshot.
func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	snapshot, err := s.app.Valuation.Snapshot(r.Context())
	if err != nil {
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, snapshot)
}

// handlePosition handles GET /api/portfolio/positions/{ticker}.
func (s *Server) handlePosition(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	ticker := PathParam(r, "/api/portfolio/positions/", "")
	if ticker == "" {
		WriteError(w, http.StatusBadRequest, "ticker is required")
		return
	}
	position, err := s.app.Valuation.Position(r.Context(), ticker)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, position)
}

type tradeRequest struct {
	Ticker    string  `json:"ticker"`
	Category  string  `json:"category"`
	Direction string  `json:"direction"`
	Quantity  float64 `json:"quantity"`
	Price     float64 `json:"price"`
	Date      string  `json:"date"`
}

// handleTrades handles POST /api/portfolio/trades.
func (s *Server) handleTrades(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	var req tradeRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	tx, err := s.app.Valuation.RecordTrade(r.Context(),
		req.Ticker,
		models.AssetCategory(req.Category),
		models.TransactionDirection(req.Direction),
		req.Quantity, req.Price, req.Date)
	if err != nil {
		if errors.Is(err, valuation.ErrInvalidTrade) {
			WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	WriteJSON(w, http.StatusCreated, tx)
}

// handleRefresh handles POST /api/portfolio/refresh.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	updated, err := s.app.Valuation.RefreshQuotes(r.Context())
	if err != nil {
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{"updated": updated})
}
