package server

import (
	"net/http"
	"strings"

	"github.com/bobmcallan/carteira/internal/models"
)

type alertRequest struct {
	Ticker    string  `json:"ticker"`
	Kind      string  `json:"kind"`
	Threshold float64 `json:"threshold"`
}

// handleAlerts handles /api/alerts: GET lists active alerts, POST creates.
func (s *Server) handleAlerts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	switch r.Method {
	case http.MethodGet:
		alerts, err := s.app.Store.GetActiveAlerts(ctx)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error())
			return
		}
		WriteJSON(w, http.StatusOK, alerts)

	case http.MethodPost:
		var req alertRequest
		if !DecodeJSON(w, r, &req) {
			return
		}
		kind := models.AlertKind(req.Kind)
		if kind != models.AlertPriceTarget && kind != models.AlertPercentChange {
			WriteError(w, http.StatusBadRequest, "unknown alert kind "+req.Kind)
			return
		}
		if req.Threshold <= 0 {
			WriteError(w, http.StatusBadRequest, "threshold must be positive")
			return
		}
		asset, err := s.app.Store.GetAssetByTicker(ctx, req.Ticker)
		if err != nil {
			s.writeStoreError(w, err)
			return
		}
		alert := &models.Alert{AssetID: asset.ID, Kind: kind, Threshold: req.Threshold}
		if err := s.app.Store.AddAlert(ctx, alert); err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error())
			return
		}
		WriteJSON(w, http.StatusCreated, alert)

	default:
		RequireMethod(w, r, http.MethodGet, http.MethodPost)
	}
}

// handleAlertByID handles DELETE /api/alerts/{id} (deactivation).
func (s *Server) handleAlertByID(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodDelete) {
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/api/alerts/")
	if id == "" {
		WriteError(w, http.StatusBadRequest, "alert id is required")
		return
	}
	if err := s.app.Store.DeactivateAlert(r.Context(), id); err != nil {
		s.writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleAlertCheck handles POST /api/alerts/check, an on-demand sweep.
func (s *Server) handleAlertCheck(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	triggered, err := s.app.Alerts.Check(r.Context())
	if err != nil {
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, triggered)
}
