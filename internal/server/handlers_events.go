package server

import (
	"net/http"

	"github.com/bobmcallan/carteira/internal/models"
)

type eventRequest struct {
	Date        string `json:"date"`
	Kind        string `json:"kind"`
	Description string `json:"description"`
	Ticker      string `json:"ticker,omitempty"`
}

// handleEvents handles /api/events: GET lists a date range, POST creates.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	switch r.Method {
	case http.MethodGet:
		events, err := s.app.Store.GetEvents(ctx,
			r.URL.Query().Get("start"), r.URL.Query().Get("end"))
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error())
			return
		}
		WriteJSON(w, http.StatusOK, events)

	case http.MethodPost:
		var req eventRequest
		if !DecodeJSON(w, r, &req) {
			return
		}
		if req.Date == "" || req.Kind == "" {
			WriteError(w, http.StatusBadRequest, "date and kind are required")
			return
		}

		event := &models.CalendarEvent{Date: req.Date, Kind: req.Kind, Description: req.Description}
		if req.Ticker != "" {
			asset, err := s.app.Store.GetAssetByTicker(ctx, req.Ticker)
			if err != nil {
				s.writeStoreError(w, err)
				return
			}
			event.AssetID = asset.ID
		}

		if err := s.app.Store.AddEvent(ctx, event); err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error())
			return
		}
		WriteJSON(w, http.StatusCreated, event)

	default:
		RequireMethod(w, r, http.MethodGet, http.MethodPost)
	}
}

// handleExport handles GET /api/export.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	bundle, err := s.app.Store.Export(r.Context())
	if err != nil {
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, bundle)
}

// handleImport handles POST /api/import.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	var bundle models.ExportBundle
	if !DecodeJSON(w, r, &bundle) {
		return
	}
	if err := s.app.Store.Import(r.Context(), &bundle); err != nil {
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"assets":       len(bundle.Assets),
		"transactions": len(bundle.Transactions),
	})
}
