package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/bobmcallan/carteira/internal/models"
	"github.com/bobmcallan/carteira/internal/storage/sqlite"
)

type assetRequest struct {
	Ticker   string `json:"ticker"`
	Category string `json:"category"`
}

// handleAssets handles /api/assets: GET lists, POST registers.
func (s *Server) handleAssets(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		assets, err := s.app.Store.ListAssets(r.Context())
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error())
			return
		}
		WriteJSON(w, http.StatusOK, assets)

	case http.MethodPost:
		var req assetRequest
		if !DecodeJSON(w, r, &req) {
			return
		}
		if models.NormalizeTicker(req.Ticker) == "" {
			WriteError(w, http.StatusBadRequest, "ticker is required")
			return
		}
		category := models.AssetCategory(req.Category)
		if !models.ValidCategory(category) {
			WriteError(w, http.StatusBadRequest, "unknown category "+req.Category)
			return
		}
		asset, err := s.app.Store.AddAsset(r.Context(), req.Ticker, category)
		if err != nil {
			WriteError(w, http.StatusConflict, err.Error())
			return
		}
		WriteJSON(w, http.StatusCreated, asset)

	default:
		RequireMethod(w, r, http.MethodGet, http.MethodPost)
	}
}

// routeAssets dispatches /api/assets/{id} and its sub-resources.
func (s *Server) routeAssets(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/assets/")
	parts := strings.SplitN(rest, "/", 2)
	id := parts[0]
	if id == "" {
		WriteError(w, http.StatusBadRequest, "asset id is required")
		return
	}

	if len(parts) == 1 {
		s.handleAssetByID(w, r, id)
		return
	}

	switch parts[1] {
	case "transactions":
		s.handleAssetTransactions(w, r, id)
	case "history":
		s.handleAssetHistory(w, r, id)
	case "dividends":
		s.handleAssetDividends(w, r, id)
	default:
		WriteError(w, http.StatusNotFound, "unknown asset resource "+parts[1])
	}
}

func (s *Server) handleAssetByID(w http.ResponseWriter, r *http.Request, id string) {
	ctx := r.Context()
	switch r.Method {
	case http.MethodGet:
		asset, err := s.app.Store.GetAssetByID(ctx, id)
		if err != nil {
			s.writeStoreError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, asset)

	case http.MethodPut:
		var req assetRequest
		if !DecodeJSON(w, r, &req) {
			return
		}
		category := models.AssetCategory(req.Category)
		if !models.ValidCategory(category) {
			WriteError(w, http.StatusBadRequest, "unknown category "+req.Category)
			return
		}
		if err := s.app.Store.RenameAsset(ctx, id, req.Ticker, category); err != nil {
			s.writeStoreError(w, err)
			return
		}
		asset, err := s.app.Store.GetAssetByID(ctx, id)
		if err != nil {
			s.writeStoreError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, asset)

	case http.MethodDelete:
		if err := s.app.Store.DeleteAsset(ctx, id); err != nil {
			s.writeStoreError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		RequireMethod(w, r, http.MethodGet, http.MethodPut, http.MethodDelete)
	}
}

func (s *Server) handleAssetTransactions(w http.ResponseWriter, r *http.Request, id string) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	txs, err := s.app.Store.GetTransactions(r.Context(), id)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, txs)
}

func (s *Server) handleAssetHistory(w http.ResponseWriter, r *http.Request, id string) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	history, err := s.app.Store.GetPriceHistory(r.Context(), id,
		r.URL.Query().Get("start"), r.URL.Query().Get("end"))
	if err != nil {
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, history)
}

type dividendRequest struct {
	Amount  float64 `json:"amount"`
	PayDate string  `json:"pay_date"`
}

func (s *Server) handleAssetDividends(w http.ResponseWriter, r *http.Request, id string) {
	ctx := r.Context()
	switch r.Method {
	case http.MethodGet:
		dividends, err := s.app.Store.GetDividends(ctx, id)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error())
			return
		}
		WriteJSON(w, http.StatusOK, dividends)

	case http.MethodPost:
		var req dividendRequest
		if !DecodeJSON(w, r, &req) {
			return
		}
		if req.Amount <= 0 || req.PayDate == "" {
			WriteError(w, http.StatusBadRequest, "amount and pay_date are required")
			return
		}
		if _, err := s.app.Store.GetAssetByID(ctx, id); err != nil {
			s.writeStoreError(w, err)
			return
		}
		dividend := &models.Dividend{AssetID: id, Amount: req.Amount, PayDate: req.PayDate}
		if err := s.app.Store.AddDividend(ctx, dividend); err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error())
			return
		}
		WriteJSON(w, http.StatusCreated, dividend)

	default:
		RequireMethod(w, r, http.MethodGet, http.MethodPost)
	}
}

// writeStoreError maps storage errors onto HTTP status codes.
func (s *Server) writeStoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, sqlite.ErrNotFound) {
		WriteError(w, http.StatusNotFound, err.Error())
		return
	}
	WriteError(w, http.StatusInternalServerError, err.Error())
}
