package server

import (
	"errors"
	"net/http"

	"github.com/bobmcallan/carteira/internal/services/projection"
)

type monteCarloRequest struct {
	InitialValue float64 `json:"initial_value"`
	Runs         int     `json:"runs"`
	Days         int     `json:"days"`
}

// handleMonteCarlo handles POST /api/projection/montecarlo. With
// ?chart=png the response is a rendered chart instead of the value matrix.
func (s *Server) handleMonteCarlo(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	var req monteCarloRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	result, err := s.app.Projection.MonteCarlo(r.Context(), req.InitialValue, req.Runs, req.Days)
	if err != nil {
		s.writeProjectionError(w, err)
		return
	}

	if r.URL.Query().Get("chart") == "png" {
		png, err := projection.RenderMonteCarlo(result)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writePNG(w, png)
		return
	}
	WriteJSON(w, http.StatusOK, result)
}

type linearRequest struct {
	InitialValue float64 `json:"initial_value"`
	AnnualRate   float64 `json:"annual_rate"`
	Years        int     `json:"years"`
}

// handleLinear handles POST /api/projection/linear.
func (s *Server) handleLinear(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	var req linearRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	result, err := s.app.Projection.Linear(req.InitialValue, req.AnnualRate, req.Years)
	if err != nil {
		s.writeProjectionError(w, err)
		return
	}

	if r.URL.Query().Get("chart") == "png" {
		png, err := projection.RenderLinear(result)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writePNG(w, png)
		return
	}
	WriteJSON(w, http.StatusOK, result)
}

func (s *Server) writeProjectionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, projection.ErrBadInput):
		WriteError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, projection.ErrNoResult):
		WriteError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		WriteError(w, http.StatusInternalServerError, err.Error())
	}
}

func writePNG(w http.ResponseWriter, png []byte) {
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}
