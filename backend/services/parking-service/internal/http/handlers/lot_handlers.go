package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"smartpark/backend/services/parking-service/internal/service"
)

// NewRegisterLotHandler handles POST /api/v1/parking-lots.
func NewRegisterLotHandler(lots *service.LotRegistry, logger *zap.Logger) http.HandlerFunc {
	type request struct {
		LotID         string          `json:"lot_id"`
		Location      string          `json:"location"`
		Capacity      int             `json:"capacity"`
		CostPerMinute decimal.Decimal `json:"cost_per_minute"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}

		lot, err := lots.Register(r.Context(), service.LotInput{
			LotID:         req.LotID,
			Location:      req.Location,
			Capacity:      req.Capacity,
			CostPerMinute: req.CostPerMinute,
		})
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusCreated, newLotResponse(lot))
	}
}

// NewListLotsHandler handles GET /api/v1/parking-lots.
func NewListLotsHandler(lots *service.LotRegistry, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		all, err := lots.List(r.Context())
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}
		out := make([]lotResponse, 0, len(all))
		for i := range all {
			out = append(out, newLotResponse(&all[i]))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// NewGetLotHandler handles GET /api/v1/parking-lots/{lotId}.
func NewGetLotHandler(lots *service.LotRegistry, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		lot, err := lots.Get(r.Context(), mux.Vars(r)["lotId"])
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, newLotResponse(lot))
	}
}

// NewLotStatusHandler handles GET /api/v1/parking-lots/{lotId}/status.
func NewLotStatusHandler(lots *service.LotRegistry, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status, err := lots.Status(r.Context(), mux.Vars(r)["lotId"])
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, status)
	}
}

// NewLotVehiclesHandler handles GET /api/v1/parking-lots/{lotId}/vehicles.
func NewLotVehiclesHandler(engine *service.SessionEngine, clock service.Clock, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vehicles, err := engine.VehiclesInLot(r.Context(), mux.Vars(r)["lotId"])
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, newVehicleResponses(vehicles, clock.Now()))
	}
}
