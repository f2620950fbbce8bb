package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"smartpark/backend/services/parking-service/internal/service"
)

// NewRegisterVehicleHandler handles POST /api/v1/vehicles.
func NewRegisterVehicleHandler(vehicles *service.VehicleRegistry, clock service.Clock, logger *zap.Logger) http.HandlerFunc {
	type request struct {
		LicensePlate string `json:"license_plate"`
		Type         string `json:"type"`
		OwnerName    string `json:"owner_name"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}

		vehicle, err := vehicles.Register(r.Context(), service.VehicleInput{
			LicensePlate: req.LicensePlate,
			Type:         req.Type,
			OwnerName:    req.OwnerName,
		})
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusCreated, newVehicleResponse(vehicle, clock.Now()))
	}
}

// NewListVehiclesHandler handles GET /api/v1/vehicles.
func NewListVehiclesHandler(vehicles *service.VehicleRegistry, clock service.Clock, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		all, err := vehicles.List(r.Context())
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, newVehicleResponses(all, clock.Now()))
	}
}

// NewGetVehicleHandler handles GET /api/v1/vehicles/{licensePlate}.
func NewGetVehicleHandler(vehicles *service.VehicleRegistry, clock service.Clock, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vehicle, err := vehicles.Get(r.Context(), mux.Vars(r)["licensePlate"])
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, newVehicleResponse(vehicle, clock.Now()))
	}
}
