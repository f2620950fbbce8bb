package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"smartpark/backend/services/parking-service/internal/models"
	"smartpark/backend/services/parking-service/internal/service"
)

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeServiceError maps service errors onto HTTP statuses.
func writeServiceError(w http.ResponseWriter, logger *zap.Logger, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidArgument):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrAlreadyExists), errors.Is(err, service.ErrConflict):
		writeError(w, http.StatusConflict, err.Error())
	default:
		logger.Error("request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func decodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

type lotResponse struct {
	LotID           string    `json:"lot_id"`
	Location        string    `json:"location"`
	Capacity        int       `json:"capacity"`
	OccupiedSpaces  int       `json:"occupied_spaces"`
	AvailableSpaces int       `json:"available_spaces"`
	CostPerMinute   string    `json:"cost_per_minute"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func newLotResponse(lot *models.ParkingLot) lotResponse {
	return lotResponse{
		LotID:           lot.LotID,
		Location:        lot.Location,
		Capacity:        lot.Capacity,
		OccupiedSpaces:  lot.OccupiedSpaces,
		AvailableSpaces: lot.AvailableSpaces(),
		CostPerMinute:   lot.CostPerMinute.StringFixed(models.MoneyScale),
		CreatedAt:       lot.CreatedAt,
		UpdatedAt:       lot.UpdatedAt,
	}
}

type vehicleResponse struct {
	LicensePlate  string             `json:"license_plate"`
	Type          models.VehicleType `json:"type"`
	OwnerName     string             `json:"owner_name"`
	CurrentLotID  *string            `json:"current_lot_id"`
	CheckInTime   *time.Time         `json:"check_in_time"`
	CheckOutTime  *time.Time         `json:"check_out_time"`
	IsParked      bool               `json:"is_parked"`
	ParkedMinutes int64              `json:"parked_minutes"`
}

func newVehicleResponse(v *models.Vehicle, now time.Time) vehicleResponse {
	return vehicleResponse{
		LicensePlate:  v.LicensePlate,
		Type:          v.Type,
		OwnerName:     v.OwnerName,
		CurrentLotID:  v.CurrentLotID,
		CheckInTime:   v.CheckInTime,
		CheckOutTime:  v.CheckOutTime,
		IsParked:      v.IsParked(),
		ParkedMinutes: v.ParkedMinutes(now),
	}
}

func newVehicleResponses(vehicles []models.Vehicle, now time.Time) []vehicleResponse {
	out := make([]vehicleResponse, 0, len(vehicles))
	for i := range vehicles {
		out = append(out, newVehicleResponse(&vehicles[i], now))
	}
	return out
}
