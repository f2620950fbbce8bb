package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"smartpark/backend/services/parking-service/internal/models"
	redisstore "smartpark/backend/services/parking-service/internal/redis"
	"smartpark/backend/services/parking-service/internal/service"
)

// ActiveSessionReader looks up cached parked sessions and drops stale ones.
type ActiveSessionReader interface {
	Get(ctx context.Context, licensePlate string) (*redisstore.ActiveSession, error)
	Delete(ctx context.Context, licensePlate string) error
}

// NewCheckInHandler handles POST /api/v1/vehicles/check-in.
func NewCheckInHandler(engine *service.SessionEngine, clock service.Clock, logger *zap.Logger) http.HandlerFunc {
	type request struct {
		LicensePlate string `json:"license_plate"`
		LotID        string `json:"lot_id"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		req.LicensePlate = strings.TrimSpace(req.LicensePlate)
		req.LotID = strings.TrimSpace(req.LotID)
		if req.LicensePlate == "" || req.LotID == "" {
			writeError(w, http.StatusBadRequest, "license_plate and lot_id are required")
			return
		}

		vehicle, err := engine.CheckIn(r.Context(), req.LicensePlate, req.LotID)
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, newVehicleResponse(vehicle, clock.Now()))
	}
}

// NewCheckOutHandler handles POST /api/v1/vehicles/{licensePlate}/check-out.
func NewCheckOutHandler(engine *service.SessionEngine, logger *zap.Logger) http.HandlerFunc {
	type response struct {
		LicensePlate  string    `json:"license_plate"`
		LotID         string    `json:"lot_id"`
		CheckInTime   time.Time `json:"check_in_time"`
		CheckOutTime  time.Time `json:"check_out_time"`
		MinutesParked int64     `json:"minutes_parked"`
		Cost          string    `json:"cost"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		receipt, err := engine.CheckOut(r.Context(), mux.Vars(r)["licensePlate"])
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, response{
			LicensePlate:  receipt.LicensePlate,
			LotID:         receipt.LotID,
			CheckInTime:   receipt.CheckInTime,
			CheckOutTime:  receipt.CheckOutTime,
			MinutesParked: receipt.MinutesParked,
			Cost:          receipt.Cost.StringFixed(models.MoneyScale),
		})
	}
}

// NewActiveSessionHandler handles GET /api/v1/sessions/{licensePlate}. A nil reader
// means the cache is disabled and every lookup is a miss. A cached entry is only
// served while the registry still shows the same parked session; otherwise it is
// removed and reported as a miss.
func NewActiveSessionHandler(reader ActiveSessionReader, vehicles *service.VehicleRegistry, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if reader == nil {
			writeError(w, http.StatusNotFound, "active session cache disabled")
			return
		}
		licensePlate := mux.Vars(r)["licensePlate"]
		session, err := reader.Get(r.Context(), licensePlate)
		if err != nil {
			if errors.Is(err, redis.Nil) {
				writeError(w, http.StatusNotFound, "no active session")
				return
			}
			logger.Warn("active session lookup failed", zap.Error(err))
			writeError(w, http.StatusServiceUnavailable, "active session cache unavailable")
			return
		}

		vehicle, err := vehicles.Get(r.Context(), licensePlate)
		if err != nil && !errors.Is(err, service.ErrNotFound) {
			writeServiceError(w, logger, err)
			return
		}
		if err != nil || !matchesSession(vehicle, session) {
			if err := reader.Delete(r.Context(), licensePlate); err != nil {
				logger.Warn("failed to drop stale active session",
					zap.String("license_plate", licensePlate),
					zap.Error(err),
				)
			}
			writeError(w, http.StatusNotFound, "no active session")
			return
		}
		writeJSON(w, http.StatusOK, session)
	}
}

func matchesSession(vehicle *models.Vehicle, session *redisstore.ActiveSession) bool {
	return vehicle.IsParked() &&
		vehicle.LotID() == session.LotID &&
		vehicle.CheckInTime.Equal(session.CheckInTime)
}
