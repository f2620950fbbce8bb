package seed

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"smartpark/backend/services/parking-service/internal/service"
)

// Lots registered on first start.
var Lots = []service.LotInput{
	{LotID: "LOT-001", Location: "Downtown Plaza", Capacity: 50, CostPerMinute: decimal.RequireFromString("0.50")},
	{LotID: "LOT-002", Location: "Shopping Mall", Capacity: 100, CostPerMinute: decimal.RequireFromString("0.75")},
	{LotID: "LOT-003", Location: "Airport Terminal", Capacity: 200, CostPerMinute: decimal.RequireFromString("1.00")},
}

// Vehicles registered on first start.
var Vehicles = []service.VehicleInput{
	{LicensePlate: "ABC-123", Type: "CAR", OwnerName: "John Doe"},
	{LicensePlate: "XYZ-789", Type: "MOTORCYCLE", OwnerName: "Jane Smith"},
	{LicensePlate: "TRK-456", Type: "TRUCK", OwnerName: "Bob Johnson"},
	{LicensePlate: "CAR-001", Type: "CAR", OwnerName: "Alice Williams"},
	{LicensePlate: "MOTO-999", Type: "MOTORCYCLE", OwnerName: "Charlie Brown"},
}

// Result counts what Run created.
type Result struct {
	LotsCreated     int
	VehiclesCreated int
}

// Run registers the sample lots and vehicles, skipping those that already exist.
func Run(ctx context.Context, lots *service.LotRegistry, vehicles *service.VehicleRegistry, logger *zap.Logger) (Result, error) {
	var res Result
	for _, in := range Lots {
		if _, err := lots.Register(ctx, in); err != nil {
			if errors.Is(err, service.ErrAlreadyExists) {
				continue
			}
			return res, err
		}
		res.LotsCreated++
	}
	for _, in := range Vehicles {
		if _, err := vehicles.Register(ctx, in); err != nil {
			if errors.Is(err, service.ErrAlreadyExists) {
				continue
			}
			return res, err
		}
		res.VehiclesCreated++
	}
	logger.Info("sample data loaded",
		zap.Int("lots_created", res.LotsCreated),
		zap.Int("vehicles_created", res.VehiclesCreated),
	)
	return res, nil
}
