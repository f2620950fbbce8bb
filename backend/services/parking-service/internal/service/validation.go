package service

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"smartpark/backend/services/parking-service/internal/models"
)

const maxIDLength = 50

var (
	licensePlatePattern = regexp.MustCompile(`^[A-Za-z0-9-]+$`)
	ownerNamePattern    = regexp.MustCompile(`^[A-Za-z ]+$`)
)

// LotInput holds registration fields for a lot.
type LotInput struct {
	LotID         string
	Location      string
	Capacity      int
	CostPerMinute decimal.Decimal
}

// Normalize trims text fields, rounds the rate to money scale and checks every field.
func (in LotInput) Normalize() (LotInput, error) {
	in.LotID = strings.TrimSpace(in.LotID)
	in.Location = strings.TrimSpace(in.Location)
	switch {
	case in.LotID == "":
		return in, invalidArgument("lot id is required")
	case len(in.LotID) > maxIDLength:
		return in, invalidArgument("lot id must be at most %d characters", maxIDLength)
	case in.Location == "":
		return in, invalidArgument("location is required")
	case in.Capacity < 1:
		return in, invalidArgument("capacity must be at least 1")
	}
	in.CostPerMinute = in.CostPerMinute.Round(models.MoneyScale)
	if !in.CostPerMinute.IsPositive() {
		return in, invalidArgument("cost per minute must be greater than 0")
	}
	return in, nil
}

// VehicleInput holds registration fields for a vehicle.
type VehicleInput struct {
	LicensePlate string
	Type         string
	OwnerName    string
}

// Normalize trims text fields, parses the type and checks every field.
func (in VehicleInput) Normalize() (VehicleInput, models.VehicleType, error) {
	in.LicensePlate = strings.TrimSpace(in.LicensePlate)
	in.OwnerName = strings.TrimSpace(in.OwnerName)
	if err := validateLicensePlate(in.LicensePlate); err != nil {
		return in, "", err
	}
	if in.OwnerName == "" {
		return in, "", invalidArgument("owner name is required")
	}
	if !ownerNamePattern.MatchString(in.OwnerName) {
		return in, "", invalidArgument("owner name may contain only letters and spaces")
	}
	vType, err := models.ParseVehicleType(in.Type)
	if err != nil {
		return in, "", invalidArgument("%s", err.Error())
	}
	return in, vType, nil
}

func validateLicensePlate(plate string) error {
	switch {
	case plate == "":
		return invalidArgument("license plate is required")
	case len(plate) > maxIDLength:
		return invalidArgument("license plate must be at most %d characters", maxIDLength)
	case !licensePlatePattern.MatchString(plate):
		return invalidArgument("license plate may contain only letters, digits and hyphens")
	}
	return nil
}
