package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CheckOutReceipt is returned once per completed session and not stored.
type CheckOutReceipt struct {
	LicensePlate  string          `json:"license_plate"`
	LotID         string          `json:"lot_id"`
	CheckInTime   time.Time       `json:"check_in_time"`
	CheckOutTime  time.Time       `json:"check_out_time"`
	MinutesParked int64           `json:"minutes_parked"`
	Cost          decimal.Decimal `json:"cost"`
}

// ParkingCost multiplies the per-minute rate by whole minutes, scaled to MoneyScale.
func ParkingCost(costPerMinute decimal.Decimal, minutes int64) decimal.Decimal {
	return costPerMinute.Mul(decimal.NewFromInt(minutes)).Round(MoneyScale)
}

// EventType names an occupancy change.
type EventType string

const (
	EventCheckIn  EventType = "check_in"
	EventCheckOut EventType = "check_out"
	EventEviction EventType = "eviction"
)

// OccupancyEvent describes a committed occupancy change for live subscribers.
type OccupancyEvent struct {
	ID              string    `json:"id"`
	Type            EventType `json:"type"`
	LotID           string    `json:"lot_id"`
	LicensePlate    string    `json:"license_plate"`
	OccupiedSpaces  int       `json:"occupied_spaces"`
	AvailableSpaces int       `json:"available_spaces"`
	At              time.Time `json:"at"`
}
