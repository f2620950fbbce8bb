package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// MoneyScale is the number of fractional digits kept for monetary values.
const MoneyScale = 2

// ParkingLot is a facility with a fixed capacity and a per-minute rate.
// OccupiedSpaces stays within [0, Capacity].
type ParkingLot struct {
	LotID          string          `db:"lot_id" json:"lot_id"`
	Location       string          `db:"location" json:"location"`
	Capacity       int             `db:"capacity" json:"capacity"`
	OccupiedSpaces int             `db:"occupied_spaces" json:"occupied_spaces"`
	CostPerMinute  decimal.Decimal `db:"cost_per_minute" json:"cost_per_minute"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time       `db:"updated_at" json:"updated_at"`
}

// IsFull reports whether no space is left.
func (l *ParkingLot) IsFull() bool {
	return l.OccupiedSpaces >= l.Capacity
}

// AvailableSpaces returns capacity minus occupancy.
func (l *ParkingLot) AvailableSpaces() int {
	return l.Capacity - l.OccupiedSpaces
}

// Occupy takes one space. It returns false and leaves the lot untouched when full.
func (l *ParkingLot) Occupy() bool {
	if l.OccupiedSpaces >= l.Capacity {
		return false
	}
	l.OccupiedSpaces++
	return true
}

// Vacate frees one space. It returns false and leaves the lot untouched when empty.
func (l *ParkingLot) Vacate() bool {
	if l.OccupiedSpaces <= 0 {
		return false
	}
	l.OccupiedSpaces--
	return true
}

// Status projects the lot onto its occupancy view.
func (l *ParkingLot) Status() LotStatus {
	return LotStatus{
		LotID:           l.LotID,
		Location:        l.Location,
		Capacity:        l.Capacity,
		OccupiedSpaces:  l.OccupiedSpaces,
		AvailableSpaces: l.AvailableSpaces(),
	}
}

// LotStatus is the occupancy summary of a lot.
type LotStatus struct {
	LotID           string `json:"lot_id"`
	Location        string `json:"location"`
	Capacity        int    `json:"capacity"`
	OccupiedSpaces  int    `json:"occupied_spaces"`
	AvailableSpaces int    `json:"available_spaces"`
}
