package models

import (
	"fmt"
	"strings"
	"time"
)

// VehicleType enumerates supported vehicle kinds.
type VehicleType string

const (
	VehicleCar        VehicleType = "CAR"
	VehicleMotorcycle VehicleType = "MOTORCYCLE"
	VehicleTruck      VehicleType = "TRUCK"
)

// ParseVehicleType accepts a type name in any letter case.
func ParseVehicleType(raw string) (VehicleType, error) {
	switch t := VehicleType(strings.ToUpper(strings.TrimSpace(raw))); t {
	case VehicleCar, VehicleMotorcycle, VehicleTruck:
		return t, nil
	default:
		return "", fmt.Errorf("unknown vehicle type %q", raw)
	}
}

// Vehicle is a registered vehicle together with its parking session fields.
// CurrentLotID, CheckInTime and CheckOutTime are only ever written together
// through SessionState.
type Vehicle struct {
	LicensePlate string      `db:"license_plate" json:"license_plate"`
	Type         VehicleType `db:"type" json:"type"`
	OwnerName    string      `db:"owner_name" json:"owner_name"`
	CurrentLotID *string     `db:"current_lot_id" json:"current_lot_id"`
	CheckInTime  *time.Time  `db:"check_in_time" json:"check_in_time"`
	CheckOutTime *time.Time  `db:"check_out_time" json:"check_out_time"`
	CreatedAt    time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time   `db:"updated_at" json:"updated_at"`
}

// IsParked reports whether the vehicle currently occupies a lot.
func (v *Vehicle) IsParked() bool {
	return v.CurrentLotID != nil && v.CheckInTime != nil && v.CheckOutTime == nil
}

// LotID returns the current lot or "" when unparked.
func (v *Vehicle) LotID() string {
	if v.CurrentLotID == nil {
		return ""
	}
	return *v.CurrentLotID
}

// ParkedMinutes returns whole minutes between check-in and check-out, or now while
// still parked. Partial minutes are dropped.
func (v *Vehicle) ParkedMinutes(now time.Time) int64 {
	if v.CheckInTime == nil {
		return 0
	}
	end := now
	if v.CheckOutTime != nil {
		end = *v.CheckOutTime
	}
	return WholeMinutes(*v.CheckInTime, end)
}

// Session returns a copy of the session fields.
func (v *Vehicle) Session() SessionState {
	return SessionState{
		LotID:        cloneString(v.CurrentLotID),
		CheckInTime:  cloneTime(v.CheckInTime),
		CheckOutTime: cloneTime(v.CheckOutTime),
	}
}

// ApplySession overwrites all three session fields at once.
func (v *Vehicle) ApplySession(s SessionState) {
	v.CurrentLotID = cloneString(s.LotID)
	v.CheckInTime = cloneTime(s.CheckInTime)
	v.CheckOutTime = cloneTime(s.CheckOutTime)
}

// Clone returns a deep copy.
func (v *Vehicle) Clone() *Vehicle {
	c := *v
	c.ApplySession(v.Session())
	return &c
}

// SessionState carries the three parking session fields as one value.
// The zero value is the unparked state.
type SessionState struct {
	LotID        *string
	CheckInTime  *time.Time
	CheckOutTime *time.Time
}

// ParkedSession builds the state of a vehicle parked in lotID since at.
func ParkedSession(lotID string, at time.Time) SessionState {
	return SessionState{LotID: &lotID, CheckInTime: &at}
}

// IsZero reports whether no session field is set.
func (s SessionState) IsZero() bool {
	return s.LotID == nil && s.CheckInTime == nil && s.CheckOutTime == nil
}

// Coherent reports whether the fields form either the unparked or the parked state.
func (s SessionState) Coherent() bool {
	if s.IsZero() {
		return true
	}
	return s.LotID != nil && *s.LotID != "" && s.CheckInTime != nil && s.CheckOutTime == nil
}

// WholeMinutes returns the truncated number of minutes from start to end, never negative.
func WholeMinutes(start, end time.Time) int64 {
	d := end.Sub(start)
	if d <= 0 {
		return 0
	}
	return int64(d / time.Minute)
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
