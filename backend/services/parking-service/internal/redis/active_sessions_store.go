package redisstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ActiveSession is the cached view of a parked vehicle.
type ActiveSession struct {
	LicensePlate string    `json:"license_plate"`
	LotID        string    `json:"lot_id"`
	CheckInTime  time.Time `json:"check_in_time"`
}

// Store manages the active session cache.
type Store struct {
	client redis.Cmdable
	ttl    time.Duration
}

// NewStore returns redis-backed store. A zero ttl keeps entries until deleted.
func NewStore(client redis.Cmdable, ttl time.Duration) *Store {
	return &Store{client: client, ttl: ttl}
}

func key(licensePlate string) string {
	return fmt.Sprintf("sessions:active:%s", licensePlate)
}

// Save caches session.
func (s *Store) Save(ctx context.Context, session ActiveSession) error {
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, key(session.LicensePlate), data, s.ttl).Err()
}

// Get returns cached session or redis.Nil when absent.
func (s *Store) Get(ctx context.Context, licensePlate string) (*ActiveSession, error) {
	result, err := s.client.Get(ctx, key(licensePlate)).Result()
	if err != nil {
		return nil, err
	}
	var session ActiveSession
	if err := json.Unmarshal([]byte(result), &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// Delete removes cached session.
func (s *Store) Delete(ctx context.Context, licensePlate string) error {
	return s.client.Del(ctx, key(licensePlate)).Err()
}
