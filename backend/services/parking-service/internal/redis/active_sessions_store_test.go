package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreSaveAndGet(t *testing.T) {
	client, mock := redismock.NewClientMock()
	store := NewStore(client, time.Hour)
	ctx := context.Background()

	session := ActiveSession{
		LicensePlate: "ABC-123",
		LotID:        "LOT-001",
		CheckInTime:  time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
	}
	payload, err := json.Marshal(session)
	require.NoError(t, err)

	mock.ExpectSet("sessions:active:ABC-123", payload, time.Hour).SetVal("OK")
	require.NoError(t, store.Save(ctx, session))

	mock.ExpectGet("sessions:active:ABC-123").SetVal(string(payload))
	got, err := store.Get(ctx, "ABC-123")
	require.NoError(t, err)
	assert.Equal(t, session, *got)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreGetMissing(t *testing.T) {
	client, mock := redismock.NewClientMock()
	store := NewStore(client, 0)

	mock.ExpectGet("sessions:active:NOPE").RedisNil()
	_, err := store.Get(context.Background(), "NOPE")
	assert.True(t, errors.Is(err, redis.Nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreDelete(t *testing.T) {
	client, mock := redismock.NewClientMock()
	store := NewStore(client, 0)

	mock.ExpectDel("sessions:active:ABC-123").SetVal(1)
	require.NoError(t, store.Delete(context.Background(), "ABC-123"))

	mock.ExpectDel("sessions:active:ABC-123").SetErr(errors.New("connection refused"))
	assert.Error(t, store.Delete(context.Background(), "ABC-123"))

	assert.NoError(t, mock.ExpectationsWereMet())
}
