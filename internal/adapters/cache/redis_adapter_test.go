package cache_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/healthassist/backend/internal/adapters/cache"
	"github.com/healthassist/backend/internal/domain/providers"
	redisclient "github.com/healthassist/backend/internal/infrastructure/clients/redis"
)

func TestRedisAdapter_Get(t *testing.T) {
	db, mock := redismock.NewClientMock()
	adapter := cache.NewRedisAdapter(redisclient.NewClientFromRedis(db))

	mock.ExpectGet("places:v1:nearby:abc").SetVal(`{"Status":"OK"}`)
	mock.ExpectGet("places:v1:nearby:missing").RedisNil()
	mock.ExpectGet("places:v1:nearby:broken").SetErr(errors.New("connection reset"))

	value, err := adapter.Get(context.Background(), "places:v1:nearby:abc")
	require.NoError(t, err)
	assert.Equal(t, `{"Status":"OK"}`, string(value))

	_, err = adapter.Get(context.Background(), "places:v1:nearby:missing")
	assert.ErrorIs(t, err, providers.ErrCacheMiss)

	_, err = adapter.Get(context.Background(), "places:v1:nearby:broken")
	require.Error(t, err)
	assert.NotErrorIs(t, err, providers.ErrCacheMiss)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisAdapter_SetAndDelete(t *testing.T) {
	db, mock := redismock.NewClientMock()
	adapter := cache.NewRedisAdapter(redisclient.NewClientFromRedis(db))

	mock.ExpectSet("k", []byte("v"), 10*time.Minute).SetVal("OK")
	mock.ExpectDel("k").SetVal(1)

	require.NoError(t, adapter.Set(context.Background(), "k", []byte("v"), 10*time.Minute))
	require.NoError(t, adapter.Delete(context.Background(), "k"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisAdapter_ErrorsOmitKeySuffix(t *testing.T) {
	db, mock := redismock.NewClientMock()
	adapter := cache.NewRedisAdapter(redisclient.NewClientFromRedis(db))

	mock.ExpectSet("places:v1:nearby:33.74900,-84.38800", []byte("v"), time.Minute).SetErr(errors.New("READONLY"))

	err := adapter.Set(context.Background(), "places:v1:nearby:33.74900,-84.38800", []byte("v"), time.Minute)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "places:v1:nearby")
	assert.NotContains(t, err.Error(), "33.74900")
	assert.NoError(t, mock.ExpectationsWereMet())
}
