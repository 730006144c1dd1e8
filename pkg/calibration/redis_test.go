package calibration

import (
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestNewRedisClient_EmptyAddr(t *testing.T) {
	client, err := NewRedisClient(RedisConfig{})
	require.Error(t, err)
	require.Nil(t, client)
}

func TestNewRedisClient_InvalidHost(t *testing.T) {
	client, err := NewRedisClient(RedisConfig{Addr: "invalid-redis-host-that-does-not-exist:6379"})
	require.Error(t, err)
	require.Nil(t, client)
	require.Contains(t, err.Error(), "failed to connect to Redis")
}

func TestRedisStore_KeyNamespace(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	defer client.Close()

	require.Equal(t, "desk-1:calibration", NewRedisStore(client, "desk-1").key())
	require.Equal(t, "posture:calibration", NewRedisStore(client, "").key())
}
