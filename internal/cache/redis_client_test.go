package cache

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/devenkumar1/Quick-Ship-sub000/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisOptions(t *testing.T) {
	opts, err := redisOptions(&config.Config{RedisURL: "cache:6379", RedisDB: 2})
	require.NoError(t, err)
	assert.Equal(t, "cache:6379", opts.Addr)
	assert.Equal(t, 2, opts.DB)

	opts, err = redisOptions(&config.Config{RedisURL: "redis://:secret@cache:6380/3"})
	require.NoError(t, err)
	assert.Equal(t, "cache:6380", opts.Addr)
	assert.Equal(t, "secret", opts.Password)
	assert.Equal(t, 3, opts.DB)

	opts, err = redisOptions(&config.Config{RedisURL: "redis://cache:6380/3", RedisPassword: "override"})
	require.NoError(t, err)
	assert.Equal(t, "override", opts.Password)

	_, err = redisOptions(&config.Config{RedisURL: "http://cache:6380"})
	assert.Error(t, err)
}

func TestConnectRedis(t *testing.T) {
	mr := miniredis.RunT(t)

	rdb, err := ConnectRedis(context.Background(), &config.Config{RedisURL: mr.Addr()})
	require.NoError(t, err)
	defer rdb.Close()
	assert.NoError(t, rdb.Set(context.Background(), "k", "v", 0).Err())

	mr.Close()
	_, err = ConnectRedis(context.Background(), &config.Config{RedisURL: mr.Addr()})
	assert.Error(t, err)
}
