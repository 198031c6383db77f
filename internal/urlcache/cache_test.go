package urlcache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCache_Expiry(t *testing.T) {
	c := NewMemoryCache()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	ctx := context.Background()

	_, err := c.Get(ctx, "a")
	assert.ErrorIs(t, err, ErrMiss)

	require.NoError(t, c.Set(ctx, "a", "https://signed/a", time.Hour))
	v, err := c.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "https://signed/a", v)

	now = now.Add(time.Hour)
	_, err = c.Get(ctx, "a")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestMemoryCache_Delete(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "a", "v", time.Minute))
	require.NoError(t, c.Delete(ctx, "a"))
	_, err := c.Get(ctx, "a")
	assert.ErrorIs(t, err, ErrMiss)
	assert.NoError(t, c.Close())
}

type fakeRedis struct {
	data   map[string]string
	ttl    map[string]time.Duration
	getErr error
	closed bool
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: map[string]string{}, ttl: map[string]time.Duration{}}
}

func (f *fakeRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	if f.getErr != nil {
		return redis.NewStringResult("", f.getErr)
	}
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeRedis) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	f.data[key] = value.(string)
	f.ttl[key] = expiration
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	for _, k := range keys {
		delete(f.data, k)
	}
	return redis.NewIntResult(int64(len(keys)), nil)
}

func (f *fakeRedis) Close() error {
	f.closed = true
	return nil
}

func TestRedisCache_RoundTrip(t *testing.T) {
	fr := newFakeRedis()
	c := &RedisCache{client: fr}
	ctx := context.Background()

	_, err := c.Get(ctx, "f1")
	assert.ErrorIs(t, err, ErrMiss)

	require.NoError(t, c.Set(ctx, "f1", "https://signed/f1", time.Hour))
	assert.Equal(t, time.Hour, fr.ttl[keyPrefix+"f1"])

	v, err := c.Get(ctx, "f1")
	require.NoError(t, err)
	assert.Equal(t, "https://signed/f1", v)

	require.NoError(t, c.Delete(ctx, "f1"))
	_, err = c.Get(ctx, "f1")
	assert.ErrorIs(t, err, ErrMiss)

	require.NoError(t, c.Close())
	assert.True(t, fr.closed)
}

func TestRedisCache_GetError(t *testing.T) {
	fr := newFakeRedis()
	fr.getErr = errors.New("conn refused")
	c := &RedisCache{client: fr}

	_, err := c.Get(context.Background(), "f1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrMiss)
	assert.Contains(t, err.Error(), "conn refused")
}
