package redis

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *Client) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	client, err := NewClient("redis://"+mr.Addr(), "test", zap.NewNop())
	require.NoError(t, err)

	return mr, client
}

func TestNewClient(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	tests := []struct {
		name        string
		url         string
		expectError bool
	}{
		{
			name:        "Reachable Redis",
			url:         "redis://" + mr.Addr(),
			expectError: false,
		},
		{
			name:        "Invalid URL",
			url:         "invalid://url",
			expectError: true,
		},
		{
			name:        "Empty URL",
			url:         "",
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := NewClient(tt.url, "test", zap.NewNop())

			if tt.expectError {
				assert.Error(t, err)
				assert.Nil(t, client)
			} else {
				require.NoError(t, err)
				require.NotNil(t, client)
				assert.NotNil(t, client.KeyBuilder)
				assert.NoError(t, client.Close())
			}
		})
	}
}

func TestClient_Get(t *testing.T) {
	mr, client := setupTestRedis(t)
	ctx := context.Background()

	mr.Set("test:key1", "value1")

	value, err := client.Get(ctx, "test:key1")
	require.NoError(t, err)
	assert.Equal(t, "value1", value)

	_, err = client.Get(ctx, "test:missing")
	assert.ErrorIs(t, err, goredis.Nil)
}

func TestClient_Expire(t *testing.T) {
	mr, client := setupTestRedis(t)
	defer mr.Close()

	ctx := context.Background()
	mr.Set("test:expire1", "value1")

	require.NoError(t, client.Expire(ctx, "test:expire1", time.Hour))
	assert.Equal(t, time.Hour, mr.TTL("test:expire1"))

	// Redis answers 0 for a missing key, which is not an error.
	assert.NoError(t, client.Expire(ctx, "test:nonexistent", time.Hour))
}

func TestClient_Health(t *testing.T) {
	mr, client := setupTestRedis(t)

	assert.NoError(t, client.Health(context.Background()))

	mr.Close()
	assert.Error(t, client.Health(context.Background()))
}

func TestClient_Update(t *testing.T) {
	mr, client := setupTestRedis(t)
	defer mr.Close()

	ctx := context.Background()

	err := client.Update(ctx, "test:doc", time.Minute, func(current string, exists bool) (string, error) {
		assert.False(t, exists)
		assert.Empty(t, current)
		return "v1", nil
	})
	require.NoError(t, err)

	err = client.Update(ctx, "test:doc", time.Minute, func(current string, exists bool) (string, error) {
		assert.True(t, exists)
		return current + "+v2", nil
	})
	require.NoError(t, err)

	value, err := mr.Get("test:doc")
	require.NoError(t, err)
	assert.Equal(t, "v1+v2", value)
	assert.Equal(t, time.Minute, mr.TTL("test:doc"))
}

func TestClient_UpdateAbortsOnCallbackError(t *testing.T) {
	mr, client := setupTestRedis(t)
	defer mr.Close()

	mr.Set("test:doc", "original")
	boom := errors.New("boom")

	err := client.Update(context.Background(), "test:doc", time.Minute, func(string, bool) (string, error) {
		return "", boom
	})

	assert.ErrorIs(t, err, boom)
	value, _ := mr.Get("test:doc")
	assert.Equal(t, "original", value)
}

func TestClient_UpdateConcurrentWritersAllApply(t *testing.T) {
	mr, client := setupTestRedis(t)
	defer mr.Close()

	ctx := context.Background()
	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = client.Update(ctx, "test:counter", time.Minute, func(current string, _ bool) (string, error) {
				return current + "x", nil
			})
		}()
	}
	wg.Wait()

	value, err := mr.Get("test:counter")
	require.NoError(t, err)
	assert.NotEmpty(t, value)
	assert.LessOrEqual(t, len(value), 5)
}
