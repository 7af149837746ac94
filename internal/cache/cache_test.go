package cache

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

type item struct {
	Name  string  `json:"name"`
	Share float64 `json:"share"`
}

// setupRedis starts a Redis container and returns a connected cache.
func setupRedis(t *testing.T) *Redis {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379")
	require.NoError(t, err)

	r, err := NewRedis(ctx, fmt.Sprintf("%s:%s", host, port.Port()), "", "test:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })
	return r
}

func TestRedis_SetGet(t *testing.T) {
	r := setupRedis(t)
	ctx := context.Background()

	var got []item
	found, err := r.Get(ctx, "missing", &got)
	require.NoError(t, err)
	assert.False(t, found)

	want := []item{{Name: "BONK", Share: 62.5}, {Name: "WIF", Share: 37.5}}
	require.NoError(t, r.Set(ctx, "mindshare", want, time.Minute))

	found, err = r.Get(ctx, "mindshare", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, want, got)
}

func TestRedis_TTLExpires(t *testing.T) {
	r := setupRedis(t)
	ctx := context.Background()

	require.NoError(t, r.Set(ctx, "short", item{Name: "x"}, time.Second))
	time.Sleep(1500 * time.Millisecond)

	var got item
	found, err := r.Get(ctx, "short", &got)
	require.NoError(t, err)
	assert.False(t, found)
}

type mapCache struct {
	values map[string]any
	gets   int
}

func (m *mapCache) Get(_ context.Context, key string, dest any) (bool, error) {
	m.gets++
	v, ok := m.values[key]
	if !ok {
		return false, nil
	}
	*(dest.(*int)) = v.(int)
	return true, nil
}

func (m *mapCache) Set(_ context.Context, key string, value any, _ time.Duration) error {
	m.values[key] = value
	return nil
}

func TestLoad(t *testing.T) {
	ctx := context.Background()
	c := &mapCache{values: map[string]any{}}
	calls := 0
	load := func(context.Context) (int, error) {
		calls++
		return 7, nil
	}

	v, err := Load(ctx, c, "k", time.Minute, load)
	require.NoError(t, err)
	assert.Equal(t, 7, v)

	v, err = Load(ctx, c, "k", time.Minute, load)
	require.NoError(t, err)
	assert.Equal(t, 7, v)
	assert.Equal(t, 1, calls)
}

func TestLoad_ErrorsAreNotCached(t *testing.T) {
	ctx := context.Background()
	c := &mapCache{values: map[string]any{}}
	boom := errors.New("boom")

	_, err := Load(ctx, c, "k", time.Minute, func(context.Context) (int, error) { return 0, boom })
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, c.values)
}

func TestLoad_NopAndZeroTTLAlwaysLoad(t *testing.T) {
	ctx := context.Background()
	calls := 0
	load := func(context.Context) (int, error) {
		calls++
		return calls, nil
	}

	_, _ = Load[int](ctx, Nop{}, "k", time.Minute, load)
	_, _ = Load[int](ctx, Nop{}, "k", time.Minute, load)
	_, _ = Load[int](ctx, &mapCache{values: map[string]any{}}, "k", 0, load)
	assert.Equal(t, 3, calls)
}
