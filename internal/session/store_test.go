package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapBackend struct {
	values map[string]string
	ttls   map[string]time.Duration
	err    error
}

func newMapBackend() *mapBackend {
	return &mapBackend{
		values: make(map[string]string),
		ttls:   make(map[string]time.Duration),
	}
}

func (b *mapBackend) Get(_ context.Context, key string) (string, bool, error) {
	if b.err != nil {
		return "", false, b.err
	}
	val, ok := b.values[key]
	return val, ok, nil
}

func (b *mapBackend) Set(_ context.Context, key, value string, expiration time.Duration) error {
	if b.err != nil {
		return b.err
	}
	b.values[key] = value
	b.ttls[key] = expiration
	return nil
}

func (b *mapBackend) Invalidate(_ context.Context, key string) error {
	if b.err != nil {
		return b.err
	}
	delete(b.values, key)
	return nil
}

func TestStore_CreateAndResolve(t *testing.T) {
	backend := newMapBackend()
	store := NewStore(backend, time.Hour)

	sid, err := store.Create(context.Background(), 42)
	require.NoError(t, err)
	require.NotEmpty(t, sid)

	userID, err := store.Resolve(context.Background(), sid)
	require.NoError(t, err)
	assert.Equal(t, int64(42), userID)
	assert.Equal(t, time.Hour, backend.ttls["session:"+sid])
}

func TestStore_CreateProducesUniqueIDs(t *testing.T) {
	backend := newMapBackend()
	store := NewStore(backend, time.Hour)

	first, err := store.Create(context.Background(), 1)
	require.NoError(t, err)
	second, err := store.Create(context.Background(), 1)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestStore_ResolveUnknownSession(t *testing.T) {
	store := NewStore(newMapBackend(), time.Hour)

	_, err := store.Resolve(context.Background(), "missing-session-id")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_Destroy(t *testing.T) {
	backend := newMapBackend()
	store := NewStore(backend, time.Hour)

	sid, err := store.Create(context.Background(), 7)
	require.NoError(t, err)

	require.NoError(t, store.Destroy(context.Background(), sid))
	_, err = store.Resolve(context.Background(), sid)
	assert.ErrorIs(t, err, ErrNotFound)

	// повторное удаление той же сессии не является ошибкой
	assert.NoError(t, store.Destroy(context.Background(), sid))
}

func TestStore_BackendErrorIsPropagated(t *testing.T) {
	backend := newMapBackend()
	backend.err = errors.New("connection refused")
	store := NewStore(backend, time.Hour)

	_, err := store.Create(context.Background(), 1)
	assert.Error(t, err)

	_, err = store.Resolve(context.Background(), "any")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}
