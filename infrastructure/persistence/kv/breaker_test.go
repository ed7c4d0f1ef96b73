package kv

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	pkgerrors "github.com/Rysh-29/Neuromap/pkg/errors"
)

type failingStore struct {
	*MemoryStore
	calls int
	fail  bool
}

func (s *failingStore) Put(ctx context.Context, key string, value []byte) error {
	s.calls++
	if s.fail {
		return errors.New("backend down")
	}
	return s.MemoryStore.Put(ctx, key, value)
}

func TestBreakerStore_OpensAfterFailures(t *testing.T) {
	backend := &failingStore{MemoryStore: NewMemoryStore(), fail: true}
	cfg := DefaultBreakerConfig("test")
	cfg.Timeout = time.Hour
	store := NewBreakerStore(backend, cfg, zap.NewNop())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		err := store.Put(ctx, "k", []byte("v"))
		require.Error(t, err)
		assert.False(t, pkgerrors.IsType(err, pkgerrors.ErrorTypeUnavailable))
	}
	assert.Equal(t, gobreaker.StateOpen, store.State())

	err := store.Put(ctx, "k", []byte("v"))
	assert.True(t, pkgerrors.IsType(err, pkgerrors.ErrorTypeUnavailable))
	assert.Equal(t, 3, backend.calls, "open breaker does not reach the backend")
}

func TestBreakerStore_PassesThrough(t *testing.T) {
	store := NewBreakerStore(NewMemoryStore(), DefaultBreakerConfig("test"), nil)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "k", []byte("v")))
	value, found, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "v", string(value))
	require.NoError(t, store.Delete(ctx, "k"))
	assert.Equal(t, gobreaker.StateClosed, store.State())
}
