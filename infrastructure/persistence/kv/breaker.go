package kv

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/Rysh-29/Neuromap/application/ports"
	pkgerrors "github.com/Rysh-29/Neuromap/pkg/errors"
)

// BreakerConfig holds configuration for the storage circuit breaker
type BreakerConfig struct {
	Name        string
	MaxRequests uint32
	Interval    time.Duration
	Timeout     time.Duration
	// FailureThreshold is the failure ratio that trips the breaker
	FailureThreshold float64
	MinRequests      uint32
}

// DefaultBreakerConfig returns a default configuration for the storage breaker
func DefaultBreakerConfig(name string) BreakerConfig {
	return BreakerConfig{
		Name:             name,
		MaxRequests:      1,
		Interval:         30 * time.Second,
		Timeout:          15 * time.Second,
		FailureThreshold: 0.6,
		MinRequests:      3,
	}
}

// BreakerStore guards another store with a circuit breaker. While the
// breaker is open every call fails fast with an unavailable error.
type BreakerStore struct {
	next    ports.KeyValueStore
	breaker *gobreaker.CircuitBreaker
	logger  *zap.Logger
}

var _ ports.KeyValueStore = (*BreakerStore)(nil)

// NewBreakerStore wraps next with a circuit breaker
func NewBreakerStore(next ports.KeyValueStore, cfg BreakerConfig, logger *zap.Logger) *BreakerStore {
	if logger == nil {
		logger = zap.NewNop()
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("Storage circuit breaker changed state",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
		IsSuccessful: func(err error) bool {
			// Cancelled calls do not count as failures.
			return err == nil || errors.Is(err, context.Canceled)
		},
	})

	return &BreakerStore{next: next, breaker: cb, logger: logger}
}

// State returns the current breaker state
func (s *BreakerStore) State() gobreaker.State {
	return s.breaker.State()
}

// Get implements ports.KeyValueStore
func (s *BreakerStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	type result struct {
		value []byte
		found bool
	}

	out, err := s.breaker.Execute(func() (interface{}, error) {
		value, found, err := s.next.Get(ctx, key)
		return result{value, found}, err
	})
	if err != nil {
		return nil, false, s.translate(err)
	}
	r := out.(result)
	return r.value, r.found, nil
}

// Put implements ports.KeyValueStore
func (s *BreakerStore) Put(ctx context.Context, key string, value []byte) error {
	_, err := s.breaker.Execute(func() (interface{}, error) {
		return nil, s.next.Put(ctx, key, value)
	})
	return s.translate(err)
}

// Delete implements ports.KeyValueStore
func (s *BreakerStore) Delete(ctx context.Context, key string) error {
	_, err := s.breaker.Execute(func() (interface{}, error) {
		return nil, s.next.Delete(ctx, key)
	})
	return s.translate(err)
}

func (s *BreakerStore) translate(err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return pkgerrors.NewUnavailableError("storage").WithCause(err)
	}
	return err
}
