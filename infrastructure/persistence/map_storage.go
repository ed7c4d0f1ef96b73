// Package persistence stores the mind map as a single JSON snapshot.
package persistence

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/Rysh-29/Neuromap/application/ports"
	"github.com/Rysh-29/Neuromap/domain/core/aggregates"
	"github.com/Rysh-29/Neuromap/domain/core/entities"
	"github.com/Rysh-29/Neuromap/domain/core/validators"
	"github.com/Rysh-29/Neuromap/domain/core/valueobjects"
	"github.com/Rysh-29/Neuromap/pkg/observability"
)

// MapStorage implements ports.MapStorage on top of a key-value store.
// Errors never reach the caller: they are logged and counted, and the
// in-memory diagram stays authoritative.
type MapStorage struct {
	store     ports.KeyValueStore
	validator *validators.SnapshotValidator
	logger    *zap.Logger
	metrics   *observability.Collector
	key       string
}

var _ ports.MapStorage = (*MapStorage)(nil)

// NewMapStorage creates a new MapStorage. metrics may be nil.
func NewMapStorage(
	store ports.KeyValueStore,
	validator *validators.SnapshotValidator,
	logger *zap.Logger,
	metrics *observability.Collector,
) *MapStorage {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validator == nil {
		validator = validators.NewSnapshotValidator(nil)
	}
	return &MapStorage{
		store:     store,
		validator: validator,
		logger:    logger,
		metrics:   metrics,
		key:       ports.StorageKey,
	}
}

// Save writes the snapshot under the storage key
func (s *MapStorage) Save(ctx context.Context, nodes []*entities.Node, edges []*entities.Edge, viewport valueobjects.Viewport) {
	start := time.Now()

	if nodes == nil {
		nodes = []*entities.Node{}
	}
	if edges == nil {
		edges = []*entities.Edge{}
	}

	data, err := json.Marshal(aggregates.SavedMapData{Nodes: nodes, Edges: edges, Viewport: viewport})
	if err != nil {
		s.logger.Error("Failed to encode map snapshot", zap.Error(err))
		s.record("save", observability.OutcomeFailure, start)
		return
	}

	if err := s.store.Put(ctx, s.key, data); err != nil {
		s.logger.Error("Failed to save map",
			zap.Error(err),
			zap.String("key", s.key),
			zap.Int("nodeCount", len(nodes)),
			zap.Int("edgeCount", len(edges)),
		)
		s.record("save", observability.OutcomeFailure, start)
		return
	}

	s.logger.Debug("Map saved",
		zap.Int("nodeCount", len(nodes)),
		zap.Int("edgeCount", len(edges)),
		zap.Int("bytes", len(data)),
	)
	s.record("save", observability.OutcomeSuccess, start)
}

// Load reads the stored snapshot. It returns nil when nothing is stored
// or the stored value cannot be decoded.
func (s *MapStorage) Load(ctx context.Context) *aggregates.SavedMapData {
	start := time.Now()

	raw, found, err := s.store.Get(ctx, s.key)
	if err != nil {
		s.logger.Error("Failed to load map", zap.Error(err), zap.String("key", s.key))
		s.record("load", observability.OutcomeFailure, start)
		return nil
	}
	if !found {
		s.record("load", observability.OutcomeEmpty, start)
		return nil
	}

	var data aggregates.SavedMapData
	if err := json.Unmarshal(raw, &data); err != nil {
		s.logger.Error("Failed to decode stored map", zap.Error(err), zap.Int("bytes", len(raw)))
		s.record("load", observability.OutcomeFailure, start)
		return nil
	}

	clean, issues := s.validator.Sanitize(data)
	for _, issue := range issues {
		s.logger.Warn("Stored map repaired on load", zap.String("issue", issue.String()))
	}

	s.record("load", observability.OutcomeSuccess, start)
	return &clean
}

// Clear removes the stored snapshot
func (s *MapStorage) Clear(ctx context.Context) {
	start := time.Now()

	if err := s.store.Delete(ctx, s.key); err != nil {
		s.logger.Error("Failed to clear map", zap.Error(err), zap.String("key", s.key))
		s.record("clear", observability.OutcomeFailure, start)
		return
	}
	s.record("clear", observability.OutcomeSuccess, start)
}

func (s *MapStorage) record(operation, outcome string, start time.Time) {
	if s.metrics != nil {
		s.metrics.RecordStorageOperation(operation, outcome, time.Since(start))
	}
}
