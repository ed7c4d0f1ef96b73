package services

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/Rysh-29/Neuromap/domain/core/aggregates"
	"github.com/Rysh-29/Neuromap/domain/core/entities"
	"github.com/Rysh-29/Neuromap/domain/core/valueobjects"
)

// manualScheduler holds the pending task until the test flushes it
type manualScheduler struct {
	mu        sync.Mutex
	task      func()
	scheduled int
	cancelled int
}

func (s *manualScheduler) Schedule(task func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.task = task
	s.scheduled++
}

func (s *manualScheduler) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.task = nil
	s.cancelled++
}

func (s *manualScheduler) Flush() bool {
	s.mu.Lock()
	task := s.task
	s.task = nil
	s.mu.Unlock()

	if task == nil {
		return false
	}
	task()
	return true
}

func (s *manualScheduler) pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.task != nil
}

// recordingStorage keeps every save in memory
type recordingStorage struct {
	mu     sync.Mutex
	stored *aggregates.SavedMapData
	saves  []aggregates.SavedMapData
	clears int
}

func (s *recordingStorage) Save(_ context.Context, nodes []*entities.Node, edges []*entities.Edge, viewport valueobjects.Viewport) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data := aggregates.SavedMapData{Nodes: nodes, Edges: edges, Viewport: viewport}.Clone()
	s.saves = append(s.saves, data)
	s.stored = &data
}

func (s *recordingStorage) Load(context.Context) *aggregates.SavedMapData {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stored == nil {
		return nil
	}
	data := s.stored.Clone()
	return &data
}

func (s *recordingStorage) Clear(context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stored = nil
	s.clears++
}

func (s *recordingStorage) saveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.saves)
}

func (s *recordingStorage) lastSave() aggregates.SavedMapData {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves[len(s.saves)-1]
}

// stubRenderer writes a fixed body
type stubRenderer struct {
	format string
	err    error
	delay  time.Duration
}

func (r stubRenderer) Format() string      { return r.format }
func (r stubRenderer) FileName() string    { return "neuromap-export." + r.format }
func (r stubRenderer) ContentType() string { return "text/plain" }

func (r stubRenderer) Render(_ context.Context, data aggregates.SavedMapData, w io.Writer) error {
	if r.delay > 0 {
		time.Sleep(r.delay)
	}
	if r.err != nil {
		return r.err
	}
	_, err := fmt.Fprintf(w, "nodes:%d", len(data.Nodes))
	return err
}
