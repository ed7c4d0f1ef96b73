package ports

import (
	"context"
	"io"

	"github.com/Rysh-29/Neuromap/domain/core/aggregates"
	"github.com/Rysh-29/Neuromap/domain/core/entities"
	"github.com/Rysh-29/Neuromap/domain/core/valueobjects"
)

// StorageKey is the single slot the map snapshot lives under
const StorageKey = "neuromap-data"

// KeyValueStore defines the interface for the raw storage slot
// This is a port in hexagonal architecture - the domain doesn't know about the implementation
type KeyValueStore interface {
	// Get returns the value under key. The boolean is false when the key is absent.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Put replaces the value under key
	Put(ctx context.Context, key string, value []byte) error

	// Delete removes the key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
}

// MapStorage persists the whole diagram as one snapshot.
// Failures are reported through logs and metrics, never to the caller.
type MapStorage interface {
	// Save writes the snapshot, overwriting any previous one
	Save(ctx context.Context, nodes []*entities.Node, edges []*entities.Edge, viewport valueobjects.Viewport)

	// Load returns the stored snapshot, or nil when absent or unreadable
	Load(ctx context.Context) *aggregates.SavedMapData

	// Clear removes the stored snapshot
	Clear(ctx context.Context)
}

// Scheduler runs one deferred task at a time. Scheduling again replaces
// the pending task and restarts the delay.
type Scheduler interface {
	Schedule(task func())
	Cancel()
	// Flush runs the pending task now, if any, and reports whether one ran
	Flush() bool
}

// Renderer turns a snapshot into an export file
type Renderer interface {
	// Format returns the short name of the export, e.g. "png"
	Format() string

	// FileName returns the default file name for the export
	FileName() string

	// ContentType returns the MIME type of the rendered output
	ContentType() string

	// Render writes the export of data to w
	Render(ctx context.Context, data aggregates.SavedMapData, w io.Writer) error
}
