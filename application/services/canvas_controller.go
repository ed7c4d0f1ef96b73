package services

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/Rysh-29/Neuromap/application/ports"
	"github.com/Rysh-29/Neuromap/domain/config"
	"github.com/Rysh-29/Neuromap/domain/core/aggregates"
	"github.com/Rysh-29/Neuromap/domain/core/entities"
	"github.com/Rysh-29/Neuromap/domain/core/valueobjects"
	"github.com/Rysh-29/Neuromap/domain/events"
	pkgerrors "github.com/Rysh-29/Neuromap/pkg/errors"
	"github.com/Rysh-29/Neuromap/pkg/observability"
)

// DefaultAutoSaveDelay is the quiet period before a change is persisted
const DefaultAutoSaveDelay = time.Second

// MapView is a read-only copy of the controller state
type MapView struct {
	Nodes          []*entities.Node        `json:"nodes"`
	Edges          []*entities.Edge        `json:"edges"`
	Viewport       valueobjects.Viewport   `json:"viewport"`
	Canvas         valueobjects.CanvasSize `json:"canvas"`
	SelectedNodeID *valueobjects.NodeID    `json:"selectedNodeId"`
}

// Subscriber receives the events produced by one gesture
type Subscriber func(evts []events.DomainEvent)

// ControllerOption configures a CanvasController
type ControllerOption func(*CanvasController)

// WithDiagram replaces the default diagram
func WithDiagram(d *aggregates.Diagram) ControllerOption {
	return func(c *CanvasController) { c.diagram = d }
}

// WithDomainConfig sets the limits applied to node edits
func WithDomainConfig(cfg *config.DomainConfig) ControllerOption {
	return func(c *CanvasController) {
		if cfg != nil {
			c.domainConfig = cfg
		}
	}
}

// WithConfirmations sets the pending-action registry
func WithConfirmations(confirmations *Confirmations) ControllerOption {
	return func(c *CanvasController) { c.confirmations = confirmations }
}

// WithCanvasSize sets the initial size of the visible canvas
func WithCanvasSize(size valueobjects.CanvasSize) ControllerOption {
	return func(c *CanvasController) { c.canvas = size }
}

// WithRenderers registers export renderers by format
func WithRenderers(renderers ...ports.Renderer) ControllerOption {
	return func(c *CanvasController) {
		for _, r := range renderers {
			c.renderers[r.Format()] = r
		}
	}
}

// WithExportDir sets where asynchronous exports are written
func WithExportDir(dir string) ControllerOption {
	return func(c *CanvasController) { c.exportDir = dir }
}

// WithMetrics sets the metrics collector
func WithMetrics(metrics *observability.Collector) ControllerOption {
	return func(c *CanvasController) { c.metrics = metrics }
}

// WithControllerClock sets the time source for controller events
func WithControllerClock(now func() time.Time) ControllerOption {
	return func(c *CanvasController) { c.now = now }
}

// CanvasController owns the diagram, the viewport and the auto-save timer,
// and turns canvas gestures into diagram mutations. Every mutation that
// changes persisted state restarts the auto-save delay, so a burst of
// gestures produces a single write of the final state.
type CanvasController struct {
	mu           sync.Mutex
	diagram      *aggregates.Diagram
	domainConfig *config.DomainConfig
	viewport     valueobjects.Viewport
	canvas       valueobjects.CanvasSize

	storage       ports.MapStorage
	autosave      ports.Scheduler
	confirmations *Confirmations
	renderers     map[string]ports.Renderer
	exportDir     string

	subMu       sync.RWMutex
	subscribers []Subscriber

	saveMu  sync.Mutex
	saveCtx context.Context
	exports sync.WaitGroup

	metrics *observability.Collector
	logger  *zap.Logger
	now     func() time.Time
}

// NewCanvasController creates a controller. Call Initialize before use.
func NewCanvasController(
	storage ports.MapStorage,
	autosave ports.Scheduler,
	logger *zap.Logger,
	opts ...ControllerOption,
) *CanvasController {
	if logger == nil {
		logger = zap.NewNop()
	}

	c := &CanvasController{
		domainConfig: config.DefaultDomainConfig(),
		viewport:     valueobjects.DefaultViewport(),
		canvas:       valueobjects.DefaultCanvasSize(),
		storage:      storage,
		autosave:     autosave,
		renderers:    make(map[string]ports.Renderer),
		exportDir:    ".",
		saveCtx:      context.Background(),
		logger:       logger,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.diagram == nil {
		c.diagram = aggregates.NewDiagram(aggregates.WithConfig(c.domainConfig))
	}
	if c.confirmations == nil {
		c.confirmations = NewConfirmations(DefaultConfirmationTTL, c.now)
	}
	return c
}

// Initialize loads the stored map, or seeds a fresh one when nothing is
// stored. Storage failures are treated as an empty store.
func (c *CanvasController) Initialize(ctx context.Context) {
	saved := c.storage.Load(ctx)

	c.mu.Lock()
	c.saveCtx = context.WithoutCancel(ctx)
	if saved == nil {
		c.diagram.Reset()
		c.viewport = valueobjects.DefaultViewport()
		c.logger.Info("No saved map found, starting from the seed node")
	} else {
		c.diagram.Restore(*saved)
		c.viewport = saved.Viewport
		c.logger.Info("Saved map restored",
			zap.Int("nodeCount", len(saved.Nodes)),
			zap.Int("edgeCount", len(saved.Edges)),
		)
	}
	evts := c.commitLocked()
	c.mu.Unlock()

	c.publish(evts)
}

// Subscribe registers fn to receive the events of every later gesture
func (c *CanvasController) Subscribe(fn Subscriber) {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	c.subscribers = append(c.subscribers, fn)
}

// Map returns a copy of the current state
func (c *CanvasController) Map() MapView {
	c.mu.Lock()
	defer c.mu.Unlock()

	view := MapView{
		Nodes:    c.diagram.Nodes(),
		Edges:    c.diagram.Edges(),
		Viewport: c.viewport,
		Canvas:   c.canvas,
	}
	if id, ok := c.diagram.Selected(); ok {
		view.SelectedNodeID = &id
	}
	return view
}

// Node returns a copy of a node
func (c *CanvasController) Node(id valueobjects.NodeID) (*entities.Node, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.diagram.Node(id)
}

// SelectedNode returns a copy of the selected node, or nil
func (c *CanvasController) SelectedNode() *entities.Node {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.diagram.SelectedNode()
}

// AddNode adds a concept near the centre of the visible canvas and selects it
func (c *CanvasController) AddNode() (*entities.Node, error) {
	c.mu.Lock()
	id, err := c.diagram.AddNode(c.viewport, c.canvas)
	if err != nil {
		c.mu.Unlock()
		return nil, err
	}
	node, _ := c.diagram.Node(id)
	evts := c.commitLocked()
	c.mu.Unlock()

	c.publish(evts)
	return node, nil
}

// UpdateNode merges a partial update into a node. It reports false for an
// unknown id, in which case nothing changes.
func (c *CanvasController) UpdateNode(id valueobjects.NodeID, patch entities.NodeDataPatch) (bool, error) {
	if err := c.validatePatch(patch); err != nil {
		return false, err
	}

	c.mu.Lock()
	if _, ok := c.diagram.Node(id); !ok {
		c.mu.Unlock()
		return false, nil
	}
	c.diagram.UpdateNode(id, patch)
	evts := c.commitLocked()
	c.mu.Unlock()

	c.publish(evts)
	return true, nil
}

// MoveNode drags a node to a new position. It reports false for an unknown id.
func (c *CanvasController) MoveNode(id valueobjects.NodeID, position valueobjects.Position) bool {
	c.mu.Lock()
	if _, ok := c.diagram.Node(id); !ok {
		c.mu.Unlock()
		return false
	}
	c.diagram.MoveNode(id, position)
	evts := c.commitLocked()
	c.mu.Unlock()

	c.publish(evts)
	return true
}

// RequestDeleteNode asks for confirmation before deleting a node
func (c *CanvasController) RequestDeleteNode(id valueobjects.NodeID) (PendingAction, error) {
	if _, ok := c.Node(id); !ok {
		return PendingAction{}, pkgerrors.NewNotFoundError("node " + id.String())
	}
	action := c.confirmations.Request(ActionDeleteNode, &id)
	c.logger.Debug("Node deletion requested", zap.String("nodeID", id.String()), zap.String("token", action.Token))
	return action, nil
}

// DeleteNode removes a node and its edges without confirmation. It
// reports false for an unknown id.
func (c *CanvasController) DeleteNode(id valueobjects.NodeID) bool {
	c.mu.Lock()
	deleted := c.diagram.DeleteNode(id)
	evts := c.commitLocked()
	c.mu.Unlock()

	c.publish(evts)
	return deleted
}

// Connect draws an edge between two existing nodes
func (c *CanvasController) Connect(source, target valueobjects.NodeID) (*entities.Edge, error) {
	c.mu.Lock()
	edge, err := c.diagram.Connect(source, target)
	if err != nil {
		c.mu.Unlock()
		return nil, err
	}
	evts := c.commitLocked()
	c.mu.Unlock()

	c.publish(evts)
	return edge, nil
}

// RemoveEdge deletes one edge. It reports false for an unknown id.
func (c *CanvasController) RemoveEdge(edgeID string) bool {
	c.mu.Lock()
	removed := c.diagram.RemoveEdge(edgeID)
	evts := c.commitLocked()
	c.mu.Unlock()

	c.publish(evts)
	return removed
}

// SelectNode selects a node, or clears the selection when id is nil
func (c *CanvasController) SelectNode(id *valueobjects.NodeID) error {
	c.mu.Lock()
	if err := c.diagram.SelectNode(id); err != nil {
		c.mu.Unlock()
		return err
	}
	evts := c.commitLocked()
	c.mu.Unlock()

	c.publish(evts)
	return nil
}

// SetViewport records a pan or zoom of the canvas
func (c *CanvasController) SetViewport(viewport valueobjects.Viewport) error {
	vp, err := valueobjects.NewViewport(viewport.X, viewport.Y, viewport.Zoom)
	if err != nil {
		return err
	}

	c.mu.Lock()
	if vp == c.viewport {
		c.mu.Unlock()
		return nil
	}
	c.viewport = vp
	evts := c.commitLocked(events.NewViewportChanged(vp, c.now()))
	c.mu.Unlock()

	c.publish(evts)
	return nil
}

// SetCanvasSize records the size of the visible canvas used for placement
func (c *CanvasController) SetCanvasSize(size valueobjects.CanvasSize) error {
	if size.Width <= 0 || size.Height <= 0 {
		return pkgerrors.NewValidationError("canvas size must be positive")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.canvas = size
	return nil
}

// RequestClear asks for confirmation before clearing the whole map
func (c *CanvasController) RequestClear() PendingAction {
	action := c.confirmations.Request(ActionClearAll, nil)
	c.logger.Debug("Clear requested", zap.String("token", action.Token))
	return action
}

// ClearAll resets the map to the seed node, resets the viewport and
// removes the stored snapshot. Calling it twice leaves the same state.
func (c *CanvasController) ClearAll(ctx context.Context) {
	c.mu.Lock()
	c.autosave.Cancel()
	c.diagram.Reset()
	c.viewport = valueobjects.DefaultViewport()
	c.storage.Clear(ctx)
	evts := c.commitLocked(events.NewViewportChanged(c.viewport, c.now()))
	c.mu.Unlock()

	c.logger.Info("Map cleared")
	c.publish(evts)
}

// Confirm runs the pending action identified by token
func (c *CanvasController) Confirm(ctx context.Context, token string) (PendingAction, error) {
	action, err := c.confirmations.Take(token)
	if err != nil {
		return PendingAction{}, err
	}

	switch action.Kind {
	case ActionClearAll:
		c.ClearAll(ctx)
	case ActionDeleteNode:
		if action.NodeID != nil && !c.DeleteNode(*action.NodeID) {
			c.logger.Info("Confirmed deletion of a node that no longer exists",
				zap.String("nodeID", action.NodeID.String()))
		}
	default:
		return PendingAction{}, pkgerrors.NewInternalError(fmt.Sprintf("unknown action kind %q", action.Kind))
	}

	c.logger.Debug("Pending action confirmed", zap.String("kind", string(action.Kind)))
	return action, nil
}

// Cancel discards the pending action identified by token
func (c *CanvasController) Cancel(token string) error {
	return c.confirmations.Discard(token)
}

// Flush writes a pending auto-save immediately. It reports whether one ran.
func (c *CanvasController) Flush() bool {
	return c.autosave.Flush()
}

// Export renders the current map in the given format to w
func (c *CanvasController) Export(ctx context.Context, format string, w io.Writer) error {
	renderer, ok := c.renderers[format]
	if !ok {
		return pkgerrors.NewValidationError(fmt.Sprintf("unsupported export format %q", format))
	}

	c.mu.Lock()
	data := c.diagram.Snapshot(c.viewport)
	c.mu.Unlock()

	if err := renderer.Render(ctx, data, w); err != nil {
		c.recordExport(format, observability.OutcomeFailure)
		return pkgerrors.NewRenderError(format, err)
	}
	c.recordExport(format, observability.OutcomeSuccess)
	return nil
}

// ExportAsync renders the current map to the export directory on a
// separate goroutine. Failures are logged. Overlapping exports of the same
// format write the same file.
func (c *CanvasController) ExportAsync(format string) (string, error) {
	renderer, ok := c.renderers[format]
	if !ok {
		return "", pkgerrors.NewValidationError(fmt.Sprintf("unsupported export format %q", format))
	}
	path := filepath.Join(c.exportDir, renderer.FileName())

	c.exports.Add(1)
	go func() {
		defer c.exports.Done()
		if err := c.exportToFile(format, path); err != nil {
			c.logger.Error("Failed to export", zap.String("format", format), zap.String("path", path), zap.Error(err))
			return
		}
		c.logger.Info("Map exported", zap.String("format", format), zap.String("path", path))
	}()

	return path, nil
}

// WaitForExports blocks until every asynchronous export has finished
func (c *CanvasController) WaitForExports() {
	c.exports.Wait()
}

// ExportFileName returns the default file name of a format
func (c *CanvasController) ExportFileName(format string) (string, string, bool) {
	renderer, ok := c.renderers[format]
	if !ok {
		return "", "", false
	}
	return renderer.FileName(), renderer.ContentType(), true
}

func (c *CanvasController) exportToFile(format, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := c.Export(context.Background(), format, f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// commitLocked drains the diagram events, adds extra, and restarts the
// auto-save delay when persisted state changed. The returned events are
// published once the lock is released.
func (c *CanvasController) commitLocked(extra ...events.DomainEvent) []events.DomainEvent {
	evts := append(c.diagram.PullEvents(), extra...)

	changed := false
	for _, evt := range evts {
		if evt.ChangesSnapshot() {
			changed = true
		}
		c.recordEvent(evt)
	}

	if changed {
		if c.diagram.NodeCount() == 0 {
			c.autosave.Cancel()
		} else {
			c.autosave.Schedule(c.save)
		}
	}
	return evts
}

// save writes the state as it is when the timer fires
func (c *CanvasController) save() {
	c.saveMu.Lock()
	defer c.saveMu.Unlock()

	c.mu.Lock()
	if c.diagram.NodeCount() == 0 {
		c.mu.Unlock()
		return
	}
	data := c.diagram.Snapshot(c.viewport)
	ctx := c.saveCtx
	c.mu.Unlock()

	c.storage.Save(ctx, data.Nodes, data.Edges, data.Viewport)
}

func (c *CanvasController) publish(evts []events.DomainEvent) {
	if len(evts) == 0 {
		return
	}

	c.subMu.RLock()
	subscribers := append([]Subscriber(nil), c.subscribers...)
	c.subMu.RUnlock()

	for _, fn := range subscribers {
		fn(evts)
	}
}

func (c *CanvasController) validatePatch(patch entities.NodeDataPatch) error {
	cfg := c.domainConfig
	if patch.Label != nil && utf8.RuneCountInString(*patch.Label) > cfg.MaxLabelLength {
		return pkgerrors.NewValidationError(fmt.Sprintf("label exceeds %d characters", cfg.MaxLabelLength))
	}
	if patch.Content != nil && len(*patch.Content) > cfg.MaxContentLength {
		return pkgerrors.NewValidationError(fmt.Sprintf("content exceeds %d bytes", cfg.MaxContentLength))
	}
	if patch.Tags != nil && len(*patch.Tags) > cfg.MaxTagsPerNode {
		return pkgerrors.NewValidationError(fmt.Sprintf("at most %d tags per node", cfg.MaxTagsPerNode))
	}
	return nil
}

func (c *CanvasController) recordEvent(evt events.DomainEvent) {
	if c.metrics == nil {
		return
	}
	switch e := evt.(type) {
	case events.NodeAdded:
		c.metrics.NodesCreated.Inc()
	case events.NodeDeleted:
		c.metrics.NodesDeleted.Inc()
		c.metrics.EdgesDeleted.Add(float64(len(e.RemovedEdgeIDs)))
	case events.EdgeConnected:
		c.metrics.EdgesCreated.Inc()
	case events.EdgeRemoved:
		c.metrics.EdgesDeleted.Inc()
	}
}

func (c *CanvasController) recordExport(format, outcome string) {
	if c.metrics != nil {
		c.metrics.RecordExport(format, outcome)
	}
}
