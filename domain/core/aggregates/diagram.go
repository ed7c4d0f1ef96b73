package aggregates

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/Rysh-29/Neuromap/domain/config"
	"github.com/Rysh-29/Neuromap/domain/core/entities"
	"github.com/Rysh-29/Neuromap/domain/core/valueobjects"
	"github.com/Rysh-29/Neuromap/domain/events"
	pkgerrors "github.com/Rysh-29/Neuromap/pkg/errors"
)

// Diagram is the aggregate root of a mind map. It owns the ordered node
// list, the edge list and the single selection pointer, and keeps every
// edge endpoint pointing at an existing node.
//
// A Diagram is not safe for concurrent use; its owner serialises access.
type Diagram struct {
	nodes    []*entities.Node
	edges    []*entities.Edge
	selected *valueobjects.NodeID

	config *config.DomainConfig
	now    func() time.Time
	random func() float64

	events []events.DomainEvent
}

// Option configures a Diagram
type Option func(*Diagram)

// WithClock sets the time source used for node ids and event timestamps
func WithClock(now func() time.Time) Option {
	return func(d *Diagram) { d.now = now }
}

// WithRandom sets the [0, 1) source used for placement jitter
func WithRandom(random func() float64) Option {
	return func(d *Diagram) { d.random = random }
}

// WithConfig sets the domain rules
func WithConfig(cfg *config.DomainConfig) Option {
	return func(d *Diagram) {
		if cfg != nil {
			d.config = cfg
		}
	}
}

// NewDiagram creates an empty diagram
func NewDiagram(opts ...Option) *Diagram {
	d := &Diagram{
		nodes:  []*entities.Node{},
		edges:  []*entities.Edge{},
		config: config.DefaultDomainConfig(),
		now:    time.Now,
		random: rand.Float64,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// NodeCount returns the number of nodes
func (d *Diagram) NodeCount() int {
	return len(d.nodes)
}

// EdgeCount returns the number of edges
func (d *Diagram) EdgeCount() int {
	return len(d.edges)
}

// Nodes returns copies of all nodes in canvas order
func (d *Diagram) Nodes() []*entities.Node {
	nodes := make([]*entities.Node, len(d.nodes))
	for i, n := range d.nodes {
		nodes[i] = n.Clone()
	}
	return nodes
}

// Edges returns copies of all edges
func (d *Diagram) Edges() []*entities.Edge {
	edges := make([]*entities.Edge, len(d.edges))
	for i, e := range d.edges {
		edges[i] = e.Clone()
	}
	return edges
}

// Node returns a copy of the node with the given id
func (d *Diagram) Node(id valueobjects.NodeID) (*entities.Node, bool) {
	if i := d.indexOf(id); i >= 0 {
		return d.nodes[i].Clone(), true
	}
	return nil, false
}

// Selected returns the selected node id, if any
func (d *Diagram) Selected() (valueobjects.NodeID, bool) {
	if d.selected == nil {
		return valueobjects.NodeID{}, false
	}
	return *d.selected, true
}

// SelectedNode returns a copy of the selected node, or nil
func (d *Diagram) SelectedNode() *entities.Node {
	if d.selected == nil {
		return nil
	}
	node, _ := d.Node(*d.selected)
	return node
}

// AddNode places a new concept near the middle of the visible canvas,
// appends it and selects it.
func (d *Diagram) AddNode(viewport valueobjects.Viewport, canvas valueobjects.CanvasSize) (valueobjects.NodeID, error) {
	if len(d.nodes) >= d.config.MaxNodes {
		return valueobjects.NodeID{}, pkgerrors.NewConflictError(fmt.Sprintf("maximum of %d nodes reached", d.config.MaxNodes))
	}
	if err := viewport.Validate(); err != nil {
		return valueobjects.NodeID{}, err
	}

	now := d.now()
	id := valueobjects.NewNodeIDFromTime(now)
	for d.indexOf(id) >= 0 {
		id = id.Next()
	}

	cx, cy := viewport.Center(canvas)
	position, err := valueobjects.NewPosition(
		cx+d.random()*d.config.PlacementJitter,
		cy+d.random()*d.config.PlacementJitter,
	)
	if err != nil {
		return valueobjects.NodeID{}, err
	}

	node, err := entities.NewNode(id, position, entities.NodeData{Label: entities.NewNodeLabel})
	if err != nil {
		return valueobjects.NodeID{}, err
	}

	d.nodes = append(d.nodes, node)
	d.addEvent(events.NewNodeAdded(id, position, now))
	d.setSelection(&id)

	return id, nil
}

// UpdateNode merges a partial update into the node data. Unknown ids are
// ignored. It reports whether the node changed.
func (d *Diagram) UpdateNode(id valueobjects.NodeID, patch entities.NodeDataPatch) bool {
	i := d.indexOf(id)
	if i < 0 {
		return false
	}
	if !d.nodes[i].Apply(patch) {
		return false
	}

	d.addEvent(events.NewNodeUpdated(id, patchFields(patch), d.now()))
	return true
}

// MoveNode moves a node. Unknown ids are ignored.
func (d *Diagram) MoveNode(id valueobjects.NodeID, position valueobjects.Position) bool {
	i := d.indexOf(id)
	if i < 0 {
		return false
	}

	old := d.nodes[i].Position
	if !d.nodes[i].MoveTo(position) {
		return false
	}

	d.addEvent(events.NewNodeMoved(id, old, position, d.now()))
	return true
}

// DeleteNode removes a node and, in the same step, every edge that
// references it. The selection is cleared when it pointed at the node.
func (d *Diagram) DeleteNode(id valueobjects.NodeID) bool {
	i := d.indexOf(id)
	if i < 0 {
		return false
	}

	d.nodes = append(d.nodes[:i], d.nodes[i+1:]...)

	kept := d.edges[:0]
	var removed []string
	for _, e := range d.edges {
		if e.Touches(id) {
			removed = append(removed, e.ID)
			continue
		}
		kept = append(kept, e)
	}
	d.edges = kept

	d.addEvent(events.NewNodeDeleted(id, removed, d.now()))

	if d.selected != nil && d.selected.Equals(id) {
		d.setSelection(nil)
	}

	return true
}

// Connect appends an animated edge between two existing nodes. Several
// edges between the same pair are allowed unless the config forbids it.
func (d *Diagram) Connect(source, target valueobjects.NodeID) (*entities.Edge, error) {
	if d.indexOf(source) < 0 {
		return nil, pkgerrors.NewNotFoundError("source node " + source.String())
	}
	if d.indexOf(target) < 0 {
		return nil, pkgerrors.NewNotFoundError("target node " + target.String())
	}
	if source.Equals(target) && !d.config.AllowSelfConnections {
		return nil, pkgerrors.NewValidationError("cannot connect node to itself")
	}
	if !d.config.AllowDuplicateEdges {
		for _, e := range d.edges {
			if e.Source.Equals(source) && e.Target.Equals(target) {
				return nil, pkgerrors.NewConflictError("edge already exists")
			}
		}
	}
	if len(d.edges) >= d.config.MaxEdges {
		return nil, pkgerrors.NewConflictError(fmt.Sprintf("maximum of %d edges reached", d.config.MaxEdges))
	}

	edge, err := entities.NewEdge(source, target)
	if err != nil {
		return nil, err
	}

	d.edges = append(d.edges, edge)
	d.addEvent(events.NewEdgeConnected(edge.ID, source, target, d.now()))

	return edge.Clone(), nil
}

// RemoveEdge deletes a single edge. Unknown ids are ignored.
func (d *Diagram) RemoveEdge(edgeID string) bool {
	for i, e := range d.edges {
		if e.ID == edgeID {
			d.edges = append(d.edges[:i], d.edges[i+1:]...)
			d.addEvent(events.NewEdgeRemoved(edgeID, d.now()))
			return true
		}
	}
	return false
}

// SelectNode moves the selection pointer. A nil id clears the selection.
func (d *Diagram) SelectNode(id *valueobjects.NodeID) error {
	if id != nil && d.indexOf(*id) < 0 {
		return pkgerrors.NewNotFoundError("node " + id.String())
	}
	d.setSelection(id)
	return nil
}

// Reset replaces the diagram with the single seed node and no edges
func (d *Diagram) Reset() {
	d.nodes = []*entities.Node{SeedNode()}
	d.edges = []*entities.Edge{}
	d.setSelection(nil)
	d.addEvent(events.NewDiagramCleared(d.now()))
}

// Restore replaces the diagram contents with a saved snapshot. The
// snapshot is copied; the caller keeps ownership of its slices.
func (d *Diagram) Restore(data SavedMapData) {
	clone := data.Clone()
	d.nodes = clone.Nodes
	d.edges = clone.Edges
	d.setSelection(nil)
	d.addEvent(events.NewDiagramRestored(len(d.nodes), len(d.edges), d.now()))
}

// Snapshot returns a deep copy of the diagram together with the viewport
func (d *Diagram) Snapshot(viewport valueobjects.Viewport) SavedMapData {
	return SavedMapData{
		Nodes:    d.Nodes(),
		Edges:    d.Edges(),
		Viewport: viewport,
	}
}

// PullEvents returns and clears the events recorded since the last call
func (d *Diagram) PullEvents() []events.DomainEvent {
	pending := d.events
	d.events = nil
	return pending
}

func (d *Diagram) setSelection(id *valueobjects.NodeID) {
	previous := d.selected
	if previous == nil && id == nil {
		return
	}
	if previous != nil && id != nil && previous.Equals(*id) {
		return
	}

	var current *valueobjects.NodeID
	if id != nil {
		selected := *id
		current = &selected
	}
	d.selected = current
	d.addEvent(events.NewSelectionChanged(previous, current, d.now()))
}

func (d *Diagram) indexOf(id valueobjects.NodeID) int {
	for i, n := range d.nodes {
		if n.ID.Equals(id) {
			return i
		}
	}
	return -1
}

func (d *Diagram) addEvent(event events.DomainEvent) {
	d.events = append(d.events, event)
}

func patchFields(patch entities.NodeDataPatch) []string {
	var fields []string
	if patch.Label != nil {
		fields = append(fields, "label")
	}
	if patch.Content != nil {
		fields = append(fields, "content")
	}
	if patch.Color != nil {
		fields = append(fields, "color")
	}
	if patch.Tags != nil {
		fields = append(fields, "tags")
	}
	return fields
}
