package events

import (
	"time"

	"github.com/Rysh-29/Neuromap/domain/core/valueobjects"
)

// Event types
const (
	TypeNodeAdded        = "node.added"
	TypeNodeUpdated      = "node.updated"
	TypeNodeMoved        = "node.moved"
	TypeNodeDeleted      = "node.deleted"
	TypeEdgeConnected    = "edge.connected"
	TypeEdgeRemoved      = "edge.removed"
	TypeSelectionChanged = "selection.changed"
	TypeViewportChanged  = "viewport.changed"
	TypeDiagramCleared   = "diagram.cleared"
	TypeDiagramRestored  = "diagram.restored"
)

// DomainEvent is the base interface for all domain events
// Events represent something that has happened in the past
type DomainEvent interface {
	GetAggregateID() string
	GetEventType() string
	GetTimestamp() time.Time
	// ChangesSnapshot reports whether the event alters persisted state
	ChangesSnapshot() bool
}

// BaseEvent provides common event fields
type BaseEvent struct {
	AggregateID string    `json:"aggregate_id"`
	EventType   string    `json:"event_type"`
	Timestamp   time.Time `json:"timestamp"`
}

func (e BaseEvent) GetAggregateID() string  { return e.AggregateID }
func (e BaseEvent) GetEventType() string    { return e.EventType }
func (e BaseEvent) GetTimestamp() time.Time { return e.Timestamp }
func (e BaseEvent) ChangesSnapshot() bool   { return true }

func newBase(aggregateID, eventType string, at time.Time) BaseEvent {
	return BaseEvent{AggregateID: aggregateID, EventType: eventType, Timestamp: at}
}

// Node Events

// NodeAdded is raised when a concept is added to the diagram
type NodeAdded struct {
	BaseEvent
	NodeID   valueobjects.NodeID   `json:"node_id"`
	Position valueobjects.Position `json:"position"`
}

// NewNodeAdded creates a NodeAdded event
func NewNodeAdded(nodeID valueobjects.NodeID, position valueobjects.Position, at time.Time) NodeAdded {
	return NodeAdded{
		BaseEvent: newBase(nodeID.String(), TypeNodeAdded, at),
		NodeID:    nodeID,
		Position:  position,
	}
}

// NodeUpdated is raised when node data is merged with a patch
type NodeUpdated struct {
	BaseEvent
	NodeID valueobjects.NodeID `json:"node_id"`
	Fields []string            `json:"fields"`
}

// NewNodeUpdated creates a NodeUpdated event
func NewNodeUpdated(nodeID valueobjects.NodeID, fields []string, at time.Time) NodeUpdated {
	return NodeUpdated{
		BaseEvent: newBase(nodeID.String(), TypeNodeUpdated, at),
		NodeID:    nodeID,
		Fields:    fields,
	}
}

// NodeMoved is raised when a node is dragged to a new position
type NodeMoved struct {
	BaseEvent
	NodeID      valueobjects.NodeID   `json:"node_id"`
	OldPosition valueobjects.Position `json:"old_position"`
	NewPosition valueobjects.Position `json:"new_position"`
}

// NewNodeMoved creates a NodeMoved event
func NewNodeMoved(nodeID valueobjects.NodeID, oldPos, newPos valueobjects.Position, at time.Time) NodeMoved {
	return NodeMoved{
		BaseEvent:   newBase(nodeID.String(), TypeNodeMoved, at),
		NodeID:      nodeID,
		OldPosition: oldPos,
		NewPosition: newPos,
	}
}

// NodeDeleted is raised when a node is removed together with its edges
type NodeDeleted struct {
	BaseEvent
	NodeID         valueobjects.NodeID `json:"node_id"`
	RemovedEdgeIDs []string            `json:"removed_edge_ids"`
}

// NewNodeDeleted creates a NodeDeleted event
func NewNodeDeleted(nodeID valueobjects.NodeID, removedEdgeIDs []string, at time.Time) NodeDeleted {
	return NodeDeleted{
		BaseEvent:      newBase(nodeID.String(), TypeNodeDeleted, at),
		NodeID:         nodeID,
		RemovedEdgeIDs: removedEdgeIDs,
	}
}

// Edge Events

// EdgeConnected is raised when two nodes are connected
type EdgeConnected struct {
	BaseEvent
	EdgeID   string              `json:"edge_id"`
	SourceID valueobjects.NodeID `json:"source_id"`
	TargetID valueobjects.NodeID `json:"target_id"`
}

// NewEdgeConnected creates an EdgeConnected event
func NewEdgeConnected(edgeID string, sourceID, targetID valueobjects.NodeID, at time.Time) EdgeConnected {
	return EdgeConnected{
		BaseEvent: newBase(edgeID, TypeEdgeConnected, at),
		EdgeID:    edgeID,
		SourceID:  sourceID,
		TargetID:  targetID,
	}
}

// EdgeRemoved is raised when a single edge is deleted from the canvas
type EdgeRemoved struct {
	BaseEvent
	EdgeID string `json:"edge_id"`
}

// NewEdgeRemoved creates an EdgeRemoved event
func NewEdgeRemoved(edgeID string, at time.Time) EdgeRemoved {
	return EdgeRemoved{
		BaseEvent: newBase(edgeID, TypeEdgeRemoved, at),
		EdgeID:    edgeID,
	}
}

// Diagram Events

// SelectionChanged is raised when the selection pointer moves. Selection is
// not persisted.
type SelectionChanged struct {
	BaseEvent
	Previous *valueobjects.NodeID `json:"previous,omitempty"`
	Current  *valueobjects.NodeID `json:"current,omitempty"`
}

// ChangesSnapshot implements DomainEvent
func (SelectionChanged) ChangesSnapshot() bool { return false }

// NewSelectionChanged creates a SelectionChanged event
func NewSelectionChanged(previous, current *valueobjects.NodeID, at time.Time) SelectionChanged {
	aggregateID := ""
	if current != nil {
		aggregateID = current.String()
	}
	return SelectionChanged{
		BaseEvent: newBase(aggregateID, TypeSelectionChanged, at),
		Previous:  previous,
		Current:   current,
	}
}

// ViewportChanged is raised when the canvas is panned or zoomed
type ViewportChanged struct {
	BaseEvent
	Viewport valueobjects.Viewport `json:"viewport"`
}

// NewViewportChanged creates a ViewportChanged event
func NewViewportChanged(viewport valueobjects.Viewport, at time.Time) ViewportChanged {
	return ViewportChanged{
		BaseEvent: newBase("viewport", TypeViewportChanged, at),
		Viewport:  viewport,
	}
}

// DiagramCleared is raised when the diagram is reset to its seed node
type DiagramCleared struct {
	BaseEvent
}

// NewDiagramCleared creates a DiagramCleared event
func NewDiagramCleared(at time.Time) DiagramCleared {
	return DiagramCleared{BaseEvent: newBase("diagram", TypeDiagramCleared, at)}
}

// DiagramRestored is raised when a saved snapshot replaces the diagram.
// The restored state is already persisted.
type DiagramRestored struct {
	BaseEvent
	NodeCount int `json:"node_count"`
	EdgeCount int `json:"edge_count"`
}

// ChangesSnapshot implements DomainEvent
func (DiagramRestored) ChangesSnapshot() bool { return false }

// NewDiagramRestored creates a DiagramRestored event
func NewDiagramRestored(nodeCount, edgeCount int, at time.Time) DiagramRestored {
	return DiagramRestored{
		BaseEvent: newBase("diagram", TypeDiagramRestored, at),
		NodeCount: nodeCount,
		EdgeCount: edgeCount,
	}
}
