package entities

import (
	"github.com/google/uuid"

	"github.com/Rysh-29/Neuromap/domain/core/valueobjects"
	pkgerrors "github.com/Rysh-29/Neuromap/pkg/errors"
)

// MarkerType identifies the arrow head drawn at an edge end
type MarkerType string

const (
	MarkerArrow       MarkerType = "arrow"
	MarkerArrowClosed MarkerType = "arrowclosed"
)

// DefaultEdgeColor is the stroke used for every connection
const DefaultEdgeColor = "#52525b"

// EdgeStyle is the stroke style of an edge
type EdgeStyle struct {
	Stroke      string  `json:"stroke"`
	StrokeWidth float64 `json:"strokeWidth"`
}

// EdgeMarker describes an arrow head
type EdgeMarker struct {
	Type  MarkerType `json:"type"`
	Color string     `json:"color,omitempty"`
}

// Edge is a directed visual connection between two nodes
type Edge struct {
	ID        string              `json:"id"`
	Source    valueobjects.NodeID `json:"source"`
	Target    valueobjects.NodeID `json:"target"`
	Animated  bool                `json:"animated"`
	Style     EdgeStyle           `json:"style"`
	MarkerEnd EdgeMarker          `json:"markerEnd"`
}

// NewEdge creates an animated connection with the default styling. Several
// edges may join the same pair of nodes; each gets its own id.
func NewEdge(source, target valueobjects.NodeID) (*Edge, error) {
	if source.IsZero() || target.IsZero() {
		return nil, pkgerrors.NewValidationError("edge endpoints cannot be empty")
	}

	return &Edge{
		ID:       uuid.New().String(),
		Source:   source,
		Target:   target,
		Animated: true,
		Style: EdgeStyle{
			Stroke:      DefaultEdgeColor,
			StrokeWidth: 2,
		},
		MarkerEnd: EdgeMarker{
			Type:  MarkerArrowClosed,
			Color: DefaultEdgeColor,
		},
	}, nil
}

// Touches reports whether the node is one of the edge endpoints
func (e *Edge) Touches(id valueobjects.NodeID) bool {
	return e.Source.Equals(id) || e.Target.Equals(id)
}

// Clone returns a copy of the edge
func (e *Edge) Clone() *Edge {
	clone := *e
	return &clone
}
