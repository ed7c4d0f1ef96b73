package aggregates

import (
	"github.com/Rysh-29/Neuromap/domain/core/entities"
	"github.com/Rysh-29/Neuromap/domain/core/valueobjects"
)

// SavedMapData is the persisted snapshot of a diagram
type SavedMapData struct {
	Nodes    []*entities.Node      `json:"nodes"`
	Edges    []*entities.Edge      `json:"edges"`
	Viewport valueobjects.Viewport `json:"viewport"`
}

// Clone returns a deep copy of the snapshot
func (d SavedMapData) Clone() SavedMapData {
	clone := SavedMapData{
		Nodes:    make([]*entities.Node, 0, len(d.Nodes)),
		Edges:    make([]*entities.Edge, 0, len(d.Edges)),
		Viewport: d.Viewport,
	}
	for _, n := range d.Nodes {
		if n != nil {
			clone.Nodes = append(clone.Nodes, n.Clone())
		}
	}
	for _, e := range d.Edges {
		if e != nil {
			clone.Edges = append(clone.Edges, e.Clone())
		}
	}
	return clone
}

// Seed node of an empty or cleared diagram
const (
	SeedNodeID      = "1"
	SeedNodeLabel   = "Central Concept"
	SeedNodeContent = "<p>Start typing your notes here...</p>"
	seedNodeX       = 250
	seedNodeY       = 250
)

// SeedNode returns the default node every new diagram starts with
func SeedNode() *entities.Node {
	pos, _ := valueobjects.NewPosition(seedNodeX, seedNodeY)
	node, _ := entities.NewNode(valueobjects.MustNodeID(SeedNodeID), pos, entities.NodeData{
		Label:   SeedNodeLabel,
		Content: SeedNodeContent,
	})
	return node
}
