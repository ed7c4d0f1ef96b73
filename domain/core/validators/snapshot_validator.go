package validators

import (
	"fmt"

	"github.com/Rysh-29/Neuromap/domain/config"
	"github.com/Rysh-29/Neuromap/domain/core/aggregates"
	"github.com/Rysh-29/Neuromap/domain/core/entities"
	"github.com/Rysh-29/Neuromap/domain/core/valueobjects"
)

// Issue describes one problem found in a stored snapshot
type Issue struct {
	Field   string
	Message string
}

func (i Issue) String() string {
	return i.Field + ": " + i.Message
}

// SnapshotValidator checks snapshots read back from storage. Storage holds
// no schema version, so anything that decoded as JSON is repaired rather
// than rejected: broken entries are dropped and reported.
type SnapshotValidator struct {
	config *config.DomainConfig
}

// NewSnapshotValidator creates a validator with the given rules
func NewSnapshotValidator(cfg *config.DomainConfig) *SnapshotValidator {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	return &SnapshotValidator{config: cfg}
}

// Sanitize returns a copy of data that satisfies the diagram invariants,
// together with the issues that had to be fixed.
func (v *SnapshotValidator) Sanitize(data aggregates.SavedMapData) (aggregates.SavedMapData, []Issue) {
	var issues []Issue
	clean := aggregates.SavedMapData{
		Nodes:    make([]*entities.Node, 0, len(data.Nodes)),
		Edges:    make([]*entities.Edge, 0, len(data.Edges)),
		Viewport: data.Viewport,
	}

	nodeIDs := make(map[valueobjects.NodeID]bool, len(data.Nodes))
	for i, node := range data.Nodes {
		field := fmt.Sprintf("nodes[%d]", i)
		switch {
		case node == nil:
			issues = append(issues, Issue{field, "null node dropped"})
			continue
		case node.ID.IsZero():
			issues = append(issues, Issue{field, "node without id dropped"})
			continue
		case nodeIDs[node.ID]:
			issues = append(issues, Issue{field, "duplicate node id " + node.ID.String() + " dropped"})
			continue
		}

		clone := node.Clone()
		if clone.Type == "" {
			clone.Type = entities.NodeTypeCustom
		}
		if len(clone.Data.Tags) > v.config.MaxTagsPerNode {
			issues = append(issues, Issue{field + ".data.tags", "tag list truncated"})
			clone.Data.Tags = clone.Data.Tags[:v.config.MaxTagsPerNode]
		}

		nodeIDs[clone.ID] = true
		clean.Nodes = append(clean.Nodes, clone)
	}

	edgeIDs := make(map[string]bool, len(data.Edges))
	for i, edge := range data.Edges {
		field := fmt.Sprintf("edges[%d]", i)
		switch {
		case edge == nil:
			issues = append(issues, Issue{field, "null edge dropped"})
			continue
		case edge.ID == "":
			issues = append(issues, Issue{field, "edge without id dropped"})
			continue
		case edgeIDs[edge.ID]:
			issues = append(issues, Issue{field, "duplicate edge id " + edge.ID + " dropped"})
			continue
		case !nodeIDs[edge.Source] || !nodeIDs[edge.Target]:
			issues = append(issues, Issue{field, "edge " + edge.ID + " references a missing node"})
			continue
		}

		edgeIDs[edge.ID] = true
		clean.Edges = append(clean.Edges, edge.Clone())
	}

	if err := data.Viewport.Validate(); err != nil {
		issues = append(issues, Issue{"viewport", "invalid viewport replaced by default"})
		clean.Viewport = valueobjects.DefaultViewport()
	} else {
		clean.Viewport, _ = valueobjects.NewViewport(data.Viewport.X, data.Viewport.Y, data.Viewport.Zoom)
	}

	return clean, issues
}
