package entities

import (
	"strings"

	"github.com/Rysh-29/Neuromap/domain/core/valueobjects"
	pkgerrors "github.com/Rysh-29/Neuromap/pkg/errors"
)

// NodeTypeCustom is the renderer type every concept node uses on the canvas
const NodeTypeCustom = "custom"

// Default labels and content
const (
	NewNodeLabel      = "New Concept"
	UntitledNodeLabel = "Untitled Concept"

	// emptyEditorContent is what the rich-text editor leaves behind after
	// all text has been deleted.
	emptyEditorContent = "<p><br></p>"
)

// NodeData is the editable payload of a concept node
type NodeData struct {
	Label   string   `json:"label"`
	Content string   `json:"content"` // HTML from the rich-text editor
	Color   string   `json:"color,omitempty"`
	Tags    []string `json:"tags,omitempty"`
}

// NodeDataPatch carries a partial update. Nil fields are left untouched.
type NodeDataPatch struct {
	Label   *string   `json:"label,omitempty" validate:"omitempty,max=500"`
	Content *string   `json:"content,omitempty"`
	Color   *string   `json:"color,omitempty" validate:"omitempty,max=32"`
	Tags    *[]string `json:"tags,omitempty" validate:"omitempty,max=20,dive,max=50"`
}

// IsEmpty reports whether the patch carries no field at all
func (p NodeDataPatch) IsEmpty() bool {
	return p.Label == nil && p.Content == nil && p.Color == nil && p.Tags == nil
}

// Node is a positioned, labelled unit of content on the canvas
type Node struct {
	ID       valueobjects.NodeID   `json:"id"`
	Type     string                `json:"type"`
	Position valueobjects.Position `json:"position"`
	Data     NodeData              `json:"data"`
}

// NewNode creates a concept node
func NewNode(id valueobjects.NodeID, position valueobjects.Position, data NodeData) (*Node, error) {
	if id.IsZero() {
		return nil, pkgerrors.NewValidationError("node id cannot be empty")
	}

	return &Node{
		ID:       id,
		Type:     NodeTypeCustom,
		Position: position,
		Data:     data.clone(),
	}, nil
}

// Apply merges a partial update into the node data and reports whether
// anything changed.
func (n *Node) Apply(patch NodeDataPatch) bool {
	changed := false

	if patch.Label != nil && *patch.Label != n.Data.Label {
		n.Data.Label = *patch.Label
		changed = true
	}
	if patch.Content != nil && *patch.Content != n.Data.Content {
		n.Data.Content = *patch.Content
		changed = true
	}
	if patch.Color != nil && *patch.Color != n.Data.Color {
		n.Data.Color = *patch.Color
		changed = true
	}
	if patch.Tags != nil && !equalTags(*patch.Tags, n.Data.Tags) {
		n.Data.Tags = append([]string(nil), (*patch.Tags)...)
		changed = true
	}

	return changed
}

// MoveTo moves the node and reports whether the position changed
func (n *Node) MoveTo(position valueobjects.Position) bool {
	if position.Equals(n.Position) {
		return false
	}
	n.Position = position
	return true
}

// DisplayLabel is the label shown on the canvas
func (n *Node) DisplayLabel() string {
	if strings.TrimSpace(n.Data.Label) == "" {
		return UntitledNodeLabel
	}
	return n.Data.Label
}

// HasNotes reports whether the node carries non-empty rich-text content
func (n *Node) HasNotes() bool {
	content := strings.TrimSpace(n.Data.Content)
	return content != "" && content != emptyEditorContent
}

// Clone returns a deep copy of the node
func (n *Node) Clone() *Node {
	clone := *n
	clone.Data = n.Data.clone()
	return &clone
}

func (d NodeData) clone() NodeData {
	if d.Tags != nil {
		d.Tags = append([]string(nil), d.Tags...)
	}
	return d
}

func equalTags(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
