// Package panel binds the node detail side panel to the selected node.
package panel

import (
	"sync"

	"go.uber.org/zap"

	"github.com/Rysh-29/Neuromap/application/services"
	"github.com/Rysh-29/Neuromap/domain/core/entities"
	"github.com/Rysh-29/Neuromap/domain/core/valueobjects"
	"github.com/Rysh-29/Neuromap/domain/events"
	pkgerrors "github.com/Rysh-29/Neuromap/pkg/errors"
)

// Controller is the part of the canvas controller the panel drives
type Controller interface {
	SelectedNode() *entities.Node
	UpdateNode(id valueobjects.NodeID, patch entities.NodeDataPatch) (bool, error)
	RequestDeleteNode(id valueobjects.NodeID) (services.PendingAction, error)
	SelectNode(id *valueobjects.NodeID) error
	Subscribe(fn services.Subscriber)
}

// State is what the panel currently shows
type State struct {
	Open         bool                 `json:"open"`
	NodeID       *valueobjects.NodeID `json:"nodeId,omitempty"`
	Label        string               `json:"label"`
	Content      string               `json:"content"`
	DisplayLabel string               `json:"displayLabel,omitempty"`
	HasNotes     bool                 `json:"hasNotes"`
}

// DetailPanel keeps local copies of the selected node's label and content.
// The copies are refreshed only when a different node is bound, so edits
// echoed back from the store never overwrite what is being typed.
type DetailPanel struct {
	mu         sync.Mutex
	controller Controller
	logger     *zap.Logger

	nodeID  *valueobjects.NodeID
	label   string
	content string
}

// NewDetailPanel creates a panel bound to the controller's selection
func NewDetailPanel(controller Controller, logger *zap.Logger) *DetailPanel {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &DetailPanel{controller: controller, logger: logger}
	p.Bind(controller.SelectedNode())
	controller.Subscribe(p.onEvents)
	return p
}

// Bind shows node in the panel. A nil node closes the panel. Binding the
// node that is already shown keeps the local fields.
func (p *DetailPanel) Bind(node *entities.Node) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if node == nil {
		p.nodeID = nil
		p.label, p.content = "", ""
		return
	}
	if p.nodeID != nil && p.nodeID.Equals(node.ID) {
		return
	}

	id := node.ID
	p.nodeID = &id
	p.label = node.Data.Label
	p.content = node.Data.Content
}

// State returns what the panel shows
func (p *DetailPanel) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.nodeID == nil {
		return State{}
	}

	id := *p.nodeID
	view := entities.Node{ID: id, Data: entities.NodeData{Label: p.label, Content: p.content}}
	return State{
		Open:         true,
		NodeID:       &id,
		Label:        p.label,
		Content:      p.content,
		DisplayLabel: view.DisplayLabel(),
		HasNotes:     view.HasNotes(),
	}
}

// EditLabel changes the local label and writes it through to the store
func (p *DetailPanel) EditLabel(label string) error {
	var prev string
	id, err := p.edit(func() { prev, p.label = p.label, label })
	if err != nil {
		return err
	}
	if _, err = p.controller.UpdateNode(id, entities.NodeDataPatch{Label: &label}); err != nil {
		p.rollback(id, func() {
			if p.label == label {
				p.label = prev
			}
		})
	}
	return err
}

// EditContent changes the local notes and writes them through to the store
func (p *DetailPanel) EditContent(content string) error {
	var prev string
	id, err := p.edit(func() { prev, p.content = p.content, content })
	if err != nil {
		return err
	}
	if _, err = p.controller.UpdateNode(id, entities.NodeDataPatch{Content: &content}); err != nil {
		p.rollback(id, func() {
			if p.content == content {
				p.content = prev
			}
		})
	}
	return err
}

// RequestDelete asks for confirmation before deleting the shown node.
// Confirming the returned action deletes the node and closes the panel.
func (p *DetailPanel) RequestDelete() (services.PendingAction, error) {
	p.mu.Lock()
	if p.nodeID == nil {
		p.mu.Unlock()
		return services.PendingAction{}, errNoSelection()
	}
	id := *p.nodeID
	p.mu.Unlock()

	return p.controller.RequestDeleteNode(id)
}

// Close clears the selection, which unbinds the panel
func (p *DetailPanel) Close() error {
	return p.controller.SelectNode(nil)
}

func (p *DetailPanel) edit(apply func()) (valueobjects.NodeID, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.nodeID == nil {
		return valueobjects.NodeID{}, errNoSelection()
	}
	apply()
	return *p.nodeID, nil
}

// rollback undoes a local edit the store rejected, unless another node has
// been bound since.
func (p *DetailPanel) rollback(id valueobjects.NodeID, undo func()) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.nodeID == nil || !p.nodeID.Equals(id) {
		return
	}
	undo()
}

func (p *DetailPanel) onEvents(evts []events.DomainEvent) {
	for _, evt := range evts {
		switch evt.GetEventType() {
		case events.TypeSelectionChanged, events.TypeNodeDeleted, events.TypeDiagramCleared, events.TypeDiagramRestored:
			node := p.controller.SelectedNode()
			p.Bind(node)
			p.logger.Debug("Detail panel rebound", zap.Bool("open", node != nil))
			return
		}
	}
}

func errNoSelection() error {
	return pkgerrors.NewConflictError("no node is selected")
}
