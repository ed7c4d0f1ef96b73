package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/Rysh-29/Neuromap/application/services"
	"github.com/Rysh-29/Neuromap/domain/core/entities"
	"github.com/Rysh-29/Neuromap/domain/core/valueobjects"
	"github.com/Rysh-29/Neuromap/pkg/common"
	pkgerrors "github.com/Rysh-29/Neuromap/pkg/errors"
	"github.com/Rysh-29/Neuromap/pkg/utils"
)

// NodeHandler handles node-related HTTP requests
type NodeHandler struct {
	controller *services.CanvasController
	errors     *pkgerrors.ErrorHandler
	logger     *zap.Logger
}

// NewNodeHandler creates a new node handler
func NewNodeHandler(
	controller *services.CanvasController,
	errorHandler *pkgerrors.ErrorHandler,
	logger *zap.Logger,
) *NodeHandler {
	return &NodeHandler{
		controller: controller,
		errors:     errorHandler,
		logger:     logger,
	}
}

// MoveNodeRequest represents the request body for moving a node
type MoveNodeRequest struct {
	X *float64 `json:"x" validate:"required"`
	Y *float64 `json:"y" validate:"required"`
}

// CreateNode handles POST /nodes. The node is placed near the centre of
// the visible canvas.
func (h *NodeHandler) CreateNode(w http.ResponseWriter, r *http.Request) {
	node, err := h.controller.AddNode()
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	h.logger.Debug("Node created", zap.String("nodeID", node.ID.String()))
	common.RespondJSON(w, http.StatusCreated, node)
}

// UpdateNode handles PATCH /nodes/{nodeID}
func (h *NodeHandler) UpdateNode(w http.ResponseWriter, r *http.Request) {
	id, err := nodeIDParam(r)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	var patch entities.NodeDataPatch
	if err := common.ParseJSONBody(w, r, &patch, 0); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	if err := utils.ValidateStruct(patch); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	if patch.IsEmpty() {
		h.errors.Handle(w, r, pkgerrors.NewValidationError("at least one field must be provided"))
		return
	}

	found, err := h.controller.UpdateNode(id, patch)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	if !found {
		h.errors.Handle(w, r, pkgerrors.NewNotFoundError("node "+id.String()))
		return
	}

	node, _ := h.controller.Node(id)
	common.RespondJSON(w, http.StatusOK, node)
}

// MoveNode handles PUT /nodes/{nodeID}/position
func (h *NodeHandler) MoveNode(w http.ResponseWriter, r *http.Request) {
	id, err := nodeIDParam(r)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	var req MoveNodeRequest
	if err := common.ParseJSONBody(w, r, &req, 0); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	position, err := valueobjects.NewPosition(*req.X, *req.Y)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	if !h.controller.MoveNode(id, position) {
		h.errors.Handle(w, r, pkgerrors.NewNotFoundError("node "+id.String()))
		return
	}

	node, _ := h.controller.Node(id)
	common.RespondJSON(w, http.StatusOK, node)
}

// DeleteNode handles DELETE /nodes/{nodeID}. Nothing is removed until the
// returned pending action is confirmed.
func (h *NodeHandler) DeleteNode(w http.ResponseWriter, r *http.Request) {
	id, err := nodeIDParam(r)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	action, err := h.controller.RequestDeleteNode(id)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusAccepted, action)
}
