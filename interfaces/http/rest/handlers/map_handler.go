package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/Rysh-29/Neuromap/application/services"
	"github.com/Rysh-29/Neuromap/domain/core/valueobjects"
	"github.com/Rysh-29/Neuromap/pkg/common"
	pkgerrors "github.com/Rysh-29/Neuromap/pkg/errors"
	"github.com/Rysh-29/Neuromap/pkg/utils"
)

// MapHandler serves the whole-map view, selection, viewport and clearing
type MapHandler struct {
	controller *services.CanvasController
	errors     *pkgerrors.ErrorHandler
	logger     *zap.Logger
}

// NewMapHandler creates a new map handler
func NewMapHandler(
	controller *services.CanvasController,
	errorHandler *pkgerrors.ErrorHandler,
	logger *zap.Logger,
) *MapHandler {
	return &MapHandler{
		controller: controller,
		errors:     errorHandler,
		logger:     logger,
	}
}

// SelectionRequest selects a node. A null nodeId clears the selection.
type SelectionRequest struct {
	NodeID *string `json:"nodeId"`
}

// ViewportRequest represents a pan or zoom of the canvas
type ViewportRequest struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Zoom float64 `json:"zoom" validate:"gt=0"`
}

// CanvasRequest represents the visible canvas size
type CanvasRequest struct {
	Width  float64 `json:"width" validate:"gt=0"`
	Height float64 `json:"height" validate:"gt=0"`
}

// GetMap handles GET /map
func (h *MapHandler) GetMap(w http.ResponseWriter, r *http.Request) {
	common.RespondJSON(w, http.StatusOK, h.controller.Map())
}

// SetSelection handles PUT /selection
func (h *MapHandler) SetSelection(w http.ResponseWriter, r *http.Request) {
	var req SelectionRequest
	if err := common.ParseJSONBody(w, r, &req, 0); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	var id *valueobjects.NodeID
	if req.NodeID != nil {
		nodeID, err := valueobjects.NewNodeIDFromString(*req.NodeID)
		if err != nil {
			h.errors.Handle(w, r, pkgerrors.NewValidationError(err.Error()))
			return
		}
		id = &nodeID
	}

	if err := h.controller.SelectNode(id); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"selectedNodeId": id,
	})
}

// SetViewport handles PUT /viewport. Zoom is clamped to the supported range.
func (h *MapHandler) SetViewport(w http.ResponseWriter, r *http.Request) {
	var req ViewportRequest
	if err := common.ParseJSONBody(w, r, &req, 0); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	if err := h.controller.SetViewport(valueobjects.Viewport{X: req.X, Y: req.Y, Zoom: req.Zoom}); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, h.controller.Map().Viewport)
}

// SetCanvas handles PUT /canvas
func (h *MapHandler) SetCanvas(w http.ResponseWriter, r *http.Request) {
	var req CanvasRequest
	if err := common.ParseJSONBody(w, r, &req, 0); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	size := valueobjects.CanvasSize{Width: req.Width, Height: req.Height}
	if err := h.controller.SetCanvasSize(size); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, size)
}

// RequestClear handles POST /clear. The map is cleared once the returned
// pending action is confirmed.
func (h *MapHandler) RequestClear(w http.ResponseWriter, r *http.Request) {
	action := h.controller.RequestClear()
	h.logger.Info("Clear requested", zap.Time("expiresAt", action.ExpiresAt))
	common.RespondJSON(w, http.StatusAccepted, action)
}
