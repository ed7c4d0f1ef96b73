package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/Rysh-29/Neuromap/application/services"
	"github.com/Rysh-29/Neuromap/domain/core/valueobjects"
	"github.com/Rysh-29/Neuromap/pkg/common"
	pkgerrors "github.com/Rysh-29/Neuromap/pkg/errors"
	"github.com/Rysh-29/Neuromap/pkg/utils"
)

// EdgeHandler handles edge-related HTTP requests
type EdgeHandler struct {
	controller *services.CanvasController
	errors     *pkgerrors.ErrorHandler
	logger     *zap.Logger
}

// NewEdgeHandler creates a new edge handler
func NewEdgeHandler(
	controller *services.CanvasController,
	errorHandler *pkgerrors.ErrorHandler,
	logger *zap.Logger,
) *EdgeHandler {
	return &EdgeHandler{
		controller: controller,
		errors:     errorHandler,
		logger:     logger,
	}
}

// CreateEdgeRequest represents the request body for connecting two nodes
type CreateEdgeRequest struct {
	Source string `json:"source" validate:"required"`
	Target string `json:"target" validate:"required"`
}

// CreateEdge handles POST /edges
func (h *EdgeHandler) CreateEdge(w http.ResponseWriter, r *http.Request) {
	var req CreateEdgeRequest
	if err := common.ParseJSONBody(w, r, &req, 0); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	edge, err := h.controller.Connect(valueobjects.MustNodeID(req.Source), valueobjects.MustNodeID(req.Target))
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	h.logger.Debug("Edge created",
		zap.String("edgeID", edge.ID),
		zap.String("source", req.Source),
		zap.String("target", req.Target),
	)
	common.RespondJSON(w, http.StatusCreated, edge)
}

// DeleteEdge handles DELETE /edges/{edgeID}
func (h *EdgeHandler) DeleteEdge(w http.ResponseWriter, r *http.Request) {
	edgeID := chi.URLParam(r, "edgeID")
	if edgeID == "" {
		h.errors.Handle(w, r, pkgerrors.NewValidationError("edge ID is required"))
		return
	}

	if !h.controller.RemoveEdge(edgeID) {
		h.errors.Handle(w, r, pkgerrors.NewNotFoundError("edge "+edgeID))
		return
	}

	common.RespondNoContent(w)
}
