package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/Rysh-29/Neuromap/application/panel"
	"github.com/Rysh-29/Neuromap/pkg/common"
	pkgerrors "github.com/Rysh-29/Neuromap/pkg/errors"
	"github.com/Rysh-29/Neuromap/pkg/utils"
)

// PanelHandler exposes the node detail panel
type PanelHandler struct {
	panel  *panel.DetailPanel
	errors *pkgerrors.ErrorHandler
	logger *zap.Logger
}

// NewPanelHandler creates a new panel handler
func NewPanelHandler(
	detailPanel *panel.DetailPanel,
	errorHandler *pkgerrors.ErrorHandler,
	logger *zap.Logger,
) *PanelHandler {
	return &PanelHandler{
		panel:  detailPanel,
		errors: errorHandler,
		logger: logger,
	}
}

// LabelRequest carries an edited label
type LabelRequest struct {
	Label string `json:"label" validate:"max=500"`
}

// ContentRequest carries edited rich-text notes
type ContentRequest struct {
	Content string `json:"content"`
}

// GetPanel handles GET /panel
func (h *PanelHandler) GetPanel(w http.ResponseWriter, r *http.Request) {
	common.RespondJSON(w, http.StatusOK, h.panel.State())
}

// EditLabel handles PUT /panel/label
func (h *PanelHandler) EditLabel(w http.ResponseWriter, r *http.Request) {
	var req LabelRequest
	if err := common.ParseJSONBody(w, r, &req, 0); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	if err := h.panel.EditLabel(req.Label); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, h.panel.State())
}

// EditContent handles PUT /panel/content
func (h *PanelHandler) EditContent(w http.ResponseWriter, r *http.Request) {
	var req ContentRequest
	if err := common.ParseJSONBody(w, r, &req, 0); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	if err := h.panel.EditContent(req.Content); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, h.panel.State())
}

// RequestDelete handles POST /panel/delete
func (h *PanelHandler) RequestDelete(w http.ResponseWriter, r *http.Request) {
	action, err := h.panel.RequestDelete()
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusAccepted, action)
}

// Close handles POST /panel/close
func (h *PanelHandler) Close(w http.ResponseWriter, r *http.Request) {
	if err := h.panel.Close(); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondNoContent(w)
}
