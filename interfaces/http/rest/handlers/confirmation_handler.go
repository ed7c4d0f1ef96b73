package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/Rysh-29/Neuromap/application/services"
	"github.com/Rysh-29/Neuromap/pkg/common"
	pkgerrors "github.com/Rysh-29/Neuromap/pkg/errors"
)

// ConfirmationHandler confirms or cancels pending destructive actions
type ConfirmationHandler struct {
	controller *services.CanvasController
	errors     *pkgerrors.ErrorHandler
	logger     *zap.Logger
}

// NewConfirmationHandler creates a new confirmation handler
func NewConfirmationHandler(
	controller *services.CanvasController,
	errorHandler *pkgerrors.ErrorHandler,
	logger *zap.Logger,
) *ConfirmationHandler {
	return &ConfirmationHandler{
		controller: controller,
		errors:     errorHandler,
		logger:     logger,
	}
}

// ConfirmResponse reports the action that ran and the resulting map
type ConfirmResponse struct {
	Action services.PendingAction `json:"action"`
	Map    services.MapView       `json:"map"`
}

// Confirm handles POST /confirmations/{token}
func (h *ConfirmationHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	action, err := h.controller.Confirm(r.Context(), token)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	h.logger.Info("Action confirmed", zap.String("kind", string(action.Kind)))
	common.RespondJSON(w, http.StatusOK, ConfirmResponse{
		Action: action,
		Map:    h.controller.Map(),
	})
}

// Cancel handles DELETE /confirmations/{token}
func (h *ConfirmationHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	if err := h.controller.Cancel(chi.URLParam(r, "token")); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondNoContent(w)
}
