package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Rysh-29/Neuromap/domain/core/valueobjects"
	pkgerrors "github.com/Rysh-29/Neuromap/pkg/errors"
)

// nodeIDParam reads the {nodeID} URL parameter
func nodeIDParam(r *http.Request) (valueobjects.NodeID, error) {
	id, err := valueobjects.NewNodeIDFromString(chi.URLParam(r, "nodeID"))
	if err != nil {
		return valueobjects.NodeID{}, pkgerrors.NewValidationError("node ID is required")
	}
	return id, nil
}
