package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/Rysh-29/Neuromap/application/services"
	"github.com/Rysh-29/Neuromap/pkg/common"
	pkgerrors "github.com/Rysh-29/Neuromap/pkg/errors"
)

// ExportHandler serves PNG and Markdown exports of the map
type ExportHandler struct {
	controller *services.CanvasController
	errors     *pkgerrors.ErrorHandler
	logger     *zap.Logger
}

// NewExportHandler creates a new export handler
func NewExportHandler(
	controller *services.CanvasController,
	errorHandler *pkgerrors.ErrorHandler,
	logger *zap.Logger,
) *ExportHandler {
	return &ExportHandler{
		controller: controller,
		errors:     errorHandler,
		logger:     logger,
	}
}

// ExportFormat returns a handler for one export format. With ?async=true
// the file is written to the export directory in the background and the
// response carries its path.
func (h *ExportHandler) ExportFormat(format string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if async, _ := strconv.ParseBool(r.URL.Query().Get("async")); async {
			path, err := h.controller.ExportAsync(format)
			if err != nil {
				h.errors.Handle(w, r, err)
				return
			}
			common.RespondJSON(w, http.StatusAccepted, map[string]string{"path": path})
			return
		}

		fileName, contentType, ok := h.controller.ExportFileName(format)
		if !ok {
			h.errors.Handle(w, r, pkgerrors.NewNotFoundError("export format "+format))
			return
		}

		var buf bytes.Buffer
		if err := h.controller.Export(r.Context(), format, &buf); err != nil {
			h.errors.Handle(w, r, err)
			return
		}

		w.Header().Set("Content-Type", contentType)
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileName))
		w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
		w.WriteHeader(http.StatusOK)
		if _, err := buf.WriteTo(w); err != nil {
			h.logger.Warn("Failed to write export", zap.String("format", format), zap.Error(err))
		}
	}
}
