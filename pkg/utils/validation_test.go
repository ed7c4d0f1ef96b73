package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/Rysh-29/Neuromap/pkg/errors"
)

type connectRequest struct {
	Source string  `json:"source" validate:"required"`
	Target string  `json:"target" validate:"required"`
	Zoom   float64 `json:"zoom" validate:"gt=0"`
}

func TestValidateStruct(t *testing.T) {
	assert.NoError(t, ValidateStruct(connectRequest{Source: "1", Target: "2", Zoom: 1}))

	err := ValidateStruct(connectRequest{Source: "1"})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsValidation(err))

	appErr := pkgerrors.GetAppError(err)
	assert.Contains(t, appErr.Message, "target is required")
	assert.Contains(t, appErr.Message, "zoom must be greater than 0")
	assert.Contains(t, appErr.Details["fields"], "target")
}
