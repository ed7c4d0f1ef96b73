package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestAppError_Constructors(t *testing.T) {
	tests := []struct {
		name       string
		err        *AppError
		wantType   ErrorType
		wantStatus int
	}{
		{"validation", NewValidationError("bad input"), ErrorTypeValidation, http.StatusBadRequest},
		{"not found", NewNotFoundError("node"), ErrorTypeNotFound, http.StatusNotFound},
		{"conflict", NewConflictError("dup"), ErrorTypeConflict, http.StatusConflict},
		{"internal", NewInternalError("boom"), ErrorTypeInternal, http.StatusInternalServerError},
		{"unavailable", NewUnavailableError("storage"), ErrorTypeUnavailable, http.StatusServiceUnavailable},
		{"rate limit", NewRateLimitError(), ErrorTypeRateLimit, http.StatusTooManyRequests},
		{"storage", NewStorageError("put", errors.New("quota")), ErrorTypeStorage, http.StatusInternalServerError},
		{"render", NewRenderError("png", errors.New("font")), ErrorTypeRender, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantType, tt.err.Type)
			assert.Equal(t, tt.wantStatus, tt.err.HTTPStatus)
			assert.NotEmpty(t, tt.err.StackTrace)
		})
	}
}

func TestAppError_ErrorChain(t *testing.T) {
	cause := errors.New("disk full")
	err := fmt.Errorf("saving map: %w", NewStorageError("put", cause))

	assert.True(t, IsAppError(err))
	assert.True(t, IsType(err, ErrorTypeStorage))
	assert.False(t, IsNotFound(err))
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "disk full")
}

func TestWrap(t *testing.T) {
	assert.NoError(t, Wrap(nil, "ignored"))

	wrapped := Wrap(NewNotFoundError("node 7"), "delete")
	require.True(t, IsNotFound(wrapped))
	assert.Equal(t, "delete: node 7 not found", GetAppError(wrapped).Message)

	plain := Wrap(errors.New("raw"), "context")
	assert.True(t, IsType(plain, ErrorTypeInternal))
}

func TestErrorHandler_Handle(t *testing.T) {
	handler := NewErrorHandler(zap.NewNop(), false)

	t.Run("app error keeps its status", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/nodes/9", nil)

		handler.Handle(rec, req, NewNotFoundError("node 9"))

		assert.Equal(t, http.StatusNotFound, rec.Code)
		var body ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.True(t, body.Error)
		assert.Equal(t, "NOT_FOUND", body.Type)
		assert.Equal(t, http.StatusNotFound, body.Code)
	})

	t.Run("plain error is masked", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)

		handler.Handle(rec, req, errors.New("secret detail"))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.NotContains(t, rec.Body.String(), "secret detail")
	})

	t.Run("panic is recovered", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)

		handler.Middleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			panic("canvas exploded")
		})).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}
