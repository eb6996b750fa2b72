package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_Error(t *testing.T) {
	err := NewAppError(ErrCodeNotFound, "room not found", http.StatusNotFound)
	assert.Equal(t, "NOT_FOUND: room not found", err.Error())

	wrapped := WrapError(errors.New("redis: nil"), ErrCodeInternal, "store lookup failed", http.StatusInternalServerError)
	assert.Contains(t, wrapped.Error(), "INTERNAL_ERROR")
	assert.Contains(t, wrapped.Error(), "redis: nil")
}

func TestAppError_Unwrap(t *testing.T) {
	cause := errors.New("boom")
	wrapped := WrapError(cause, ErrCodeInternal, "failed", http.StatusInternalServerError)

	assert.True(t, errors.Is(wrapped, cause))
}

func TestConstructors(t *testing.T) {
	tests := []struct {
		name   string
		err    *AppError
		code   ErrorCode
		status int
	}{
		{"invalid input", NewInvalidInputError("bad"), ErrCodeInvalidInput, http.StatusBadRequest},
		{"not found", NewNotFoundError("peer"), ErrCodeNotFound, http.StatusNotFound},
		{"not joined", NewNotJoinedError(), ErrCodeNotJoined, http.StatusPreconditionFailed},
		{"already joined", NewAlreadyJoinedError(), ErrCodeAlreadyJoined, http.StatusConflict},
		{"forbidden", NewForbiddenError("nope"), ErrCodeForbidden, http.StatusForbidden},
		{"unknown method", NewUnknownMethodError("doStuff"), ErrCodeUnknownMethod, http.StatusNotImplemented},
		{"internal", NewInternalError("oops"), ErrCodeInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.status, tt.err.HTTPStatus)
		})
	}
}

func TestGetAppError(t *testing.T) {
	appErr := NewNotFoundError("transport")

	assert.Equal(t, appErr, GetAppError(appErr))
	assert.Nil(t, GetAppError(nil))
	assert.Nil(t, GetAppError(errors.New("plain")))

	wrapped := fmt.Errorf("handler failed: %w", appErr)
	assert.Equal(t, appErr, GetAppError(wrapped))
}
