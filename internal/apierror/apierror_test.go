package apierror

import (
	"net/http"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestMapErrorToHTTPStatus(t *testing.T) {
	tests := []struct {
		code ErrorCode
		want int
	}{
		{ErrNotFound, http.StatusNotFound},
		{ErrConflict, http.StatusConflict},
		{ErrValidation, http.StatusBadRequest},
		{ErrRateUnavailable, http.StatusBadRequest},
		{ErrRateExpired, http.StatusBadRequest},
		{ErrFinalProvider, http.StatusUnprocessableEntity},
		{ErrTransient, http.StatusInternalServerError},
		{ErrStorage, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			err := NewAPIError(tt.code, "boom", nil)
			assert.Equal(t, tt.want, MapErrorToHTTPStatus(err))
		})
	}

	assert.Equal(t, http.StatusInternalServerError, MapErrorToHTTPStatus(errors.New("plain error")))
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(NewAPIError(ErrTransient, "provider timeout", nil)))
	assert.True(t, IsRetryable(NewAPIError(ErrStorage, "db down", nil)))
	assert.False(t, IsRetryable(NewAPIError(ErrValidation, "bad card", nil)))
	assert.False(t, IsRetryable(NewAPIError(ErrFinalProvider, "card declined", nil)))
	assert.False(t, IsRetryable(errors.New("plain error")))
}

func TestIsRetryableWrapped(t *testing.T) {
	err := errors.Wrap(NewAPIError(ErrTransient, "provider timeout", nil), "creating payment")
	assert.True(t, IsRetryable(err))
	assert.Equal(t, ErrTransient, CodeOf(err))
}
