package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	tests := map[string]int{
		CodeUnauthorized:               http.StatusUnauthorized,
		CodeNotFound:                   http.StatusNotFound,
		CodeBadRequest:                 http.StatusBadRequest,
		CodeAlreadyAtFinalCheckpoint:   http.StatusBadRequest,
		CodeTrackingIDGenerationFailed: http.StatusInternalServerError,
		CodeConflict:                   http.StatusConflict,
		CodeMethodNotAllowed:           http.StatusMethodNotAllowed,
		CodeUpstreamProviderFailure:    http.StatusBadGateway,
		CodeRateLimited:                http.StatusTooManyRequests,
		CodeInternal:                   http.StatusInternalServerError,
		"SOMETHING_ELSE":               http.StatusInternalServerError,
	}
	for code, want := range tests {
		assert.Equal(t, want, HTTPStatus(code), code)
	}
}

func TestAppErrorUnwrap(t *testing.T) {
	sentinel := errors.New("record gone")
	err := fmt.Errorf("handler: %w", NotFound("Shipment not found", sentinel))

	assert.ErrorIs(t, err, sentinel)
	appErr := As(err)
	assert.Equal(t, CodeNotFound, appErr.Code)
	assert.Equal(t, "Shipment not found: record gone", appErr.Error())
}

func TestAsWrapsUnknownErrors(t *testing.T) {
	appErr := As(errors.New("boom"))
	assert.Equal(t, CodeInternal, appErr.Code)
	assert.Equal(t, "Internal server error", appErr.Message)
}
