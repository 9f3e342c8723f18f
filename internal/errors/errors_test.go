package errors

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPIErrorConstructors(t *testing.T) {
	tests := []struct {
		name       string
		err        *APIError
		wantStatus int
		wantCode   string
	}{
		{"invalid request", InvalidRequestWithError(fmt.Errorf("bad multipart")), http.StatusBadRequest, CodeInvalidRequest},
		{"missing file", MissingFileError("file_campaigns"), http.StatusBadRequest, CodeMissingFile},
		{"invalid parameter", InvalidParameterError("format", "pdf", "xlsx", "csv"), http.StatusBadRequest, CodeInvalidParameter},
		{"panic", ErrPanic("boom"), http.StatusInternalServerError, CodeInternal},
		{"busy", ErrServiceBusy, http.StatusServiceUnavailable, CodeServiceBusy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantStatus, tt.err.StatusCode)
			assert.Equal(t, tt.wantCode, tt.err.ErrorCode)
			assert.NotEmpty(t, tt.err.Error())
		})
	}
}

func TestInvalidParameterErrorDetails(t *testing.T) {
	err := InvalidParameterError("format", "pdf", "xlsx", "csv")

	details, ok := err.Details.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "format", details["parameter"])
	assert.Equal(t, []string{"xlsx", "csv"}, details["allowed"])
	assert.Contains(t, err.Message, `"pdf"`)
}

func TestWriteError(t *testing.T) {
	w := httptest.NewRecorder()

	WriteError(w, ErrRateLimitExceeded)

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var resp ErrorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.False(t, resp.Success)
	assert.Equal(t, CodeRateLimitExceeded, resp.Error.ErrorCode)
}
