package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	rperrors "github.com/gpuctl/rpctl/pkg/errors"
)

func TestHTTPStatusFromCode(t *testing.T) {
	tests := []struct {
		code rperrors.ErrorCode
		want int
	}{
		{rperrors.ErrCodeInvalidRequest, http.StatusBadRequest},
		{rperrors.ErrCodeUnauthorized, http.StatusUnauthorized},
		{rperrors.ErrCodeNotFound, http.StatusNotFound},
		{rperrors.ErrCodeConflict, http.StatusConflict},
		{rperrors.ErrCodeMethodNotAllowed, http.StatusMethodNotAllowed},
		{rperrors.ErrCodeRateLimitExceeded, http.StatusTooManyRequests},
		{rperrors.ErrCodeUnavailable, http.StatusServiceUnavailable},
		{rperrors.ErrCodeTimeout, http.StatusGatewayTimeout},
		{rperrors.ErrCodeInternal, http.StatusInternalServerError},
		{rperrors.ErrorCode("SOMETHING_ELSE"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatusFromCode(tt.code))
		})
	}
}

func TestRetryableFromCode(t *testing.T) {
	retryable := []rperrors.ErrorCode{
		rperrors.ErrCodeTimeout, rperrors.ErrCodeUnavailable,
		rperrors.ErrCodeRateLimitExceeded, rperrors.ErrCodeInternal,
	}
	permanent := []rperrors.ErrorCode{
		rperrors.ErrCodeInvalidRequest, rperrors.ErrCodeUnauthorized, rperrors.ErrCodeNotFound,
		rperrors.ErrCodeConflict, rperrors.ErrCodeMethodNotAllowed, "SOMETHING_ELSE",
	}
	for _, c := range retryable {
		assert.True(t, retryableFromCode(c), c)
	}
	for _, c := range permanent {
		assert.False(t, retryableFromCode(c), c)
	}
}

func TestMergeDetails(t *testing.T) {
	assert.Nil(t, mergeDetails(nil, nil))
	assert.Nil(t, mergeDetails(map[string]any{}, map[string]any{}))

	got := mergeDetails(map[string]any{"a": 1, "shared": "old"}, map[string]any{"b": 2, "shared": "new"})
	assert.Equal(t, map[string]any{"a": 1, "b": 2, "shared": "new"}, got)
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestWriteError(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/v1/pods/x", nil)
	req = req.WithContext(context.WithValue(req.Context(), contextKeyRequestID, "req-123"))
	rec := httptest.NewRecorder()

	WriteError(rec, req, http.StatusBadRequest, rperrors.ErrCodeInvalidRequest, "bad request", false,
		map[string]any{"field": "gpuCount"})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeError(t, rec)
	assert.Equal(t, "INVALID_REQUEST", resp.Code)
	assert.Equal(t, "bad request", resp.Message)
	assert.Equal(t, "req-123", resp.RequestID)
	assert.False(t, resp.Retryable)
	assert.Equal(t, "gpuCount", resp.Details["field"])
	assert.False(t, resp.Timestamp.IsZero())
}

func TestWriteError_GeneratesRequestID(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, httptest.NewRequest(http.MethodGet, "/", nil), http.StatusNotFound,
		rperrors.ErrCodeNotFound, "missing", false, nil)
	assert.NotEmpty(t, decodeError(t, rec).RequestID)
}

func TestWriteErrorFromErr_Structured(t *testing.T) {
	rec := httptest.NewRecorder()
	err := rperrors.WrapWithContext(rperrors.ErrCodeUnavailable, "runpod api unavailable",
		errors.New("502 bad gateway"), map[string]any{"operation": "Pods"})

	WriteErrorFromErr(rec, httptest.NewRequest(http.MethodGet, "/", nil), err, "fallback", map[string]any{"extra": "yes"})

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	resp := decodeError(t, rec)
	assert.Equal(t, "SERVICE_UNAVAILABLE", resp.Code)
	assert.Equal(t, "runpod api unavailable", resp.Message)
	assert.True(t, resp.Retryable)
	assert.Equal(t, "Pods", resp.Details["operation"])
	assert.Equal(t, "yes", resp.Details["extra"])
	assert.Equal(t, "502 bad gateway", resp.Details["error"])
}

func TestWriteErrorFromErr_WrappedStructured(t *testing.T) {
	rec := httptest.NewRecorder()
	err := errors.Join(errors.New("context"), rperrors.New(rperrors.ErrCodeNotFound, "pod not found"))

	WriteErrorFromErr(rec, httptest.NewRequest(http.MethodGet, "/", nil), err, "fallback", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	resp := decodeError(t, rec)
	assert.Equal(t, "pod not found", resp.Message)
	assert.Nil(t, resp.Details)
}

func TestWriteErrorFromErr_Plain(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteErrorFromErr(rec, httptest.NewRequest(http.MethodGet, "/", nil), errors.New("boom"), "fallback",
		map[string]any{"x": "y"})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	resp := decodeError(t, rec)
	assert.Equal(t, "INTERNAL_ERROR", resp.Code)
	assert.Equal(t, "fallback", resp.Message)
	assert.True(t, resp.Retryable)
	assert.Equal(t, "y", resp.Details["x"])
	assert.Equal(t, "boom", resp.Details["error"])
}
