package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	rperrors "github.com/gpuctl/rpctl/pkg/errors"
	"github.com/gpuctl/rpctl/pkg/serializer"
)

// HTTPStatusFromCode maps an error code to its HTTP status.
func HTTPStatusFromCode(code rperrors.ErrorCode) int {
	switch code {
	case rperrors.ErrCodeInvalidRequest:
		return http.StatusBadRequest
	case rperrors.ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case rperrors.ErrCodeNotFound:
		return http.StatusNotFound
	case rperrors.ErrCodeConflict:
		return http.StatusConflict
	case rperrors.ErrCodeMethodNotAllowed:
		return http.StatusMethodNotAllowed
	case rperrors.ErrCodeRateLimitExceeded:
		return http.StatusTooManyRequests
	case rperrors.ErrCodeUnavailable:
		return http.StatusServiceUnavailable
	case rperrors.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func retryableFromCode(code rperrors.ErrorCode) bool {
	switch code {
	case rperrors.ErrCodeTimeout, rperrors.ErrCodeUnavailable,
		rperrors.ErrCodeRateLimitExceeded, rperrors.ErrCodeInternal:
		return true
	default:
		return false
	}
}

// mergeDetails returns the union of a and b, b winning on conflicts, or nil
// when both are empty.
func mergeDetails(a, b map[string]any) map[string]any {
	if len(a) == 0 && len(b) == 0 {
		return nil
	}
	out := make(map[string]any, len(a)+len(b))
	for k, v := range a {
		out[k] = v
	}
	for k, v := range b {
		out[k] = v
	}
	return out
}

// RequestIDFromContext returns the request ID assigned by the middleware.
func RequestIDFromContext(r *http.Request) string {
	id, _ := r.Context().Value(contextKeyRequestID).(string)
	return id
}

// WriteError writes an ErrorResponse.
func WriteError(w http.ResponseWriter, r *http.Request, statusCode int,
	code rperrors.ErrorCode, message string, retryable bool, details map[string]any) {

	requestID := RequestIDFromContext(r)
	if requestID == "" {
		requestID = uuid.New().String()
	}

	serializer.RespondJSON(w, statusCode, ErrorResponse{
		Code:      string(code),
		Message:   message,
		Details:   details,
		RequestID: requestID,
		Timestamp: time.Now().UTC(),
		Retryable: retryable,
	})
}

// WriteErrorFromErr writes err as an ErrorResponse. Structured errors keep
// their code, message and context; anything else becomes INTERNAL_ERROR with
// fallbackMessage.
func WriteErrorFromErr(w http.ResponseWriter, r *http.Request, err error, fallbackMessage string, extra map[string]any) {
	var se *rperrors.StructuredError
	if errors.As(err, &se) {
		details := mergeDetails(se.Context, extra)
		if se.Cause != nil {
			details = mergeDetails(details, map[string]any{"error": se.Cause.Error()})
		}
		WriteError(w, r, HTTPStatusFromCode(se.Code), se.Code, se.Message, retryableFromCode(se.Code), details)
		return
	}

	details := mergeDetails(extra, map[string]any{"error": err.Error()})
	WriteError(w, r, http.StatusInternalServerError, rperrors.ErrCodeInternal, fallbackMessage,
		retryableFromCode(rperrors.ErrCodeInternal), details)
}
