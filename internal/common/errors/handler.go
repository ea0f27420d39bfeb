package errors

import (
	"encoding/json"
	"net/http"
	"time"
)

type Logger interface {
	Error(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
}

// ErrorHandler turns pipeline errors into HTTP responses.
type ErrorHandler struct {
	logger Logger
}

func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// Normalize ensures we always have a StandardError.
func Normalize(err error) *StandardError {
	if stdErr, ok := As(err); ok {
		return stdErr
	}
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   "Unexpected error",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// HTTPStatus maps an error code onto a response status.
func HTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeConfiguration, ErrCodeInvalidFilterFormat, ErrCodeInvalidSortField:
		return http.StatusBadRequest
	case ErrCodeProvider:
		return http.StatusBadGateway
	case ErrCodeFetchSuperseded:
		return http.StatusConflict
	case ErrCodeCacheUnavailable, ErrCodeStatePersistence:
		return http.StatusServiceUnavailable
	case ErrCodeEmptyResult:
		return http.StatusOK
	}
	return http.StatusInternalServerError
}

// GetErrorCategory groups codes for logging.
func GetErrorCategory(code ErrorCode) string {
	switch code {
	case ErrCodeConfiguration, ErrCodeInvalidFilterFormat, ErrCodeInvalidSortField:
		return "VALIDATION"
	case ErrCodeProvider:
		return "UPSTREAM"
	case ErrCodeCacheCorruption, ErrCodeCacheUnavailable, ErrCodeStatePersistence:
		return "STORAGE"
	case ErrCodeEmptyResult, ErrCodeFetchSuperseded:
		return "INFORMATIONAL"
	}
	return "INTERNAL"
}

// WriteError logs err and writes it as a JSON body.
func (h *ErrorHandler) WriteError(w http.ResponseWriter, r *http.Request, err error) {
	stdErr := Normalize(err)
	status := HTTPStatus(stdErr.Code)

	fields := map[string]interface{}{
		"path":          r.URL.Path,
		"errorCode":     string(stdErr.Code),
		"message":       stdErr.Message,
		"details":       stdErr.Details,
		"errorCategory": GetErrorCategory(stdErr.Code),
		"status":        status,
	}
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", fields)
	} else {
		h.logger.Info("request rejected", fields)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{"error": stdErr})
}
