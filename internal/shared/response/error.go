package response

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"colony-server/internal/shared/errors"
)

// ErrorResponse represents the JSON error response sent to clients
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
	// RetryAfterMs is set for rate limited errors such as a cooling drone.
	RetryAfterMs int64 `json:"retry_after_ms,omitempty"`
}

// Error logs err and sends it as a JSON error response. Handlers and
// middleware never log request errors themselves.
func Error(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	errorType := errors.GetType(err)
	statusCode := errorType.StatusCode()

	logError(logger, r, err, errorType, statusCode)

	resp := ErrorResponse{
		Error:   string(errorType),
		Message: err.Error(),
		Code:    statusCode,
	}

	w.Header().Set("Content-Type", "application/json")
	if errorType == errors.ErrorTypeRateLimited {
		wait := errors.RetryAfter(err)
		resp.RetryAfterMs = wait.Milliseconds()
		w.Header().Set("Retry-After", retryAfterSeconds(wait))
	}
	w.WriteHeader(statusCode)

	// The status line is already out; an encode failure cannot be reported.
	_ = json.NewEncoder(w).Encode(resp)
}

// retryAfterSeconds rounds up to whole seconds with a minimum of one.
func retryAfterSeconds(d time.Duration) string {
	secs := int64((d + time.Second - 1) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return strconv.FormatInt(secs, 10)
}

func logError(logger *slog.Logger, r *http.Request, err error, errorType errors.ErrorType, statusCode int) {
	logCtx := logger.With(
		"method", r.Method,
		"path", r.URL.Path,
		"remote_addr", r.RemoteAddr,
		"error_type", errorType,
		"status_code", statusCode,
	)

	switch errorType {
	case errors.ErrorTypeNotFound, errors.ErrorTypeValidation, errors.ErrorTypeMethodNotAllowed:
		logCtx.Debug("Request rejected", "error", err)
	case errors.ErrorTypeConflict, errors.ErrorTypeRateLimited:
		// Rejected builds and early launches are part of normal play.
		logCtx.Info("Colony action rejected", "error", err)
	case errors.ErrorTypeUnauthorized, errors.ErrorTypeForbidden:
		logCtx.Warn("Colony access denied", "error", err)
	case errors.ErrorTypeExternal:
		logCtx.Error("Service unavailable", "error", err)
	default:
		logCtx.Error("Internal server error", "error", err)
	}
}

// Success sends data as JSON with the given status.
func Success(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}
