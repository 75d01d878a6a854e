// Package httputil holds the JSON request/response plumbing shared by all
// HTTP handlers: decoding with normalization and validation, success
// writing, and the single mapping from domain error codes to statuses.
package httputil

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	dErrors "registrar/pkg/domain-errors"
)

// Validatable is implemented by request models that check themselves after
// decoding. Validation order follows Size -> Required -> Syntax -> Semantic.
type Validatable interface {
	Validate() error
}

// Normalizer is implemented by request models that clean their fields
// (trimming, case folding) before validation.
type Normalizer interface {
	Normalize()
}

// DecodeAndPrepare decodes the JSON request body into T, normalizes it if
// the model supports it, and validates it. On any failure it writes the
// error response, logs at warn level, and returns ok=false; the handler
// just returns.
func DecodeAndPrepare[T any](w http.ResponseWriter, r *http.Request, logger *slog.Logger, ctx context.Context, requestID string) (*T, bool) {
	var req T
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "failed to decode request body",
			"request_id", requestID,
			"path", r.URL.Path,
			"error", err,
		)
		WriteError(w, dErrors.New(dErrors.CodeBadRequest, "request body must be valid JSON"))
		return nil, false
	}

	if n, ok := any(&req).(Normalizer); ok {
		n.Normalize()
	}
	if v, ok := any(&req).(Validatable); ok {
		if err := v.Validate(); err != nil {
			logger.WarnContext(ctx, "request validation failed",
				"request_id", requestID,
				"path", r.URL.Path,
				"error", err,
			)
			WriteError(w, err)
			return nil, false
		}
	}
	return &req, true
}

// WriteJSON writes v as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	// The status line is already out; a failed encode can only be noted by
	// the caller's logging of the underlying connection error.
	_ = json.NewEncoder(w).Encode(v)
}

// errorResponse is the wire shape of every error the service returns.
type errorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

// WriteError maps a domain error to its HTTP response. Internal and
// invariant failures omit the description so server detail never reaches a
// client; everything else carries the message the service chose.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)

	var description string
	switch code {
	case dErrors.CodeInternal, dErrors.CodeInvariantViolation:
		// omitted
	default:
		description = err.Error()
	}

	WriteJSON(w, statusFor(code), errorResponse{
		Error:            string(code),
		ErrorDescription: description,
	})
}

func statusFor(code dErrors.Code) int {
	switch code {
	case dErrors.CodeBadRequest, dErrors.CodeInvalidInput, dErrors.CodeValidation:
		return http.StatusBadRequest
	case dErrors.CodeNotFound:
		return http.StatusNotFound
	case dErrors.CodeConflict:
		return http.StatusConflict
	case dErrors.CodeTimeout:
		return http.StatusGatewayTimeout
	case dErrors.CodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
