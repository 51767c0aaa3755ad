package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"finance/internal/core"
	"finance/internal/log"
)

// errorResponse is the body of every non-2xx API response.
type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
	Field string `json:"field,omitempty"`
}

// requestError is a malformed request rejected before reaching the ledger.
type requestError struct {
	msg string
}

func (e *requestError) Error() string { return e.msg }

func badRequest(msg string) error { return &requestError{msg: msg} }

// writeJSON encodes v with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(true)
	_ = enc.Encode(v)
}

// statusFor maps an error to its HTTP status and kind label.
func statusFor(err error) (int, string) {
	var reqErr *requestError
	switch {
	case errors.As(err, &reqErr):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, core.ErrValidation):
		return http.StatusUnprocessableEntity, log.ErrorTypeValidation
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound, log.ErrorTypeNotFound
	case errors.Is(err, core.ErrPersistence):
		return http.StatusServiceUnavailable, log.ErrorTypePersistence
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "timeout"
	default:
		return http.StatusInternalServerError, log.ErrorTypeInternal
	}
}

// writeError renders err. Details of server-side failures are logged, not
// returned.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, kind := statusFor(err)
	resp := errorResponse{Error: err.Error(), Kind: kind}

	var ve *core.ValidationError
	if errors.As(err, &ve) {
		resp.Field = ve.Field
	}

	if status >= http.StatusInternalServerError {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed",
			log.FieldError, err,
			log.FieldErrorType, kind,
			log.FieldPath, r.URL.Path)
		switch status {
		case http.StatusServiceUnavailable:
			resp.Error = "ledger storage unavailable"
		case http.StatusGatewayTimeout:
			resp.Error = "request timed out"
		default:
			resp.Error = "internal error"
		}
	}
	writeJSON(w, status, resp)
}
