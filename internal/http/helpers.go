package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"salonledger/internal/core"
	"salonledger/internal/log"
	"salonledger/internal/services"
)

type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// writeJSON encodes v with the given status. Vietnamese text is written
// unescaped.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

// writeError maps domain errors to status codes and logs server-side
// failures.
func writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	status, errType := classify(err)
	resp := errorResponse{Error: err.Error()}

	var verr *core.ValidationError
	if errors.As(err, &verr) {
		resp.Field = verr.Field
	}

	fields := log.NewFields().WithErrorType(errType)
	if status >= http.StatusInternalServerError {
		log.LogError(r.Context(), "Request failed", err, op, fields)
		resp.Error = publicMessage(err)
	} else {
		log.FromContext(r.Context()).WarnContext(r.Context(), "Request rejected",
			fields.WithError(err).WithOperation(op).ToSlice()...)
	}
	writeJSON(w, status, resp)
}

func classify(err error) (int, string) {
	var (
		ioErr     *core.StoreIOError
		exportErr *core.ExportError
		maxErr    *http.MaxBytesError
		badReq    badRequest
		missing   errExportNotFound
	)
	switch {
	case core.IsValidation(err):
		return http.StatusUnprocessableEntity, log.ErrorTypeValidation
	case core.IsNotFound(err), errors.Is(err, services.ErrStaffNotFound), errors.As(err, &missing):
		return http.StatusNotFound, log.ErrorTypeNotFound
	case errors.Is(err, services.ErrStaffExists):
		return http.StatusConflict, log.ErrorTypeConflict
	case errors.Is(err, errRateLimited):
		return http.StatusTooManyRequests, log.ErrorTypeRateLimit
	case errors.As(err, &maxErr):
		return http.StatusRequestEntityTooLarge, log.ErrorTypeValidation
	case errors.As(err, &badReq):
		return http.StatusBadRequest, log.ErrorTypeValidation
	case errors.Is(err, services.ErrNotConfigured):
		return http.StatusServiceUnavailable, log.ErrorTypeConfiguration
	case errors.As(err, &ioErr):
		return http.StatusInternalServerError, log.ErrorTypeStorage
	case errors.As(err, &exportErr):
		return http.StatusBadGateway, log.ErrorTypeExport
	}
	return http.StatusInternalServerError, log.ErrorTypeInternal
}

// publicMessage hides paths and driver errors from clients.
func publicMessage(err error) string {
	var (
		ioErr     *core.StoreIOError
		exportErr *core.ExportError
	)
	switch {
	case errors.As(err, &ioErr):
		return "storage " + ioErr.Op + " failed"
	case errors.As(err, &exportErr):
		return "export to " + exportErr.Sink + " failed"
	case errors.Is(err, services.ErrNotConfigured):
		return err.Error()
	}
	return "internal error"
}

var errRateLimited = errors.New("too many write requests, retry later")

// badRequest marks malformed requests (as opposed to invalid values).
type badRequest struct {
	msg string
}

func (e badRequest) Error() string { return e.msg }

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
