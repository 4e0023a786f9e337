// Package handlers contains the HTTP handlers of the registry API. All
// responses are JSON; errors carry the application error code alongside a
// human-readable message so clients can branch without parsing text.
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/turtacn/FCM-Registry/internal/domain/substance"
	"github.com/turtacn/FCM-Registry/pkg/errors"
)

// parsePagination extracts page and page_size from query parameters.
func parsePagination(r *http.Request) (int, int) {
	page := 1
	pageSize := 20

	if v := r.URL.Query().Get("page"); v != "" {
		if p, err := strconv.Atoi(v); err == nil && p > 0 {
			page = p
		}
	}
	if v := r.URL.Query().Get("page_size"); v != "" {
		if ps, err := strconv.Atoi(v); err == nil && ps > 0 && ps <= 100 {
			pageSize = ps
		}
	}
	return page, pageSize
}

// ListResponse is the envelope for collection endpoints. Total, Page, and
// PageSize are only set on the paginated listing; count is always the length
// of items.
type ListResponse struct {
	Count    int                 `json:"count"`
	Total    int                 `json:"total,omitempty"`
	Page     int                 `json:"page,omitempty"`
	PageSize int                 `json:"page_size,omitempty"`
	Items    []*substance.Record `json:"items"`
}

// ErrorResponse is the standard error response body. Code is the application
// error code, e.g. "REG_001" for an unknown FCA number.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// writeError writes a structured error response with an explicit status.
func writeError(w http.ResponseWriter, statusCode int, code errors.ErrorCode, message string) {
	writeJSON(w, statusCode, ErrorResponse{
		Code:    code.String(),
		Message: message,
	})
}

// writeAppError maps an application error to its HTTP status. Errors that
// carry no application code are masked as internal so handler bugs never
// leak wrapped driver messages to clients.
func writeAppError(w http.ResponseWriter, err error) {
	code := errors.GetCode(err)
	if code == errors.ErrCodeUnknown || code == errors.ErrCodeOK {
		writeError(w, http.StatusInternalServerError, errors.ErrCodeInternal,
			errors.DefaultMessageForCode(errors.ErrCodeInternal))
		return
	}
	writeError(w, errors.HTTPStatusForCode(code), code, errors.GetMessage(err))
}
