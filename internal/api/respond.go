package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/hlog"

	"github.com/content-agent/internal/service"
)

// maxBodySize bounds JSON request bodies; drafts with inline images are
// the largest payloads
const maxBodySize = 8 << 20

// ErrorResponse is the WordPress REST error shape
type ErrorResponse struct {
	Code    string    `json:"code"`
	Message string    `json:"message"`
	Data    ErrorData `json:"data"`
}

// ErrorData carries the HTTP status, as WP_Error does
type ErrorData struct {
	Status int `json:"status"`
}

// WriteJSON writes a JSON response with the given status code
func WriteJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

// WriteError writes a WordPress-style error body
func WriteError(w http.ResponseWriter, statusCode int, code, message string) {
	WriteJSON(w, statusCode, ErrorResponse{
		Code:    code,
		Message: message,
		Data:    ErrorData{Status: statusCode},
	})
}

// writeErr maps a service error to its response. Server errors are logged
// and their details are not exposed.
func writeErr(w http.ResponseWriter, r *http.Request, err error) {
	status, code, message := service.StatusOf(err)
	if status >= http.StatusInternalServerError {
		hlog.FromRequest(r).Error().Err(err).Str("code", code).Msg("Request failed")
	} else {
		hlog.FromRequest(r).Debug().Err(err).Str("code", code).Msg("Request rejected")
	}
	WriteError(w, status, code, message)
}

// decode reads a JSON body into dst. An empty body leaves dst unchanged.
func decode(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return service.InvalidParam("invalid JSON body: %v", err)
	}
	return nil
}

// idParam parses the {id} URL parameter
func idParam(r *http.Request) (uint, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, service.InvalidParam("invalid id %q", raw)
	}
	return uint(id), nil
}

// intQuery parses an optional non-negative integer query parameter
func intQuery(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, service.InvalidParam("%s must be a non-negative integer", name)
	}
	return v, nil
}

// page reads limit and offset, capping limit at maxPageSize
func page(r *http.Request) (int, int, error) {
	limit, err := intQuery(r, "limit", defaultPageSize)
	if err != nil {
		return 0, 0, err
	}
	offset, err := intQuery(r, "offset", 0)
	if err != nil {
		return 0, 0, err
	}
	if limit == 0 {
		limit = defaultPageSize
	}
	return min(limit, maxPageSize), offset, nil
}

const (
	defaultPageSize = 50
	maxPageSize     = 100
)
