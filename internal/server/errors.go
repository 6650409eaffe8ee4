package server

import (
	"errors"
	"log/slog"
	"net/http"
)

// HTTPError is an error that knows its response status.
type HTTPError interface {
	error
	StatusCode() int
}

// StatusError attaches an HTTP status to an error.
type StatusError struct {
	Code int
	Err  error
}

func (e StatusError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return http.StatusText(e.Code)
}

func (e StatusError) Unwrap() error { return e.Err }

func (e StatusError) StatusCode() int {
	if e.Code <= 0 {
		return http.StatusInternalServerError
	}
	return e.Code
}

var (
	errSessionNotFound  = StatusError{Code: http.StatusNotFound, Err: errors.New("session not found")}
	errFieldUnavailable = StatusError{Code: http.StatusConflict, Err: errors.New("field form is not editable")}
)

func badRequest(err error) error {
	return StatusError{Code: http.StatusBadRequest, Err: err}
}

// handlerFunc is an http handler that reports failures instead of writing
// them.
type handlerFunc func(w http.ResponseWriter, r *http.Request) error

func writeError(w http.ResponseWriter, logger *slog.Logger, r *http.Request, err error) {
	code := http.StatusInternalServerError
	var httpErr HTTPError
	if errors.As(err, &httpErr) && httpErr != nil {
		code = httpErr.StatusCode()
	}
	if code >= http.StatusInternalServerError {
		logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "err", err)
		http.Error(w, http.StatusText(code), code)
		return
	}
	http.Error(w, err.Error(), code)
}
