package server

import (
	"errors"
	"net/http"
)

// apiError carries the HTTP status a service-layer failure maps to.
// The wire format is plain text bodies, so no envelope is needed.
type apiError struct {
	status int
	err    error
}

func (e apiError) Error() string {
	if e.err == nil {
		return http.StatusText(e.status)
	}
	return e.err.Error()
}

func (e apiError) Unwrap() error {
	return e.err
}

func makeAPIError(status int, err error) error {
	if err == nil {
		err = errors.New(http.StatusText(status))
	}

	var existing apiError
	if errors.As(err, &existing) {
		if existing.status != 0 {
			return existing
		}
	}

	return apiError{status: status, err: err}
}

// emptyUpload rejects a zero-length body before any ID is allocated.
func emptyUpload(err error) error {
	return makeAPIError(http.StatusUnprocessableEntity, err)
}

func badRequest(err error) error {
	return makeAPIError(http.StatusBadRequest, err)
}

func notFound(err error) error {
	return makeAPIError(http.StatusNotFound, err)
}

func internalError(err error) error {
	return makeAPIError(http.StatusInternalServerError, err)
}

func httpStatusFromError(err error) int {
	var apiErr apiError
	if errors.As(err, &apiErr) {
		return apiErr.status
	}
	return http.StatusInternalServerError
}
