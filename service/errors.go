package service

import (
	"errors"
	"fmt"
)

// UnavailableError reports that the service could not be reached or did not answer with 2xx.
type UnavailableError struct {
	URL    string
	Status int
	Body   string
	Err    error
}

func (e *UnavailableError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("service unavailable at %v: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("service unavailable at %v: status %d %s", e.URL, e.Status, e.Body)
}

func (e *UnavailableError) Unwrap() error { return e.Err }

// APIError reports an envelope whose code is not 200.
type APIError struct {
	Endpoint string
	Code     int
	Msg      string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("service %v returned code %d: %v", e.Endpoint, e.Code, e.Msg)
}

// IsUnavailable reports whether err means the service is down.
func IsUnavailable(err error) bool {
	var unavailable *UnavailableError
	return errors.As(err, &unavailable)
}
