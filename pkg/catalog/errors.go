package catalog

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidJSON     = errors.New("catalog: invalid JSON")
	ErrBodyTooLarge    = errors.New("catalog: response body too large")
	ErrEmptyCategoryID = errors.New("catalog: empty category id")
	ErrRequestFailed   = errors.New("catalog: request failed")
)

// APIError is a non-2xx answer from the catalog API.
type APIError struct {
	Message string
	Status  int
}

func (e *APIError) Error() string {
	return fmt.Sprintf("fetch error %d: %s", e.Status, e.Message)
}

// AsAPIError extracts an APIError from err if present.
func AsAPIError(err error) (*APIError, bool) {
	var ae *APIError
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}
