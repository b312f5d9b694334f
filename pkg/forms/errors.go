package forms

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
)

var (
	ErrUnknownKind   = errors.New("forms: unknown form kind")
	ErrMalformedBody = errors.New("forms: malformed request body")
	ErrUnknownSink   = errors.New("forms: unknown sink")
	ErrDelivery      = errors.New("forms: delivery failed")
	ErrArchiveWrite  = errors.New("forms: archive write failed")
	ErrBodyTooLarge  = errors.New("forms: request body too large")
)

// ValidationError lists per-field messages keyed by JSON field name.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := slices.Sorted(maps.Keys(e.Fields))
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "forms: invalid submission (" + strings.Join(parts, "; ") + ")"
}

// AsValidationError extracts a ValidationError from err if present.
func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

// DeliveryError is a non-2xx answer from a sink endpoint.
type DeliveryError struct {
	Sink   string
	Body   string
	Status int
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("forms: %s responded %d: %s", e.Sink, e.Status, e.Body)
}

func (e *DeliveryError) Unwrap() error {
	return ErrDelivery
}
