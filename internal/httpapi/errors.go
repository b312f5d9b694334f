package httpapi

import (
	"context"
	"errors"
	"net/http"

	"github.com/corporategifts/giftsite/middlewares"
	"github.com/corporategifts/giftsite/pkg/forms"
)

// HTTPError is an error with everything needed to render it as JSON.
type HTTPError struct {
	// Err is the underlying error, logged but never rendered.
	Err error `json:"-"`

	Fields    map[string]string `json:"fields,omitempty"`
	Message   string            `json:"message"`
	Detail    string            `json:"detail,omitempty"`
	ErrorCode string            `json:"error_code,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
	Code      int               `json:"code"`
}

func (e *HTTPError) Error() string {
	return e.Message
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}

// HTTPErrorOption configures an HTTPError.
type HTTPErrorOption func(*HTTPError)

// NewHTTPError creates an HTTPError with the given status code and message.
func NewHTTPError(code int, message string, opts ...HTTPErrorOption) *HTTPError {
	e := &HTTPError{Code: code, Message: message}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func WithDetail(detail string) HTTPErrorOption {
	return func(e *HTTPError) {
		e.Detail = detail
	}
}

func WithErrorCode(code string) HTTPErrorOption {
	return func(e *HTTPError) {
		e.ErrorCode = code
	}
}

func WithFields(fields map[string]string) HTTPErrorOption {
	return func(e *HTTPError) {
		e.Fields = fields
	}
}

func WithError(err error) HTTPErrorOption {
	return func(e *HTTPError) {
		e.Err = err
	}
}

func ErrBadRequest(message string, opts ...HTTPErrorOption) *HTTPError {
	return NewHTTPError(http.StatusBadRequest, message, opts...)
}

func ErrUnauthorized(message string, opts ...HTTPErrorOption) *HTTPError {
	return NewHTTPError(http.StatusUnauthorized, message, opts...)
}

func ErrNotFound(message string, opts ...HTTPErrorOption) *HTTPError {
	return NewHTTPError(http.StatusNotFound, message, opts...)
}

func ErrUnprocessable(message string, opts ...HTTPErrorOption) *HTTPError {
	return NewHTTPError(http.StatusUnprocessableEntity, message, opts...)
}

func ErrServiceUnavailable(message string, opts ...HTTPErrorOption) *HTTPError {
	return NewHTTPError(http.StatusServiceUnavailable, message, opts...)
}

func ErrInternal(message string, opts ...HTTPErrorOption) *HTTPError {
	return NewHTTPError(http.StatusInternalServerError, message, opts...)
}

// toHTTPError maps domain errors onto statuses. Unknown errors become 500
// with a generic message; the cause is kept for logging only.
func toHTTPError(err error) *HTTPError {
	var he *HTTPError
	if errors.As(err, &he) {
		return he
	}

	if ve, ok := forms.AsValidationError(err); ok {
		return ErrUnprocessable("Please correct the highlighted fields",
			WithFields(ve.Fields), WithErrorCode("validation_failed"), WithError(err))
	}

	var maxBytes *http.MaxBytesError
	switch {
	case errors.Is(err, forms.ErrBodyTooLarge), errors.As(err, &maxBytes):
		return NewHTTPError(http.StatusRequestEntityTooLarge, "Request body too large",
			WithErrorCode("body_too_large"), WithError(err))
	case errors.Is(err, forms.ErrMalformedBody):
		return ErrBadRequest("Malformed JSON body", WithErrorCode("malformed_body"), WithError(err))
	case errors.Is(err, forms.ErrUnknownKind):
		return ErrNotFound("Unknown form", WithErrorCode("unknown_form"), WithError(err))
	case middlewares.IsTimeoutError(err), errors.Is(err, context.DeadlineExceeded):
		return NewHTTPError(http.StatusGatewayTimeout, "Request timed out", WithError(err))
	}

	return ErrInternal("Internal Server Error", WithError(err))
}
