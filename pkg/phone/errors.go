package phone

import "errors"

// Sentinel validation errors. Their messages are stable and safe to render.
var (
	ErrRequired      = errors.New("required")
	ErrInvalidFormat = errors.New("invalid format")
)

// UserMessage converts a Validate error into the copy shown next to a form field.
// Unknown errors fall back to the generic invalid-number message.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrRequired):
		return "Phone number is required"
	default:
		return "Please enter a valid UAE phone number"
	}
}
