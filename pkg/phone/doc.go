// Package phone canonicalizes and validates UAE phone numbers.
//
// Every number leaves this package in a single wire format: "+971" followed by
// the 9 local subscriber digits. Internally only the local digits are kept, so
// callers may pass either bare local digits ("501234567", "0501234567") or
// prefixed input ("+971 50 123 4567", "00971501234567").
//
// # Usage
//
//	canonical := phone.Normalize(input) // "+971501234567"
//	if err := phone.Validate(input); err != nil {
//		return phone.UserMessage(err)
//	}
//
// Normalize is idempotent, which lets a form field re-apply it on every
// keystroke. Validate never panics; it reports ErrRequired or ErrInvalidFormat.
package phone
