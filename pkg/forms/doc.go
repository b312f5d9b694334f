// Package forms validates site form submissions and relays them to external
// collaborators.
//
// Four kinds of form exist: contact, callback, quote and order. Each request
// body is decoded into its payload type, sanitized, phone numbers are
// normalized to the canonical +971XXXXXXXXX form and the result is validated
// with go-playground/validator. A valid payload becomes a Submission.
//
// Submissions are delivered to sinks (spreadsheet endpoint, forms API, quote
// endpoint, notification email, S3 archive). Delivery is fire-and-forget from
// the request's point of view and goes through a Dispatcher: the inline
// dispatcher in this package, or a durable queue backed by PostgreSQL.
//
// A filled honeypot field marks the submission as spam; it is acknowledged
// like any other submission but never relayed.
package forms
