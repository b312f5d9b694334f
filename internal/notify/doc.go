// Package notify renders submission notifications and sends them by email.
//
// Templates are markdown files with a YAML front matter block embedded in the
// binary, one per form kind:
//
//	---
//	Subject: New callback request from {{.Name}}
//	---
//	**Phone:** {{.Phone}}
//
// The subject and body are executed with text/template against the
// submission, the body is converted to HTML with goldmark and wrapped in the
// layout. Delivery goes through a Sender: Resend in production, a logging
// sender when no API key is configured.
package notify
