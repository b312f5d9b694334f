// Package httpapi is the JSON API consumed by the gifting site.
//
// Catalog reads are served from the stale-while-revalidate caches, form
// submissions are validated and dispatched to the configured sinks, and
// every failure is rendered as an HTTPError envelope carrying the request id.
package httpapi
