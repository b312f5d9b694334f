// Package catalog reads the product catalog from the WordPress REST API and
// serves it through stale-while-revalidate caches.
//
// The upstream API is loosely typed: field names vary between endpoints and
// plugin versions. All field guessing lives in the adapter (ParseProducts,
// ParseCategories); the rest of the service only sees Product and Category.
package catalog
