package catalog

import (
	"fmt"
	"strings"

	"github.com/corporategifts/giftsite/pkg/swr"
)

// Key families. Their string forms are shared with the site front end.
var (
	randomProductsKey   = swr.NewKey("random-products")
	categoriesKey       = swr.NewKey("categories")
	categoryProductsKey = swr.NewKey("products-category")
)

// RandomProductsKey is the key of the featured products query.
func RandomProductsKey() swr.Key { return randomProductsKey }

// CategoriesKey is the key of the category list query.
func CategoriesKey() swr.Key { return categoriesKey }

// CategoryProductsKey is the key of the products-in-category query.
// An empty id returns the zero key, which disables the query.
func CategoryProductsKey(id string) swr.Key { return categoryProductsKey.With(id) }

// ParseKey converts the wire form of a key back into a Key.
func ParseKey(s string) (swr.Key, error) {
	switch {
	case s == randomProductsKey.String():
		return randomProductsKey, nil
	case s == categoriesKey.String():
		return categoriesKey, nil
	case strings.HasPrefix(s, categoryProductsKey.Family()+"-"):
		id := strings.TrimPrefix(s, categoryProductsKey.Family()+"-")
		if id != "" {
			return CategoryProductsKey(id), nil
		}
	}
	return swr.Key{}, fmt.Errorf("catalog: unknown cache key %q", s)
}
