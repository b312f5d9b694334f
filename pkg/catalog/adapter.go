package catalog

import (
	"math"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"

	"github.com/corporategifts/giftsite/pkg/sanitizer"
)

// productNamespace seeds fallback ids for records that arrive without one.
var productNamespace = uuid.MustParse("6f1c2d0e-8a57-4d0b-9c3e-2f4b7a1e5d90")

// ParseProducts maps an upstream product list to typed records.
// A body that is not a JSON array yields an empty list.
func ParseProducts(raw []byte) []Product {
	list := gjson.ParseBytes(raw)
	if !list.IsArray() {
		return []Product{}
	}

	items := list.Array()
	products := make([]Product, 0, len(items))
	for _, item := range items {
		products = append(products, adaptProduct(item))
	}
	return products
}

// ParseCategories maps an upstream category list to typed records.
// A body that is not a JSON array yields an empty list.
func ParseCategories(raw []byte) []Category {
	list := gjson.ParseBytes(raw)
	if !list.IsArray() {
		return []Category{}
	}

	items := list.Array()
	categories := make([]Category, 0, len(items))
	for _, item := range items {
		categories = append(categories, adaptCategory(item))
	}
	return categories
}

func adaptProduct(obj gjson.Result) Product {
	id := idOf(obj, "id", "ID")
	if id == "" {
		id = uuid.NewSHA1(productNamespace, []byte(obj.Raw)).String()
	}

	return Product{
		ID:          id,
		Name:        text(first(obj, "name", "title"), DefaultProductName),
		Image:       image(first(obj, "image", "thumbnail", "img"), DefaultProductImage),
		Category:    text(first(obj, "category", "cat"), DefaultProductCategory),
		Rating:      number(obj.Get("rating"), DefaultRating),
		ReviewCount: int(number(first(obj, "reviewCount", "reviews"), 0)),
		Description: text(first(obj, "description", "desc"), ""),
		Price:       str(obj.Get("price"), ""),
		Permalink:   str(first(obj, "permalink", "url"), ""),
	}
}

func adaptCategory(obj gjson.Result) Category {
	name := text(first(obj, "name", "title"), "")
	return Category{
		ID:    idOf(obj, "id", "term_id", "ID"),
		Name:  name,
		Slug:  str(obj.Get("slug"), ""),
		Image: image(first(obj, "image", "thumbnail"), ""),
		Count: int(number(obj.Get("count"), 0)),
	}
}

// first returns the first present, non-null field among names.
func first(obj gjson.Result, names ...string) gjson.Result {
	for _, name := range names {
		if v := obj.Get(name); v.Exists() && v.Type != gjson.Null {
			return v
		}
	}
	return gjson.Result{}
}

func idOf(obj gjson.Result, names ...string) string {
	v := first(obj, names...)
	switch v.Type {
	case gjson.Number:
		return strconv.FormatFloat(v.Float(), 'f', -1, 64)
	case gjson.String:
		return v.Str
	}
	return ""
}

// str accepts only non-empty strings.
func str(v gjson.Result, fallback string) string {
	if v.Type == gjson.String && v.Str != "" {
		return v.Str
	}
	return fallback
}

// image accepts a URL string or a WooCommerce image object with a src.
func image(v gjson.Result, fallback string) string {
	if v.IsObject() {
		v = v.Get("src")
	}
	return str(v, fallback)
}

// text is str with markup removed.
func text(v gjson.Result, fallback string) string {
	if s := sanitizer.PlainText(str(v, "")); s != "" {
		return s
	}
	return fallback
}

// number accepts JSON numbers and numeric strings.
func number(v gjson.Result, fallback float64) float64 {
	switch v.Type {
	case gjson.Number:
		return v.Num
	case gjson.String:
		if n, err := strconv.ParseFloat(strings.TrimSpace(v.Str), 64); err == nil && !math.IsNaN(n) && !math.IsInf(n, 0) {
			return n
		}
	}
	return fallback
}
