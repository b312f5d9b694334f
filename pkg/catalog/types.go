package catalog

// Default values applied by the adapter when the upstream omits a field.
const (
	DefaultProductName     = "Product"
	DefaultProductImage    = "/api/placeholder/300/300"
	DefaultProductCategory = "Other"
	DefaultRating          = 5.0
)

// Product is a catalog item as exposed to the site.
type Product struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Image       string  `json:"image"`
	Category    string  `json:"category"`
	Description string  `json:"description,omitempty"`
	Price       string  `json:"price,omitempty"`
	Permalink   string  `json:"permalink,omitempty"`
	Rating      float64 `json:"rating"`
	ReviewCount int     `json:"reviewCount"`
}

// Category is a product category.
type Category struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Slug  string `json:"slug,omitempty"`
	Image string `json:"image,omitempty"`
	Count int    `json:"count"`
}
