package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/corporategifts/giftsite/pkg/sanitizer"
)

const (
	// DefaultBaseURL is the production WordPress custom REST namespace.
	DefaultBaseURL = "https://corporategiftsdubaii.ae/wp-json/custom/v1"

	maxBodySize       = 10 << 20
	maxMessageRunes   = 300
	categoryPathParam = "{id}"
)

// Endpoints are paths relative to the base URL. ProductsByCategory must contain {id}.
type Endpoints struct {
	RandomProducts     string
	Categories         string
	ProductsByCategory string
}

// DefaultEndpoints returns the paths served by the custom WordPress plugin.
func DefaultEndpoints() Endpoints {
	return Endpoints{
		RandomProducts:     "/random-products",
		Categories:         "/categories",
		ProductsByCategory: "/products-by-category/{id}",
	}
}

// Client calls the catalog API.
type Client struct {
	http      *http.Client
	logger    *slog.Logger
	baseURL   string
	endpoints Endpoints
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithEndpoints overrides the endpoint paths. Empty fields keep their defaults.
func WithEndpoints(e Endpoints) ClientOption {
	return func(c *Client) {
		if e.RandomProducts != "" {
			c.endpoints.RandomProducts = e.RandomProducts
		}
		if e.Categories != "" {
			c.endpoints.Categories = e.Categories
		}
		if e.ProductsByCategory != "" {
			c.endpoints.ProductsByCategory = e.ProductsByCategory
		}
	}
}

// WithClientLogger sets the logger used for request tracing.
func WithClientLogger(l *slog.Logger) ClientOption {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewClient creates a catalog API client. An empty baseURL selects DefaultBaseURL.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	c := &Client{
		http:      &http.Client{Timeout: 30 * time.Second},
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		baseURL:   strings.TrimRight(baseURL, "/"),
		endpoints: DefaultEndpoints(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// RandomProducts lists the products featured on the home page.
func (c *Client) RandomProducts(ctx context.Context) ([]Product, error) {
	raw, err := c.getJSON(ctx, c.endpoints.RandomProducts)
	if err != nil {
		return nil, err
	}
	return ParseProducts(raw), nil
}

// Categories lists product categories.
func (c *Client) Categories(ctx context.Context) ([]Category, error) {
	raw, err := c.getJSON(ctx, c.endpoints.Categories)
	if err != nil {
		return nil, err
	}
	return ParseCategories(raw), nil
}

// ProductsByCategory lists products of one category, by numeric id or slug.
func (c *Client) ProductsByCategory(ctx context.Context, categoryID string) ([]Product, error) {
	if categoryID == "" {
		return nil, ErrEmptyCategoryID
	}

	path := strings.ReplaceAll(c.endpoints.ProductsByCategory, categoryPathParam, url.PathEscape(categoryID))
	raw, err := c.getJSON(ctx, path)
	if err != nil {
		return nil, err
	}
	return ParseProducts(raw), nil
}

// Healthcheck returns a probe that succeeds when the categories endpoint answers.
func (c *Client) Healthcheck() func(context.Context) error {
	return func(ctx context.Context) error {
		_, err := c.getJSON(ctx, c.endpoints.Categories)
		return err
	}
}

func (c *Client) getJSON(ctx context.Context, path string) ([]byte, error) {
	target := c.baseURL + path

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("catalog: create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	started := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Join(ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize+1))
	if err != nil {
		return nil, fmt.Errorf("catalog: read body from %s: %w", target, err)
	}

	c.logger.DebugContext(ctx, "catalog request",
		slog.String("url", target),
		slog.Int("status", resp.StatusCode),
		slog.Duration("took", time.Since(started)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{Status: resp.StatusCode, Message: errorMessage(body, resp.StatusCode)}
	}
	if len(body) > maxBodySize {
		return nil, fmt.Errorf("%w: exceeds %d bytes from %s", ErrBodyTooLarge, maxBodySize, target)
	}
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("%w from %s", ErrInvalidJSON, target)
	}
	return body, nil
}

// errorMessage picks the JSON message or error field, else the raw body,
// else the HTTP status text.
func errorMessage(body []byte, status int) string {
	if gjson.ValidBytes(body) {
		doc := gjson.ParseBytes(body)
		for _, field := range []string{"message", "error"} {
			if v := doc.Get(field); v.Type == gjson.String && strings.TrimSpace(v.Str) != "" {
				return clip(v.Str)
			}
		}
	}

	if text := sanitizer.PlainText(string(body)); text != "" {
		return clip(text)
	}
	return http.StatusText(status)
}

func clip(s string) string {
	r := []rune(s)
	if len(r) <= maxMessageRunes {
		return s
	}
	return string(r[:maxMessageRunes]) + "…"
}
