package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/corporategifts/giftsite/pkg/swr"
)

// Source is the upstream the service reads from. *Client implements it.
type Source interface {
	RandomProducts(ctx context.Context) ([]Product, error)
	Categories(ctx context.Context) ([]Category, error)
	ProductsByCategory(ctx context.Context, categoryID string) ([]Product, error)
}

// Service answers catalog queries from injected caches.
type Service struct {
	source     Source
	products   *swr.Cache[[]Product]
	categories *swr.Cache[[]Category]
	logger     *slog.Logger
}

// NewService wires source to the two caches. The caches are owned by the caller.
func NewService(source Source, products *swr.Cache[[]Product], categories *swr.Cache[[]Category], logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{
		source:     source,
		products:   products,
		categories: categories,
		logger:     logger,
	}
}

// RandomProducts returns the featured products.
func (s *Service) RandomProducts(ctx context.Context) swr.Result[[]Product] {
	return s.products.Get(ctx, RandomProductsKey(), s.source.RandomProducts)
}

// Categories returns the category list.
func (s *Service) Categories(ctx context.Context) swr.Result[[]Category] {
	return s.categories.Get(ctx, CategoriesKey(), s.source.Categories)
}

// ProductsByCategory returns the products of one category. An empty id is a
// disabled query and returns an empty Result.
func (s *Service) ProductsByCategory(ctx context.Context, categoryID string) swr.Result[[]Product] {
	return s.products.Get(ctx, CategoryProductsKey(categoryID), s.byCategory(categoryID))
}

// Refresh fetches key again, keeping the previous value if the fetch fails.
func (s *Service) Refresh(ctx context.Context, key swr.Key) error {
	var err error
	switch key.Family() {
	case RandomProductsKey().Family():
		err = s.products.Revalidate(ctx, key, s.source.RandomProducts).Err
	case CategoriesKey().Family():
		err = s.categories.Revalidate(ctx, key, s.source.Categories).Err
	case categoryProductsKey.Family():
		err = s.products.Revalidate(ctx, key, s.byCategory(key.ID())).Err
	default:
		return fmt.Errorf("catalog: cannot refresh key %q", key.String())
	}
	return err
}

// Invalidate drops key from whichever cache holds it.
func (s *Service) Invalidate(ctx context.Context, key swr.Key) {
	if key.Family() == CategoriesKey().Family() {
		s.categories.Invalidate(ctx, key)
		return
	}
	s.products.Invalidate(ctx, key)
}

// InvalidateAll drops every cached catalog entry.
func (s *Service) InvalidateAll(ctx context.Context) int {
	n := 0
	for _, key := range s.products.Keys() {
		s.products.Invalidate(ctx, key)
		n++
	}
	for _, key := range s.categories.Keys() {
		s.categories.Invalidate(ctx, key)
		n++
	}
	return n
}

// Warm refreshes the featured products and the category list concurrently.
func (s *Service) Warm(ctx context.Context) error {
	var g errgroup.Group
	errs := make([]error, 2)

	g.Go(func() error {
		errs[0] = s.Refresh(ctx, RandomProductsKey())
		return nil
	})
	g.Go(func() error {
		errs[1] = s.Refresh(ctx, CategoriesKey())
		return nil
	})
	_ = g.Wait()

	err := errors.Join(errs...)
	if err != nil {
		s.logger.WarnContext(ctx, "catalog warmup incomplete", slog.Any("error", err))
	}
	return err
}

func (s *Service) byCategory(categoryID string) swr.Fetcher[[]Product] {
	return func(ctx context.Context) ([]Product, error) {
		return s.source.ProductsByCategory(ctx, categoryID)
	}
}
