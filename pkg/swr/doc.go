// Package swr implements a keyed stale-while-revalidate cache for remote data.
//
// A Cache holds the last successful result of an asynchronous fetch per key and
// guarantees that at most one fetch per key is in flight at any time. Every
// caller that asks for a key while its fetch is running attaches to that fetch
// and observes the same result.
//
// # Freshness
//
// Values younger than the stale time (30 minutes by default) are served with
// no network call at all. Older values are served immediately while a single
// background revalidation runs. A failed fetch records the error on the entry
// and keeps the previous value visible (stale-on-error).
//
// # Retries and timeouts
//
// After a failed fetch the cache retries once after the retry interval and then
// stops until a caller asks again after the interval has passed. Each fetch runs
// on a context detached from its callers and bounded by the fetch timeout. When
// every caller waiting on a fetch gives up, the fetch is cancelled.
//
// # Keys
//
// Keys are built from a family and an optional identifier:
//
//	swr.NewKey("categories")                 // "categories"
//	swr.NewKey("products-category").With("7") // "products-category-7"
//
// The zero Key disables the query: Get returns an empty Result and never calls
// the fetch function.
//
// # Usage
//
//	products := swr.New[[]Product](swr.WithLogger(log))
//	defer products.Close()
//
//	res := products.Get(ctx, key, func(ctx context.Context) ([]Product, error) {
//		return client.RandomProducts(ctx)
//	})
//	if res.Err != nil && !res.HasData {
//		return res.Err
//	}
//
// A Store (see NewRedisStore) can be attached as a second level so that
// several processes share fetched values.
package swr
