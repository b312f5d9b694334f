// Package redis opens the shared go-redis client.
//
// The client backs the second cache tier of the catalog cache. Startup pings
// the server with a linear backoff so the service survives Redis coming up a
// little later than the app in compose environments.
//
//	rdb, err := redis.Open(ctx, redis.Config{URL: "redis://localhost:6379/0"})
//	if err != nil {
//		return err
//	}
//	defer rdb.Close()
package redis
