// Package health serves liveness and readiness probes.
//
//	r.Get("/health/live", health.LivenessHandler())
//	r.Get("/health/ready", health.ReadinessHandler(
//		health.Checks{"postgres": db.Healthcheck(pool), "redis": redis.Healthcheck(rdb)},
//		health.WithOptional(health.Checks{"catalog": catalogClient.Healthcheck}),
//		health.WithLogger(log),
//	))
//
// Required checks decide readiness: any failure answers 503. Optional checks
// are reported but only degrade the status; the catalog upstream is optional
// because the cache keeps serving stale data while it is down.
//
// Responses are plain text unless the client asks for JSON with
// Accept: application/json or ?format=json.
package health
