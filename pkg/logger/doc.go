// Package logger builds the process-wide slog.Logger.
//
// Output is JSON in production and colorized text (tint) during development.
// Context extractors add request-scoped attributes, such as the request ID,
// to every record logged with a context. When a Sentry DSN is configured,
// records at warn level and above are also forwarded to Sentry; errors become
// Sentry issues.
//
//	log, flush, err := logger.New(logger.Config{Level: "debug", Format: "text"}, os.Stdout,
//		middlewares.RequestIDExtractor(),
//	)
//	if err != nil {
//		return err
//	}
//	defer flush()
package logger
