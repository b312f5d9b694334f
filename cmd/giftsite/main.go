// Command giftsite serves the storefront API: cached catalog reads, phone
// checks and form intake.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/corporategifts/giftsite/internal/config"
	"github.com/corporategifts/giftsite/internal/httpapi"
	"github.com/corporategifts/giftsite/internal/metrics"
	"github.com/corporategifts/giftsite/internal/server"
	"github.com/corporategifts/giftsite/middlewares"
	"github.com/corporategifts/giftsite/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "giftsite:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log, flush, err := logger.New(cfg.Log, os.Stdout, middlewares.RequestIDExtractor())
	if err != nil {
		return err
	}
	defer flush()
	slog.SetDefault(log)

	m := metrics.New()
	app, err := build(ctx, cfg, log, m)
	if err != nil {
		log.Error("startup failed", slog.Any("error", err))
		_ = app.release(context.Background())
		return err
	}

	api := httpapi.New(cfg.HTTP, httpapi.Deps{
		Catalog:    app.catalog,
		Intake:     app.intake,
		Dispatcher: app.dispatcher,
		Recorder:   m,
		Logger:     log,
		Metrics:    m.Handler(),
		Instrument: m.Middleware,
		Ready:      app.ready,
		Optional:   app.optional,
	})

	opts := []server.Option{
		server.Address(cfg.HTTP.Addr),
		server.Logger(log),
		server.ShutdownTimeout(cfg.HTTP.ShutdownTimeout),
	}
	opts = append(opts, app.hooks()...)

	return server.Run(ctx, api.Handler(), opts...)
}
