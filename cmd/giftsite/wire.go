package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"net/http"

	"github.com/corporategifts/giftsite/internal/config"
	"github.com/corporategifts/giftsite/internal/metrics"
	"github.com/corporategifts/giftsite/internal/notify"
	"github.com/corporategifts/giftsite/internal/queue"
	"github.com/corporategifts/giftsite/internal/scheduler"
	"github.com/corporategifts/giftsite/internal/server"
	"github.com/corporategifts/giftsite/internal/store"
	"github.com/corporategifts/giftsite/pkg/catalog"
	"github.com/corporategifts/giftsite/pkg/db"
	"github.com/corporategifts/giftsite/pkg/forms"
	"github.com/corporategifts/giftsite/pkg/health"
	"github.com/corporategifts/giftsite/pkg/httpclient"
	"github.com/corporategifts/giftsite/pkg/redis"
	"github.com/corporategifts/giftsite/pkg/storage"
	"github.com/corporategifts/giftsite/pkg/swr"
)

const warmTask = "catalog-warm"

// components is everything run needs from build.
type components struct {
	log        *slog.Logger
	catalog    *catalog.Service
	intake     *forms.Intake
	dispatcher forms.Dispatcher
	ready      health.Checks
	optional   health.Checks

	startup []server.Hook
	closers []closer
}

type closer struct {
	name string
	fn   server.Hook
}

// onStart registers a step run before the listener opens.
func (c *components) onStart(fn server.Hook) {
	c.startup = append(c.startup, fn)
}

// onClose registers a release step. Steps run in reverse registration order.
func (c *components) onClose(name string, fn server.Hook) {
	c.closers = append(c.closers, closer{name: name, fn: fn})
}

func (c *components) release(ctx context.Context) error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		cl := c.closers[i]
		if err := cl.fn(ctx); err != nil {
			c.log.Error("release failed", slog.String("component", cl.name), slog.Any("error", err))
			errs = append(errs, fmt.Errorf("%s: %w", cl.name, err))
		}
	}
	c.closers = nil
	return errors.Join(errs...)
}

func (c *components) hooks() []server.Option {
	opts := make([]server.Option, 0, len(c.startup)+1)
	for _, fn := range c.startup {
		opts = append(opts, server.OnStartup(fn))
	}
	return append(opts, server.OnShutdown(c.release))
}

// build opens every backing service cfg enables. On error the returned
// components still hold the closers for what was opened.
func build(ctx context.Context, cfg *config.Config, log *slog.Logger, m *metrics.Metrics) (*components, error) {
	c := &components{
		log:      log,
		ready:    health.Checks{},
		optional: health.Checks{},
	}
	hc := httpclient.New(cfg.HTTPClient)

	cacheOpts := []swr.Option{
		swr.WithStaleTime(cfg.Cache.StaleTime),
		swr.WithRetry(cfg.Cache.RetryCount, cfg.Cache.RetryInterval),
		swr.WithTimeout(cfg.Cache.FetchTimeout),
		swr.WithStoreTimeout(cfg.Cache.StoreTimeout),
		swr.WithObserver(m),
		swr.WithLogger(log.With(slog.String("component", "swr"))),
	}
	if cfg.Redis.Enabled() {
		client, err := redis.Open(ctx, cfg.Redis)
		if err != nil {
			return c, err
		}
		c.onClose("redis", func(context.Context) error { return client.Close() })
		c.optional["redis"] = redis.Healthcheck(client)
		cacheOpts = append(cacheOpts, swr.WithStore(swr.NewRedisStore(client, swr.WithPrefix(cfg.Cache.RedisPrefix))))
	}

	products := swr.New[[]catalog.Product](cacheOpts...)
	c.onClose("products cache", func(context.Context) error { return products.Close() })
	categories := swr.New[[]catalog.Category](cacheOpts...)
	c.onClose("categories cache", func(context.Context) error { return categories.Close() })

	source := catalog.NewClient(cfg.Catalog.BaseURL,
		catalog.WithHTTPClient(hc),
		catalog.WithClientLogger(log),
	)
	c.optional["catalog"] = source.Healthcheck()
	c.catalog = catalog.NewService(source, products, categories, log)

	intake, err := forms.NewIntake()
	if err != nil {
		return c, err
	}
	c.intake = intake

	sinks, err := buildSinks(cfg, log, hc)
	if err != nil {
		return c, err
	}
	instrumented := make([]forms.Sink, 0, len(sinks))
	for _, s := range sinks {
		instrumented = append(instrumented, m.InstrumentSink(s))
	}
	relay := forms.NewRelay(instrumented...)
	log.Info("submission sinks configured", slog.Any("sinks", relay.Names()))

	if err := buildDispatcher(ctx, c, cfg, log, relay); err != nil {
		return c, err
	}

	sched := scheduler.New(log.With(slog.String("component", "scheduler")), cfg.Scheduler.TaskTimeout)
	if err := sched.Add(warmTask, cfg.Scheduler.WarmSchedule, c.catalog.Warm); err != nil {
		return c, err
	}
	c.onStart(func(context.Context) error {
		if cfg.Scheduler.WarmOnStart {
			go sched.RunNow(warmTask, c.catalog.Warm)
		}
		sched.Start()
		return nil
	})
	c.onClose("scheduler", sched.Stop)

	return c, nil
}

func buildSinks(cfg *config.Config, log *slog.Logger, hc *http.Client) ([]forms.Sink, error) {
	var sinks []forms.Sink
	if cfg.Forms.SheetURL != "" {
		sinks = append(sinks, forms.NewSheetSink(hc, cfg.Forms.SheetURL, cfg.Forms.SheetToken))
	}
	if cfg.Forms.FormsAPIURL != "" {
		ids := maps.Clone(forms.DefaultFormIDs)
		ids[forms.KindCallback] = cfg.Forms.CallbackFormID
		sinks = append(sinks, forms.NewFormsAPISink(hc, cfg.Forms.FormsAPIURL, ids))
	}
	if cfg.Forms.QuoteURL != "" {
		sinks = append(sinks, forms.NewQuoteSink(hc, cfg.Forms.QuoteURL))
	}

	if cfg.Forms.Mail {
		var sender notify.Sender = notify.NewLogSender(log)
		if cfg.Resend.APIKey != "" {
			rs, err := notify.NewResendSender(cfg.Resend)
			if err != nil {
				return nil, err
			}
			sender = rs
		}
		renderer, err := notify.NewRenderer(notify.Templates())
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, forms.NewMailSink(notify.New(sender, renderer, cfg.Notify)))
	}

	if cfg.Storage.Enabled() {
		bucket, err := storage.New(cfg.Storage)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, forms.NewArchiveSink(bucket, cfg.Forms.ArchivePrefix))
	}
	return sinks, nil
}

// buildDispatcher picks durable delivery through the queue when a database
// is configured and in-process delivery otherwise.
func buildDispatcher(ctx context.Context, c *components, cfg *config.Config, log *slog.Logger, relay *forms.Relay) error {
	if !cfg.Database.Enabled() {
		inline := forms.NewInlineDispatcher(relay, log, cfg.Forms.DeliveryTimeout)
		c.dispatcher = inline
		c.onClose("inline deliveries", inline.Close)
		return nil
	}

	pool, err := db.Connect(ctx, cfg.Database)
	if err != nil {
		return err
	}
	c.onClose("postgres", func(context.Context) error {
		pool.Close()
		return nil
	})
	c.ready["postgres"] = db.Healthcheck(pool)

	if err := db.Migrate(ctx, pool, store.Migrations(), "", log); err != nil {
		return err
	}
	if err := queue.Migrate(ctx, pool); err != nil {
		return err
	}

	q, err := queue.New(pool, relay,
		queue.WithLogger(log.With(slog.String("component", "queue"))),
		queue.WithWorkers(cfg.Queue.Workers),
		queue.WithJobTimeout(cfg.Queue.JobTimeout),
	)
	if err != nil {
		return err
	}
	c.dispatcher = q
	c.ready["queue"] = q.Healthcheck()
	c.onStart(q.Start)
	c.onClose("queue", q.Stop)
	return nil
}
