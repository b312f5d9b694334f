// Package queue delivers submissions durably through River jobs.
//
// Dispatch stores the submission and inserts one deliver_submission job per
// accepting sink in the same transaction. Each job retries on its own, so a
// flaky spreadsheet endpoint never re-sends the notification email.
package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/riverqueue/river/rivermigrate"

	"github.com/corporategifts/giftsite/internal/store"
	"github.com/corporategifts/giftsite/pkg/db"
	"github.com/corporategifts/giftsite/pkg/forms"
)

const (
	// QueueDeliveries is the River queue deliveries run on.
	QueueDeliveries = "deliveries"

	// MaxAttempts bounds retries per sink.
	MaxAttempts = 5

	defaultWorkers    = 10
	defaultJobTimeout = 30 * time.Second
)

var (
	ErrPoolRequired   = errors.New("queue: pool is required")
	ErrAlreadyStarted = errors.New("queue: already started")
	ErrNotStarted     = errors.New("queue: not started")
	ErrHealthcheck    = errors.New("queue: healthcheck failed")
)

// DeliverArgs are the arguments of a deliver_submission job.
type DeliverArgs struct {
	SubmissionID uuid.UUID `json:"submission_id"`
	Sink         string    `json:"sink"`
}

func (DeliverArgs) Kind() string { return "deliver_submission" }

func (DeliverArgs) InsertOpts() river.InsertOpts {
	return river.InsertOpts{Queue: QueueDeliveries, MaxAttempts: MaxAttempts}
}

// Option configures a Queue.
type Option func(*Queue)

// WithLogger sets the logger used by the queue and River.
func WithLogger(l *slog.Logger) Option {
	return func(q *Queue) {
		if l != nil {
			q.logger = l
		}
	}
}

// WithWorkers sets the number of concurrent deliveries.
func WithWorkers(n int) Option {
	return func(q *Queue) {
		if n > 0 {
			q.workers = n
		}
	}
}

// WithJobTimeout bounds one delivery attempt.
func WithJobTimeout(d time.Duration) Option {
	return func(q *Queue) {
		if d > 0 {
			q.jobTimeout = d
		}
	}
}

// Queue implements forms.Dispatcher on top of PostgreSQL.
type Queue struct {
	pool       *pgxpool.Pool
	client     *river.Client[pgx.Tx]
	repo       *store.SubmissionRepo
	relay      *forms.Relay
	logger     *slog.Logger
	workers    int
	jobTimeout time.Duration

	mu      sync.Mutex
	started bool
}

// New creates the River client. Jobs can be dispatched before Start.
func New(pool *pgxpool.Pool, relay *forms.Relay, opts ...Option) (*Queue, error) {
	if pool == nil {
		return nil, ErrPoolRequired
	}

	q := &Queue{
		pool:       pool,
		repo:       store.NewSubmissionRepo(pool),
		relay:      relay,
		logger:     slog.New(slog.DiscardHandler),
		workers:    defaultWorkers,
		jobTimeout: defaultJobTimeout,
	}
	for _, opt := range opts {
		opt(q)
	}

	workers := river.NewWorkers()
	river.AddWorker(workers, &deliverWorker{
		subs:    q.repo,
		relay:   relay,
		logger:  q.logger,
		timeout: q.jobTimeout,
	})

	client, err := river.NewClient(riverpgxv5.New(pool), &river.Config{
		Queues:  map[string]river.QueueConfig{QueueDeliveries: {MaxWorkers: q.workers}},
		Workers: workers,
		Logger:  q.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("queue: create client: %w", err)
	}
	q.client = client
	return q, nil
}

// Migrate brings the River schema up to date.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	migrator, err := rivermigrate.New(riverpgxv5.New(pool), nil)
	if err != nil {
		return fmt.Errorf("queue: create migrator: %w", err)
	}
	if _, err := migrator.Migrate(ctx, rivermigrate.DirectionUp, nil); err != nil {
		return fmt.Errorf("queue: migrate: %w", err)
	}
	return nil
}

// Dispatch stores s and enqueues one job per accepting sink atomically.
// Spam is stored for auditing but never enqueued.
func (q *Queue) Dispatch(ctx context.Context, s *forms.Submission) error {
	return db.WithTx(ctx, q.pool, func(tx pgx.Tx) error {
		srNo, err := q.repo.WithTx(tx).Insert(ctx, s)
		if err != nil {
			return err
		}
		if s.Spam {
			return nil
		}

		params := deliveryJobs(s, q.relay)
		if len(params) == 0 {
			return nil
		}
		if _, err := q.client.InsertManyTx(ctx, tx, params); err != nil {
			return fmt.Errorf("queue: enqueue deliveries: %w", err)
		}

		q.logger.InfoContext(ctx, "submission queued",
			slog.String("submission_id", s.ID.String()),
			slog.Int64("sr_no", srNo),
			slog.Int("jobs", len(params)),
		)
		return nil
	})
}

func deliveryJobs(s *forms.Submission, relay *forms.Relay) []river.InsertManyParams {
	sinks := relay.For(s.Kind)
	params := make([]river.InsertManyParams, 0, len(sinks))
	for _, sink := range sinks {
		params = append(params, river.InsertManyParams{
			Args: DeliverArgs{SubmissionID: s.ID, Sink: sink.Name()},
		})
	}
	return params
}

// Start begins working jobs.
func (q *Queue) Start(ctx context.Context) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.started {
		return ErrAlreadyStarted
	}
	if err := q.client.Start(ctx); err != nil {
		return fmt.Errorf("queue: start: %w", err)
	}
	q.started = true
	q.logger.Info("delivery queue started", slog.Int("workers", q.workers))
	return nil
}

// Stop waits for running deliveries to finish or ctx to end.
func (q *Queue) Stop(ctx context.Context) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if !q.started {
		return ErrNotStarted
	}
	if err := q.client.Stop(ctx); err != nil {
		return fmt.Errorf("queue: stop: %w", err)
	}
	q.started = false
	q.logger.Info("delivery queue stopped")
	return nil
}

// Healthcheck reports whether the queue runs and its database answers.
func (q *Queue) Healthcheck() func(context.Context) error {
	return func(ctx context.Context) error {
		q.mu.Lock()
		started := q.started
		q.mu.Unlock()

		if !started {
			return errors.Join(ErrHealthcheck, ErrNotStarted)
		}
		if err := q.pool.Ping(ctx); err != nil {
			return errors.Join(ErrHealthcheck, err)
		}
		return nil
	}
}
