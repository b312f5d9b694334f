package queue

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/riverqueue/river"

	"github.com/corporategifts/giftsite/internal/store"
	"github.com/corporategifts/giftsite/pkg/forms"
)

// submissions is the part of the store the worker needs.
type submissions interface {
	Get(ctx context.Context, id uuid.UUID) (*store.Record, error)
	MarkDelivered(ctx context.Context, id uuid.UUID, sink string) error
}

type deliverWorker struct {
	river.WorkerDefaults[DeliverArgs]
	subs    submissions
	relay   *forms.Relay
	logger  *slog.Logger
	timeout time.Duration
}

func (w *deliverWorker) Timeout(*river.Job[DeliverArgs]) time.Duration {
	return w.timeout
}

func (w *deliverWorker) Work(ctx context.Context, job *river.Job[DeliverArgs]) error {
	sink, err := w.relay.Sink(job.Args.Sink)
	if err != nil {
		return river.JobCancel(err)
	}

	rec, err := w.subs.Get(ctx, job.Args.SubmissionID)
	if errors.Is(err, store.ErrNotFound) {
		return river.JobCancel(err)
	}
	if err != nil {
		return err
	}
	if rec.DeliveredTo(sink.Name()) {
		return nil
	}

	logger := w.logger.With(slog.Int64("job_id", job.ID), slog.Int("attempt", job.Attempt))
	if err := forms.Deliver(ctx, sink, rec.Submission, logger); err != nil {
		return err
	}
	return w.subs.MarkDelivered(ctx, job.Args.SubmissionID, sink.Name())
}
