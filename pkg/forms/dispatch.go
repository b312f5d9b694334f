package forms

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// Dispatcher hands an accepted submission over for delivery.
type Dispatcher interface {
	Dispatch(ctx context.Context, s *Submission) error
}

// DefaultDeliveryTimeout bounds one inline delivery round.
const DefaultDeliveryTimeout = 30 * time.Second

// InlineDispatcher delivers to every matching sink in the background,
// detached from the request that accepted the submission.
type InlineDispatcher struct {
	relay   *Relay
	logger  *slog.Logger
	wg      sync.WaitGroup
	timeout time.Duration
}

// NewInlineDispatcher creates a dispatcher over relay.
func NewInlineDispatcher(relay *Relay, logger *slog.Logger, timeout time.Duration) *InlineDispatcher {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if timeout <= 0 {
		timeout = DefaultDeliveryTimeout
	}
	return &InlineDispatcher{relay: relay, logger: logger, timeout: timeout}
}

// Dispatch returns immediately. Spam submissions are dropped.
func (d *InlineDispatcher) Dispatch(ctx context.Context, s *Submission) error {
	if s.Spam {
		d.logger.InfoContext(ctx, "spam submission dropped",
			slog.String("kind", string(s.Kind)),
			slog.String("submission_id", s.ID.String()))
		return nil
	}

	ctx = context.WithoutCancel(ctx)
	d.wg.Go(func() {
		ctx, cancel := context.WithTimeout(ctx, d.timeout)
		defer cancel()
		_ = DeliverAll(ctx, d.relay, s, d.logger)
	})
	return nil
}

// Close waits for in-flight deliveries or until ctx is done.
func (d *InlineDispatcher) Close(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// DeliverAll runs every sink accepting s concurrently. Failures are logged and
// joined; one failing sink never stops the others.
func DeliverAll(ctx context.Context, relay *Relay, s *Submission, logger *slog.Logger) error {
	sinks := relay.For(s.Kind)
	errs := make([]error, len(sinks))

	var g errgroup.Group
	for i, sink := range sinks {
		g.Go(func() error {
			errs[i] = Deliver(ctx, sink, s, logger)
			return nil
		})
	}
	_ = g.Wait()

	return errors.Join(errs...)
}

// Deliver runs one sink and logs the outcome.
func Deliver(ctx context.Context, sink Sink, s *Submission, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	start := time.Now()
	err := sink.Deliver(ctx, s)
	attrs := []any{
		slog.String("sink", sink.Name()),
		slog.String("kind", string(s.Kind)),
		slog.String("submission_id", s.ID.String()),
		slog.Duration("duration", time.Since(start)),
	}
	if err != nil {
		logger.ErrorContext(ctx, "submission delivery failed", append(attrs, slog.Any("error", err))...)
		return err
	}
	logger.InfoContext(ctx, "submission delivered", attrs...)
	return nil
}
