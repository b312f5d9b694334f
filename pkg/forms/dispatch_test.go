package forms_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/corporategifts/giftsite/pkg/forms"
)

type recordingSink struct {
	err     error
	name    string
	kinds   []forms.Kind
	release chan struct{}
	mu      sync.Mutex
	got     []*forms.Submission
}

func (s *recordingSink) Name() string { return s.name }

func (s *recordingSink) Accepts(kind forms.Kind) bool {
	if len(s.kinds) == 0 {
		return true
	}
	for _, k := range s.kinds {
		if k == kind {
			return true
		}
	}
	return false
}

func (s *recordingSink) Deliver(ctx context.Context, sub *forms.Submission) error {
	if s.release != nil {
		select {
		case <-s.release:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.got = append(s.got, sub)
	return s.err
}

func (s *recordingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.got)
}

func TestDeliverAll(t *testing.T) {
	t.Parallel()

	ok := &recordingSink{name: "ok"}
	bad := &recordingSink{name: "bad", err: errors.New("boom")}
	orders := &recordingSink{name: "orders", kinds: []forms.Kind{forms.KindOrder}}
	relay := forms.NewRelay(ok, bad, orders)

	err := forms.DeliverAll(context.Background(), relay, sampleSubmission(forms.KindContact), nil)
	require.ErrorContains(t, err, "boom")
	require.Equal(t, 1, ok.count())
	require.Equal(t, 1, bad.count())
	require.Zero(t, orders.count())
}

func TestInlineDispatcher(t *testing.T) {
	t.Parallel()

	t.Run("delivers after the request context ends", func(t *testing.T) {
		t.Parallel()

		sink := &recordingSink{name: "sheet", release: make(chan struct{})}
		d := forms.NewInlineDispatcher(forms.NewRelay(sink), nil, time.Second)

		ctx, cancel := context.WithCancel(context.Background())
		require.NoError(t, d.Dispatch(ctx, sampleSubmission(forms.KindCallback)))
		cancel()
		close(sink.release)

		require.NoError(t, d.Close(context.Background()))
		require.Equal(t, 1, sink.count())
	})

	t.Run("drops spam", func(t *testing.T) {
		t.Parallel()

		sink := &recordingSink{name: "sheet"}
		d := forms.NewInlineDispatcher(forms.NewRelay(sink), nil, 0)

		s := sampleSubmission(forms.KindContact)
		s.Spam = true
		require.NoError(t, d.Dispatch(context.Background(), s))
		require.NoError(t, d.Close(context.Background()))
		require.Zero(t, sink.count())
	})

	t.Run("close honours its context", func(t *testing.T) {
		t.Parallel()

		sink := &recordingSink{name: "slow", release: make(chan struct{})}
		d := forms.NewInlineDispatcher(forms.NewRelay(sink), nil, time.Minute)
		require.NoError(t, d.Dispatch(context.Background(), sampleSubmission(forms.KindQuote)))

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		require.ErrorIs(t, d.Close(ctx), context.DeadlineExceeded)

		close(sink.release)
		require.NoError(t, d.Close(context.Background()))
	})
}
