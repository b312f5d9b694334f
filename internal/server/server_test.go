package server_test

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/corporategifts/giftsite/internal/server"
)

func TestRun(t *testing.T) {
	t.Parallel()

	t.Run("serves until cancelled then runs hooks in order", func(t *testing.T) {
		t.Parallel()

		ln, err := net.Listen("tcp", "127.0.0.1:0")
		require.NoError(t, err)

		var (
			mu    sync.Mutex
			order []string
		)
		record := func(name string) server.Hook {
			return func(context.Context) error {
				mu.Lock()
				defer mu.Unlock()
				order = append(order, name)
				return nil
			}
		}

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() {
			done <- server.Run(ctx, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				_, _ = io.WriteString(w, "pong")
			}),
				server.Listener(ln),
				server.OnStartup(record("start")),
				server.OnShutdown(record("stop-queue")),
				server.OnShutdown(record("close-redis")),
			)
		}()

		url := "http://" + ln.Addr().String()
		require.Eventually(t, func() bool {
			resp, err := http.Get(url)
			if err != nil {
				return false
			}
			defer resp.Body.Close()
			body, _ := io.ReadAll(resp.Body)
			return string(body) == "pong"
		}, 2*time.Second, 10*time.Millisecond)

		cancel()
		select {
		case err := <-done:
			require.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Fatal("Run did not return after cancel")
		}

		mu.Lock()
		defer mu.Unlock()
		require.Equal(t, []string{"start", "stop-queue", "close-redis"}, order)
	})

	t.Run("failing startup hook aborts", func(t *testing.T) {
		t.Parallel()

		boom := errors.New("migrations failed")
		err := server.Run(context.Background(), http.NotFoundHandler(),
			server.Address("127.0.0.1:0"),
			server.OnStartup(func(context.Context) error { return boom }),
		)
		require.ErrorIs(t, err, boom)
	})

	t.Run("shutdown hook errors are returned", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		boom := errors.New("flush failed")
		err := server.Run(ctx, http.NotFoundHandler(),
			server.Address("127.0.0.1:0"),
			server.OnShutdown(func(context.Context) error { return boom }),
		)
		require.ErrorIs(t, err, boom)
	})
}
