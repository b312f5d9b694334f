package httpclient_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/corporategifts/giftsite/pkg/httpclient"
)

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("zero config uses defaults", func(t *testing.T) {
		t.Parallel()

		c := httpclient.New(httpclient.Config{})
		require.Equal(t, 30*time.Second, c.Timeout)

		tr, ok := c.Transport.(*http.Transport)
		require.True(t, ok)
		require.Equal(t, 20*time.Second, tr.ResponseHeaderTimeout)
		require.Equal(t, 10, tr.MaxIdleConnsPerHost)
	})

	t.Run("explicit values win", func(t *testing.T) {
		t.Parallel()

		c := httpclient.New(httpclient.Config{Timeout: 5 * time.Second, MaxIdleConns: 3})
		require.Equal(t, 5*time.Second, c.Timeout)

		tr := c.Transport.(*http.Transport)
		require.Equal(t, 3, tr.MaxIdleConns)
	})
}
