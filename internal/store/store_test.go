package store_test

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/corporategifts/giftsite/internal/store"
)

func TestMigrations(t *testing.T) {
	t.Parallel()

	entries, err := fs.ReadDir(store.Migrations(), ".")
	require.NoError(t, err)
	require.NotEmpty(t, entries)

	for _, e := range entries {
		require.True(t, strings.HasSuffix(e.Name(), ".sql"), e.Name())

		body, err := fs.ReadFile(store.Migrations(), e.Name())
		require.NoError(t, err)
		require.Contains(t, string(body), "-- +goose Up", e.Name())
		require.Contains(t, string(body), "-- +goose Down", e.Name())
	}
}

func TestRecordDeliveredTo(t *testing.T) {
	t.Parallel()

	rec := &store.Record{Delivered: []string{"sheet", "mail"}}
	require.True(t, rec.DeliveredTo("mail"))
	require.False(t, rec.DeliveredTo("archive"))
}
