//go:build postgres_integration

package cache

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresStoreRoundTrip(t *testing.T) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set; skipping integration test")
	}
	ctx := t.Context()

	store, err := NewPostgresStore(ctx, dsn)
	require.NoError(t, err)
	defer store.Close()
	require.NoError(t, store.EnsureSchema(ctx))

	_, _, ok, err := store.Get(ctx, "it-caller", "it-hash")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Set(ctx, "it-caller", "it-hash", []byte(`{"routeId":"it-1"}`)))

	value, age, ok, err := store.Get(ctx, "it-caller", "it-hash")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Less(t, age, time.Minute)
	assert.JSONEq(t, `{"routeId":"it-1"}`, string(value))

	// Upsert refreshes both payload and age.
	require.NoError(t, store.Set(ctx, "it-caller", "it-hash", []byte(`{"routeId":"it-2"}`)))
	value, _, ok, err = store.Get(ctx, "it-caller", "it-hash")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.JSONEq(t, `{"routeId":"it-2"}`, string(value))
}
