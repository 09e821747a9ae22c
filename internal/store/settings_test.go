package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rezonia/einvoice/internal/model"
	"github.com/rezonia/einvoice/internal/store"
)

type settingsStore interface {
	Load(ctx context.Context, ownerID string) (model.ComplianceConfiguration, error)
	Put(ctx context.Context, cfg model.ComplianceConfiguration) error
}

func sqliteSettings(t *testing.T) settingsStore {
	t.Helper()
	db, err := store.Open(store.DialectSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	s := store.NewSQLSettings(db, store.DialectSQLite)
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func TestSettingsStores(t *testing.T) {
	stores := map[string]func(t *testing.T) settingsStore{
		"memory": func(*testing.T) settingsStore { return store.NewMemorySettings() },
		"sqlite": sqliteSettings,
	}

	for name, newStore := range stores {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := newStore(t)

			cfg, err := s.Load(ctx, "owner-1")
			require.NoError(t, err)
			assert.False(t, cfg.AutoGenerate)
			assert.Equal(t, "owner-1", cfg.OwnerID)

			want := model.DefaultConfiguration("owner-1")
			want.AutoGenerate = true
			want.DefaultFormat = model.FormatUBL
			want.Routing.RoutingID = "04011000-12345-34"
			require.NoError(t, s.Put(ctx, want))

			got, err := s.Load(ctx, "owner-1")
			require.NoError(t, err)
			assert.Equal(t, want, got)

			want.AutoTransmit = true
			require.NoError(t, s.Put(ctx, want))
			got, err = s.Load(ctx, "owner-1")
			require.NoError(t, err)
			assert.True(t, got.AutoTransmit)

			assert.Error(t, s.Put(ctx, model.ComplianceConfiguration{}))
		})
	}
}

type countingSource struct {
	calls int
	err   error
}

func (c *countingSource) Load(_ context.Context, ownerID string) (model.ComplianceConfiguration, error) {
	c.calls++
	if c.err != nil {
		return model.ComplianceConfiguration{}, c.err
	}
	return model.DefaultConfiguration(ownerID), nil
}

func TestCachedSettings(t *testing.T) {
	ctx := context.Background()
	source := &countingSource{}
	cached := store.NewCachedSettings(source, time.Minute)

	for range 3 {
		cfg, err := cached.Load(ctx, "owner-1")
		require.NoError(t, err)
		assert.Equal(t, "owner-1", cfg.OwnerID)
	}
	assert.Equal(t, 1, source.calls)

	cached.Invalidate("owner-1")
	_, err := cached.Load(ctx, "owner-1")
	require.NoError(t, err)
	assert.Equal(t, 2, source.calls)
}

func TestCachedSettings_ErrorsAreNotCached(t *testing.T) {
	ctx := context.Background()
	source := &countingSource{err: errors.New("unreachable")}
	cached := store.NewCachedSettings(source, time.Minute)

	_, err := cached.Load(ctx, "owner-1")
	require.Error(t, err)

	source.err = nil
	_, err = cached.Load(ctx, "owner-1")
	require.NoError(t, err)
	assert.Equal(t, 2, source.calls)
}

func TestParseDialect(t *testing.T) {
	tests := []struct {
		in      string
		want    store.Dialect
		wantErr bool
	}{
		{"sqlite", store.DialectSQLite, false},
		{"", store.DialectSQLite, false},
		{"PostgreSQL", store.DialectPostgres, false},
		{"pg", store.DialectPostgres, false},
		{"mysql", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := store.ParseDialect(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
