package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"threshold-lab/internal/config"
	"threshold-lab/internal/events"
	"threshold-lab/internal/marketdata"
	"threshold-lab/internal/pipeline"
)

func memoryConfig(t *testing.T) *config.Config {
	t.Helper()
	t.Setenv("THRESHOLD_LAB_STUDY_TRADE_SIZE", "10000")
	t.Setenv("THRESHOLD_LAB_STUDY_INITIAL_CAPITAL", "100000")
	cfg, err := config.Load("")
	require.NoError(t, err)
	return cfg
}

func TestNew_MemoryBackend(t *testing.T) {
	ctx := context.Background()
	a, err := New(ctx, memoryConfig(t), nil, nil)
	require.NoError(t, err)
	defer a.Close()

	assert.IsType(t, events.NopPublisher{}, a.Publisher)
	assert.IsType(t, &marketdata.RetryAccessor{}, a.Accessor)

	entries, err := pipeline.LoadFixtures(ctx, a.Stores.Bars)
	require.NoError(t, err)

	res, err := a.NewRunner(a.Study).Run(ctx, entries)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Run.ScannedEntries)

	report, err := a.Generator().Generate(ctx, res.Run.RunID)
	require.NoError(t, err)
	assert.Len(t, report.Ledger, 3)
}

func TestNew_UnknownBackend(t *testing.T) {
	cfg := memoryConfig(t)
	cfg.Storage.Backend = "mongo"

	_, err := New(context.Background(), cfg, nil, nil)
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
}

func TestNew_HTTPProvider(t *testing.T) {
	cfg := memoryConfig(t)
	cfg.Provider.Kind = ProviderHTTP
	cfg.Provider.BaseURL = "http://127.0.0.1:1"

	a, err := New(context.Background(), cfg, nil, nil)
	require.NoError(t, err)
	defer a.Close()

	assert.NotNil(t, a.Accessor)
}

func TestClose_Idempotent(t *testing.T) {
	a, err := New(context.Background(), memoryConfig(t), nil, nil)
	require.NoError(t, err)

	assert.NoError(t, a.Close())
	assert.NoError(t, a.Close())
}
