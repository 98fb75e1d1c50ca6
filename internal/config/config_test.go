package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"threshold-lab/internal/domain"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func setMoneyEnv(t *testing.T) {
	t.Helper()
	t.Setenv("THRESHOLD_LAB_STUDY_TRADE_SIZE", "10000")
	t.Setenv("THRESHOLD_LAB_STUDY_INITIAL_CAPITAL", "100000")
}

func TestLoad_Defaults(t *testing.T) {
	setMoneyEnv(t)
	cfg, err := Load("")
	require.NoError(t, err)

	study, err := cfg.Study.Domain()
	require.NoError(t, err)

	assert.True(t, study.TradeSize.Equal(decimal.NewFromInt(10000)))
	assert.True(t, study.InitialCapital.Equal(decimal.NewFromInt(100000)))
	assert.Equal(t, 5, study.MaxTradesPerDay)
	assert.Equal(t, domain.Threshold(5), study.Thresholds.Target)
	assert.Equal(t, domain.Threshold(-10), study.Thresholds.Stoploss)
	assert.Equal(t, []domain.Threshold{-10, -5, 5, 10, 15, 20}, study.Thresholds.Levels)
	assert.Equal(t, domain.DefaultTimeoutDays, study.TimeoutDays)
	assert.Equal(t, domain.DefaultScanWindowDays, study.ScanWindowDays)
	assert.Equal(t, domain.DefaultExitLookbackDays, study.ExitLookbackDays)
	assert.Equal(t, domain.PriceFieldHigh, study.PriceField)
	assert.Equal(t, domain.DayCountCalendar, study.DayCount)

	assert.Equal(t, 4, cfg.Scan.Workers)
	assert.Equal(t, "store", cfg.Provider.Kind)
	assert.Equal(t, uint64(0), cfg.Provider.MaxRetries)
	assert.Equal(t, 30*time.Second, cfg.Provider.Timeout)
	assert.Equal(t, "memory", cfg.Storage.Backend)
	assert.Equal(t, "run.completed", cfg.Events.Topic)
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
study:
  trade_size: 100000
  initial_capital: 1000000.50
  max_trades_per_day: 2
  thresholds: [-20, 8]
  target_pct: 8
  stoploss_pct: -4
  price_field: high_low
  day_count: trading
  holidays: ["2024-01-01", "2024-12-25"]
provider:
  kind: http
  base_url: https://bars.example.com
  max_retries: 3
logging:
  level: debug
  format: console
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	study, err := cfg.Study.Domain()
	require.NoError(t, err)
	assert.True(t, study.TradeSize.Equal(decimal.NewFromInt(100000)))
	assert.True(t, study.InitialCapital.Equal(decimal.RequireFromString("1000000.5")))
	assert.Equal(t, 2, study.MaxTradesPerDay)
	assert.Equal(t, []domain.Threshold{-20, -4, 8}, study.Thresholds.Levels)
	assert.Equal(t, domain.PriceFieldHighLow, study.PriceField)
	assert.Equal(t, domain.DayCountTrading, study.DayCount)

	cal, err := cfg.Calendar()
	require.NoError(t, err)
	assert.False(t, cal.IsBusinessDay(time.Date(2024, 12, 25, 0, 0, 0, 0, time.UTC)))

	assert.Equal(t, "https://bars.example.com", cfg.Provider.BaseURL)
	assert.Equal(t, uint64(3), cfg.Provider.MaxRetries)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoad_EnvOverride(t *testing.T) {
	setMoneyEnv(t)
	t.Setenv("THRESHOLD_LAB_STUDY_TRADE_SIZE", "2500")
	t.Setenv("THRESHOLD_LAB_SCAN_WORKERS", "8")

	cfg, err := Load("")
	require.NoError(t, err)

	study, err := cfg.Study.Domain()
	require.NoError(t, err)
	assert.True(t, study.TradeSize.Equal(decimal.NewFromInt(2500)))
	assert.Equal(t, 8, cfg.Scan.Workers)
}

func TestLoad_Invalid(t *testing.T) {
	const study = "study:\n  trade_size: 1000\n  initial_capital: 10000\n"
	cases := map[string]string{
		"positive stoploss":   study + "  stoploss_pct: 5\n",
		"negative target":     study + "  target_pct: -1\n",
		"zero trade size":     "study:\n  trade_size: 0\n  initial_capital: 10000\n",
		"bad trade size":      "study:\n  trade_size: lots\n  initial_capital: 10000\n",
		"unknown price field": study + "  price_field: open\n",
		"bad holiday":         study + "  holidays: [\"25/12/2024\"]\n",
		"http without url":    study + "provider:\n  kind: http\n",
		"sql without dsn":     study + "storage:\n  backend: sql\n",
		"no workers":          study + "scan:\n  workers: 0\n",
	}

	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestLoad_MissingMoneyFields(t *testing.T) {
	_, err := Load("")
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = Load(writeConfig(t, "study:\n  trade_size: 1000\n"))
	assert.ErrorIs(t, err, ErrInvalidConfig)
	assert.Contains(t, err.Error(), "InitialCapital")

	t.Setenv("THRESHOLD_LAB_STUDY_INITIAL_CAPITAL", "50000")
	cfg, err := Load(writeConfig(t, "study:\n  trade_size: 1000\n"))
	require.NoError(t, err)
	assert.Equal(t, "50000", cfg.Study.InitialCapital)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
