package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sanspareilsmyn/kpilens/internal/batch"
)

const streamYAML = `
kafka:
  brokers: ["localhost:9092"]
  topic: kpi-samples
stream:
  interval: 60
  maxSpan: 7200
  features:
    - kind: mean
      windows: [600, 3600]
      thresholds:
        max: 5
    - kind: range_count
      windows: [3600]
      low: 0
      high: 1
    - kind: gradient_histogram
      windows: [7200]
      low: -90
      high: 90
      bins: 6
pipeline:
  calculatorShards: 2
store:
  backend: sqlite
  path: /tmp/kpilens.db
log:
  level: debug
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "kpilens.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_File(t *testing.T) {
	cfg, err := Load(writeConfig(t, streamYAML))
	require.NoError(t, err)
	require.NoError(t, ValidateStream(cfg))

	assert.Equal(t, []string{"localhost:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, defaultKafkaGroupID, cfg.Kafka.GroupID)
	assert.Equal(t, int64(60), cfg.Stream.Interval)
	assert.Equal(t, int64(7200), cfg.Stream.MaxSpan)
	require.Len(t, cfg.Stream.Features, 3)
	assert.Equal(t, []int64{600, 3600}, cfg.Stream.Features[0].Windows)
	require.NotNil(t, cfg.Stream.Features[0].Thresholds.Max)
	assert.Equal(t, 5.0, *cfg.Stream.Features[0].Thresholds.Max)
	assert.Nil(t, cfg.Stream.Features[0].Thresholds.Min)
	assert.Equal(t, 6, cfg.Stream.Features[2].Bins)
	assert.Equal(t, 2, cfg.Pipeline.CalculatorShards)
	assert.Equal(t, defaultChannelBuffer, cfg.Pipeline.ChannelBuffer)
	assert.Equal(t, StoreSQLite, cfg.Store.Backend)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 7, cfg.Scoring.Delay)
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, batch.DefaultCatalog(), cfg.Batch.Catalog())
	assert.Positive(t, cfg.Batch.Workers)
	assert.Equal(t, StoreMemory, cfg.Store.Backend)
	assert.Equal(t, DefaultFeatures(), cfg.Stream.Features)
	assert.ErrorIs(t, ValidateStream(cfg), ErrEmptyKafkaBrokers)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("KPILENS_STORE_BACKEND", "badger")
	t.Setenv("KPILENS_SCORING_DELAY", "3")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, StoreBadger, cfg.Store.Backend)
	assert.Equal(t, 3, cfg.Scoring.Delay)
}

func TestLoad_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
		assert.Error(t, err)
	})

	t.Run("bad yaml", func(t *testing.T) {
		_, err := Load(writeConfig(t, "kafka: [\n"))
		assert.ErrorIs(t, err, ErrReadingConfigFile)
	})

	t.Run("unknown backend", func(t *testing.T) {
		_, err := Load(writeConfig(t, "store:\n  backend: redis\n"))
		assert.ErrorIs(t, err, ErrUnknownStoreBackend)
	})

	t.Run("negative delay", func(t *testing.T) {
		_, err := Load(writeConfig(t, "scoring:\n  delay: -1\n"))
		assert.ErrorIs(t, err, ErrInvalidScoringDelay)
	})

	t.Run("bad catalog", func(t *testing.T) {
		_, err := Load(writeConfig(t, "batch:\n  meanWindows: [-1]\n"))
		assert.ErrorIs(t, err, ErrInvalidBatchCatalog)
	})
}

func TestValidateStream(t *testing.T) {
	base := func() *Config {
		cfg, err := Load(writeConfig(t, streamYAML))
		require.NoError(t, err)
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		want   error
	}{
		{"no topic", func(c *Config) { c.Kafka.Topic = "" }, ErrEmptyKafkaTopic},
		{"no group", func(c *Config) { c.Kafka.GroupID = "" }, ErrEmptyKafkaGroupID},
		{"span below interval", func(c *Config) { c.Stream.MaxSpan = 30 }, ErrInvalidStreamSpan},
		{"zero shards", func(c *Config) { c.Pipeline.CalculatorShards = 0 }, ErrInvalidCalculatorShards},
		{"unknown kind", func(c *Config) { c.Stream.Features[0].Kind = "median" }, ErrInvalidFeatureKind},
		{"window too large", func(c *Config) { c.Stream.Features[0].Windows = []int64{7201} }, ErrInvalidFeatureWindow},
		{"window too small", func(c *Config) { c.Stream.Features[0].Windows = []int64{59} }, ErrInvalidFeatureWindow},
		{"no windows", func(c *Config) { c.Stream.Features[0].Windows = nil }, ErrInvalidFeatureWindow},
		{"inverted range", func(c *Config) { c.Stream.Features[1].Low = 2 }, ErrInvalidFeatureRange},
		{"zero bins", func(c *Config) { c.Stream.Features[2].Bins = 0 }, ErrInvalidFeatureRange},
		{"steep degrees", func(c *Config) { c.Stream.Features[2].High = 120 }, ErrInvalidFeatureRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			assert.ErrorIs(t, ValidateStream(cfg), tt.want)
		})
	}
}
