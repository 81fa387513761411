package config

import (
	"errors"
	"fmt"
	"runtime"
	"strings"

	"github.com/spf13/viper"

	"github.com/sanspareilsmyn/kpilens/internal/batch"
	"github.com/sanspareilsmyn/kpilens/internal/scoring"
)

const (
	defaultKafkaGroupID     = "kpilens-default-group"
	defaultStreamInterval   = 60
	defaultStreamMaxSpan    = 86400
	defaultChannelBuffer    = 100
	defaultCalculatorShards = 4
	defaultStoreBackend     = StoreMemory
	defaultStorePath        = "data/kpilens"
	defaultHTTPAddr         = ":9090"
	defaultLogLevel         = "info"
	defaultLogFormat        = "console"
	defaultLogFileEnabled   = false
	defaultLogDirectory     = "log"
	defaultLogFilename      = "kpilens.log"
	defaultLogMaxSizeMB     = 100
	defaultLogMaxBackups    = 3
	defaultLogMaxAgeDays    = 7
	defaultLogCompress      = false

	// Environment variable prefix
	envPrefix = "KPILENS"
)

// Store backends.
const (
	StoreMemory = "memory"
	StoreBadger = "badger"
	StoreSQLite = "sqlite"
)

// Stream feature kinds.
const (
	KindMean              = "mean"
	KindStd               = "std"
	KindCount             = "count"
	KindShift             = "shift"
	KindLag               = "lag"
	KindRangeCount        = "range_count"
	KindGradientHistogram = "gradient_histogram"
)

type Config struct {
	Kafka    KafkaConfig    `mapstructure:"kafka"`
	Stream   StreamConfig   `mapstructure:"stream"`
	Pipeline PipelineConfig `mapstructure:"pipeline"`
	Batch    BatchConfig    `mapstructure:"batch"`
	Scoring  ScoringConfig  `mapstructure:"scoring"`
	Store    StoreConfig    `mapstructure:"store"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	Log      LogConfig      `mapstructure:"log"`
}

type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
	GroupID string   `mapstructure:"groupID"`
}

// StreamConfig describes the online window state kept per series. Times are in seconds.
type StreamConfig struct {
	Interval int64           `mapstructure:"interval"`
	MaxSpan  int64           `mapstructure:"maxSpan"`
	Features []FeatureConfig `mapstructure:"features"`
}

// FeatureConfig is one statistic computed for every window listed. Low and High bound
// range_count values, or the angle range in degrees for gradient_histogram.
type FeatureConfig struct {
	Kind       string     `mapstructure:"kind"`
	Windows    []int64    `mapstructure:"windows"`
	Low        float64    `mapstructure:"low"`
	High       float64    `mapstructure:"high"`
	Bins       int        `mapstructure:"bins"`
	Thresholds Thresholds `mapstructure:"thresholds"`
}

// Thresholds bound a feature's value; nil means unbounded.
type Thresholds struct {
	Min *float64 `mapstructure:"min"`
	Max *float64 `mapstructure:"max"`
}

type PipelineConfig struct {
	ChannelBuffer    int `mapstructure:"channelBuffer"`
	CalculatorShards int `mapstructure:"calculatorShards"`
}

// BatchConfig drives offline feature generation. Windows are in minutes.
type BatchConfig struct {
	Workers     int     `mapstructure:"workers"`
	MeanWindows []int64 `mapstructure:"meanWindows"`
	StdWindows  []int64 `mapstructure:"stdWindows"`
	LagSteps    int     `mapstructure:"lagSteps"`
	LagStride   int     `mapstructure:"lagStride"`
}

type ScoringConfig struct {
	Delay int `mapstructure:"delay"`
}

type StoreConfig struct {
	Backend string `mapstructure:"backend"`
	Path    string `mapstructure:"path"`
}

type HTTPConfig struct {
	Addr string `mapstructure:"addr"`
}

type LogConfig struct {
	Level              string `mapstructure:"level"`
	Format             string `mapstructure:"format"`
	FileLoggingEnabled bool   `mapstructure:"fileLoggingEnabled"`
	Directory          string `mapstructure:"directory"`
	Filename           string `mapstructure:"filename"`
	MaxSize            int    `mapstructure:"maxSize"`    // Max size in MB
	MaxBackups         int    `mapstructure:"maxBackups"` // Max backup files
	MaxAge             int    `mapstructure:"maxAge"`     // Max days to retain
	Compress           bool   `mapstructure:"compress"`   // Compress rotated files?
}

// Catalog converts the batch section into a feature catalog.
func (b BatchConfig) Catalog() batch.Catalog {
	return batch.Catalog{
		MeanWindows: b.MeanWindows,
		StdWindows:  b.StdWindows,
		LagSteps:    b.LagSteps,
		LagStride:   b.LagStride,
	}
}

// DefaultFeatures is used when stream.features is empty: mean and std over an hour and a day.
func DefaultFeatures() []FeatureConfig {
	return []FeatureConfig{
		{Kind: KindMean, Windows: []int64{3600, 86400}},
		{Kind: KindStd, Windows: []int64{3600, 86400}},
	}
}

// Load initializes viper, reads config, applies defaults, unmarshals, and validates.
// An empty configPath skips the file and uses defaults plus environment.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	configureViper(v, configPath)

	// Set default values before reading config source .yaml
	setDefaults(v)

	if configPath != "" {
		if err := readConfigFile(v); err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnmarshallingConfig, err)
	}
	if len(cfg.Stream.Features) == 0 {
		cfg.Stream.Features = DefaultFeatures()
	}

	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// configureViper sets up viper instance for file and environment variables.
func configureViper(v *viper.Viper, configPath string) {
	if configPath != "" {
		v.SetConfigFile(configPath)
	}

	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
}

// setDefaults applies default configuration values using Viper.
func setDefaults(v *viper.Viper) {
	catalog := batch.DefaultCatalog()

	v.SetDefault("kafka.groupID", defaultKafkaGroupID)
	v.SetDefault("stream.interval", defaultStreamInterval)
	v.SetDefault("stream.maxSpan", defaultStreamMaxSpan)
	v.SetDefault("pipeline.channelBuffer", defaultChannelBuffer)
	v.SetDefault("pipeline.calculatorShards", defaultCalculatorShards)
	v.SetDefault("batch.workers", runtime.NumCPU())
	v.SetDefault("batch.meanWindows", catalog.MeanWindows)
	v.SetDefault("batch.stdWindows", catalog.StdWindows)
	v.SetDefault("batch.lagSteps", catalog.LagSteps)
	v.SetDefault("batch.lagStride", catalog.LagStride)
	v.SetDefault("scoring.delay", scoring.DefaultDelay)
	v.SetDefault("store.backend", defaultStoreBackend)
	v.SetDefault("store.path", defaultStorePath)
	v.SetDefault("http.addr", defaultHTTPAddr)
	v.SetDefault("log.level", defaultLogLevel)
	v.SetDefault("log.format", defaultLogFormat)
	v.SetDefault("log.fileLoggingEnabled", defaultLogFileEnabled)
	v.SetDefault("log.directory", defaultLogDirectory)
	v.SetDefault("log.filename", defaultLogFilename)
	v.SetDefault("log.maxSize", defaultLogMaxSizeMB)
	v.SetDefault("log.maxBackups", defaultLogMaxBackups)
	v.SetDefault("log.maxAge", defaultLogMaxAgeDays)
	v.SetDefault("log.compress", defaultLogCompress)
}

// readConfigFile attempts to read the configuration file specified in viper.
func readConfigFile(v *viper.Viper) error {
	err := v.ReadInConfig()
	if err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			return ErrConfigFileMissing
		}
		return fmt.Errorf("%w: %w", ErrReadingConfigFile, err)
	}
	return nil
}

// validateConfig checks the sections every command uses.
func validateConfig(cfg *Config) error {
	if cfg.Batch.Workers <= 0 {
		return ErrInvalidBatchWorkers
	}
	if err := cfg.Batch.Catalog().Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidBatchCatalog, err)
	}
	if cfg.Scoring.Delay < 0 {
		return ErrInvalidScoringDelay
	}
	switch cfg.Store.Backend {
	case StoreMemory:
	case StoreBadger, StoreSQLite:
		if cfg.Store.Path == "" {
			return ErrEmptyStorePath
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownStoreBackend, cfg.Store.Backend)
	}
	return nil
}

// ValidateStream checks the sections only the streaming pipeline needs.
func ValidateStream(cfg *Config) error {
	if len(cfg.Kafka.Brokers) == 0 {
		return ErrEmptyKafkaBrokers
	}
	if cfg.Kafka.Topic == "" {
		return ErrEmptyKafkaTopic
	}
	if cfg.Kafka.GroupID == "" {
		return ErrEmptyKafkaGroupID
	}
	if cfg.Stream.Interval <= 0 || cfg.Stream.MaxSpan < cfg.Stream.Interval {
		return fmt.Errorf("%w: interval %d, maxSpan %d", ErrInvalidStreamSpan, cfg.Stream.Interval, cfg.Stream.MaxSpan)
	}
	if cfg.Pipeline.ChannelBuffer < 0 {
		return ErrInvalidChannelBuffer
	}
	if cfg.Pipeline.CalculatorShards <= 0 {
		return ErrInvalidCalculatorShards
	}
	if cfg.HTTP.Addr == "" {
		return ErrEmptyHTTPAddr
	}
	for i, f := range cfg.Stream.Features {
		if err := validateFeature(cfg.Stream, f); err != nil {
			return fmt.Errorf("stream.features[%d]: %w", i, err)
		}
	}
	return nil
}

func validateFeature(s StreamConfig, f FeatureConfig) error {
	switch f.Kind {
	case KindMean, KindStd, KindCount, KindShift, KindLag:
	case KindRangeCount:
		if f.Low > f.High {
			return fmt.Errorf("%w: low %v > high %v", ErrInvalidFeatureRange, f.Low, f.High)
		}
	case KindGradientHistogram:
		if f.Bins <= 0 {
			return fmt.Errorf("%w: bins %d", ErrInvalidFeatureRange, f.Bins)
		}
		if f.Low < -90 || f.High > 90 || f.Low > f.High {
			return fmt.Errorf("%w: degrees [%v, %v]", ErrInvalidFeatureRange, f.Low, f.High)
		}
	default:
		return fmt.Errorf("%w: %q", ErrInvalidFeatureKind, f.Kind)
	}

	if len(f.Windows) == 0 {
		return fmt.Errorf("%w: %s has no windows", ErrInvalidFeatureWindow, f.Kind)
	}
	for _, w := range f.Windows {
		if w < s.Interval || w > s.MaxSpan {
			return fmt.Errorf("%w: %d not in [%d, %d]", ErrInvalidFeatureWindow, w, s.Interval, s.MaxSpan)
		}
	}
	return nil
}
