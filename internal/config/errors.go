package config

import "errors"

var (
	ErrReadingConfigFile       = errors.New("failed to read config file")
	ErrUnmarshallingConfig     = errors.New("failed to unmarshal config")
	ErrConfigFileMissing       = errors.New("config file not found")
	ErrEmptyKafkaBrokers       = errors.New("kafka brokers list cannot be empty")
	ErrEmptyKafkaTopic         = errors.New("kafka topic cannot be empty")
	ErrEmptyKafkaGroupID       = errors.New("kafka groupID cannot be empty")
	ErrInvalidStreamSpan       = errors.New("stream interval must be positive and not exceed maxSpan")
	ErrInvalidFeatureKind      = errors.New("unknown stream feature kind")
	ErrInvalidFeatureWindow    = errors.New("stream feature window out of range")
	ErrInvalidFeatureRange     = errors.New("stream feature range is invalid")
	ErrInvalidChannelBuffer    = errors.New("pipeline channelBuffer cannot be negative")
	ErrInvalidCalculatorShards = errors.New("pipeline calculatorShards must be positive")
	ErrEmptyHTTPAddr           = errors.New("http addr cannot be empty")
	ErrInvalidBatchWorkers     = errors.New("batch workers must be positive")
	ErrInvalidBatchCatalog     = errors.New("batch feature catalog is invalid")
	ErrInvalidScoringDelay     = errors.New("scoring delay cannot be negative")
	ErrEmptyStorePath          = errors.New("store path cannot be empty for a durable backend")
	ErrUnknownStoreBackend     = errors.New("unknown store backend")
)
