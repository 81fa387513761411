package pipeline

import "errors"

var (
	ErrInvalidKafkaConfig     = errors.New("invalid Kafka configuration provided")
	ErrKafkaFetchFailed       = errors.New("failed to fetch message from Kafka")
	ErrConsumerCreationFailed = errors.New("failed to create consumer")
	ErrConsumerRunFailed      = errors.New("consumer component failed")
	ErrCalculatorRunFailed    = errors.New("calculator component failed")
	ErrPublisherRunFailed     = errors.New("publisher component failed")
	ErrServerRunFailed        = errors.New("http server failed")
	ErrUnknownFeatureKind     = errors.New("unknown stream feature kind")
)
