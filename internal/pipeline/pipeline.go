package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/sanspareilsmyn/kpilens/internal/config"
	"github.com/sanspareilsmyn/kpilens/internal/message"
	"github.com/sanspareilsmyn/kpilens/internal/store"
)

// source feeds raw messages into the pipeline; the Kafka Consumer is the production one.
type source interface {
	Run(ctx context.Context) error
}

// Pipeline orchestrates the stages: consumer, parsing, calculation, publishing, plus the HTTP
// server reading the publisher's snapshots.
type Pipeline struct {
	cfg        *config.Config
	consumer   source
	calculator *Calculator
	publisher  *Publisher
	server     *Server
	logger     *zap.Logger

	rawMessages chan []byte
	samples     chan message.Sample
	vectors     chan FeatureVector
}

// New creates and wires up a new streaming pipeline reading from Kafka. reports may be nil.
func New(cfg *config.Config, reports store.Store, logger *zap.Logger) (*Pipeline, error) {
	rawMessages := make(chan []byte, cfg.Pipeline.ChannelBuffer)

	consumerInstance, err := NewConsumer(cfg.Kafka, rawMessages, logger.Named("consumer"))
	if err != nil {
		logger.Error("Failed to create consumer", zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrConsumerCreationFailed, err)
	}
	return newPipeline(cfg, consumerInstance, rawMessages, reports, logger), nil
}

func newPipeline(cfg *config.Config, src source, rawMessages chan []byte, reports store.Store, logger *zap.Logger) *Pipeline {
	initLogger := logger.Named("pipeline.init")
	buffer := cfg.Pipeline.ChannelBuffer

	samples := make(chan message.Sample, buffer)
	vectors := make(chan FeatureVector, buffer)
	initLogger.Debug("Channels created", zap.Int("bufferSize", buffer))

	calculatorInstance := NewCalculator(cfg.Stream, cfg.Pipeline.CalculatorShards, buffer, samples, vectors, logger.Named("calculator"))
	publisherInstance := NewPublisher(cfg.Stream.Features, vectors, logger.Named("publisher"))
	serverInstance := NewServer(cfg.HTTP.Addr, publisherInstance, reports, logger.Named("http"))

	initLogger.Info("Pipeline instance created successfully")
	return &Pipeline{
		cfg:         cfg,
		consumer:    src,
		calculator:  calculatorInstance,
		publisher:   publisherInstance,
		server:      serverInstance,
		logger:      logger.Named("pipeline"),
		rawMessages: rawMessages,
		samples:     samples,
		vectors:     vectors,
	}
}

// Publisher exposes the snapshot holder, mainly for tests and embedding.
func (p *Pipeline) Publisher() *Publisher { return p.publisher }

// Run starts all pipeline components and waits for them to complete or context cancellation.
// The first component error cancels the others.
func (p *Pipeline) Run(ctx context.Context) error {
	sugar := p.logger.Sugar()
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	pipelineErr := make(chan error, 5) // consumer, parser, calculator, publisher, server

	sugar.Info("Pipeline Run: Starting components...")

	wg.Add(5)
	go p.runConsumer(runCtx, &wg, pipelineErr)
	go p.runParser(runCtx, &wg)
	go p.runStage(runCtx, &wg, pipelineErr, "calculator", p.calculator.Run, ErrCalculatorRunFailed, func() { close(p.vectors) })
	go p.runStage(runCtx, &wg, pipelineErr, "publisher", p.publisher.Run, ErrPublisherRunFailed, nil)
	go p.runStage(runCtx, &wg, pipelineErr, "server", p.server.Run, ErrServerRunFailed, nil)

	var firstErr error
	select {
	case <-ctx.Done():
		sugar.Info("Pipeline Run: Context cancelled. Waiting for components to finish...")
		firstErr = ctx.Err()
	case err := <-pipelineErr:
		sugar.Errorw("Pipeline Run: Received error from a component, initiating shutdown...", zap.Error(err))
		firstErr = err
	}
	cancel()

	wg.Wait()
	sugar.Info("Pipeline Run: All components finished.")

	if firstErr != nil && !errors.Is(firstErr, context.Canceled) {
		return firstErr
	}
	return nil
}

// runConsumer executes the consumer component logic in a goroutine.
func (p *Pipeline) runConsumer(ctx context.Context, wg *sync.WaitGroup, errCh chan<- error) {
	defer wg.Done()
	defer func() {
		close(p.rawMessages)
		p.logger.Debug("Raw messages channel closed")
	}()

	if err := p.consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		p.logger.Error("Consumer component exited with error", zap.Error(err))
		errCh <- fmt.Errorf("%w: %w", ErrConsumerRunFailed, err)
	}
}

// runParser decodes raw messages into samples, dropping the malformed ones.
func (p *Pipeline) runParser(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()
	defer func() {
		close(p.samples)
		p.logger.Debug("Samples channel closed")
	}()

	parserLogger := p.logger.Named("parser").Sugar()
	parserLogger.Debug("Starting parser goroutine...")

	for {
		select {
		case rawMsg, ok := <-p.rawMessages:
			if !ok {
				parserLogger.Debug("Parser finished (raw message channel closed).")
				return
			}

			sample, err := message.ParseSample(rawMsg)
			if err != nil {
				samplesRejected.WithLabelValues(reasonParseError).Inc()
				parserLogger.Warnw("Failed to parse message, skipping", zap.Error(err))
				continue
			}
			samplesParsed.Inc()

			select {
			case p.samples <- sample:
			case <-ctx.Done():
				parserLogger.Debug("Parser context cancelled during send.", zap.Error(ctx.Err()))
				return
			}

		case <-ctx.Done():
			parserLogger.Debug("Parser context cancelled while waiting for raw message.", zap.Error(ctx.Err()))
			return
		}
	}
}

// runStage runs one component, reporting unexpected errors and running after once it exits.
func (p *Pipeline) runStage(ctx context.Context, wg *sync.WaitGroup, errCh chan<- error, name string, run func(context.Context) error, wrap error, after func()) {
	defer wg.Done()
	if after != nil {
		defer after()
	}

	p.logger.Debug("Starting component goroutine...", zap.String("component", name))
	if err := run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		p.logger.Error("Component exited with error", zap.String("component", name), zap.Error(err))
		errCh <- fmt.Errorf("%w: %w", wrap, err)
	} else {
		p.logger.Debug("Component goroutine finished", zap.String("component", name))
	}
}
