package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/storm-data-shared/retry"

	"github.com/couchcryptid/irrigation-decision-service/internal/domain"
	"github.com/couchcryptid/irrigation-decision-service/internal/observability"
)

const (
	initialBackoff = 200 * time.Millisecond
	maxBackoff     = 5 * time.Second
)

// BatchExtractor reads up to batchSize raw observations from the source.
type BatchExtractor interface {
	ExtractBatch(ctx context.Context, batchSize int) ([]domain.RawEvent, error)
}

// Transformer turns one raw observation into a serialized decision.
type Transformer interface {
	Transform(ctx context.Context, raw domain.RawEvent) (domain.OutputEvent, error)
}

// BatchLoader writes decisions to the destination.
type BatchLoader interface {
	LoadBatch(ctx context.Context, events []domain.OutputEvent) error
}

// Pipeline consumes weather observations and publishes irrigation decisions.
//
// Offsets are committed only once a message is settled: its decision was
// published, or it can never be decided. Messages that fail because an
// upstream provider is unavailable are retried in place, which keeps
// partition order intact during an outage.
type Pipeline struct {
	extractor   BatchExtractor
	transformer Transformer
	loader      BatchLoader
	logger      *slog.Logger
	metrics     *observability.Metrics
	connected   atomic.Bool
	batchSize   int
}

// New creates a Pipeline with the given stages and observability.
func New(e BatchExtractor, t Transformer, l BatchLoader, logger *slog.Logger, metrics *observability.Metrics, batchSize int) *Pipeline {
	return &Pipeline{
		extractor:   e,
		transformer: t,
		loader:      l,
		logger:      logger,
		metrics:     metrics,
		batchSize:   batchSize,
	}
}

// CheckReadiness returns nil once the source has answered a fetch, empty or not.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.connected.Load() {
		return errors.New("pipeline has not reached the source topic yet")
	}
	return nil
}

// Run consumes batches until the context is cancelled.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("pipeline started", "batch_size", p.batchSize)
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	pause := &backoff{delay: initialBackoff}
	for ctx.Err() == nil {
		batch, err := p.extractor.ExtractBatch(ctx, p.batchSize)
		if err != nil {
			if ctx.Err() == nil {
				p.logger.Error("extract batch failed", "error", err, "retry_in", pause.delay)
				pause.wait(ctx)
			}
			continue
		}
		p.connected.Store(true)
		pause.reset()
		if len(batch) > 0 {
			p.settle(ctx, batch, pause)
		}
	}

	p.logger.Info("pipeline stopping", "reason", ctx.Err())
	return nil
}

// settle decides every message of batch, publishes the decisions and commits.
// It returns early, leaving the remainder uncommitted, only when ctx ends.
func (p *Pipeline) settle(ctx context.Context, batch []domain.RawEvent, pause *backoff) {
	start := time.Now()
	p.metrics.MessagesConsumed.Add(float64(len(batch)))
	p.metrics.BatchSize.Observe(float64(len(batch)))

	decisions := make([]domain.OutputEvent, 0, len(batch))
	decided := make([]domain.RawEvent, 0, len(batch))
	for _, raw := range batch {
		out, ok := p.decide(ctx, raw, pause)
		if ctx.Err() != nil {
			return
		}
		if ok {
			decisions = append(decisions, out)
			decided = append(decided, raw)
		}
	}
	if len(decisions) == 0 {
		return
	}

	for {
		err := p.loader.LoadBatch(ctx, decisions)
		if err == nil {
			break
		}
		p.logger.Error("load batch failed", "error", err, "batch_size", len(decisions), "retry_in", pause.delay)
		if !pause.wait(ctx) {
			return
		}
	}

	p.metrics.MessagesProduced.Add(float64(len(decisions)))
	for _, raw := range decided {
		p.commit(ctx, raw)
	}
	p.metrics.BatchProcessingDuration.Observe(time.Since(start).Seconds())
}

// decide transforms one message. Provider outages are retried with backoff;
// any other failure marks the message as poison, which is committed and
// reported as not ok.
func (p *Pipeline) decide(ctx context.Context, raw domain.RawEvent, pause *backoff) (domain.OutputEvent, bool) {
	for {
		out, err := p.transformer.Transform(ctx, raw)
		switch {
		case err == nil:
			return out, true
		case ctx.Err() != nil:
			return domain.OutputEvent{}, false
		case errors.Is(err, domain.ErrProviderUnavailable):
			p.logger.Warn("provider unavailable, holding message",
				"error", err, "partition", raw.Partition, "offset", raw.Offset, "retry_in", pause.delay)
			if !pause.wait(ctx) {
				return domain.OutputEvent{}, false
			}
		default:
			p.logger.Warn("decision failed, skipping message",
				"error", err,
				"topic", raw.Topic,
				"partition", raw.Partition,
				"offset", raw.Offset,
			)
			p.metrics.TransformErrors.Inc()
			p.commit(ctx, raw)
			return domain.OutputEvent{}, false
		}
	}
}

func (p *Pipeline) commit(ctx context.Context, raw domain.RawEvent) {
	if raw.Commit == nil {
		return
	}
	if err := raw.Commit(ctx); err != nil {
		p.logger.Warn("commit offset failed", "error", err,
			"topic", raw.Topic, "partition", raw.Partition, "offset", raw.Offset)
	}
}

// backoff is the shared exponential delay between retries of any stage.
type backoff struct {
	delay time.Duration
}

// wait sleeps for the current delay and doubles it up to maxBackoff. It
// reports false if ctx ended first.
func (b *backoff) wait(ctx context.Context) bool {
	if !retry.SleepWithContext(ctx, b.delay) {
		return false
	}
	b.delay = retry.NextBackoff(b.delay, maxBackoff)
	return true
}

func (b *backoff) reset() {
	b.delay = initialBackoff
}
