package taskrunner

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/bench-arena/bench-arena/internal/config"
	"github.com/bench-arena/bench-arena/internal/engine/orchestrator"
	"github.com/bench-arena/bench-arena/internal/executioncontext"
)

const (
	defaultTickInterval = time.Minute
	defaultMaxRetries   = 2
	defaultRetryBackoff = 30 * time.Second
)

// Runner drives the orchestrator: one tick per interval, retried with
// backoff on failure. The engine's idempotency guards make repeated and
// overlapping ticks safe, so a retry can never double-execute a day.
type Runner struct {
	orchestrator *orchestrator.Orchestrator
	logger       *slog.Logger
	tickInterval time.Duration
	maxRetries   int
	retryBackoff time.Duration
}

func New(orch *orchestrator.Orchestrator, logger *slog.Logger, schedulerConfig *config.SchedulerConfig) *Runner {
	runner := &Runner{
		orchestrator: orch,
		logger:       logger,
		tickInterval: defaultTickInterval,
		maxRetries:   defaultMaxRetries,
		retryBackoff: defaultRetryBackoff,
	}
	if schedulerConfig != nil {
		if schedulerConfig.TickInterval > 0 {
			runner.tickInterval = schedulerConfig.TickInterval
		}
		if schedulerConfig.MaxRetries > 0 {
			runner.maxRetries = schedulerConfig.MaxRetries
		}
		if schedulerConfig.RetryBackoff > 0 {
			runner.retryBackoff = schedulerConfig.RetryBackoff
		}
	}
	return runner
}

// Start blocks until the context is cancelled.
func (r *Runner) Start(ctx context.Context) {
	r.logger.Info("Task runner started", "tick_interval", r.tickInterval, "max_retries", r.maxRetries)

	ticker := time.NewTicker(r.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("Task runner stopped")
			return
		case <-ticker.C:
			r.tick(ctx)
		}
	}
}

func (r *Runner) tick(ctx context.Context) {
	executionContext := executioncontext.NewBackgroundContext(ctx, uuid.NewString(), r.logger)

	for attempt := 0; ; attempt++ {
		err := r.orchestrator.Tick(executionContext.Ctx, "", time.Now().UTC())
		if err == nil {
			return
		}
		if attempt >= r.maxRetries {
			executionContext.Logger.Error("Orchestrator tick failed, giving up",
				"attempt", attempt+1, "error", err)
			return
		}
		executionContext.Logger.Warn("Orchestrator tick failed, retrying",
			"attempt", attempt+1, "backoff", r.retryBackoff, "error", err)

		select {
		case <-ctx.Done():
			return
		case <-time.After(r.retryBackoff):
		}
	}
}
