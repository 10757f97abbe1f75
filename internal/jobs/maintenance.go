package jobs

import (
	"context"
	"time"

	"greenidle/internal/service"
	"greenidle/pkg/logger"
	"greenidle/pkg/ratelimit"
)

// LimiterPruneJob drops idle rate-limiter keys so one-off source
// addresses do not accumulate over the coordinator's lifetime.
type LimiterPruneJob struct {
	limiter *ratelimit.Limiter
	window  time.Duration
}

// NewLimiterPruneJob creates a prune job. window should cover the
// widest configured rate window.
func NewLimiterPruneJob(limiter *ratelimit.Limiter, window time.Duration) *LimiterPruneJob {
	return &LimiterPruneJob{limiter: limiter, window: window}
}

func (j *LimiterPruneJob) Name() string { return "limiter-prune" }

func (j *LimiterPruneJob) Interval() time.Duration { return 5 * time.Minute }

func (j *LimiterPruneJob) Run(ctx context.Context) error {
	removed := j.limiter.Prune(j.window)
	if removed > 0 {
		logger.DebugCtx(ctx, "pruned %d idle rate-limiter keys, %d remain", removed, j.limiter.Keys())
	}
	return nil
}

// GaugeRefreshJob keeps the Prometheus gauges in sync with the stores.
type GaugeRefreshJob struct {
	statusService *service.StatusService
}

// NewGaugeRefreshJob creates a gauge refresh job.
func NewGaugeRefreshJob(statusService *service.StatusService) *GaugeRefreshJob {
	return &GaugeRefreshJob{statusService: statusService}
}

func (j *GaugeRefreshJob) Name() string { return "gauge-refresh" }

func (j *GaugeRefreshJob) Interval() time.Duration { return 15 * time.Second }

func (j *GaugeRefreshJob) Run(ctx context.Context) error {
	j.statusService.RefreshGauges(ctx)
	return nil
}
