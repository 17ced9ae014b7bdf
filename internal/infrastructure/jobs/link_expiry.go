package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"kaiapay.backend/internal/metrics"
	"kaiapay.backend/pkg/logger"
)

// DefaultLinkExpirySpec runs the sweep once a minute
const DefaultLinkExpirySpec = "@every 1m"

// LinkExpiryStore moves overdue pending link transfers to expired
type LinkExpiryStore interface {
	ExpirePendingBefore(ctx context.Context, now time.Time) ([]uuid.UUID, error)
}

// LinkExpiryJob periodically expires link transfers whose deadline passed
type LinkExpiryJob struct {
	store   LinkExpiryStore
	spec    string
	timeout time.Duration
	now     func() time.Time
	cron    *cron.Cron
}

// NewLinkExpiryJob creates the job; an empty spec uses DefaultLinkExpirySpec
func NewLinkExpiryJob(store LinkExpiryStore, spec string, timeout time.Duration) *LinkExpiryJob {
	if spec == "" {
		spec = DefaultLinkExpirySpec
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &LinkExpiryJob{
		store:   store,
		spec:    spec,
		timeout: timeout,
		now:     time.Now,
	}
}

// Start schedules the sweep and returns once the scheduler is running.
// The scheduler stops when ctx is canceled.
func (j *LinkExpiryJob) Start(ctx context.Context) error {
	l := cronLogger{log: logger.GetLogger().Sugar()}
	c := cron.New(cron.WithLogger(l), cron.WithChain(
		cron.Recover(l),
		cron.SkipIfStillRunning(l),
	))
	if _, err := c.AddFunc(j.spec, func() { j.RunOnce(ctx) }); err != nil {
		return fmt.Errorf("schedule link expiry %q: %w", j.spec, err)
	}
	j.cron = c
	c.Start()
	logger.Info(ctx, "link expiry job started", zap.String("spec", j.spec))

	go func() {
		<-ctx.Done()
		j.Stop()
	}()
	return nil
}

// Stop halts the scheduler and waits for a running sweep to finish
func (j *LinkExpiryJob) Stop() {
	if j.cron == nil {
		return
	}
	<-j.cron.Stop().Done()
}

// RunOnce expires every overdue pending link transfer
func (j *LinkExpiryJob) RunOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	runCtx, cancel := context.WithTimeout(ctx, j.timeout)
	defer cancel()

	ids, err := j.store.ExpirePendingBefore(runCtx, j.now())
	if err != nil {
		metrics.LinkExpiryRuns.WithLabelValues(metrics.OutcomeFailure).Inc()
		logger.Error(ctx, "link expiry sweep failed", zap.Error(err))
		return
	}

	metrics.LinkExpiryRuns.WithLabelValues(metrics.OutcomeSuccess).Inc()
	if len(ids) == 0 {
		return
	}
	metrics.LinkExpiryExpired.Add(float64(len(ids)))
	logger.Info(ctx, "expired link transfers", zap.Int("count", len(ids)))
}

// cronLogger routes scheduler logs to zap
type cronLogger struct {
	log *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Errorw(msg, append(keysAndValues, "error", err)...)
}
