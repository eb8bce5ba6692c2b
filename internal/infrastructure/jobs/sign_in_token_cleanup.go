package jobs

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"event-board.backend/pkg/logger"
)

// ExpiredTokenPurger removes sign-in tokens past their retention window.
type ExpiredTokenPurger interface {
	DeleteExpired(ctx context.Context) (int64, error)
}

// SignInTokenCleanupJob periodically deletes expired sign-in tokens
type SignInTokenCleanupJob struct {
	purger   ExpiredTokenPurger
	interval time.Duration
	stop     chan struct{}
	stopOnce sync.Once
}

func NewSignInTokenCleanupJob(purger ExpiredTokenPurger, interval time.Duration) *SignInTokenCleanupJob {
	if interval <= 0 {
		interval = time.Hour
	}
	return &SignInTokenCleanupJob{
		purger:   purger,
		interval: interval,
		stop:     make(chan struct{}),
	}
}

func (j *SignInTokenCleanupJob) Start(ctx context.Context) {
	logger.Info(ctx, "Starting sign-in token cleanup job", zap.Duration("interval", j.interval))

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info(ctx, "Sign-in token cleanup job stopped (context cancelled)")
			return
		case <-j.stop:
			logger.Info(ctx, "Sign-in token cleanup job stopped")
			return
		case <-ticker.C:
			j.purgeExpiredTokens(ctx)
		}
	}
}

// Stop ends Start. Safe to call more than once.
func (j *SignInTokenCleanupJob) Stop() {
	j.stopOnce.Do(func() { close(j.stop) })
}

func (j *SignInTokenCleanupJob) purgeExpiredTokens(ctx context.Context) {
	n, err := j.purger.DeleteExpired(ctx)
	if err != nil {
		logger.Error(ctx, "Failed to purge expired sign-in tokens", zap.Error(err))
		return
	}
	if n > 0 {
		logger.Info(ctx, "Purged expired sign-in tokens", zap.Int64("count", n))
	}
}
