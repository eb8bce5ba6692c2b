package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type purgerStub struct {
	calls int32
	n     int64
	err   error
}

func (s *purgerStub) DeleteExpired(context.Context) (int64, error) {
	atomic.AddInt32(&s.calls, 1)
	return s.n, s.err
}

func TestNewSignInTokenCleanupJob_DefaultInterval(t *testing.T) {
	job := NewSignInTokenCleanupJob(&purgerStub{}, 0)
	assert.Equal(t, time.Hour, job.interval)
}

func TestPurgeExpiredTokens(t *testing.T) {
	for _, stub := range []*purgerStub{{n: 0}, {n: 4}, {err: errors.New("db down")}} {
		job := NewSignInTokenCleanupJob(stub, time.Minute)
		job.purgeExpiredTokens(context.Background())
		assert.Equal(t, int32(1), atomic.LoadInt32(&stub.calls))
	}
}

func TestStartStop_StopsByContext(t *testing.T) {
	stub := &purgerStub{}
	job := NewSignInTokenCleanupJob(stub, time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		job.Start(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return atomic.LoadInt32(&stub.calls) > 0 }, time.Second, time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("job did not stop after context cancel")
	}
}

func TestStartStop_StopsByStop(t *testing.T) {
	job := NewSignInTokenCleanupJob(&purgerStub{}, time.Hour)

	done := make(chan struct{})
	go func() {
		job.Start(context.Background())
		close(done)
	}()

	job.Stop()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("job did not stop after Stop")
	}
}

func TestStop_Twice(t *testing.T) {
	job := NewSignInTokenCleanupJob(&purgerStub{}, time.Hour)

	assert.NotPanics(t, func() {
		job.Stop()
		job.Stop()
	})

	done := make(chan struct{})
	go func() {
		job.Start(context.Background())
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("job started after Stop did not return")
	}
}
