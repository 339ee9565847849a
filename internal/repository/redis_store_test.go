package repository

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestKeepAliveRefreshesUntilStopped(t *testing.T) {
	var calls int32
	stop := keepAlive(context.Background(), 5*time.Millisecond, func(context.Context) error {
		atomic.AddInt32(&calls, 1)
		return nil
	}, zap.NewNop())

	assert.Eventually(t, func() bool { return atomic.LoadInt32(&calls) >= 3 }, time.Second, 5*time.Millisecond)
	stop()

	settled := atomic.LoadInt32(&calls)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, settled, atomic.LoadInt32(&calls))
}

func TestKeepAliveLogsFailedRefresh(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	stop := keepAlive(context.Background(), 5*time.Millisecond, func(context.Context) error {
		return errors.New("redislock: not obtained")
	}, zap.New(core))
	defer stop()

	assert.Eventually(t, func() bool {
		return logs.FilterMessage("failed to refresh redis lock").Len() > 0
	}, time.Second, 5*time.Millisecond)
}

func TestKeepAliveStopsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var calls int32
	stop := keepAlive(ctx, 5*time.Millisecond, func(context.Context) error {
		atomic.AddInt32(&calls, 1)
		return nil
	}, zap.NewNop())
	cancel()
	stop()

	settled := atomic.LoadInt32(&calls)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, settled, atomic.LoadInt32(&calls))

	noop := keepAlive(context.Background(), 0, func(context.Context) error { return nil }, zap.NewNop())
	noop()
}
