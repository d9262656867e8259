package utils

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"go.viam.com/test"
	goutils "go.viam.com/utils"
)

func TestStoppableWorkers(t *testing.T) {
	var running atomic.Int32
	workers := NewStoppableWorkers(func(ctx context.Context) {
		running.Add(1)
		<-ctx.Done()
		running.Add(-1)
	})
	waitFor(t, func() bool { return running.Load() == 1 })
	workers.Stop()
	test.That(t, running.Load(), test.ShouldEqual, 0)
	test.That(t, workers.Context().Err(), test.ShouldNotBeNil)

	// Adding workers after stopping is a no-op.
	workers.AddWorkers(func(ctx context.Context) { running.Add(1) })
	test.That(t, running.Load(), test.ShouldEqual, 0)
}

func TestStoppableWorkerWithTicker(t *testing.T) {
	mock := clock.NewMock()
	var ticks atomic.Int32
	workers := NewStoppableWorkerWithTicker(5*time.Millisecond, mock, func(context.Context) {
		ticks.Add(1)
	})
	defer workers.Stop()

	test.That(t, ticks.Load(), test.ShouldEqual, 0)
	for i := 1; i <= 3; i++ {
		mock.Add(5 * time.Millisecond)
		want := int32(i)
		waitFor(t, func() bool { return ticks.Load() >= want })
	}
	workers.Stop()
	final := ticks.Load()
	mock.Add(50 * time.Millisecond)
	test.That(t, ticks.Load(), test.ShouldEqual, final)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for !cond() {
		if !goutils.SelectContextOrWait(ctx, time.Millisecond) {
			t.Fatal("timed out waiting for condition")
		}
	}
}
