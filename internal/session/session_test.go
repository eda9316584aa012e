package session

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type countingBlacklist struct {
	sweeps atomic.Int32
	err    error
}

func (c *countingBlacklist) Revoke(context.Context, string, string, time.Time) error { return nil }
func (c *countingBlacklist) IsRevoked(context.Context, string) (bool, error)          { return false, nil }
func (c *countingBlacklist) CleanupExpired(context.Context) (int64, error) {
	c.sweeps.Add(1)
	return 2, c.err
}

func TestJanitor_SweepsUntilCancelled(t *testing.T) {
	bl := &countingBlacklist{}
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		NewJanitor(bl, 5*time.Millisecond).Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return bl.sweeps.Load() >= 2 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("janitor did not stop")
	}
}

func TestJanitor_SurvivesErrors(t *testing.T) {
	bl := &countingBlacklist{err: errors.New("connection refused")}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go NewJanitor(bl, 5*time.Millisecond).Run(ctx)

	assert.Eventually(t, func() bool { return bl.sweeps.Load() >= 3 }, time.Second, 5*time.Millisecond)
}

func TestNewJanitor_DefaultInterval(t *testing.T) {
	assert.Equal(t, time.Hour, NewJanitor(&countingBlacklist{}, 0).interval)
}
