package coordinator

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urmzd/remo/pkg/metrics"
)

func TestRefresh_DeliversToListeners(t *testing.T) {
	n := 0
	c := New("test", time.Minute, func(ctx context.Context) (int, error) {
		n++
		return n, nil
	}).UseMetrics(metrics.New())

	var a, b []int
	c.Listen(func(v int) { a = append(a, v) })
	c.Listen(func(v int) { b = append(b, v) })

	require.NoError(t, c.Refresh(context.Background()))
	require.NoError(t, c.Refresh(context.Background()))

	assert.Equal(t, []int{1, 2}, a)
	assert.Equal(t, []int{1, 2}, b)
	v, ok := c.Data()
	assert.True(t, ok)
	assert.Equal(t, 2, v)
	assert.False(t, c.LastSuccess().IsZero())
}

func TestRefresh_ErrorSkipsListeners(t *testing.T) {
	fail := false
	c := New("test", time.Minute, func(ctx context.Context) (string, error) {
		if fail {
			return "", errors.New("unreachable")
		}
		return "ok", nil
	})
	called := 0
	c.Listen(func(string) { called++ })

	require.NoError(t, c.Refresh(context.Background()))
	fail = true
	assert.Error(t, c.Refresh(context.Background()))

	assert.Equal(t, 1, called)
	assert.Error(t, c.LastError())
	v, ok := c.Data()
	assert.True(t, ok)
	assert.Equal(t, "ok", v)
}

func TestData_EmptyBeforeFirstPoll(t *testing.T) {
	c := New("test", 0, func(ctx context.Context) (int, error) { return 1, nil })
	_, ok := c.Data()
	assert.False(t, ok)
	assert.Equal(t, DefaultInterval, c.interval)
}

func TestRun_PollsUntilCancelled(t *testing.T) {
	var polls atomic.Int32
	c := New("test", 10*time.Millisecond, func(ctx context.Context) (int, error) {
		return int(polls.Add(1)), nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		c.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return polls.Load() >= 3 }, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
