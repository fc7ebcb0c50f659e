package core

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunLimiter_AcquireRelease(t *testing.T) {
	limiter := NewRunLimiter(time.Second)
	assert.False(t, limiter.Status().Active)

	require.NoError(t, limiter.Acquire(context.Background()))
	status := limiter.Status()
	assert.True(t, status.Active)
	assert.False(t, status.Started.IsZero())

	limiter.Release()
	assert.False(t, limiter.Status().Active)
}

func TestRunLimiter_TimesOut(t *testing.T) {
	limiter := NewRunLimiter(20 * time.Millisecond)
	require.True(t, limiter.TryAcquire())
	defer limiter.Release()

	err := limiter.Acquire(context.Background())
	assert.ErrorIs(t, err, ErrTooManyRuns)
	assert.False(t, limiter.TryAcquire())
}

func TestRunLimiter_ContextCancelled(t *testing.T) {
	limiter := NewRunLimiter(time.Minute)
	require.True(t, limiter.TryAcquire())
	defer limiter.Release()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := limiter.Acquire(ctx)
	assert.True(t, errors.Is(err, context.Canceled), "got %v", err)
}

func TestRunLimiter_Serializes(t *testing.T) {
	limiter := NewRunLimiter(5 * time.Second)

	var (
		mu      sync.Mutex
		running int
		maxSeen int
		wg      sync.WaitGroup
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := limiter.Acquire(context.Background()); err != nil {
				t.Errorf("Acquire: %v", err)
				return
			}
			defer limiter.Release()

			mu.Lock()
			running++
			if running > maxSeen {
				maxSeen = running
			}
			mu.Unlock()

			time.Sleep(2 * time.Millisecond)

			mu.Lock()
			running--
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxSeen)
}

func TestRunLimiter_WaitForDrain(t *testing.T) {
	limiter := NewRunLimiter(time.Second)
	require.True(t, limiter.TryAcquire())

	go func() {
		time.Sleep(30 * time.Millisecond)
		limiter.Release()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, limiter.WaitForDrain(ctx))
}

func TestRunLimiter_WaitForDrainTimeout(t *testing.T) {
	limiter := NewRunLimiter(time.Second)
	require.True(t, limiter.TryAcquire())
	defer limiter.Release()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, limiter.WaitForDrain(ctx), context.DeadlineExceeded)
}
