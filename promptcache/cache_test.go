package promptcache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingRephraser struct {
	calls atomic.Int32
	delay time.Duration
	err   error
}

func (r *countingRephraser) Rephrase(ctx context.Context, input string) (string, error) {
	r.calls.Add(1)
	select {
	case <-time.After(r.delay):
	case <-ctx.Done():
		return "", ctx.Err()
	}
	if r.err != nil {
		return "", r.err
	}
	return "rephrased " + input, nil
}

func TestCachedRephraserHitsCache(t *testing.T) {
	next := &countingRephraser{}
	var hits, misses int
	c := NewCachedRephraser(next, time.Minute, time.Minute, time.Second, func(hit bool) {
		if hit {
			hits++
		} else {
			misses++
		}
	})

	first, err := c.Rephrase(context.Background(), "a cat")
	require.NoError(t, err)
	second, err := c.Rephrase(context.Background(), "  a cat  ")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.EqualValues(t, 1, next.calls.Load())
	assert.Equal(t, 1, hits)
	assert.Equal(t, 1, misses)
	assert.Equal(t, 1, c.Len())
}

func TestCachedRephraserDoesNotCacheErrors(t *testing.T) {
	next := &countingRephraser{err: errors.New("runtime down")}
	c := NewCachedRephraser(next, time.Minute, time.Minute, time.Second, nil)

	_, err := c.Rephrase(context.Background(), "a cat")
	assert.Error(t, err)
	_, err = c.Rephrase(context.Background(), "a cat")
	assert.Error(t, err)

	assert.EqualValues(t, 2, next.calls.Load())
	assert.Zero(t, c.Len())
}

func TestCachedRephraserCollapsesConcurrentCalls(t *testing.T) {
	next := &countingRephraser{delay: 50 * time.Millisecond}
	c := NewCachedRephraser(next, time.Minute, time.Minute, time.Second, nil)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out, err := c.Rephrase(context.Background(), "a dog")
			assert.NoError(t, err)
			assert.Equal(t, "rephrased a dog", out)
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, next.calls.Load())
}

func TestCachedRephraserSurvivesFirstCallerCancel(t *testing.T) {
	next := &countingRephraser{delay: 100 * time.Millisecond}
	c := NewCachedRephraser(next, time.Minute, time.Minute, time.Second, nil)

	firstCtx, cancelFirst := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := c.Rephrase(firstCtx, "a cat")
		firstErr <- err
	}()

	// let the first caller start the shared call before joining it
	time.Sleep(10 * time.Millisecond)
	second := make(chan string, 1)
	go func() {
		out, err := c.Rephrase(context.Background(), "a cat")
		assert.NoError(t, err)
		second <- out
	}()

	time.Sleep(10 * time.Millisecond)
	cancelFirst()

	assert.ErrorIs(t, <-firstErr, context.Canceled)
	assert.Equal(t, "rephrased a cat", <-second)
	assert.EqualValues(t, 1, next.calls.Load())
	assert.Equal(t, 1, c.Len())
}

func TestCachedRephraserTimeoutBoundsSharedCall(t *testing.T) {
	next := &countingRephraser{delay: time.Second}
	c := NewCachedRephraser(next, time.Minute, time.Minute, 20*time.Millisecond, nil)

	_, err := c.Rephrase(context.Background(), "a slow cat")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Zero(t, c.Len())
}
