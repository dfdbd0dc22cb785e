package fanout

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJoinCollectsResultsInOrder(t *testing.T) {
	tasks := make([]Task[int], 5)
	for i := range tasks {
		tasks[i] = func(ctx context.Context) (int, error) {
			return i * 10, nil
		}
	}

	results := Join(context.Background(), 2, tasks)
	require.Len(t, results, 5)
	for i, res := range results {
		require.NoError(t, res.Err)
		assert.Equal(t, i*10, res.Value)
	}
}

func TestJoinFailureDoesNotCancelSiblings(t *testing.T) {
	var completed atomic.Int32

	tasks := []Task[string]{
		func(ctx context.Context) (string, error) {
			return "", errors.New("boom")
		},
		func(ctx context.Context) (string, error) {
			time.Sleep(10 * time.Millisecond)
			completed.Add(1)
			return "ok", nil
		},
		func(ctx context.Context) (string, error) {
			time.Sleep(20 * time.Millisecond)
			completed.Add(1)
			return "also ok", nil
		},
	}

	results := Join(context.Background(), 0, tasks)

	assert.Error(t, results[0].Err)
	require.NoError(t, results[1].Err)
	require.NoError(t, results[2].Err)
	assert.Equal(t, "ok", results[1].Value)
	assert.Equal(t, "also ok", results[2].Value)
	assert.Equal(t, int32(2), completed.Load())
}

func TestJoinRecoversPanics(t *testing.T) {
	tasks := []Task[int]{
		func(ctx context.Context) (int, error) {
			panic("unexpected")
		},
		func(ctx context.Context) (int, error) {
			return 7, nil
		},
	}

	results := Join(context.Background(), 0, tasks)

	require.Error(t, results[0].Err)
	assert.Contains(t, results[0].Err.Error(), "panicked")
	require.NoError(t, results[1].Err)
	assert.Equal(t, 7, results[1].Value)
}

func TestJoinHonorsConcurrencyLimit(t *testing.T) {
	var inFlight, peak atomic.Int32

	tasks := make([]Task[struct{}], 20)
	for i := range tasks {
		tasks[i] = func(ctx context.Context) (struct{}, error) {
			current := inFlight.Add(1)
			for {
				observed := peak.Load()
				if current <= observed || peak.CompareAndSwap(observed, current) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			inFlight.Add(-1)
			return struct{}{}, nil
		}
	}

	Join(context.Background(), 3, tasks)
	assert.LessOrEqual(t, peak.Load(), int32(3), fmt.Sprintf("peak concurrency was %d", peak.Load()))
}

func TestJoinEmpty(t *testing.T) {
	results := Join[int](context.Background(), 4, nil)
	assert.Empty(t, results)
}
