package scan

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueDrainBarrier(t *testing.T) {
	const ports = 200
	for _, workers := range []int{7, ports, ports * 3} {
		t.Run(fmt.Sprintf("workers=%d", workers), func(t *testing.T) {
			ctx := context.Background()
			q := NewQueue(16)

			var done atomic.Int64
			var wg sync.WaitGroup
			for i := 0; i < workers; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					for {
						_, ok := q.Dequeue(ctx)
						if !ok {
							return
						}
						done.Add(1)
						q.MarkDone()
					}
				}()
			}

			for p := 1; p <= ports; p++ {
				require.NoError(t, q.Enqueue(ctx, uint16(p)))
			}
			q.Close()

			require.NoError(t, q.WaitUntilDrained(ctx))
			assert.EqualValues(t, ports, done.Load())
			assert.Equal(t, 0, q.Pending())
			wg.Wait()
		})
	}
}

func TestQueueNotDrainedBeforeMarkDone(t *testing.T) {
	ctx := context.Background()
	q := NewQueue(4)
	require.NoError(t, q.Enqueue(ctx, 1))
	require.NoError(t, q.Enqueue(ctx, 2))
	q.Close()

	for i := 0; i < 2; i++ {
		_, ok := q.Dequeue(ctx)
		require.True(t, ok)
	}
	select {
	case <-q.Drained():
		t.Fatal("drained before any item was marked done")
	default:
	}

	q.MarkDone()
	select {
	case <-q.Drained():
		t.Fatal("drained with one item still in flight")
	default:
	}

	q.MarkDone()
	select {
	case <-q.Drained():
	case <-time.After(time.Second):
		t.Fatal("queue never drained")
	}

	_, ok := q.Dequeue(ctx)
	assert.False(t, ok)
}

func TestQueueEmptyCloseIsDrained(t *testing.T) {
	q := NewQueue(0)
	q.Close()
	q.Close()
	assert.NoError(t, q.WaitUntilDrained(context.Background()))
}

func TestQueueEnqueueAfterClose(t *testing.T) {
	q := NewQueue(1)
	q.Close()
	assert.ErrorIs(t, q.Enqueue(context.Background(), 80), ErrQueueClosed)
}

func TestQueueEnqueueCanceled(t *testing.T) {
	q := NewQueue(0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := q.Enqueue(ctx, 80)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, q.Pending())
}

func TestQueueWaitCanceled(t *testing.T) {
	q := NewQueue(1)
	require.NoError(t, q.Enqueue(context.Background(), 1))
	q.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, q.WaitUntilDrained(ctx), context.DeadlineExceeded)
}

func TestQueueDiscard(t *testing.T) {
	ctx := context.Background()
	q := NewQueue(10)
	for p := 1; p <= 5; p++ {
		require.NoError(t, q.Enqueue(ctx, uint16(p)))
	}
	q.Close()

	port, ok := q.Dequeue(ctx)
	require.True(t, ok)
	assert.EqualValues(t, 1, port)

	assert.Equal(t, 4, q.Discard())
	assert.Equal(t, 1, q.Pending())

	q.MarkDone()
	assert.NoError(t, q.WaitUntilDrained(ctx))
}

func TestQueueDequeueCanceled(t *testing.T) {
	q := NewQueue(0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, ok := q.Dequeue(ctx)
	assert.False(t, ok)
}

func TestQueueFIFO(t *testing.T) {
	ctx := context.Background()
	q := NewQueue(3)
	for _, p := range []uint16{30, 10, 20} {
		require.NoError(t, q.Enqueue(ctx, p))
	}
	for _, want := range []uint16{30, 10, 20} {
		got, ok := q.Dequeue(ctx)
		require.True(t, ok)
		assert.Equal(t, want, got)
		q.MarkDone()
	}
}

func TestQueueCloseDuringEnqueue(t *testing.T) {
	ctx := context.Background()
	q := NewQueue(1)

	consumed := make(chan int)
	go func() {
		n := 0
		for {
			if _, ok := q.Dequeue(ctx); !ok {
				consumed <- n
				return
			}
			n++
			q.MarkDone()
		}
	}()

	var (
		wg       sync.WaitGroup
		accepted atomic.Int64
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for port := 1; port <= 500; port++ {
				err := q.Enqueue(ctx, uint16(port))
				if errors.Is(err, ErrQueueClosed) {
					return
				}
				if !assert.NoError(t, err) {
					return
				}
				accepted.Add(1)
			}
		}()
	}

	time.Sleep(time.Millisecond)
	q.Close()
	wg.Wait()

	require.NoError(t, q.WaitUntilDrained(ctx))
	assert.EqualValues(t, accepted.Load(), <-consumed)
	assert.ErrorIs(t, q.Enqueue(ctx, 1), ErrQueueClosed)
}
