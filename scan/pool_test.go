package scan

import (
	"context"
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdash/types"
)

// A prober that reports some ports unreachable must not affect the others.
type mixedProber struct{}

func (mixedProber) Probe(_ context.Context, _ netip.Addr, port uint16) types.Outcome {
	switch port % 3 {
	case 0:
		return types.Outcome{Port: port, State: types.OPEN, Service: "x"}
	case 1:
		return types.Outcome{Port: port, State: types.CLOSED}
	default:
		return types.Outcome{Port: port, State: types.UNREACHABLE}
	}
}

func TestPoolCountsEveryOutcome(t *testing.T) {
	ctx := context.Background()
	q := NewQueue(8)
	results := NewResults()
	counts := new(Counters)

	pool := StartPool(ctx, 4, loopback, q, mixedProber{}, results, counts, nil, nil)
	for p := 1; p <= 300; p++ {
		require.NoError(t, q.Enqueue(ctx, uint16(p)))
	}
	q.Close()
	require.NoError(t, q.WaitUntilDrained(ctx))
	pool.Wait()

	assert.EqualValues(t, 100, counts.Open.Load())
	assert.EqualValues(t, 100, counts.Closed.Load())
	assert.EqualValues(t, 100, counts.Unreachable.Load())
	assert.EqualValues(t, 300, counts.Total())
	assert.Equal(t, 100, results.Len())
}

func TestPoolZeroWorkersStillDrains(t *testing.T) {
	ctx := context.Background()
	q := NewQueue(1)
	results := NewResults()

	pool := StartPool(ctx, 0, loopback, q, mixedProber{}, results, nil, nil, nil)
	for p := 1; p <= 10; p++ {
		require.NoError(t, q.Enqueue(ctx, uint16(p)))
	}
	q.Close()
	pool.Wait()
	assert.NoError(t, q.WaitUntilDrained(ctx))
	assert.Equal(t, 3, results.Len())
}
