package scan

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdash/types"
)

func TestResultsConcurrentInsert(t *testing.T) {
	r := NewResults()

	var wg sync.WaitGroup
	for p := 1000; p >= 1; p-- {
		wg.Add(1)
		go func(port uint16) {
			defer wg.Done()
			r.Insert(port, "svc")
		}(uint16(p))
	}
	wg.Wait()

	require.Equal(t, 1000, r.Len())
	snap := r.Snapshot()
	require.Len(t, snap, 1000)
	for i, ps := range snap {
		assert.EqualValues(t, i+1, ps.Port)
	}
}

func TestResultsSnapshotSorted(t *testing.T) {
	r := NewResults()
	r.Insert(8080, "http-alt")
	r.Insert(22, "ssh")
	r.Insert(65535, "n/a")
	r.Insert(80, "http")

	assert.Equal(t, []types.PortService{
		{Port: 22, Service: "ssh"},
		{Port: 80, Service: "http"},
		{Port: 8080, Service: "http-alt"},
		{Port: 65535, Service: "n/a"},
	}, r.Snapshot())
}

func TestResultsEmpty(t *testing.T) {
	assert.Empty(t, NewResults().Snapshot())
}
