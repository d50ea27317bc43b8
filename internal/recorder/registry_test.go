package recorder

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryIDsStartAtOne(t *testing.T) {
	r := NewRegistry()
	assert.Equal(t, int64(1), r.Register("wss://a"))
	assert.Equal(t, int64(2), r.Register("wss://b"))
}

func TestRegistryRetainsURL(t *testing.T) {
	r := NewRegistry()
	id := r.Register("wss://example.com/feed")
	assert.Equal(t, "wss://example.com/feed", r.URL(id))
	assert.Equal(t, "", r.URL(999))
}

func TestRegistryConcurrentAllocation(t *testing.T) {
	r := NewRegistry()
	const workers = 32
	const perWorker = 500

	ids := make([][]int64, workers)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			ids[w] = make([]int64, 0, perWorker)
			for i := 0; i < perWorker; i++ {
				ids[w] = append(ids[w], r.Register(fmt.Sprintf("wss://host/%d", w)))
			}
		}(w)
	}
	wg.Wait()

	seen := make(map[int64]bool, workers*perWorker)
	for w := 0; w < workers; w++ {
		last := int64(0)
		for _, id := range ids[w] {
			require.False(t, seen[id], "duplicate id %d", id)
			seen[id] = true
			// Within one goroutine allocations only move forward.
			require.Greater(t, id, last)
			last = id
		}
	}
	assert.Len(t, seen, workers*perWorker)
	assert.Equal(t, int64(workers*perWorker), r.Count())
}
