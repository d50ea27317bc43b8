package queue

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueFIFO(t *testing.T) {
	q := New()
	for i := 0; i < 10; i++ {
		q.Push(fmt.Sprintf("record-%d", i))
	}

	ctx := context.Background()
	for i := 0; i < 10; i++ {
		rec, err := q.Pop(ctx)
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("record-%d", i), rec)
	}
	assert.Equal(t, 0, q.Len())
}

func TestQueuePopBlocksUntilPush(t *testing.T) {
	q := New()

	got := make(chan string, 1)
	go func() {
		rec, err := q.Pop(context.Background())
		if err == nil {
			got <- rec
		}
	}()

	select {
	case <-got:
		t.Fatal("Pop returned before any Push")
	case <-time.After(50 * time.Millisecond):
	}

	q.Push("late")
	select {
	case rec := <-got:
		assert.Equal(t, "late", rec)
	case <-time.After(time.Second):
		t.Fatal("Pop did not observe the push")
	}
}

func TestQueueConcurrentProducers(t *testing.T) {
	q := New()
	const producers = 16
	const perProducer = 200

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				q.Push(fmt.Sprintf("p%d-%d", p, i))
			}
		}(p)
	}
	wg.Wait()

	// Every record arrives exactly once, and each producer's records come
	// out in its push order.
	lastSeen := make(map[int]int)
	for p := 0; p < producers; p++ {
		lastSeen[p] = -1
	}
	ctx := context.Background()
	for n := 0; n < producers*perProducer; n++ {
		rec, err := q.Pop(ctx)
		require.NoError(t, err)

		var p, i int
		_, err = fmt.Sscanf(rec, "p%d-%d", &p, &i)
		require.NoError(t, err)
		assert.Greater(t, i, lastSeen[p], "out of order within producer %d", p)
		lastSeen[p] = i
	}
	assert.Equal(t, 0, q.Len())
}

func TestQueueCloseDrainsPendingRecords(t *testing.T) {
	q := New()
	q.Push("a")
	q.Push("b")
	q.Close()

	ctx := context.Background()
	rec, err := q.Pop(ctx)
	require.NoError(t, err)
	assert.Equal(t, "a", rec)

	rec, err = q.Pop(ctx)
	require.NoError(t, err)
	assert.Equal(t, "b", rec)

	_, err = q.Pop(ctx)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestQueuePopHonorsContextCancel(t *testing.T) {
	q := New()
	ctx, cancel := context.WithCancel(context.Background())

	errs := make(chan error, 1)
	go func() {
		_, err := q.Pop(ctx)
		errs <- err
	}()

	cancel()
	select {
	case err := <-errs:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Pop did not return after cancellation")
	}
}
