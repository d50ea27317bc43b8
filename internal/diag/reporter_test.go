package diag

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestReporter(limit int) *Reporter {
	return NewReporter(slog.New(slog.NewTextHandler(io.Discard, nil)), limit)
}

func TestReporterRetainsEvents(t *testing.T) {
	r := newTestReporter(10)
	r.Report("first failure", errors.New("disk full"))
	r.Report("second failure", nil)

	events := r.Recent()
	require.Len(t, events, 2)

	// Newest first.
	assert.Equal(t, "second failure", events[0].Message)
	assert.Empty(t, events[0].Detail)
	assert.Equal(t, "first failure", events[1].Message)
	assert.Equal(t, "disk full", events[1].Detail)
	assert.False(t, events[0].Time.IsZero())
}

func TestReporterDropsOldestPastLimit(t *testing.T) {
	r := newTestReporter(3)
	for i := 0; i < 5; i++ {
		r.Report(fmt.Sprintf("failure %d", i), nil)
	}

	events := r.Recent()
	require.Len(t, events, 3)
	assert.Equal(t, "failure 4", events[0].Message)
	assert.Equal(t, "failure 2", events[2].Message)
}

func TestReporterDefaultLimit(t *testing.T) {
	r := newTestReporter(0)
	for i := 0; i < 150; i++ {
		r.Report("failure", nil)
	}
	assert.Len(t, r.Recent(), 100)
}

func TestReporterConcurrentReports(t *testing.T) {
	r := newTestReporter(1000)

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				r.Report("concurrent failure", nil)
			}
		}()
	}
	wg.Wait()

	assert.Len(t, r.Recent(), 800)
}
