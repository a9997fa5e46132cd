package service

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/fieldops-api/internal/models"
)

func TestFailureCollectorOrdersSnapshot(t *testing.T) {
	collector := NewFailureCollector()
	var wg sync.WaitGroup
	for _, failure := range []models.PhotoFailure{
		{ContextPath: "b", PhotoIndex: 1, Reason: "HTTP 500"},
		{ContextPath: "a", PhotoIndex: 3, Reason: "timeout"},
		{ContextPath: "a", PhotoIndex: 1, Reason: "HTTP 404"},
	} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			collector.Add(failure)
		}()
	}
	wg.Wait()

	snapshot := collector.Snapshot()
	require.Len(t, snapshot, 3)
	assert.Equal(t, "a", snapshot[0].ContextPath)
	assert.Equal(t, 1, snapshot[0].PhotoIndex)
	assert.Equal(t, 3, snapshot[1].PhotoIndex)
	assert.Equal(t, "b", snapshot[2].ContextPath)
	assert.Equal(t, "a photo 1: HTTP 404; a photo 3: timeout; b photo 1: HTTP 500", collector.Summary())
}

func TestFailureCollectorEmpty(t *testing.T) {
	collector := NewFailureCollector()
	assert.Empty(t, collector.Snapshot())
	assert.Empty(t, collector.Summary())
}
