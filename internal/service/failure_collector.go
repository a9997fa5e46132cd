package service

import (
	"sort"
	"strings"
	"sync"

	"github.com/noah-isme/fieldops-api/internal/models"
)

// FailureCollector is an append-only, concurrency-safe list of photo failures owned by one export.
type FailureCollector struct {
	mu       sync.Mutex
	failures []models.PhotoFailure
}

// NewFailureCollector returns an empty collector.
func NewFailureCollector() *FailureCollector {
	return &FailureCollector{}
}

// Add records a failure.
func (c *FailureCollector) Add(failure models.PhotoFailure) {
	c.mu.Lock()
	c.failures = append(c.failures, failure)
	c.mu.Unlock()
}

// Snapshot returns the failures ordered by path and photo index, independent of completion order.
func (c *FailureCollector) Snapshot() []models.PhotoFailure {
	c.mu.Lock()
	out := make([]models.PhotoFailure, len(c.failures))
	copy(out, c.failures)
	c.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].ContextPath != out[j].ContextPath {
			return out[i].ContextPath < out[j].ContextPath
		}
		return out[i].PhotoIndex < out[j].PhotoIndex
	})
	return out
}

// Summary joins every failure into one message.
func (c *FailureCollector) Summary() string {
	failures := c.Snapshot()
	parts := make([]string, len(failures))
	for i, failure := range failures {
		parts[i] = failure.String()
	}
	return strings.Join(parts, "; ")
}
