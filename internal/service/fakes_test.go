package service

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/noah-isme/fieldops-api/internal/models"
)

type fakeProfiles struct {
	mu       sync.Mutex
	profiles map[string]models.Profile
	units    map[string][]models.UnitRef
	workers  map[string][]models.WorkerRef
	calls    int
	err      error
}

func newFakeProfiles() *fakeProfiles {
	return &fakeProfiles{
		profiles: map[string]models.Profile{},
		units:    map[string][]models.UnitRef{},
		workers:  map[string][]models.WorkerRef{},
	}
}

func (f *fakeProfiles) touch() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.err
}

func (f *fakeProfiles) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeProfiles) FindByID(_ context.Context, id string) (*models.Profile, error) {
	if err := f.touch(); err != nil {
		return nil, err
	}
	profile, ok := f.profiles[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &profile, nil
}

func (f *fakeProfiles) FindWorker(_ context.Context, id string) (*models.WorkerRef, error) {
	if err := f.touch(); err != nil {
		return nil, err
	}
	for _, workers := range f.workers {
		for _, worker := range workers {
			if worker.ID == id {
				w := worker
				return &w, nil
			}
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeProfiles) ListUnitsOwnedBy(_ context.Context, ownerID string) ([]models.UnitRef, error) {
	if err := f.touch(); err != nil {
		return nil, err
	}
	return f.units[ownerID], nil
}

func (f *fakeProfiles) ListWorkersOwnedBy(_ context.Context, ownerID string) ([]models.WorkerRef, error) {
	if err := f.touch(); err != nil {
		return nil, err
	}
	return f.workers[ownerID], nil
}

type fakeItems struct {
	mu     sync.Mutex
	items  []models.ItemSummary
	photos map[string][]models.PhotoRef
	calls  int
	err    error
}

func newFakeItems() *fakeItems {
	return &fakeItems{photos: map[string][]models.PhotoRef{}}
}

func (f *fakeItems) add(id, name, workerID string, created time.Time, photos ...models.PhotoRef) {
	worker := workerID
	f.items = append(f.items, models.ItemSummary{ID: id, Name: name, WorkerID: &worker, CreatedAt: created})
	f.photos[id] = photos
}

func (f *fakeItems) touch() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.err
}

func (f *fakeItems) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeItems) sorted(keep func(models.ItemSummary) bool) []models.ItemSummary {
	var out []models.ItemSummary
	for _, item := range f.items {
		if keep(item) {
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (f *fakeItems) ListByWorker(_ context.Context, workerID string) ([]models.ItemSummary, error) {
	if err := f.touch(); err != nil {
		return nil, err
	}
	return f.sorted(func(item models.ItemSummary) bool {
		return item.WorkerID != nil && *item.WorkerID == workerID
	}), nil
}

func (f *fakeItems) ListByWorkersInRange(_ context.Context, workerIDs []string, from, to time.Time) ([]models.ItemSummary, error) {
	if err := f.touch(); err != nil {
		return nil, err
	}
	wanted := map[string]bool{}
	for _, id := range workerIDs {
		wanted[id] = true
	}
	return f.sorted(func(item models.ItemSummary) bool {
		return item.WorkerID != nil && wanted[*item.WorkerID] &&
			!item.CreatedAt.Before(from) && !item.CreatedAt.After(to)
	}), nil
}

func (f *fakeItems) GetWithPhotos(ctx context.Context, itemID string) (*models.ItemDetail, error) {
	if err := f.touch(); err != nil {
		return nil, err
	}
	for _, item := range f.items {
		if item.ID == itemID {
			return &models.ItemDetail{ItemSummary: item, Photos: f.photos[itemID]}, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeItems) ListPhotos(_ context.Context, itemID string) ([]models.PhotoRef, error) {
	if err := f.touch(); err != nil {
		return nil, err
	}
	return f.photos[itemID], nil
}

type fetchResponse struct {
	data  []byte
	err   error
	delay time.Duration
}

type fakeFetcher struct {
	responses map[string]fetchResponse
	calls     atomic.Int64
	inFlight  atomic.Int64
	maxFlight atomic.Int64
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{responses: map[string]fetchResponse{}}
}

func (f *fakeFetcher) Fetch(ctx context.Context, address string) ([]byte, error) {
	f.calls.Add(1)
	current := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		seen := f.maxFlight.Load()
		if current <= seen || f.maxFlight.CompareAndSwap(seen, current) {
			break
		}
	}

	resp, ok := f.responses[address]
	if !ok {
		return []byte("bytes:" + address), nil
	}
	if resp.delay > 0 {
		select {
		case <-time.After(resp.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if resp.err != nil {
		return nil, resp.err
	}
	return resp.data, nil
}

type fakeCache struct {
	mu          sync.Mutex
	entries     map[string]models.Ownership
	hits        int
	invalidated []string
}

func (c *fakeCache) Get(_ context.Context, key string, dest interface{}) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	value, ok := c.entries[key]
	if !ok {
		return false, nil
	}
	c.hits++
	*(dest.(*models.Ownership)) = value
	return true, nil
}

func (c *fakeCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.entries == nil {
		c.entries = map[string]models.Ownership{}
	}
	c.entries[key] = value.(models.Ownership)
	return nil
}

func (c *fakeCache) Invalidate(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, key := range keys {
		delete(c.entries, key)
	}
	c.invalidated = append(c.invalidated, keys...)
	return nil
}

func strPtr(s string) *string {
	return &s
}

func photo(id, name, address string) models.PhotoRef {
	p := models.PhotoRef{ID: id, Name: strPtr(name)}
	if address != "" {
		p.Address = strPtr(address)
	}
	return p
}
