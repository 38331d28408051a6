package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/okian/wakepoint/internal/domain/model"
	"github.com/okian/wakepoint/pkg/metrics"
)

// MemoryStore keeps analyses in a map. It is safe for concurrent use.
type MemoryStore struct {
	mu   sync.RWMutex
	byID map[string]model.Analysis
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byID: make(map[string]model.Analysis)}
}

// Save implements Store.Save.
func (s *MemoryStore) Save(_ context.Context, a model.Analysis) error {
	start := time.Now()
	if a.ID == "" {
		observe("save", start, ErrInvalidID)
		return ErrInvalidID
	}
	defer observe("save", start, nil)
	s.mu.Lock()
	s.byID[a.ID] = a
	n := len(s.byID)
	s.mu.Unlock()
	metrics.UpdateStoredAnalyses(n)
	return nil
}

// Get implements Store.Get.
func (s *MemoryStore) Get(_ context.Context, id string) (model.Analysis, error) {
	start := time.Now()
	s.mu.RLock()
	a, ok := s.byID[id]
	s.mu.RUnlock()
	if !ok {
		observe("get", start, ErrNotFound)
		return model.Analysis{}, ErrNotFound
	}
	observe("get", start, nil)
	return a, nil
}

// Delete implements Store.Delete.
func (s *MemoryStore) Delete(_ context.Context, id string) error {
	defer observe("delete", time.Now(), nil)
	s.mu.Lock()
	delete(s.byID, id)
	n := len(s.byID)
	s.mu.Unlock()
	metrics.UpdateStoredAnalyses(n)
	return nil
}

// List implements Store.List.
func (s *MemoryStore) List(_ context.Context) ([]model.Analysis, error) {
	defer observe("list", time.Now(), nil)
	s.mu.RLock()
	out := make([]model.Analysis, 0, len(s.byID))
	for _, a := range s.byID {
		out = append(out, a)
	}
	s.mu.RUnlock()
	sortNewestFirst(out)
	return out, nil
}

// DeleteOlderThan implements Store.DeleteOlderThan.
func (s *MemoryStore) DeleteOlderThan(_ context.Context, cutoff time.Time) ([]string, error) {
	defer observe("prune", time.Now(), nil)
	var ids []string
	s.mu.Lock()
	for id, a := range s.byID {
		if a.SubmittedAt.Before(cutoff) {
			delete(s.byID, id)
			ids = append(ids, id)
		}
	}
	n := len(s.byID)
	s.mu.Unlock()
	sort.Strings(ids)
	metrics.UpdateStoredAnalyses(n)
	return ids, nil
}

// Count implements Store.Count.
func (s *MemoryStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID), nil
}

// Close implements Store.Close.
func (s *MemoryStore) Close() error { return nil }

func sortNewestFirst(as []model.Analysis) {
	sort.SliceStable(as, func(i, j int) bool {
		if !as[i].SubmittedAt.Equal(as[j].SubmittedAt) {
			return as[i].SubmittedAt.After(as[j].SubmittedAt)
		}
		return as[i].ID < as[j].ID
	})
}
