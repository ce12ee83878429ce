package linkstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/groblegark/linklens/internal/model"
)

// Memory is an in-process Store for running without a database. Contents are
// lost on shutdown.
type Memory struct {
	mu    sync.RWMutex
	links map[model.EdgeKey]*model.Link
}

var _ Store = (*Memory)(nil)

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{links: make(map[model.EdgeKey]*model.Link)}
}

// Get implements Store.
func (m *Memory) Get(_ context.Context, source, target string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if l, ok := m.links[model.EdgeKey{Source: source, Target: target}]; ok {
		return string(l.Type), nil
	}
	return "", nil
}

// Put implements Store. An existing record for the pair is replaced.
func (m *Memory) Put(_ context.Context, link *model.Link) error {
	clone := *link
	if clone.CreatedAt.IsZero() {
		clone.CreatedAt = time.Now().UTC()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.links[model.EdgeKey{Source: clone.Source, Target: clone.Target}] = &clone
	return nil
}

// Delete implements Store.
func (m *Memory) Delete(_ context.Context, source, target string) (bool, error) {
	key := model.EdgeKey{Source: source, Target: target}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.links[key]; !ok {
		return false, nil
	}
	delete(m.links, key)
	return true, nil
}

// List implements Store, returning records sorted by source then target.
func (m *Memory) List(_ context.Context) ([]*model.Link, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*model.Link, 0, len(m.links))
	for _, l := range m.links {
		clone := *l
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Source != out[j].Source {
			return out[i].Source < out[j].Source
		}
		return out[i].Target < out[j].Target
	})
	return out, nil
}

// Close implements Store.
func (m *Memory) Close() error { return nil }
