package resolver

import (
	"context"
	"sync"
)

// Swap is a Resolver whose backing resolver can be replaced at runtime, so a
// rules reload takes effect without rebuilding anything downstream. Safe for
// concurrent use.
type Swap struct {
	mu    sync.RWMutex
	inner Resolver
}

// NewSwap wraps r. A nil r behaves like None until the first Store.
func NewSwap(r Resolver) *Swap {
	if r == nil {
		r = None
	}
	return &Swap{inner: r}
}

// Store replaces the backing resolver. A nil r installs None.
func (s *Swap) Store(r Resolver) {
	if r == nil {
		r = None
	}
	s.mu.Lock()
	s.inner = r
	s.mu.Unlock()
}

// Name implements Resolver, reporting the backing resolver's name.
func (s *Swap) Name() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.inner.Name()
}

// Resolve implements Resolver.
func (s *Swap) Resolve(ctx context.Context, source, target string) (string, error) {
	s.mu.RLock()
	r := s.inner
	s.mu.RUnlock()
	return r.Resolve(ctx, source, target)
}
