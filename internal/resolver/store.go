package resolver

import (
	"context"
	"fmt"

	"github.com/groblegark/linklens/internal/linkstore"
)

// storeResolver answers from a link store. One lookup per call; the engine
// caches the answer on the overlay entry, so a pair is queried at most once
// per appearance.
type storeResolver struct {
	store linkstore.Store
}

// NewStore wraps a link store as a Resolver.
func NewStore(s linkstore.Store) Resolver {
	return &storeResolver{store: s}
}

// Name implements Resolver.
func (r *storeResolver) Name() string { return "store" }

// Resolve implements Resolver.
func (r *storeResolver) Resolve(ctx context.Context, source, target string) (string, error) {
	label, err := r.store.Get(ctx, source, target)
	if err != nil {
		return "", fmt.Errorf("link store lookup %s->%s: %w", source, target, err)
	}
	return label, nil
}
