// Package resolver answers which semantic link type, if any, connects an
// ordered pair of nodes. The overlay engine asks once per edge, when the
// edge is first tracked; the answer is cached on the overlay entry for its
// lifetime.
package resolver

import "context"

// Resolver maps a directed node pair to a link type label. An empty label
// with a nil error means the pair has no classification — a normal terminal
// answer, not a failure. Errors are reserved for broken backends.
type Resolver interface {
	Name() string
	Resolve(ctx context.Context, source, target string) (string, error)
}

// Func adapts a plain function to the Resolver interface.
type Func func(ctx context.Context, source, target string) (string, error)

// Name implements Resolver.
func (Func) Name() string { return "func" }

// Resolve implements Resolver.
func (f Func) Resolve(ctx context.Context, source, target string) (string, error) {
	return f(ctx, source, target)
}

// None answers every lookup with no classification.
var None Resolver = noneResolver{}

type noneResolver struct{}

func (noneResolver) Name() string { return "none" }

func (noneResolver) Resolve(context.Context, string, string) (string, error) {
	return "", nil
}
