package resolver

import "context"

// Chain consults a sequence of resolvers and returns the first non-empty
// answer. A failing stage is skipped so a broken backend cannot mask a rule
// that would have answered; the first error is reported only when no stage
// answers at all.
type Chain struct {
	resolvers []Resolver
}

// NewChain builds a chain over the given stages, consulted in order.
func NewChain(resolvers ...Resolver) *Chain {
	return &Chain{resolvers: resolvers}
}

// Name implements Resolver.
func (c *Chain) Name() string { return "chain" }

// Resolve implements Resolver.
func (c *Chain) Resolve(ctx context.Context, source, target string) (string, error) {
	var firstErr error
	for _, r := range c.resolvers {
		label, err := r.Resolve(ctx, source, target)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if label != "" {
			return label, nil
		}
	}
	return "", firstErr
}
