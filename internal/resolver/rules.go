package resolver

import (
	"context"
	"strings"

	"github.com/groblegark/linklens/internal/model"
)

// Static answers from a fixed table of exact (source, target) pairs.
type Static struct {
	types map[model.EdgeKey]string
}

// NewStatic builds a static resolver from link records. Later duplicates of
// the same pair win.
func NewStatic(links []model.Link) *Static {
	types := make(map[model.EdgeKey]string, len(links))
	for _, l := range links {
		types[model.EdgeKey{Source: l.Source, Target: l.Target}] = string(l.Type)
	}
	return &Static{types: types}
}

// Name implements Resolver.
func (s *Static) Name() string { return "static" }

// Resolve implements Resolver.
func (s *Static) Resolve(_ context.Context, source, target string) (string, error) {
	return s.types[model.EdgeKey{Source: source, Target: target}], nil
}

// PrefixRule classifies every pair whose endpoint IDs carry the given
// prefixes. An empty prefix matches any ID, but at least one side must be
// constrained for the rule to be considered.
type PrefixRule struct {
	SourcePrefix string
	TargetPrefix string
	Type         string
}

// Prefix answers from ID prefix rules, first match wins.
type Prefix struct {
	rules []PrefixRule
}

// NewPrefix builds a prefix resolver; rules with both prefixes empty or an
// empty type are dropped.
func NewPrefix(rules []PrefixRule) *Prefix {
	kept := make([]PrefixRule, 0, len(rules))
	for _, r := range rules {
		if r.Type == "" || (r.SourcePrefix == "" && r.TargetPrefix == "") {
			continue
		}
		kept = append(kept, r)
	}
	return &Prefix{rules: kept}
}

// Name implements Resolver.
func (p *Prefix) Name() string { return "prefix" }

// Resolve implements Resolver.
func (p *Prefix) Resolve(_ context.Context, source, target string) (string, error) {
	for _, r := range p.rules {
		if strings.HasPrefix(source, r.SourcePrefix) && strings.HasPrefix(target, r.TargetPrefix) {
			return r.Type, nil
		}
	}
	return "", nil
}
