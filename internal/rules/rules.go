// Package rules loads the classification rules document: exact link
// declarations, ID prefix rules, and presentation defaults, from a local
// TOML file or an S3 object, with optional reload on change.
package rules

import (
	"context"
	"fmt"

	"github.com/BurntSushi/toml"

	"github.com/groblegark/linklens/internal/model"
	"github.com/groblegark/linklens/internal/resolver"
)

// File is a parsed rules document.
type File struct {
	TextColor string          `toml:"text_color"`
	Palette   []string        `toml:"palette"`
	Settings  *model.Settings `toml:"settings"`
	Links     []LinkRule      `toml:"link"`
	Prefixes  []PrefixRule    `toml:"prefix"`
}

// LinkRule declares the type of one exact directed pair.
type LinkRule struct {
	Source string `toml:"source"`
	Target string `toml:"target"`
	Type   string `toml:"type"`
}

// PrefixRule assigns a type to every pair whose endpoint IDs carry the given
// prefixes. An empty prefix leaves that side unconstrained.
type PrefixRule struct {
	SourcePrefix string `toml:"source_prefix"`
	TargetPrefix string `toml:"target_prefix"`
	Type         string `toml:"type"`
}

// Parse decodes and validates a rules document.
func Parse(data []byte) (*File, error) {
	var f File
	if err := toml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode rules: %w", err)
	}
	for i, l := range f.Links {
		if l.Source == "" || l.Target == "" {
			return nil, fmt.Errorf("link rule %d: source and target are required", i)
		}
		if !model.LinkType(l.Type).IsValid() {
			return nil, fmt.Errorf("link rule %d: invalid type %q", i, l.Type)
		}
	}
	for i, p := range f.Prefixes {
		if !model.LinkType(p.Type).IsValid() {
			return nil, fmt.Errorf("prefix rule %d: invalid type %q", i, p.Type)
		}
		if p.SourcePrefix == "" && p.TargetPrefix == "" {
			return nil, fmt.Errorf("prefix rule %d: at least one prefix is required", i)
		}
	}
	return &f, nil
}

// Load fetches and parses the document from src.
func Load(ctx context.Context, src Source) (*File, error) {
	data, err := src.Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch rules from %s: %w", src.Location(), err)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("rules from %s: %w", src.Location(), err)
	}
	return f, nil
}

// LinkRecords converts the exact-pair rules to link records.
func (f *File) LinkRecords() []model.Link {
	links := make([]model.Link, 0, len(f.Links))
	for _, l := range f.Links {
		links = append(links, model.Link{
			Source: l.Source,
			Target: l.Target,
			Type:   model.LinkType(l.Type),
		})
	}
	return links
}

// Resolvers returns the classification stages the document encodes: exact
// pairs first, then prefix rules. An empty document yields no stages.
func (f *File) Resolvers() []resolver.Resolver {
	var stages []resolver.Resolver
	if len(f.Links) > 0 {
		stages = append(stages, resolver.NewStatic(f.LinkRecords()))
	}
	if len(f.Prefixes) > 0 {
		prefixes := make([]resolver.PrefixRule, 0, len(f.Prefixes))
		for _, p := range f.Prefixes {
			prefixes = append(prefixes, resolver.PrefixRule{
				SourcePrefix: p.SourcePrefix,
				TargetPrefix: p.TargetPrefix,
				Type:         p.Type,
			})
		}
		stages = append(stages, resolver.NewPrefix(prefixes))
	}
	return stages
}
