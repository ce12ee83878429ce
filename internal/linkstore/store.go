// Package linkstore persists link classification records: the metadata the
// resolver consults when an edge first appears on screen.
package linkstore

import (
	"context"

	"github.com/groblegark/linklens/internal/model"
)

// Store defines the persistence interface for link records. Get returns an
// empty type, not an error, when the pair has no record.
type Store interface {
	Get(ctx context.Context, source, target string) (string, error)
	Put(ctx context.Context, link *model.Link) error
	Delete(ctx context.Context, source, target string) (bool, error)
	List(ctx context.Context) ([]*model.Link, error)
	Close() error
}
