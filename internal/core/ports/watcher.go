package ports

import (
	"context"
	"iter"
)

// ChangeEvent reports changes to watched configuration documents.
type ChangeEvent struct {
	// Paths are the documents that changed, coalesced over a short window.
	Paths []string
}

// Watcher observes configuration documents for changes.
//
//go:generate mockgen -source=watcher.go -destination=mocks/mock_watcher.go -package=mocks
type Watcher interface {
	// Watch starts observing the given documents. Documents that do not exist yet are
	// reported once they are created.
	Watch(ctx context.Context, paths []string) error
	// Close stops the watcher and releases all resources.
	Close() error
	// Events returns an iterator of coalesced change events.
	Events() iter.Seq[ChangeEvent]
}
