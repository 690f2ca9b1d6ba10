package ports

import (
	"context"
	"time"

	"go.trai.ch/sift/internal/core/domain"
)

// RemoteResolver makes remote configuration documents available on disk.
//
//go:generate mockgen -source=remote.go -destination=mocks/mock_remote.go -package=mocks
type RemoteResolver interface {
	// Resolve returns the local path of the document at loc and the rewritten location.
	// Local locations are returned unchanged. Remote locations are fetched within
	// timeout, or timeoutIfCached when a cached copy exists, falling back to that copy
	// when the fetch fails.
	Resolve(ctx context.Context, loc domain.Location, timeout, timeoutIfCached time.Duration) (string, domain.Location, error)
}

// RemoteCache is a RemoteResolver backed by an on-disk cache that can be cleared.
type RemoteCache interface {
	RemoteResolver
	// Clear removes every cached remote document.
	Clear() error
}
