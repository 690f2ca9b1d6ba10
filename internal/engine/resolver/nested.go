package resolver

import (
	"context"
	"path/filepath"

	"go.trai.ch/sift/internal/core/domain"
	"go.trai.ch/sift/internal/core/ports"
	"go.trai.ch/sift/internal/engine/graph"
)

// NestedResolver finds the configuration that applies to an individual file by
// merging the closest nested document between the file and the configuration root.
type NestedResolver struct {
	builder GraphBuilder
	fs      ports.FileSystem
	cache   *Cache
	opts    domain.BuildOptions
	hook    DiscoveryHook
}

// NewNestedResolver creates a NestedResolver storing its lookups in cache.
func NewNestedResolver(
	builder GraphBuilder,
	fs ports.FileSystem,
	cache *Cache,
	opts domain.BuildOptions,
	hook DiscoveryHook,
) *NestedResolver {
	return &NestedResolver{
		builder: builder,
		fs:      fs,
		cache:   cache,
		opts:    opts,
		hook:    hook,
	}
}

// ConfigurationForFile returns the configuration for filePath. Configurations built
// from caller-named documents are returned unchanged.
func (n *NestedResolver) ConfigurationForFile(
	ctx context.Context,
	filePath string,
	root *domain.Configuration,
) (*domain.Configuration, error) {
	if root.BasedOnCustomConfigurationFiles {
		return root, nil
	}

	rootDir := root.RootDirectory()
	filePath = filepath.Clean(filePath)
	dir := filePath
	if !n.fs.IsDir(filePath) {
		dir = filepath.Dir(filePath)
	}

	var visited []string
	remember := func(cfg *domain.Configuration) *domain.Configuration {
		for _, key := range visited {
			n.cache.Store(key, cfg)
		}
		return cfg
	}

	for {
		if dir == rootDir {
			return remember(root), nil
		}

		candidate := filepath.Join(dir, domain.ConfigFileName)
		key := directoryKey(root, candidate)

		if cached, ok := n.cache.Get(key); ok {
			if cached.Equal(root) {
				return remember(root), nil
			}
			return remember(cached), nil
		}

		if n.fs.Exists(candidate) && !root.Graph.IncludesFile(candidate) {
			cfg, err := n.cache.Do(key, func() (*domain.Configuration, error) {
				return n.build(ctx, candidate, root)
			})
			if err != nil {
				return nil, err
			}
			return remember(cfg), nil
		}

		visited = append(visited, key)
		parent := filepath.Dir(dir)
		if parent == dir {
			return remember(root), nil
		}
		dir = parent
	}
}

// build merges the nested document at path as the child of root.
func (n *NestedResolver) build(ctx context.Context, path string, root *domain.Configuration) (*domain.Configuration, error) {
	if n.hook != nil {
		n.hook(path)
	}

	dir := filepath.Dir(path)
	g, err := n.builder.Build(ctx, graph.BuildRequest{
		Seeds:             []string{path},
		RootDirectory:     dir,
		IgnoreParentChild: true,
	})
	if err != nil {
		return nil, err
	}

	chain, err := g.Validate()
	if err != nil {
		return nil, err
	}

	child, err := domain.MergeChain(chain, dir, n.opts)
	if err != nil {
		return nil, err
	}
	return root.Merged(child, root.RootDirectory()), nil
}
