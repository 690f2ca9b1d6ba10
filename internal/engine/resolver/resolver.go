// Package resolver turns configuration documents into effective configurations:
// it builds and validates the configuration graph, merges the resulting chain and
// looks up nested documents for individual files.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"go.trai.ch/sift/internal/core/domain"
	"go.trai.ch/sift/internal/core/ports"
	"go.trai.ch/sift/internal/engine/graph"
)

// GraphBuilder builds configuration graphs.
type GraphBuilder interface {
	Build(ctx context.Context, req graph.BuildRequest) (*domain.ConfigGraph, error)
}

// Request describes a configuration to resolve.
type Request struct {
	// Seeds are configuration documents named by the caller, outermost parent first.
	Seeds []string
	// RootDirectory is the directory relative seeds and paths are resolved against.
	RootDirectory string
	// IgnoreParentChild disables following child_config and parent_config.
	IgnoreParentChild bool
	// EnableAllRules and OnlyRules override the rules mode of every document.
	EnableAllRules bool
	OnlyRules      []string
	// CachePath overrides the cache_path option.
	CachePath string
	// UseDefaultOnFailure selects whether a failing resolution yields the default
	// configuration. When nil it does so unless Seeds were given.
	UseDefaultOnFailure *bool
}

func (r Request) buildOptions() domain.BuildOptions {
	return domain.BuildOptions{
		EnableAllRules: r.EnableAllRules,
		OnlyRules:      r.OnlyRules,
		CachePath:      r.CachePath,
	}
}

func (r Request) useDefaultOnFailure() bool {
	if r.UseDefaultOnFailure != nil {
		return *r.UseDefaultOnFailure
	}
	return len(r.Seeds) == 0
}

// DiscoveryHook is called with the path of every nested document that gets built.
type DiscoveryHook func(path string)

// Option configures a Resolver.
type Option func(*Resolver)

// WithDiscoveryHook registers a hook observing nested document builds.
func WithDiscoveryHook(hook DiscoveryHook) Option {
	return func(r *Resolver) {
		r.hook = hook
	}
}

// Resolver resolves effective configurations and memoizes them per request.
type Resolver struct {
	builder GraphBuilder
	fs      ports.FileSystem
	logger  ports.Logger
	tracer  ports.Tracer
	hook    DiscoveryHook

	memo        *Cache
	directories *Cache
}

// New creates a Resolver.
func New(builder GraphBuilder, fs ports.FileSystem, logger ports.Logger, tracer ports.Tracer, opts ...Option) *Resolver {
	r := &Resolver{
		builder:     builder,
		fs:          fs,
		logger:      logger,
		tracer:      tracer,
		memo:        NewCache(),
		directories: NewCache(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ResolveConfiguration returns the effective configuration for req. Results are
// memoized, so repeated requests return the same configuration.
func (r *Resolver) ResolveConfiguration(ctx context.Context, req Request) (*domain.Configuration, error) {
	req.RootDirectory = filepath.Clean(req.RootDirectory)

	ctx, span := r.tracer.Start(ctx, "config.resolve",
		ports.WithAttribute("root", req.RootDirectory),
		ports.WithAttribute("seeds", req.Seeds),
	)
	defer span.End()

	cfg, err := r.memo.Do(requestKey(req), func() (*domain.Configuration, error) {
		return r.resolve(ctx, req)
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return cfg, nil
}

// Fresh returns a Resolver with the same dependencies and empty caches, used to
// pick up changes to configuration documents.
func (r *Resolver) Fresh() *Resolver {
	return New(r.builder, r.fs, r.logger, r.tracer, WithDiscoveryHook(r.hook))
}

// Nested returns a NestedResolver for files below configurations resolved with req.
// Every NestedResolver of r shares one directory cache.
func (r *Resolver) Nested(req Request) *NestedResolver {
	return NewNestedResolver(r.builder, r.fs, r.directories, req.buildOptions(), r.hook)
}

func (r *Resolver) resolve(ctx context.Context, req Request) (*domain.Configuration, error) {
	opts := req.buildOptions()
	hasCustom := len(req.Seeds) > 0

	cfg, err := r.load(ctx, req, opts)
	if err == nil {
		return cfg, nil
	}
	if ctx.Err() != nil {
		return nil, err
	}

	fallback := domain.DefaultConfiguration(req.RootDirectory, opts)
	fallback.BasedOnCustomConfigurationFiles = hasCustom

	if !hasCustom && errors.Is(err, domain.ErrInitialConfigNotFound) {
		return fallback, nil
	}
	if req.useDefaultOnFailure() {
		r.logger.Warn(fmt.Sprintf("%v, falling back to default configuration", err))
		return fallback, nil
	}
	return nil, err
}

func (r *Resolver) load(ctx context.Context, req Request, opts domain.BuildOptions) (*domain.Configuration, error) {
	g, err := r.builder.Build(ctx, graph.BuildRequest{
		Seeds:             req.Seeds,
		RootDirectory:     req.RootDirectory,
		IgnoreParentChild: req.IgnoreParentChild,
	})
	if err != nil {
		return nil, err
	}

	chain, err := g.Validate()
	if err != nil {
		return nil, err
	}
	r.warnAboutKeys(chain)

	cfg, err := domain.MergeChain(chain, req.RootDirectory, opts)
	if err != nil {
		return nil, err
	}
	cfg.Graph = g
	cfg.BasedOnCustomConfigurationFiles = len(req.Seeds) > 0
	return cfg, nil
}

func (r *Resolver) warnAboutKeys(chain domain.ResolvedChain) {
	for _, link := range chain {
		if unknown := link.Options.UnknownKeys(); len(unknown) > 0 {
			r.logger.Warn(fmt.Sprintf("configuration %s contains unknown keys: %s",
				link.Path, strings.Join(unknown, ", ")))
		}
		if _, ok := link.Options[domain.KeyEnabledRules]; ok {
			r.logger.Warn(fmt.Sprintf("configuration %s uses %q, which has been renamed to %q",
				link.Path, domain.KeyEnabledRules, domain.KeyOptInRules))
		}
	}
}
