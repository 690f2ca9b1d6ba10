// Package app implements the application layer for sift.
package app

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"go.trai.ch/sift/internal/adapters/detector"
	"go.trai.ch/sift/internal/adapters/telemetry"
	"go.trai.ch/sift/internal/core/domain"
	"go.trai.ch/sift/internal/core/ports"
	"go.trai.ch/sift/internal/engine/resolver"
	"go.trai.ch/sift/internal/ui/style"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// App represents the main application logic.
type App struct {
	mu       sync.Mutex
	resolver *resolver.Resolver
	remote   ports.RemoteCache
	watcher  ports.Watcher
	logger   ports.Logger
}

// New creates a new App instance.
func New(res *resolver.Resolver, remote ports.RemoteCache, watcher ports.Watcher, log ports.Logger) *App {
	return &App{
		resolver: res,
		remote:   remote,
		watcher:  watcher,
		logger:   log,
	}
}

// ResolveOptions select the configuration to resolve.
type ResolveOptions struct {
	Configs           []string
	RootDirectory     string
	IgnoreParentChild bool
	EnableAllRules    bool
	OnlyRules         []string
	CachePath         string
}

func (o ResolveOptions) request() resolver.Request {
	return resolver.Request{
		Seeds:             o.Configs,
		RootDirectory:     o.RootDirectory,
		IgnoreParentChild: o.IgnoreParentChild,
		EnableAllRules:    o.EnableAllRules,
		OnlyRules:         o.OnlyRules,
		CachePath:         o.CachePath,
	}
}

// ConfigOptions configuration for the Config method.
type ConfigOptions struct {
	ResolveOptions
	Format string
	Watch  bool
}

// FilesOptions configuration for the Files method.
type FilesOptions struct {
	ResolveOptions
	Paths []string
}

// logSettings is implemented by loggers whose rendering can be switched.
type logSettings interface {
	SetJSON(enable bool)
	SetColor(enable bool)
}

// SetLogFormat switches the logger to the given format.
func (a *App) SetLogFormat(format detector.LogFormat) {
	settings, ok := a.logger.(logSettings)
	if !ok {
		return
	}
	settings.SetJSON(format == detector.FormatJSON)
	settings.SetColor(format == detector.FormatPretty)
}

// EnableTracing reports every finished span through the logger. The returned
// function flushes and stops tracing.
func (a *App) EnableTracing() func(context.Context) error {
	return telemetry.Install(a.logger)
}

// ResolveConfig returns the effective configuration for the given options.
func (a *App) ResolveConfig(ctx context.Context, opts ResolveOptions) (*domain.Configuration, error) {
	return a.currentResolver().ResolveConfiguration(ctx, opts.request())
}

// Config writes the effective configuration to w. With Watch set it re-resolves and
// rewrites the configuration whenever one of its documents changes.
func (a *App) Config(ctx context.Context, w io.Writer, opts ConfigOptions) error {
	format, err := ParseFormat(opts.Format)
	if err != nil {
		return err
	}

	cfg, err := a.ResolveConfig(ctx, opts.ResolveOptions)
	if err != nil {
		return zerr.Wrap(err, "failed to resolve configuration")
	}
	if err := Render(w, cfg, format); err != nil {
		return err
	}

	if !opts.Watch {
		return nil
	}
	return a.watch(ctx, w, opts.ResolveOptions, format, cfg)
}

func (a *App) watch(ctx context.Context, w io.Writer, opts ResolveOptions, format Format, cfg *domain.Configuration) error {
	if err := a.watcher.Watch(ctx, watchedPaths(cfg, opts)); err != nil {
		return zerr.Wrap(err, "failed to watch configuration files")
	}
	defer func() {
		_ = a.watcher.Close()
	}()

	for event := range a.watcher.Events() {
		a.logger.Info(fmt.Sprintf("configuration changed: %s", strings.Join(event.Paths, ", ")))

		a.mu.Lock()
		a.resolver = a.resolver.Fresh()
		a.mu.Unlock()

		next, err := a.ResolveConfig(ctx, opts)
		if err != nil {
			a.logger.Error(err)
			continue
		}
		// The change may have added documents through child_config or parent_config.
		if err := a.watcher.Watch(ctx, watchedPaths(next, opts)); err != nil {
			return zerr.Wrap(err, "failed to watch configuration files")
		}
		if err := Render(w, next, format); err != nil {
			return err
		}
	}
	return ctx.Err()
}

// watchedPaths lists the local documents of cfg, or the default document when the
// configuration did not come from any.
func watchedPaths(cfg *domain.Configuration, opts ResolveOptions) []string {
	var paths []string
	for _, v := range cfg.Graph.Vertices() {
		if !v.Location.IsRemote() {
			paths = append(paths, v.Location.Path)
		}
	}
	if len(paths) == 0 {
		paths = append(paths, filepath.Join(cfg.RootDirectory(), domain.ConfigFileName))
	}
	for _, seed := range opts.Configs {
		loc := domain.ParseReference(seed, cfg.RootDirectory())
		if !loc.IsRemote() && !cfg.Graph.IncludesFile(loc.Path) {
			paths = append(paths, loc.Path)
		}
	}
	return paths
}

// FileConfig is the configuration that applies to one file.
type FileConfig struct {
	Path          string
	Configuration *domain.Configuration
	Nested        bool
}

// Files resolves the configuration of every path in parallel and writes one line per
// path to w.
func (a *App) Files(ctx context.Context, w io.Writer, opts FilesOptions) error {
	results, err := a.FileConfigs(ctx, opts)
	if err != nil {
		return err
	}

	root := opts.RootDirectory
	if len(results) > 0 {
		root = results[0].Configuration.RootDirectory()
	}
	if _, err := fmt.Fprintln(w, style.Heading(root)); err != nil {
		return err
	}
	for _, r := range results {
		line := fmt.Sprintf("  %s %s %016x", r.Path, style.Arrow, r.Configuration.Fingerprint())
		if r.Nested {
			line += " (nested)"
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// FileConfigs returns the configuration of every path in opts, in input order.
func (a *App) FileConfigs(ctx context.Context, opts FilesOptions) ([]FileConfig, error) {
	res := a.currentResolver()
	req := opts.request()

	root, err := res.ResolveConfiguration(ctx, req)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to resolve configuration")
	}
	nested := res.Nested(req)

	results := make([]FileConfig, len(opts.Paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())

	for i, path := range opts.Paths {
		g.Go(func() error {
			abs := path
			if !filepath.IsAbs(abs) {
				abs = filepath.Join(root.RootDirectory(), abs)
			}

			cfg, err := nested.ConfigurationForFile(ctx, abs, root)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				a.logger.Warn(fmt.Sprintf("%v, using the root configuration for %s", err, path))
				cfg = root
			}
			results[i] = FileConfig{Path: path, Configuration: cfg, Nested: cfg != root}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Clean removes the remote configuration cache.
func (a *App) Clean(_ context.Context) error {
	a.logger.Info("removing remote configuration cache...")
	if err := a.remote.Clear(); err != nil {
		return err
	}
	a.logger.Info("removed remote configuration cache")
	return nil
}

func (a *App) currentResolver() *resolver.Resolver {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.resolver
}
