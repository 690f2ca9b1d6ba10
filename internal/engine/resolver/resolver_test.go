package resolver_test

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/sift/internal/adapters/fs"
	"go.trai.ch/sift/internal/adapters/parser"
	"go.trai.ch/sift/internal/adapters/remote"
	"go.trai.ch/sift/internal/adapters/telemetry"
	"go.trai.ch/sift/internal/core/domain"
	"go.trai.ch/sift/internal/core/ports/mocks"
	"go.trai.ch/sift/internal/engine/graph"
	"go.trai.ch/sift/internal/engine/resolver"
	"go.uber.org/mock/gomock"
)

// countingBuilder records how many graphs were built.
type countingBuilder struct {
	inner resolver.GraphBuilder
	calls atomic.Int32
}

func (c *countingBuilder) Build(ctx context.Context, req graph.BuildRequest) (*domain.ConfigGraph, error) {
	c.calls.Add(1)
	return c.inner.Build(ctx, req)
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), domain.DirPerm))
	require.NoError(t, os.WriteFile(path, []byte(content), domain.PrivateFilePerm))
}

func newResolver(
	t *testing.T,
	root string,
	logger *mocks.MockLogger,
	opts ...resolver.Option,
) (*resolver.Resolver, *countingBuilder) {
	t.Helper()
	osfs := fs.NewOSFS()
	tracer := telemetry.NewNoOpTracer()
	cache := remote.NewCache(osfs, logger, tracer, root)
	builder := &countingBuilder{inner: graph.NewBuilder(osfs, parser.New(), cache, logger, tracer)}
	return resolver.New(builder, osfs, logger, tracer, opts...), builder
}

func boolPtr(v bool) *bool {
	return &v
}

func TestResolveConfiguration_MergesChain(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ".sift.yml"), "child_config: child.yml\nreporter: json\nexcluded: [vendor]\n")
	writeFile(t, filepath.Join(root, "child.yml"), "reporter: xcode\nexcluded: [build]\n")

	ctrl := gomock.NewController(t)
	r, _ := newResolver(t, root, mocks.NewMockLogger(ctrl))

	cfg, err := r.ResolveConfiguration(context.Background(), resolver.Request{RootDirectory: root})
	require.NoError(t, err)

	assert.Equal(t, "xcode", cfg.Reporter)
	assert.Equal(t, []string{"vendor", "build"}, cfg.ExcludedPaths)
	assert.False(t, cfg.BasedOnCustomConfigurationFiles)
	assert.Len(t, cfg.Graph.Vertices(), 2)
	assert.Equal(t, root, cfg.RootDirectory())
}

func TestResolveConfiguration_SeedPathsAreRebased(t *testing.T) {
	tmp := t.TempDir()
	root := filepath.Join(tmp, "proj")
	writeFile(t, filepath.Join(root, "project", ".sift.yml"), "excluded: [Sources/Generated]\n")
	writeFile(t, filepath.Join(tmp, "base.yml"), "included: [src]\n")
	writeFile(t, filepath.Join(root, "a.yml"), "child_config: sub/b.yml\n")
	writeFile(t, filepath.Join(root, "sub", "b.yml"), "reporter: b\n")

	tests := []struct {
		name  string
		seeds []string
		check func(t *testing.T, cfg *domain.Configuration)
	}{
		{
			name:  "seed in a subdirectory",
			seeds: []string{"project/.sift.yml"},
			check: func(t *testing.T, cfg *domain.Configuration) {
				t.Helper()
				assert.Equal(t, []string{filepath.Join("project", "Sources", "Generated")}, cfg.ExcludedPaths)
			},
		},
		{
			name:  "seed one level up",
			seeds: []string{"../base.yml"},
			check: func(t *testing.T, cfg *domain.Configuration) {
				t.Helper()
				assert.Equal(t, []string{filepath.Join("..", "src")}, cfg.IncludedPaths)
			},
		},
		{
			name:  "seed referenced by an earlier seed",
			seeds: []string{"a.yml", "sub/b.yml"},
			check: func(t *testing.T, cfg *domain.Configuration) {
				t.Helper()
				assert.Equal(t, "b", cfg.Reporter)
				assert.Len(t, cfg.Graph.Vertices(), 2)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			r, _ := newResolver(t, root, mocks.NewMockLogger(ctrl))

			cfg, err := r.ResolveConfiguration(context.Background(), resolver.Request{
				Seeds:         tt.seeds,
				RootDirectory: root,
			})
			require.NoError(t, err)
			assert.Equal(t, root, cfg.RootDirectory())
			tt.check(t, cfg)
		})
	}
}

func TestResolveConfiguration_MissingDefaultIsSilent(t *testing.T) {
	root := t.TempDir()

	ctrl := gomock.NewController(t)
	r, _ := newResolver(t, root, mocks.NewMockLogger(ctrl))

	cfg, err := r.ResolveConfiguration(context.Background(), resolver.Request{RootDirectory: root})
	require.NoError(t, err)
	assert.True(t, cfg.Equal(domain.DefaultConfiguration(root, domain.BuildOptions{})))
}

func TestResolveConfiguration_FailurePolicy(t *testing.T) {
	tests := []struct {
		name       string
		files      map[string]string
		seeds      []string
		useDefault *bool
		wantWarn   bool
		wantErr    error
	}{
		{
			name:     "cycle without explicit documents falls back",
			files:    map[string]string{".sift.yml": "child_config: a.yml\n", "a.yml": "child_config: .sift.yml\n"},
			wantWarn: true,
		},
		{
			name:    "cycle in explicit documents fails",
			files:   map[string]string{"a.yml": "child_config: b.yml\n", "b.yml": "child_config: a.yml\n"},
			seeds:   []string{"a.yml"},
			wantErr: domain.ErrCycleDetected,
		},
		{
			name:    "missing explicit document fails",
			seeds:   []string{"custom.yml"},
			wantErr: domain.ErrInitialConfigNotFound,
		},
		{
			name:       "missing explicit document falls back on request",
			seeds:      []string{"custom.yml"},
			useDefault: boolPtr(true),
			wantWarn:   true,
		},
		{
			name:       "parse error without explicit documents fails on request",
			files:      map[string]string{".sift.yml": "reporter: [oops\n"},
			useDefault: boolPtr(false),
			wantErr:    domain.ErrConfigParseFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			for name, content := range tt.files {
				writeFile(t, filepath.Join(root, name), content)
			}

			ctrl := gomock.NewController(t)
			logger := mocks.NewMockLogger(ctrl)
			if tt.wantWarn {
				logger.EXPECT().Warn(gomock.Any()).Times(1)
			}
			r, _ := newResolver(t, root, logger)

			cfg, err := r.ResolveConfiguration(context.Background(), resolver.Request{
				Seeds:               tt.seeds,
				RootDirectory:       root,
				UseDefaultOnFailure: tt.useDefault,
			})
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Empty(t, cfg.Graph.Vertices())
			assert.Equal(t, len(tt.seeds) > 0, cfg.BasedOnCustomConfigurationFiles)
		})
	}
}

func TestResolveConfiguration_WarnsAboutKeys(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, ".sift.yml")
	writeFile(t, path, "not_a_key: 1\nenabled_rules: [todo]\nline_length: {warning: 100}\n")

	ctrl := gomock.NewController(t)
	logger := mocks.NewMockLogger(ctrl)
	logger.EXPECT().Warn("configuration " + path + " contains unknown keys: not_a_key")
	logger.EXPECT().Warn("configuration " + path + ` uses "enabled_rules", which has been renamed to "opt_in_rules"`)
	r, _ := newResolver(t, root, logger)

	cfg, err := r.ResolveConfiguration(context.Background(), resolver.Request{RootDirectory: root})
	require.NoError(t, err)
	assert.Equal(t, []string{"todo"}, cfg.Rules.OptIn)
	assert.Equal(t, map[string]any{"warning": 100}, cfg.RuleConfigs["line_length"])
}

func TestResolveConfiguration_CommandLineOverrides(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "custom.yml"), "disabled_rules: [todo]\ncache_path: .cache\n")

	ctrl := gomock.NewController(t)
	r, _ := newResolver(t, root, mocks.NewMockLogger(ctrl))

	cfg, err := r.ResolveConfiguration(context.Background(), resolver.Request{
		Seeds:         []string{"custom.yml"},
		RootDirectory: root,
		OnlyRules:     []string{"line_length"},
		CachePath:     "/tmp/override",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.RulesMode{Kind: domain.RulesOnly, Only: []string{"line_length"}}, cfg.Rules)
	assert.Equal(t, "/tmp/override", cfg.CachePath)
	assert.True(t, cfg.BasedOnCustomConfigurationFiles)
}

func TestResolveConfiguration_Memoized(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ".sift.yml"), "reporter: json\n")

	ctrl := gomock.NewController(t)
	r, builder := newResolver(t, root, mocks.NewMockLogger(ctrl))
	req := resolver.Request{RootDirectory: root}

	const workers = 8
	results := make([]*domain.Configuration, workers)
	var wg sync.WaitGroup
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			cfg, err := r.ResolveConfiguration(context.Background(), req)
			assert.NoError(t, err)
			results[i] = cfg
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), builder.calls.Load())
	for _, cfg := range results {
		assert.Same(t, results[0], cfg)
	}

	other, err := r.ResolveConfiguration(context.Background(), resolver.Request{RootDirectory: root, EnableAllRules: true})
	require.NoError(t, err)
	assert.NotSame(t, results[0], other)
	assert.Equal(t, int32(2), builder.calls.Load())
}
