package app_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"iter"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/sift/internal/adapters/detector"
	"go.trai.ch/sift/internal/adapters/fs"
	"go.trai.ch/sift/internal/adapters/parser"
	"go.trai.ch/sift/internal/adapters/telemetry"
	"go.trai.ch/sift/internal/app"
	"go.trai.ch/sift/internal/core/domain"
	"go.trai.ch/sift/internal/core/ports"
	"go.trai.ch/sift/internal/core/ports/mocks"
	"go.trai.ch/sift/internal/engine/graph"
	"go.trai.ch/sift/internal/engine/resolver"
	"go.uber.org/mock/gomock"
)

type testApp struct {
	app     *app.App
	logger  *mocks.MockLogger
	remote  *mocks.MockRemoteCache
	watcher *mocks.MockWatcher
}

func newTestApp(t *testing.T) testApp {
	t.Helper()
	ctrl := gomock.NewController(t)
	logger := mocks.NewMockLogger(ctrl)
	remote := mocks.NewMockRemoteCache(ctrl)
	watcher := mocks.NewMockWatcher(ctrl)

	// Remote documents are not used by these tests; local ones pass straight through.
	remote.EXPECT().Resolve(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, loc domain.Location, _, _ time.Duration) (string, domain.Location, error) {
			return loc.Path, loc, nil
		}).AnyTimes()

	osfs := fs.NewOSFS()
	tracer := telemetry.NewNoOpTracer()
	builder := graph.NewBuilder(osfs, parser.New(), remote, logger, tracer)
	res := resolver.New(builder, osfs, logger, tracer)

	return testApp{
		app:     app.New(res, remote, watcher, logger),
		logger:  logger,
		remote:  remote,
		watcher: watcher,
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), domain.DirPerm))
	require.NoError(t, os.WriteFile(path, []byte(content), domain.PrivateFilePerm))
}

func TestApp_Config_RendersFormats(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ".sift.yml"), "reporter: json\nexcluded: [vendor]\nline_length: {warning: 100}\n")

	tests := []struct {
		format string
		want   []string
	}{
		{format: "", want: []string{"reporter: json", "- vendor", "mode: default", "warning: 100"}},
		{format: "toml", want: []string{`reporter = "json"`, `excluded = ["vendor"]`, "[rule_configs.line_length]"}},
	}

	for _, tt := range tests {
		t.Run("format "+tt.format, func(t *testing.T) {
			ta := newTestApp(t)
			out := new(bytes.Buffer)

			err := ta.app.Config(context.Background(), out, app.ConfigOptions{
				ResolveOptions: app.ResolveOptions{RootDirectory: root},
				Format:         tt.format,
			})
			require.NoError(t, err)
			for _, want := range tt.want {
				assert.Contains(t, out.String(), want)
			}
		})
	}

	t.Run("format json", func(t *testing.T) {
		ta := newTestApp(t)
		out := new(bytes.Buffer)

		err := ta.app.Config(context.Background(), out, app.ConfigOptions{
			ResolveOptions: app.ResolveOptions{RootDirectory: root},
			Format:         "json",
		})
		require.NoError(t, err)

		var decoded map[string]any
		require.NoError(t, json.Unmarshal(out.Bytes(), &decoded))
		assert.Equal(t, "json", decoded["reporter"])
		assert.Equal(t, root, decoded["root_directory"])
		assert.Equal(t, []any{filepath.Join(root, ".sift.yml")}, decoded["sources"])
	})
}

func TestApp_Config_UnsupportedFormat(t *testing.T) {
	ta := newTestApp(t)

	err := ta.app.Config(context.Background(), new(bytes.Buffer), app.ConfigOptions{
		ResolveOptions: app.ResolveOptions{RootDirectory: t.TempDir()},
		Format:         "xml",
	})
	require.ErrorIs(t, err, domain.ErrUnsupportedFormat)
}

func TestApp_Config_ResolveError(t *testing.T) {
	ta := newTestApp(t)

	err := ta.app.Config(context.Background(), new(bytes.Buffer), app.ConfigOptions{
		ResolveOptions: app.ResolveOptions{RootDirectory: t.TempDir(), Configs: []string{"missing.yml"}},
	})
	require.ErrorIs(t, err, domain.ErrInitialConfigNotFound)
}

func TestApp_Config_Watch(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, ".sift.yml")
	writeFile(t, path, "reporter: json\n")

	child := filepath.Join(root, "team", "child.yml")
	writeFile(t, child, "strict: true\n")

	ta := newTestApp(t)
	gomock.InOrder(
		ta.watcher.EXPECT().Watch(gomock.Any(), []string{path}).Return(nil),
		ta.watcher.EXPECT().Watch(gomock.Any(), []string{path, child}).Return(nil),
	)
	ta.watcher.EXPECT().Events().Return(iter.Seq[ports.ChangeEvent](func(yield func(ports.ChangeEvent) bool) {
		require.NoError(t, os.WriteFile(path, []byte("reporter: xcode\nchild_config: team/child.yml\n"), domain.PrivateFilePerm))
		yield(ports.ChangeEvent{Paths: []string{path}})
	}))
	ta.watcher.EXPECT().Close().Return(nil)
	ta.logger.EXPECT().Info("configuration changed: " + path)

	out := new(bytes.Buffer)
	err := ta.app.Config(context.Background(), out, app.ConfigOptions{
		ResolveOptions: app.ResolveOptions{RootDirectory: root},
		Watch:          true,
	})
	require.NoError(t, err)

	first := strings.Index(out.String(), "reporter: json")
	second := strings.Index(out.String(), "reporter: xcode")
	require.GreaterOrEqual(t, first, 0)
	assert.Greater(t, second, first, "the changed configuration is rendered after the initial one")
	assert.Contains(t, out.String()[second:], "strict: true")
}

func TestApp_FileConfigs(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ".sift.yml"), "reporter: json\n")
	writeFile(t, filepath.Join(root, "sub", ".sift.yml"), "reporter: xcode\n")
	writeFile(t, filepath.Join(root, "broken", ".sift.yml"), "reporter: [oops\n")

	ta := newTestApp(t)
	ta.logger.EXPECT().Warn(gomock.Any()).Times(1)

	results, err := ta.app.FileConfigs(context.Background(), app.FilesOptions{
		ResolveOptions: app.ResolveOptions{RootDirectory: root},
		Paths:          []string{"main.go", "sub/a.go", "broken/b.go", filepath.Join(root, "sub", "c.go")},
	})
	require.NoError(t, err)
	require.Len(t, results, 4)

	assert.Equal(t, "main.go", results[0].Path)
	assert.False(t, results[0].Nested)
	assert.Equal(t, "json", results[0].Configuration.Reporter)

	assert.True(t, results[1].Nested)
	assert.Equal(t, "xcode", results[1].Configuration.Reporter)

	assert.False(t, results[2].Nested, "failing nested documents fall back to the root configuration")
	assert.Same(t, results[1].Configuration, results[3].Configuration)
}

func TestApp_Files_WritesOneLinePerPath(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ".sift.yml"), "reporter: json\n")
	writeFile(t, filepath.Join(root, "sub", ".sift.yml"), "reporter: xcode\n")

	ta := newTestApp(t)
	out := new(bytes.Buffer)

	err := ta.app.Files(context.Background(), out, app.FilesOptions{
		ResolveOptions: app.ResolveOptions{RootDirectory: root},
		Paths:          []string{"main.go", "sub/a.go"},
	})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], root)
	assert.Contains(t, lines[1], "main.go →")
	assert.NotContains(t, lines[1], "(nested)")
	assert.Contains(t, lines[2], "sub/a.go →")
	assert.Contains(t, lines[2], "(nested)")
}

func TestApp_Clean(t *testing.T) {
	t.Run("clears the remote cache", func(t *testing.T) {
		ta := newTestApp(t)
		ta.logger.EXPECT().Info("removing remote configuration cache...")
		ta.remote.EXPECT().Clear().Return(nil)
		ta.logger.EXPECT().Info("removed remote configuration cache")

		require.NoError(t, ta.app.Clean(context.Background()))
	})

	t.Run("returns clear failures", func(t *testing.T) {
		ta := newTestApp(t)
		ta.logger.EXPECT().Info("removing remote configuration cache...")
		ta.remote.EXPECT().Clear().Return(domain.ErrCacheCleanupFailed)

		err := ta.app.Clean(context.Background())
		require.True(t, errors.Is(err, domain.ErrCacheCleanupFailed))
	})
}

func TestApp_SetLogFormat_IgnoresFixedLoggers(_ *testing.T) {
	ta := app.New(nil, nil, nil, nil)
	// A nil logger does not support switching formats; this must not panic.
	ta.SetLogFormat(detector.FormatJSON)
}
