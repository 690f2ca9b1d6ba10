// Package remote implements the RemoteResolver port: remote configuration documents
// are fetched under a deadline and kept in a schema-versioned cache below the project root.
package remote

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"go.trai.ch/sift/internal/core/domain"
	"go.trai.ch/sift/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.RemoteCache = (*Cache)(nil)

const provenanceTimeLayout = "02/01/2006 at 15:04:05"

var errUnexpectedBody = errors.New("response body is not valid UTF-8")

var supportedExtensions = map[string]struct{}{
	".yml":   {},
	".yaml":  {},
	".json":  {},
	".jsonc": {},
	".toml":  {},
}

// Cache resolves remote configuration locations to files in the local cache.
type Cache struct {
	fs          ports.FileSystem
	logger      ports.Logger
	tracer      ports.Tracer
	client      *http.Client
	projectRoot string
	override    map[string]string
	now         func() time.Time
}

// Option configures a Cache.
type Option func(*Cache)

// WithHTTPClient sets the client used for fetching.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Cache) {
		c.client = client
	}
}

// WithOverride serves the given URL to body pairs instead of using the network.
// A non-empty override also enables Cleanup.
func WithOverride(override map[string]string) Option {
	return func(c *Cache) {
		c.override = override
	}
}

// WithClock sets the clock used for the provenance header.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		c.now = now
	}
}

// NewCache creates a Cache storing documents below projectRoot.
func NewCache(fsys ports.FileSystem, logger ports.Logger, tracer ports.Tracer, projectRoot string, opts ...Option) *Cache {
	c := &Cache{
		fs:          fsys,
		logger:      logger,
		tracer:      tracer,
		client:      &http.Client{},
		projectRoot: filepath.Clean(projectRoot),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CacheRoot returns the directory holding every schema version of the cache.
func (c *Cache) CacheRoot() string {
	return filepath.Join(c.projectRoot, domain.RemoteCacheRoot())
}

// CachePath returns the cache file used for rawURL.
func (c *Cache) CachePath(rawURL string) string {
	return filepath.Join(c.projectRoot, domain.RemoteCachePath(), sanitize(rawURL)+extensionFor(rawURL))
}

// Resolve returns the local path of the document at loc.
func (c *Cache) Resolve(
	ctx context.Context,
	loc domain.Location,
	timeout, timeoutIfCached time.Duration,
) (string, domain.Location, error) {
	if !loc.IsRemote() {
		return loc.Path, loc, nil
	}

	ctx, span := c.tracer.Start(ctx, "remote.fetch", ports.WithAttribute("url", loc.URL))
	defer span.End()

	cachePath := c.CachePath(loc.URL)
	hasCache := c.fs.Exists(cachePath)
	effective := timeout
	if hasCache {
		effective = timeoutIfCached
	}
	span.SetAttribute("cached", hasCache)
	span.SetAttribute("timeout", effective.String())

	body, timedOut, err := c.fetch(ctx, loc.URL, effective)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			span.RecordError(ctxErr)
			return "", loc, ctxErr
		}
		return c.fetchFallback(span, loc, cachePath, hasCache, effective, timedOut, err)
	}

	if err := c.store(cachePath, loc.URL, body); err != nil {
		return c.writeFallback(span, loc, cachePath, hasCache, err)
	}

	span.SetAttribute("outcome", "fetched")
	return cachePath, domain.LocalLocation(cachePath), nil
}

func (c *Cache) fetchFallback(
	span ports.Span,
	loc domain.Location,
	cachePath string,
	hasCache bool,
	timeout time.Duration,
	timedOut bool,
	cause error,
) (string, domain.Location, error) {
	if hasCache {
		if timedOut {
			c.logger.Warn(fmt.Sprintf(
				"timeout (%s): unable to load remote configuration from %q, using cached version as a fallback",
				timeout, loc.URL))
		} else {
			c.logger.Warn(fmt.Sprintf(
				"unable to load remote configuration from %q (%v), using cached version as a fallback",
				loc.URL, cause))
		}
		span.SetAttribute("outcome", "cache_fallback")
		return cachePath, domain.LocalLocation(cachePath), nil
	}

	var err error
	if timedOut {
		err = zerr.Wrap(domain.ErrRemoteFetchTimeout, "no cached version to fall back to")
		err = zerr.With(err, "timeout", timeout.String())
	} else {
		err = zerr.Wrap(domain.ErrRemoteFetchFailed, "no cached version to fall back to")
		err = zerr.With(err, "reason", cause.Error())
	}
	err = zerr.With(err, "url", loc.URL)
	span.RecordError(err)
	return "", loc, err
}

func (c *Cache) writeFallback(
	span ports.Span,
	loc domain.Location,
	cachePath string,
	hasCache bool,
	cause error,
) (string, domain.Location, error) {
	if hasCache {
		c.logger.Warn(fmt.Sprintf(
			"unable to cache remote configuration from %q, using cached version as a fallback", loc.URL))
		span.SetAttribute("outcome", "cache_fallback")
		return cachePath, domain.LocalLocation(cachePath), nil
	}

	err := zerr.Wrap(domain.ErrCacheWriteFailed, "no cached version to fall back to")
	err = zerr.With(err, "reason", cause.Error())
	err = zerr.With(err, "url", loc.URL)
	span.RecordError(err)
	return "", loc, err
}

// fetch performs a single GET bounded by timeout. The boolean result reports whether
// the failure was caused by the deadline.
func (c *Cache) fetch(ctx context.Context, rawURL string, timeout time.Duration) (string, bool, error) {
	if body, ok := c.override[rawURL]; ok {
		return body, false, nil
	}

	fetchCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(fetchCtx, http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		return "", false, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", errors.Is(fetchCtx.Err(), context.DeadlineExceeded), err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return "", false, fmt.Errorf("unexpected status code %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errors.Is(fetchCtx.Err(), context.DeadlineExceeded), err
	}
	if !utf8.Valid(data) {
		return "", false, errUnexpectedBody
	}
	return string(data), false, nil
}

// store runs cache maintenance and writes body with a provenance header to cachePath.
func (c *Cache) store(cachePath, rawURL, body string) error {
	if err := c.maintain(); err != nil {
		return err
	}
	return c.fs.WriteFile(cachePath, []byte(c.provenance(rawURL)+body))
}

func (c *Cache) provenance(rawURL string) string {
	marker := "#"
	if ext := extensionFor(rawURL); ext == ".json" || ext == ".jsonc" {
		marker = "//"
	}
	return fmt.Sprintf("%s\n%s Automatically downloaded from %s by sift on %s.\n%s\n",
		marker, marker, rawURL, c.now().Format(provenanceTimeLayout), marker)
}

// maintain creates the current cache directory, prunes directories of other schema
// versions and makes sure the project's ignore file lists the cache.
func (c *Cache) maintain() error {
	current := filepath.Join(c.projectRoot, domain.RemoteCachePath())
	if err := c.fs.MkdirAll(current); err != nil {
		return err
	}

	entries, err := c.fs.ReadDir(c.CacheRoot())
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if filepath.Base(entry) == domain.RemoteCacheVersion {
			continue
		}
		if err := c.fs.RemoveAll(entry); err != nil {
			return err
		}
	}

	return c.ensureIgnoreEntry()
}

func (c *Cache) ensureIgnoreEntry() error {
	marker := filepath.Join(c.projectRoot, domain.IgnoreMarkerFileName)
	appendix := "# sift remote config cache\n" + domain.IgnoreMarkerEntry()

	if !c.fs.Exists(marker) {
		return c.fs.WriteFile(marker, []byte(appendix))
	}

	data, err := c.fs.ReadFile(marker)
	if err != nil {
		return err
	}
	contents := string(data)
	if strings.Contains(contents, domain.IgnoreMarkerEntry()) {
		return nil
	}
	return c.fs.WriteFile(marker, []byte(contents+"\n\n"+appendix))
}

// Cleanup removes the ignore file, the cache and an empty tool directory. It only
// acts when the cache serves an override, so that test runs leave no traces.
func (c *Cache) Cleanup() error {
	if len(c.override) == 0 {
		return nil
	}

	var errs []error
	errs = append(errs, c.fs.RemoveAll(filepath.Join(c.projectRoot, domain.IgnoreMarkerFileName)))
	errs = append(errs, c.removeCache()...)
	if err := errors.Join(errs...); err != nil {
		return zerr.Wrap(domain.ErrCacheCleanupFailed, err.Error())
	}
	return nil
}

// Clear removes the cache and the tool directory when it is left empty. The ignore
// file is kept.
func (c *Cache) Clear() error {
	if err := errors.Join(c.removeCache()...); err != nil {
		return zerr.With(zerr.Wrap(domain.ErrCacheCleanupFailed, err.Error()), "path", c.CacheRoot())
	}
	return nil
}

func (c *Cache) removeCache() []error {
	errs := []error{c.fs.RemoveAll(c.CacheRoot())}

	toolDir := filepath.Join(c.projectRoot, domain.ToolDirName)
	if entries, err := c.fs.ReadDir(toolDir); err == nil && len(entries) == 0 {
		errs = append(errs, c.fs.RemoveAll(toolDir))
	}
	return errs
}

// sanitize turns a URL into a file name.
func sanitize(rawURL string) string {
	name := strings.Map(func(r rune) rune {
		switch r {
		case ':', '<', '>', '"', '/', '\\', '|', '?', '*':
			return '_'
		default:
			return r
		}
	}, rawURL)
	return strings.Trim(name, ".")
}

// extensionFor returns the document extension of rawURL, defaulting to .yml.
func extensionFor(rawURL string) string {
	p := rawURL
	if u, err := url.Parse(rawURL); err == nil {
		p = u.Path
	}
	ext := strings.ToLower(path.Ext(p))
	if _, ok := supportedExtensions[ext]; ok {
		return ext
	}
	return ".yml"
}
