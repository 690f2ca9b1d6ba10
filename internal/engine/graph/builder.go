// Package graph builds configuration graphs by following the child_config and
// parent_config references of configuration documents.
package graph

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"go.trai.ch/sift/internal/core/domain"
	"go.trai.ch/sift/internal/core/ports"
	"go.trai.ch/zerr"
)

// BuildRequest describes the graph to build.
type BuildRequest struct {
	// Seeds are the documents named by the caller, outermost parent first.
	// An empty list means the default document in RootDirectory.
	Seeds []string
	// RootDirectory is the directory seeds and remote documents are resolved against.
	RootDirectory string
	// IgnoreParentChild disables following child_config and parent_config.
	IgnoreParentChild bool
}

// Builder constructs configuration graphs.
type Builder struct {
	fs     ports.FileSystem
	parser ports.DocumentParser
	remote ports.RemoteResolver
	logger ports.Logger
	tracer ports.Tracer
}

// NewBuilder creates a new Builder with the given dependencies.
func NewBuilder(
	fs ports.FileSystem,
	parser ports.DocumentParser,
	remote ports.RemoteResolver,
	logger ports.Logger,
	tracer ports.Tracer,
) *Builder {
	return &Builder{
		fs:     fs,
		parser: parser,
		remote: remote,
		logger: logger,
		tracer: tracer,
	}
}

// timeouts carries the remote timeout overrides inherited from the referencing document.
type timeouts struct {
	timeout         *time.Duration
	timeoutIfCached *time.Duration
}

// effective returns the deadlines a document is loaded with.
func (t timeouts) effective() (timeout, ifCached time.Duration) {
	timeout = domain.DefaultRemoteTimeout
	if t.timeout != nil {
		timeout = *t.timeout
	}
	switch {
	case t.timeoutIfCached != nil:
		ifCached = *t.timeoutIfCached
	case t.timeout != nil:
		ifCached = *t.timeout
	default:
		ifCached = domain.DefaultRemoteTimeoutIfCached
	}
	return timeout, ifCached
}

// inherit returns the overrides v passes on to the documents it references.
func (t timeouts) inherit(v *domain.Vertex) timeouts {
	out := t
	if d, ok := v.Options.Seconds(domain.KeyRemoteTimeout, domain.KeyRemoteConfigTimeout); ok {
		out.timeout = &d
	}
	if d, ok := v.Options.Seconds(domain.KeyRemoteTimeoutIfCached, domain.KeyRemoteConfigTimeoutIfCached); ok {
		out.timeoutIfCached = &d
	}
	return out
}

type pending struct {
	id       domain.VertexID
	timeouts timeouts
}

type reference struct {
	key     string
	asChild bool
}

var references = []reference{
	{key: domain.KeyChildConfig, asChild: true},
	{key: domain.KeyParentConfig, asChild: false},
}

// Build loads every document reachable from the request's seeds and records the
// parent/child relations between them. The returned graph is not validated.
func (b *Builder) Build(ctx context.Context, req BuildRequest) (*domain.ConfigGraph, error) {
	root := filepath.Clean(req.RootDirectory)
	ctx, span := b.tracer.Start(ctx, "config.build_graph",
		ports.WithAttribute("root", root),
		ports.WithAttribute("seeds", req.Seeds),
		ports.WithAttribute("ignore_parent_child", req.IgnoreParentChild),
	)
	defer span.End()

	g, err := b.build(ctx, root, req)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	span.SetAttribute("vertices", len(g.Vertices()))
	span.SetAttribute("edges", len(g.Edges()))
	return g, nil
}

func (b *Builder) build(ctx context.Context, root string, req BuildRequest) (*domain.ConfigGraph, error) {
	g := domain.NewConfigGraph(root)

	seeds := req.Seeds
	if len(seeds) == 0 {
		seeds = []string{domain.ConfigFileName}
	}

	seedIDs := make([]domain.VertexID, 0, len(seeds))
	for i, seed := range seeds {
		loc := domain.ParseReference(seed, root)
		id := g.AddVertex(domain.NewVertex(loc, documentRoot(loc, root), true))
		if i > 0 {
			g.AddEdge(seedIDs[i-1], id)
		}
		seedIDs = append(seedIDs, id)
	}

	loaded := make(map[domain.VertexID]bool, len(seedIDs))
	stack := make([]pending, 0, len(seedIDs))
	for i := len(seedIDs) - 1; i >= 0; i-- {
		stack = append(stack, pending{id: seedIDs[i]})
	}

	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		next := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		v := g.Vertex(next.id)
		if !loaded[next.id] {
			if err := b.load(ctx, v, next.timeouts); err != nil {
				return nil, err
			}
			loaded[next.id] = true
		}

		if req.IgnoreParentChild {
			continue
		}

		inherited := next.timeouts.inherit(v)
		for _, r := range references {
			ref, ok, err := v.Options.String(r.key)
			if err != nil {
				return nil, zerr.With(err, "path", v.Label())
			}
			if !ok {
				continue
			}

			id, added, err := b.follow(ctx, g, v, ref, inherited)
			if err != nil {
				return nil, err
			}
			if id < 0 {
				continue
			}

			if r.asChild {
				g.AddEdge(v.ID, id)
			} else {
				g.AddEdge(id, v.ID)
			}
			if added {
				loaded[id] = true
				stack = append(stack, pending{id: id, timeouts: inherited})
			}
		}
	}

	g.MarkBuilt()
	return g, nil
}

// follow resolves the reference ref found in v. It returns the id of the referenced
// vertex and whether it was newly added, or -1 when the referenced document is missing.
func (b *Builder) follow(
	ctx context.Context,
	g *domain.ConfigGraph,
	v *domain.Vertex,
	ref string,
	inherited timeouts,
) (domain.VertexID, bool, error) {
	loc := domain.ParseReference(ref, v.RootDirectory)
	if v.IsRemote() && !loc.IsRemote() {
		err := zerr.With(zerr.Wrap(domain.ErrRemoteTrustViolation, "remote configuration references a local file"),
			"url", v.RemoteURL)
		return -1, false, zerr.With(err, "reference", ref)
	}

	candidate := domain.NewVertex(loc, documentRoot(loc, g.RootDirectory()), false)

	// A match already has the root directory the candidate would get.
	if id, ok := g.Lookup(&candidate); ok {
		return id, false, nil
	}

	if err := b.load(ctx, &candidate, inherited); err != nil {
		if errors.Is(err, domain.ErrConfigNotFound) {
			b.logger.Warn(fmt.Sprintf("configuration file %s not found, ignoring this part of the configuration",
				candidate.Label()))
			return -1, false, nil
		}
		return -1, false, err
	}

	return g.AddVertex(candidate), true, nil
}

// documentRoot returns the directory relative paths in the document at loc refer to:
// its own directory for local documents, the graph root for remote ones.
func documentRoot(loc domain.Location, graphRoot string) string {
	if loc.IsRemote() {
		return graphRoot
	}
	return filepath.Dir(loc.Path)
}

// load makes the document of v available locally and parses it into v.Options.
func (b *Builder) load(ctx context.Context, v *domain.Vertex, t timeouts) error {
	timeout, ifCached := t.effective()
	path, loc, err := b.remote.Resolve(ctx, v.Location, timeout, ifCached)
	if err != nil {
		return err
	}
	v.Location = loc

	if !b.fs.Exists(path) || b.fs.IsDir(path) {
		if v.Seed {
			return zerr.With(zerr.Wrap(domain.ErrInitialConfigNotFound, "configuration file does not exist"), "path", path)
		}
		return zerr.With(zerr.Wrap(domain.ErrConfigNotFound, "configuration file does not exist"), "path", path)
	}

	data, err := b.fs.ReadFile(path)
	if err != nil {
		return zerr.With(zerr.Wrap(domain.ErrConfigReadFailed, err.Error()), "path", path)
	}

	opts, err := b.parser.Parse(path, data)
	if err != nil {
		return err
	}
	if opts == nil {
		opts = domain.Options{}
	}
	v.Options = opts
	return nil
}
