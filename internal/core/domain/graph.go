// Package domain contains the core models of configuration resolution: reference
// locations, the configuration graph and its validation, and the merge rules that
// collapse a validated chain into one effective configuration.
package domain

import (
	"path/filepath"
	"sort"
	"strings"

	"go.trai.ch/zerr"
)

// VertexID addresses a vertex inside the arena of a ConfigGraph.
type VertexID int

// Vertex is one configuration document within a graph.
type Vertex struct {
	ID       VertexID
	Location Location
	// RemoteURL is set when the document was ever remote, even after its
	// location has been rewritten to the cached copy.
	RemoteURL string
	// Seed marks documents passed in by the caller rather than discovered
	// through child_config or parent_config.
	Seed bool
	// RootDirectory resolves relative paths found in the document's own options.
	RootDirectory string
	Options       Options
}

// NewVertex builds a vertex for the document at loc.
func NewVertex(loc Location, rootDirectory string, seed bool) Vertex {
	v := Vertex{
		Location:      loc,
		Seed:          seed,
		RootDirectory: filepath.Clean(rootDirectory),
	}
	if loc.IsRemote() {
		v.RemoteURL = loc.URL
	}
	return v
}

// IsRemote reports whether the document originates from a remote URL.
func (v *Vertex) IsRemote() bool {
	return v.RemoteURL != ""
}

// IdentityKey returns the deduplication key: the canonical URL for documents that were
// ever remote, otherwise the resolved path together with the root directory.
func (v *Vertex) IdentityKey() string {
	if v.IsRemote() {
		return "remote:" + CanonicalURL(v.RemoteURL)
	}
	return "local:" + v.Location.Path + "\x00" + v.RootDirectory
}

// Label names the vertex in messages.
func (v *Vertex) Label() string {
	if v.IsRemote() {
		return v.RemoteURL
	}
	return v.Location.Path
}

// Edge records that Child's options take precedence over Parent's.
type Edge struct {
	Parent VertexID
	Child  VertexID
}

// ConfigGraph holds the configuration documents reachable from a set of seeds and the
// parent/child relations between them.
type ConfigGraph struct {
	rootDirectory string
	vertices      []*Vertex
	index         map[string]VertexID
	edges         map[Edge]struct{}
	built         bool
}

// NewConfigGraph creates an empty, unbuilt graph rooted at rootDirectory.
func NewConfigGraph(rootDirectory string) *ConfigGraph {
	return &ConfigGraph{
		rootDirectory: filepath.Clean(rootDirectory),
		index:         make(map[string]VertexID),
		edges:         make(map[Edge]struct{}),
	}
}

// NewPlaceholderGraph creates a built graph without vertices. Merged configurations
// carry one so that they still know their root directory.
func NewPlaceholderGraph(rootDirectory string) *ConfigGraph {
	g := NewConfigGraph(rootDirectory)
	g.built = true
	return g
}

// RootDirectory returns the directory the graph was rooted at.
func (g *ConfigGraph) RootDirectory() string {
	return g.rootDirectory
}

// Built reports whether construction has finished.
func (g *ConfigGraph) Built() bool {
	return g.built
}

// MarkBuilt freezes the graph.
func (g *ConfigGraph) MarkBuilt() {
	g.built = true
}

// Lookup finds the vertex with the same identity as candidate.
func (g *ConfigGraph) Lookup(candidate *Vertex) (VertexID, bool) {
	id, ok := g.index[candidate.IdentityKey()]
	return id, ok
}

// AddVertex inserts v unless a vertex with the same identity exists, and returns the
// id of the vertex now representing it.
func (g *ConfigGraph) AddVertex(v Vertex) VertexID {
	if id, ok := g.Lookup(&v); ok {
		return id
	}
	v.ID = VertexID(len(g.vertices))
	stored := v
	g.vertices = append(g.vertices, &stored)
	g.index[stored.IdentityKey()] = stored.ID
	return stored.ID
}

// Vertex returns the vertex with the given id.
func (g *ConfigGraph) Vertex(id VertexID) *Vertex {
	return g.vertices[id]
}

// Vertices returns all vertices in insertion order.
func (g *ConfigGraph) Vertices() []*Vertex {
	return g.vertices
}

// AddEdge records that child overrides parent. Duplicate edges are ignored.
func (g *ConfigGraph) AddEdge(parent, child VertexID) {
	g.edges[Edge{Parent: parent, Child: child}] = struct{}{}
}

// Edges returns every edge ordered by parent then child.
func (g *ConfigGraph) Edges() []Edge {
	edges := make([]Edge, 0, len(g.edges))
	for e := range g.edges {
		edges = append(edges, e)
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].Parent != edges[j].Parent {
			return edges[i].Parent < edges[j].Parent
		}
		return edges[i].Child < edges[j].Child
	})
	return edges
}

// IncludesFile reports whether the document at path is part of the graph.
func (g *ConfigGraph) IncludesFile(path string) bool {
	path = filepath.Clean(path)
	for _, v := range g.vertices {
		if !v.Location.IsRemote() && v.Location.Path == path {
			return true
		}
	}
	return false
}

// ChainLink is one document of a resolved chain.
type ChainLink struct {
	Options       Options
	RootDirectory string
	Path          string
}

// ResolvedChain lists the documents of a validated graph, root first and leaf last.
type ResolvedChain []ChainLink

// Validate proves that the graph is a single linear chain and returns it in merge order.
func (g *ConfigGraph) Validate() (ResolvedChain, error) {
	children := make(map[VertexID][]VertexID, len(g.vertices))
	parents := make(map[VertexID][]VertexID, len(g.vertices))
	for _, e := range g.Edges() {
		children[e.Parent] = append(children[e.Parent], e.Child)
		parents[e.Child] = append(parents[e.Child], e.Parent)
	}

	if err := g.checkCycles(children); err != nil {
		return nil, err
	}

	for _, v := range g.vertices {
		if len(children[v.ID]) > 1 {
			err := zerr.Wrap(ErrAmbiguousHierarchy, "configuration has more than one child")
			return nil, zerr.With(err, "path", v.Label())
		}
		if len(parents[v.ID]) > 1 {
			err := zerr.Wrap(ErrAmbiguousHierarchy, "configuration has more than one parent")
			return nil, zerr.With(err, "path", v.Label())
		}
	}

	return g.linearize(children, parents)
}

// checkCycles walks parent to child edges depth first, marking vertices as
// visiting while they are on the stack.
func (g *ConfigGraph) checkCycles(children map[VertexID][]VertexID) error {
	state := make([]int, len(g.vertices)) // 0: unvisited, 1: visiting, 2: visited
	var path []VertexID

	var visit func(u VertexID) error
	visit = func(u VertexID) error {
		state[u] = 1
		path = append(path, u)

		for _, next := range children[u] {
			if state[next] == 1 {
				return g.buildCycleError(path, next)
			}
			if state[next] == 0 {
				if err := visit(next); err != nil {
					return err
				}
			}
		}

		state[u] = 2
		path = path[:len(path)-1]
		return nil
	}

	for _, v := range g.vertices {
		if state[v.ID] == 0 {
			if err := visit(v.ID); err != nil {
				return err
			}
		}
	}
	return nil
}

// buildCycleError constructs an error with cycle path metadata.
func (g *ConfigGraph) buildCycleError(path []VertexID, back VertexID) error {
	startIdx := 0
	for i, id := range path {
		if id == back {
			startIdx = i
			break
		}
	}
	labels := make([]string, 0, len(path)-startIdx+1)
	for _, id := range path[startIdx:] {
		labels = append(labels, g.vertices[id].Label())
	}
	labels = append(labels, g.vertices[back].Label())
	cycle := strings.Join(labels, " -> ")
	return zerr.With(zerr.Wrap(ErrCycleDetected, "configuration references itself"), "cycle", cycle)
}

func (g *ConfigGraph) linearize(children, parents map[VertexID][]VertexID) (ResolvedChain, error) {
	if len(g.vertices) == 0 {
		return ResolvedChain{}, nil
	}

	var starts []VertexID
	for _, v := range g.vertices {
		if len(parents[v.ID]) == 0 {
			starts = append(starts, v.ID)
		}
	}
	if len(starts) != 1 {
		err := zerr.Wrap(ErrInconsistentGraph, "expected exactly one configuration without parent")
		return nil, zerr.With(err, "candidates", len(starts))
	}

	visited := make(map[VertexID]bool, len(g.vertices))
	chain := make(ResolvedChain, 0, len(g.vertices))
	current := starts[0]
	for {
		if visited[current] {
			return nil, zerr.With(zerr.Wrap(ErrInconsistentGraph, "chain revisits a configuration"),
				"path", g.vertices[current].Label())
		}
		visited[current] = true

		v := g.vertices[current]
		chain = append(chain, ChainLink{
			Options:       v.Options,
			RootDirectory: v.RootDirectory,
			Path:          v.Label(),
		})

		next := children[current]
		if len(next) == 0 {
			break
		}
		current = next[0]
	}

	if len(chain) != len(g.vertices) {
		err := zerr.Wrap(ErrInconsistentGraph, "chain does not cover every configuration")
		return nil, zerr.With(err, "chain_length", len(chain))
	}
	return chain, nil
}
