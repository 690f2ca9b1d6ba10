package domain_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/sift/internal/core/domain"
	"go.trai.ch/zerr"
)

func addLocal(g *domain.ConfigGraph, path string, opts domain.Options) domain.VertexID {
	v := domain.NewVertex(domain.LocalLocation(path), "/repo", false)
	v.Options = opts
	return g.AddVertex(v)
}

func TestConfigGraph_Validate_LinearChain(t *testing.T) {
	g := domain.NewConfigGraph("/repo")
	a := addLocal(g, "/repo/a.yml", domain.Options{"reporter": "a"})
	b := addLocal(g, "/repo/b.yml", domain.Options{"reporter": "b"})
	c := addLocal(g, "/repo/c.yml", domain.Options{"reporter": "c"})

	// Insert edges out of order; the chain is derived from edges, not insertion.
	g.AddEdge(b, c)
	g.AddEdge(a, b)
	g.MarkBuilt()

	chain, err := g.Validate()
	require.NoError(t, err)
	require.Len(t, chain, len(g.Vertices()))

	assert.Equal(t, "/repo/a.yml", chain[0].Path)
	assert.Equal(t, "/repo/b.yml", chain[1].Path)
	assert.Equal(t, "/repo/c.yml", chain[2].Path)
	assert.Equal(t, "c", chain[2].Options["reporter"])
	assert.Equal(t, "/repo", chain[0].RootDirectory)
}

func TestConfigGraph_Validate_Empty(t *testing.T) {
	g := domain.NewConfigGraph("/repo")

	chain, err := g.Validate()
	require.NoError(t, err)
	assert.Empty(t, chain)
}

func TestConfigGraph_Validate_SingleVertex(t *testing.T) {
	g := domain.NewConfigGraph("/repo")
	addLocal(g, "/repo/.sift.yml", nil)

	chain, err := g.Validate()
	require.NoError(t, err)
	assert.Len(t, chain, 1)
}

func TestConfigGraph_Validate_Cycle(t *testing.T) {
	g := domain.NewConfigGraph("/repo")
	a := addLocal(g, "/repo/a.yml", nil)
	b := addLocal(g, "/repo/b.yml", nil)
	c := addLocal(g, "/repo/c.yml", nil)
	g.AddEdge(a, b)
	g.AddEdge(b, c)
	g.AddEdge(c, a)

	_, err := g.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrCycleDetected))

	zErr, ok := err.(*zerr.Error)
	require.True(t, ok, "expected *zerr.Error, got %T", err)
	assert.Equal(t, "/repo/a.yml -> /repo/b.yml -> /repo/c.yml -> /repo/a.yml", zErr.Metadata()["cycle"])
}

func TestConfigGraph_Validate_SelfReference(t *testing.T) {
	g := domain.NewConfigGraph("/repo")
	a := addLocal(g, "/repo/a.yml", nil)
	g.AddEdge(a, a)

	_, err := g.Validate()
	require.ErrorIs(t, err, domain.ErrCycleDetected)
}

func TestConfigGraph_Validate_SharedSubstructureTerminates(t *testing.T) {
	// a -> c and b -> c share c: ambiguous, but the cycle walk must still finish.
	g := domain.NewConfigGraph("/repo")
	a := addLocal(g, "/repo/a.yml", nil)
	b := addLocal(g, "/repo/b.yml", nil)
	c := addLocal(g, "/repo/c.yml", nil)
	d := addLocal(g, "/repo/d.yml", nil)
	g.AddEdge(a, c)
	g.AddEdge(b, c)
	g.AddEdge(c, d)

	_, err := g.Validate()
	require.ErrorIs(t, err, domain.ErrAmbiguousHierarchy)
}

func TestConfigGraph_Validate_Ambiguity(t *testing.T) {
	tests := []struct {
		name    string
		edges   func(a, b, x domain.VertexID) [][2]domain.VertexID
		message string
	}{
		{
			name: "two configurations declare the same child",
			edges: func(a, b, x domain.VertexID) [][2]domain.VertexID {
				return [][2]domain.VertexID{{a, x}, {b, x}}
			},
			message: "more than one parent",
		},
		{
			name: "one configuration has two children",
			edges: func(a, b, x domain.VertexID) [][2]domain.VertexID {
				return [][2]domain.VertexID{{x, a}, {x, b}}
			},
			message: "more than one child",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := domain.NewConfigGraph("/repo")
			a := addLocal(g, "/repo/a.yml", nil)
			b := addLocal(g, "/repo/b.yml", nil)
			x := addLocal(g, "/repo/x.yml", nil)
			for _, e := range tt.edges(a, b, x) {
				g.AddEdge(e[0], e[1])
			}

			_, err := g.Validate()
			require.ErrorIs(t, err, domain.ErrAmbiguousHierarchy)
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestConfigGraph_Validate_NoUniqueStart(t *testing.T) {
	// Two disconnected vertices: neither is ambiguous nor cyclic, but there is no single chain.
	g := domain.NewConfigGraph("/repo")
	addLocal(g, "/repo/a.yml", nil)
	addLocal(g, "/repo/b.yml", nil)

	_, err := g.Validate()
	require.ErrorIs(t, err, domain.ErrInconsistentGraph)
}

func TestConfigGraph_AddVertex_DeduplicatesByIdentity(t *testing.T) {
	g := domain.NewConfigGraph("/repo")

	first := domain.NewVertex(domain.RemoteLocation("https://Example.com/base.yml"), "/repo", false)
	second := domain.NewVertex(domain.RemoteLocation("https://example.com/base.yml#top"), "/repo/sub", false)

	id1 := g.AddVertex(first)
	id2 := g.AddVertex(second)

	assert.Equal(t, id1, id2)
	assert.Len(t, g.Vertices(), 1)

	keys := map[string]bool{}
	for _, v := range g.Vertices() {
		assert.False(t, keys[v.IdentityKey()], "duplicate identity %s", v.IdentityKey())
		keys[v.IdentityKey()] = true
	}
}

func TestConfigGraph_AddVertex_LocalIdentityIncludesRoot(t *testing.T) {
	g := domain.NewConfigGraph("/repo")

	id1 := g.AddVertex(domain.NewVertex(domain.LocalLocation("/repo/a.yml"), "/repo", false))
	id2 := g.AddVertex(domain.NewVertex(domain.LocalLocation("/repo/a.yml"), "/repo", true))
	id3 := g.AddVertex(domain.NewVertex(domain.LocalLocation("/repo/a.yml"), "/elsewhere", false))

	assert.Equal(t, id1, id2)
	assert.NotEqual(t, id1, id3)
}

func TestConfigGraph_RemoteIdentitySurvivesFetch(t *testing.T) {
	g := domain.NewConfigGraph("/repo")
	id := g.AddVertex(domain.NewVertex(domain.RemoteLocation("https://example.com/a.yml"), "/repo", false))

	// After fetching, the location points at the cached copy.
	g.Vertex(id).Location = domain.LocalLocation("/repo/.sift/RemoteConfigCache/v1/a.yml")

	found, ok := g.Lookup(&domain.Vertex{RemoteURL: "https://example.com/a.yml"})
	require.True(t, ok)
	assert.Equal(t, id, found)
	assert.True(t, g.IncludesFile("/repo/.sift/RemoteConfigCache/v1/a.yml"))
}

func TestConfigGraph_IncludesFile(t *testing.T) {
	g := domain.NewConfigGraph("/repo")
	addLocal(g, "/repo/.sift.yml", nil)

	assert.True(t, g.IncludesFile("/repo/.sift.yml"))
	assert.True(t, g.IncludesFile("/repo/sub/../.sift.yml"))
	assert.False(t, g.IncludesFile("/repo/sub/.sift.yml"))
}

func TestConfigGraph_Edges_AreASet(t *testing.T) {
	g := domain.NewConfigGraph("/repo")
	a := addLocal(g, "/repo/a.yml", nil)
	b := addLocal(g, "/repo/b.yml", nil)

	g.AddEdge(a, b)
	g.AddEdge(a, b)

	assert.Equal(t, []domain.Edge{{Parent: a, Child: b}}, g.Edges())
}

func TestPlaceholderGraph(t *testing.T) {
	g := domain.NewPlaceholderGraph("/repo/sub/")

	assert.True(t, g.Built())
	assert.Equal(t, "/repo/sub", g.RootDirectory())
	assert.Empty(t, g.Vertices())
}
