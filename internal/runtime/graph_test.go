package runtime

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGraphRegistryLink(t *testing.T) {
	t.Run("source link sets sink inverse", func(t *testing.T) {
		g := NewGraphRegistry()
		g.Link("parent", "child", LinkSource)

		graph := g.GraphOf("parent")
		require.NotNil(t, graph)
		assert.Equal(t, []string{"child"}, graph.Sources)
		assert.Nil(t, graph.Sink)

		child := g.GraphOf("child")
		require.NotNil(t, child)
		require.NotNil(t, child.Sink)
		assert.Equal(t, "parent", *child.Sink)
	})

	t.Run("flat link", func(t *testing.T) {
		g := NewGraphRegistry()
		g.Link("parent", "inner", LinkFlat)

		graph := g.GraphOf("parent")
		require.NotNil(t, graph)
		assert.Equal(t, []string{"inner"}, graph.Flats)
		assert.Empty(t, graph.Sources)
	})

	t.Run("duplicate links are idempotent", func(t *testing.T) {
		g := NewGraphRegistry()
		g.Link("parent", "child", LinkSource)
		g.Link("parent", "child", LinkSource)

		graph := g.GraphOf("parent")
		require.NotNil(t, graph)
		assert.Equal(t, []string{"child"}, graph.Sources)
	})

	t.Run("self link is ignored", func(t *testing.T) {
		g := NewGraphRegistry()
		g.Link("a", "a", LinkSource)

		graph := g.GraphOf("a")
		require.NotNil(t, graph)
		assert.Empty(t, graph.Sources)
		assert.Nil(t, graph.Sink)
	})
}

func TestGraphRegistryRootSink(t *testing.T) {
	g := NewGraphRegistry()
	g.Link("root", "mid", LinkSource)
	g.Link("mid", "leaf", LinkSource)

	leaf := g.GraphOf("leaf")
	require.NotNil(t, leaf)
	require.NotNil(t, leaf.Sink)
	assert.Equal(t, "mid", *leaf.Sink)
	require.NotNil(t, leaf.RootSink)
	assert.Equal(t, "root", *leaf.RootSink)

	mid := g.GraphOf("mid")
	require.NotNil(t, mid.RootSink)
	assert.Equal(t, "root", *mid.RootSink)

	// The root has neither sink nor root sink.
	root := g.GraphOf("root")
	assert.Nil(t, root.Sink)
	assert.Nil(t, root.RootSink)
}

// Property: sink and sources are inverses. If A appears in B's sources then
// A's sink is B.
func TestGraphRegistrySinkSourceInverse(t *testing.T) {
	g := NewGraphRegistry()
	links := []struct {
		parent, child string
		kind          LinkKind
	}{
		{"b", "a", LinkSource},
		{"b", "c", LinkSource},
		{"c", "d", LinkFlat},
		{"e", "b", LinkSource},
	}
	for _, l := range links {
		g.Link(l.parent, l.child, l.kind)
	}

	for _, parent := range []string{"b", "c", "e"} {
		graph := g.GraphOf(parent)
		require.NotNil(t, graph)
		for _, child := range append(graph.Sources, graph.Flats...) {
			childGraph := g.GraphOf(child)
			require.NotNil(t, childGraph, "child %s must be tracked", child)
			require.NotNil(t, childGraph.Sink)
			assert.Equal(t, parent, *childGraph.Sink)
		}
	}
}

func TestGraphRegistryUnlink(t *testing.T) {
	t.Run("flushes links into counts", func(t *testing.T) {
		g := NewGraphRegistry()
		g.Link("parent", "a", LinkSource)
		g.Link("parent", "b", LinkSource)
		g.Link("parent", "c", LinkFlat)

		g.Unlink("parent")

		graph := g.GraphOf("parent")
		require.NotNil(t, graph)
		assert.Empty(t, graph.Sources)
		assert.Empty(t, graph.Flats)
		assert.True(t, graph.SourcesFlushed)
		assert.True(t, graph.FlatsFlushed)
	})

	t.Run("nothing flushed stays unflagged", func(t *testing.T) {
		g := NewGraphRegistry()
		g.Track("lonely")
		g.Unlink("lonely")

		graph := g.GraphOf("lonely")
		require.NotNil(t, graph)
		assert.False(t, graph.SourcesFlushed)
		assert.False(t, graph.FlatsFlushed)
	})

	t.Run("unknown subscription is a no-op", func(t *testing.T) {
		g := NewGraphRegistry()
		g.Unlink("missing")
		assert.Nil(t, g.GraphOf("missing"))
	})
}

func TestGraphRegistryGraphOfAbsent(t *testing.T) {
	g := NewGraphRegistry()
	assert.Nil(t, g.GraphOf("untracked"))

	g.Track("tracked")
	assert.True(t, g.Tracked("tracked"))
	assert.False(t, g.Tracked("untracked"))
	assert.NotNil(t, g.GraphOf("tracked"))
}

func TestGraphRegistrySinkOf(t *testing.T) {
	g := NewGraphRegistry()
	g.Link("parent", "child", LinkSource)

	assert.Equal(t, "parent", g.SinkOf("child"))
	assert.Equal(t, "", g.SinkOf("parent"))
	assert.Equal(t, "", g.SinkOf("missing"))
}
