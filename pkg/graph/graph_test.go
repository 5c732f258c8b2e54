package graph_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/winsome-net/winsome/pkg/graph"
)

func TestGroupNodeIdentityIsStructural(t *testing.T) {
	postID := uuid.New()

	// Two independently constructed group nodes with the same label and
	// parent chain address the same node.
	g1 := graph.GroupNode(graph.LabelComments, graph.PostNode(postID))
	g2 := graph.GroupNode(graph.LabelComments, graph.PostNode(postID))
	assert.Equal(t, g1, g2)

	// Same label, different parent: different node.
	g3 := graph.GroupNode(graph.LabelComments, graph.PostNode(uuid.New()))
	assert.NotEqual(t, g1, g3)

	// Nested chains count all the way up.
	a := graph.GroupNode("X", graph.GroupNode("Y", graph.UserNode("alice")))
	b := graph.GroupNode("X", graph.GroupNode("Y", graph.UserNode("alice")))
	c := graph.GroupNode("X", graph.GroupNode("Y", graph.UserNode("bob")))
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestPutEdgeNoDuplicates(t *testing.T) {
	g := graph.New()
	n1 := graph.UserNode("alice")
	n2 := graph.PostNode(uuid.New())

	g.PutEdge(n1, n2)
	g.PutEdge(n1, n2)
	g.PutEdge(n2, n1)

	assert.True(t, g.HasEdgeConnecting(n1, n2))
	assert.True(t, g.HasEdgeConnecting(n2, n1))
	assert.Len(t, g.AdjacentNodes(n1), 1)
	assert.Len(t, g.AdjacentNodes(n2), 1)
}

func TestPutEdgeIgnoresSelfLoop(t *testing.T) {
	g := graph.New()
	n := graph.UserNode("alice")
	g.PutEdge(n, n)
	assert.Equal(t, 0, g.Degree(n))
}

func TestRemoveNodeDropsIncidentEdges(t *testing.T) {
	g := graph.New()
	post := graph.PostNode(uuid.New())
	c1 := graph.CommentNode(uuid.New())
	c2 := graph.CommentNode(uuid.New())
	group := graph.GroupNode(graph.LabelComments, post)

	g.PutEdge(group, c1)
	g.PutEdge(group, c2)
	g.RemoveNode(c1)

	assert.False(t, g.HasEdgeConnecting(group, c1))
	assert.True(t, g.HasEdgeConnecting(group, c2))
	assert.False(t, g.HasNode(c1))
}

func TestDetachReturnsAndClearsAllEdges(t *testing.T) {
	g := graph.New()
	staging := graph.NewEntriesNode()
	nodes := []graph.Node{
		graph.CommentNode(uuid.New()),
		graph.LikeNode(uuid.New()),
		graph.LikeNode(uuid.New()),
	}
	for _, n := range nodes {
		g.PutEdge(staging, n)
	}

	detached := g.Detach(staging)
	assert.ElementsMatch(t, nodes, detached)
	assert.Equal(t, 0, g.Degree(staging))
	for _, n := range nodes {
		assert.False(t, g.HasEdgeConnecting(staging, n))
	}

	// A second detach before any new edge returns nothing.
	assert.Empty(t, g.Detach(staging))
}
