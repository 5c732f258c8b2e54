package logStore_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/winsome-net/winsome/internal/logStore"
	"github.com/winsome-net/winsome/pkg/graph"
	"github.com/winsome-net/winsome/pkg/types"
)

// reopen closes the saver and opens a fresh one over the same directory, the
// way a process restart would.
func reopen(t *testing.T, s *logStore.Saver, dir string) *logStore.Saver {
	t.Helper()
	require.NoError(t, s.Close())
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	s2, err := logStore.NewSaver(dir, logger)
	require.NoError(t, err)
	return s2
}

func TestLoadRoundTrip(t *testing.T) {
	s, dir := newSaver(t)

	alice := types.NewUser("alice", "pw", nil)
	bob := types.NewUser("bob", "pw", nil)
	require.NoError(t, s.SaveUser(alice))
	require.NoError(t, s.SaveUser(bob))

	p := types.NewPost("alice", "hi", "hello")
	require.NoError(t, s.SavePost(p))
	c := types.NewComment(p.ID, "bob", "nice")
	require.NoError(t, s.SaveComment(c, "alice"))
	l := types.NewLike(p.ID, "bob", types.VoteLike)
	require.NoError(t, s.SaveLike(l, "alice"))
	require.NoError(t, s.SaveRewin("bob", p.ID))

	users := map[string]*types.User{"alice": alice, "bob": bob}
	posts := map[uuid.UUID]*types.Post{p.ID: p}
	require.NoError(t, s.WriteSnapshots(users, posts))

	s = reopen(t, s, dir)
	res, err := s.Load()
	require.NoError(t, err)

	require.Contains(t, res.Users, "alice")
	require.Contains(t, res.Users, "bob")
	require.Contains(t, res.Posts, p.ID)
	assert.True(t, res.Posts[p.ID].Offset.Persisted())
	assert.Equal(t, int64(0), res.Posts[p.ID].Offset.Value())
	assert.Equal(t, p.CreatedAt, res.Users["alice"].LastPostTime())

	require.Contains(t, res.Comments, c.ID)
	assert.Equal(t, "nice", res.Comments[c.ID].Content)
	require.Contains(t, res.Likes, l.ID)
	assert.Equal(t, types.VoteLike, res.Likes[l.ID].Vote)

	aliceNode := graph.UserNode("alice")
	alicePosts := graph.GroupNode(graph.LabelPosts, aliceNode)
	postNode := graph.PostNode(p.ID)
	assert.True(t, res.Graph.HasEdgeConnecting(aliceNode, alicePosts))
	assert.True(t, res.Graph.HasEdgeConnecting(alicePosts, postNode))
	assert.True(t, res.Graph.HasEdgeConnecting(
		graph.GroupNode(graph.LabelComments, postNode), graph.CommentNode(c.ID)))
	assert.True(t, res.Graph.HasEdgeConnecting(
		graph.GroupNode(graph.LabelLikes, postNode), graph.LikeNode(l.ID)))

	// The rewin reappears on bob's posts group.
	bobPosts := graph.GroupNode(graph.LabelPosts, graph.UserNode("bob"))
	assert.True(t, res.Graph.HasEdgeConnecting(bobPosts, postNode))

	// Both interactions were never pulled, so both come back staged.
	assert.Equal(t, 2, res.Staged)
	newEntries := graph.NewEntriesNode()
	assert.True(t, res.Graph.HasEdgeConnecting(newEntries, graph.CommentNode(c.ID)))
	assert.True(t, res.Graph.HasEdgeConnecting(newEntries, graph.LikeNode(l.ID)))
}

func TestLoadDoesNotRestageConsumedEntries(t *testing.T) {
	s, dir := newSaver(t)

	alice := types.NewUser("alice", "pw", nil)
	p := types.NewPost("alice", "hi", "hello")
	require.NoError(t, s.SavePost(p))
	c := types.NewComment(p.ID, "bob", "nice")
	require.NoError(t, s.SaveComment(c, "alice"))
	require.NoError(t, s.RemoveEntry("alice", c.Offset.Value(), logStore.CommentLineLen))

	require.NoError(t, s.WriteSnapshots(
		map[string]*types.User{"alice": alice},
		map[uuid.UUID]*types.Post{p.ID: p}))

	s = reopen(t, s, dir)
	res, err := s.Load()
	require.NoError(t, err)

	require.Contains(t, res.Comments, c.ID)
	assert.Equal(t, 0, res.Staged)
	assert.False(t, res.Graph.HasEdgeConnecting(graph.NewEntriesNode(), graph.CommentNode(c.ID)))
}

func TestLoadPrunesPostMissingFromSnapshot(t *testing.T) {
	s, dir := newSaver(t)

	alice := types.NewUser("alice", "pw", nil)
	p := types.NewPost("alice", "hi", "hello")
	require.NoError(t, s.SavePost(p))

	// Crash window: the log line landed but the post never made a snapshot.
	require.NoError(t, s.WriteSnapshots(
		map[string]*types.User{"alice": alice},
		map[uuid.UUID]*types.Post{}))

	s = reopen(t, s, dir)
	res, err := s.Load()
	require.NoError(t, err)

	assert.Empty(t, res.Posts)
	data, err := os.ReadFile(filepath.Join(dir, "alice"))
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("#", logStore.PostLineLen-1)+"\n", string(data))
}

func TestLoadPrunesCommentWithMissingSideFile(t *testing.T) {
	s, dir := newSaver(t)

	alice := types.NewUser("alice", "pw", nil)
	p := types.NewPost("alice", "hi", "hello")
	require.NoError(t, s.SavePost(p))
	c := types.NewComment(p.ID, "bob", "nice")
	require.NoError(t, s.SaveComment(c, "alice"))
	require.NoError(t, os.Remove(filepath.Join(dir, "jsons", c.ID.String()+".json")))

	require.NoError(t, s.WriteSnapshots(
		map[string]*types.User{"alice": alice},
		map[uuid.UUID]*types.Post{p.ID: p}))

	s = reopen(t, s, dir)
	res, err := s.Load()
	require.NoError(t, err)

	require.Contains(t, res.Posts, p.ID)
	assert.Empty(t, res.Comments)
	assert.Equal(t, 0, res.Staged)

	data, err := os.ReadFile(filepath.Join(dir, "alice"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, strings.Repeat("#", logStore.CommentLineLen-1), lines[1])
}

func TestLoadDropsRewinOfMissingPost(t *testing.T) {
	s, dir := newSaver(t)

	alice := types.NewUser("alice", "pw", nil)
	require.NoError(t, s.SaveUser(alice))
	require.NoError(t, s.SaveRewin("alice", uuid.New()))

	require.NoError(t, s.WriteSnapshots(
		map[string]*types.User{"alice": alice},
		map[uuid.UUID]*types.Post{}))

	s = reopen(t, s, dir)
	res, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, 0, res.Graph.Degree(graph.GroupNode(graph.LabelPosts, graph.UserNode("alice"))))
}

func TestLoadSkipsLogOfUnknownUser(t *testing.T) {
	s, dir := newSaver(t)

	p := types.NewPost("ghost", "hi", "hello")
	require.NoError(t, s.SavePost(p))

	s = reopen(t, s, dir)
	res, err := s.Load()
	require.NoError(t, err)
	assert.Empty(t, res.Users)
	assert.Empty(t, res.Posts)

	// The unknown file is left alone for an operator to look at.
	data, err := os.ReadFile(filepath.Join(dir, "ghost"))
	require.NoError(t, err)
	assert.Equal(t, "POST;"+p.ID.String()+"\n", string(data))
}
