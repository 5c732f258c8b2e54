// Package store is the public facade over the entity tables, the graph index
// and the log store. Posts touch tables, then graph, then log; interactions
// persist before their staging edge appears, so a staged node always carries
// its final offset. The steps are not one transaction; a crash in between is
// healed at next startup by the loader, never by this package.
package store

import (
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/winsome-net/winsome/internal/logStore"
	"github.com/winsome-net/winsome/pkg/graph"
	"github.com/winsome-net/winsome/pkg/types"
	workerpool "github.com/winsome-net/winsome/pkg/workerPool"
)

var log *logrus.Logger

type Store struct {
	usersMu    sync.RWMutex
	users      map[string]*types.User
	postsMu    sync.RWMutex
	posts      map[uuid.UUID]*types.Post
	commentsMu sync.RWMutex
	comments   map[uuid.UUID]*types.Comment

	// likesMu guards both like maps; votes enforces the one-vote-per-
	// (post, user) invariant without consulting the graph.
	likesMu sync.RWMutex
	likes   map[uuid.UUID]*types.Like
	votes   map[voteKey]*types.Like

	graph *graph.Graph
	saver *logStore.Saver
	wp    *workerpool.WorkerPool

	newEntries graph.Node
}

// New wraps a recovered state. res is what the loader produced; on first
// boot it is simply empty tables and an empty graph.
func New(res *logStore.LoadResult, saver *logStore.Saver, wp *workerpool.WorkerPool, logger *logrus.Logger) *Store {
	if logger == nil {
		logger = logrus.New()
	}
	log = logger

	votes := make(map[voteKey]*types.Like, len(res.Likes))
	for _, l := range res.Likes {
		votes[voteKey{post: l.PostID, author: l.Author}] = l
	}

	return &Store{
		users:      res.Users,
		posts:      res.Posts,
		comments:   res.Comments,
		likes:      res.Likes,
		votes:      votes,
		graph:      res.Graph,
		saver:      saver,
		wp:         wp,
		newEntries: graph.NewEntriesNode(),
	}
}

func (s *Store) Graph() *graph.Graph {
	return s.graph
}

// Snapshot copies both tables for the snapshot writer.
func (s *Store) Snapshot() (map[string]*types.User, map[uuid.UUID]*types.Post) {
	s.usersMu.RLock()
	users := make(map[string]*types.User, len(s.users))
	for k, v := range s.users {
		users[k] = v
	}
	s.usersMu.RUnlock()

	s.postsMu.RLock()
	posts := make(map[uuid.UUID]*types.Post, len(s.posts))
	for k, v := range s.posts {
		posts[k] = v
	}
	s.postsMu.RUnlock()

	return users, posts
}

func postsGroupOf(username string) graph.Node {
	return graph.GroupNode(graph.LabelPosts, graph.UserNode(username))
}

func commentsGroupOf(postID uuid.UUID) graph.Node {
	return graph.GroupNode(graph.LabelComments, graph.PostNode(postID))
}

func likesGroupOf(postID uuid.UUID) graph.Node {
	return graph.GroupNode(graph.LabelLikes, graph.PostNode(postID))
}
