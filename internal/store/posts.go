package store

import (
	"sort"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/winsome-net/winsome/internal/metrics"
	"github.com/winsome-net/winsome/pkg/graph"
	"github.com/winsome-net/winsome/pkg/types"
)

const (
	maxTitleLen   = 20
	maxContentLen = 500
)

// CreatePost adds a post to the author's blog: table entry, graph node with
// its two group nodes, log append. The steps are deliberately not atomic,
// recovery re-derives consistency from the log.
func (s *Store) CreatePost(author, title, content string) (p *types.Post, err error) {
	defer func() { metrics.ObserveOp("create_post", err) }()

	switch {
	case title == "":
		return nil, ErrEmptyTitle
	case len(title) > maxTitleLen:
		return nil, ErrTitleTooLong
	case content == "":
		return nil, ErrEmptyContent
	case len(content) > maxContentLen:
		return nil, ErrContentTooLong
	}

	u, err := s.GetUser(author)
	if err != nil {
		return nil, err
	}

	p = types.NewPost(author, title, content)

	s.postsMu.Lock()
	s.posts[p.ID] = p
	s.postsMu.Unlock()

	postNode := graph.PostNode(p.ID)
	s.graph.PutEdge(postsGroupOf(author), postNode)
	s.graph.AddNode(commentsGroupOf(p.ID))
	s.graph.AddNode(likesGroupOf(p.ID))

	u.TouchLastPost(p.CreatedAt)

	if err := s.saver.SavePost(p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Store) GetPost(id uuid.UUID) (*types.Post, error) {
	s.postsMu.RLock()
	defer s.postsMu.RUnlock()
	p, ok := s.posts[id]
	if !ok {
		return nil, ErrUnknownPost
	}
	return p, nil
}

// ListPosts returns username's blog, newest first. Rewinned posts are part
// of the blog: a rewin is an edge from the user's posts group to the post
// node, so the adjacency walk picks them up with the authored ones.
func (s *Store) ListPosts(username string) ([]*types.Post, error) {
	if _, err := s.GetUser(username); err != nil {
		return nil, err
	}
	return s.postsOfGroup(postsGroupOf(username)), nil
}

// Feed returns the posts of everyone username follows, newest first.
func (s *Store) Feed(username string) ([]*types.Post, error) {
	u, err := s.GetUser(username)
	if err != nil {
		return nil, err
	}

	seen := make(map[uuid.UUID]struct{})
	var feed []*types.Post
	for _, followed := range u.FollowingList() {
		for _, p := range s.postsOfGroup(postsGroupOf(followed)) {
			if _, dup := seen[p.ID]; dup {
				continue
			}
			seen[p.ID] = struct{}{}
			feed = append(feed, p)
		}
	}
	sortPosts(feed)
	return feed, nil
}

func (s *Store) postsOfGroup(group graph.Node) []*types.Post {
	nodes := s.graph.AdjacentNodes(group)

	s.postsMu.RLock()
	posts := make([]*types.Post, 0, len(nodes))
	for _, n := range nodes {
		if n.Kind != graph.KindPost {
			continue
		}
		id, err := uuid.Parse(n.Key)
		if err != nil {
			continue
		}
		if p, ok := s.posts[id]; ok {
			posts = append(posts, p)
		}
	}
	s.postsMu.RUnlock()

	sortPosts(posts)
	return posts
}

func sortPosts(posts []*types.Post) {
	sort.Slice(posts, func(i, j int) bool {
		if posts[i].CreatedAt != posts[j].CreatedAt {
			return posts[i].CreatedAt > posts[j].CreatedAt
		}
		return posts[i].ID.String() < posts[j].ID.String()
	})
}

// RemovePost deletes the post and cascades to its comments and likes. Only
// the author may delete. The comment and like nodes leave the graph first,
// then the two group nodes, then the post node itself; the log store
// tombstones every involved line and drops the side files.
func (s *Store) RemovePost(username string, id uuid.UUID) (err error) {
	defer func() { metrics.ObserveOp("remove_post", err) }()

	s.postsMu.Lock()
	p, ok := s.posts[id]
	if !ok {
		s.postsMu.Unlock()
		return ErrUnknownPost
	}
	if p.Author != username {
		s.postsMu.Unlock()
		return ErrNotAuthor
	}
	delete(s.posts, id)
	s.postsMu.Unlock()

	postNode := graph.PostNode(id)
	commentsGroup := commentsGroupOf(id)
	likesGroup := likesGroupOf(id)

	comments := s.detachComments(commentsGroup)
	likes := s.detachLikes(likesGroup)

	s.graph.RemoveNode(commentsGroup)
	s.graph.RemoveNode(likesGroup)
	s.graph.RemoveNode(postNode)

	if err := s.saver.RemovePost(p, comments, likes); err != nil {
		return err
	}

	log.WithFields(logrus.Fields{
		"user":     username,
		"post":     id,
		"comments": len(comments),
		"likes":    len(likes),
	}).Info("post removed")
	return nil
}

func (s *Store) detachComments(group graph.Node) []*types.Comment {
	nodes := s.graph.AdjacentNodes(group)

	s.commentsMu.Lock()
	defer s.commentsMu.Unlock()

	var out []*types.Comment
	for _, n := range nodes {
		if n.Kind != graph.KindComment {
			continue
		}
		s.graph.RemoveNode(n)
		id, err := uuid.Parse(n.Key)
		if err != nil {
			continue
		}
		if c, ok := s.comments[id]; ok {
			out = append(out, c)
			delete(s.comments, id)
		}
	}
	return out
}

func (s *Store) detachLikes(group graph.Node) []*types.Like {
	nodes := s.graph.AdjacentNodes(group)

	s.likesMu.Lock()
	defer s.likesMu.Unlock()

	var out []*types.Like
	for _, n := range nodes {
		if n.Kind != graph.KindLike {
			continue
		}
		s.graph.RemoveNode(n)
		id, err := uuid.Parse(n.Key)
		if err != nil {
			continue
		}
		if l, ok := s.likes[id]; ok {
			out = append(out, l)
			delete(s.likes, id)
			delete(s.votes, voteKey{post: l.PostID, author: l.Author})
		}
	}
	return out
}

// Rewin attaches an existing post to username's posts group. Followers only,
// never the author, at most once per (user, post).
func (s *Store) Rewin(username string, id uuid.UUID) (err error) {
	defer func() { metrics.ObserveOp("rewin", err) }()

	u, err := s.GetUser(username)
	if err != nil {
		return err
	}
	p, err := s.GetPost(id)
	if err != nil {
		return err
	}
	if p.Author == username {
		return ErrOwnPost
	}
	if !u.IsFollowing(p.Author) {
		return ErrNotFollower
	}

	group := postsGroupOf(username)
	postNode := graph.PostNode(id)
	if s.graph.HasEdgeConnecting(group, postNode) {
		return ErrAlreadyRewinned
	}

	s.graph.PutEdge(group, postNode)
	return s.saver.SaveRewin(username, id)
}

// RemoveRewin detaches a rewinned post from username's blog and compacts the
// shared rewins file.
func (s *Store) RemoveRewin(username string, id uuid.UUID) (err error) {
	defer func() { metrics.ObserveOp("remove_rewin", err) }()

	if _, err := s.GetUser(username); err != nil {
		return err
	}
	p, err := s.GetPost(id)
	if err != nil {
		return err
	}
	if p.Author == username {
		return ErrOwnPost
	}

	group := postsGroupOf(username)
	postNode := graph.PostNode(id)
	if !s.graph.HasEdgeConnecting(group, postNode) {
		return ErrNoRewin
	}

	s.graph.RemoveEdge(group, postNode)
	return s.saver.RemoveRewin(username, id)
}
