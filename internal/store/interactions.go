package store

import (
	"github.com/google/uuid"

	"github.com/winsome-net/winsome/internal/metrics"
	"github.com/winsome-net/winsome/pkg/graph"
	"github.com/winsome-net/winsome/pkg/types"
)

// voteKey identifies the one allowed vote per (post, user) pair.
type voteKey struct {
	post   uuid.UUID
	author string
}

// AddComment creates a comment on a post by a follower of its author. The
// comment node gets two edges: one into the post's comments group and one
// into the new-entries node, where the reward job will find it. The graph
// edges are added only after the log append has assigned the offset, so a
// staged node always resolves to a fully persisted record.
func (s *Store) AddComment(author string, postID uuid.UUID, content string) (c *types.Comment, err error) {
	defer func() { metrics.ObserveOp("comment", err) }()

	if content == "" {
		return nil, ErrEmptyContent
	}
	if len(content) > maxContentLen {
		return nil, ErrContentTooLong
	}

	u, err := s.GetUser(author)
	if err != nil {
		return nil, err
	}
	p, err := s.GetPost(postID)
	if err != nil {
		return nil, err
	}
	if p.Author == author {
		return nil, ErrOwnPost
	}
	if !u.IsFollowing(p.Author) {
		return nil, ErrNotFollower
	}

	c = types.NewComment(postID, author, content)

	s.commentsMu.Lock()
	s.comments[c.ID] = c
	s.commentsMu.Unlock()

	if err := s.saver.SaveComment(c, p.Author); err != nil {
		s.commentsMu.Lock()
		delete(s.comments, c.ID)
		s.commentsMu.Unlock()
		return nil, err
	}

	commentNode := graph.CommentNode(c.ID)
	s.graph.PutEdge(commentsGroupOf(postID), commentNode)
	s.graph.PutEdge(s.newEntries, commentNode)
	return c, nil
}

// RatePost records a LIKE or DISLIKE by a follower of the post's author.
// One vote per (user, post): voting the same way twice fails, voting the
// other way replaces the record under the same identity and rewrites its
// side file in place, no new log line and no re-staging.
//
// The whole mutation runs under likesMu, log append included. Like records
// are never written to after they leave this lock; a vote change mints a
// replacement carrying the same id and offset, so readers holding the old
// pointer never observe a torn record.
func (s *Store) RatePost(author string, postID uuid.UUID, vote types.Vote) (l *types.Like, err error) {
	defer func() { metrics.ObserveOp("rate", err) }()

	u, err := s.GetUser(author)
	if err != nil {
		return nil, err
	}
	p, err := s.GetPost(postID)
	if err != nil {
		return nil, err
	}
	if p.Author == author {
		return nil, ErrOwnPost
	}
	if !u.IsFollowing(p.Author) {
		return nil, ErrNotFollower
	}

	key := voteKey{post: postID, author: author}

	s.likesMu.Lock()
	defer s.likesMu.Unlock()

	if existing, ok := s.votes[key]; ok {
		if existing.Vote == vote {
			return nil, ErrAlreadyVoted
		}
		updated := &types.Like{
			ID:        existing.ID,
			PostID:    existing.PostID,
			Author:    existing.Author,
			Vote:      vote,
			CreatedAt: existing.CreatedAt,
			Offset:    existing.Offset,
		}
		s.likes[updated.ID] = updated
		s.votes[key] = updated
		if err := s.saver.UpdateLike(updated); err != nil {
			return nil, err
		}
		return updated, nil
	}

	l = types.NewLike(postID, author, vote)
	s.likes[l.ID] = l
	s.votes[key] = l

	if err := s.saver.SaveLike(l, p.Author); err != nil {
		delete(s.likes, l.ID)
		delete(s.votes, key)
		return nil, err
	}

	likeNode := graph.LikeNode(l.ID)
	s.graph.PutEdge(likesGroupOf(postID), likeNode)
	s.graph.PutEdge(s.newEntries, likeNode)
	return l, nil
}
