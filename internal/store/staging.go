package store

import (
	"github.com/google/uuid"

	"github.com/winsome-net/winsome/internal/logStore"
	"github.com/winsome-net/winsome/internal/metrics"
	"github.com/winsome-net/winsome/pkg/graph"
	"github.com/winsome-net/winsome/pkg/types"
)

// stagedBatch is all not-yet-rewarded interactions of one post.
type stagedBatch struct {
	post     *types.Post
	comments []*types.Comment
	likes    []*types.Like
}

// PullNewEntries drains the new-entries node in one atomic detach and hands
// back the batch as per-post aggregates. Each returned record's log marker is
// flipped to consumed before the call returns, so a staged interaction is
// delivered at most once; a crash between the detach and a flip leaves the
// marker staged and recovery re-attaches that record.
func (s *Store) PullNewEntries() (batch []*PostInteractions, err error) {
	defer func() { metrics.ObserveOp("pull_new_entries", err) }()

	detached := s.graph.Detach(s.newEntries)
	if len(detached) == 0 {
		return nil, nil
	}

	batches := s.collectStaged(detached)

	var firstErr error
	for _, b := range batches {
		for _, c := range b.comments {
			if !c.Offset.Persisted() {
				continue
			}
			if err := s.saver.RemoveEntry(b.post.Author, c.Offset.Value(), logStore.CommentLineLen); err != nil && firstErr == nil {
				firstErr = err
			}
		}
		for _, l := range b.likes {
			if !l.Offset.Persisted() {
				continue
			}
			if err := s.saver.RemoveEntry(b.post.Author, l.Offset.Value(), logStore.LikeLineLen); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}

	batch = s.aggregate(batches)
	metrics.StagedEntriesPulled.Add(float64(len(detached)))
	return batch, firstErr
}

// collectStaged resolves detached staging nodes into per-post batches.
// Nodes whose entity or post vanished in the meantime are dropped: their log
// lines are already tombstoned.
func (s *Store) collectStaged(nodes []graph.Node) []*stagedBatch {
	byPost := make(map[uuid.UUID]*stagedBatch)

	batchFor := func(postID uuid.UUID) *stagedBatch {
		if b, ok := byPost[postID]; ok {
			return b
		}
		p, err := s.GetPost(postID)
		if err != nil {
			return nil
		}
		b := &stagedBatch{post: p}
		byPost[postID] = b
		return b
	}

	for _, n := range nodes {
		switch n.Kind {
		case graph.KindComment:
			id, err := uuid.Parse(n.Key)
			if err != nil {
				continue
			}
			s.commentsMu.RLock()
			c, ok := s.comments[id]
			s.commentsMu.RUnlock()
			if !ok {
				continue
			}
			if b := batchFor(c.PostID); b != nil {
				b.comments = append(b.comments, c)
			}
		case graph.KindLike:
			id, err := uuid.Parse(n.Key)
			if err != nil {
				continue
			}
			s.likesMu.RLock()
			l, ok := s.likes[id]
			s.likesMu.RUnlock()
			if !ok {
				continue
			}
			if b := batchFor(l.PostID); b != nil {
				b.likes = append(b.likes, l)
			}
		}
	}

	out := make([]*stagedBatch, 0, len(byPost))
	for _, b := range byPost {
		out = append(out, b)
	}
	return out
}
