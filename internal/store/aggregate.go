package store

import (
	"sort"

	"github.com/google/uuid"

	"github.com/winsome-net/winsome/pkg/types"
)

// PostInteractions is the pre-aggregated reward summary of one post: the
// reward job consumes these instead of re-deriving per-post statistics from
// the raw events on every cycle.
type PostInteractions struct {
	PostID       uuid.UUID
	Author       string
	Interactions int
	// Curators are the distinct users that liked, disliked or commented.
	Curators         []string
	Likes            []string
	Dislikes         []string
	CommentsByAuthor map[string][]string
}

// aggregate folds the per-post batches into summaries. The folds are
// independent, so each runs as one worker pool task.
func (s *Store) aggregate(batches []*stagedBatch) []*PostInteractions {
	if len(batches) == 0 {
		return nil
	}

	room := s.wp.CreateRoom(len(batches))
	for _, b := range batches {
		b := b
		room.NewTaskWaitForFreeSlot(func() interface{} {
			return summarize(b)
		})
	}

	out := make([]*PostInteractions, 0, len(batches))
	for _, r := range room.Collect() {
		out = append(out, r.(*PostInteractions))
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].PostID.String() < out[j].PostID.String()
	})
	return out
}

func summarize(b *stagedBatch) *PostInteractions {
	pi := &PostInteractions{
		PostID:           b.post.ID,
		Author:           b.post.Author,
		Interactions:     len(b.comments) + len(b.likes),
		CommentsByAuthor: make(map[string][]string),
	}

	curators := make(map[string]struct{})
	for _, l := range b.likes {
		curators[l.Author] = struct{}{}
		if l.Vote == types.VoteDislike {
			pi.Dislikes = append(pi.Dislikes, l.Author)
		} else {
			pi.Likes = append(pi.Likes, l.Author)
		}
	}
	for _, c := range b.comments {
		curators[c.Author] = struct{}{}
		pi.CommentsByAuthor[c.Author] = append(pi.CommentsByAuthor[c.Author], c.Content)
	}

	for curator := range curators {
		pi.Curators = append(pi.Curators, curator)
	}
	sort.Strings(pi.Curators)
	sort.Strings(pi.Likes)
	sort.Strings(pi.Dislikes)
	return pi
}
