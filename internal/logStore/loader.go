package logStore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/winsome-net/winsome/pkg/graph"
	"github.com/winsome-net/winsome/pkg/types"
)

// LoadResult is the fully reconstructed in-memory state: entity tables plus
// the graph rebuilt from the logs, with interactions whose marker is still
// NEW_ENTRY re-attached to the staging node.
type LoadResult struct {
	Users    map[string]*types.User
	Posts    map[uuid.UUID]*types.Post
	Comments map[uuid.UUID]*types.Comment
	Likes    map[uuid.UUID]*types.Like
	Graph    *graph.Graph
	Staged   int
}

// Load rebuilds the graph from the snapshots and the per-user logs, then
// replays the rewins file. Recovery is self-healing: any log record whose
// referenced entity is gone is tombstoned in place and skipped, never fatal.
func (s *Saver) Load() (*LoadResult, error) {
	users, err := readUsersSnapshot(s.dir)
	if err != nil {
		return nil, err
	}
	posts, err := readPostsSnapshot(s.dir)
	if err != nil {
		return nil, err
	}

	res := &LoadResult{
		Users:    users,
		Posts:    posts,
		Comments: make(map[uuid.UUID]*types.Comment),
		Likes:    make(map[uuid.UUID]*types.Like),
		Graph:    graph.New(),
	}

	// Last-post timestamps are recomputed from the surviving post records.
	for _, u := range users {
		u.LastPost = 0
	}

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("error listing data directory: %w", err)
	}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || name == rewinsFile || name == usersSnapshot || name == postsSnapshot || strings.HasSuffix(name, ".tmp") {
			continue
		}
		if _, ok := users[name]; !ok {
			log.WithField("file", name).Warn("log file for unknown user, skipping")
			continue
		}
		if err := s.replayUserLog(name, res); err != nil {
			return nil, err
		}
	}

	// Rewins come last: both endpoints must already be loaded.
	rewins, err := s.loadRewins(func(username string, postID uuid.UUID) bool {
		if _, ok := res.Users[username]; !ok {
			return false
		}
		_, ok := res.Posts[postID]
		return ok
	})
	if err != nil {
		return nil, err
	}
	for _, r := range rewins {
		res.Graph.PutEdge(graph.GroupNode(graph.LabelPosts, graph.UserNode(r.Username)), graph.PostNode(r.PostID))
	}

	log.WithFields(logrus.Fields{
		"users":    len(res.Users),
		"posts":    len(res.Posts),
		"comments": len(res.Comments),
		"likes":    len(res.Likes),
		"rewins":   len(rewins),
		"staged":   res.Staged,
	}).Info("log store recovered")
	return res, nil
}

// replayUserLog walks username's log line by line, tracking the byte offset
// of each line start, and rebuilds the graph around the records that still
// resolve. Dangling records are tombstoned through the same file handle.
func (s *Saver) replayUserLog(username string, res *LoadResult) error {
	ul, err := s.userLog(username)
	if err != nil {
		return err
	}
	ul.mu.Lock()
	defer ul.mu.Unlock()

	data, err := os.ReadFile(filepath.Join(s.dir, username))
	if err != nil {
		return fmt.Errorf("error reading log file of user %s: %w", username, err)
	}

	userNode := graph.UserNode(username)
	postsGroup := graph.GroupNode(graph.LabelPosts, userNode)
	newEntries := graph.NewEntriesNode()

	prune := func(off int64, raw string, reason string) error {
		log.WithFields(logrus.Fields{"user": username, "line": strings.TrimSuffix(raw, "\n"), "reason": reason}).
			Warn("pruning dangling log record")
		return tombstoneLine(ul.f, off, len(raw))
	}

	off := int64(0)
	for _, raw := range strings.SplitAfter(string(data), "\n") {
		lineOff := off
		off += int64(len(raw))

		line := strings.TrimSuffix(raw, "\n")
		if line == "" || line[0] == tombstone {
			continue
		}

		parts := strings.Split(line, ";")
		switch {
		case parts[0] == recordPost && len(parts) == 2:
			id, err := uuid.Parse(parts[1])
			if err != nil {
				if err := prune(lineOff, raw, "bad post id"); err != nil {
					return err
				}
				continue
			}
			post, ok := res.Posts[id]
			if !ok || post.Author != username || post.Offset.Persisted() {
				if err := prune(lineOff, raw, "post record does not resolve"); err != nil {
					return err
				}
				continue
			}
			post.Offset = types.PersistedAt(lineOff)
			res.Graph.PutEdge(userNode, postsGroup)
			res.Graph.PutEdge(postsGroup, graph.PostNode(id))
			res.Users[username].TouchLastPost(post.CreatedAt)

		case parts[0] == recordComment && len(parts) == 3:
			c := &types.Comment{}
			if err := s.loadInteraction(parts[1], c, username, res); err != nil {
				if err := prune(lineOff, raw, err.Error()); err != nil {
					return err
				}
				continue
			}
			if _, dup := res.Comments[c.ID]; dup {
				if err := prune(lineOff, raw, "duplicate comment record"); err != nil {
					return err
				}
				continue
			}
			c.Offset = types.PersistedAt(lineOff)
			res.Comments[c.ID] = c
			commentNode := graph.CommentNode(c.ID)
			res.Graph.PutEdge(graph.GroupNode(graph.LabelComments, graph.PostNode(c.PostID)), commentNode)
			if parts[2] == markerStaged {
				res.Graph.PutEdge(newEntries, commentNode)
				res.Staged++
			}

		case parts[0] == recordLike && len(parts) == 3:
			l := &types.Like{}
			if err := s.loadInteraction(parts[1], l, username, res); err != nil {
				if err := prune(lineOff, raw, err.Error()); err != nil {
					return err
				}
				continue
			}
			if _, dup := res.Likes[l.ID]; dup {
				if err := prune(lineOff, raw, "duplicate like record"); err != nil {
					return err
				}
				continue
			}
			l.Offset = types.PersistedAt(lineOff)
			res.Likes[l.ID] = l
			likeNode := graph.LikeNode(l.ID)
			res.Graph.PutEdge(graph.GroupNode(graph.LabelLikes, graph.PostNode(l.PostID)), likeNode)
			if parts[2] == markerStaged {
				res.Graph.PutEdge(newEntries, likeNode)
				res.Staged++
			}

		default:
			if err := prune(lineOff, raw, "unparseable record"); err != nil {
				return err
			}
		}
	}
	return nil
}

// loadInteraction fills v from the record's side file and verifies that the
// referenced post exists and lives in this user's log. A failed load removes
// the side file, if present, so the error string feeds the prune log.
func (s *Saver) loadInteraction(idStr string, v interface{}, logOwner string, res *LoadResult) error {
	id, err := uuid.Parse(idStr)
	if err != nil {
		return fmt.Errorf("bad record id")
	}

	data, err := os.ReadFile(s.sidePath(id.String()))
	if err != nil {
		return fmt.Errorf("side file missing")
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("side file corrupt")
	}

	var recID, postID uuid.UUID
	switch rec := v.(type) {
	case *types.Comment:
		recID, postID = rec.ID, rec.PostID
	case *types.Like:
		recID, postID = rec.ID, rec.PostID
	}
	if recID != id {
		return fmt.Errorf("side file id mismatch")
	}

	post, ok := res.Posts[postID]
	if !ok || post.Author != logOwner {
		if err := os.Remove(s.sidePath(id.String())); err != nil && !os.IsNotExist(err) {
			log.Errorf("error removing orphaned side file %s: %v", id, err)
		}
		return fmt.Errorf("referenced post missing")
	}
	return nil
}
