package types

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const MaxTags = 5

// User is a registered member of the network. Follower and following sets are
// stored redundantly on both sides so either direction is an O(1) lookup.
// The mutex guards the two sets and the last-post timestamp; identity fields
// (Username, Password, Tags) are immutable after registration.
type User struct {
	mu        sync.RWMutex
	Username  string
	Password  string
	Tags      []string
	Followers map[string]struct{}
	Following map[string]struct{}
	LastPost  int64 // unix milliseconds of the newest post, 0 if none
}

func NewUser(username, password string, tags []string) *User {
	return &User{
		Username:  username,
		Password:  password,
		Tags:      NormalizeTags(tags),
		Followers: make(map[string]struct{}),
		Following: make(map[string]struct{}),
	}
}

// NormalizeTags trims, lowercases and caps the tag list at MaxTags.
// Empty tags are dropped.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, MaxTags)
	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" {
			continue
		}
		out = append(out, tag)
		if len(out) == MaxTags {
			break
		}
	}
	return out
}

func (u *User) AddFollower(username string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.Followers[username] = struct{}{}
}

func (u *User) RemoveFollower(username string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	delete(u.Followers, username)
}

func (u *User) AddFollowing(username string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.Following[username] = struct{}{}
}

func (u *User) RemoveFollowing(username string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	delete(u.Following, username)
}

func (u *User) IsFollowing(username string) bool {
	u.mu.RLock()
	defer u.mu.RUnlock()
	_, ok := u.Following[username]
	return ok
}

func (u *User) FollowerList() []string {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return sortedKeys(u.Followers)
}

func (u *User) FollowingList() []string {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return sortedKeys(u.Following)
}

// TouchLastPost raises the last-post timestamp to ts if it is newer.
func (u *User) TouchLastPost(ts int64) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if ts > u.LastPost {
		u.LastPost = ts
	}
}

func (u *User) LastPostTime() int64 {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.LastPost
}

// Post is an authored entry in the author's blog. The log offset is assigned
// exactly once by the log store when the post line reaches the author's file.
type Post struct {
	ID        uuid.UUID
	Author    string
	Title     string
	Content   string
	CreatedAt int64 // unix milliseconds
	Offset    LogOffset
}

func NewPost(author, title, content string) *Post {
	return &Post{
		ID:        uuid.New(),
		Author:    author,
		Title:     title,
		Content:   content,
		CreatedAt: time.Now().UnixMilli(),
	}
}

// Comment is immutable once created and only ever deleted together with its
// post. Its payload lives in a JSON side file; the log line is an existence
// and offset marker only.
type Comment struct {
	ID        uuid.UUID `json:"id"`
	PostID    uuid.UUID `json:"postId"`
	Author    string    `json:"author"`
	Content   string    `json:"content"`
	CreatedAt int64     `json:"createdAt"`
	Offset    LogOffset `json:"-"`
}

func NewComment(postID uuid.UUID, author, content string) *Comment {
	return &Comment{
		ID:        uuid.New(),
		PostID:    postID,
		Author:    author,
		Content:   content,
		CreatedAt: time.Now().UnixMilli(),
	}
}

// Like is a vote on a post, one per (user, post) pair. A changed vote
// overwrites the record in place instead of minting a new one.
type Like struct {
	ID        uuid.UUID `json:"id"`
	PostID    uuid.UUID `json:"postId"`
	Author    string    `json:"author"`
	Vote      Vote      `json:"vote"`
	CreatedAt int64     `json:"createdAt"`
	Offset    LogOffset `json:"-"`
}

func NewLike(postID uuid.UUID, author string, vote Vote) *Like {
	return &Like{
		ID:        uuid.New(),
		PostID:    postID,
		Author:    author,
		Vote:      vote,
		CreatedAt: time.Now().UnixMilli(),
	}
}

// Rewin is a repost relation. It carries no id of its own; the
// (username, post) pair is the full identity, recorded in the shared rewins
// file.
type Rewin struct {
	Username string
	PostID   uuid.UUID
}
