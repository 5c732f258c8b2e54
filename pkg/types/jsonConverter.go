package types

import (
	"encoding/json"

	"github.com/google/uuid"
)

// Snapshot and side-file records are pretty-printed so the on-disk state
// stays inspectable with standard tools.

func (u *User) MarshalJSON() ([]byte, error) {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return json.MarshalIndent(&struct {
		Username  string   `json:"username"`
		Password  string   `json:"password"`
		Tags      []string `json:"tags"`
		Followers []string `json:"followers"`
		Following []string `json:"following"`
		LastPost  int64    `json:"lastPost"`
	}{
		Username:  u.Username,
		Password:  u.Password,
		Tags:      u.Tags,
		Followers: sortedKeys(u.Followers),
		Following: sortedKeys(u.Following),
		LastPost:  u.LastPost,
	}, "", "    ")
}

func (u *User) UnmarshalJSON(data []byte) error {
	var raw struct {
		Username  string   `json:"username"`
		Password  string   `json:"password"`
		Tags      []string `json:"tags"`
		Followers []string `json:"followers"`
		Following []string `json:"following"`
		LastPost  int64    `json:"lastPost"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	u.Username = raw.Username
	u.Password = raw.Password
	u.Tags = raw.Tags
	u.LastPost = raw.LastPost
	u.Followers = make(map[string]struct{}, len(raw.Followers))
	for _, f := range raw.Followers {
		u.Followers[f] = struct{}{}
	}
	u.Following = make(map[string]struct{}, len(raw.Following))
	for _, f := range raw.Following {
		u.Following[f] = struct{}{}
	}
	return nil
}

func (p *Post) MarshalJSON() ([]byte, error) {
	return json.MarshalIndent(&struct {
		ID        uuid.UUID `json:"id"`
		Author    string    `json:"author"`
		Title     string    `json:"title"`
		Content   string    `json:"content"`
		CreatedAt int64     `json:"createdAt"`
	}{
		ID:        p.ID,
		Author:    p.Author,
		Title:     p.Title,
		Content:   p.Content,
		CreatedAt: p.CreatedAt,
	}, "", "    ")
}

func (p *Post) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID        uuid.UUID `json:"id"`
		Author    string    `json:"author"`
		Title     string    `json:"title"`
		Content   string    `json:"content"`
		CreatedAt int64     `json:"createdAt"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	p.ID = raw.ID
	p.Author = raw.Author
	p.Title = raw.Title
	p.Content = raw.Content
	p.CreatedAt = raw.CreatedAt
	p.Offset = LogOffset{}
	return nil
}
