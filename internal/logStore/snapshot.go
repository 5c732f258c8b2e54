package logStore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/winsome-net/winsome/pkg/types"
)

// Snapshots are the full user and post tables as pretty JSON. The log files
// only hold existence markers and offsets; everything else is re-derived at
// startup from these two files plus the side files.

// WriteSnapshots persists both tables. Each file is written to a temp file
// first and renamed into place so a crash never leaves a half snapshot.
func (s *Saver) WriteSnapshots(users map[string]*types.User, posts map[uuid.UUID]*types.Post) error {
	if err := s.writeSnapshot(usersSnapshot, users); err != nil {
		return err
	}
	return s.writeSnapshot(postsSnapshot, posts)
}

func (s *Saver) writeSnapshot(name string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return fmt.Errorf("error encoding snapshot %s: %w", name, err)
	}

	tmp := filepath.Join(s.dir, name+".tmp")
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		log.Errorf("error writing snapshot %s: %v", name, err)
		return fmt.Errorf("error writing snapshot %s: %w", name, err)
	}
	if err := os.Rename(tmp, filepath.Join(s.dir, name)); err != nil {
		return fmt.Errorf("error replacing snapshot %s: %w", name, err)
	}
	return nil
}

func readUsersSnapshot(dir string) (map[string]*types.User, error) {
	users := make(map[string]*types.User)
	if err := readSnapshot(dir, usersSnapshot, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func readPostsSnapshot(dir string) (map[uuid.UUID]*types.Post, error) {
	posts := make(map[uuid.UUID]*types.Post)
	if err := readSnapshot(dir, postsSnapshot, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// readSnapshot fills v from the named snapshot; a missing file means a first
// boot and leaves v empty.
func readSnapshot(dir, name string, v interface{}) error {
	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("error reading snapshot %s: %w", name, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("error decoding snapshot %s: %w", name, err)
	}
	return nil
}
