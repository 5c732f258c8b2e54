package logStore

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/winsome-net/winsome/pkg/types"
)

// Rewins share one append-only file with lines "<username>;<post-id>".
// Unlike entity records they carry no offset, so removal has to scan for the
// matching line and physically compact the file. That asymmetry is the
// price of not minting an id per rewin.

func (s *Saver) rewinsPath() string {
	return filepath.Join(s.dir, rewinsFile)
}

// SaveRewin appends the (username, post) pair to the shared rewins file.
func (s *Saver) SaveRewin(username string, postID uuid.UUID) error {
	s.rewinMu.Lock()
	defer s.rewinMu.Unlock()

	f, err := os.OpenFile(s.rewinsPath(), os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("error opening rewins file: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(username + ";" + postID.String() + "\n"); err != nil {
		log.Errorf("error appending rewin line: %v", err)
		return fmt.Errorf("error saving rewin of %s by %s: %w", postID, username, err)
	}
	return nil
}

// RemoveRewin scans for the matching line and shifts all following bytes
// left over it, truncating the file. Not O(1) on purpose, see package note.
func (s *Saver) RemoveRewin(username string, postID uuid.UUID) error {
	s.rewinMu.Lock()
	defer s.rewinMu.Unlock()

	data, err := os.ReadFile(s.rewinsPath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("error reading rewins file: %w", err)
	}

	target := username + ";" + postID.String()
	off := 0
	for _, line := range strings.SplitAfter(string(data), "\n") {
		if strings.TrimSuffix(line, "\n") == target {
			rest := append(data[:off], data[off+len(line):]...)
			if err := os.WriteFile(s.rewinsPath(), rest, 0o644); err != nil {
				log.Errorf("error compacting rewins file: %v", err)
				return fmt.Errorf("error removing rewin of %s by %s: %w", postID, username, err)
			}
			return nil
		}
		off += len(line)
	}
	return nil
}

// loadRewins replays the shared rewins file. keep decides whether the
// referenced user and post still exist; lines it rejects are tombstoned in
// place, never reported as errors.
func (s *Saver) loadRewins(keep func(username string, postID uuid.UUID) bool) ([]types.Rewin, error) {
	s.rewinMu.Lock()
	defer s.rewinMu.Unlock()

	data, err := os.ReadFile(s.rewinsPath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("error reading rewins file: %w", err)
	}

	f, err := os.OpenFile(s.rewinsPath(), os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("error opening rewins file: %w", err)
	}
	defer f.Close()

	var rewins []types.Rewin
	off := int64(0)
	for _, raw := range strings.SplitAfter(string(data), "\n") {
		line := strings.TrimSuffix(raw, "\n")
		if line == "" {
			off += int64(len(raw))
			continue
		}
		if line[0] == tombstone {
			off += int64(len(raw))
			continue
		}

		username, idStr, ok := strings.Cut(line, ";")
		postID, parseErr := uuid.Parse(idStr)
		if !ok || parseErr != nil || !keep(username, postID) {
			log.WithField("line", line).Warn("pruning dangling rewin record")
			if err := tombstoneLine(f, off, len(raw)); err != nil {
				return nil, fmt.Errorf("error tombstoning rewin line: %w", err)
			}
			off += int64(len(raw))
			continue
		}

		rewins = append(rewins, types.Rewin{Username: username, PostID: postID})
		off += int64(len(raw))
	}
	return rewins, nil
}
