// Package logStore is the durability layer of the store: append-only per-user
// text logs with in-place tombstoning, JSON side files for comment and like
// payloads, full-table snapshots and the shared rewins file.
//
// Per-user log lines, one record each:
//
//	POST;<post-id>
//	COMMENT;<comment-id>;NEW_ENTRY
//	LIKE;<like-id>;NEW_ENTRY
//
// A consumed staging marker is overwritten with "#########"; a deleted record
// has its whole line overwritten with '#'. No line is ever removed or
// shifted, so a recorded byte offset stays valid for the life of the file.
package logStore

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/sirupsen/logrus"
)

const (
	recordPost    = "POST"
	recordComment = "COMMENT"
	recordLike    = "LIKE"

	markerStaged   = "NEW_ENTRY"
	markerConsumed = "#########"

	jsonsDir      = "jsons"
	rewinsFile    = "rewins"
	usersSnapshot = "users.json"
	postsSnapshot = "posts.json"

	// WalletDir is the badger directory of the reward ledger, reserved here
	// because it shares the data directory with the per-user logs.
	WalletDir = "wallet"

	tombstone = '#'

	// UUIDs are fixed-width, so every record kind has a fixed line length
	// and the marker position is computable from the line offset alone.
	idLen          = 36
	markerLen      = len(markerStaged) // == len(markerConsumed)
	PostLineLen    = len(recordPost) + 1 + idLen + 1                      // POST;<id>\n
	CommentLineLen = len(recordComment) + 1 + idLen + 1 + markerLen + 1   // COMMENT;<id>;NEW_ENTRY\n
	LikeLineLen    = len(recordLike) + 1 + idLen + 1 + markerLen + 1      // LIKE;<id>;NEW_ENTRY\n
)

var log *logrus.Logger

// Saver owns every write to the on-disk layout. Each user file has its own
// mutex so at most one writer touches a given file at a time; the rewins
// file has a single mutex of its own.
type Saver struct {
	dir string

	filesMu sync.Mutex
	files   map[string]*userLog

	rewinMu sync.Mutex
}

type userLog struct {
	mu sync.Mutex
	f  *os.File
}

// NewSaver creates the data directory layout if absent. Failure to create it
// is the one fatal error of this layer.
func NewSaver(dir string, logger *logrus.Logger) (*Saver, error) {
	if logger == nil {
		logger = logrus.New()
	}
	log = logger

	if err := os.MkdirAll(filepath.Join(dir, jsonsDir), 0o755); err != nil {
		return nil, fmt.Errorf("error creating data directory %s: %w", dir, err)
	}

	return &Saver{
		dir:   dir,
		files: make(map[string]*userLog),
	}, nil
}

func (s *Saver) Dir() string {
	return s.dir
}

// IsReservedName reports whether name is taken by the data directory layout
// itself. A user with such a name would have its log file collide with the
// shared files, so registration must refuse it.
func IsReservedName(name string) bool {
	switch name {
	case rewinsFile, jsonsDir, usersSnapshot, postsSnapshot, WalletDir:
		return true
	}
	return false
}

// userLog returns the open handle for username's log file, creating the file
// on first use.
func (s *Saver) userLog(username string) (*userLog, error) {
	s.filesMu.Lock()
	defer s.filesMu.Unlock()

	if ul, ok := s.files[username]; ok {
		return ul, nil
	}

	f, err := os.OpenFile(filepath.Join(s.dir, username), os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("error opening log file for user %s: %w", username, err)
	}

	ul := &userLog{f: f}
	s.files[username] = ul
	return ul, nil
}

func (s *Saver) sidePath(id string) string {
	return filepath.Join(s.dir, jsonsDir, id+".json")
}

// Close flushes and closes every open log file.
func (s *Saver) Close() error {
	s.filesMu.Lock()
	defer s.filesMu.Unlock()

	var firstErr error
	for username, ul := range s.files {
		ul.mu.Lock()
		if err := ul.f.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("error closing log file for user %s: %w", username, err)
		}
		ul.mu.Unlock()
		delete(s.files, username)
	}
	return firstErr
}
