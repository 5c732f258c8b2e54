package logStore

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/winsome-net/winsome/pkg/types"
)

// SaveUser makes sure the user's log file exists. Idempotent.
func (s *Saver) SaveUser(u *types.User) error {
	_, err := s.userLog(u.Username)
	return err
}

// SavePost appends the post's log line to its author's file and records the
// line offset on the post. A post that already carries an offset has been
// appended before; saving it again is a no-op.
func (s *Saver) SavePost(p *types.Post) error {
	if p.Offset.Persisted() {
		return nil
	}

	ul, err := s.userLog(p.Author)
	if err != nil {
		return err
	}
	ul.mu.Lock()
	defer ul.mu.Unlock()

	line := recordPost + ";" + p.ID.String() + "\n"
	off, err := appendLine(ul.f, line)
	if err != nil {
		log.WithFields(logrus.Fields{"user": p.Author, "post": p.ID}).Errorf("error appending post line: %v", err)
		return fmt.Errorf("error saving post %s: %w", p.ID, err)
	}
	p.Offset = types.PersistedAt(off)
	return nil
}

// SaveComment appends the comment's log line to the post author's file,
// records the offset and writes the JSON side file holding the payload.
func (s *Saver) SaveComment(c *types.Comment, postAuthor string) error {
	if c.Offset.Persisted() {
		return nil
	}

	ul, err := s.userLog(postAuthor)
	if err != nil {
		return err
	}
	ul.mu.Lock()
	defer ul.mu.Unlock()

	line := recordComment + ";" + c.ID.String() + ";" + markerStaged + "\n"
	off, err := appendLine(ul.f, line)
	if err != nil {
		log.WithFields(logrus.Fields{"user": postAuthor, "comment": c.ID}).Errorf("error appending comment line: %v", err)
		return fmt.Errorf("error saving comment %s: %w", c.ID, err)
	}
	c.Offset = types.PersistedAt(off)

	if err := s.writeSideFile(c.ID.String(), c); err != nil {
		return fmt.Errorf("error saving comment %s: %w", c.ID, err)
	}
	return nil
}

// SaveLike appends the like's log line to the post author's file, records the
// offset and writes the JSON side file.
func (s *Saver) SaveLike(l *types.Like, postAuthor string) error {
	if l.Offset.Persisted() {
		return nil
	}

	ul, err := s.userLog(postAuthor)
	if err != nil {
		return err
	}
	ul.mu.Lock()
	defer ul.mu.Unlock()

	line := recordLike + ";" + l.ID.String() + ";" + markerStaged + "\n"
	off, err := appendLine(ul.f, line)
	if err != nil {
		log.WithFields(logrus.Fields{"user": postAuthor, "like": l.ID}).Errorf("error appending like line: %v", err)
		return fmt.Errorf("error saving like %s: %w", l.ID, err)
	}
	l.Offset = types.PersistedAt(off)

	if err := s.writeSideFile(l.ID.String(), l); err != nil {
		return fmt.Errorf("error saving like %s: %w", l.ID, err)
	}
	return nil
}

// UpdateLike rewrites the like's side file in place after a vote change.
// The log line is untouched: the record keeps its offset and marker.
func (s *Saver) UpdateLike(l *types.Like) error {
	if err := s.writeSideFile(l.ID.String(), l); err != nil {
		return fmt.Errorf("error updating like %s: %w", l.ID, err)
	}
	return nil
}

// RemovePost tombstones the post's line and the lines of all its comments and
// likes in the post author's file, then deletes their side files. Every line
// keeps its byte length, so offsets of later lines stay valid.
func (s *Saver) RemovePost(p *types.Post, comments []*types.Comment, likes []*types.Like) error {
	ul, err := s.userLog(p.Author)
	if err != nil {
		return err
	}
	ul.mu.Lock()
	defer ul.mu.Unlock()

	var firstErr error
	fail := func(err error) {
		if firstErr == nil {
			firstErr = err
		}
	}

	for _, c := range comments {
		if c.Offset.Persisted() {
			if err := tombstoneLine(ul.f, c.Offset.Value(), CommentLineLen); err != nil {
				fail(fmt.Errorf("error tombstoning comment %s: %w", c.ID, err))
			}
		}
		if err := os.Remove(s.sidePath(c.ID.String())); err != nil && !os.IsNotExist(err) {
			fail(fmt.Errorf("error removing side file of comment %s: %w", c.ID, err))
		}
	}
	for _, l := range likes {
		if l.Offset.Persisted() {
			if err := tombstoneLine(ul.f, l.Offset.Value(), LikeLineLen); err != nil {
				fail(fmt.Errorf("error tombstoning like %s: %w", l.ID, err))
			}
		}
		if err := os.Remove(s.sidePath(l.ID.String())); err != nil && !os.IsNotExist(err) {
			fail(fmt.Errorf("error removing side file of like %s: %w", l.ID, err))
		}
	}
	if p.Offset.Persisted() {
		if err := tombstoneLine(ul.f, p.Offset.Value(), PostLineLen); err != nil {
			fail(fmt.Errorf("error tombstoning post %s: %w", p.ID, err))
		}
	}

	if firstErr != nil {
		log.WithFields(logrus.Fields{"user": p.Author, "post": p.ID}).Errorf("error removing post from log: %v", firstErr)
	}
	return firstErr
}

// RemoveEntry flips a record's staging marker from NEW_ENTRY to the consumed
// sentinel, leaving the record itself intact. lineLen must be the record
// kind's fixed line length (CommentLineLen or LikeLineLen).
func (s *Saver) RemoveEntry(postAuthor string, lineOffset int64, lineLen int) error {
	ul, err := s.userLog(postAuthor)
	if err != nil {
		return err
	}
	ul.mu.Lock()
	defer ul.mu.Unlock()

	markerOffset := lineOffset + int64(lineLen) - int64(markerLen) - 1
	if _, err := ul.f.WriteAt([]byte(markerConsumed), markerOffset); err != nil {
		log.WithFields(logrus.Fields{"user": postAuthor, "offset": lineOffset}).Errorf("error consuming entry marker: %v", err)
		return fmt.Errorf("error consuming entry at offset %d: %w", lineOffset, err)
	}
	return nil
}

func (s *Saver) writeSideFile(id string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return fmt.Errorf("error encoding side file %s: %w", id, err)
	}
	if err := os.WriteFile(s.sidePath(id), data, 0o644); err != nil {
		log.WithFields(logrus.Fields{"id": id}).Errorf("error writing side file: %v", err)
		return fmt.Errorf("error writing side file %s: %w", id, err)
	}
	return nil
}

// appendLine writes line at end of file and returns the byte offset of its
// first character.
func appendLine(f *os.File, line string) (int64, error) {
	off, err := f.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, err
	}
	if _, err := f.WriteString(line); err != nil {
		return 0, err
	}
	return off, nil
}

// tombstoneLine overwrites the line's bytes with '#', preserving the trailing
// newline so the file length and every later offset are unchanged.
func tombstoneLine(f *os.File, off int64, lineLen int) error {
	pad := make([]byte, lineLen-1)
	for i := range pad {
		pad[i] = tombstone
	}
	_, err := f.WriteAt(pad, off)
	return err
}
