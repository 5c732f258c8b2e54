// Package backup writes xz-compressed copies of the table snapshots. The
// log files themselves are not backed up: they only carry offsets and
// staging markers, and recovery rebuilds the graph from snapshots plus logs.
package backup

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ulikunitz/xz"
)

var snapshotNames = []string{"users.json", "posts.json"}

// Snapshots compresses the current table snapshots from dataDir into
// backupDir. Missing snapshots (first boot) are skipped.
func Snapshots(dataDir, backupDir string) error {
	if err := os.MkdirAll(backupDir, 0o755); err != nil {
		return fmt.Errorf("error creating backup directory: %w", err)
	}

	for _, name := range snapshotNames {
		src := filepath.Join(dataDir, name)
		if _, err := os.Stat(src); os.IsNotExist(err) {
			continue
		}
		if err := compressFile(src, filepath.Join(backupDir, name+".xz")); err != nil {
			return err
		}
	}
	return nil
}

// Restore decompresses backed up snapshots into dataDir, overwriting what is
// there. Meant for operator use before boot, not while the store is open.
func Restore(backupDir, dataDir string) error {
	for _, name := range snapshotNames {
		src := filepath.Join(backupDir, name+".xz")
		if _, err := os.Stat(src); os.IsNotExist(err) {
			continue
		}
		if err := decompressFile(src, filepath.Join(dataDir, name)); err != nil {
			return err
		}
	}
	return nil
}

func compressFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("error opening %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("error creating %s: %w", dst, err)
	}
	defer out.Close()

	w, err := xz.NewWriter(out)
	if err != nil {
		return fmt.Errorf("error creating xz writer: %w", err)
	}
	if _, err := io.Copy(w, in); err != nil {
		return fmt.Errorf("error compressing %s: %w", src, err)
	}
	return w.Close()
}

func decompressFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("error opening %s: %w", src, err)
	}
	defer in.Close()

	r, err := xz.NewReader(in)
	if err != nil {
		return fmt.Errorf("error creating xz reader: %w", err)
	}

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("error creating %s: %w", dst, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, r); err != nil {
		return fmt.Errorf("error decompressing %s: %w", src, err)
	}
	return nil
}
