package winsome_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	winsome "github.com/winsome-net/winsome"
	"github.com/winsome-net/winsome/pkg/types"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	return logger
}

func openStore(t *testing.T, dataDir, backupDir string) *winsome.Winsome {
	t.Helper()
	w, err := winsome.New(winsome.Config{
		DataDir:        dataDir,
		BackupDir:      backupDir,
		RewardInterval: time.Hour, // cycles are driven by Close in these tests
		AuthorShare:    0.7,
		Logger:         quietLogger(),
	})
	require.NoError(t, err)
	return w
}

func TestLifecycleSurvivesRestart(t *testing.T) {
	dataDir := t.TempDir()

	w := openStore(t, dataDir, "")

	_, err := w.Store.CreateUser("alice", "pw", []string{"go"})
	require.NoError(t, err)
	_, err = w.Store.CreateUser("bob", "pw", nil)
	require.NoError(t, err)
	require.NoError(t, w.Store.FollowUser("bob", "alice"))

	p, err := w.Store.CreatePost("alice", "hi", "hello world")
	require.NoError(t, err)
	c, err := w.Store.AddComment("bob", p.ID, "nice")
	require.NoError(t, err)
	_, err = w.Store.RatePost("bob", p.ID, types.VoteLike)
	require.NoError(t, err)

	// Close runs a final reward cycle and writes the snapshots.
	require.NoError(t, w.Close())

	w = openStore(t, dataDir, "")
	defer w.Close()

	// The final reward cycle paid out 2 interactions at a 70% author share.
	balance, err := w.Wallet().Balance("alice")
	require.NoError(t, err)
	assert.InDelta(t, 1.4, balance, 1e-9)
	balance, err = w.Wallet().Balance("bob")
	require.NoError(t, err)
	assert.InDelta(t, 0.6, balance, 1e-9)

	// Entities and relationships came back.
	u, err := w.Store.GetUser("alice")
	require.NoError(t, err)
	assert.Equal(t, []string{"bob"}, u.FollowerList())
	assert.Equal(t, p.CreatedAt, u.LastPostTime())

	blog, err := w.Store.ListPosts("alice")
	require.NoError(t, err)
	require.Len(t, blog, 1)
	assert.Equal(t, p.ID, blog[0].ID)
	assert.Equal(t, "hello world", blog[0].Content)

	feed, err := w.Store.Feed("bob")
	require.NoError(t, err)
	require.Len(t, feed, 1)

	// The comment survived but its staging marker was consumed on the way
	// down, so nothing is paid out twice.
	_, err = os.Stat(filepath.Join(dataDir, "jsons", c.ID.String()+".json"))
	require.NoError(t, err)
	batch, err := w.Store.PullNewEntries()
	require.NoError(t, err)
	assert.Empty(t, batch)
}

func TestRewinSurvivesRestart(t *testing.T) {
	dataDir := t.TempDir()

	w := openStore(t, dataDir, "")
	_, err := w.Store.CreateUser("alice", "pw", nil)
	require.NoError(t, err)
	_, err = w.Store.CreateUser("carol", "pw", nil)
	require.NoError(t, err)
	require.NoError(t, w.Store.FollowUser("carol", "alice"))

	p, err := w.Store.CreatePost("alice", "hi", "hello")
	require.NoError(t, err)
	require.NoError(t, w.Store.Rewin("carol", p.ID))
	require.NoError(t, w.Close())

	w = openStore(t, dataDir, "")
	defer w.Close()

	blog, err := w.Store.ListPosts("carol")
	require.NoError(t, err)
	require.Len(t, blog, 1)
	assert.Equal(t, p.ID, blog[0].ID)
}

func TestRemovedPostStaysGoneAfterRestart(t *testing.T) {
	dataDir := t.TempDir()

	w := openStore(t, dataDir, "")
	_, err := w.Store.CreateUser("alice", "pw", nil)
	require.NoError(t, err)
	_, err = w.Store.CreateUser("bob", "pw", nil)
	require.NoError(t, err)
	require.NoError(t, w.Store.FollowUser("bob", "alice"))

	p, err := w.Store.CreatePost("alice", "hi", "hello")
	require.NoError(t, err)
	_, err = w.Store.AddComment("bob", p.ID, "nice")
	require.NoError(t, err)
	require.NoError(t, w.Store.RemovePost("alice", p.ID))
	require.NoError(t, w.Close())

	w = openStore(t, dataDir, "")
	defer w.Close()

	_, err = w.Store.GetPost(p.ID)
	assert.Error(t, err)
	blog, err := w.Store.ListPosts("alice")
	require.NoError(t, err)
	assert.Empty(t, blog)
}

func TestFailedBootReleasesDataDir(t *testing.T) {
	dataDir := t.TempDir()

	// Seed a user so the retry has log files to reopen.
	w := openStore(t, dataDir, "")
	_, err := w.Store.CreateUser("alice", "pw", nil)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	// An absurd free-space floor fails the boot after the saver is open; the
	// handles must be released so a corrected boot can take over the files.
	_, err = winsome.New(winsome.Config{
		DataDir:        dataDir,
		MinimumFreeGB:  1 << 30,
		RewardInterval: time.Hour,
		Logger:         quietLogger(),
	})
	require.Error(t, err)

	w = openStore(t, dataDir, "")
	defer w.Close()
	_, err = w.Store.GetUser("alice")
	require.NoError(t, err)
}

func TestBackupDirReceivesCompressedSnapshots(t *testing.T) {
	dataDir := t.TempDir()
	backupDir := t.TempDir()

	w := openStore(t, dataDir, backupDir)
	_, err := w.Store.CreateUser("alice", "pw", nil)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	_, err = os.Stat(filepath.Join(backupDir, "users.json.xz"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(backupDir, "posts.json.xz"))
	assert.NoError(t, err)
}
