package winsome

import (
	"time"

	"github.com/sirupsen/logrus"
)

type Config struct {
	// DataDir holds the per-user logs, side files, snapshots, the rewins
	// file and the wallet ledger.
	DataDir string

	// BackupDir, when set, receives xz-compressed snapshot copies on every
	// snapshot cycle.
	BackupDir string

	// MinimumFreeGB refuses to boot when the data directory's filesystem
	// has less free space. 0 disables the check.
	MinimumFreeGB int

	// SnapshotInterval is the period of the users.json/posts.json writer.
	SnapshotInterval time.Duration

	// RewardInterval is the period of the reward engine's pull cycle.
	RewardInterval time.Duration

	// AuthorShare is the author's fraction of each post reward, 0..1.
	AuthorShare float64

	Logger *logrus.Logger
}

func (c *Config) applyDefaults() {
	if c.SnapshotInterval <= 0 {
		c.SnapshotInterval = 5 * time.Minute
	}
	if c.RewardInterval <= 0 {
		c.RewardInterval = time.Minute
	}
	if c.AuthorShare <= 0 || c.AuthorShare > 1 {
		c.AuthorShare = 0.7
	}
	if c.Logger == nil {
		c.Logger = logrus.New()
	}
}
