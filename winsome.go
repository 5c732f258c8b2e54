// Package winsome wires the social store together: log store recovery,
// graph and entity tables behind the store facade, the badger wallet ledger
// and the background snapshot and reward loops.
package winsome

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/shirou/gopsutil/disk"
	"github.com/sirupsen/logrus"

	"github.com/winsome-net/winsome/internal/backup"
	"github.com/winsome-net/winsome/internal/logStore"
	"github.com/winsome-net/winsome/internal/reward"
	"github.com/winsome-net/winsome/internal/store"
	"github.com/winsome-net/winsome/internal/walletStore"
	workerpool "github.com/winsome-net/winsome/pkg/workerPool"
)

type Winsome struct {
	Store *store.Store

	config Config
	log    *logrus.Logger
	saver  *logStore.Saver
	wallet *walletStore.WalletStore
	wp     *workerpool.WorkerPool
	reward *reward.Engine

	stopSnapshots chan struct{}
	snapshotsDone chan struct{}
}

// New recovers the store from conf.DataDir and starts the snapshot and
// reward loops. The directory is created on first boot; failure to create
// it is fatal, everything else found broken on disk is healed by recovery.
func New(conf Config) (*Winsome, error) {
	conf.applyDefaults()
	log := conf.Logger

	saver, err := logStore.NewSaver(conf.DataDir, log)
	if err != nil {
		return nil, err
	}

	if err := checkDiskSpace(conf.DataDir, conf.MinimumFreeGB, log); err != nil {
		saver.Close()
		return nil, err
	}

	res, err := saver.Load()
	if err != nil {
		saver.Close()
		return nil, fmt.Errorf("error recovering store: %w", err)
	}

	wp := workerpool.NewWorkerPool(workerpool.Config{})
	st := store.New(res, saver, wp, log)

	wallet, err := walletStore.NewWalletStore(walletStore.StoreConfig{
		Path:   filepath.Join(conf.DataDir, logStore.WalletDir),
		Logger: log,
	})
	if err != nil {
		wp.Close()
		saver.Close()
		return nil, err
	}

	w := &Winsome{
		Store:         st,
		config:        conf,
		log:           log,
		saver:         saver,
		wallet:        wallet,
		wp:            wp,
		stopSnapshots: make(chan struct{}),
		snapshotsDone: make(chan struct{}),
	}

	w.reward = reward.NewEngine(st, wallet, reward.PercentSplit{AuthorShare: conf.AuthorShare}, conf.RewardInterval, log)
	go w.reward.Run()
	go w.snapshotLoop()

	return w, nil
}

// Wallet exposes the reward ledger for balance and history queries.
func (w *Winsome) Wallet() *walletStore.WalletStore {
	return w.wallet
}

// Close stops the background loops, runs a final reward cycle, writes a
// final snapshot and releases every file handle.
func (w *Winsome) Close() error {
	w.reward.Close()

	close(w.stopSnapshots)
	<-w.snapshotsDone

	var firstErr error
	if err := w.snapshot(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := w.saver.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := w.wallet.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	w.wp.Close()
	return firstErr
}

func (w *Winsome) snapshotLoop() {
	defer close(w.snapshotsDone)

	ticker := time.NewTicker(w.config.SnapshotInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := w.snapshot(); err != nil {
				w.log.Errorf("snapshot cycle failed: %v", err)
			}
			if err := w.wallet.Clean(); err != nil {
				w.log.Errorf("wallet cleanup failed: %v", err)
			}
		case <-w.stopSnapshots:
			return
		}
	}
}

func (w *Winsome) snapshot() error {
	users, posts := w.Store.Snapshot()
	if err := w.saver.WriteSnapshots(users, posts); err != nil {
		return err
	}
	if w.config.BackupDir != "" {
		return backup.Snapshots(w.config.DataDir, w.config.BackupDir)
	}
	return nil
}

// checkDiskSpace refuses to boot a store onto a nearly full filesystem.
func checkDiskSpace(path string, minimumFreeGB int, log *logrus.Logger) error {
	usage, err := disk.Usage(path)
	if err != nil {
		return fmt.Errorf("error reading disk usage of %s: %w", path, err)
	}

	log.WithFields(logrus.Fields{
		"path":       path,
		"Total (GB)": fmt.Sprintf("%.2f", float64(usage.Total)/1e9),
		"Free (GB)":  fmt.Sprintf("%.2f", float64(usage.Free)/1e9),
	}).Info("Disk Usage")

	if minimumFreeGB > 0 && usage.Free < uint64(minimumFreeGB)*1e9 {
		return fmt.Errorf("not enough free disk space: %d GB required, %.2f GB free",
			minimumFreeGB, float64(usage.Free)/1e9)
	}
	return nil
}
