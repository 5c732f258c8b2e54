package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	winsome "github.com/winsome-net/winsome"
	"github.com/winsome-net/winsome/internal/config"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML config file")
	flag.Parse()

	log := logrus.New()

	conf, err := config.GetConfig(*configPath)
	if err != nil {
		log.Fatalf("error loading config: %v", err)
	}
	level, err := logrus.ParseLevel(conf.LogLevel)
	if err != nil {
		log.Fatalf("error parsing log level: %v", err)
	}
	log.SetLevel(level)

	w, err := winsome.New(winsome.Config{
		DataDir:          conf.DataDir,
		BackupDir:        conf.BackupDir,
		MinimumFreeGB:    conf.MinimumFreeGB,
		SnapshotInterval: time.Duration(conf.SnapshotIntervalSeconds) * time.Second,
		RewardInterval:   time.Duration(conf.RewardIntervalSeconds) * time.Second,
		AuthorShare:      float64(conf.AuthorSharePercent) / 100,
		Logger:           log,
	})
	if err != nil {
		log.Fatalf("error starting store: %v", err)
	}
	log.WithField("dataDir", conf.DataDir).Info("store started")

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	s := <-sig
	log.WithField("signal", s.String()).Info("shutting down")

	if err := w.Close(); err != nil {
		log.Fatalf("error during shutdown: %v", err)
	}
}
