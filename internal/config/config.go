package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

type Config struct {
	DataDir                 string `yaml:"dataDir"`
	BackupDir               string `yaml:"backupDir"`
	MinimumFreeGB           int    `yaml:"minimumFreeGB"`
	SnapshotIntervalSeconds int    `yaml:"snapshotIntervalSeconds"`
	RewardIntervalSeconds   int    `yaml:"rewardIntervalSeconds"`
	AuthorSharePercent      int    `yaml:"authorSharePercent"`
	LogLevel                string `yaml:"logLevel"`
}

// GetConfig reads the YAML config file and fills in defaults for anything
// left unset.
func GetConfig(path string) (Config, error) {
	var config Config

	data, err := os.ReadFile(path)
	if err != nil {
		return config, fmt.Errorf("error reading config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &config); err != nil {
		return config, fmt.Errorf("error parsing config file %s: %w", path, err)
	}

	if config.DataDir == "" {
		config.DataDir = "data"
	}
	if config.SnapshotIntervalSeconds == 0 {
		config.SnapshotIntervalSeconds = 300
	}
	if config.RewardIntervalSeconds == 0 {
		config.RewardIntervalSeconds = 60
	}
	if config.AuthorSharePercent == 0 {
		config.AuthorSharePercent = 70
	}
	if config.LogLevel == "" {
		config.LogLevel = "info"
	}

	return config, nil
}
