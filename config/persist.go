package config

import (
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/walkwithdeath/SMWApprovedRevsDataSync/errors"
)

// Save writes the configuration to the given path as TOML, rotating a
// single .back1 backup of the previous contents first. Callers holding a
// Watcher on the same path should MarkOwnWrite before saving.
func Save(cfg *Config, path string) error {
	if err := createBackup(path); err != nil {
		return err
	}

	data, err := toml.Marshal(cfg)
	if err != nil {
		return errors.Wrap(err, "failed to marshal config")
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.Wrapf(err, "failed to write config file %s", path)
	}

	return nil
}

// createBackup copies the current config to <path>.back1 before a save
func createBackup(path string) error {
	content, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil // No file to back up
	}
	if err != nil {
		return errors.Wrap(err, "failed to read config for backup")
	}

	if err := os.WriteFile(path+".back1", content, 0644); err != nil {
		return errors.Wrap(err, "failed to create config backup")
	}

	return nil
}
