// Package storage reads and writes documents in the Home Assistant
// ".storage" directory. Documents are always loaded and saved whole.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hass-box/hassbox-store/internal/models"
	"github.com/hass-box/hassbox-store/internal/utils"
	"github.com/sirupsen/logrus"
)

// Document keys
const (
	KeyAccount   = "hassbox_store.config"
	KeyCatalog   = "hassbox.repo"
	KeyInstalled = "hassbox.installed"
	KeyResources = "lovelace_resources"
	KeyCoreUUID  = "core.uuid"
)

// Dir is the storage directory name inside the config directory
const Dir = ".storage"

type envelope struct {
	Version      int             `json:"version"`
	MinorVersion int             `json:"minor_version"`
	Key          string          `json:"key"`
	Data         json.RawMessage `json:"data"`
}

// Store loads and saves storage documents
type Store struct {
	dir string
}

// New creates a store rooted at the given Home Assistant config directory
func New(configDir string) *Store {
	return &Store{dir: filepath.Join(configDir, Dir)}
}

// Path returns the file backing key
func (s *Store) Path(key string) string {
	return filepath.Join(s.dir, key)
}

// Load decodes the data of document key into v. It reports false, with v
// untouched, when the document does not exist.
func (s *Store) Load(key string, v interface{}) (bool, error) {
	env, err := s.read(key)
	if err != nil {
		return false, err
	}
	if env == nil || len(env.Data) == 0 || string(env.Data) == "null" {
		return false, nil
	}

	if err := json.Unmarshal(env.Data, v); err != nil {
		return false, &models.StoreError{
			Type: models.ErrStorage,
			Err:  fmt.Errorf("failed to decode %s: %w", key, err),
		}
	}
	return true, nil
}

// Save replaces document key with v. The schema version of an existing
// document is preserved.
func (s *Store) Save(key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return &models.StoreError{
			Type: models.ErrStorage,
			Err:  fmt.Errorf("failed to encode %s: %w", key, err),
		}
	}

	env := &envelope{Version: 1, MinorVersion: 1, Key: key, Data: data}
	if existing, err := s.read(key); err == nil && existing != nil && existing.Version > 0 {
		env.Version = existing.Version
		env.MinorVersion = existing.MinorVersion
	}

	out, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return &models.StoreError{
			Type: models.ErrStorage,
			Err:  fmt.Errorf("failed to encode %s: %w", key, err),
		}
	}

	if err := utils.WriteFileAtomic(s.Path(key), out, 0600); err != nil {
		return &models.StoreError{
			Type: models.ErrStorage,
			Err:  fmt.Errorf("failed to write %s: %w", key, err),
		}
	}

	logrus.Debugf("Saved storage document %s (%d bytes)", key, len(out))
	return nil
}

func (s *Store) read(key string) (*envelope, error) {
	raw, err := os.ReadFile(s.Path(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, &models.StoreError{
			Type: models.ErrStorage,
			Err:  fmt.Errorf("failed to read %s: %w", key, err),
		}
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, &models.StoreError{
			Type: models.ErrStorage,
			Err:  fmt.Errorf("failed to decode %s: %w", key, err),
		}
	}
	return &env, nil
}
