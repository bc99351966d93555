// Package wallsettings remembers the extraction settings last used for each wallpaper.
package wallsettings

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

// DBFile is the database file name under the cache root.
const DBFile = "settings.db"

var bucketWallpapers = []byte("wallpapers")

// Settings are the per-wallpaper choices that can be remembered.
// Zero values mean "not set".
type Settings struct {
	Backend   string `json:"backend,omitempty"`
	Threshold int    `json:"threshold,omitempty"`
	Theme     string `json:"theme,omitempty"`
}

// Store is a bbolt database of Settings keyed by absolute wallpaper path.
type Store struct {
	db *bolt.DB
}

// Open opens (creating if needed) the settings database under cacheDir.
func Open(cacheDir string) (*Store, error) {
	if err := os.MkdirAll(cacheDir, 0o755); err != nil { // #nosec G301 - Cache directory needs standard permissions
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	db, err := bolt.Open(filepath.Join(cacheDir, DBFile), 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open settings db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketWallpapers)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Get returns the remembered settings for wallpaper.
func (s *Store) Get(wallpaper string) (Settings, bool, error) {
	key, err := keyFor(wallpaper)
	if err != nil {
		return Settings{}, false, err
	}

	var data []byte
	err = s.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket(bucketWallpapers).Get(key); v != nil {
			data = make([]byte, len(v))
			copy(data, v)
		}
		return nil
	})
	if err != nil || data == nil {
		return Settings{}, false, err
	}

	var settings Settings
	if err := json.Unmarshal(data, &settings); err != nil {
		return Settings{}, false, fmt.Errorf("corrupt settings for %s: %w", wallpaper, err)
	}
	return settings, true, nil
}

// Put remembers settings for wallpaper, replacing any previous entry.
func (s *Store) Put(wallpaper string, settings Settings) error {
	key, err := keyFor(wallpaper)
	if err != nil {
		return err
	}
	data, err := json.Marshal(settings)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketWallpapers).Put(key, data)
	})
}

// Merge fills the fields of explicit that are unset from remembered.
func Merge(explicit, remembered Settings) Settings {
	if explicit.Backend == "" {
		explicit.Backend = remembered.Backend
	}
	if explicit.Threshold == 0 {
		explicit.Threshold = remembered.Threshold
	}
	if explicit.Theme == "" {
		explicit.Theme = remembered.Theme
	}
	return explicit
}

func keyFor(wallpaper string) ([]byte, error) {
	abs, err := filepath.Abs(wallpaper)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", wallpaper, err)
	}
	return []byte(abs), nil
}
