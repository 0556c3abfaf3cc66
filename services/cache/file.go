package cache

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// FileCache implements CacheService with one file per key in a directory.
// Entries expire maxAge after the file was last modified; the expiration
// passed to Set is not stored, so pages dropped into the directory by hand
// age the same way as pages written by Set
type FileCache struct {
	dir    string
	ext    string
	maxAge time.Duration
	now    func() time.Time
}

// NewFileCache creates a file cache storing "<key><ext>" files in dir
func NewFileCache(dir, ext string, maxAge time.Duration) *FileCache {
	return &FileCache{dir: dir, ext: ext, maxAge: maxAge, now: time.Now}
}

func (f *FileCache) path(key string) string {
	name := strings.NewReplacer("/", "_", "\\", "_").Replace(key)
	return filepath.Join(f.dir, name+f.ext)
}

// Get returns the file content if it exists and is younger than maxAge
func (f *FileCache) Get(key string) ([]byte, error) {
	path := f.path(key)
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("stat cache file: %w", err)
	}
	if f.maxAge > 0 && f.now().Sub(info.ModTime()) >= f.maxAge {
		return nil, ErrCacheMiss
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read cache file: %w", err)
	}
	return data, nil
}

// Set writes value to the key's file
func (f *FileCache) Set(key string, value []byte, _ time.Duration) error {
	if err := os.MkdirAll(f.dir, 0o750); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}
	if err := os.WriteFile(f.path(key), value, 0o644); err != nil {
		return fmt.Errorf("write cache file: %w", err)
	}
	return nil
}

// Delete removes the key's file
func (f *FileCache) Delete(key string) error {
	if err := os.Remove(f.path(key)); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
