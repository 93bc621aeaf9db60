package storage

import (
	"fmt"
	"os"
	"path/filepath"
)

// LocalStorage implements Persistent using one file per key
type LocalStorage struct {
	baseDir string
}

// NewLocal creates a new local storage instance
func NewLocal(baseDir string) *LocalStorage {
	return &LocalStorage{
		baseDir: baseDir,
	}
}

// Get reads a cached value from disk
func (s *LocalStorage) Get(key string) (string, bool, error) {
	if err := validateKey(key); err != nil {
		return "", false, err
	}

	data, err := os.ReadFile(s.keyPath(key))
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to read cache entry: %w", err)
	}

	return string(data), true, nil
}

// Set writes a value to disk, replacing it atomically
func (s *LocalStorage) Set(key, value string) error {
	if err := validateKey(key); err != nil {
		return err
	}

	if err := s.EnsureDirectoryExists(); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	// Write to a temp file first so readers never see a partial value
	tmp, err := os.CreateTemp(s.cacheDir(), "."+key+"-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.WriteString(value); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to close file: %w", err)
	}

	// Tokens live here, keep the files private
	if err := os.Chmod(tmpName, 0600); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to chmod file: %w", err)
	}

	if err := os.Rename(tmpName, s.keyPath(key)); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to store cache entry: %w", err)
	}

	return nil
}

// Delete removes a cached value
func (s *LocalStorage) Delete(key string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	if err := os.Remove(s.keyPath(key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete cache entry: %w", err)
	}
	return nil
}

// Close is a no-op for file storage
func (s *LocalStorage) Close() error {
	return nil
}

// Location returns the cache directory
func (s *LocalStorage) Location() string {
	return s.cacheDir()
}

// GetStoragePath returns the full path to the storage directory
func (s *LocalStorage) GetStoragePath() string {
	return s.baseDir
}

// EnsureDirectoryExists creates the storage directory if it doesn't exist
func (s *LocalStorage) EnsureDirectoryExists() error {
	return os.MkdirAll(s.cacheDir(), 0700)
}

func (s *LocalStorage) cacheDir() string {
	return filepath.Join(s.baseDir, "cache")
}

func (s *LocalStorage) keyPath(key string) string {
	return filepath.Join(s.cacheDir(), key)
}
