package storage

import (
	"errors"
	"fmt"
	"io"
	"regexp"
)

// Cache keys shared with the rest of the dashboard.
const (
	KeyAccessToken  = "access_token"
	KeyLastScanID   = "last_scan_id"
	KeyLastScanRows = "last_scan_rows"
)

// Backends for the persistent store.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// ErrInvalidKey is returned for keys outside [A-Za-z0-9_.-].
var ErrInvalidKey = errors.New("invalid cache key")

var keyPattern = regexp.MustCompile(`^[A-Za-z0-9_.-]{1,128}$`)

// Store is a small string key/value cache
type Store interface {
	// Get returns the value and whether the key was present
	Get(key string) (string, bool, error)

	// Set stores value under key, replacing any previous value
	Set(key, value string) error

	// Delete removes key; deleting a missing key is not an error
	Delete(key string) error
}

// Persistent is a Store that outlives the process.
type Persistent interface {
	Store
	io.Closer

	// Location describes where the data lives, for status output
	Location() string
}

// Open returns the persistent store for the given backend rooted at dir.
func Open(backend, dir string) (Persistent, error) {
	switch backend {
	case BackendFile, "":
		return NewLocal(dir), nil
	case BackendSQLite:
		return OpenSQLite(dir)
	default:
		return nil, fmt.Errorf("unknown cache backend: %s", backend)
	}
}

// Lookup returns the value for key, treating errors as absence.
func Lookup(s Store, key string) string {
	if s == nil {
		return ""
	}
	v, ok, err := s.Get(key)
	if err != nil || !ok {
		return ""
	}
	return v
}

func validateKey(key string) error {
	if !keyPattern.MatchString(key) {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return nil
}
