// Package object defines the binary object store used for generated documents.
package object

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"
)

var (
	// ErrInvalidKey is returned for keys that are empty or escape the store root.
	ErrInvalidKey = errors.New("invalid storage key")
	// ErrNotFound is returned by Open when no object exists under the key.
	ErrNotFound = errors.New("object not found")
)

// ObjectStore saves and serves binary objects by key.
type ObjectStore interface {
	SaveWithKey(ctx context.Context, storageKey string, contentType string, r io.Reader) (int64, error)
	Open(ctx context.Context, storageKey string) (io.ReadCloser, error)
	// Delete removes an object. Deleting a missing object succeeds.
	Delete(ctx context.Context, storageKey string) error
	// URL returns a link a client can download the object from.
	URL(ctx context.Context, storageKey string) (string, error)
}

// CleanKey normalizes a slash separated key. Empty and absolute keys, and
// keys that climb above the root, are rejected.
func CleanKey(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, `\`) {
		return "", ErrInvalidKey
	}
	clean := path.Clean(key)
	if clean == "." || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", ErrInvalidKey
	}
	return clean, nil
}

// JoinKey cleans key and places it under prefix.
func JoinKey(prefix, key string) (string, error) {
	clean, err := CleanKey(key)
	if err != nil {
		return "", err
	}
	if prefix = strings.Trim(strings.TrimSpace(prefix), "/"); prefix != "" {
		return prefix + "/" + clean, nil
	}
	return clean, nil
}
