package blobstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/promocard-agent/pkg/logger"
)

// Store persists rendered artifacts outside the process and hands back a
// stable reference for them
type Store interface {
	Put(ctx context.Context, data []byte, filename string) (string, error)
	Delete(ctx context.Context, url string) error
}

// StorageError reports a failed persistence call. It is surfaced to the
// caller of the operation and not retried internally.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// Local stores artifacts in a directory on disk
type Local struct {
	dir     string
	baseURL string // optional public prefix; file path returned when empty
	log     *logger.Logger
}

// NewLocal creates a disk-backed artifact store
func NewLocal(dir, baseURL string, log *logger.Logger) (*Local, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, &StorageError{Op: "init", Err: err}
	}
	return &Local{
		dir:     dir,
		baseURL: strings.TrimRight(baseURL, "/"),
		log:     log.WithComponent("blobstore"),
	}, nil
}

// Put writes the artifact and returns its reference
func (l *Local) Put(ctx context.Context, data []byte, filename string) (string, error) {
	path := filepath.Join(l.dir, filepath.Base(filename))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", &StorageError{Op: "put", Err: err}
	}

	l.log.Debug().Str("path", path).Int("bytes", len(data)).Msg("Artifact stored")

	if l.baseURL != "" {
		return l.baseURL + "/" + filepath.Base(filename), nil
	}
	return path, nil
}

// Delete removes a previously stored artifact
func (l *Local) Delete(ctx context.Context, url string) error {
	name := filepath.Base(url)
	if err := os.Remove(filepath.Join(l.dir, name)); err != nil {
		return &StorageError{Op: "delete", Err: err}
	}
	return nil
}
