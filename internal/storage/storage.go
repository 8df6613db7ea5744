package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"

	"github.com/futig/mcq-reasoner/internal/config"
)

// ErrNotFound is returned by Get for unknown artifacts
var ErrNotFound = errors.New("artifact not found")

// Store keeps exported run artifacts (results, submissions, reports)
type Store interface {
	// Put stores data under name and returns its location
	Put(ctx context.Context, name string, data io.Reader) (string, error)

	// Get opens the artifact stored under name
	Get(ctx context.Context, name string) (io.ReadCloser, error)
}

// New creates a store for the configured backend
func New(ctx context.Context, cfg config.StorageConfig) (Store, error) {
	switch cfg.Type {
	case config.StorageLocal:
		return NewLocal(cfg.LocalPath)
	case config.StorageS3:
		return NewS3(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}

// cleanName turns an artifact name into a slash separated relative key
func cleanName(name string) (string, error) {
	name = path.Clean("/" + strings.ReplaceAll(name, "\\", "/"))
	name = strings.TrimPrefix(name, "/")
	if name == "" || name == "." {
		return "", fmt.Errorf("empty artifact name")
	}
	return name, nil
}

func contentType(name string) string {
	switch filepath.Ext(name) {
	case ".pdf":
		return "application/pdf"
	case ".csv":
		return "text/csv"
	case ".json":
		return "application/json"
	case ".md":
		return "text/markdown"
	default:
		return "application/octet-stream"
	}
}
