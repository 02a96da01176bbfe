package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"billed-backend/config"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrFileNotFound is returned when a storage path does not exist
var ErrFileNotFound = errors.New("file not found")

// Storage interface for attachment storage operations
type Storage interface {
	// Upload stores a file and returns the storage path
	Upload(ctx context.Context, fileID uuid.UUID, filename string, data io.Reader) (string, error)

	// Download retrieves a file by storage path
	Download(ctx context.Context, storagePath string) (io.ReadCloser, error)

	// Delete removes a file by storage path
	Delete(ctx context.Context, storagePath string) error

	// URL returns the address a client uses to fetch the stored file
	URL(storagePath string) string
}

// StorageType represents the storage backend type
type StorageType string

const (
	StorageTypeLocal StorageType = "local"
	StorageTypeS3    StorageType = "s3"
)

// StorageConfig holds configuration for storage
type StorageConfig struct {
	Type          StorageType
	LocalPath     string // For local storage
	PublicBaseURL string // For local storage, prefix of generated URLs
	S3Bucket      string // For S3 storage
	S3Region      string // For S3 storage
	S3Endpoint    string // Optional, S3-compatible endpoint such as MinIO
	AWSAccessKey  string
	AWSSecretKey  string
}

// NewStorage creates a new storage instance based on configuration
func NewStorage(ctx context.Context, cfg StorageConfig, log *zap.Logger) (Storage, error) {
	switch cfg.Type {
	case StorageTypeLocal:
		return NewLocalStorage(cfg.LocalPath, cfg.PublicBaseURL)
	case StorageTypeS3:
		return NewS3Storage(ctx, cfg, log)
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}

// ConfigFrom maps the application configuration onto a StorageConfig
func ConfigFrom(cfg *config.Config) StorageConfig {
	return StorageConfig{
		Type:          StorageType(cfg.Storage.Type),
		LocalPath:     cfg.Storage.LocalPath,
		PublicBaseURL: cfg.Server.PublicBaseURL,
		S3Bucket:      cfg.Storage.S3Bucket,
		S3Region:      cfg.Storage.S3Region,
		S3Endpoint:    cfg.Storage.S3Endpoint,
		AWSAccessKey:  cfg.Storage.AWSAccessKey,
		AWSSecretKey:  cfg.Storage.AWSSecretKey,
	}
}

// generateStoragePath generates a unique storage path for a file.
// Name characters outside [A-Za-z0-9._-] become '_' so the path can be
// used verbatim in a URL.
func generateStoragePath(fileID uuid.UUID, filename string) string {
	ext := sanitizeName(strings.ToLower(filepath.Ext(filename)))
	baseName := sanitizeName(strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename)))

	// Use fileID to ensure uniqueness
	return fmt.Sprintf("%s/%s_%s%s", fileID.String()[:2], fileID.String(), baseName, ext)
}

func sanitizeName(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.', r == '_', r == '-':
			return r
		default:
			return '_'
		}
	}, name)
}
