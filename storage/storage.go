// Package storage keeps the original files behind knowledge documents and
// hands out URLs for citing them.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound   = errors.New("object not found")
	ErrEmptyKey   = errors.New("storage key is empty")
	ErrInvalidKey = errors.New("storage key is invalid")
)

// DefaultURLExpiry is how long presigned URLs stay valid.
const DefaultURLExpiry = 15 * time.Minute

// Storage interface for document storage operations
type Storage interface {
	// Upload stores data under key
	Upload(ctx context.Context, key string, data io.Reader, contentType string) error

	// Download retrieves the object at key. The caller closes the reader.
	Download(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes the object at key
	Delete(ctx context.Context, key string) error

	// URL returns a link a reader can follow to the object at key
	URL(ctx context.Context, key string) (string, error)
}

// StorageType represents the storage backend type
type StorageType string

const (
	StorageTypeLocal StorageType = "local"
	StorageTypeS3    StorageType = "s3"
	StorageTypeAzure StorageType = "azure"
)

// StorageConfig holds configuration for storage
type StorageConfig struct {
	Type      StorageType
	URLExpiry time.Duration

	LocalPath    string // For local storage
	LocalBaseURL string // Public prefix for local files, empty disables URLs

	S3Bucket     string
	S3Region     string
	AWSAccessKey string
	AWSSecretKey string

	AzureConnectionString string
	AzureContainer        string
}

// NewStorage creates a new storage instance based on configuration
func NewStorage(ctx context.Context, cfg StorageConfig) (Storage, error) {
	if cfg.URLExpiry <= 0 {
		cfg.URLExpiry = DefaultURLExpiry
	}

	switch cfg.Type {
	case StorageTypeLocal, "":
		return NewLocalStorage(cfg.LocalPath, cfg.LocalBaseURL)
	case StorageTypeS3:
		if cfg.S3Bucket == "" {
			return nil, errors.New("S3 bucket is required for S3 storage")
		}
		return NewS3Storage(ctx, cfg)
	case StorageTypeAzure:
		if cfg.AzureConnectionString == "" || cfg.AzureContainer == "" {
			return nil, errors.New("connection string and container are required for Azure storage")
		}
		return NewAzureStorage(cfg)
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}

// DocumentKey generates a unique storage key for a knowledge document file
func DocumentKey(id uuid.UUID, filename string) string {
	ext := filepath.Ext(filename)
	baseName := strings.TrimSuffix(filepath.Base(filename), ext)
	baseName = strings.NewReplacer(" ", "_", "/", "_", "\\", "_").Replace(baseName)

	return fmt.Sprintf("knowledge/%s/%s_%s%s", id.String()[:2], id.String(), baseName, ext)
}

// ContentType determines content type from filename
func ContentType(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return "application/pdf"
	case ".md", ".markdown":
		return "text/markdown; charset=utf-8"
	case ".txt":
		return "text/plain; charset=utf-8"
	case ".doc":
		return "application/msword"
	case ".docx":
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	default:
		return "application/octet-stream"
	}
}

func validateKey(key string) error {
	if key == "" {
		return ErrEmptyKey
	}
	if strings.Contains(key, "..") || strings.HasPrefix(key, "/") {
		return ErrInvalidKey
	}
	return nil
}
