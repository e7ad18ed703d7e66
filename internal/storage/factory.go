package storage

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"path"
	"strings"

	"github.com/timmy/cinevibe/internal/config"
)

// NewStorage creates the poster bucket client from the storage section of
// the configuration. The type is detected from the endpoint when unset.
func NewStorage(cfg *config.StorageConfig) (*S3Storage, error) {
	storeType := StorageType(strings.ToLower(cfg.Type))
	if storeType == "" {
		storeType = detectStorageType(cfg.Endpoint)
	}
	switch storeType {
	case StorageTypeR2, StorageTypeS3, StorageTypeS3Compatible:
	default:
		return nil, fmt.Errorf("unsupported storage type %q", cfg.Type)
	}

	return NewS3Storage(&S3Config{
		Type:      storeType,
		Endpoint:  cfg.Endpoint,
		AccessKey: cfg.AccessKey,
		SecretKey: cfg.SecretKey,
		UseSSL:    cfg.UseSSL,
		Bucket:    cfg.Bucket,
		Region:    cfg.Region,
		PublicURL: cfg.PublicURL,
	})
}

func detectStorageType(endpoint string) StorageType {
	endpoint = strings.ToLower(endpoint)

	switch {
	case strings.Contains(endpoint, "r2.cloudflarestorage.com"):
		return StorageTypeR2
	case strings.Contains(endpoint, "amazonaws.com"):
		return StorageTypeS3
	default:
		return StorageTypeS3Compatible
	}
}

// PosterKey returns the object key for poster bytes in the given format:
// posters/<md5[:2]>/<md5>.<ext>.
func PosterKey(data []byte, format string) string {
	sum := md5.Sum(data)
	hash := hex.EncodeToString(sum[:])
	return path.Join("posters", hash[:2], hash+"."+extension(format))
}

func extension(format string) string {
	switch f := strings.TrimPrefix(strings.ToLower(format), "."); f {
	case "", "jpeg":
		return "jpg"
	default:
		return f
	}
}

// ContentType maps an image format name to its MIME type.
func ContentType(format string) string {
	switch strings.ToLower(format) {
	case "jpeg", "jpg":
		return "image/jpeg"
	case "png":
		return "image/png"
	case "gif":
		return "image/gif"
	case "webp":
		return "image/webp"
	default:
		return "application/octet-stream"
	}
}
