// Package storage fronts S3-compatible object storage. The pilots
// module uses it for compliance documents; nothing in here knows about
// domain types.
package storage

import (
	"context"
	"io"
	"time"
)

// PresignedURL is a time-limited URL handed to the browser for a
// direct upload or download.
type PresignedURL struct {
	URL       string    `json:"url"`
	FileKey   string    `json:"fileKey"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// StorageService is the object storage port. Uploads and downloads go
// through presigned URLs so file bytes never pass through the API.
type StorageService interface {
	// GenerateUploadURL presigns an upload slot under folder, which is
	// the key prefix, for pilot documents "{pilotID}/{docType}".
	GenerateUploadURL(ctx context.Context, bucket, folder, fileName, contentType string, sizeBytes int64) (*PresignedURL, error)

	// GenerateDownloadURL presigns a read of an existing object.
	GenerateDownloadURL(ctx context.Context, bucket, fileKey string) (*PresignedURL, error)

	// DownloadFile streams an object server-side. Caller closes the
	// returned reader.
	DownloadFile(ctx context.Context, bucket, fileKey string) (io.ReadCloser, error)

	// DeleteObject removes an object.
	DeleteObject(ctx context.Context, bucket, fileKey string) error

	// EnsureBucketExists creates bucket when missing, used at startup.
	EnsureBucketExists(ctx context.Context, bucket string) error

	// ValidateContentType rejects content types not on the allow list.
	ValidateContentType(contentType string) error

	// ValidateFileSize rejects files over the configured limit.
	ValidateFileSize(sizeBytes int64) error
}

// Config is the slice of application config the storage client reads.
type Config interface {
	GetMinIOEndpoint() string
	GetMinIOAccessKey() string
	GetMinIOSecretKey() string
	GetMinIOUseSSL() bool
	GetMinIOMaxFileSize() int64
	IsMinIOEnabled() bool
}
