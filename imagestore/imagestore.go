// Package imagestore persists uploaded answer images and returns the URL
// they are served from.
package imagestore

import (
	"context"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"

	"github.com/gofrs/uuid"
	"github.com/mbolis/quick-forms/config"
)

const folder = "form_uploads"

type Store interface {
	// Put stores body under key and returns its public URL.
	Put(ctx context.Context, key, contentType string, body io.Reader) (string, error)
	Delete(ctx context.Context, key string) error
}

// Key builds a unique object key for a file uploaded to formID, keeping
// the original file extension.
func Key(formID, filename string) (string, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return "", err
	}
	ext := strings.ToLower(filepath.Ext(filename))
	if len(ext) > 10 {
		ext = ""
	}
	return path.Join(folder, formID, id.String()+ext), nil
}

// Open builds the store selected by cfg.ImageBackend.
func Open(ctx context.Context, cfg config.Config) (Store, error) {
	switch cfg.ImageBackend {
	case "", "disk":
		return NewDisk(cfg.UploadDir, cfg.UploadBaseURL), nil
	case "s3":
		return NewS3(cfg.S3Bucket, cfg.S3Region)
	case "gcs":
		return NewGCS(ctx, cfg.GCSBucket)
	}
	return nil, fmt.Errorf("unknown image backend %q", cfg.ImageBackend)
}
