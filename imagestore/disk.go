package imagestore

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/mbolis/quick-forms/log"
)

var _ Store = (*Disk)(nil)

var errBadKey = errors.New("imagestore: key escapes base directory")

// Disk keeps files under a local directory; the HTTP server serves that
// directory at baseURL.
type Disk struct {
	baseDir string
	baseURL string
}

func NewDisk(baseDir, baseURL string) *Disk {
	return &Disk{baseDir: baseDir, baseURL: strings.TrimRight(baseURL, "/")}
}

func (d *Disk) BaseDir() string {
	return d.baseDir
}

func (d *Disk) Put(ctx context.Context, key, contentType string, body io.Reader) (string, error) {
	path, err := d.path(key)
	if err != nil {
		return "", err
	}
	if err = os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		log.WithError(err).Error("imagestore.disk.mkdir")
		return "", err
	}

	file, err := os.Create(path)
	if err != nil {
		return "", err
	}
	_, err = io.Copy(file, body)
	if cerr := file.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(path)
		return "", err
	}
	log.WithFields(log.Fields{"key": key, "contentType": contentType}).Debug("imagestore.disk.put")
	return d.baseURL + "/" + key, nil
}

func (d *Disk) Delete(ctx context.Context, key string) error {
	path, err := d.path(key)
	if err != nil {
		return err
	}
	err = os.Remove(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

func (d *Disk) path(key string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(key))
	if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", errBadKey
	}
	return filepath.Join(d.baseDir, clean), nil
}
