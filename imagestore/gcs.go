package imagestore

import (
	"context"
	"errors"
	"io"

	"cloud.google.com/go/storage"
)

var _ Store = (*GCS)(nil)

const gcsPublicHost = "https://storage.googleapis.com/"

type GCS struct {
	client *storage.Client
	bucket string
}

// NewGCS uses application default credentials.
func NewGCS(ctx context.Context, bucket string) (*GCS, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, err
	}
	return &GCS{client: client, bucket: bucket}, nil
}

// Put aborts the upload on a failed copy; closing the writer would commit
// the partial object.
func (g *GCS) Put(ctx context.Context, key, contentType string, body io.Reader) (string, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	w := g.client.Bucket(g.bucket).Object(key).NewWriter(ctx)
	w.ContentType = contentType
	if err := commit(w, body, cancel); err != nil {
		return "", err
	}
	return gcsPublicHost + g.bucket + "/" + key, nil
}

// commit copies body into w and closes it, or calls abort without closing
// when the copy fails.
func commit(w io.WriteCloser, body io.Reader, abort func()) error {
	if _, err := io.Copy(w, body); err != nil {
		abort()
		return err
	}
	return w.Close()
}

func (g *GCS) Delete(ctx context.Context, key string) error {
	err := g.client.Bucket(g.bucket).Object(key).Delete(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil
	}
	return err
}

func (g *GCS) Close() error {
	return g.client.Close()
}
