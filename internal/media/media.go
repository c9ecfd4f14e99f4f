package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"

	"cloud.google.com/go/storage"
	"github.com/fjod/go_grocer/pkg/circuitbreaker"
)

var (
	ErrUnsupportedImage = errors.New("only jpeg and png images are supported")
	ErrEmptyImage       = errors.New("image is empty")
)

var allowedTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
}

// Bucket writes objects to a storage bucket.
type Bucket interface {
	Name() string
	Write(ctx context.Context, object, contentType string, r io.Reader) error
}

type gcsBucket struct {
	client *storage.Client
	name   string
}

// NewGCSBucket wraps a Cloud Storage bucket.
func NewGCSBucket(client *storage.Client, name string) Bucket {
	return &gcsBucket{client: client, name: name}
}

func (b *gcsBucket) Name() string {
	return b.name
}

func (b *gcsBucket) Write(ctx context.Context, object, contentType string, r io.Reader) error {
	w := b.client.Bucket(b.name).Object(object).NewWriter(ctx)
	w.ContentType = contentType
	w.CacheControl = "public, max-age=3600"
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return fmt.Errorf("media: writing %s: %w", object, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("media: closing writer for %s: %w", object, err)
	}
	return nil
}

// Uploader stores dish images under dishes/{dishID} in a public bucket.
type Uploader struct {
	bucket  Bucket
	breaker *circuitbreaker.Breaker
}

func NewUploader(bucket Bucket, breaker *circuitbreaker.Breaker) *Uploader {
	return &Uploader{bucket: bucket, breaker: breaker}
}

// Upload returns the public URL of the stored image. An empty contentType is sniffed from data.
func (u *Uploader) Upload(ctx context.Context, dishID, contentType string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", ErrEmptyImage
	}
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	if !allowedTypes[contentType] {
		return "", fmt.Errorf("media: %q: %w", contentType, ErrUnsupportedImage)
	}

	object := path.Join("dishes", dishID)
	_, err := circuitbreaker.Execute(u.breaker, func() (struct{}, error) {
		return struct{}{}, u.bucket.Write(ctx, object, contentType, bytes.NewReader(data))
	})
	if err != nil {
		return "", err
	}
	return PublicURL(u.bucket.Name(), object), nil
}

func PublicURL(bucket, object string) string {
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", bucket, object)
}
