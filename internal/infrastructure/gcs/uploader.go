package gcs

import (
	"context"
	"io"

	"cloud.google.com/go/storage"

	"github.com/oksasatya/go-task-rbac/pkg/helpers"
)

// Uploader writes objects into a single bucket.
type Uploader struct {
	Client *storage.Client
	Bucket string
}

func NewUploader(client *storage.Client, bucket string) *Uploader {
	return &Uploader{Client: client, Bucket: bucket}
}

// Upload stores r at objectPath and returns the object's public URL.
func (u *Uploader) Upload(ctx context.Context, objectPath, contentType string, r io.Reader) (string, error) {
	return helpers.UploadObject(ctx, u.Client, u.Bucket, objectPath, contentType, r)
}
