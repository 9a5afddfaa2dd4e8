// Package storage implements the avatar object-storage accessor on Google
// Cloud Storage. Uploaded avatars are written under avatars/<traveller-id>
// and exposed with public-read access so clients can hot-link them.
package storage

import (
	"context"
	"fmt"
	"io"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/roamline/go-trip-backend/internal/config"
)

// allowedContentTypes is the avatar upload allowlist. Anything else is
// rejected before a single byte reaches the bucket.
var allowedContentTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// AllowedContentType reports whether ct may be uploaded as an avatar.
func AllowedContentType(ct string) bool {
	_, ok := allowedContentTypes[ct]
	return ok
}

// AvatarStore uploads avatar images to a public-read GCS bucket.
type AvatarStore struct {
	client *gcs.Client
	bucket string
}

// New builds an AvatarStore from configuration. With an empty credentials
// file the client falls back to Application Default Credentials.
func New(ctx context.Context, cfg config.StorageConfig) (*AvatarStore, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	client, err := gcs.NewClient(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return &AvatarStore{client: client, bucket: cfg.Bucket}, nil
}

// Put streams an avatar into the bucket and makes the object world-readable.
// It returns the public object URL. contentType must already have passed
// AllowedContentType.
func (a *AvatarStore) Put(ctx context.Context, travellerID, contentType string, r io.Reader) (string, error) {
	ext, ok := allowedContentTypes[contentType]
	if !ok {
		return "", fmt.Errorf("content type %q not allowed", contentType)
	}

	name := "avatars/" + travellerID + ext
	w := a.client.Bucket(a.bucket).Object(name).NewWriter(ctx)
	w.ContentType = contentType
	w.CacheControl = "public, max-age=3600"

	if _, err := io.Copy(w, r); err != nil {
		w.Close()
		return "", err
	}
	if err := w.Close(); err != nil {
		return "", err
	}

	// Requires fine-grained (non-uniform) bucket access control.
	if err := a.client.Bucket(a.bucket).Object(name).ACL().Set(ctx, gcs.AllUsers, gcs.RoleReader); err != nil {
		return "", err
	}

	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", a.bucket, name), nil
}

// Close releases the underlying client.
func (a *AvatarStore) Close() error { return a.client.Close() }
