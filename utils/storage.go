package utils

import (
	"context"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
	"google.golang.org/api/option"
)

// GCSUploader stores images in a Google Cloud Storage bucket and serves them
// through the bucket's public URL.
type GCSUploader struct {
	client *storage.Client
	bucket string
}

func NewGCSUploader(ctx context.Context) (*GCSUploader, error) {
	bucket := os.Getenv("GCS_BUCKET")
	credentialsPath := os.Getenv("CREDENTIALS_FILE_LOCATION")
	if bucket == "" {
		return nil, fmt.Errorf("missing GCS_BUCKET env var")
	}

	var opts []option.ClientOption
	if credentialsPath != "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		opts = append(opts, option.WithAuthCredentialsFile(option.ServiceAccount, filepath.Join(wd, credentialsPath)))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return &GCSUploader{client: client, bucket: bucket}, nil
}

func (u *GCSUploader) Upload(ctx context.Context, folder string, fh *multipart.FileHeader) (string, error) {
	objectName := buildObjectName(folder, fh.Filename)

	f, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	w := u.client.Bucket(u.bucket).Object(objectName).NewWriter(ctx)
	w.ContentType = contentTypeFor(fh)
	w.CacheControl = "no-cache"

	if _, err := io.Copy(w, f); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("upload copy: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("upload close: %w", err)
	}

	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", u.bucket, objectName), nil
}

func (u *GCSUploader) Delete(ctx context.Context, publicURL string) error {
	obj, err := ObjectNameFromGCSPublicURL(u.bucket, publicURL)
	if err != nil {
		return err
	}
	return u.client.Bucket(u.bucket).Object(obj).Delete(ctx)
}

func buildObjectName(folder, filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		ext = ".bin"
	}
	return fmt.Sprintf("%s/%d-%s%s", folder, time.Now().UTC().Unix(), uuid.New().String(), ext)
}

func contentTypeFor(fh *multipart.FileHeader) string {
	ct := fh.Header.Get("Content-Type")
	if ct == "" {
		ct = mime.TypeByExtension(strings.ToLower(filepath.Ext(fh.Filename)))
	}
	if ct == "" {
		ct = "application/octet-stream"
	}
	return ct
}

func ObjectNameFromGCSPublicURL(bucket string, raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid url: %w", err)
	}

	host := strings.ToLower(u.Host)
	path := strings.TrimPrefix(u.Path, "/")

	// style 1: storage.googleapis.com/<bucket>/<object>
	if host == "storage.googleapis.com" {
		prefix := bucket + "/"
		if !strings.HasPrefix(path, prefix) {
			return "", fmt.Errorf("url bucket mismatch")
		}
		return strings.TrimPrefix(path, prefix), nil
	}

	// style 2: <bucket>.storage.googleapis.com/<object>
	if host == strings.ToLower(bucket)+".storage.googleapis.com" {
		if path == "" {
			return "", fmt.Errorf("missing object path")
		}
		return path, nil
	}

	return "", fmt.Errorf("not a gcs public url")
}
