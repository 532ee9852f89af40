package utils

import (
	"context"
	"fmt"
	"mime/multipart"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// R2Uploader is a drop-in alternative to GCSUploader backed by Cloudflare R2
// through its S3-compatible API. Selected with STORAGE_BACKEND=r2.
type R2Uploader struct {
	s3           *s3.Client
	bucket       string
	publicDomain string
}

func NewR2Uploader(ctx context.Context) (*R2Uploader, error) {
	bucket := os.Getenv("R2_BUCKET")
	accessKey := os.Getenv("R2_ACCESS_KEY_ID")
	secretKey := os.Getenv("R2_SECRET_ACCESS_KEY")
	endpoint := os.Getenv("R2_ENDPOINT") // https://<account-id>.r2.cloudflarestorage.com
	publicDomain := strings.TrimSuffix(os.Getenv("R2_PUBLIC_DOMAIN"), "/")

	if bucket == "" || accessKey == "" || secretKey == "" || endpoint == "" || publicDomain == "" {
		return nil, fmt.Errorf("missing R2 env vars (R2_BUCKET, R2_ACCESS_KEY_ID, R2_SECRET_ACCESS_KEY, R2_ENDPOINT, R2_PUBLIC_DOMAIN)")
	}

	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKey, secretKey, ""),
		),
		config.WithRegion("auto"),
	)
	if err != nil {
		return nil, fmt.Errorf("r2 config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
		o.UsePathStyle = true // required for R2
	})

	return &R2Uploader{s3: client, bucket: bucket, publicDomain: publicDomain}, nil
}

func (u *R2Uploader) Upload(ctx context.Context, folder string, fh *multipart.FileHeader) (string, error) {
	objectName := buildObjectName(folder, fh.Filename)

	f, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	_, err = u.s3.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(objectName),
		Body:        f,
		ContentType: aws.String(contentTypeFor(fh)),
	})
	if err != nil {
		return "", fmt.Errorf("r2 put: %w", err)
	}

	return u.publicDomain + "/" + objectName, nil
}

func (u *R2Uploader) Delete(ctx context.Context, publicURL string) error {
	key := strings.TrimPrefix(publicURL, u.publicDomain+"/")
	if key == "" || key == publicURL {
		return fmt.Errorf("not an r2 public url")
	}
	_, err := u.s3.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(u.bucket),
		Key:    aws.String(key),
	})
	return err
}
