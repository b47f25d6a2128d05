package aws

import (
	"context"
	"fmt"
	"io"
	"os"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Client bundles the object APIs the media store needs.
type S3Client struct {
	client   *s3.Client
	uploader *manager.Uploader
}

// NewS3Client creates a path-style S3 client. AWS_S3_ENDPOINT overrides the
// shared endpoint for S3 only.
func NewS3Client(cfg sdkaws.Config) *S3Client {
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.UsePathStyle = true
		if ep := os.Getenv("AWS_S3_ENDPOINT"); ep != "" {
			o.BaseEndpoint = sdkaws.String(ep)
		}
	})
	return &S3Client{
		client:   client,
		uploader: manager.NewUploader(client),
	}
}

// PutObject streams body to bucket/key, using multipart upload for large bodies.
func (c *S3Client) PutObject(ctx context.Context, bucket, key, contentType string, body io.Reader) error {
	input := &s3.PutObjectInput{
		Bucket: &bucket,
		Key:    &key,
		Body:   body,
	}
	if contentType != "" {
		input.ContentType = &contentType
	}
	if _, err := c.uploader.Upload(ctx, input); err != nil {
		return fmt.Errorf("s3 upload %s/%s failed: %w", bucket, key, err)
	}
	return nil
}

func (c *S3Client) DeleteObject(ctx context.Context, bucket, key string) error {
	if _, err := c.client.DeleteObject(ctx, &s3.DeleteObjectInput{Bucket: &bucket, Key: &key}); err != nil {
		return fmt.Errorf("s3 delete %s/%s failed: %w", bucket, key, err)
	}
	return nil
}
