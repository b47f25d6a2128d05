package media

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
)

// ObjectStorage is the subset of pkg/aws.S3Client the S3 store uses.
type ObjectStorage interface {
	PutObject(ctx context.Context, bucket, key, contentType string, body io.Reader) error
	DeleteObject(ctx context.Context, bucket, key string) error
}

// S3Store keeps media in a bucket and serves it from baseURL, usually a
// CloudFront domain. The object key doubles as the asset id.
type S3Store struct {
	storage ObjectStorage
	bucket  string
	prefix  string
	baseURL string
}

func NewS3Store(storage ObjectStorage, bucket, prefix, baseURL string) *S3Store {
	if baseURL == "" {
		baseURL = fmt.Sprintf("https://%s.s3.amazonaws.com", bucket)
	}
	if !strings.HasPrefix(baseURL, "http") {
		baseURL = "https://" + baseURL
	}
	return &S3Store{
		storage: storage,
		bucket:  bucket,
		prefix:  strings.Trim(prefix, "/"),
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

func (s *S3Store) Upload(ctx context.Context, in UploadInput) (*Asset, error) {
	if in.Body == nil {
		return nil, ErrEmptyUpload
	}
	key := path.Join(s.prefix, in.Folder, uuid.NewString()+strings.ToLower(path.Ext(in.Filename)))
	if err := s.storage.PutObject(ctx, s.bucket, key, in.ContentType, in.Body); err != nil {
		return nil, err
	}
	return &Asset{URL: s.baseURL + "/" + key, ID: key}, nil
}

func (s *S3Store) Delete(ctx context.Context, id string, _ bool) error {
	if id == "" {
		return nil
	}
	return s.storage.DeleteObject(ctx, s.bucket, id)
}

func (s *S3Store) IsManagedURL(url string) bool {
	return strings.HasPrefix(url, s.baseURL+"/")
}
