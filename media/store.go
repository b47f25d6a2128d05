package media

import (
	"context"
	"errors"
	"io"
	"regexp"
	"strings"
)

var ErrEmptyUpload = errors.New("empty upload")

type UploadInput struct {
	Body        io.Reader
	Filename    string
	ContentType string
	Folder      string
	Video       bool
}

// Asset is a stored file: its public URL and the provider id needed to delete it.
type Asset struct {
	URL string `json:"url"`
	ID  string `json:"id"`
}

// Store is a media backend. Implementations must tolerate Delete on ids
// that no longer exist.
type Store interface {
	Upload(ctx context.Context, in UploadInput) (*Asset, error)
	Delete(ctx context.Context, id string, video bool) error
	// IsManagedURL reports whether url points at a file this store owns.
	IsManagedURL(url string) bool
}

var transformSegment = regexp.MustCompile(`/tr:[^/]*`)

// NormalizeImageURL keeps absolute http(s) URLs only and strips CDN
// transform segments such as "/tr:w-300,h-300". Anything else yields "".
func NormalizeImageURL(raw string) string {
	u := strings.TrimSpace(raw)
	if !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
		return ""
	}
	return transformSegment.ReplaceAllString(u, "")
}
