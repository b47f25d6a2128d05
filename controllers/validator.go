package controllers

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"storefront-service/media"
	"storefront-service/models"
	"storefront-service/services"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	MaxPageSize   = 100
	MaxPageNumber = 1000000
	MaxUploadSize = 50 * 1024 * 1024
)

// ProductFilters holds the storefront list filters as received.
type ProductFilters struct {
	Featured   string
	Category   string
	CategoryID string
}

// RequestValidator parses query strings and multipart forms.
type RequestValidator struct {
	validate *validator.Validate
}

func NewRequestValidator() *RequestValidator {
	return &RequestValidator{validate: validator.New()}
}

// ParsePagination returns page 1 and perPage 0 when no paging was asked for;
// callers treat perPage 0 as "everything".
func (rv *RequestValidator) ParsePagination(c *gin.Context) (int, int, error) {
	page := 1
	if s := c.Query("page"); s != "" {
		p, err := strconv.Atoi(s)
		if err != nil || p < 1 {
			return 0, 0, errors.New("invalid page number")
		}
		page = min(p, MaxPageNumber)
	}
	perPage := 0
	for _, key := range []string{"perPage", "limit"} {
		s := c.Query(key)
		if s == "" {
			continue
		}
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			return 0, 0, errors.New("invalid page size")
		}
		perPage = min(n, MaxPageSize)
		break
	}
	return page, perPage, nil
}

func (rv *RequestValidator) ParseFilters(c *gin.Context) (ProductFilters, services.ListProductsParams, error) {
	f := ProductFilters{
		Featured:   strings.TrimSpace(c.Query("featured")),
		Category:   strings.TrimSpace(c.Query("category")),
		CategoryID: strings.TrimSpace(c.Query("categoryId")),
	}
	var params services.ListProductsParams
	params.Category = f.Category
	if f.Featured != "" {
		b, err := strconv.ParseBool(f.Featured)
		if err != nil {
			return f, params, errors.New("featured must be true or false")
		}
		params.Featured = &b
	}
	if f.CategoryID != "" {
		oid, err := primitive.ObjectIDFromHex(f.CategoryID)
		if err != nil {
			return f, params, errors.New("invalid categoryId")
		}
		params.CategoryID = &oid
	}
	return f, params, nil
}

// BindForm binds a multipart or urlencoded form into dst and validates it.
func (rv *RequestValidator) BindForm(c *gin.Context, dst interface{}) error {
	if err := c.ShouldBind(dst); err != nil {
		return err
	}
	return rv.validate.Struct(dst)
}

// ValidationMessage flattens validator errors into one readable line.
func ValidationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("%s failed on %s", fe.Field(), fe.Tag()))
	}
	return strings.Join(parts, "; ")
}

// uploadSet keeps opened multipart files until the handler is done.
type uploadSet struct {
	files []io.Closer
}

func (u *uploadSet) Close() {
	for _, f := range u.files {
		_ = f.Close()
	}
}

func (u *uploadSet) open(fh *multipart.FileHeader, video bool) (*media.UploadInput, error) {
	if fh.Size > MaxUploadSize {
		return nil, fmt.Errorf("%s exceeds the upload limit", fh.Filename)
	}
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	u.files = append(u.files, f)
	return &media.UploadInput{
		Body:        f,
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Video:       video,
	}, nil
}

// OptionalUpload opens the named file field, if present.
func (u *uploadSet) OptionalUpload(c *gin.Context, field string) (*media.UploadInput, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, nil
		}
		return nil, err
	}
	return u.open(fh, false)
}

// ParseMediaForm reads the seven product media slots. A file part becomes
// an upload; a text part of the same name becomes a URL value (possibly
// empty, meaning "clear"); a missing field is left out of the map.
func (u *uploadSet) ParseMediaForm(c *gin.Context) (map[string]services.MediaChange, error) {
	changes := map[string]services.MediaChange{}
	for _, slot := range models.ProductMediaSlots {
		if fh, err := c.FormFile(slot.Field); err == nil {
			in, err := u.open(fh, slot.Video)
			if err != nil {
				return nil, err
			}
			changes[slot.Field] = services.MediaChange{Upload: in}
			continue
		}
		if v, ok := c.GetPostForm(slot.Field); ok {
			v := v
			changes[slot.Field] = services.MediaChange{Value: &v}
		}
	}
	return changes, nil
}
