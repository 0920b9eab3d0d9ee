package blobstore

import (
	"io"
	"net/http"
	"strconv"

	"github.com/eglinebooks/egline/pkg/errcodes"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// MaxUploadBytes caps the size of a single uploaded blob.
const MaxUploadBytes = 64 << 20

// Serve streams the blob stored under key, answering 404 for resource when
// nothing is stored there.
func Serve(c echo.Context, store Store, key, resource string) error {
	obj, err := store.Open(c.Request().Context(), key)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return errcodes.NotFound(resource)
		}
		return errors.WithStack(err)
	}
	defer obj.Close()

	c.Response().Header().Set(echo.HeaderContentLength, strconv.FormatInt(obj.Size, 10))
	c.Response().Header().Set("Cache-Control", "no-cache")
	return errors.WithStack(c.Stream(http.StatusOK, obj.ContentType, obj))
}

// RequestBody returns the raw request body capped at MaxUploadBytes. An empty
// body is rejected. Callers must close it.
func RequestBody(c echo.Context) (io.ReadCloser, error) {
	req := c.Request()
	if req.ContentLength == 0 || req.Body == nil || req.Body == http.NoBody {
		return nil, errcodes.EmptyRequestBody()
	}
	return http.MaxBytesReader(c.Response(), req.Body, MaxUploadBytes), nil
}

// UploadError maps an error from storing a RequestBody onto an API error.
func UploadError(err error) error {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return errcodes.PayloadTooLarge(maxErr.Limit)
	}
	return errors.WithStack(err)
}

// Upload stores the raw request body under key.
func Upload(c echo.Context, store Store, key string) (*Info, error) {
	body, err := RequestBody(c)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	info, err := store.Put(c.Request().Context(), key, body)
	if err != nil {
		return nil, UploadError(err)
	}
	return info, nil
}
