package testutils

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/eglinebooks/egline/pkg/binder"
	"github.com/eglinebooks/egline/pkg/errcodes"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
)

// NewContext builds an echo context wired with the real binder and error
// handler. An empty payload sends no body.
func NewContext(t *testing.T, method, path, payload string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()

	e := echo.New()
	b, err := binder.New()
	require.NoError(t, err)
	e.Binder = b
	e.HTTPErrorHandler = errcodes.NewHandler().Handle

	var body io.Reader
	if payload != "" {
		body = strings.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, body)
	if payload != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rr := httptest.NewRecorder()
	return e.NewContext(req, rr), rr
}

// SetParams sets the route path and its parameters, alternating names and
// values: SetParams(c, "/book/:id", "id", "1").
func SetParams(c echo.Context, path string, pairs ...string) {
	c.SetPath(path)
	names := make([]string, 0, len(pairs)/2)
	values := make([]string, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		names = append(names, pairs[i])
		values = append(values, pairs[i+1])
	}
	c.SetParamNames(names...)
	c.SetParamValues(values...)
}

// RequireCode asserts that err is an errcodes.Error with the given code.
func RequireCode(t *testing.T, err error, code string) *errcodes.Error {
	t.Helper()
	require.Error(t, err)
	var codeErr *errcodes.Error
	require.ErrorAs(t, err, &codeErr)
	require.Equal(t, code, codeErr.Code, codeErr.Message)
	return codeErr
}
