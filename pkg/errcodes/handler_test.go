package errcodes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func handle(err error) *httptest.ResponseRecorder {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/book/1", nil)
	rr := httptest.NewRecorder()
	NewHandler().Handle(err, e.NewContext(req, rr))
	return rr
}

func TestHandle(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		err    error
		status int
		body   string
	}{
		{
			"not found",
			NotFound("Book"),
			http.StatusNotFound,
			`{"error":{"code":"not_found","message":"Book not found.","status_code":404}}`,
		},
		{
			"wrapped validation error",
			errors.WithStack(ValidationError("Saving rate error: Invalid rate value")),
			http.StatusUnprocessableEntity,
			`{"error":{"code":"validation_error","message":"Saving rate error: Invalid rate value","status_code":422}}`,
		},
		{
			"conflict",
			Conflict("Tab already exists"),
			http.StatusConflict,
			`{"error":{"code":"conflict","message":"Tab already exists","status_code":409}}`,
		},
		{
			"payload too large",
			PayloadTooLarge(1024),
			http.StatusRequestEntityTooLarge,
			`{"error":{"code":"payload_too_large","message":"Request body must not exceed 1024 bytes.","status_code":413}}`,
		},
		{
			"echo error",
			echo.ErrMethodNotAllowed,
			http.StatusMethodNotAllowed,
			`{"error":{"code":"method_not_allowed","message":"Method Not Allowed","status_code":405}}`,
		},
		{
			"unknown error",
			errors.New("disk on fire"),
			http.StatusInternalServerError,
			`{"error":{"code":"internal_server_error","message":"Internal Server Error","status_code":500}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := handle(tt.err)
			assert.Equal(t, tt.status, rr.Code)
			assert.JSONEq(t, tt.body, rr.Body.String())
		})
	}
}

func TestHandle_CancelledRequestWritesNothing(t *testing.T) {
	t.Parallel()

	rr := handle(errors.WithStack(context.Canceled))
	assert.Empty(t, rr.Body.String())
}

func TestErrorsMatchByValue(t *testing.T) {
	t.Parallel()

	err := errors.Wrap(NotFound("Chapter"), "retrieve")
	assert.ErrorIs(t, err, NotFound("Chapter"))
	assert.NotErrorIs(t, err, NotFound("Book"))
}
