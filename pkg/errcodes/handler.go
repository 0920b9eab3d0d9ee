package errcodes

import (
	"context"
	"fmt"
	"net/http"

	"github.com/iancoleman/strcase"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/echo/v4/middleware/logger"
	"github.com/robinjoseph08/golib/errutils"
)

type errorBody struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"status_code"`
}

type errorPayload struct {
	Error errorBody `json:"error"`
}

type Handler struct{}

func NewHandler() *Handler {
	return &Handler{}
}

// Handle is an Echo error handler. Errors from this package and echo's own
// HTTP errors keep their status; anything else is logged and reported as an
// internal server error.
func (h *Handler) Handle(err error, c echo.Context) {
	log := logger.FromEchoContext(c)

	if errutils.IsIgnorableErr(err) {
		log.Err(err).Warn("broken pipe")
		return
	}
	if errors.Is(err, context.Canceled) {
		log.Info("request cancelled by client")
		return
	}
	if c.Response().Committed {
		log.Err(err).Error("error after response was committed")
		return
	}

	body := describe(err)
	if body.StatusCode == http.StatusInternalServerError {
		log.Err(err).Error("server error")
	}

	if err := c.JSON(body.StatusCode, errorPayload{body}); err != nil {
		log.Err(errors.WithStack(err)).Error("error handler json error")
	}
}

// describe maps err to the body sent to clients.
func describe(err error) errorBody {
	var e *Error
	if errors.As(err, &e) {
		return errorBody{e.Code, e.Message, e.HTTPCode}
	}

	var he *echo.HTTPError
	if errors.As(err, &he) && he.Code != http.StatusInternalServerError {
		msg, ok := he.Message.(string)
		if !ok {
			msg = fmt.Sprint(he.Message)
		}
		return errorBody{strcase.ToSnake(msg), msg, he.Code}
	}

	return errorBody{"internal_server_error", "Internal Server Error", http.StatusInternalServerError}
}
