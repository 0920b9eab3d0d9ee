package tabs

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/eglinebooks/egline/pkg/errcodes"
	"github.com/eglinebooks/egline/pkg/models"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

type handler struct {
	tabService *Service
}

type tabsResponse struct {
	UserID     int               `json:"user_id"`
	SavedBooks models.SavedBooks `json:"saved_books"`
}

func tabParams(c echo.Context) (int, string, error) {
	userID, err := strconv.Atoi(c.Param("user_id"))
	if err != nil {
		return 0, "", errcodes.NotFound("User")
	}
	// Echo matches routes against RawPath when the request has one, and
	// params are left escaped in that case only.
	tab := c.Param("tab_name")
	if c.Request().URL.RawPath != "" {
		tab, err = url.PathUnescape(tab)
		if err != nil {
			return 0, "", errcodes.ValidationError("Tab name is not properly escaped")
		}
	}
	return userID, tab, nil
}

func (h *handler) list(c echo.Context) error {
	ctx := c.Request().Context()
	userID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("User")
	}

	doc, err := h.tabService.Tabs(ctx, userID)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, tabsResponse{userID, doc}))
}

func (h *handler) createTab(c echo.Context) error {
	ctx := c.Request().Context()
	userID, tab, err := tabParams(c)
	if err != nil {
		return err
	}

	doc, err := h.tabService.CreateTab(ctx, userID, tab)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusCreated, tabsResponse{userID, doc}))
}

func (h *handler) deleteTab(c echo.Context) error {
	ctx := c.Request().Context()
	userID, tab, err := tabParams(c)
	if err != nil {
		return err
	}

	doc, err := h.tabService.DeleteTab(ctx, userID, tab)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, tabsResponse{userID, doc}))
}

func (h *handler) saveBook(c echo.Context) error {
	ctx := c.Request().Context()

	params := SaveBookPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	doc, err := h.tabService.AddBook(ctx, params.UserID, params.BookID, params.TabName)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, tabsResponse{params.UserID, doc}))
}

func (h *handler) deleteBook(c echo.Context) error {
	ctx := c.Request().Context()

	params := SaveBookPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	doc, err := h.tabService.RemoveBook(ctx, params.UserID, params.BookID, params.TabName)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, tabsResponse{params.UserID, doc}))
}
