package comments

import (
	"net/http"
	"strconv"

	"github.com/eglinebooks/egline/pkg/errcodes"
	"github.com/eglinebooks/egline/pkg/models"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

type handler struct {
	commentService *Service
}

func (h *handler) list(c echo.Context) error {
	ctx := c.Request().Context()

	params := ListCommentsQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	comments, err := h.commentService.ListComments(ctx, ListCommentsOptions{
		BookID:    params.BookID,
		ChapterID: params.ChapterID,
		UserID:    params.UserID,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, comments))
}

func (h *handler) retrieve(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Comment")
	}

	comment, err := h.commentService.RetrieveComment(ctx, RetrieveCommentOptions{ID: &id})
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, comment))
}

func (h *handler) create(c echo.Context) error {
	ctx := c.Request().Context()

	params := CommentPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	comment := &models.Comment{
		BookID:    params.BookID,
		UserID:    params.UserID,
		ChapterID: params.ChapterID,
		Text:      params.Text,
	}
	if err := h.commentService.CreateComment(ctx, comment); err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusCreated, comment))
}

func (h *handler) update(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Comment")
	}

	params := CommentPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	comment := &models.Comment{
		ID:        id,
		BookID:    params.BookID,
		UserID:    params.UserID,
		ChapterID: params.ChapterID,
		Text:      params.Text,
	}
	if err := h.commentService.UpdateComment(ctx, comment); err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, comment))
}

func (h *handler) delete(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Comment")
	}

	deleted, err := h.commentService.DeleteComment(ctx, id)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, map[string]int{"deleted": deleted}))
}
