package chapters

import (
	"net/http"
	"strconv"

	"github.com/eglinebooks/egline/pkg/blobstore"
	"github.com/eglinebooks/egline/pkg/errcodes"
	"github.com/eglinebooks/egline/pkg/models"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

type handler struct {
	chapterService *Service
	blobs          blobstore.Store
}

// blobKind picks one of a chapter's blobs.
type blobKind struct {
	resource string
	key      func(*models.Chapter) string
}

var (
	textBlob  = blobKind{"Chapter text", (*models.Chapter).TextKey}
	audioBlob = blobKind{"Chapter audio", (*models.Chapter).AudioKey}
)

func (h *handler) chapterFromParam(c echo.Context) (*models.Chapter, error) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return nil, errcodes.NotFound("Chapter")
	}
	return h.chapterService.RetrieveChapter(c.Request().Context(), RetrieveChapterOptions{ID: &id})
}

func (h *handler) list(c echo.Context) error {
	ctx := c.Request().Context()

	params := ListChaptersQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	chapters, err := h.chapterService.ListChapters(ctx, ListChaptersOptions{
		BookID: params.BookID,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, chapters))
}

func (h *handler) retrieve(c echo.Context) error {
	chapter, err := h.chapterFromParam(c)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, chapter))
}

func (h *handler) create(c echo.Context) error {
	ctx := c.Request().Context()

	params := ChapterPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	chapter := &models.Chapter{
		BookID: params.BookID,
		Title:  params.Title,
		Number: params.Number,
		Date:   params.Date,
	}
	if err := h.chapterService.CreateChapter(ctx, chapter); err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusCreated, chapter))
}

func (h *handler) update(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Chapter")
	}

	params := ChapterPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	chapter := &models.Chapter{
		ID:     id,
		BookID: params.BookID,
		Title:  params.Title,
		Number: params.Number,
		Date:   params.Date,
	}
	if err := h.chapterService.UpdateChapter(ctx, chapter); err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, chapter))
}

func (h *handler) delete(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Chapter")
	}

	deleted, err := h.chapterService.DeleteChapter(ctx, id)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, map[string]int{"deleted": deleted}))
}

func (h *handler) serveBlob(kind blobKind) echo.HandlerFunc {
	return func(c echo.Context) error {
		chapter, err := h.chapterFromParam(c)
		if err != nil {
			return errors.WithStack(err)
		}
		return blobstore.Serve(c, h.blobs, kind.key(chapter), kind.resource)
	}
}

func (h *handler) uploadBlob(kind blobKind) echo.HandlerFunc {
	return func(c echo.Context) error {
		chapter, err := h.chapterFromParam(c)
		if err != nil {
			return errors.WithStack(err)
		}

		info, err := blobstore.Upload(c, h.blobs, kind.key(chapter))
		if err != nil {
			return errors.WithStack(err)
		}

		return errors.WithStack(c.JSON(http.StatusOK, map[string]any{
			"chapter_id":   chapter.ID,
			"size":         info.Size,
			"content_type": info.ContentType,
		}))
	}
}
