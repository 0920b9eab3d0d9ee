package books

import (
	"net/http"
	"strconv"

	"github.com/eglinebooks/egline/pkg/blobstore"
	"github.com/eglinebooks/egline/pkg/errcodes"
	"github.com/eglinebooks/egline/pkg/models"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
)

type handler struct {
	bookService *Service
	blobs       blobstore.Store
}

func (h *handler) list(c echo.Context) error {
	ctx := c.Request().Context()

	params := ListBooksQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	books, err := h.bookService.ListBooks(ctx, ListBooksOptions{
		Limit:    params.Limit,
		Offset:   params.Offset,
		GenreID:  params.GenreID,
		AuthorID: params.AuthorID,
		Status:   params.Status,
		Search:   params.Search,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	views, err := h.bookService.Views(ctx, books)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, views))
}

func (h *handler) retrieve(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Book")
	}

	book, err := h.bookService.RetrieveBook(ctx, RetrieveBookOptions{
		ID: &id,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	if err := h.bookService.IncrementViews(ctx, id); err != nil {
		logger.FromContext(ctx).Err(err).Warn("failed to count book view", logger.Data{"book_id": id})
	} else {
		book.Views++
	}

	view, err := h.bookService.View(ctx, book)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, view))
}

func (h *handler) create(c echo.Context) error {
	ctx := c.Request().Context()

	params := BookPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	book := &models.Book{
		Title:       params.Title,
		Description: params.Description,
		Year:        params.Year,
		Status:      params.Status,
	}
	if err := h.bookService.CreateBook(ctx, book); err != nil {
		return errors.WithStack(err)
	}

	view, err := h.bookService.View(ctx, book)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusCreated, view))
}

func (h *handler) update(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Book")
	}

	params := BookPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	book := &models.Book{
		ID:          id,
		Title:       params.Title,
		Description: params.Description,
		Year:        params.Year,
		Status:      params.Status,
	}
	err = h.bookService.UpdateBook(ctx, book, UpdateBookOptions{
		Columns: []string{"title", "description", "year", "status"},
	})
	if err != nil {
		return errors.WithStack(err)
	}

	// Reload so derived columns are current.
	book, err = h.bookService.RetrieveBook(ctx, RetrieveBookOptions{ID: &id})
	if err != nil {
		return errors.WithStack(err)
	}

	view, err := h.bookService.View(ctx, book)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, view))
}

func (h *handler) delete(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Book")
	}

	deleted, err := h.bookService.DeleteBook(ctx, id)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, map[string]int{"deleted": deleted}))
}

func (h *handler) cover(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Book cover")
	}
	return blobstore.Serve(c, h.blobs, models.BookCoverKey(id), "Book cover")
}

func (h *handler) uploadCover(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Book")
	}

	body, err := blobstore.RequestBody(c)
	if err != nil {
		return err
	}
	defer body.Close()

	info, err := h.bookService.PutCover(ctx, id, body)
	if err != nil {
		return blobstore.UploadError(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, map[string]any{
		"book_id":      id,
		"size":         info.Size,
		"content_type": info.ContentType,
	}))
}

func (h *handler) genres(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Book")
	}

	genres, err := h.bookService.Genres(ctx, id)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, genres))
}

func (h *handler) listBookGenres(c echo.Context) error {
	ctx := c.Request().Context()

	params := ListBookGenresQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	rows, err := h.bookService.ListBookGenres(ctx, ListBookGenresOptions{
		BookID:  params.BookID,
		GenreID: params.GenreID,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, rows))
}

func (h *handler) addGenre(c echo.Context) error {
	ctx := c.Request().Context()

	params := BookGenrePayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	row := &models.BookGenre{BookID: params.BookID, GenreID: params.GenreID}
	if err := h.bookService.AddGenre(ctx, row); err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusCreated, row))
}

func (h *handler) removeGenre(c echo.Context) error {
	ctx := c.Request().Context()
	bookID, err := strconv.Atoi(c.Param("book_id"))
	if err != nil {
		return errcodes.NotFound("Book genre")
	}
	genreID, err := strconv.Atoi(c.Param("genre_id"))
	if err != nil {
		return errcodes.NotFound("Book genre")
	}

	deleted, err := h.bookService.RemoveGenre(ctx, bookID, genreID)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, map[string]int{"deleted": deleted}))
}

func (h *handler) listBookAuthors(c echo.Context) error {
	ctx := c.Request().Context()

	params := ListBookAuthorsQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	rows, err := h.bookService.ListBookAuthors(ctx, ListBookAuthorsOptions{
		BookID:   params.BookID,
		AuthorID: params.AuthorID,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, rows))
}

func (h *handler) addAuthor(c echo.Context) error {
	ctx := c.Request().Context()

	params := BookAuthorPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	row := &models.BookAuthor{BookID: params.BookID, AuthorID: params.AuthorID}
	if err := h.bookService.AddAuthor(ctx, row); err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusCreated, row))
}

func (h *handler) removeAuthor(c echo.Context) error {
	ctx := c.Request().Context()
	bookID, err := strconv.Atoi(c.Param("book_id"))
	if err != nil {
		return errcodes.NotFound("Book author")
	}
	authorID, err := strconv.Atoi(c.Param("author_id"))
	if err != nil {
		return errcodes.NotFound("Book author")
	}

	deleted, err := h.bookService.RemoveAuthor(ctx, bookID, authorID)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, map[string]int{"deleted": deleted}))
}
