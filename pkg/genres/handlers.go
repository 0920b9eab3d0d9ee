package genres

import (
	"net/http"
	"strconv"

	"github.com/eglinebooks/egline/pkg/errcodes"
	"github.com/eglinebooks/egline/pkg/models"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

type handler struct {
	genreService *Service
}

type genreResponse struct {
	*models.Genre
	BookCount int `json:"book_count"`
}

func (h *handler) respond(c echo.Context, status int, genre *models.Genre) error {
	bookCount, err := h.genreService.GetBookCount(c.Request().Context(), genre.ID)
	if err != nil {
		return errors.WithStack(err)
	}
	return errors.WithStack(c.JSON(status, genreResponse{genre, bookCount}))
}

func (h *handler) list(c echo.Context) error {
	ctx := c.Request().Context()

	genres, err := h.genreService.ListGenres(ctx)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, genres))
}

func (h *handler) retrieve(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Genre")
	}

	genre, err := h.genreService.RetrieveGenre(ctx, RetrieveGenreOptions{
		ID: &id,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return h.respond(c, http.StatusOK, genre)
}

func (h *handler) create(c echo.Context) error {
	ctx := c.Request().Context()

	params := GenrePayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	genre := &models.Genre{Title: params.Title}
	if err := h.genreService.CreateGenre(ctx, genre); err != nil {
		return errors.WithStack(err)
	}

	return h.respond(c, http.StatusCreated, genre)
}

func (h *handler) update(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Genre")
	}

	params := GenrePayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	genre := &models.Genre{ID: id, Title: params.Title}
	err = h.genreService.UpdateGenre(ctx, genre, UpdateGenreOptions{Columns: []string{"title"}})
	if err != nil {
		return errors.WithStack(err)
	}

	genre, err = h.genreService.RetrieveGenre(ctx, RetrieveGenreOptions{ID: &id})
	if err != nil {
		return errors.WithStack(err)
	}

	return h.respond(c, http.StatusOK, genre)
}

func (h *handler) delete(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Genre")
	}

	deleted, err := h.genreService.DeleteGenre(ctx, id)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, map[string]int{"deleted": deleted}))
}
