package ratings

import (
	"net/http"
	"strconv"

	"github.com/eglinebooks/egline/pkg/errcodes"
	"github.com/eglinebooks/egline/pkg/models"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

type handler struct {
	ratingService *Service
}

type bookRateResponse struct {
	*models.BookRate
	BookRating      float64 `json:"book_rating"`
	BookRatingCount int     `json:"book_rating_count"`
}

type commentRateResponse struct {
	*models.CommentRate
	Comment *models.Comment `json:"comment"`
}

// pairParams parses two integer path params, answering 404 on garbage the
// same way a missing row would.
func pairParams(c echo.Context, first, second, resource string) (int, int, error) {
	a, err := strconv.Atoi(c.Param(first))
	if err != nil {
		return 0, 0, errcodes.NotFound(resource)
	}
	b, err := strconv.Atoi(c.Param(second))
	if err != nil {
		return 0, 0, errcodes.NotFound(resource)
	}
	return a, b, nil
}

func (h *handler) respondBookRate(c echo.Context, status int, rate *models.BookRate, rating float64) error {
	count, err := h.ratingService.RatingCount(c.Request().Context(), rate.BookID)
	if err != nil {
		return errors.WithStack(err)
	}
	return errors.WithStack(c.JSON(status, bookRateResponse{rate, rating, count}))
}

func (h *handler) listBookRates(c echo.Context) error {
	ctx := c.Request().Context()

	params := ListBookRatesQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	rates, err := h.ratingService.ListBookRates(ctx, ListBookRatesOptions{
		BookID: params.BookID,
		UserID: params.UserID,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, rates))
}

func (h *handler) retrieveBookRate(c echo.Context) error {
	ctx := c.Request().Context()
	bookID, userID, err := pairParams(c, "book_id", "user_id", "Book rate")
	if err != nil {
		return err
	}

	rate, err := h.ratingService.RetrieveBookRate(ctx, RetrieveBookRateOptions{
		BookID: bookID,
		UserID: userID,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, rate))
}

func (h *handler) submitBookRate(c echo.Context) error {
	ctx := c.Request().Context()

	params := BookRatePayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	rate := &models.BookRate{
		BookID: params.BookID,
		UserID: params.UserID,
		Rate:   params.Rate,
	}
	rating, err := h.ratingService.SubmitBookRate(ctx, rate)
	if err != nil {
		return errors.WithStack(err)
	}

	return h.respondBookRate(c, http.StatusCreated, rate, rating)
}

func (h *handler) updateBookRate(c echo.Context) error {
	ctx := c.Request().Context()

	params := BookRatePayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	rate := &models.BookRate{
		BookID: params.BookID,
		UserID: params.UserID,
		Rate:   params.Rate,
	}
	rating, err := h.ratingService.UpdateBookRate(ctx, rate)
	if err != nil {
		return errors.WithStack(err)
	}

	// Reload to pick up created_at.
	rate, err = h.ratingService.RetrieveBookRate(ctx, RetrieveBookRateOptions{
		BookID: params.BookID,
		UserID: params.UserID,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return h.respondBookRate(c, http.StatusOK, rate, rating)
}

func (h *handler) removeBookRate(c echo.Context) error {
	ctx := c.Request().Context()
	bookID, userID, err := pairParams(c, "book_id", "user_id", "Book rate")
	if err != nil {
		return err
	}

	deleted, err := h.ratingService.RemoveBookRate(ctx, bookID, userID)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, map[string]int{"deleted": deleted}))
}

func (h *handler) listCommentRates(c echo.Context) error {
	ctx := c.Request().Context()

	params := ListCommentRatesQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	rates, err := h.ratingService.ListCommentRates(ctx, ListCommentRatesOptions{
		CommentID: params.CommentID,
		UserID:    params.UserID,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, rates))
}

func (h *handler) retrieveCommentRate(c echo.Context) error {
	ctx := c.Request().Context()
	commentID, userID, err := pairParams(c, "comment_id", "user_id", "Comment rate")
	if err != nil {
		return err
	}

	rate, err := h.ratingService.RetrieveCommentRate(ctx, commentID, userID)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, rate))
}

func (h *handler) submitCommentRate(c echo.Context) error {
	ctx := c.Request().Context()

	params := CommentRatePayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	rate := &models.CommentRate{
		CommentID: params.CommentID,
		UserID:    params.UserID,
		Rate:      params.Rate,
	}
	comment, err := h.ratingService.SubmitCommentRate(ctx, rate)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusCreated, commentRateResponse{rate, comment}))
}

func (h *handler) updateCommentRate(c echo.Context) error {
	ctx := c.Request().Context()

	params := CommentRatePayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	rate := &models.CommentRate{
		CommentID: params.CommentID,
		UserID:    params.UserID,
		Rate:      params.Rate,
	}
	comment, err := h.ratingService.UpdateCommentRate(ctx, rate)
	if err != nil {
		return errors.WithStack(err)
	}

	rate, err = h.ratingService.RetrieveCommentRate(ctx, params.CommentID, params.UserID)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, commentRateResponse{rate, comment}))
}

func (h *handler) removeCommentRate(c echo.Context) error {
	ctx := c.Request().Context()
	commentID, userID, err := pairParams(c, "comment_id", "user_id", "Comment rate")
	if err != nil {
		return err
	}

	deleted, err := h.ratingService.RemoveCommentRate(ctx, commentID, userID)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, map[string]int{"deleted": deleted}))
}
