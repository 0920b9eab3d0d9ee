package ratings

import (
	"github.com/labstack/echo/v4"
	"github.com/uptrace/bun"
)

// RegisterRoutesWithGroup registers the rate routes on the API root group.
// Book rates are reachable both as /book-rate and nested under /book/rate.
func RegisterRoutesWithGroup(g *echo.Group, db *bun.DB) {
	h := &handler{
		ratingService: NewService(db),
	}

	g.GET("/book-rate", h.listBookRates)
	g.GET("/book-rate/:book_id/:user_id", h.retrieveBookRate)
	g.POST("/book-rate", h.submitBookRate)
	g.PUT("/book-rate", h.updateBookRate)
	g.DELETE("/book-rate/:book_id/:user_id", h.removeBookRate)

	g.POST("/book/rate", h.submitBookRate)
	g.PUT("/book/rate", h.updateBookRate)
	g.DELETE("/book/rate/:book_id/:user_id", h.removeBookRate)

	g.GET("/comment-rate", h.listCommentRates)
	g.GET("/comment-rate/:comment_id/:user_id", h.retrieveCommentRate)
	g.POST("/comment-rate", h.submitCommentRate)
	g.PUT("/comment-rate", h.updateCommentRate)
	g.DELETE("/comment-rate/:comment_id/:user_id", h.removeCommentRate)
}
