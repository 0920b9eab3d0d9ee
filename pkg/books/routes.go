package books

import (
	"github.com/eglinebooks/egline/pkg/blobstore"
	"github.com/labstack/echo/v4"
	"github.com/uptrace/bun"
)

// RegisterRoutesWithGroup registers book routes on the /book group.
func RegisterRoutesWithGroup(g *echo.Group, db *bun.DB, blobs blobstore.Store) {
	h := newHandler(db, blobs)

	g.GET("", h.list)
	g.GET("/:id", h.retrieve)
	g.POST("", h.create)
	g.PUT("/:id", h.update)
	g.DELETE("/:id", h.delete)

	g.GET("/:id/cover", h.cover)
	g.PUT("/:id/cover", h.uploadCover)

	g.GET("/:id/genres", h.genres)
	g.POST("/genre", h.addGenre)
	g.DELETE("/genre/:book_id/:genre_id", h.removeGenre)
}

// RegisterBookGenreRoutesWithGroup registers the /book-genre junction routes.
func RegisterBookGenreRoutesWithGroup(g *echo.Group, db *bun.DB, blobs blobstore.Store) {
	h := newHandler(db, blobs)

	g.GET("", h.listBookGenres)
	g.POST("", h.addGenre)
	g.DELETE("/:book_id/:genre_id", h.removeGenre)
}

// RegisterBookAuthorRoutesWithGroup registers the /book-author junction routes.
func RegisterBookAuthorRoutesWithGroup(g *echo.Group, db *bun.DB, blobs blobstore.Store) {
	h := newHandler(db, blobs)

	g.GET("", h.listBookAuthors)
	g.POST("", h.addAuthor)
	g.DELETE("/:book_id/:author_id", h.removeAuthor)
}

func newHandler(db *bun.DB, blobs blobstore.Store) *handler {
	return &handler{
		bookService: NewService(db, blobs),
		blobs:       blobs,
	}
}
