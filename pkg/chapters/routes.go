package chapters

import (
	"github.com/eglinebooks/egline/pkg/blobstore"
	"github.com/labstack/echo/v4"
	"github.com/uptrace/bun"
)

// RegisterRoutesWithGroup registers chapter routes on a pre-configured group.
func RegisterRoutesWithGroup(g *echo.Group, db *bun.DB, blobs blobstore.Store) {
	h := &handler{
		chapterService: NewService(db, blobs),
		blobs:          blobs,
	}

	g.GET("", h.list)
	g.GET("/:id", h.retrieve)
	g.POST("", h.create)
	g.PUT("/:id", h.update)
	g.DELETE("/:id", h.delete)

	g.GET("/:id/text", h.serveBlob(textBlob))
	g.PUT("/:id/text", h.uploadBlob(textBlob))
	g.GET("/:id/audio", h.serveBlob(audioBlob))
	g.PUT("/:id/audio", h.uploadBlob(audioBlob))
}
