package tabs

import (
	"github.com/labstack/echo/v4"
	"github.com/uptrace/bun"
)

// RegisterRoutesWithGroup registers the saved books routes on the /user group.
func RegisterRoutesWithGroup(g *echo.Group, db *bun.DB) {
	h := &handler{
		tabService: NewService(db),
	}

	g.GET("/:id/tabs", h.list)
	g.POST("/tab/:user_id/:tab_name", h.createTab)
	g.DELETE("/tab/:user_id/:tab_name", h.deleteTab)
	g.POST("/save-book", h.saveBook)
	g.DELETE("/delete-book", h.deleteBook)
}
