package users

import (
	"github.com/eglinebooks/egline/pkg/ratelimit"
	"github.com/labstack/echo/v4"
	"github.com/uptrace/bun"
)

// RegisterRoutesWithGroup registers user routes on a pre-configured group.
// Login attempts go through loginLimiter.
func RegisterRoutesWithGroup(g *echo.Group, db *bun.DB, loginLimiter *ratelimit.Limiter) {
	h := &handler{
		userService: NewService(db),
	}

	g.GET("", h.list)
	g.GET("/:id", h.retrieve)
	g.POST("", h.create)
	g.PUT("/:id", h.update)
	g.DELETE("/:id", h.delete)

	g.POST("/login", h.login, loginLimiter.Middleware())
	g.POST("/edit/:id", h.edit)
}
