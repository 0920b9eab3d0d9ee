package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/eglinebooks/egline/pkg/authors"
	"github.com/eglinebooks/egline/pkg/binder"
	"github.com/eglinebooks/egline/pkg/blobstore"
	"github.com/eglinebooks/egline/pkg/books"
	"github.com/eglinebooks/egline/pkg/chapters"
	"github.com/eglinebooks/egline/pkg/comments"
	"github.com/eglinebooks/egline/pkg/config"
	"github.com/eglinebooks/egline/pkg/errcodes"
	"github.com/eglinebooks/egline/pkg/genres"
	"github.com/eglinebooks/egline/pkg/ratelimit"
	"github.com/eglinebooks/egline/pkg/ratings"
	"github.com/eglinebooks/egline/pkg/tabs"
	"github.com/eglinebooks/egline/pkg/users"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/echo/v4/health"
	"github.com/robinjoseph08/golib/echo/v4/middleware/logger"
	"github.com/robinjoseph08/golib/echo/v4/middleware/recovery"
	"github.com/uptrace/bun"
)

const apiPrefix = "/api/v1"

// New builds the API server. Shut it down with Shutdown rather than Close so
// the login limiter stops too.
func New(cfg *config.Config, db *bun.DB) (*http.Server, error) {
	srv, _, err := newServer(cfg, db)
	return srv, err
}

func newServer(cfg *config.Config, db *bun.DB) (*http.Server, *ratelimit.Limiter, error) {
	e := echo.New()

	b, err := binder.New()
	if err != nil {
		return nil, nil, errors.WithStack(err)
	}
	e.Binder = b

	blobs, err := blobstore.NewFS(cfg.StorageDir)
	if err != nil {
		return nil, nil, errors.WithStack(err)
	}

	e.Use(logger.Middleware())
	e.Use(recovery.Middleware())
	e.Use(middleware.CORS())

	health.RegisterRoutes(e)

	loginLimiter := ratelimit.New(cfg.LoginRateLimit, cfg.LoginRateBurst)
	registerRoutes(e.Group(apiPrefix), db, blobs, loginLimiter)

	echo.NotFoundHandler = notFoundHandler
	e.HTTPErrorHandler = errcodes.NewHandler().Handle

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.ServerHost, cfg.ServerPort),
		Handler:           e,
		ReadHeaderTimeout: 3 * time.Second,
	}
	srv.RegisterOnShutdown(loginLimiter.Stop)

	return srv, loginLimiter, nil
}

func registerRoutes(api *echo.Group, db *bun.DB, blobs blobstore.Store, loginLimiter *ratelimit.Limiter) {
	books.RegisterRoutesWithGroup(api.Group("/book"), db, blobs)
	books.RegisterBookGenreRoutesWithGroup(api.Group("/book-genre"), db, blobs)
	books.RegisterBookAuthorRoutesWithGroup(api.Group("/book-author"), db, blobs)

	genres.RegisterRoutesWithGroup(api.Group("/genre"), db)
	authors.RegisterRoutesWithGroup(api.Group("/author"), db)
	chapters.RegisterRoutesWithGroup(api.Group("/chapter"), db, blobs)
	comments.RegisterRoutesWithGroup(api.Group("/comment"), db)

	// Users and their saved-books tabs share the /user prefix.
	usersGroup := api.Group("/user")
	users.RegisterRoutesWithGroup(usersGroup, db, loginLimiter)
	tabs.RegisterRoutesWithGroup(usersGroup, db)

	// Ratings span several prefixes (/book-rate, /book/rate, /comment-rate).
	ratings.RegisterRoutesWithGroup(api, db)
}

func notFoundHandler(c echo.Context) error {
	c.SetPath("/:path")
	return errcodes.NotFound("Page")
}
