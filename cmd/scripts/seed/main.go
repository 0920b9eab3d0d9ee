package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/eglinebooks/egline/pkg/authors"
	"github.com/eglinebooks/egline/pkg/blobstore"
	"github.com/eglinebooks/egline/pkg/books"
	"github.com/eglinebooks/egline/pkg/chapters"
	"github.com/eglinebooks/egline/pkg/config"
	"github.com/eglinebooks/egline/pkg/database"
	"github.com/eglinebooks/egline/pkg/genres"
	"github.com/eglinebooks/egline/pkg/migrations"
	"github.com/eglinebooks/egline/pkg/models"
	"github.com/eglinebooks/egline/pkg/ratings"
	"github.com/eglinebooks/egline/pkg/tabs"
	"github.com/eglinebooks/egline/pkg/users"
	"github.com/eglinebooks/egline/pkg/worker"
	"github.com/jessevdk/go-flags"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/uptrace/bun"
)

type options struct {
	Users     int    `short:"u" long:"users" default:"3" description:"Number of demo users to create"`
	Chapters  int    `short:"c" long:"chapters" default:"3" description:"Number of chapters per book"`
	Password  string `short:"p" long:"password" default:"password123" description:"Password for every demo user"`
	Reconcile bool   `short:"r" long:"reconcile" description:"Run one rating reconciliation pass after seeding"`
}

type seedBook struct {
	title  string
	year   int
	genre  string
	author [2]string
}

var catalog = []seedBook{
	{"The Left Hand of Darkness", 1969, "science fiction", [2]string{"Ursula", "Le Guin"}},
	{"A Wizard of Earthsea", 1968, "FANTASY", [2]string{"Ursula", "Le Guin"}},
	{"Kindred", 1979, "Science Fiction", [2]string{"Octavia", "Butler"}},
}

func main() {
	ctx := context.Background()
	log := logger.New()

	var opts options
	if _, err := flags.Parse(&opts); err != nil {
		if flags.WroteHelp(err) {
			os.Exit(0)
		}
		log.Err(err).Fatal("flags parse error")
	}
	if opts.Users < 2 {
		fmt.Println("go run ./cmd/scripts/seed --users <n>: at least two users are needed for the rating demo")
		os.Exit(1)
	}

	cfg, err := config.New()
	if err != nil {
		log.Err(err).Fatal("config error")
	}

	db, err := database.New(cfg)
	if err != nil {
		log.Err(err).Fatal("database error")
	}
	defer db.Close()

	if _, err := migrations.BringUpToDate(ctx, db); err != nil {
		log.Err(err).Fatal("migrations error")
	}

	blobs, err := blobstore.NewFS(cfg.StorageDir)
	if err != nil {
		log.Err(err).Fatal("storage error")
	}

	if err := seed(ctx, log, db, blobs, opts); err != nil {
		log.Err(err).Fatal("seed error")
	}

	if opts.Reconcile {
		result, err := worker.New(cfg, db).RunReconcile(ctx)
		if err != nil {
			log.Err(err).Fatal("reconcile error")
		}
		log.Info("reconciled", logger.Data{"books": result.Books, "comments": result.Comments})
	}
}

func seed(ctx context.Context, log logger.Logger, db *bun.DB, blobs blobstore.Store, opts options) error {
	bookService := books.NewService(db, blobs)
	genreService := genres.NewService(db)
	authorService := authors.NewService(db)
	chapterService := chapters.NewService(db, blobs)
	userService := users.NewService(db)
	ratingService := ratings.NewService(db)
	tabService := tabs.NewService(db)

	readers := make([]*models.User, 0, opts.Users)
	for i := 1; i <= opts.Users; i++ {
		user, err := userService.Create(ctx, users.CreateUserOptions{
			DisplayName: fmt.Sprintf("Reader %d", i),
			Email:       fmt.Sprintf("reader%d@example.com", i),
			Password:    opts.Password,
		})
		if err != nil {
			return err
		}
		readers = append(readers, user)
	}

	genreIDs := map[string]int{}
	authorIDs := map[[2]string]int{}
	seeded := make([]*models.Book, 0, len(catalog))
	for _, entry := range catalog {
		book := &models.Book{Title: entry.title, Year: entry.year, Status: "completed"}
		if err := bookService.CreateBook(ctx, book); err != nil {
			return err
		}
		seeded = append(seeded, book)

		genreID, err := ensureGenre(ctx, genreService, genreIDs, entry.genre)
		if err != nil {
			return err
		}
		if err := bookService.AddGenre(ctx, &models.BookGenre{BookID: book.ID, GenreID: genreID}); err != nil {
			return err
		}

		authorID, ok := authorIDs[entry.author]
		if !ok {
			author := &models.Author{FirstName: entry.author[0], LastName: entry.author[1]}
			if err := authorService.CreateAuthor(ctx, author); err != nil {
				return err
			}
			authorID = author.ID
			authorIDs[entry.author] = authorID
		}
		if err := bookService.AddAuthor(ctx, &models.BookAuthor{BookID: book.ID, AuthorID: authorID}); err != nil {
			return err
		}

		for n := 1; n <= opts.Chapters; n++ {
			chapter := &models.Chapter{BookID: book.ID, Title: fmt.Sprintf("Chapter %d", n), Number: n}
			if err := chapterService.CreateChapter(ctx, chapter); err != nil {
				return err
			}
			text := fmt.Sprintf("%s\n\nChapter %d\n", entry.title, n)
			if _, err := blobs.Put(ctx, chapter.TextKey(), strings.NewReader(text)); err != nil {
				return errors.WithStack(err)
			}
		}
	}

	if err := ratingScenario(ctx, log, ratingService, bookService, seeded[0], readers[0], readers[1]); err != nil {
		return err
	}

	for _, reader := range readers {
		if _, err := tabService.AddBook(ctx, reader.ID, seeded[len(seeded)-1].ID, "Reading"); err != nil {
			return err
		}
	}

	log.Info("seeded", logger.Data{
		"users":   len(readers),
		"books":   len(seeded),
		"genres":  len(genreIDs),
		"authors": len(authorIDs),
	})
	return nil
}

// ensureGenre reuses a genre whose title only differs by case.
func ensureGenre(ctx context.Context, svc *genres.Service, ids map[string]int, title string) (int, error) {
	title = models.CapitalizeTitle(title)
	if id, ok := ids[title]; ok {
		return id, nil
	}
	genre := &models.Genre{Title: title}
	if err := svc.CreateGenre(ctx, genre); err != nil {
		return 0, err
	}
	ids[title] = genre.ID
	return genre.ID, nil
}

// ratingScenario walks a book through 0 -> 4 -> 3 -> 2 as two readers rate it
// and the first one withdraws.
func ratingScenario(ctx context.Context, log logger.Logger, svc *ratings.Service, bookService *books.Service, book *models.Book, a, b *models.User) error {
	steps := []struct {
		name string
		run  func() (float64, error)
	}{
		{"first reader rates 4", func() (float64, error) {
			return svc.SubmitBookRate(ctx, &models.BookRate{BookID: book.ID, UserID: a.ID, Rate: 4})
		}},
		{"second reader rates 2", func() (float64, error) {
			return svc.SubmitBookRate(ctx, &models.BookRate{BookID: book.ID, UserID: b.ID, Rate: 2})
		}},
		{"first reader withdraws", func() (float64, error) {
			if _, err := svc.RemoveBookRate(ctx, book.ID, a.ID); err != nil {
				return 0, err
			}
			stored, err := bookService.RetrieveBook(ctx, books.RetrieveBookOptions{ID: &book.ID})
			if err != nil {
				return 0, err
			}
			return stored.Rating, nil
		}},
	}

	for _, step := range steps {
		rating, err := step.run()
		if err != nil {
			return errors.Wrap(err, step.name)
		}
		log.Info("rating scenario", logger.Data{"book_id": book.ID, "step": step.name, "rating": rating})
	}
	return nil
}
