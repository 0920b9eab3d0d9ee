package tabs

import (
	"context"
	"database/sql"
	"time"

	"github.com/eglinebooks/egline/pkg/binder"
	"github.com/eglinebooks/egline/pkg/database"
	"github.com/eglinebooks/egline/pkg/errcodes"
	"github.com/eglinebooks/egline/pkg/models"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/uptrace/bun"
)

// maxAttempts bounds how often a mutation re-reads the document after losing
// a race with a concurrent writer.
const maxAttempts = 5

type Service struct {
	db *bun.DB

	// afterRead runs between reading and writing the document. Tests use it
	// to slip in a concurrent write.
	afterRead func(ctx context.Context, attempt int)
}

func NewService(db *bun.DB) *Service {
	return &Service{db: db}
}

// Tabs returns the user's saved books document.
func (svc *Service) Tabs(ctx context.Context, userID int) (models.SavedBooks, error) {
	user, err := svc.retrieveUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return user.SavedBooks, nil
}

// CreateTab adds an empty tab. The tab must not exist yet.
func (svc *Service) CreateTab(ctx context.Context, userID int, tab string) (models.SavedBooks, error) {
	if err := validateTab(tab); err != nil {
		return nil, err
	}
	return svc.mutate(ctx, userID, func(doc models.SavedBooks) (bool, error) {
		if err := doc.CreateTab(tab); err != nil {
			return false, errcodes.Conflict("Tab already exists")
		}
		return true, nil
	})
}

// DeleteTab removes a tab and the books saved under it.
func (svc *Service) DeleteTab(ctx context.Context, userID int, tab string) (models.SavedBooks, error) {
	return svc.mutate(ctx, userID, func(doc models.SavedBooks) (bool, error) {
		if err := doc.DeleteTab(tab); err != nil {
			return false, errcodes.NotFound("Tab")
		}
		return true, nil
	})
}

// AddBook saves a book under tab, creating the tab when it does not exist.
// Saving a book that is already in the tab changes nothing.
func (svc *Service) AddBook(ctx context.Context, userID, bookID int, tab string) (models.SavedBooks, error) {
	if err := validateTab(tab); err != nil {
		return nil, err
	}
	if err := svc.ensureBook(ctx, bookID); err != nil {
		return nil, err
	}
	return svc.mutate(ctx, userID, func(doc models.SavedBooks) (bool, error) {
		return doc.AddBook(tab, bookID), nil
	})
}

// RemoveBook drops a book from an existing tab. Missing tabs are not created.
func (svc *Service) RemoveBook(ctx context.Context, userID, bookID int, tab string) (models.SavedBooks, error) {
	if err := svc.ensureBook(ctx, bookID); err != nil {
		return nil, err
	}
	return svc.mutate(ctx, userID, func(doc models.SavedBooks) (bool, error) {
		changed, err := doc.RemoveBook(tab, bookID)
		if err != nil {
			return false, errcodes.NotFound("Tab")
		}
		return changed, nil
	})
}

// mutate applies fn to a fresh copy of the document and writes it back only
// if nobody else wrote it in between. A lost race is retried on a fresh read.
func (svc *Service) mutate(ctx context.Context, userID int, fn func(doc models.SavedBooks) (bool, error)) (models.SavedBooks, error) {
	log := logger.FromContext(ctx)

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		user, err := svc.retrieveUser(ctx, userID)
		if err != nil {
			return nil, err
		}

		doc := user.SavedBooks.Clone()
		changed, err := fn(doc)
		if err != nil {
			return nil, err
		}
		if !changed {
			return doc, nil
		}

		if svc.afterRead != nil {
			svc.afterRead(ctx, attempt)
		}

		res, err := svc.db.NewUpdate().
			Model((*models.User)(nil)).
			Set("saved_books = ?", doc).
			Set("saved_books_version = saved_books_version + 1").
			Set("updated_at = ?", time.Now()).
			Where("id = ?", userID).
			Where("saved_books_version = ?", user.SavedBooksVersion).
			Exec(ctx)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		if n, _ := res.RowsAffected(); n == 1 {
			return doc, nil
		}

		log.Warn("saved books changed concurrently, retrying", logger.Data{
			"user_id": userID,
			"attempt": attempt,
		})
	}

	return nil, errcodes.Conflict("Saved books were changed concurrently, try again")
}

func (svc *Service) retrieveUser(ctx context.Context, userID int) (*models.User, error) {
	user := &models.User{}
	err := svc.db.NewSelect().
		Model(user).
		Column("id", "saved_books", "saved_books_version").
		Where("u.id = ?", userID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("User")
		}
		return nil, errors.WithStack(err)
	}
	if user.SavedBooks == nil {
		user.SavedBooks = models.SavedBooks{}
	}
	return user, nil
}

func (svc *Service) ensureBook(ctx context.Context, bookID int) error {
	ok, err := database.Exists(ctx, svc.db, (*models.Book)(nil), bookID)
	if err != nil {
		return err
	}
	if !ok {
		return errcodes.NotFound("Book")
	}
	return nil
}

func validateTab(tab string) error {
	if !binder.ValidTabName(tab) {
		return errcodes.ValidationError("Tab name must be 1-100 characters without quotes, backslashes or control characters")
	}
	return nil
}
