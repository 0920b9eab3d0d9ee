package chapters

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/eglinebooks/egline/pkg/blobstore"
	"github.com/eglinebooks/egline/pkg/database"
	"github.com/eglinebooks/egline/pkg/errcodes"
	"github.com/eglinebooks/egline/pkg/models"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/uptrace/bun"
)

type RetrieveChapterOptions struct {
	ID *int
}

type ListChaptersOptions struct {
	BookID *int
}

type Service struct {
	db    *bun.DB
	blobs blobstore.Store
}

func NewService(db *bun.DB, blobs blobstore.Store) *Service {
	return &Service{db: db, blobs: blobs}
}

func duplicateNumber(bookID, number int) error {
	return errcodes.ValidationError(fmt.Sprintf("Book %d has chapter with number %d", bookID, number))
}

// checkNumber rejects a (book_id, number) pair already used by a chapter
// other than exceptID.
func checkNumber(ctx context.Context, tx bun.Tx, bookID, number, exceptID int) error {
	ok, err := database.Exists(ctx, tx, (*models.Book)(nil), bookID)
	if err != nil {
		return err
	}
	if !ok {
		return errcodes.NotFound("Book")
	}

	taken, err := tx.NewSelect().
		Model((*models.Chapter)(nil)).
		Where("book_id = ? AND number = ? AND id != ?", bookID, number, exceptID).
		Exists(ctx)
	if err != nil {
		return errors.WithStack(err)
	}
	if taken {
		return duplicateNumber(bookID, number)
	}
	return nil
}

func (svc *Service) CreateChapter(ctx context.Context, chapter *models.Chapter) error {
	now := time.Now()
	if chapter.CreatedAt.IsZero() {
		chapter.CreatedAt = now
	}
	chapter.UpdatedAt = chapter.CreatedAt

	return svc.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		if err := checkNumber(ctx, tx, chapter.BookID, chapter.Number, 0); err != nil {
			return err
		}

		_, err := tx.NewInsert().
			Model(chapter).
			Returning("*").
			Exec(ctx)
		if err != nil {
			if database.IsUniqueViolation(err) {
				return duplicateNumber(chapter.BookID, chapter.Number)
			}
			return errors.WithStack(err)
		}
		return nil
	})
}

func (svc *Service) RetrieveChapter(ctx context.Context, opts RetrieveChapterOptions) (*models.Chapter, error) {
	return retrieveChapter(ctx, svc.db, opts)
}

func retrieveChapter(ctx context.Context, db bun.IDB, opts RetrieveChapterOptions) (*models.Chapter, error) {
	chapter := &models.Chapter{}

	q := db.NewSelect().
		Model(chapter)

	if opts.ID != nil {
		q = q.Where("ch.id = ?", *opts.ID)
	}

	err := q.Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Chapter")
		}
		return nil, errors.WithStack(err)
	}

	return chapter, nil
}

func (svc *Service) ListChapters(ctx context.Context, opts ListChaptersOptions) ([]*models.Chapter, error) {
	chapters := []*models.Chapter{}

	q := svc.db.NewSelect().
		Model(&chapters).
		Order("ch.book_id ASC", "ch.number ASC")

	if opts.BookID != nil {
		q = q.Where("ch.book_id = ?", *opts.BookID)
	}

	if err := q.Scan(ctx); err != nil {
		return nil, errors.WithStack(err)
	}
	return chapters, nil
}

// UpdateChapter replaces the chapter's mutable fields. When the chapter moves
// to another book or number its text and audio move with it, and its comments
// follow it to the new book.
func (svc *Service) UpdateChapter(ctx context.Context, chapter *models.Chapter) error {
	chapter.UpdatedAt = time.Now()

	return svc.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		existing, err := retrieveChapter(ctx, tx, RetrieveChapterOptions{ID: &chapter.ID})
		if err != nil {
			return err
		}
		if err := checkNumber(ctx, tx, chapter.BookID, chapter.Number, chapter.ID); err != nil {
			return err
		}

		_, err = tx.NewUpdate().
			Model(chapter).
			Column("book_id", "title", "number", "date", "updated_at").
			WherePK().
			Returning("*").
			Exec(ctx)
		if err != nil {
			if database.IsUniqueViolation(err) {
				return duplicateNumber(chapter.BookID, chapter.Number)
			}
			return errors.WithStack(err)
		}

		// Comments must stay on the chapter's book.
		if existing.BookID != chapter.BookID {
			_, err = tx.NewUpdate().
				Model((*models.Comment)(nil)).
				Set("book_id = ?", chapter.BookID).
				Set("updated_at = ?", chapter.UpdatedAt).
				Where("chapter_id = ?", chapter.ID).
				Exec(ctx)
			if err != nil {
				return errors.WithStack(err)
			}
		}

		if existing.Prefix() != chapter.Prefix() {
			// The rename happens before commit so a failed move rolls the
			// row back too.
			if err := svc.blobs.Move(ctx, existing.Prefix(), chapter.Prefix()); err != nil {
				return errors.Wrap(err, "failed to move chapter blobs")
			}
		}
		return nil
	})
}

// DeleteChapter deletes a chapter, its comments (by cascade) and its blobs.
func (svc *Service) DeleteChapter(ctx context.Context, chapterID int) (int, error) {
	chapter, err := svc.RetrieveChapter(ctx, RetrieveChapterOptions{ID: &chapterID})
	if err != nil {
		if errors.Is(err, errcodes.NotFound("Chapter")) {
			return 0, nil
		}
		return 0, err
	}

	res, err := svc.db.NewDelete().
		Model((*models.Chapter)(nil)).
		Where("id = ?", chapterID).
		Exec(ctx)
	if err != nil {
		return 0, errors.WithStack(err)
	}
	n, _ := res.RowsAffected()

	if err := svc.blobs.DeletePrefix(ctx, chapter.Prefix()); err != nil {
		logger.FromContext(ctx).Err(err).Warn("failed to delete chapter blobs", logger.Data{"chapter_id": chapterID})
	}
	return int(n), nil
}
