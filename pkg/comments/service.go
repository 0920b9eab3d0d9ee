package comments

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/eglinebooks/egline/pkg/database"
	"github.com/eglinebooks/egline/pkg/errcodes"
	"github.com/eglinebooks/egline/pkg/models"
	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

type RetrieveCommentOptions struct {
	ID *int
}

type ListCommentsOptions struct {
	BookID    *int
	ChapterID *int
	UserID    *int
}

type Service struct {
	db *bun.DB
}

func NewService(db *bun.DB) *Service {
	return &Service{db}
}

// checkRefs verifies the comment's user exists and its chapter belongs to its
// book.
func checkRefs(ctx context.Context, tx bun.Tx, comment *models.Comment) error {
	ok, err := database.Exists(ctx, tx, (*models.User)(nil), comment.UserID)
	if err != nil {
		return err
	}
	if !ok {
		return errcodes.NotFound("User")
	}

	ok, err = tx.NewSelect().
		Model((*models.Chapter)(nil)).
		Where("id = ? AND book_id = ?", comment.ChapterID, comment.BookID).
		Exists(ctx)
	if err != nil {
		return errors.WithStack(err)
	}
	if !ok {
		return errcodes.ValidationError(fmt.Sprintf("No such chapter with id %d and book_id %d", comment.ChapterID, comment.BookID))
	}
	return nil
}

// CreateComment stores a new comment. Vote counters always start at zero.
func (svc *Service) CreateComment(ctx context.Context, comment *models.Comment) error {
	now := time.Now()
	if comment.CreatedAt.IsZero() {
		comment.CreatedAt = now
	}
	comment.UpdatedAt = comment.CreatedAt
	comment.Upvotes = 0
	comment.Downvotes = 0

	return svc.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		if err := checkRefs(ctx, tx, comment); err != nil {
			return err
		}

		_, err := tx.NewInsert().
			Model(comment).
			Returning("*").
			Exec(ctx)
		return errors.WithStack(err)
	})
}

func (svc *Service) RetrieveComment(ctx context.Context, opts RetrieveCommentOptions) (*models.Comment, error) {
	comment := &models.Comment{}

	q := svc.db.NewSelect().
		Model(comment)

	if opts.ID != nil {
		q = q.Where("cm.id = ?", *opts.ID)
	}

	err := q.Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Comment")
		}
		return nil, errors.WithStack(err)
	}

	return comment, nil
}

func (svc *Service) ListComments(ctx context.Context, opts ListCommentsOptions) ([]*models.Comment, error) {
	comments := []*models.Comment{}

	q := svc.db.NewSelect().
		Model(&comments).
		Order("cm.created_at ASC", "cm.id ASC")

	if opts.BookID != nil {
		q = q.Where("cm.book_id = ?", *opts.BookID)
	}
	if opts.ChapterID != nil {
		q = q.Where("cm.chapter_id = ?", *opts.ChapterID)
	}
	if opts.UserID != nil {
		q = q.Where("cm.user_id = ?", *opts.UserID)
	}

	if err := q.Scan(ctx); err != nil {
		return nil, errors.WithStack(err)
	}
	return comments, nil
}

// UpdateComment replaces the comment's references and text. Vote counters
// are left untouched.
func (svc *Service) UpdateComment(ctx context.Context, comment *models.Comment) error {
	comment.UpdatedAt = time.Now()

	return svc.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		if err := checkRefs(ctx, tx, comment); err != nil {
			return err
		}

		res, err := tx.NewUpdate().
			Model(comment).
			Column("book_id", "user_id", "chapter_id", "text", "updated_at").
			WherePK().
			Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return errcodes.NotFound("Comment")
		}

		// Reload the counters owned by the rating aggregator.
		err = tx.NewSelect().
			Model(comment).
			WherePK().
			Scan(ctx)
		return errors.WithStack(err)
	})
}

func (svc *Service) DeleteComment(ctx context.Context, commentID int) (int, error) {
	res, err := svc.db.NewDelete().
		Model((*models.Comment)(nil)).
		Where("id = ?", commentID).
		Exec(ctx)
	if err != nil {
		return 0, errors.WithStack(err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}
