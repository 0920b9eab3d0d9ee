package ratings

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

type RetrieveBookRateOptions struct {
	BookID int
	UserID int
}

type ListBookRatesOptions struct {
	BookID *int
	UserID *int
}

type ListCommentRatesOptions struct {
	CommentID *int
	UserID    *int
}

type Service struct {
	db *bun.DB
}

func NewService(db *bun.DB) *Service {
	return &Service{db}
}

func invalidRate() error {
	return errcodes.ValidationError("Saving rate error: Invalid rate value")
}

func validBookRate(rate int) bool {
	return rate >= models.MinBookRate && rate <= models.MaxBookRate
}

func validCommentRate(rate int) bool {
	return rate == models.Upvote || rate == models.Downvote
}

// SubmitBookRate stores a new rate and refreshes the book's rating in the
// same transaction. It returns the book's new rating.
func (svc *Service) SubmitBookRate(ctx context.Context, rate *models.BookRate) (float64, error) {
	if !validBookRate(rate.Rate) {
		return 0, invalidRate()
	}

	now := time.Now()
	rate.CreatedAt = now
	rate.UpdatedAt = now

	var rating float64
	err := svc.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		if err := ensureExists(ctx, tx, (*models.Book)(nil), rate.BookID, "Book"); err != nil {
			return err
		}
		if err := ensureExists(ctx, tx, (*models.User)(nil), rate.UserID, "User"); err != nil {
			return err
		}

		_, err := tx.NewInsert().Model(rate).Exec(ctx)
		if err != nil {
			if database.IsUniqueViolation(err) {
				return errcodes.Conflict(fmt.Sprintf("User %d has already rated book %d", rate.UserID, rate.BookID))
			}
			return errors.WithStack(err)
		}

		rating, err = recomputeBookRating(ctx, tx, rate.BookID)
		return err
	})
	return rating, err
}

// UpdateBookRate changes an existing rate and refreshes the book's rating in
// the same transaction.
func (svc *Service) UpdateBookRate(ctx context.Context, rate *models.BookRate) (float64, error) {
	if !validBookRate(rate.Rate) {
		return 0, invalidRate()
	}

	rate.UpdatedAt = time.Now()

	var rating float64
	err := svc.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewUpdate().
			Model(rate).
			Column("rate", "updated_at").
			WherePK().
			Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return errcodes.NotFound("Book rate")
		}

		rating, err = recomputeBookRating(ctx, tx, rate.BookID)
		return err
	})
	return rating, err
}

// RemoveBookRate deletes a rate and refreshes the book's rating. A book left
// without rates goes back to 0.
func (svc *Service) RemoveBookRate(ctx context.Context, bookID, userID int) (int, error) {
	var deleted int
	err := svc.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewDelete().
			Model((*models.BookRate)(nil)).
			Where("book_id = ? AND user_id = ?", bookID, userID).
			Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
		n, _ := res.RowsAffected()
		deleted = int(n)
		if deleted == 0 {
			return nil
		}

		_, err = recomputeBookRating(ctx, tx, bookID)
		return err
	})
	return deleted, err
}

func (svc *Service) RetrieveBookRate(ctx context.Context, opts RetrieveBookRateOptions) (*models.BookRate, error) {
	rate := &models.BookRate{}
	err := svc.db.NewSelect().
		Model(rate).
		Where("br.book_id = ? AND br.user_id = ?", opts.BookID, opts.UserID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Book rate")
		}
		return nil, errors.WithStack(err)
	}
	return rate, nil
}

func (svc *Service) ListBookRates(ctx context.Context, opts ListBookRatesOptions) ([]*models.BookRate, error) {
	rates := []*models.BookRate{}
	q := svc.db.NewSelect().
		Model(&rates).
		Order("br.book_id ASC", "br.user_id ASC")
	if opts.BookID != nil {
		q = q.Where("br.book_id = ?", *opts.BookID)
	}
	if opts.UserID != nil {
		q = q.Where("br.user_id = ?", *opts.UserID)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, errors.WithStack(err)
	}
	return rates, nil
}

// RatingCount returns how many users rated the book.
func (svc *Service) RatingCount(ctx context.Context, bookID int) (int, error) {
	count, err := svc.db.NewSelect().
		Model((*models.BookRate)(nil)).
		Where("book_id = ?", bookID).
		Count(ctx)
	return count, errors.WithStack(err)
}

// SubmitCommentRate stores an up or down vote and refreshes the comment's
// counters in the same transaction.
func (svc *Service) SubmitCommentRate(ctx context.Context, rate *models.CommentRate) (*models.Comment, error) {
	if !validCommentRate(rate.Rate) {
		return nil, invalidRate()
	}

	now := time.Now()
	rate.CreatedAt = now
	rate.UpdatedAt = now

	var comment *models.Comment
	err := svc.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		if err := ensureExists(ctx, tx, (*models.Comment)(nil), rate.CommentID, "Comment"); err != nil {
			return err
		}
		if err := ensureExists(ctx, tx, (*models.User)(nil), rate.UserID, "User"); err != nil {
			return err
		}

		_, err := tx.NewInsert().Model(rate).Exec(ctx)
		if err != nil {
			if database.IsUniqueViolation(err) {
				return errcodes.Conflict(fmt.Sprintf("User %d has already rated comment %d", rate.UserID, rate.CommentID))
			}
			return errors.WithStack(err)
		}

		comment, err = recomputeCommentVotes(ctx, tx, rate.CommentID)
		return err
	})
	return comment, err
}

func (svc *Service) UpdateCommentRate(ctx context.Context, rate *models.CommentRate) (*models.Comment, error) {
	if !validCommentRate(rate.Rate) {
		return nil, invalidRate()
	}

	rate.UpdatedAt = time.Now()

	var comment *models.Comment
	err := svc.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewUpdate().
			Model(rate).
			Column("rate", "updated_at").
			WherePK().
			Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return errcodes.NotFound("Comment rate")
		}

		comment, err = recomputeCommentVotes(ctx, tx, rate.CommentID)
		return err
	})
	return comment, err
}

func (svc *Service) RemoveCommentRate(ctx context.Context, commentID, userID int) (int, error) {
	var deleted int
	err := svc.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewDelete().
			Model((*models.CommentRate)(nil)).
			Where("comment_id = ? AND user_id = ?", commentID, userID).
			Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
		n, _ := res.RowsAffected()
		deleted = int(n)
		if deleted == 0 {
			return nil
		}

		_, err = recomputeCommentVotes(ctx, tx, commentID)
		return err
	})
	return deleted, err
}

func (svc *Service) RetrieveCommentRate(ctx context.Context, commentID, userID int) (*models.CommentRate, error) {
	rate := &models.CommentRate{}
	err := svc.db.NewSelect().
		Model(rate).
		Where("cr.comment_id = ? AND cr.user_id = ?", commentID, userID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Comment rate")
		}
		return nil, errors.WithStack(err)
	}
	return rate, nil
}

func (svc *Service) ListCommentRates(ctx context.Context, opts ListCommentRatesOptions) ([]*models.CommentRate, error) {
	rates := []*models.CommentRate{}
	q := svc.db.NewSelect().
		Model(&rates).
		Order("cr.comment_id ASC", "cr.user_id ASC")
	if opts.CommentID != nil {
		q = q.Where("cr.comment_id = ?", *opts.CommentID)
	}
	if opts.UserID != nil {
		q = q.Where("cr.user_id = ?", *opts.UserID)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, errors.WithStack(err)
	}
	return rates, nil
}

func ensureExists(ctx context.Context, db bun.IDB, model any, id int, resource string) error {
	ok, err := database.Exists(ctx, db, model, id)
	if err != nil {
		return err
	}
	if !ok {
		return errcodes.NotFound(resource)
	}
	return nil
}

// recomputeBookRating sets books.rating to the mean of the book's rates, or 0
// when it has none.
func recomputeBookRating(ctx context.Context, db bun.IDB, bookID int) (float64, error) {
	_, err := db.NewRaw(`
		UPDATE books
		SET rating = COALESCE((SELECT AVG(rate) FROM book_rates WHERE book_id = ?), 0)
		WHERE id = ?
	`, bookID, bookID).Exec(ctx)
	if err != nil {
		return 0, errors.WithStack(err)
	}

	var rating float64
	err = db.NewSelect().
		Model((*models.Book)(nil)).
		Column("rating").
		Where("id = ?", bookID).
		Scan(ctx, &rating)
	return rating, errors.WithStack(err)
}

// recomputeCommentVotes sets the comment's counters from its comment_rates
// rows and returns the refreshed comment.
func recomputeCommentVotes(ctx context.Context, db bun.IDB, commentID int) (*models.Comment, error) {
	_, err := db.NewRaw(`
		UPDATE comments
		SET upvotes = (SELECT COUNT(*) FROM comment_rates WHERE comment_id = ? AND rate = 1),
			downvotes = (SELECT COUNT(*) FROM comment_rates WHERE comment_id = ? AND rate = -1)
		WHERE id = ?
	`, commentID, commentID, commentID).Exec(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	comment := &models.Comment{}
	err = db.NewSelect().
		Model(comment).
		Where("cm.id = ?", commentID).
		Scan(ctx)
	return comment, errors.WithStack(err)
}
