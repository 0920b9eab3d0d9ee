package ratings

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

type ReconcileResult struct {
	Books    int `json:"books"`
	Comments int `json:"comments"`
}

// Reconcile recomputes every derived rating column from the rate tables and
// reports how many rows had drifted. Rows written through this package never
// drift; this repairs rows written by other tools.
func (svc *Service) Reconcile(ctx context.Context) (*ReconcileResult, error) {
	result := &ReconcileResult{}
	err := svc.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewRaw(`
			UPDATE books
			SET rating = COALESCE((SELECT AVG(br.rate) FROM book_rates br WHERE br.book_id = books.id), 0)
			WHERE rating != COALESCE((SELECT AVG(br.rate) FROM book_rates br WHERE br.book_id = books.id), 0)
		`).Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
		n, _ := res.RowsAffected()
		result.Books = int(n)

		res, err = tx.NewRaw(`
			UPDATE comments
			SET upvotes = (SELECT COUNT(*) FROM comment_rates cr WHERE cr.comment_id = comments.id AND cr.rate = 1),
				downvotes = (SELECT COUNT(*) FROM comment_rates cr WHERE cr.comment_id = comments.id AND cr.rate = -1)
			WHERE upvotes != (SELECT COUNT(*) FROM comment_rates cr WHERE cr.comment_id = comments.id AND cr.rate = 1)
				OR downvotes != (SELECT COUNT(*) FROM comment_rates cr WHERE cr.comment_id = comments.id AND cr.rate = -1)
		`).Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
		n, _ = res.RowsAffected()
		result.Comments = int(n)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
