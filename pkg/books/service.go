package books

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/eglinebooks/egline/pkg/blobstore"
	"github.com/eglinebooks/egline/pkg/database"
	"github.com/eglinebooks/egline/pkg/errcodes"
	"github.com/eglinebooks/egline/pkg/models"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/uptrace/bun"
)

type RetrieveBookOptions struct {
	ID *int
}

type ListBooksOptions struct {
	Limit    *int
	Offset   *int
	GenreID  *int
	AuthorID *int
	Status   *string
	Search   *string
}

type UpdateBookOptions struct {
	Columns []string
}

type ListBookGenresOptions struct {
	BookID  *int
	GenreID *int
}

type ListBookAuthorsOptions struct {
	BookID   *int
	AuthorID *int
}

// BookView is a book as the API presents it.
type BookView struct {
	*models.Book
	Genres      []string `json:"genres"`
	RatingCount int      `json:"rating_count"`
	HasCover    bool     `json:"has_cover"`
}

type Service struct {
	db    *bun.DB
	blobs blobstore.Store
}

func NewService(db *bun.DB, blobs blobstore.Store) *Service {
	return &Service{db, blobs}
}

// CreateBook inserts a book. Rating and views always start at 0.
func (svc *Service) CreateBook(ctx context.Context, book *models.Book) error {
	now := time.Now()
	if book.CreatedAt.IsZero() {
		book.CreatedAt = now
	}
	book.UpdatedAt = book.CreatedAt
	book.Rating = 0
	book.Views = 0

	_, err := svc.db.
		NewInsert().
		Model(book).
		Returning("*").
		Exec(ctx)
	return errors.WithStack(err)
}

func (svc *Service) RetrieveBook(ctx context.Context, opts RetrieveBookOptions) (*models.Book, error) {
	book := &models.Book{}

	q := svc.db.
		NewSelect().
		Model(book)

	if opts.ID != nil {
		q = q.Where("b.id = ?", *opts.ID)
	}

	err := q.Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Book")
		}
		return nil, errors.WithStack(err)
	}

	return book, nil
}

func (svc *Service) ListBooks(ctx context.Context, opts ListBooksOptions) ([]*models.Book, error) {
	books := []*models.Book{}

	q := svc.db.
		NewSelect().
		Model(&books).
		Order("b.id ASC")

	if opts.GenreID != nil {
		q = q.Where("b.id IN (SELECT book_id FROM book_genres WHERE genre_id = ?)", *opts.GenreID)
	}
	if opts.AuthorID != nil {
		q = q.Where("b.id IN (SELECT book_id FROM book_authors WHERE author_id = ?)", *opts.AuthorID)
	}
	if opts.Status != nil {
		q = q.Where("b.status = ?", *opts.Status)
	}
	if opts.Search != nil && *opts.Search != "" {
		q = q.Where("b.title LIKE ?", "%"+*opts.Search+"%")
	}
	if opts.Limit != nil {
		q = q.Limit(*opts.Limit)
	}
	if opts.Offset != nil {
		q = q.Offset(*opts.Offset)
	}

	if err := q.Scan(ctx); err != nil {
		return nil, errors.WithStack(err)
	}
	return books, nil
}

func (svc *Service) UpdateBook(ctx context.Context, book *models.Book, opts UpdateBookOptions) error {
	if len(opts.Columns) == 0 {
		return nil
	}

	book.UpdatedAt = time.Now()
	columns := append(slices.Clone(opts.Columns), "updated_at")

	res, err := svc.db.
		NewUpdate().
		Model(book).
		Column(columns...).
		WherePK().
		Exec(ctx)
	if err != nil {
		return errors.WithStack(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errcodes.NotFound("Book")
	}
	return nil
}

// IncrementViews bumps the view counter of a book.
func (svc *Service) IncrementViews(ctx context.Context, bookID int) error {
	_, err := svc.db.NewUpdate().
		Model((*models.Book)(nil)).
		Set("views = views + 1").
		Where("id = ?", bookID).
		Exec(ctx)
	return errors.WithStack(err)
}

// DeleteBook deletes a book. Its genre, author, rate, chapter and comment rows
// go with it through the schema's cascades; its blobs are removed afterwards.
func (svc *Service) DeleteBook(ctx context.Context, bookID int) (int, error) {
	res, err := svc.db.NewDelete().
		Model((*models.Book)(nil)).
		Where("id = ?", bookID).
		Exec(ctx)
	if err != nil {
		return 0, errors.WithStack(err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return 0, nil
	}

	if err := svc.blobs.DeletePrefix(ctx, models.BookPrefix(bookID)); err != nil {
		logger.FromContext(ctx).Err(err).Warn("failed to delete book blobs", logger.Data{"book_id": bookID})
	}
	return int(n), nil
}

// Views decorates books with their genre titles, rating counts and cover
// presence.
func (svc *Service) Views(ctx context.Context, books []*models.Book) ([]*BookView, error) {
	views := make([]*BookView, len(books))
	if len(books) == 0 {
		return views, nil
	}

	ids := make([]int, len(books))
	for i, b := range books {
		ids[i] = b.ID
	}

	var genreRows []struct {
		BookID int    `bun:"book_id"`
		Title  string `bun:"title"`
	}
	err := svc.db.NewSelect().
		TableExpr("book_genres AS bg").
		Join("JOIN genres AS g ON g.id = bg.genre_id").
		ColumnExpr("bg.book_id, g.title").
		Where("bg.book_id IN (?)", bun.In(ids)).
		Order("g.title ASC").
		Scan(ctx, &genreRows)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	genres := map[int][]string{}
	for _, row := range genreRows {
		genres[row.BookID] = append(genres[row.BookID], row.Title)
	}

	var countRows []struct {
		BookID int `bun:"book_id"`
		Count  int `bun:"count"`
	}
	err = svc.db.NewSelect().
		TableExpr("book_rates AS br").
		ColumnExpr("br.book_id, COUNT(*) AS count").
		Where("br.book_id IN (?)", bun.In(ids)).
		Group("br.book_id").
		Scan(ctx, &countRows)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	counts := map[int]int{}
	for _, row := range countRows {
		counts[row.BookID] = row.Count
	}

	for i, b := range books {
		hasCover, err := svc.blobs.Exists(ctx, b.CoverKey())
		if err != nil {
			return nil, err
		}
		bookGenres := genres[b.ID]
		if bookGenres == nil {
			bookGenres = []string{}
		}
		views[i] = &BookView{
			Book:        b,
			Genres:      bookGenres,
			RatingCount: counts[b.ID],
			HasCover:    hasCover,
		}
	}
	return views, nil
}

func (svc *Service) View(ctx context.Context, book *models.Book) (*BookView, error) {
	views, err := svc.Views(ctx, []*models.Book{book})
	if err != nil {
		return nil, err
	}
	return views[0], nil
}

// PutCover stores the book's cover, replacing any previous one.
func (svc *Service) PutCover(ctx context.Context, bookID int, r io.Reader) (*blobstore.Info, error) {
	if err := svc.ensureBook(ctx, bookID); err != nil {
		return nil, err
	}
	info, err := svc.blobs.Put(ctx, models.BookCoverKey(bookID), r)
	return info, errors.WithStack(err)
}

// Genres returns the genres attached to a book.
func (svc *Service) Genres(ctx context.Context, bookID int) ([]*models.Genre, error) {
	if err := svc.ensureBook(ctx, bookID); err != nil {
		return nil, err
	}

	genres := []*models.Genre{}
	err := svc.db.NewSelect().
		Model(&genres).
		Join("JOIN book_genres AS bg ON bg.genre_id = g.id").
		Where("bg.book_id = ?", bookID).
		Order("g.title ASC").
		Scan(ctx)
	return genres, errors.WithStack(err)
}

func (svc *Service) ListBookGenres(ctx context.Context, opts ListBookGenresOptions) ([]*models.BookGenre, error) {
	rows := []*models.BookGenre{}
	q := svc.db.NewSelect().
		Model(&rows).
		Order("bg.book_id ASC", "bg.genre_id ASC")
	if opts.BookID != nil {
		q = q.Where("bg.book_id = ?", *opts.BookID)
	}
	if opts.GenreID != nil {
		q = q.Where("bg.genre_id = ?", *opts.GenreID)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, errors.WithStack(err)
	}
	return rows, nil
}

func (svc *Service) AddGenre(ctx context.Context, bookGenre *models.BookGenre) error {
	if err := svc.ensureBook(ctx, bookGenre.BookID); err != nil {
		return err
	}
	ok, err := database.Exists(ctx, svc.db, (*models.Genre)(nil), bookGenre.GenreID)
	if err != nil {
		return err
	}
	if !ok {
		return errcodes.NotFound("Genre")
	}

	_, err = svc.db.NewInsert().Model(bookGenre).Exec(ctx)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return errcodes.Conflict(fmt.Sprintf("Book %d already has genre %d", bookGenre.BookID, bookGenre.GenreID))
		}
		return errors.WithStack(err)
	}
	return nil
}

func (svc *Service) RemoveGenre(ctx context.Context, bookID, genreID int) (int, error) {
	res, err := svc.db.NewDelete().
		Model((*models.BookGenre)(nil)).
		Where("book_id = ? AND genre_id = ?", bookID, genreID).
		Exec(ctx)
	if err != nil {
		return 0, errors.WithStack(err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

func (svc *Service) ListBookAuthors(ctx context.Context, opts ListBookAuthorsOptions) ([]*models.BookAuthor, error) {
	rows := []*models.BookAuthor{}
	q := svc.db.NewSelect().
		Model(&rows).
		Order("ba.book_id ASC", "ba.author_id ASC")
	if opts.BookID != nil {
		q = q.Where("ba.book_id = ?", *opts.BookID)
	}
	if opts.AuthorID != nil {
		q = q.Where("ba.author_id = ?", *opts.AuthorID)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, errors.WithStack(err)
	}
	return rows, nil
}

func (svc *Service) AddAuthor(ctx context.Context, bookAuthor *models.BookAuthor) error {
	if err := svc.ensureBook(ctx, bookAuthor.BookID); err != nil {
		return err
	}
	ok, err := database.Exists(ctx, svc.db, (*models.Author)(nil), bookAuthor.AuthorID)
	if err != nil {
		return err
	}
	if !ok {
		return errcodes.NotFound("Author")
	}

	_, err = svc.db.NewInsert().Model(bookAuthor).Exec(ctx)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return errcodes.Conflict(fmt.Sprintf("Book %d already has author %d", bookAuthor.BookID, bookAuthor.AuthorID))
		}
		return errors.WithStack(err)
	}
	return nil
}

func (svc *Service) RemoveAuthor(ctx context.Context, bookID, authorID int) (int, error) {
	res, err := svc.db.NewDelete().
		Model((*models.BookAuthor)(nil)).
		Where("book_id = ? AND author_id = ?", bookID, authorID).
		Exec(ctx)
	if err != nil {
		return 0, errors.WithStack(err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
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
