package books

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/eglinebooks/egline/pkg/blobstore"
	"github.com/eglinebooks/egline/pkg/testutils"
	"github.com/segmentio/encoding/json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type bookJSON struct {
	ID          int      `json:"id"`
	Title       string   `json:"title"`
	Rating      float64  `json:"rating"`
	Views       int      `json:"views"`
	Genres      []string `json:"genres"`
	RatingCount int      `json:"rating_count"`
	HasCover    bool     `json:"has_cover"`
}

func newTestHandler(t *testing.T) *handler {
	t.Helper()
	db := testutils.NewTestDB(t)
	blobs, err := blobstore.NewFS(t.TempDir())
	require.NoError(t, err)
	return newHandler(db, blobs)
}

func TestHandlerCreateAndRetrieve(t *testing.T) {
	t.Parallel()

	h := newTestHandler(t)

	c, rr := testutils.NewContext(t, http.MethodPost, "/api/v1/book", `{"title":"  T  ","year":2024,"status":"ongoing"}`)
	require.NoError(t, h.create(c))
	assert.Equal(t, http.StatusCreated, rr.Code)

	var created bookJSON
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))
	assert.Equal(t, "T", created.Title)
	assert.InDelta(t, 0.0, created.Rating, 1e-9)
	assert.Equal(t, []string{}, created.Genres)
	assert.False(t, created.HasCover)

	id := fmt.Sprint(created.ID)
	c, rr = testutils.NewContext(t, http.MethodGet, "/api/v1/book/"+id, "")
	testutils.SetParams(c, "/api/v1/book/:id", "id", id)
	require.NoError(t, h.retrieve(c))

	var retrieved bookJSON
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &retrieved))
	assert.Equal(t, 1, retrieved.Views)
}

func TestHandlerRetrieve_NotFound(t *testing.T) {
	t.Parallel()

	h := newTestHandler(t)

	c, rr := testutils.NewContext(t, http.MethodGet, "/api/v1/book/7", "")
	testutils.SetParams(c, "/api/v1/book/:id", "id", "7")
	err := h.retrieve(c)
	testutils.RequireCode(t, err, "not_found")

	c.Echo().HTTPErrorHandler(err, c)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.JSONEq(t, `{"error":{"code":"not_found","message":"Book not found.","status_code":404}}`, rr.Body.String())
}

func TestHandlerCreate_Validation(t *testing.T) {
	t.Parallel()

	h := newTestHandler(t)

	c, _ := testutils.NewContext(t, http.MethodPost, "/api/v1/book", `{"year":2024}`)
	testutils.RequireCode(t, h.create(c), "validation_error")

	c, _ = testutils.NewContext(t, http.MethodPost, "/api/v1/book", `{"title":"T","rating":5}`)
	testutils.RequireCode(t, h.create(c), "unknown_parameter")
}

func TestHandlerCover(t *testing.T) {
	t.Parallel()

	h := newTestHandler(t)
	ctx := context.Background()
	book := testutils.CreateBook(t, h.bookService.db, "Covered")
	id := fmt.Sprint(book.ID)

	c, _ := testutils.NewContext(t, http.MethodGet, "/api/v1/book/"+id+"/cover", "")
	testutils.SetParams(c, "/api/v1/book/:id/cover", "id", id)
	testutils.RequireCode(t, h.cover(c), "not_found")

	png := "\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00"
	c, rr := testutils.NewContext(t, http.MethodPut, "/api/v1/book/"+id+"/cover", png)
	c.Request().Header.Set("Content-Type", "image/png")
	testutils.SetParams(c, "/api/v1/book/:id/cover", "id", id)
	require.NoError(t, h.uploadCover(c))
	assert.Contains(t, rr.Body.String(), `"content_type":"image/png"`)

	c, rr = testutils.NewContext(t, http.MethodGet, "/api/v1/book/"+id+"/cover", "")
	testutils.SetParams(c, "/api/v1/book/:id/cover", "id", id)
	require.NoError(t, h.cover(c))
	assert.Equal(t, "image/png", rr.Header().Get("Content-Type"))
	assert.Equal(t, png, rr.Body.String())

	view, err := h.bookService.View(ctx, book)
	require.NoError(t, err)
	assert.True(t, view.HasCover)

	c, _ = testutils.NewContext(t, http.MethodPut, "/api/v1/book/999/cover", png)
	testutils.SetParams(c, "/api/v1/book/:id/cover", "id", "999")
	testutils.RequireCode(t, h.uploadCover(c), "not_found")

	c, _ = testutils.NewContext(t, http.MethodPut, "/api/v1/book/"+id+"/cover", "")
	testutils.SetParams(c, "/api/v1/book/:id/cover", "id", id)
	testutils.RequireCode(t, h.uploadCover(c), "empty_request_body")
}

func TestHandlerDelete(t *testing.T) {
	t.Parallel()

	h := newTestHandler(t)
	book := testutils.CreateBook(t, h.bookService.db, "Deleted")
	id := fmt.Sprint(book.ID)

	c, rr := testutils.NewContext(t, http.MethodDelete, "/api/v1/book/"+id, "")
	testutils.SetParams(c, "/api/v1/book/:id", "id", id)
	require.NoError(t, h.delete(c))
	assert.JSONEq(t, `{"deleted":1}`, rr.Body.String())

	c, rr = testutils.NewContext(t, http.MethodDelete, "/api/v1/book/"+id, "")
	testutils.SetParams(c, "/api/v1/book/:id", "id", id)
	require.NoError(t, h.delete(c))
	assert.JSONEq(t, `{"deleted":0}`, rr.Body.String())
}

func TestHandlerBookGenre(t *testing.T) {
	t.Parallel()

	h := newTestHandler(t)
	db := h.bookService.db
	book := testutils.CreateBook(t, db, "Tagged")
	genre := createGenre(t, db, "Mystery")

	payload := fmt.Sprintf(`{"book_id":%d,"genre_id":%d}`, book.ID, genre.ID)
	c, rr := testutils.NewContext(t, http.MethodPost, "/api/v1/book-genre", payload)
	require.NoError(t, h.addGenre(c))
	assert.Equal(t, http.StatusCreated, rr.Code)

	c, rr = testutils.NewContext(t, http.MethodGet, fmt.Sprintf("/api/v1/book-genre?book_id=%d", book.ID), "")
	require.NoError(t, h.listBookGenres(c))
	assert.JSONEq(t, fmt.Sprintf(`[{"book_id":%d,"genre_id":%d}]`, book.ID, genre.ID), rr.Body.String())

	c, rr = testutils.NewContext(t, http.MethodGet, "/api/v1/book/"+fmt.Sprint(book.ID)+"/genres", "")
	testutils.SetParams(c, "/api/v1/book/:id/genres", "id", fmt.Sprint(book.ID))
	require.NoError(t, h.genres(c))
	assert.Contains(t, rr.Body.String(), `"title":"Mystery"`)
}
