package authors

import (
	"net/http"
	"testing"

	"github.com/eglinebooks/egline/pkg/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandlers(t *testing.T) {
	t.Parallel()

	db := testutils.NewTestDB(t)
	h := &handler{authorService: NewService(db)}

	c, rr := testutils.NewContext(t, http.MethodPost, "/api/v1/author", `{"first_name":"Jane","last_name":"Austen","avatar":"AQI="}`)
	require.NoError(t, h.create(c))
	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Contains(t, rr.Body.String(), `"avatar":"AQI="`)
	assert.Contains(t, rr.Body.String(), `"rating":0`)

	c, _ = testutils.NewContext(t, http.MethodGet, "/api/v1/author/abc", "")
	testutils.SetParams(c, "/api/v1/author/:id", "id", "abc")
	testutils.RequireCode(t, h.retrieve(c), "not_found")

	c, _ = testutils.NewContext(t, http.MethodPost, "/api/v1/author", `{"first_name":"Jane"}`)
	testutils.RequireCode(t, h.create(c), "validation_error")
}
