package users

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/eglinebooks/egline/pkg/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandlerCreate_HidesPassword(t *testing.T) {
	t.Parallel()

	h := &handler{userService: newTestService(t)}

	c, rr := testutils.NewContext(t, http.MethodPost, "/api/v1/user", `{"display_name":"Ada","email":"Ada@Example.com","password":"password123"}`)
	require.NoError(t, h.create(c))
	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Contains(t, rr.Body.String(), `"email":"ada@example.com"`)
	assert.Contains(t, rr.Body.String(), `"saved_books":{}`)
	assert.NotContains(t, rr.Body.String(), "password")
}

func TestHandlerCreate_Validation(t *testing.T) {
	t.Parallel()

	h := &handler{userService: newTestService(t)}

	c, _ := testutils.NewContext(t, http.MethodPost, "/api/v1/user", `{"display_name":"Ada","email":"not-an-email","password":"password123"}`)
	testutils.RequireCode(t, h.create(c), "validation_error")

	c, _ = testutils.NewContext(t, http.MethodPost, "/api/v1/user", `{"display_name":"Ada","email":"a@example.com","password":"short"}`)
	testutils.RequireCode(t, h.create(c), "validation_error")
}

func TestHandlerLogin(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	h := &handler{userService: svc}
	createUser(t, svc, "reader@example.com")

	c, rr := testutils.NewContext(t, http.MethodPost, "/api/v1/user/login", `{"email":"reader@example.com","password":"password123"}`)
	require.NoError(t, h.login(c))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.NotContains(t, rr.Body.String(), "password")

	c, rr = testutils.NewContext(t, http.MethodPost, "/api/v1/user/login", `{"email":"reader@example.com","password":"nope"}`)
	err := h.login(c)
	testutils.RequireCode(t, err, "bad_request")

	c.Echo().HTTPErrorHandler(err, c)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHandlerUpdateAndDelete(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	h := &handler{userService: svc}
	createUser(t, svc, "reader@example.com")
	users, _, err := svc.List(t.Context(), ListOptions{Limit: 10})
	require.NoError(t, err)
	require.Len(t, users, 1)
	id := fmt.Sprint(users[0].ID)

	c, rr := testutils.NewContext(t, http.MethodPut, "/api/v1/user/"+id, `{"display_name":"Renamed","email":"reader@example.com","password":""}`)
	testutils.SetParams(c, "/api/v1/user/:id", "id", id)
	require.NoError(t, h.update(c))
	assert.Contains(t, rr.Body.String(), `"display_name":"Renamed"`)

	stored, err := svc.Retrieve(t.Context(), users[0].ID)
	require.NoError(t, err)
	assert.True(t, CheckPassword("password123", stored.PasswordHash))

	c, rr = testutils.NewContext(t, http.MethodDelete, "/api/v1/user/"+id, "")
	testutils.SetParams(c, "/api/v1/user/:id", "id", id)
	require.NoError(t, h.delete(c))
	assert.JSONEq(t, `{"deleted":1}`, rr.Body.String())
}
