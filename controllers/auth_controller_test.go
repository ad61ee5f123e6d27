package controllers_test

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harbdev/blogapi/utils"
)

func TestLoginIssuesTokenForUser(t *testing.T) {
	r, _ := newTestRouter(t)
	userID := registerUser(t, r, "alice")

	token := login(t, r, "alice")

	claims, err := utils.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.NotEmpty(t, claims.ID)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	r, _ := newTestRouter(t)
	registerUser(t, r, "bob")

	w := doForm(t, r, http.MethodPost, "/login", url.Values{
		"username": {"bob"},
		"password": {"wrong-password"},
	})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doForm(t, r, http.MethodPost, "/login", url.Values{
		"username": {"nobody"},
		"password": {"secret123"},
	})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestProtectedRouteRequiresToken(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(t, r, http.MethodGet, "/users/", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(t, r, http.MethodGet, "/users/", "not-a-real-token", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestTokenForDeletedUserIsRejected(t *testing.T) {
	r, _ := newTestRouter(t)
	registerUser(t, r, "carol")
	token := login(t, r, "carol")

	w := doForm(t, r, http.MethodDelete, "/users/", url.Values{
		"username": {"carol"},
		"password": {"secret123"},
	})
	require.Equal(t, http.StatusNoContent, w.Code)

	// The token still verifies but the account is gone.
	w = doJSON(t, r, http.MethodGet, "/users/", token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
