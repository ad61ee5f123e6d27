package controllers_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harbdev/blogapi/models"
)

type likeResult struct {
	Message   string `json:"message"`
	LikeCount int    `json:"like_count"`
}

func TestLikePostLifecycle(t *testing.T) {
	r, db := newTestRouter(t)
	registerUser(t, r, "a")
	token := login(t, r, "a")
	postID := createPost(t, r, token, "likeable")
	path := fmt.Sprintf("/likes/posts/%d", postID)

	var res likeResult

	w := doJSON(t, r, http.MethodPost, path, token, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	decodeData(t, w, &res)
	assert.Equal(t, 1, res.LikeCount)

	// Second like conflicts and the counter stays at 1.
	w = doJSON(t, r, http.MethodPost, path, token, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	var post models.Post
	require.NoError(t, db.First(&post, postID).Error)
	assert.Equal(t, 1, post.LikeCount)

	w = doJSON(t, r, http.MethodDelete, path, token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	decodeData(t, w, &res)
	assert.Equal(t, 0, res.LikeCount)

	// Unlike without a like reports not-liked and leaves the counter alone.
	w = doJSON(t, r, http.MethodDelete, path, token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	require.NoError(t, db.First(&post, postID).Error)
	assert.Equal(t, 0, post.LikeCount)
}

func TestLikeCommentLifecycle(t *testing.T) {
	r, db := newTestRouter(t)
	registerUser(t, r, "a")
	token := login(t, r, "a")
	postID := createPost(t, r, token, "post")
	commentID := createComment(t, r, token, postID, "likeable comment")
	path := fmt.Sprintf("/likes/comments/%d", commentID)

	var res likeResult

	w := doJSON(t, r, http.MethodPost, path, token, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	decodeData(t, w, &res)
	assert.Equal(t, 1, res.LikeCount)

	w = doJSON(t, r, http.MethodPost, path, token, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doJSON(t, r, http.MethodDelete, path, token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	decodeData(t, w, &res)
	assert.Equal(t, 0, res.LikeCount)

	w = doJSON(t, r, http.MethodDelete, path, token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	var comment models.Comment
	require.NoError(t, db.First(&comment, commentID).Error)
	assert.Equal(t, 0, comment.LikeCount)
}

func TestLikeUnknownTargets(t *testing.T) {
	r, _ := newTestRouter(t)
	registerUser(t, r, "a")
	token := login(t, r, "a")

	w := doJSON(t, r, http.MethodPost, "/likes/posts/9999", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = doJSON(t, r, http.MethodDelete, "/likes/posts/9999", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = doJSON(t, r, http.MethodPost, "/likes/comments/9999", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = doJSON(t, r, http.MethodDelete, "/likes/comments/9999", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestLikeRequiresAuth(t *testing.T) {
	r, _ := newTestRouter(t)
	registerUser(t, r, "a")
	postID := createPost(t, r, login(t, r, "a"), "post")

	w := doJSON(t, r, http.MethodPost, fmt.Sprintf("/likes/posts/%d", postID), "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCounterAlwaysMatchesLikeRows(t *testing.T) {
	r, db := newTestRouter(t)
	registerUser(t, r, "author")
	authorToken := login(t, r, "author")
	postID := createPost(t, r, authorToken, "trending")
	path := fmt.Sprintf("/likes/posts/%d", postID)

	tokens := []string{authorToken}
	for i := 0; i < 4; i++ {
		name := fmt.Sprintf("fan%d", i)
		registerUser(t, r, name)
		tokens = append(tokens, login(t, r, name))
	}

	checkInvariant := func() {
		var post models.Post
		require.NoError(t, db.First(&post, postID).Error)
		var rows int64
		require.NoError(t, db.Model(&models.PostLike{}).Where("post_id = ?", postID).Count(&rows).Error)
		assert.Equal(t, int(rows), post.LikeCount)
	}

	for _, token := range tokens {
		w := doJSON(t, r, http.MethodPost, path, token, nil)
		require.Equal(t, http.StatusCreated, w.Code)
		checkInvariant()
	}

	var post models.Post
	require.NoError(t, db.First(&post, postID).Error)
	assert.Equal(t, 5, post.LikeCount)

	// A mixed sequence of unlikes and re-likes keeps counter == rows.
	for _, token := range tokens[:3] {
		w := doJSON(t, r, http.MethodDelete, path, token, nil)
		require.Equal(t, http.StatusOK, w.Code)
		checkInvariant()
	}
	w := doJSON(t, r, http.MethodPost, path, tokens[0], nil)
	require.Equal(t, http.StatusCreated, w.Code)
	checkInvariant()

	require.NoError(t, db.First(&post, postID).Error)
	assert.Equal(t, 3, post.LikeCount)
}

func TestListLikers(t *testing.T) {
	r, _ := newTestRouter(t)
	registerUser(t, r, "author")
	authorToken := login(t, r, "author")
	postID := createPost(t, r, authorToken, "post")
	commentID := createComment(t, r, authorToken, postID, "comment")

	registerUser(t, r, "fan1")
	registerUser(t, r, "fan2")
	fan1 := login(t, r, "fan1")
	fan2 := login(t, r, "fan2")

	for _, token := range []string{fan1, fan2} {
		w := doJSON(t, r, http.MethodPost, fmt.Sprintf("/likes/posts/%d", postID), token, nil)
		require.Equal(t, http.StatusCreated, w.Code)
	}
	w := doJSON(t, r, http.MethodPost, fmt.Sprintf("/likes/comments/%d", commentID), fan1, nil)
	require.Equal(t, http.StatusCreated, w.Code)

	// Post liker listing is identity gated.
	w = doJSON(t, r, http.MethodGet, fmt.Sprintf("/likes/posts/%d/users", postID), "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	var likers []struct {
		Username  string `json:"username"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
	}

	w = doJSON(t, r, http.MethodGet, fmt.Sprintf("/likes/posts/%d/users", postID), authorToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	decodeData(t, w, &likers)
	require.Len(t, likers, 2)
	assert.Equal(t, "fan1", likers[0].Username)
	assert.Equal(t, "fan2", likers[1].Username)

	// Comment liker listing is public.
	w = doJSON(t, r, http.MethodGet, fmt.Sprintf("/likes/comments/%d/users", commentID), "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	decodeData(t, w, &likers)
	require.Len(t, likers, 1)
	assert.Equal(t, "fan1", likers[0].Username)

	w = doJSON(t, r, http.MethodGet, "/likes/posts/9999/users", authorToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
