package controllers_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harbdev/blogapi/models"
)

func TestCreateAndGetPost(t *testing.T) {
	r, _ := newTestRouter(t)
	registerUser(t, r, "author")
	token := login(t, r, "author")

	postID := createPost(t, r, token, "hello world")

	w := doJSON(t, r, http.MethodGet, fmt.Sprintf("/posts/%d", postID), "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var post struct {
		PostID    uint   `json:"post_id"`
		Title     string `json:"title"`
		Content   string `json:"content"`
		LikeCount int    `json:"like_count"`
		Author    struct {
			Username string `json:"username"`
		} `json:"author"`
	}
	decodeData(t, w, &post)
	assert.Equal(t, postID, post.PostID)
	assert.Equal(t, "hello world", post.Title)
	assert.Equal(t, 0, post.LikeCount)
	assert.Equal(t, "author", post.Author.Username)
}

func TestCreatePostRequiresAuth(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/posts/", "", gin.H{
		"title":   "anonymous",
		"content": "should fail",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestListPostsPaginationAndSearch(t *testing.T) {
	r, _ := newTestRouter(t)
	registerUser(t, r, "lister")
	token := login(t, r, "lister")

	for i := 0; i < 15; i++ {
		w := doJSON(t, r, http.MethodPost, "/posts/", token, gin.H{
			"title":   fmt.Sprintf("post %d", i),
			"content": fmt.Sprintf("body number %d", i),
		})
		require.Equal(t, http.StatusCreated, w.Code)
	}

	var posts []map[string]interface{}

	// Default page size is 10.
	w := doJSON(t, r, http.MethodGet, "/posts/", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	decodeData(t, w, &posts)
	assert.Len(t, posts, 10)

	w = doJSON(t, r, http.MethodGet, "/posts/?limit=5&skip=12", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	decodeData(t, w, &posts)
	assert.Len(t, posts, 3)

	w = doJSON(t, r, http.MethodGet, "/posts/?search=number+7", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	decodeData(t, w, &posts)
	assert.Len(t, posts, 1)
}

func TestGetUnknownPost(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(t, r, http.MethodGet, "/posts/9999", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUpdatePostOwnershipIsStrict(t *testing.T) {
	r, db := newTestRouter(t)
	registerUser(t, r, "owner")
	registerUser(t, r, "stranger")
	registerAdmin(t, r, "root")
	ownerToken := login(t, r, "owner")

	postID := createPost(t, r, ownerToken, "original title")
	edit := gin.H{"title": "new title", "content": "new content"}

	// Unknown resource wins over ownership.
	w := doJSON(t, r, http.MethodPut, "/posts/9999", ownerToken, edit)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, r, http.MethodPut, fmt.Sprintf("/posts/%d", postID), login(t, r, "stranger"), edit)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Admin status does not override post ownership.
	w = doJSON(t, r, http.MethodPut, fmt.Sprintf("/posts/%d", postID), login(t, r, "root"), edit)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(t, r, http.MethodPut, fmt.Sprintf("/posts/%d", postID), ownerToken, edit)
	require.Equal(t, http.StatusOK, w.Code)

	var post models.Post
	require.NoError(t, db.First(&post, postID).Error)
	assert.Equal(t, "new title", post.Title)
	assert.Equal(t, "new content", post.Content)
}

func TestDeletePostCascades(t *testing.T) {
	r, db := newTestRouter(t)
	registerUser(t, r, "owner")
	registerUser(t, r, "fan")
	ownerToken := login(t, r, "owner")
	fanToken := login(t, r, "fan")

	postID := createPost(t, r, ownerToken, "doomed post")
	commentID := createComment(t, r, fanToken, postID, "nice one")

	w := doJSON(t, r, http.MethodPost, fmt.Sprintf("/likes/posts/%d", postID), fanToken, nil)
	require.Equal(t, http.StatusCreated, w.Code)
	w = doJSON(t, r, http.MethodPost, fmt.Sprintf("/likes/comments/%d", commentID), ownerToken, nil)
	require.Equal(t, http.StatusCreated, w.Code)

	// Only the owner may delete, admin or not.
	w = doJSON(t, r, http.MethodDelete, fmt.Sprintf("/posts/%d", postID), fanToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(t, r, http.MethodDelete, fmt.Sprintf("/posts/%d", postID), ownerToken, nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	var count int64
	require.NoError(t, db.Model(&models.Post{}).Where("id = ?", postID).Count(&count).Error)
	assert.Zero(t, count)
	require.NoError(t, db.Model(&models.Comment{}).Where("post_id = ?", postID).Count(&count).Error)
	assert.Zero(t, count)
	require.NoError(t, db.Model(&models.PostLike{}).Where("post_id = ?", postID).Count(&count).Error)
	assert.Zero(t, count)
	require.NoError(t, db.Model(&models.CommentLike{}).Where("comment_id = ?", commentID).Count(&count).Error)
	assert.Zero(t, count)
}

func TestPostContentIsSanitized(t *testing.T) {
	r, db := newTestRouter(t)
	registerUser(t, r, "xss")
	token := login(t, r, "xss")

	w := doJSON(t, r, http.MethodPost, "/posts/", token, gin.H{
		"title":   "plain title",
		"content": `hello <script>alert("pwn")</script> world`,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var post struct {
		PostID uint `json:"post_id"`
	}
	decodeData(t, w, &post)

	var stored models.Post
	require.NoError(t, db.First(&stored, post.PostID).Error)
	assert.NotContains(t, stored.Content, "<script>")
}
