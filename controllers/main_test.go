package controllers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/harbdev/blogapi/config"
	"github.com/harbdev/blogapi/models"
	"github.com/harbdev/blogapi/routes"
)

const testRootPass = "master-pass"

func newTestRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	config.Set(config.AppConfig{
		GinMode:            "test",
		JWTSecret:          "test-secret",
		JWTAlgorithm:       "HS256",
		JWTExpireMinutes:   60,
		RootPass:           testRootPass,
		RateLimitPerMinute: 100000,
		AllowedOrigins:     []string{"*"},
		LogLevel:           "error",
	})

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	// A single connection keeps every session on the same in-memory database.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Post{},
		&models.Comment{},
		&models.PostLike{},
		&models.CommentLike{},
	))

	return routes.SetupRouter(db), db
}

type apiResponse struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func doJSON(t *testing.T, r *gin.Engine, method, path, token string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var body *bytes.Buffer
	if payload != nil {
		b, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewBuffer(b)
	} else {
		body = bytes.NewBuffer(nil)
	}
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func doForm(t *testing.T, r *gin.Engine, method, path string, values url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	var resp apiResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NoError(t, json.Unmarshal(resp.Data, out))
}

// registerUser creates a non-admin account with a deterministic password.
func registerUser(t *testing.T, r *gin.Engine, username string) uint {
	t.Helper()
	w := doJSON(t, r, http.MethodPost, "/users/", "", gin.H{
		"username":   username,
		"first_name": "Test",
		"last_name":  "User",
		"email":      username + "@example.com",
		"password":   "secret123",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var data struct {
		UserID uint `json:"user_id"`
	}
	decodeData(t, w, &data)
	return data.UserID
}

func registerAdmin(t *testing.T, r *gin.Engine, username string) uint {
	t.Helper()
	w := doJSON(t, r, http.MethodPost, "/users/", "", gin.H{
		"username":   username,
		"first_name": "Admin",
		"last_name":  "User",
		"email":      username + "@example.com",
		"password":   "secret123",
		"admin":      true,
		"root_pass":  testRootPass,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var data struct {
		UserID uint `json:"user_id"`
	}
	decodeData(t, w, &data)
	return data.UserID
}

func login(t *testing.T, r *gin.Engine, username string) string {
	t.Helper()
	w := doForm(t, r, http.MethodPost, "/login", url.Values{
		"username": {username},
		"password": {"secret123"},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var data struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}
	decodeData(t, w, &data)
	require.NotEmpty(t, data.AccessToken)
	require.Equal(t, "bearer", data.TokenType)
	return data.AccessToken
}

func createPost(t *testing.T, r *gin.Engine, token, title string) uint {
	t.Helper()
	w := doJSON(t, r, http.MethodPost, "/posts/", token, gin.H{
		"title":   title,
		"content": "content of " + title,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var data struct {
		PostID uint `json:"post_id"`
	}
	decodeData(t, w, &data)
	return data.PostID
}

func createComment(t *testing.T, r *gin.Engine, token string, postID uint, content string) uint {
	t.Helper()
	w := doJSON(t, r, http.MethodPost, fmt.Sprintf("/comments/posts/%d", postID), token, gin.H{
		"content": content,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var data struct {
		CommentID uint `json:"comment_id"`
	}
	decodeData(t, w, &data)
	return data.CommentID
}
