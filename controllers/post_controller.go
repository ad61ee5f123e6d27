package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/harbdev/blogapi/middleware"
	"github.com/harbdev/blogapi/models"
	"github.com/harbdev/blogapi/utils"
)

// PostController manages CRUD operations for blog posts.
type PostController struct {
	db *gorm.DB
}

// NewPostController creates a PostController.
func NewPostController(db *gorm.DB) *PostController {
	return &PostController{db: db}
}

// CreatePost allows authenticated users to create new posts.
func (p *PostController) CreatePost(ctx *gin.Context) {
	var req struct {
		Title   string `json:"title" binding:"required,min=1,max=100"`
		Content string `json:"content" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40001, "invalid request payload")
		return
	}

	caller, ok := middleware.CurrentUser(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40100, "unauthenticated")
		return
	}

	title := utils.Sanitize(strings.TrimSpace(req.Title))
	if title == "" {
		utils.Error(ctx, http.StatusBadRequest, 40003, "title cannot be empty")
		return
	}

	post := models.Post{
		UserID:  caller.ID,
		Title:   title,
		Content: utils.Sanitize(req.Content),
	}
	if err := p.db.Create(&post).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50010, "failed to create post")
		return
	}
	post.User = *caller

	utils.InvalidateByPrefix("cache:posts:list:")
	utils.Created(ctx, postView(post))
}

// ListPosts returns posts with limit/skip pagination and optional content
// search. Unfiltered pages are cached.
func (p *PostController) ListPosts(ctx *gin.Context) {
	limit, skip := parseLimitSkip(ctx)
	search := strings.TrimSpace(ctx.Query("search"))

	cacheKey := fmt.Sprintf("cache:posts:list:limit=%d:skip=%d", limit, skip)
	if search == "" {
		if b, ok := utils.CacheGetBytes(cacheKey); ok {
			ctx.Data(http.StatusOK, "application/json", b)
			return
		}
	}

	query := p.db.Preload("User").Order("created_at DESC")
	if search != "" {
		query = query.Where("content LIKE ?", "%"+search+"%")
	}

	var posts []models.Post
	if err := query.Offset(skip).Limit(limit).Find(&posts).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50011, "failed to list posts")
		return
	}

	views := make([]gin.H, 0, len(posts))
	for _, post := range posts {
		views = append(views, postView(post))
	}

	if search == "" {
		utils.CacheSetJSON(cacheKey, cacheEnvelope(views), time.Hour)
	}
	utils.Success(ctx, views)
}

// GetPost returns a single post.
func (p *PostController) GetPost(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, 40004, "invalid post id")
		return
	}

	cacheKey := fmt.Sprintf("cache:post:detail:%d", id)
	if b, ok := utils.CacheGetBytes(cacheKey); ok {
		ctx.Data(http.StatusOK, "application/json", b)
		return
	}

	var post models.Post
	if err := p.db.Preload("User").First(&post, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40401, "post not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50012, "failed to load post")
		return
	}

	view := postView(post)
	utils.CacheSetJSON(cacheKey, cacheEnvelope(view), time.Hour)
	utils.Success(ctx, view)
}

// UpdatePost replaces title and content of a post the caller owns.
// Existence is decided before ownership; admin status does not override
// ownership for posts.
func (p *PostController) UpdatePost(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, 40004, "invalid post id")
		return
	}

	var req struct {
		Title   string `json:"title" binding:"required,min=1,max=100"`
		Content string `json:"content" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40001, "invalid request payload")
		return
	}

	caller, ok := middleware.CurrentUser(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40100, "unauthenticated")
		return
	}

	var post models.Post
	if err := p.db.First(&post, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40401, "post not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50012, "failed to load post")
		return
	}

	if post.UserID != caller.ID {
		utils.Error(ctx, http.StatusForbidden, 40303, "post does not belong to the current user")
		return
	}

	updates := map[string]interface{}{
		"title":   utils.Sanitize(strings.TrimSpace(req.Title)),
		"content": utils.Sanitize(req.Content),
	}
	if err := p.db.Model(&post).Updates(updates).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50013, "failed to update post")
		return
	}
	post.User = *caller

	utils.InvalidateByPrefix(fmt.Sprintf("cache:post:detail:%d", id))
	utils.InvalidateByPrefix("cache:posts:list:")
	utils.Success(ctx, postView(post))
}

// DeletePost removes a post the caller owns together with its comments and
// likes in one transaction.
func (p *PostController) DeletePost(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, 40004, "invalid post id")
		return
	}

	caller, ok := middleware.CurrentUser(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40100, "unauthenticated")
		return
	}

	var post models.Post
	if err := p.db.First(&post, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40401, "post not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50012, "failed to load post")
		return
	}

	if post.UserID != caller.ID {
		utils.Error(ctx, http.StatusForbidden, 40303, "post does not belong to the current user")
		return
	}

	if err := p.db.Transaction(func(tx *gorm.DB) error {
		return deletePostCascade(tx, post.ID)
	}); err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50014, "failed to delete post")
		return
	}

	utils.InvalidateByPrefix(fmt.Sprintf("cache:post:detail:%d", id))
	utils.InvalidateByPrefix("cache:posts:list:")
	utils.InvalidateByPrefix(fmt.Sprintf("cache:comments:post:%d", id))
	ctx.Status(http.StatusNoContent)
}

// deletePostCascade removes a post with its comments and all likes on the
// post and those comments.
func deletePostCascade(tx *gorm.DB, postID uint) error {
	var commentIDs []uint
	if err := tx.Model(&models.Comment{}).Where("post_id = ?", postID).Pluck("id", &commentIDs).Error; err != nil {
		return err
	}
	if len(commentIDs) > 0 {
		if err := tx.Where("comment_id IN ?", commentIDs).Delete(&models.CommentLike{}).Error; err != nil {
			return err
		}
		if err := tx.Where("id IN ?", commentIDs).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
	}
	if err := tx.Where("post_id = ?", postID).Delete(&models.PostLike{}).Error; err != nil {
		return err
	}
	return tx.Delete(&models.Post{}, postID).Error
}
