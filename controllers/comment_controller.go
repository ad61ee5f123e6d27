package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/harbdev/blogapi/middleware"
	"github.com/harbdev/blogapi/models"
	"github.com/harbdev/blogapi/utils"
)

// CommentController manages CRUD operations for comments on posts.
type CommentController struct {
	db *gorm.DB
}

// NewCommentController creates a CommentController.
func NewCommentController(db *gorm.DB) *CommentController {
	return &CommentController{db: db}
}

// CreateComment adds a comment to an existing post.
func (c *CommentController) CreateComment(ctx *gin.Context) {
	postID, ok := parseIDParam(ctx, "post_id")
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, 40005, "invalid post id")
		return
	}

	var req struct {
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
	if err := c.db.First(&post, postID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40401, "post not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50012, "failed to load post")
		return
	}

	comment := models.Comment{
		PostID:  postID,
		UserID:  caller.ID,
		Content: utils.Sanitize(req.Content),
	}
	if err := c.db.Create(&comment).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50020, "failed to create comment")
		return
	}
	comment.User = *caller

	utils.InvalidateByPrefix(fmt.Sprintf("cache:comments:post:%d", postID))
	utils.Created(ctx, commentView(comment))
}

// ListPostComments returns a post's comments with limit/skip pagination.
func (c *CommentController) ListPostComments(ctx *gin.Context) {
	postID, ok := parseIDParam(ctx, "post_id")
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, 40005, "invalid post id")
		return
	}
	limit, skip := parseLimitSkip(ctx)

	cacheKey := fmt.Sprintf("cache:comments:post:%d:limit=%d:skip=%d", postID, limit, skip)
	if b, ok := utils.CacheGetBytes(cacheKey); ok {
		ctx.Data(http.StatusOK, "application/json", b)
		return
	}

	var post models.Post
	if err := c.db.First(&post, postID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40401, "post not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50012, "failed to load post")
		return
	}

	var comments []models.Comment
	if err := c.db.Preload("User").Where("post_id = ?", postID).
		Order("created_at").Offset(skip).Limit(limit).Find(&comments).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50021, "failed to list comments")
		return
	}

	views := make([]gin.H, 0, len(comments))
	for _, comment := range comments {
		views = append(views, commentView(comment))
	}
	utils.CacheSetJSON(cacheKey, cacheEnvelope(views), time.Hour)
	utils.Success(ctx, views)
}

// GetComment returns a single comment.
func (c *CommentController) GetComment(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, 40006, "invalid comment id")
		return
	}

	var comment models.Comment
	if err := c.db.Preload("User").First(&comment, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40402, "comment not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50022, "failed to load comment")
		return
	}
	utils.Success(ctx, commentView(comment))
}

// UpdateComment replaces the content of a comment the caller owns.
// Existence is decided before ownership.
func (c *CommentController) UpdateComment(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, 40006, "invalid comment id")
		return
	}

	var req struct {
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

	var comment models.Comment
	if err := c.db.First(&comment, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40402, "comment not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50022, "failed to load comment")
		return
	}

	if comment.UserID != caller.ID {
		utils.Error(ctx, http.StatusForbidden, 40304, "comment does not belong to the current user")
		return
	}

	if err := c.db.Model(&comment).Update("content", utils.Sanitize(req.Content)).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50023, "failed to update comment")
		return
	}
	comment.User = *caller

	utils.InvalidateByPrefix(fmt.Sprintf("cache:comments:post:%d", comment.PostID))
	utils.Success(ctx, commentView(comment))
}

// DeleteComment removes a comment the caller owns together with its likes.
func (c *CommentController) DeleteComment(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, 40006, "invalid comment id")
		return
	}

	caller, ok := middleware.CurrentUser(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40100, "unauthenticated")
		return
	}

	var comment models.Comment
	if err := c.db.First(&comment, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40402, "comment not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50022, "failed to load comment")
		return
	}

	if comment.UserID != caller.ID {
		utils.Error(ctx, http.StatusForbidden, 40304, "comment does not belong to the current user")
		return
	}

	if err := c.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("comment_id = ?", comment.ID).Delete(&models.CommentLike{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Comment{}, comment.ID).Error
	}); err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50024, "failed to delete comment")
		return
	}

	utils.InvalidateByPrefix(fmt.Sprintf("cache:comments:post:%d", comment.PostID))
	ctx.Status(http.StatusNoContent)
}
