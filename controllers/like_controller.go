package controllers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/harbdev/blogapi/middleware"
	"github.com/harbdev/blogapi/models"
	"github.com/harbdev/blogapi/utils"
)

// LikeController maintains the per-(user, target) like relation and the
// denormalized like counters on posts and comments. Every like/unlike runs
// as one transaction: the relation row and the counter change commit or
// roll back together.
type LikeController struct {
	db *gorm.DB
}

// NewLikeController creates a LikeController.
func NewLikeController(db *gorm.DB) *LikeController {
	return &LikeController{db: db}
}

var (
	errTargetNotFound = errors.New("target not found")
	errAlreadyLiked   = errors.New("already liked")
	errNotLiked       = errors.New("not liked")
)

// LikePost records the caller's like on a post and returns the new counter.
func (l *LikeController) LikePost(ctx *gin.Context) {
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

	var count int
	err := l.db.Transaction(func(tx *gorm.DB) error {
		if err := targetPostExists(tx, id); err != nil {
			return err
		}
		var existing models.PostLike
		err := tx.Where("post_id = ? AND user_id = ?", id, caller.ID).First(&existing).Error
		if err == nil {
			return errAlreadyLiked
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err := tx.Create(&models.PostLike{PostID: id, UserID: caller.ID}).Error; err != nil {
			// Unique index backstop: a concurrent like from the same
			// user lost the race and must not double-increment.
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return errAlreadyLiked
			}
			return err
		}
		if err := tx.Model(&models.Post{}).Where("id = ?", id).
			UpdateColumn("like_count", gorm.Expr("like_count + ?", 1)).Error; err != nil {
			return err
		}
		return tx.Model(&models.Post{}).Select("like_count").Where("id = ?", id).Scan(&count).Error
	})
	if err != nil {
		l.respondLikeError(ctx, err, "post", id)
		return
	}

	l.invalidatePostCaches(id)
	utils.Created(ctx, gin.H{
		"message":    fmt.Sprintf("post %d liked successfully", id),
		"like_count": count,
	})
}

// UnlikePost removes the caller's like from a post.
func (l *LikeController) UnlikePost(ctx *gin.Context) {
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

	var count int
	err := l.db.Transaction(func(tx *gorm.DB) error {
		if err := targetPostExists(tx, id); err != nil {
			return err
		}
		res := tx.Where("post_id = ? AND user_id = ?", id, caller.ID).Delete(&models.PostLike{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errNotLiked
		}
		if err := tx.Model(&models.Post{}).Where("id = ?", id).
			UpdateColumn("like_count", gorm.Expr("like_count - ?", 1)).Error; err != nil {
			return err
		}
		return tx.Model(&models.Post{}).Select("like_count").Where("id = ?", id).Scan(&count).Error
	})
	if err != nil {
		l.respondLikeError(ctx, err, "post", id)
		return
	}

	l.invalidatePostCaches(id)
	utils.Success(ctx, gin.H{
		"message":    fmt.Sprintf("post %d unliked successfully", id),
		"like_count": count,
	})
}

// LikeComment records the caller's like on a comment.
func (l *LikeController) LikeComment(ctx *gin.Context) {
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

	var count int
	var postID uint
	err := l.db.Transaction(func(tx *gorm.DB) error {
		comment, err := loadCommentTarget(tx, id)
		if err != nil {
			return err
		}
		postID = comment.PostID
		var existing models.CommentLike
		err = tx.Where("comment_id = ? AND user_id = ?", id, caller.ID).First(&existing).Error
		if err == nil {
			return errAlreadyLiked
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err := tx.Create(&models.CommentLike{CommentID: id, UserID: caller.ID}).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return errAlreadyLiked
			}
			return err
		}
		if err := tx.Model(&models.Comment{}).Where("id = ?", id).
			UpdateColumn("like_count", gorm.Expr("like_count + ?", 1)).Error; err != nil {
			return err
		}
		return tx.Model(&models.Comment{}).Select("like_count").Where("id = ?", id).Scan(&count).Error
	})
	if err != nil {
		l.respondLikeError(ctx, err, "comment", id)
		return
	}

	utils.InvalidateByPrefix(fmt.Sprintf("cache:comments:post:%d", postID))
	utils.Created(ctx, gin.H{
		"message":    fmt.Sprintf("comment %d liked successfully", id),
		"like_count": count,
	})
}

// UnlikeComment removes the caller's like from a comment.
func (l *LikeController) UnlikeComment(ctx *gin.Context) {
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

	var count int
	var postID uint
	err := l.db.Transaction(func(tx *gorm.DB) error {
		comment, err := loadCommentTarget(tx, id)
		if err != nil {
			return err
		}
		postID = comment.PostID
		res := tx.Where("comment_id = ? AND user_id = ?", id, caller.ID).Delete(&models.CommentLike{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errNotLiked
		}
		if err := tx.Model(&models.Comment{}).Where("id = ?", id).
			UpdateColumn("like_count", gorm.Expr("like_count - ?", 1)).Error; err != nil {
			return err
		}
		return tx.Model(&models.Comment{}).Select("like_count").Where("id = ?", id).Scan(&count).Error
	})
	if err != nil {
		l.respondLikeError(ctx, err, "comment", id)
		return
	}

	utils.InvalidateByPrefix(fmt.Sprintf("cache:comments:post:%d", postID))
	utils.Success(ctx, gin.H{
		"message":    fmt.Sprintf("comment %d unliked successfully", id),
		"like_count": count,
	})
}

// ListPostLikers returns the users who liked a post. The listing joins the
// like rows against the user table; the counter is never consulted.
func (l *LikeController) ListPostLikers(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, 40004, "invalid post id")
		return
	}
	limit, skip := parseLimitSkip(ctx)

	if err := targetPostExists(l.db, id); err != nil {
		l.respondLikeError(ctx, err, "post", id)
		return
	}

	var users []models.User
	if err := l.db.Joins("JOIN post_likes ON post_likes.user_id = users.id").
		Where("post_likes.post_id = ?", id).
		Order("post_likes.created_at").
		Offset(skip).Limit(limit).Find(&users).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50030, "failed to list likers")
		return
	}

	views := make([]models.PublicUser, 0, len(users))
	for _, user := range users {
		views = append(views, user.Public())
	}
	utils.Success(ctx, views)
}

// ListCommentLikers returns the users who liked a comment.
func (l *LikeController) ListCommentLikers(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, 40006, "invalid comment id")
		return
	}
	limit, skip := parseLimitSkip(ctx)

	if err := targetCommentExists(l.db, id); err != nil {
		l.respondLikeError(ctx, err, "comment", id)
		return
	}

	var users []models.User
	if err := l.db.Joins("JOIN comment_likes ON comment_likes.user_id = users.id").
		Where("comment_likes.comment_id = ?", id).
		Order("comment_likes.created_at").
		Offset(skip).Limit(limit).Find(&users).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50031, "failed to list likers")
		return
	}

	views := make([]models.PublicUser, 0, len(users))
	for _, user := range users {
		views = append(views, user.Public())
	}
	utils.Success(ctx, views)
}

func targetPostExists(tx *gorm.DB, id uint) error {
	var post models.Post
	if err := tx.Select("id").First(&post, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errTargetNotFound
		}
		return err
	}
	return nil
}

func targetCommentExists(tx *gorm.DB, id uint) error {
	_, err := loadCommentTarget(tx, id)
	return err
}

func loadCommentTarget(tx *gorm.DB, id uint) (models.Comment, error) {
	var comment models.Comment
	if err := tx.Select("id", "post_id").First(&comment, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return comment, errTargetNotFound
		}
		return comment, err
	}
	return comment, nil
}

func (l *LikeController) respondLikeError(ctx *gin.Context, err error, kind string, id uint) {
	switch {
	case errors.Is(err, errTargetNotFound):
		utils.Error(ctx, http.StatusNotFound, 40401, fmt.Sprintf("%s %d does not exist", kind, id))
	case errors.Is(err, errAlreadyLiked):
		utils.Error(ctx, http.StatusConflict, 40902, fmt.Sprintf("%s %d already liked", kind, id))
	case errors.Is(err, errNotLiked):
		utils.Error(ctx, http.StatusNotFound, 40404, fmt.Sprintf("%s %d is not liked", kind, id))
	default:
		utils.Error(ctx, http.StatusInternalServerError, 50032, "like operation failed")
	}
}

func (l *LikeController) invalidatePostCaches(id uint) {
	utils.InvalidateByPrefix(fmt.Sprintf("cache:post:detail:%d", id))
	utils.InvalidateByPrefix("cache:posts:list:")
}
