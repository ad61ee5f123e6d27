package models

import "time"

// PostLike records that a user liked a post. The composite unique index is
// the source of truth for at-most-one-like-per-user-per-post; concurrent
// duplicate inserts surface as a duplicate key error.
type PostLike struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:uq_post_likes_user_post" json:"user_id"`
	PostID    uint      `gorm:"not null;uniqueIndex:uq_post_likes_user_post" json:"post_id"`
	CreatedAt time.Time `json:"created_at"`
}

// CommentLike records that a user liked a comment.
type CommentLike struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:uq_comment_likes_user_comment" json:"user_id"`
	CommentID uint      `gorm:"not null;uniqueIndex:uq_comment_likes_user_comment" json:"comment_id"`
	CreatedAt time.Time `json:"created_at"`
}
