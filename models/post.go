package models

import "time"

// Post represents a blog post created by a user. LikeCount is a cached
// aggregate of PostLike rows and is only ever adjusted inside the same
// transaction that changes those rows.
type Post struct {
	ID        uint      `gorm:"primaryKey" json:"post_id"`
	UserID    uint      `gorm:"index;not null" json:"user_id"`
	Title     string    `gorm:"size:100;not null" json:"title"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	LikeCount int       `gorm:"not null;default:0" json:"like_count"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	User      User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
}
