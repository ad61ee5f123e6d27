package models

import "time"

// User represents a registered account. Passwords are stored as bcrypt hashes only.
type User struct {
	ID           uint       `gorm:"primaryKey" json:"user_id"`
	Username     string     `gorm:"size:50;uniqueIndex;not null" json:"username"`
	FirstName    string     `gorm:"size:50;not null" json:"first_name"`
	LastName     string     `gorm:"size:50;not null" json:"last_name"`
	Email        string     `gorm:"size:100;uniqueIndex;not null" json:"email"`
	Phone        *string    `gorm:"size:20;uniqueIndex" json:"phone,omitempty"`
	Birthdate    *time.Time `gorm:"type:date" json:"birthdate,omitempty"`
	PasswordHash string     `gorm:"size:255;not null" json:"-"`
	Admin        bool       `gorm:"not null;default:false" json:"admin"`
	CreatedAt    time.Time  `json:"created_at"`
}

// PublicUser is the subset of account fields exposed on authored content
// and liker listings.
type PublicUser struct {
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// Public returns the externally visible representation of the user.
func (u User) Public() PublicUser {
	return PublicUser{
		Username:  u.Username,
		FirstName: u.FirstName,
		LastName:  u.LastName,
	}
}
