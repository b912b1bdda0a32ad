package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// User is a registered author of posts and comments.
// Passwords are stored as bcrypt hashes only.
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"size:64;uniqueIndex;not null" json:"username"`
	Email        string    `gorm:"size:255" json:"email"`
	FirstName    string    `gorm:"size:64" json:"first_name"`
	LastName     string    `gorm:"size:64" json:"last_name"`
	PasswordHash string    `gorm:"size:255" json:"-"`
	Provider     string    `gorm:"size:32" json:"-"`
	ProviderID   string    `gorm:"size:255" json:"-"`
	RegisterIP   string    `gorm:"size:45" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	Posts        []Post    `gorm:"foreignKey:AuthorID" json:"-"`
	Comments     []Comment `gorm:"foreignKey:AuthorID" json:"-"`
}

// DisplayName returns the full name when set, otherwise the username.
func (u *User) DisplayName() string {
	full := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if full == "" {
		return u.Username
	}
	return full
}

// BeforeDelete removes the user's posts and comments. Deleting a post also
// removes the comments attached to it, so post deletion goes through the
// Post hook rather than a bulk statement.
func (u *User) BeforeDelete(tx *gorm.DB) error {
	var posts []Post
	if err := tx.Where("author_id = ?", u.ID).Find(&posts).Error; err != nil {
		return err
	}
	for i := range posts {
		if err := tx.Delete(&posts[i]).Error; err != nil {
			return err
		}
	}
	return tx.Where("author_id = ?", u.ID).Delete(&Comment{}).Error
}
