package models

import "time"

// Comment is a reply to a post. Comments are shown oldest first and are never
// hidden independently of their post.
type Comment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Text      string    `gorm:"type:text;not null" json:"text"`
	PostID    uint      `gorm:"index;not null" json:"post_id"`
	AuthorID  uint      `gorm:"index;not null" json:"author_id"`
	CreatedAt time.Time `json:"created_at"`
	Author    User      `json:"author"`
}
