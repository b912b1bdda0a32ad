package models

import (
	"time"

	"gorm.io/gorm"
)

// Post is a blog publication. Scheduled publishing is expressed through a
// future PubDate; such posts stay hidden from everyone but their author
// until the publication date arrives.
type Post struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Title       string    `gorm:"size:256;not null" json:"title"`
	Text        string    `gorm:"type:text;not null" json:"text"`
	PubDate     time.Time `gorm:"index;not null" json:"pub_date"`
	Image       string    `gorm:"size:512" json:"image"`
	// No column default: gorm drops zero values for defaulted columns on
	// insert, which would turn an explicit false into true. The create form
	// supplies the default instead.
	IsPublished bool `gorm:"not null" json:"is_published"`
	AuthorID    uint      `gorm:"index;not null" json:"author_id"`
	LocationID  *uint     `gorm:"index" json:"location_id"`
	CategoryID  *uint     `gorm:"index" json:"category_id"`
	CreatedAt   time.Time `json:"created_at"`
	Author      User      `json:"author"`
	Location    *Location `json:"location,omitempty"`
	Category    *Category `json:"category,omitempty"`
	Comments    []Comment `json:"-"`

	// CommentCount is populated by ComposePosts when requested; never persisted.
	CommentCount int64 `gorm:"->;-:migration" json:"comment_count"`
}

// VisibleAt reports whether the post is publicly visible at t: published,
// assigned category (if any) published, publication date no later than the
// end of t's day. Category must be preloaded for the category check.
func (p *Post) VisibleAt(t time.Time) bool {
	if !p.IsPublished {
		return false
	}
	if p.CategoryID != nil && (p.Category == nil || !p.Category.IsPublished) {
		return false
	}
	return p.PubDate.Before(DayEnd(t))
}

// BeforeDelete removes the comments attached to the post.
func (p *Post) BeforeDelete(tx *gorm.DB) error {
	return tx.Where("post_id = ?", p.ID).Delete(&Comment{}).Error
}
