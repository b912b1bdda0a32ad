package models

import (
	"time"

	"gorm.io/gorm"
)

// Category groups posts under a unique URL slug. Unpublished categories hide
// every post assigned to them from public listings.
type Category struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Title       string    `gorm:"size:256;not null" json:"title"`
	Description string    `gorm:"type:text" json:"description"`
	Slug        string    `gorm:"size:64;uniqueIndex;not null" json:"slug"`
	// No column default so an explicit false survives the insert.
	IsPublished bool `gorm:"not null" json:"is_published"`
	CreatedAt   time.Time `json:"created_at"`
	Posts       []Post    `json:"-"`
}

// BeforeDelete clears the category reference on dependent posts; removing a
// category never removes its posts.
func (c *Category) BeforeDelete(tx *gorm.DB) error {
	return tx.Model(&Post{}).Where("category_id = ?", c.ID).Update("category_id", nil).Error
}
