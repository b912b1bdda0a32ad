package models

import (
	"time"

	"gorm.io/gorm"
)

// Location is an optional geo tag for posts.
type Location struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:256;not null" json:"name"`
	// No column default so an explicit false survives the insert.
	IsPublished bool `gorm:"not null" json:"is_published"`
	CreatedAt   time.Time `json:"created_at"`
	Posts       []Post    `json:"-"`
}

// BeforeDelete clears the location reference on dependent posts.
func (l *Location) BeforeDelete(tx *gorm.DB) error {
	return tx.Model(&Post{}).Where("location_id = ?", l.ID).Update("location_id", nil).Error
}
