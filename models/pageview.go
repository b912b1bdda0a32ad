package models

import "time"

// PageView aggregates successful content-page views per day and path.
type PageView struct {
	ID    uint      `gorm:"primaryKey" json:"id"`
	Date  time.Time `gorm:"index:idx_pageviews_day_path,unique;type:date;not null" json:"date"`
	Path  string    `gorm:"index:idx_pageviews_day_path,unique;size:255;not null" json:"path"`
	Count int64     `gorm:"not null;default:0" json:"count"`
}
