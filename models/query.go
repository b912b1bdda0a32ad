package models

import (
	"time"

	"gorm.io/gorm"
)

// PostQuery selects the optional clauses applied by ComposePosts.
type PostQuery struct {
	// OnlyVisible restricts results to publicly visible posts: published,
	// category (if any) published, publication date not after today.
	OnlyVisible bool
	// WithCommentCount populates Post.CommentCount for each row.
	WithCommentCount bool
	// Now anchors the visibility cutoff; zero means time.Now().
	Now time.Time
}

// ComposePosts builds the shared post query. Related author, category and
// location rows are always eager-loaded so listings stay at a fixed number
// of statements, and ordering is newest publication first with the title as
// tie-breaker. The returned query performs no writes.
func ComposePosts(db *gorm.DB, q PostQuery) *gorm.DB {
	tx := db.Model(&Post{}).
		Preload("Author").
		Preload("Category").
		Preload("Location")

	// Always pin the select list: left to its own devices gorm enumerates the
	// struct fields, including the virtual comment_count column.
	if q.WithCommentCount {
		tx = tx.Select("posts.*, (SELECT COUNT(*) FROM comments WHERE comments.post_id = posts.id) AS comment_count")
	} else {
		tx = tx.Select("posts.*")
	}

	if q.OnlyVisible {
		now := q.Now
		if now.IsZero() {
			now = time.Now()
		}
		tx = tx.
			Joins("LEFT JOIN categories ON categories.id = posts.category_id").
			Where("posts.is_published = ?", true).
			Where("posts.category_id IS NULL OR categories.is_published = ?", true).
			Where("posts.pub_date < ?", DayEnd(now))
	}

	return tx.Order("posts.pub_date DESC, posts.title ASC")
}

// DayEnd returns the first instant of the day after t in t's location.
// The visibility cutoff has date granularity: a post scheduled for any time
// today is already considered published.
func DayEnd(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location()).AddDate(0, 0, 1)
}
