package models_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/dimoniiio/blogicum/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	require.NoError(t, err, "open sqlite test database")
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Category{},
		&models.Location{},
		&models.Post{},
		&models.Comment{},
		&models.PageView{},
	))
	return db
}

func mustCreate(t *testing.T, db *gorm.DB, value any) {
	t.Helper()
	require.NoError(t, db.Create(value).Error)
}

func TestUnpublishedFlagRoundTrip(t *testing.T) {
	db := newTestDB(t)

	author := models.User{Username: "writer"}
	mustCreate(t, db, &author)

	post := models.Post{Title: "draft", IsPublished: false, PubDate: time.Now(), AuthorID: author.ID}
	mustCreate(t, db, &post)
	var gotPost models.Post
	require.NoError(t, db.First(&gotPost, post.ID).Error)
	assert.False(t, gotPost.IsPublished, "a draft must still be a draft after reload")

	category := models.Category{Title: "Hidden", Slug: "hidden", IsPublished: false}
	mustCreate(t, db, &category)
	var gotCategory models.Category
	require.NoError(t, db.First(&gotCategory, category.ID).Error)
	assert.False(t, gotCategory.IsPublished)

	location := models.Location{Name: "Nowhere", IsPublished: false}
	mustCreate(t, db, &location)
	var gotLocation models.Location
	require.NoError(t, db.First(&gotLocation, location.ID).Error)
	assert.False(t, gotLocation.IsPublished)
}

func TestComposePostsVisibility(t *testing.T) {
	db := newTestDB(t)
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	author := models.User{Username: "writer"}
	mustCreate(t, db, &author)

	active := models.Category{Title: "News", Slug: "news", IsPublished: true}
	hidden := models.Category{Title: "Drafts", Slug: "drafts", IsPublished: false}
	mustCreate(t, db, &active)
	mustCreate(t, db, &hidden)

	posts := []models.Post{
		{Title: "visible", IsPublished: true, PubDate: now.Add(-time.Hour), AuthorID: author.ID, CategoryID: &active.ID},
		{Title: "no category", IsPublished: true, PubDate: now.Add(-2 * time.Hour), AuthorID: author.ID},
		{Title: "later today", IsPublished: true, PubDate: now.Add(10 * time.Hour), AuthorID: author.ID, CategoryID: &active.ID},
		{Title: "unpublished", IsPublished: false, PubDate: now.Add(-time.Hour), AuthorID: author.ID, CategoryID: &active.ID},
		{Title: "hidden category", IsPublished: true, PubDate: now.Add(-time.Hour), AuthorID: author.ID, CategoryID: &hidden.ID},
		{Title: "tomorrow", IsPublished: true, PubDate: now.AddDate(0, 0, 1), AuthorID: author.ID, CategoryID: &active.ID},
	}
	for i := range posts {
		mustCreate(t, db, &posts[i])
	}

	var got []models.Post
	require.NoError(t, models.ComposePosts(db, models.PostQuery{OnlyVisible: true, Now: now}).Find(&got).Error)

	titles := make([]string, 0, len(got))
	for _, p := range got {
		titles = append(titles, p.Title)
	}
	assert.ElementsMatch(t, []string{"visible", "no category", "later today"}, titles,
		"visible set: published posts with a published or absent category, dated no later than today")
}

func TestComposePostsOrdering(t *testing.T) {
	db := newTestDB(t)
	now := time.Now()

	author := models.User{Username: "writer"}
	mustCreate(t, db, &author)

	sameDate := now.Add(-48 * time.Hour)
	mustCreate(t, db, &models.Post{Title: "banana", IsPublished: true, PubDate: sameDate, AuthorID: author.ID})
	mustCreate(t, db, &models.Post{Title: "apple", IsPublished: true, PubDate: sameDate, AuthorID: author.ID})
	mustCreate(t, db, &models.Post{Title: "newest", IsPublished: true, PubDate: now.Add(-time.Hour), AuthorID: author.ID})

	var got []models.Post
	require.NoError(t, models.ComposePosts(db, models.PostQuery{OnlyVisible: true}).Find(&got).Error)
	require.Len(t, got, 3)
	assert.Equal(t, "newest", got[0].Title, "newest publication date first")
	assert.Equal(t, "apple", got[1].Title, "title breaks publication date ties")
	assert.Equal(t, "banana", got[2].Title)
}

func TestComposePostsCommentCount(t *testing.T) {
	db := newTestDB(t)

	author := models.User{Username: "writer"}
	mustCreate(t, db, &author)
	commenter := models.User{Username: "reader"}
	mustCreate(t, db, &commenter)

	talked := models.Post{Title: "talked about", IsPublished: true, PubDate: time.Now().Add(-time.Hour), AuthorID: author.ID}
	quiet := models.Post{Title: "quiet", IsPublished: true, PubDate: time.Now().Add(-2 * time.Hour), AuthorID: author.ID}
	mustCreate(t, db, &talked)
	mustCreate(t, db, &quiet)

	for i := 0; i < 3; i++ {
		mustCreate(t, db, &models.Comment{Text: "hi", PostID: talked.ID, AuthorID: commenter.ID})
	}

	var got []models.Post
	require.NoError(t, models.ComposePosts(db, models.PostQuery{WithCommentCount: true}).Find(&got).Error)

	counts := map[string]int64{}
	for _, p := range got {
		counts[p.Title] = p.CommentCount
	}
	assert.Equal(t, int64(3), counts["talked about"])
	assert.Equal(t, int64(0), counts["quiet"])
}

func TestPostVisibleAt(t *testing.T) {
	now := time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC)

	t.Run("PublishedToday", func(t *testing.T) {
		p := models.Post{IsPublished: true, PubDate: now.Add(14 * time.Hour)}
		assert.True(t, p.VisibleAt(now), "any time today counts as published")
	})

	t.Run("Tomorrow", func(t *testing.T) {
		p := models.Post{IsPublished: true, PubDate: now.AddDate(0, 0, 1)}
		assert.False(t, p.VisibleAt(now))
	})

	t.Run("Unpublished", func(t *testing.T) {
		p := models.Post{IsPublished: false, PubDate: now.Add(-time.Hour)}
		assert.False(t, p.VisibleAt(now))
	})

	t.Run("HiddenCategory", func(t *testing.T) {
		hidden := models.Category{IsPublished: false}
		hidden.ID = 2
		p := models.Post{IsPublished: true, PubDate: now.Add(-time.Hour), CategoryID: &hidden.ID, Category: &hidden}
		assert.False(t, p.VisibleAt(now))
	})

	t.Run("NoCategory", func(t *testing.T) {
		p := models.Post{IsPublished: true, PubDate: now.Add(-time.Hour)}
		assert.True(t, p.VisibleAt(now))
	})
}

func TestDayEnd(t *testing.T) {
	in := time.Date(2026, 8, 30, 23, 59, 59, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC), models.DayEnd(in))

	in = time.Date(2026, 12, 31, 1, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC), models.DayEnd(in))
}
