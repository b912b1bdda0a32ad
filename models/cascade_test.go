package models_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dimoniiio/blogicum/models"
)

func TestDeletePostRemovesComments(t *testing.T) {
	db := newTestDB(t)

	author := models.User{Username: "writer"}
	mustCreate(t, db, &author)
	post := models.Post{Title: "post", IsPublished: true, PubDate: time.Now(), AuthorID: author.ID}
	mustCreate(t, db, &post)
	mustCreate(t, db, &models.Comment{Text: "first", PostID: post.ID, AuthorID: author.ID})
	mustCreate(t, db, &models.Comment{Text: "second", PostID: post.ID, AuthorID: author.ID})

	require.NoError(t, db.Delete(&post).Error)

	var count int64
	db.Model(&models.Comment{}).Where("post_id = ?", post.ID).Count(&count)
	assert.Zero(t, count, "comments must not outlive their post")
}

func TestDeleteUserRemovesPostsAndComments(t *testing.T) {
	db := newTestDB(t)

	leaving := models.User{Username: "leaving"}
	staying := models.User{Username: "staying"}
	mustCreate(t, db, &leaving)
	mustCreate(t, db, &staying)

	ownPost := models.Post{Title: "own", IsPublished: true, PubDate: time.Now(), AuthorID: leaving.ID}
	otherPost := models.Post{Title: "other", IsPublished: true, PubDate: time.Now(), AuthorID: staying.ID}
	mustCreate(t, db, &ownPost)
	mustCreate(t, db, &otherPost)

	// Comment by a third party on the leaving user's post, and a comment by
	// the leaving user on someone else's post.
	mustCreate(t, db, &models.Comment{Text: "on own post", PostID: ownPost.ID, AuthorID: staying.ID})
	mustCreate(t, db, &models.Comment{Text: "elsewhere", PostID: otherPost.ID, AuthorID: leaving.ID})

	require.NoError(t, db.Delete(&leaving).Error)

	var postCount int64
	db.Model(&models.Post{}).Where("author_id = ?", leaving.ID).Count(&postCount)
	assert.Zero(t, postCount, "posts of a deleted user are removed")

	var commentCount int64
	db.Model(&models.Comment{}).Count(&commentCount)
	assert.Zero(t, commentCount, "both the user's comments and comments on their posts are removed")

	var remaining int64
	db.Model(&models.Post{}).Where("author_id = ?", staying.ID).Count(&remaining)
	assert.Equal(t, int64(1), remaining, "other users' posts stay")
}

func TestDeleteCategoryDetachesPosts(t *testing.T) {
	db := newTestDB(t)

	author := models.User{Username: "writer"}
	mustCreate(t, db, &author)
	category := models.Category{Title: "News", Slug: "news", IsPublished: true}
	mustCreate(t, db, &category)
	post := models.Post{Title: "post", IsPublished: true, PubDate: time.Now(), AuthorID: author.ID, CategoryID: &category.ID}
	mustCreate(t, db, &post)

	require.NoError(t, db.Delete(&category).Error)

	var reloaded models.Post
	require.NoError(t, db.First(&reloaded, post.ID).Error)
	assert.Nil(t, reloaded.CategoryID, "posts survive a category removal without a category")
}

func TestDeleteLocationDetachesPosts(t *testing.T) {
	db := newTestDB(t)

	author := models.User{Username: "writer"}
	mustCreate(t, db, &author)
	location := models.Location{Name: "Riverside", IsPublished: true}
	mustCreate(t, db, &location)
	post := models.Post{Title: "post", IsPublished: true, PubDate: time.Now(), AuthorID: author.ID, LocationID: &location.ID}
	mustCreate(t, db, &post)

	require.NoError(t, db.Delete(&location).Error)

	var reloaded models.Post
	require.NoError(t, db.First(&reloaded, post.ID).Error)
	assert.Nil(t, reloaded.LocationID)
}
