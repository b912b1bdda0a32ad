package controllers

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/dimoniiio/blogicum/middleware"
	"github.com/dimoniiio/blogicum/models"
)

// Ownership guards. Each guard runs before any mutation: a denied request is
// answered with a redirect (never a 403) and causes zero state change. The
// caller must return immediately when a guard reports false.

// requirePostAuthor permits the request iff the requester authored the post.
// Denials redirect to the post's detail page.
func requirePostAuthor(ctx *gin.Context, post *models.Post) bool {
	user, ok := middleware.CurrentUser(ctx)
	if ok && post.AuthorID == user.ID {
		return true
	}
	ctx.Redirect(http.StatusFound, fmt.Sprintf("/posts/%d/", post.ID))
	return false
}

// requireCommentAuthor permits the request iff the requester authored the
// comment. Denials redirect to the detail page of the comment's post.
func requireCommentAuthor(ctx *gin.Context, comment *models.Comment) bool {
	user, ok := middleware.CurrentUser(ctx)
	if ok && comment.AuthorID == user.ID {
		return true
	}
	ctx.Redirect(http.StatusFound, fmt.Sprintf("/posts/%d/", comment.PostID))
	return false
}

// requireProfileOwner permits the request iff the requester is the target
// user. Denials redirect to the login page.
func requireProfileOwner(ctx *gin.Context, target *models.User) bool {
	user, ok := middleware.CurrentUser(ctx)
	if ok && user.ID == target.ID {
		return true
	}
	ctx.Redirect(http.StatusFound, "/auth/login/?next="+url.QueryEscape(ctx.Request.URL.RequestURI()))
	return false
}
