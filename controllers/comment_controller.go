package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/dimoniiio/blogicum/config"
	"github.com/dimoniiio/blogicum/models"
	"github.com/dimoniiio/blogicum/utils"
)

// CommentController serves the add/edit/delete comment flows. Every outcome
// lands back on the detail page of the comment's post.
type CommentController struct {
	db  *gorm.DB
	cfg config.AppConfig
}

// NewCommentController creates a CommentController.
func NewCommentController(db *gorm.DB, cfg config.AppConfig) *CommentController {
	return &CommentController{db: db, cfg: cfg}
}

// Add attaches a comment to a post. Author and post are bound server-side.
// Invalid input redirects to the detail page without saving anything.
func (c *CommentController) Add(ctx *gin.Context) {
	user := viewer(ctx)
	id, err := strconv.Atoi(ctx.Param("post_id"))
	if err != nil || id <= 0 {
		renderNotFound(ctx)
		return
	}
	var post models.Post
	if err := c.db.Preload("Category").First(&post, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			renderNotFound(ctx)
		} else {
			renderServerError(ctx)
		}
		return
	}
	if !c.cfg.AllowCommentsOnHidden && post.AuthorID != user.ID && !post.VisibleAt(time.Now()) {
		renderNotFound(ctx)
		return
	}

	detailURL := fmt.Sprintf("/posts/%d/", post.ID)
	text := utils.Sanitize(strings.TrimSpace(ctx.PostForm("text")))
	if text == "" {
		// Invalid submissions are silently dropped.
		ctx.Redirect(http.StatusFound, detailURL)
		return
	}

	comment := models.Comment{Text: text, PostID: post.ID, AuthorID: user.ID}
	if err := c.db.Create(&comment).Error; err != nil {
		renderServerError(ctx)
		return
	}
	utils.InvalidateByPrefix("cache:stats")
	ctx.Redirect(http.StatusFound, detailURL)
}

// EditForm renders the comment form pre-filled with the comment under edit.
func (c *CommentController) EditForm(ctx *gin.Context) {
	comment, ok := c.loadComment(ctx)
	if !ok {
		return
	}
	if !requireCommentAuthor(ctx, comment) {
		return
	}
	c.renderCommentForm(ctx, comment, comment.Text, nil)
}

// Edit updates a comment after the author guard passes.
func (c *CommentController) Edit(ctx *gin.Context) {
	comment, ok := c.loadComment(ctx)
	if !ok {
		return
	}
	if !requireCommentAuthor(ctx, comment) {
		return
	}

	text := utils.Sanitize(strings.TrimSpace(ctx.PostForm("text")))
	if text == "" {
		c.renderCommentForm(ctx, comment, text, []string{"text is required"})
		return
	}
	comment.Text = text
	if err := c.db.Save(comment).Error; err != nil {
		renderServerError(ctx)
		return
	}
	ctx.Redirect(http.StatusFound, fmt.Sprintf("/posts/%d/", comment.PostID))
}

// Delete removes a comment after the author guard passes.
func (c *CommentController) Delete(ctx *gin.Context) {
	comment, ok := c.loadComment(ctx)
	if !ok {
		return
	}
	if !requireCommentAuthor(ctx, comment) {
		return
	}
	if err := c.db.Delete(comment).Error; err != nil {
		renderServerError(ctx)
		return
	}
	utils.InvalidateByPrefix("cache:stats")
	ctx.Redirect(http.StatusFound, fmt.Sprintf("/posts/%d/", comment.PostID))
}

// loadComment resolves the comment by its composite route key: the comment id
// scoped under the post id. A comment reached through the wrong post is a 404.
func (c *CommentController) loadComment(ctx *gin.Context) (*models.Comment, bool) {
	commentID, err1 := strconv.Atoi(ctx.Param("comment_id"))
	postID, err2 := strconv.Atoi(ctx.Param("post_id"))
	if err1 != nil || err2 != nil || commentID <= 0 || postID <= 0 {
		renderNotFound(ctx)
		return nil, false
	}
	var comment models.Comment
	if err := c.db.Where("id = ? AND post_id = ?", commentID, postID).First(&comment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			renderNotFound(ctx)
		} else {
			renderServerError(ctx)
		}
		return nil, false
	}
	return &comment, true
}

func (c *CommentController) renderCommentForm(ctx *gin.Context, comment *models.Comment, text string, errs []string) {
	status := http.StatusOK
	if len(errs) > 0 {
		status = http.StatusBadRequest
	}
	ctx.HTML(status, "comment_form.tmpl", gin.H{
		"Comment": comment,
		"Text":    text,
		"Errors":  errs,
		"User":    viewer(ctx),
	})
}
