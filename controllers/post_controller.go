package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dimoniiio/blogicum/config"
	"github.com/dimoniiio/blogicum/models"
	"github.com/dimoniiio/blogicum/utils"
)

// PostController serves the post pages: index and category listings, post
// detail, and the authenticated create/edit/delete flows.
type PostController struct {
	db  *gorm.DB
	cfg config.AppConfig
}

// NewPostController creates a PostController.
func NewPostController(db *gorm.DB, cfg config.AppConfig) *PostController {
	return &PostController{db: db, cfg: cfg}
}

// Index renders the landing page: publicly visible posts with comment counts,
// newest publication first.
func (p *PostController) Index(ctx *gin.Context) {
	compose := func(withCount bool) *gorm.DB {
		return models.ComposePosts(p.db, models.PostQuery{OnlyVisible: true, WithCommentCount: withCount})
	}
	posts, pg, err := postPage(compose, parsePage(ctx.Query("page")), p.cfg.PageSize)
	if err != nil {
		renderServerError(ctx)
		return
	}
	ctx.HTML(http.StatusOK, "index.tmpl", gin.H{
		"Posts":      posts,
		"Pagination": pg,
		"User":       viewer(ctx),
	})
}

// CategoryPosts renders the visible posts of one published category.
// Unknown or unpublished categories answer 404.
func (p *PostController) CategoryPosts(ctx *gin.Context) {
	category, err := p.publishedCategory(strings.TrimSpace(ctx.Param("slug")))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			renderNotFound(ctx)
		} else {
			renderServerError(ctx)
		}
		return
	}

	compose := func(withCount bool) *gorm.DB {
		return models.ComposePosts(p.db, models.PostQuery{OnlyVisible: true, WithCommentCount: withCount}).
			Where("posts.category_id = ?", category.ID)
	}
	posts, pg, err := postPage(compose, parsePage(ctx.Query("page")), p.cfg.PageSize)
	if err != nil {
		renderServerError(ctx)
		return
	}
	ctx.HTML(http.StatusOK, "category.tmpl", gin.H{
		"Category":   category,
		"Posts":      posts,
		"Pagination": pg,
		"User":       viewer(ctx),
	})
}

// publishedCategory resolves a published category by slug, read-through
// cached. Categories change only through the back office, so a short TTL
// covers invalidation.
func (p *PostController) publishedCategory(slug string) (*models.Category, error) {
	key := "cache:category:slug:" + slug
	var category models.Category
	if utils.CacheGetJSON(key, &category) {
		return &category, nil
	}
	if err := p.db.Where("slug = ? AND is_published = ?", slug, true).First(&category).Error; err != nil {
		return nil, err
	}
	utils.CacheSetJSON(key, category, 10*time.Minute)
	return &category, nil
}

// Detail renders one post with its comments (oldest first) and an empty
// comment form. Posts outside the visibility invariant answer 404 for
// everyone but their author.
func (p *PostController) Detail(ctx *gin.Context) {
	post, ok := p.loadPost(ctx)
	if !ok {
		return
	}
	user := viewer(ctx)
	if (user == nil || user.ID != post.AuthorID) && !post.VisibleAt(time.Now()) {
		renderNotFound(ctx)
		return
	}

	var comments []models.Comment
	if err := p.db.Where("post_id = ?", post.ID).Order("created_at ASC").Preload("Author").Find(&comments).Error; err != nil {
		renderServerError(ctx)
		return
	}
	ctx.HTML(http.StatusOK, "post_detail.tmpl", gin.H{
		"Post":     post,
		"Comments": comments,
		"User":     user,
	})
}

// CreateForm renders the empty post form. New posts start published.
func (p *PostController) CreateForm(ctx *gin.Context) {
	p.renderPostForm(ctx, postFormData{PubDate: time.Now(), IsPublished: true}, nil)
}

// Create stores a new post. The author is always the requester, never
// client-supplied. Success redirects to the author's profile.
func (p *PostController) Create(ctx *gin.Context) {
	user := viewer(ctx)
	form := p.bindPostForm(ctx)
	if len(form.Errors) > 0 {
		p.renderPostForm(ctx, form, nil)
		return
	}

	image, err := p.savePostImage(ctx)
	if err != nil {
		form.Errors = append(form.Errors, err.Error())
		p.renderPostForm(ctx, form, nil)
		return
	}

	post := models.Post{
		Title:       form.Title,
		Text:        form.Text,
		PubDate:     form.PubDate,
		Image:       image,
		IsPublished: form.IsPublished,
		AuthorID:    user.ID,
		CategoryID:  form.CategoryID,
		LocationID:  form.LocationID,
	}
	if err := p.db.Create(&post).Error; err != nil {
		renderServerError(ctx)
		return
	}

	utils.InvalidateByPrefix("cache:stats")
	ctx.Redirect(http.StatusFound, "/profile/"+user.Username+"/")
}

// EditForm renders the post form pre-filled with the post under edit.
func (p *PostController) EditForm(ctx *gin.Context) {
	post, ok := p.loadPost(ctx)
	if !ok {
		return
	}
	if !requirePostAuthor(ctx, post) {
		return
	}
	p.renderPostForm(ctx, postFormFromPost(post), post)
}

// Edit updates a post after the author guard passes. Success redirects to the
// post detail page.
func (p *PostController) Edit(ctx *gin.Context) {
	post, ok := p.loadPost(ctx)
	if !ok {
		return
	}
	if !requirePostAuthor(ctx, post) {
		return
	}

	form := p.bindPostForm(ctx)
	if len(form.Errors) > 0 {
		p.renderPostForm(ctx, form, post)
		return
	}
	image, err := p.savePostImage(ctx)
	if err != nil {
		form.Errors = append(form.Errors, err.Error())
		p.renderPostForm(ctx, form, post)
		return
	}

	post.Title = form.Title
	post.Text = form.Text
	post.PubDate = form.PubDate
	post.IsPublished = form.IsPublished
	post.CategoryID = form.CategoryID
	post.LocationID = form.LocationID
	if image != "" {
		post.Image = image
	}
	if err := p.db.Save(post).Error; err != nil {
		renderServerError(ctx)
		return
	}
	ctx.Redirect(http.StatusFound, fmt.Sprintf("/posts/%d/", post.ID))
}

// DeleteForm renders the delete confirmation page.
func (p *PostController) DeleteForm(ctx *gin.Context) {
	post, ok := p.loadPost(ctx)
	if !ok {
		return
	}
	if !requirePostAuthor(ctx, post) {
		return
	}
	p.renderPostForm(ctx, postFormFromPost(post), post)
}

// Delete removes a post (and its comments) after the author guard passes.
// Success redirects to the index.
func (p *PostController) Delete(ctx *gin.Context) {
	post, ok := p.loadPost(ctx)
	if !ok {
		return
	}
	if !requirePostAuthor(ctx, post) {
		return
	}
	if err := p.db.Delete(post).Error; err != nil {
		renderServerError(ctx)
		return
	}
	utils.InvalidateByPrefix("cache:stats")
	ctx.Redirect(http.StatusFound, "/")
}

// loadPost fetches the post addressed by the route with its related rows.
// On failure the response is already written and ok is false.
func (p *PostController) loadPost(ctx *gin.Context) (*models.Post, bool) {
	id, err := strconv.Atoi(ctx.Param("post_id"))
	if err != nil || id <= 0 {
		renderNotFound(ctx)
		return nil, false
	}
	var post models.Post
	if err := p.db.Preload("Author").Preload("Category").Preload("Location").First(&post, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			renderNotFound(ctx)
		} else {
			renderServerError(ctx)
		}
		return nil, false
	}
	return &post, true
}

type postFormData struct {
	Title       string
	Text        string
	PubDate     time.Time
	IsPublished bool
	CategoryID  *uint
	LocationID  *uint
	Errors      []string
}

// CategorySelected reports whether the form currently points at category id.
func (f postFormData) CategorySelected(id uint) bool {
	return f.CategoryID != nil && *f.CategoryID == id
}

// LocationSelected reports whether the form currently points at location id.
func (f postFormData) LocationSelected(id uint) bool {
	return f.LocationID != nil && *f.LocationID == id
}

func postFormFromPost(post *models.Post) postFormData {
	return postFormData{
		Title:       post.Title,
		Text:        post.Text,
		PubDate:     post.PubDate,
		IsPublished: post.IsPublished,
		CategoryID:  post.CategoryID,
		LocationID:  post.LocationID,
	}
}

var pubDateLayouts = []string{"2006-01-02T15:04", "2006-01-02 15:04", "2006-01-02"}

// bindPostForm reads and validates the post form. User-supplied markup is
// sanitized before validation so an all-markup title counts as empty.
func (p *PostController) bindPostForm(ctx *gin.Context) postFormData {
	var f postFormData

	f.Title = utils.SanitizeText(strings.TrimSpace(ctx.PostForm("title")))
	if f.Title == "" {
		f.Errors = append(f.Errors, "title is required")
	} else if utf8.RuneCountInString(f.Title) > p.cfg.TitleMaxLen {
		f.Errors = append(f.Errors, fmt.Sprintf("title must be at most %d characters", p.cfg.TitleMaxLen))
	}

	f.Text = utils.Sanitize(ctx.PostForm("text"))
	if strings.TrimSpace(f.Text) == "" {
		f.Errors = append(f.Errors, "text is required")
	}

	if raw := strings.TrimSpace(ctx.PostForm("pub_date")); raw == "" {
		f.PubDate = time.Now()
	} else {
		parsed := false
		for _, layout := range pubDateLayouts {
			if t, err := time.ParseInLocation(layout, raw, time.Local); err == nil {
				f.PubDate = t
				parsed = true
				break
			}
		}
		if !parsed {
			f.Errors = append(f.Errors, "invalid publication date")
		}
	}

	f.IsPublished = ctx.PostForm("is_published") != ""

	if raw := strings.TrimSpace(ctx.PostForm("category_id")); raw != "" {
		if id, err := strconv.Atoi(raw); err == nil && id > 0 {
			var category models.Category
			if err := p.db.First(&category, id).Error; err == nil {
				f.CategoryID = &category.ID
			} else {
				f.Errors = append(f.Errors, "unknown category")
			}
		} else {
			f.Errors = append(f.Errors, "invalid category")
		}
	}
	if raw := strings.TrimSpace(ctx.PostForm("location_id")); raw != "" {
		if id, err := strconv.Atoi(raw); err == nil && id > 0 {
			var location models.Location
			if err := p.db.First(&location, id).Error; err == nil {
				f.LocationID = &location.ID
			} else {
				f.Errors = append(f.Errors, "unknown location")
			}
		} else {
			f.Errors = append(f.Errors, "invalid location")
		}
	}

	return f
}

var allowedImageExts = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true,
}

// savePostImage stores an optional uploaded image under the media directory
// and returns its public URL. Returns "" when no file was sent.
func (p *PostController) savePostImage(ctx *gin.Context) (string, error) {
	file, err := ctx.FormFile("image")
	if err != nil {
		return "", nil // image is optional
	}
	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !allowedImageExts[ext] {
		return "", fmt.Errorf("unsupported image type %s", ext)
	}
	dir := filepath.Join(p.cfg.MediaDir, "post_images")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("prepare media directory: %w", err)
	}
	name := uuid.NewString() + ext
	if err := ctx.SaveUploadedFile(file, filepath.Join(dir, name)); err != nil {
		return "", fmt.Errorf("store image: %w", err)
	}
	return "/media/post_images/" + name, nil
}

// renderPostForm renders the create/edit/delete-confirmation form. post is
// nil when creating.
func (p *PostController) renderPostForm(ctx *gin.Context, form postFormData, post *models.Post) {
	var categories []models.Category
	var locations []models.Location
	p.db.Order("title ASC").Find(&categories)
	p.db.Order("name ASC").Find(&locations)

	status := http.StatusOK
	if len(form.Errors) > 0 {
		status = http.StatusBadRequest
	}
	ctx.HTML(status, "post_form.tmpl", gin.H{
		"Form":       form,
		"Post":       post,
		"Categories": categories,
		"Locations":  locations,
		"User":       viewer(ctx),
	})
}
