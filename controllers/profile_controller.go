package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/dimoniiio/blogicum/config"
	"github.com/dimoniiio/blogicum/models"
	"github.com/dimoniiio/blogicum/utils"
)

// ProfileController serves the author profile pages.
type ProfileController struct {
	db  *gorm.DB
	cfg config.AppConfig
}

// NewProfileController creates a ProfileController.
func NewProfileController(db *gorm.DB, cfg config.AppConfig) *ProfileController {
	return &ProfileController{db: db, cfg: cfg}
}

// Detail renders a user's profile with their posts. The owner sees all of
// their posts, including scheduled and unpublished ones; everyone else sees
// only publicly visible posts.
func (p *ProfileController) Detail(ctx *gin.Context) {
	profile, ok := p.loadProfile(ctx)
	if !ok {
		return
	}
	user := viewer(ctx)
	onlyVisible := user == nil || user.ID != profile.ID

	compose := func(withCount bool) *gorm.DB {
		return models.ComposePosts(p.db, models.PostQuery{OnlyVisible: onlyVisible, WithCommentCount: withCount}).
			Where("posts.author_id = ?", profile.ID)
	}
	posts, pg, err := postPage(compose, parsePage(ctx.Query("page")), p.cfg.PageSize)
	if err != nil {
		renderServerError(ctx)
		return
	}
	ctx.HTML(http.StatusOK, "profile.tmpl", gin.H{
		"Profile":    profile,
		"Posts":      posts,
		"Pagination": pg,
		"User":       user,
	})
}

// EditForm renders the profile form for its owner.
func (p *ProfileController) EditForm(ctx *gin.Context) {
	profile, ok := p.loadProfile(ctx)
	if !ok {
		return
	}
	if !requireProfileOwner(ctx, profile) {
		return
	}
	p.renderProfileForm(ctx, profile, nil)
}

// Edit updates the profile after the owner guard passes. Success triggers a
// best-effort notification mail and redirects to the profile page.
func (p *ProfileController) Edit(ctx *gin.Context) {
	profile, ok := p.loadProfile(ctx)
	if !ok {
		return
	}
	if !requireProfileOwner(ctx, profile) {
		return
	}

	var errs []string
	username := strings.TrimSpace(ctx.PostForm("username"))
	if username == "" {
		errs = append(errs, "username is required")
	} else if username != profile.Username {
		var count int64
		p.db.Model(&models.User{}).Where("username = ?", username).Count(&count)
		if count > 0 {
			errs = append(errs, "username already taken")
		}
	}
	if len(errs) > 0 {
		p.renderProfileForm(ctx, profile, errs)
		return
	}

	profile.Username = username
	profile.FirstName = strings.TrimSpace(ctx.PostForm("first_name"))
	profile.LastName = strings.TrimSpace(ctx.PostForm("last_name"))
	profile.Email = strings.TrimSpace(ctx.PostForm("email"))
	if err := p.db.Save(profile).Error; err != nil {
		renderServerError(ctx)
		return
	}

	if profile.Email != "" {
		utils.SendMailAsync(profile.Email, "Profile updated", "Your profile details were changed.")
	}
	ctx.Redirect(http.StatusFound, "/profile/"+profile.Username+"/")
}

// loadProfile resolves the user addressed by the username route parameter.
func (p *ProfileController) loadProfile(ctx *gin.Context) (*models.User, bool) {
	username := strings.TrimSpace(ctx.Param("username"))
	if username == "" {
		renderNotFound(ctx)
		return nil, false
	}
	var profile models.User
	if err := p.db.Where("username = ?", username).First(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			renderNotFound(ctx)
		} else {
			renderServerError(ctx)
		}
		return nil, false
	}
	return &profile, true
}

func (p *ProfileController) renderProfileForm(ctx *gin.Context, profile *models.User, errs []string) {
	status := http.StatusOK
	if len(errs) > 0 {
		status = http.StatusBadRequest
	}
	ctx.HTML(status, "profile_form.tmpl", gin.H{
		"Profile": profile,
		"Errors":  errs,
		"User":    viewer(ctx),
	})
}
