package controllers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
	oauthgithub "golang.org/x/oauth2/github"
	"gorm.io/gorm"

	"github.com/dimoniiio/blogicum/config"
	"github.com/dimoniiio/blogicum/middleware"
	"github.com/dimoniiio/blogicum/models"
	"github.com/dimoniiio/blogicum/utils"
)

const sessionDuration = 7 * 24 * time.Hour

// AuthController handles registration, login/logout and GitHub OAuth sign-in.
type AuthController struct {
	db  *gorm.DB
	cfg config.AppConfig
}

// NewAuthController creates an AuthController.
func NewAuthController(db *gorm.DB, cfg config.AppConfig) *AuthController {
	return &AuthController{db: db, cfg: cfg}
}

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9._-]{2,30}$`)

// RegisterForm renders the registration page.
func (a *AuthController) RegisterForm(ctx *gin.Context) {
	a.renderRegister(ctx, "", "", nil)
}

// Register creates a local account. Success redirects to the index without
// signing the new user in.
func (a *AuthController) Register(ctx *gin.Context) {
	username := strings.TrimSpace(ctx.PostForm("username"))
	email := strings.TrimSpace(ctx.PostForm("email"))
	password := ctx.PostForm("password")
	confirm := ctx.PostForm("confirm")

	var errs []string
	if !usernamePattern.MatchString(username) {
		errs = append(errs, "username must be 2-30 characters: letters, digits, . _ -")
	}
	if len(password) < 8 {
		errs = append(errs, "password must be at least 8 characters")
	}
	if password != confirm {
		errs = append(errs, "passwords do not match")
	}
	if a.cfg.RegisterCaptchaEnabled &&
		!utils.VerifyCaptcha(ctx.PostForm("captcha_id"), ctx.PostForm("captcha_answer")) {
		errs = append(errs, "captcha answer is wrong or expired")
	}
	if len(errs) == 0 {
		var count int64
		a.db.Model(&models.User{}).Where("username = ?", username).Count(&count)
		if count > 0 {
			errs = append(errs, "username already exists")
		}
	}

	ip := ctx.ClientIP()
	if len(errs) == 0 {
		if !utils.RegistrationCooldownTry(ip) {
			errs = append(errs, "too many attempts, slow down")
		} else if !utils.RegistrationDailyLimitCheck(ip) {
			errs = append(errs, "daily registration limit reached")
		}
	}
	if len(errs) > 0 {
		a.renderRegister(ctx, username, email, errs)
		return
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		renderServerError(ctx)
		return
	}
	user := models.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		RegisterIP:   ip,
	}
	if err := a.db.Create(&user).Error; err != nil {
		renderServerError(ctx)
		return
	}
	utils.RegistrationRecord(ip)
	utils.InvalidateByPrefix("cache:stats")
	utils.Sugar.Infow("user registered", "username", username, "ip", ip)
	ctx.Redirect(http.StatusFound, "/")
}

// LoginForm renders the login page.
func (a *AuthController) LoginForm(ctx *gin.Context) {
	ctx.HTML(http.StatusOK, "login.tmpl", gin.H{
		"Next": ctx.Query("next"),
		"User": viewer(ctx),
	})
}

// Login verifies credentials and issues the session cookie.
func (a *AuthController) Login(ctx *gin.Context) {
	username := strings.TrimSpace(ctx.PostForm("username"))
	password := ctx.PostForm("password")

	var user models.User
	err := a.db.Where("username = ?", username).First(&user).Error
	if err != nil || !utils.CheckPassword(user.PasswordHash, password) {
		ctx.HTML(http.StatusUnauthorized, "login.tmpl", gin.H{
			"Errors":   []string{"invalid username or password"},
			"Username": username,
			"Next":     ctx.PostForm("next"),
			"User":     viewer(ctx),
		})
		return
	}

	if err := a.setSessionCookie(ctx, &user); err != nil {
		renderServerError(ctx)
		return
	}
	ctx.Redirect(http.StatusFound, safeNext(ctx.PostForm("next")))
}

// Logout revokes the current session token and clears the cookie.
func (a *AuthController) Logout(ctx *gin.Context) {
	if token, err := ctx.Cookie(middleware.SessionCookie); err == nil && token != "" {
		if claims, err := utils.ParseToken(token); err == nil && claims.ExpiresAt != nil {
			utils.RevokeSession(token, claims.ExpiresAt.Time)
		}
	}
	ctx.SetCookie(middleware.SessionCookie, "", -1, "/", "", false, true)
	ctx.Redirect(http.StatusFound, "/")
}

// OAuthRedirect starts the GitHub sign-in flow.
func (a *AuthController) OAuthRedirect(ctx *gin.Context) {
	conf := a.githubOAuthConfig()
	if conf.ClientID == "" {
		renderNotFound(ctx)
		return
	}
	state := uuid.NewString()
	utils.SaveState(state, 10*time.Minute)
	ctx.Redirect(http.StatusFound, conf.AuthCodeURL(state))
}

// OAuthCallback finishes the GitHub sign-in flow: the state token is single
// use, the code is exchanged, and the GitHub identity is mapped onto a local
// user (created on first sign-in).
func (a *AuthController) OAuthCallback(ctx *gin.Context) {
	if !utils.ConsumeState(ctx.Query("state")) {
		ctx.Redirect(http.StatusFound, "/auth/login/")
		return
	}
	conf := a.githubOAuthConfig()
	token, err := conf.Exchange(ctx.Request.Context(), ctx.Query("code"))
	if err != nil {
		utils.Sugar.Warnf("github oauth exchange failed: %v", err)
		ctx.Redirect(http.StatusFound, "/auth/login/")
		return
	}

	identity, err := fetchGitHubUser(ctx.Request.Context(), conf, token)
	if err != nil {
		utils.Sugar.Warnf("github user fetch failed: %v", err)
		ctx.Redirect(http.StatusFound, "/auth/login/")
		return
	}

	user, err := a.userForGitHub(identity, ctx.ClientIP())
	if err != nil {
		renderServerError(ctx)
		return
	}
	if err := a.setSessionCookie(ctx, user); err != nil {
		renderServerError(ctx)
		return
	}
	ctx.Redirect(http.StatusFound, "/")
}

func (a *AuthController) githubOAuthConfig() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     a.cfg.GitHubClientID,
		ClientSecret: a.cfg.GitHubClientSecret,
		Endpoint:     oauthgithub.Endpoint,
		RedirectURL:  a.cfg.OAuthRedirectBase + "/auth/oauth/github/callback",
		Scopes:       []string{"read:user", "user:email"},
	}
}

type githubUser struct {
	ID    int64  `json:"id"`
	Login string `json:"login"`
	Email string `json:"email"`
}

func fetchGitHubUser(ctx context.Context, conf *oauth2.Config, token *oauth2.Token) (*githubUser, error) {
	resp, err := conf.Client(ctx, token).Get("https://api.github.com/user")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("github api status %d", resp.StatusCode)
	}
	var u githubUser
	if err := json.NewDecoder(resp.Body).Decode(&u); err != nil {
		return nil, err
	}
	if u.Login == "" {
		return nil, fmt.Errorf("github user payload missing login")
	}
	return &u, nil
}

// userForGitHub resolves the local account for a GitHub identity, creating
// one with a free username on first sign-in.
func (a *AuthController) userForGitHub(identity *githubUser, ip string) (*models.User, error) {
	providerID := strconv.FormatInt(identity.ID, 10)

	var user models.User
	err := a.db.Where("provider = ? AND provider_id = ?", "github", providerID).First(&user).Error
	if err == nil {
		return &user, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	username := identity.Login
	for i := 0; ; i++ {
		candidate := username
		if i > 0 {
			candidate = fmt.Sprintf("%s-%d", username, i)
		}
		var count int64
		if err := a.db.Model(&models.User{}).Where("username = ?", candidate).Count(&count).Error; err != nil {
			return nil, err
		}
		if count == 0 {
			username = candidate
			break
		}
	}

	user = models.User{
		Username:   username,
		Email:      identity.Email,
		Provider:   "github",
		ProviderID: providerID,
		RegisterIP: ip,
	}
	if err := a.db.Create(&user).Error; err != nil {
		return nil, err
	}
	utils.InvalidateByPrefix("cache:stats")
	return &user, nil
}

func (a *AuthController) setSessionCookie(ctx *gin.Context, user *models.User) error {
	token, err := utils.GenerateToken(user.ID, user.Username, sessionDuration)
	if err != nil {
		return err
	}
	ctx.SetCookie(middleware.SessionCookie, token, int(sessionDuration.Seconds()), "/", "", false, true)
	return nil
}

func (a *AuthController) renderRegister(ctx *gin.Context, username, email string, errs []string) {
	data := gin.H{
		"Username": username,
		"Email":    email,
		"Errors":   errs,
		"User":     viewer(ctx),
	}
	if a.cfg.RegisterCaptchaEnabled {
		if id, b64, err := utils.GenerateCaptcha(); err == nil {
			data["CaptchaID"] = id
			data["CaptchaImage"] = b64
		}
	}
	status := http.StatusOK
	if len(errs) > 0 {
		status = http.StatusBadRequest
	}
	ctx.HTML(status, "registration.tmpl", data)
}

// safeNext keeps post-login redirects on this site.
func safeNext(next string) string {
	if strings.HasPrefix(next, "/") && !strings.HasPrefix(next, "//") {
		return next
	}
	return "/"
}
