package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/dimoniiio/blogicum/config"
	"github.com/dimoniiio/blogicum/controllers"
	"github.com/dimoniiio/blogicum/middleware"
	"github.com/dimoniiio/blogicum/utils"
)

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(db *gorm.DB) *gin.Engine {
	cfg := config.Get()
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	// Replace default console logger with file-based zap logger
	gl, err := utils.NewRollingFileLogger(cfg.GinPath, cfg.LogLevel, cfg.LogMaxSizeMB, cfg.LogMaxBackups, cfg.LogMaxAgeDays, cfg.LogCompress)
	if err == nil {
		r.Use(utils.Ginzap(gl, time.RFC3339, true))
		r.Use(utils.RecoveryWithZap(gl, false))
	} else {
		r.Use(gin.Recovery())
	}

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	// Resolve the signed-in user once per request
	r.Use(middleware.SessionUser(db))
	// Record PV after each request
	r.Use(middleware.PageViewRecorder(db))

	r.LoadHTMLGlob(cfg.TemplateGlob)
	r.Static("/static", cfg.StaticDir)
	r.Static("/media", cfg.MediaDir)

	r.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"status": "ok"})
	})

	postController := controllers.NewPostController(db, cfg)
	commentController := controllers.NewCommentController(db, cfg)
	profileController := controllers.NewProfileController(db, cfg)
	authController := controllers.NewAuthController(db, cfg)
	statsController := controllers.NewStatsController(db)

	r.GET("/", postController.Index)
	r.GET("/category/:slug/", postController.CategoryPosts)

	staticPage := func(tmpl string) gin.HandlerFunc {
		return func(ctx *gin.Context) {
			u, _ := middleware.CurrentUser(ctx)
			ctx.HTML(http.StatusOK, tmpl, gin.H{"User": u})
		}
	}
	pages := r.Group("/pages")
	pages.GET("/about/", staticPage("about.tmpl"))
	pages.GET("/rules/", staticPage("rules.tmpl"))

	posts := r.Group("/posts")
	posts.GET("/create/", middleware.LoginRequired(), postController.CreateForm)
	posts.POST("/create/", middleware.LoginRequired(), postController.Create)
	posts.GET("/:post_id/", postController.Detail)
	posts.POST("/:post_id/", postController.Detail)
	posts.GET("/:post_id/edit/", middleware.LoginRequired(), postController.EditForm)
	posts.POST("/:post_id/edit/", middleware.LoginRequired(), postController.Edit)
	posts.GET("/:post_id/delete/", middleware.LoginRequired(), postController.DeleteForm)
	posts.POST("/:post_id/delete/", middleware.LoginRequired(), postController.Delete)
	posts.POST("/:post_id/comment/", middleware.LoginRequired(), commentController.Add)
	posts.GET("/:post_id/edit_comment/:comment_id/", middleware.LoginRequired(), commentController.EditForm)
	posts.POST("/:post_id/edit_comment/:comment_id/", middleware.LoginRequired(), commentController.Edit)
	posts.POST("/:post_id/delete_comment/:comment_id/", middleware.LoginRequired(), commentController.Delete)

	profile := r.Group("/profile")
	profile.GET("/:username/", profileController.Detail)
	profile.GET("/:username/edit/", middleware.LoginRequired(), profileController.EditForm)
	profile.POST("/:username/edit/", middleware.LoginRequired(), profileController.Edit)

	auth := r.Group("/auth")
	auth.Use(middleware.RateLimit())
	auth.GET("/registration/", authController.RegisterForm)
	auth.POST("/registration/", authController.Register)
	auth.GET("/login/", authController.LoginForm)
	auth.POST("/login/", authController.Login)
	auth.POST("/logout/", authController.Logout)
	auth.GET("/oauth/github/login", authController.OAuthRedirect)
	auth.GET("/oauth/github/callback", authController.OAuthCallback)

	api := r.Group("/api/v1")
	api.GET("/stats", statsController.Site)

	r.NoRoute(func(ctx *gin.Context) {
		if strings.HasPrefix(ctx.Request.URL.Path, "/api/") {
			utils.Error(ctx, http.StatusNotFound, 40400, "api route not found")
			return
		}
		ctx.HTML(http.StatusNotFound, "404.tmpl", gin.H{})
	})

	return r
}
