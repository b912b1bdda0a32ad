package middleware

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/dimoniiio/blogicum/models"
	"github.com/dimoniiio/blogicum/utils"
)

const (
	// SessionCookie carries the signed session token.
	SessionCookie = "blogicum_session"
	// ContextUserKey stores the authenticated *models.User in the Gin context.
	ContextUserKey = "current_user"
)

// SessionUser resolves the session cookie and loads the requesting user into
// the context. Anonymous or invalid sessions pass through unauthenticated.
func SessionUser(db *gorm.DB) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		token, err := ctx.Cookie(SessionCookie)
		if err != nil || token == "" {
			ctx.Next()
			return
		}
		if utils.IsSessionRevoked(token) {
			ctx.Next()
			return
		}
		claims, err := utils.ParseToken(token)
		if err != nil {
			ctx.Next()
			return
		}
		var user models.User
		if err := db.First(&user, claims.UserID).Error; err != nil {
			ctx.Next()
			return
		}
		ctx.Set(ContextUserKey, &user)
		ctx.Next()
	}
}

// CurrentUser returns the authenticated user, if any.
func CurrentUser(ctx *gin.Context) (*models.User, bool) {
	v, ok := ctx.Get(ContextUserKey)
	if !ok {
		return nil, false
	}
	u, ok := v.(*models.User)
	return u, ok && u != nil
}

// LoginRequired redirects anonymous requests to the login page, preserving
// the original path in the next parameter.
func LoginRequired() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if _, ok := CurrentUser(ctx); !ok {
			ctx.Redirect(http.StatusFound, "/auth/login/?next="+url.QueryEscape(ctx.Request.URL.RequestURI()))
			ctx.Abort()
			return
		}
		ctx.Next()
	}
}
