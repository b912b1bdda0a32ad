package middleware_test

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/dimoniiio/blogicum/config"
	"github.com/dimoniiio/blogicum/middleware"
	"github.com/dimoniiio/blogicum/models"
	"github.com/dimoniiio/blogicum/utils"
)

func newSessionEngine(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	config.Set(config.AppConfig{JWTSecret: "middleware-test-secret"})

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Post{}, &models.Comment{}))

	r := gin.New()
	r.Use(middleware.SessionUser(db))
	r.GET("/whoami", func(ctx *gin.Context) {
		if u, ok := middleware.CurrentUser(ctx); ok {
			ctx.String(http.StatusOK, u.Username)
			return
		}
		ctx.String(http.StatusOK, "anonymous")
	})
	r.GET("/members", middleware.LoginRequired(), func(ctx *gin.Context) {
		ctx.String(http.StatusOK, "welcome")
	})
	return r, db
}

func sessionCookie(t *testing.T, u *models.User) *http.Cookie {
	t.Helper()
	token, err := utils.GenerateToken(u.ID, u.Username, time.Hour)
	require.NoError(t, err)
	return &http.Cookie{Name: middleware.SessionCookie, Value: token}
}

func TestSessionUser(t *testing.T) {
	r, db := newSessionEngine(t)
	u := models.User{Username: "member"}
	require.NoError(t, db.Create(&u).Error)

	t.Run("NoCookie", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/whoami", nil))
		assert.Equal(t, "anonymous", w.Body.String())
	})

	t.Run("ValidCookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		req.AddCookie(sessionCookie(t, &u))
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, "member", w.Body.String())
	})

	t.Run("GarbageCookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		req.AddCookie(&http.Cookie{Name: middleware.SessionCookie, Value: "garbage"})
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, "anonymous", w.Body.String(), "a broken cookie degrades to anonymous")
	})

	t.Run("RevokedCookie", func(t *testing.T) {
		cookie := sessionCookie(t, &u)
		utils.RevokeSession(cookie.Value, time.Now().Add(time.Hour))

		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		req.AddCookie(cookie)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, "anonymous", w.Body.String(), "logged-out tokens no longer authenticate")
	})

	t.Run("DeletedUser", func(t *testing.T) {
		ghost := models.User{Username: "ghost"}
		require.NoError(t, db.Create(&ghost).Error)
		cookie := sessionCookie(t, &ghost)
		require.NoError(t, db.Unscoped().Delete(&ghost).Error)

		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		req.AddCookie(cookie)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, "anonymous", w.Body.String())
	})
}

func TestLoginRequired(t *testing.T) {
	r, db := newSessionEngine(t)
	u := models.User{Username: "member"}
	require.NoError(t, db.Create(&u).Error)

	t.Run("AnonymousRedirected", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/members?tab=1", nil))
		require.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, "/auth/login/?next=%2Fmembers%3Ftab%3D1", w.Header().Get("Location"))
	})

	t.Run("MemberPasses", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/members", nil)
		req.AddCookie(sessionCookie(t, &u))
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "welcome", w.Body.String())
	})
}

func TestRateLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	config.Set(config.AppConfig{JWTSecret: "x", RateLimitPerMinute: 2})

	r := gin.New()
	r.Use(middleware.RateLimit())
	r.GET("/limited", func(ctx *gin.Context) { ctx.String(http.StatusOK, "ok") })

	// The limiter map outlives the test, so take a fresh client address per
	// run instead of draining a bucket a previous run already used.
	n := time.Now().UnixNano()
	addr := fmt.Sprintf("10.%d.%d.%d:9999", (n>>16)&255, (n>>8)&255, n&255)

	hit := func() int {
		req := httptest.NewRequest(http.MethodGet, "/limited", nil)
		req.RemoteAddr = addr
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, hit(), "burst admits the first request")
	assert.Equal(t, http.StatusTooManyRequests, hit(), "the bucket is drained afterwards")
}
