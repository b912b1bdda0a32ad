package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/dimoniiio/blogicum/middleware"
	"github.com/dimoniiio/blogicum/models"
)

func TestPageViewRecorder(t *testing.T) {
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "pv.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.PageView{}))

	r := gin.New()
	r.Use(middleware.PageViewRecorder(db))
	r.GET("/page/", func(ctx *gin.Context) { ctx.String(http.StatusOK, "ok") })
	r.GET("/health", func(ctx *gin.Context) { ctx.String(http.StatusOK, "ok") })
	r.GET("/broken/", func(ctx *gin.Context) { ctx.String(http.StatusInternalServerError, "no") })
	r.POST("/page/", func(ctx *gin.Context) { ctx.String(http.StatusOK, "ok") })

	do := func(method, path string) {
		req := httptest.NewRequest(method, path, nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
	}

	do(http.MethodGet, "/page/")
	do(http.MethodGet, "/page/")
	do(http.MethodGet, "/health")
	do(http.MethodGet, "/broken/")
	do(http.MethodPost, "/page/")

	var rows []models.PageView
	require.NoError(t, db.Find(&rows).Error)
	require.Len(t, rows, 1, "only successful GETs on content pages are counted")
	assert.Equal(t, "/page/", rows[0].Path)
	assert.Equal(t, int64(2), rows[0].Count, "repeat views on the same day aggregate into one row")
}
