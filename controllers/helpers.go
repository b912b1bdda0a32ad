package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/dimoniiio/blogicum/middleware"
	"github.com/dimoniiio/blogicum/models"
)

// Pagination carries the page window rendered under listings.
type Pagination struct {
	Page       int
	PageSize   int
	Total      int64
	TotalPages int
	HasPrev    bool
	HasNext    bool
	PrevPage   int
	NextPage   int
}

func parsePage(raw string) int {
	if n, err := strconv.Atoi(raw); err == nil && n > 0 {
		return n
	}
	return 1
}

func paginate(page, pageSize int, total int64) Pagination {
	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	return Pagination{
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
		HasPrev:    page > 1,
		HasNext:    page < totalPages,
		PrevPage:   page - 1,
		NextPage:   page + 1,
	}
}

// postPage runs a composed post query twice: once for the total, once for the
// requested page rows. The comment-count subquery is left out of the counting
// pass.
func postPage(compose func(withCount bool) *gorm.DB, page, size int) ([]models.Post, Pagination, error) {
	var total int64
	if err := compose(false).Count(&total).Error; err != nil {
		return nil, Pagination{}, err
	}
	var posts []models.Post
	if err := compose(true).Offset((page - 1) * size).Limit(size).Find(&posts).Error; err != nil {
		return nil, Pagination{}, err
	}
	return posts, paginate(page, size, total), nil
}

// viewer returns the requesting user or nil when anonymous.
func viewer(ctx *gin.Context) *models.User {
	u, _ := middleware.CurrentUser(ctx)
	return u
}

func renderNotFound(ctx *gin.Context) {
	ctx.HTML(http.StatusNotFound, "404.tmpl", gin.H{"User": viewer(ctx)})
}

func renderServerError(ctx *gin.Context) {
	ctx.HTML(http.StatusInternalServerError, "500.tmpl", gin.H{"User": viewer(ctx)})
}
