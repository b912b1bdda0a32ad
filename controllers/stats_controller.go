package controllers

import (
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/dimoniiio/blogicum/models"
	"github.com/dimoniiio/blogicum/utils"
)

const statsCacheKey = "cache:stats:site"

// StatsController serves site counters as JSON.
type StatsController struct {
	db *gorm.DB
}

// NewStatsController creates a StatsController.
func NewStatsController(db *gorm.DB) *StatsController {
	return &StatsController{db: db}
}

type siteStats struct {
	Users         int64 `json:"users"`
	Posts         int64 `json:"posts"`
	Comments      int64 `json:"comments"`
	ViewsToday    int64 `json:"views_today"`
	ViewsAllTime  int64 `json:"views_all_time"`
	GeneratedUnix int64 `json:"generated_unix"`
}

// Site returns user/post/comment totals and page view counters.
func (s *StatsController) Site(ctx *gin.Context) {
	var stats siteStats
	if utils.CacheGetJSON(statsCacheKey, &stats) {
		utils.Success(ctx, stats)
		return
	}

	s.db.Model(&models.User{}).Count(&stats.Users)
	s.db.Model(&models.Post{}).Count(&stats.Posts)
	s.db.Model(&models.Comment{}).Count(&stats.Comments)

	dayEnd := models.DayEnd(time.Now())
	s.db.Model(&models.PageView{}).
		Where("date >= ? AND date < ?", dayEnd.AddDate(0, 0, -1), dayEnd).
		Select("COALESCE(SUM(count), 0)").
		Scan(&stats.ViewsToday)
	s.db.Model(&models.PageView{}).
		Select("COALESCE(SUM(count), 0)").
		Scan(&stats.ViewsAllTime)
	stats.GeneratedUnix = time.Now().Unix()

	utils.CacheSetJSON(statsCacheKey, stats, 5*time.Minute)
	utils.Success(ctx, stats)
}
