package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSetAppliesDefaults(t *testing.T) {
	Set(AppConfig{JWTSecret: "x"})
	got := Get()

	assert.Equal(t, "8080", got.AppPort)
	assert.Equal(t, 10, got.PageSize)
	assert.Equal(t, 256, got.TitleMaxLen)
	assert.Equal(t, "release", got.GinMode)
	assert.Equal(t, "templates/*.tmpl", got.TemplateGlob)
	assert.Equal(t, []string{"*"}, got.AllowedOrigins)
	assert.Equal(t, "mysql", got.DBDriver)
	assert.Equal(t, "info", got.LogLevel)
}

func TestSetKeepsExplicitValues(t *testing.T) {
	Set(AppConfig{
		JWTSecret: "x",
		AppPort:   "9999",
		PageSize:  25,
		DBDriver:  "sqlite",
	})
	got := Get()

	assert.Equal(t, "9999", got.AppPort)
	assert.Equal(t, 25, got.PageSize)
	assert.Equal(t, "sqlite", got.DBDriver)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("APP_PORT", "7070")
	t.Setenv("BLOG_PAGE_SIZE", "5")
	t.Setenv("BLOG_ALLOW_COMMENTS_ON_HIDDEN", "false")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")

	c := AppConfig{JWTSecret: "x", AllowCommentsOnHidden: true}
	applyEnvOverrides(&c)

	assert.Equal(t, "7070", c.AppPort)
	assert.Equal(t, 5, c.PageSize)
	assert.False(t, c.AllowCommentsOnHidden)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, c.AllowedOrigins)
}

func TestMySQLDSN(t *testing.T) {
	t.Run("BuiltFromParts", func(t *testing.T) {
		c := AppConfig{DBUser: "u", DBPassword: "p", DBHost: "h", DBPort: "3306", DBName: "d"}
		dsn := c.MySQLDSN()
		assert.Contains(t, dsn, "u:p@tcp(h:3306)/d")
		assert.Contains(t, dsn, "parseTime=True")
	})

	t.Run("ExplicitURIWins", func(t *testing.T) {
		c := AppConfig{DatabaseURI: "custom-dsn", DBUser: "u"}
		assert.Equal(t, "custom-dsn", c.MySQLDSN())
	})
}
