package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNew_Defaults(t *testing.T) {
	cfg := New()

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "300-M", cfg.Server.RateLimit)
	assert.Equal(t, 10*time.Minute, cfg.Permissions.CacheTTL)
	assert.Equal(t, 8, cfg.Permissions.DepartmentMaxDepth)
	assert.Equal(t, 24*time.Hour, cfg.JWT.AccessTokenTTL)
}

func TestNew_FromEnv(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("CORS_ORIGINS", "http://a.local, http://b.local,,")
	t.Setenv("PERMISSIONS_CACHE_TTL", "30s")
	t.Setenv("DEPARTMENT_MAX_DEPTH", "3")
	t.Setenv("REDIS_DB", "2")

	cfg := New()

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, []string{"http://a.local", "http://b.local"}, cfg.Server.CORSOrigins)
	assert.Equal(t, 30*time.Second, cfg.Permissions.CacheTTL)
	assert.Equal(t, 3, cfg.Permissions.DepartmentMaxDepth)
	assert.Equal(t, 2, cfg.Redis.DB)
}

func TestNew_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("DEPARTMENT_MAX_DEPTH", "много")
	t.Setenv("JWT_ACCESS_TTL", "сутки")

	cfg := New()

	assert.Equal(t, 8, cfg.Permissions.DepartmentMaxDepth)
	assert.Equal(t, 24*time.Hour, cfg.JWT.AccessTokenTTL)
}
