package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"facility-crm/internal/authz"
	"facility-crm/pkg/contextkeys"
	"facility-crm/pkg/service"
	"facility-crm/pkg/utils"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakePermissions struct {
	perms *authz.EffectivePermissions
	err   error
	calls []uint64
}

func (f *fakePermissions) GetEffectivePermissions(_ context.Context, employeeID uint64) (*authz.EffectivePermissions, error) {
	f.calls = append(f.calls, employeeID)
	return f.perms, f.err
}

func newPerms(keys ...string) *authz.EffectivePermissions {
	eff := authz.Resolve(authz.Subject{}, authz.Sources{RoleKeys: keys}, authz.DefaultMaxDepartmentDepth)
	return &eff
}

func setup(t *testing.T, provider PermissionsProvider) (*echo.Echo, service.JWTService) {
	t.Helper()
	logger := zap.NewNop()
	jwtSvc := service.NewJWTService("test-secret", time.Hour, logger)
	auth := NewAuthMiddleware(jwtSvc, provider, logger)

	e := echo.New()
	g := e.Group("/api", auth.Auth)
	g.GET("/me", func(c echo.Context) error {
		id, err := utils.GetEmployeeIDFromCtx(c.Request().Context())
		if err != nil {
			return err
		}
		perms, err := utils.GetEffectivePermissionsFromCtx(c.Request().Context())
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, map[string]interface{}{"id": id, "keys": perms.Keys()})
	})
	g.GET("/clients", func(c echo.Context) error {
		return c.NoContent(http.StatusNoContent)
	}, RequirePermission(authz.ClientsView, logger))
	return e, jwtSvc
}

func TestAuth(t *testing.T) {
	provider := &fakePermissions{perms: newPerms(authz.ClientsView)}
	e, jwtSvc := setup(t, provider)
	token, err := jwtSvc.GenerateAccessToken(5)
	require.NoError(t, err)

	t.Run("valid token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"id":5,"keys":["clients:view"]}`, rec.Body.String())
		assert.Equal(t, uint64(5), provider.calls[len(provider.calls)-1])
	})

	t.Run("missing header", func(t *testing.T) {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/me", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("bad scheme", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
		req.Header.Set("Authorization", "Basic "+token)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("query token only for websocket", func(t *testing.T) {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/me?token="+token, nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)

		req := httptest.NewRequest(http.MethodGet, "/api/me?token="+token, nil)
		req.Header.Set("Upgrade", "websocket")
		rec = httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("require permission", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/clients", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNoContent, rec.Code)

		provider.perms = newPerms(authz.BuildingsView)
		rec = httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func TestAuth_PermissionsFailure(t *testing.T) {
	e, jwtSvc := setup(t, &fakePermissions{err: errors.New("db down")})
	token, err := jwtSvc.GenerateAccessToken(5)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequestID(t *testing.T) {
	e := echo.New()
	e.Use(RequestID())
	var seen string
	e.GET("/", func(c echo.Context) error {
		seen, _ = c.Request().Context().Value(contextkeys.RequestIDKey).(string)
		return c.NoContent(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, rec.Header().Get(HeaderRequestID))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderRequestID, "6f1c2d9e-1a4b-4c3d-9e8f-0a1b2c3d4e5f")
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, "6f1c2d9e-1a4b-4c3d-9e8f-0a1b2c3d4e5f", seen)
}

func TestRateLimit(t *testing.T) {
	l, err := NewRateLimiter("2-M")
	require.NoError(t, err)

	e := echo.New()
	e.Use(RateLimit(l, zap.NewNop()))
	e.GET("/", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	_, err = NewRateLimiter("bogus")
	assert.Error(t, err)
}
