package routes

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"facility-crm/internal/authz"
	"facility-crm/pkg/config"
	"facility-crm/pkg/eventbus"
	"facility-crm/pkg/service"
	"facility-crm/pkg/validation"
	"facility-crm/pkg/websocket"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
)

type stubPermissions struct {
	keys []string
}

func (s *stubPermissions) GetEffectivePermissions(_ context.Context, _ uint64) (*authz.EffectivePermissions, error) {
	eff := authz.Resolve(authz.Subject{}, authz.Sources{RoleKeys: s.keys}, authz.DefaultMaxDepartmentDepth)
	return &eff, nil
}

func (s *stubPermissions) InvalidateAll(context.Context) error { return nil }

func (s *stubPermissions) InvalidateEmployee(context.Context, uint64) error { return nil }

// RouterTestSuite поднимает роутер без базы: проверяются только маршруты,
// аутентификация и отказы, которые происходят до обращения к репозиториям.
type RouterTestSuite struct {
	suite.Suite
	Echo  *echo.Echo
	Token string
}

func (suite *RouterTestSuite) SetupSuite() {
	nopLogger := zap.NewNop()
	cfg := &config.Config{
		Server:      config.ServerConfig{CORSOrigins: []string{"http://localhost:3000"}},
		Permissions: config.PermissionsConfig{CacheTTL: time.Minute, DepartmentMaxDepth: authz.DefaultMaxDepartmentDepth},
	}

	e := echo.New()
	e.Validator = validation.New()

	appLoggers := &Loggers{Main: nopLogger, Auth: nopLogger, WorkOrder: nopLogger, Activity: nopLogger}
	jwtSvc := service.NewJWTService("router-test-secret", time.Hour, nopLogger)

	InitRouter(e, nil, jwtSvc, appLoggers, &stubPermissions{}, eventbus.New(nopLogger), websocket.NewHub(nopLogger), cfg)

	token, err := jwtSvc.GenerateAccessToken(1)
	suite.Require().NoError(err)

	suite.Echo = e
	suite.Token = token
}

func (suite *RouterTestSuite) do(method, target, body string, auth bool) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if auth {
		req.Header.Set("Authorization", "Bearer "+suite.Token)
	}
	rec := httptest.NewRecorder()
	suite.Echo.ServeHTTP(rec, req)
	return rec
}

func (suite *RouterTestSuite) TestRoutesRegistered() {
	registered := make(map[string]bool)
	for _, r := range suite.Echo.Routes() {
		registered[r.Method+" "+r.Path] = true
	}

	expected := []string{
		"GET /api/me",
		"GET /api/me/permissions",
		"GET /api/roles",
		"PUT /api/roles/:id/permissions",
		"GET /api/permissions",
		"GET /api/departments/:id/ancestors",
		"PUT /api/departments/:id/permissions",
		"GET /api/positions",
		"GET /api/employees/:id/permissions",
		"PUT /api/employees/:id/permissions/overrides",
		"GET /api/clients",
		"GET /api/buildings/:id",
		"DELETE /api/assets/:id",
		"GET /api/work-orders/export",
		"POST /api/work-orders/:id/transition",
		"GET /api/work-orders/:id/activity",
		"POST /api/work-orders/:id/comments",
		"POST /api/incidents/:id/transition",
		"POST /api/incidents/:id/comments",
		"GET /api/navigation/modals",
		"POST /api/navigation/modals/open",
		"POST /api/navigation/modals/close",
		"GET /api/ws",
	}
	for _, route := range expected {
		suite.True(registered[route], "маршрут %s не зарегистрирован", route)
	}
}

func (suite *RouterTestSuite) TestUnauthenticated() {
	for _, target := range []string{"/api/me", "/api/work-orders", "/api/navigation/modals", "/api/ws"} {
		rec := suite.do(http.MethodGet, target, "", false)
		suite.Equal(http.StatusUnauthorized, rec.Code, target)
	}
}

func (suite *RouterTestSuite) TestForbiddenWithoutPermission() {
	rec := suite.do(http.MethodGet, "/api/clients", "", true)
	suite.Equal(http.StatusForbidden, rec.Code)

	rec = suite.do(http.MethodPost, "/api/roles", `{"name":"Диспетчер"}`, true)
	suite.Equal(http.StatusForbidden, rec.Code)
}

func (suite *RouterTestSuite) TestBadID() {
	rec := suite.do(http.MethodGet, "/api/work-orders/abc", "", true)
	suite.Equal(http.StatusBadRequest, rec.Code)
}

func (suite *RouterTestSuite) TestNavigationDropsInaccessibleModals() {
	query := url.QueryEscape("client:5,work_order:abc")
	rec := suite.do(http.MethodGet, "/api/navigation/modals?modal="+query, "", true)
	suite.Require().Equal(http.StatusOK, rec.Code)

	var out struct {
		Body struct {
			Modals []map[string]interface{} `json:"modals"`
			Query  string                   `json:"query"`
		} `json:"body"`
	}
	suite.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &out))
	suite.Empty(out.Body.Modals)
	suite.Empty(out.Body.Query)
}

func (suite *RouterTestSuite) TestOpenModalValidation() {
	rec := suite.do(http.MethodPost, "/api/navigation/modals/open", `{"type":"spaceship","id":"1"}`, true)
	suite.Equal(http.StatusBadRequest, rec.Code)
}

func TestRouterTestSuite(t *testing.T) {
	suite.Run(t, new(RouterTestSuite))
}
