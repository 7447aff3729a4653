package middleware

import (
	"context"
	"strings"

	"facility-crm/internal/authz"
	"facility-crm/pkg/contextkeys"
	apperrors "facility-crm/pkg/errors"
	"facility-crm/pkg/service"
	"facility-crm/pkg/utils"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// PermissionsProvider вычисляет эффективные права сотрудника (кеш + БД).
type PermissionsProvider interface {
	GetEffectivePermissions(ctx context.Context, employeeID uint64) (*authz.EffectivePermissions, error)
}

type AuthMiddleware struct {
	jwtService  service.JWTService
	permissions PermissionsProvider
	logger      *zap.Logger
}

func NewAuthMiddleware(jwtSvc service.JWTService, permissions PermissionsProvider, logger *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		jwtService:  jwtSvc,
		permissions: permissions,
		logger:      logger,
	}
}

func extractToken(c echo.Context) (string, error) {
	authHeader := c.Request().Header.Get("Authorization")
	if authHeader == "" {
		// браузер не умеет ставить заголовки при websocket-рукопожатии
		if token := c.QueryParam("token"); token != "" && websocketUpgrade(c) {
			return token, nil
		}
		return "", apperrors.ErrEmptyAuthHeader
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", apperrors.ErrInvalidAuthHeader
	}
	return parts[1], nil
}

func websocketUpgrade(c echo.Context) bool {
	return strings.EqualFold(c.Request().Header.Get("Upgrade"), "websocket")
}

// Auth проверяет токен, вычисляет права сотрудника и кладёт их в контекст запроса.
func (m *AuthMiddleware) Auth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		tokenString, err := extractToken(c)
		if err != nil {
			m.logger.Warn("AuthMiddleware: некорректный заголовок Authorization", zap.Error(err))
			return utils.ErrorResponse(c, err, m.logger)
		}

		claims, err := m.jwtService.ValidateToken(tokenString)
		if err != nil {
			m.logger.Warn("AuthMiddleware: Ошибка валидации токена", zap.Error(err))
			return utils.ErrorResponse(c, err, m.logger)
		}

		ctx := c.Request().Context()
		perms, err := m.permissions.GetEffectivePermissions(ctx, claims.EmployeeID)
		if err != nil {
			m.logger.Warn("AuthMiddleware: не удалось вычислить права", zap.Uint64("employeeID", claims.EmployeeID), zap.Error(err))
			return utils.ErrorResponse(c, apperrors.ErrUnauthorized, m.logger)
		}

		ctx = context.WithValue(ctx, contextkeys.EmployeeIDKey, claims.EmployeeID)
		ctx = context.WithValue(ctx, contextkeys.EffectivePermsKey, perms)
		c.SetRequest(c.Request().WithContext(ctx))

		m.logger.Debug("AuthMiddleware: Сотрудник аутентифицирован", zap.Uint64("employeeID", claims.EmployeeID))
		return next(c)
	}
}

// RequirePermission: грубая проверка RBAC на уровне группы маршрутов.
func RequirePermission(permission string, logger *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			perms, err := utils.GetEffectivePermissionsFromCtx(c.Request().Context())
			if err != nil || !perms.Allows(permission) {
				return utils.ErrorResponse(c, apperrors.ErrForbidden, logger)
			}
			return next(c)
		}
	}
}
