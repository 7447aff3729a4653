package utils

import (
	"context"
	"time"

	"facility-crm/internal/authz"
	"facility-crm/pkg/contextkeys"
	apperrors "facility-crm/pkg/errors"

	"github.com/labstack/echo/v4"
)

func GetEmployeeIDFromCtx(ctx context.Context) (uint64, error) {
	employeeID, ok := ctx.Value(contextkeys.EmployeeIDKey).(uint64)
	if !ok || employeeID == 0 {
		return 0, apperrors.ErrUserIDNotFoundInContext
	}
	return employeeID, nil
}

// GetEffectivePermissionsFromCtx достаёт права, вычисленные middleware.Auth.
func GetEffectivePermissionsFromCtx(ctx context.Context) (*authz.EffectivePermissions, error) {
	perms, ok := ctx.Value(contextkeys.EffectivePermsKey).(*authz.EffectivePermissions)
	if !ok || perms == nil {
		return nil, apperrors.ErrForbidden
	}
	return perms, nil
}

func GetRequestIDFromCtx(ctx context.Context) string {
	id, _ := ctx.Value(contextkeys.RequestIDKey).(string)
	return id
}

func ContextWithTimeout(c echo.Context, seconds int) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), time.Duration(seconds)*time.Second)
}
