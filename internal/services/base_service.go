package services

import (
	"context"

	"facility-crm/internal/authz"
	"facility-crm/internal/repositories"
	apperrors "facility-crm/pkg/errors"
	"facility-crm/pkg/utils"

	"go.uber.org/zap"
)

// checkPermission: RBAC-проверка для справочников: цель не нужна, сотрудник из БД не грузится.
func checkPermission(ctx context.Context, permission string, logger *zap.Logger) (uint64, error) {
	employeeID, err := utils.GetEmployeeIDFromCtx(ctx)
	if err != nil {
		return 0, apperrors.ErrUnauthorized
	}
	perms, err := utils.GetEffectivePermissionsFromCtx(ctx)
	if err != nil {
		return employeeID, err
	}
	if !authz.CanDo(permission, authz.Context{Permissions: perms}) {
		logger.Warn("Отказано в доступе",
			zap.Uint64("employee_id", employeeID),
			zap.String("permission", permission),
		)
		return employeeID, apperrors.ErrForbidden
	}
	return employeeID, nil
}

// buildAuthzContext собирает контекст для ABAC-проверок: сам сотрудник и его права.
func buildAuthzContext(ctx context.Context, employeeRepo repositories.EmployeeRepositoryInterface) (*authz.Context, error) {
	employeeID, err := utils.GetEmployeeIDFromCtx(ctx)
	if err != nil {
		return nil, apperrors.ErrUnauthorized
	}
	perms, err := utils.GetEffectivePermissionsFromCtx(ctx)
	if err != nil {
		return nil, err
	}
	actor, err := employeeRepo.FindEmployee(ctx, employeeID)
	if err != nil {
		return nil, apperrors.ErrUnauthorized
	}
	return &authz.Context{Actor: actor, Permissions: perms}, nil
}

// visibilityOf переводит права сотрудника в ограничение для списков.
func visibilityOf(authCtx *authz.Context) repositories.VisibilityScope {
	scope := repositories.VisibilityScope{Level: authz.ScopeOf(authCtx.Permissions)}
	if authCtx.Actor != nil {
		scope.EmployeeID = authCtx.Actor.ID
		scope.DepartmentID = authCtx.Actor.DepartmentID
	}
	return scope
}

// ensurePermissionsExist: все переданные id есть в справочнике прав.
func ensurePermissionsExist(ctx context.Context, permissionRepo repositories.PermissionRepositoryInterface, ids []uint64) error {
	unique := uniqueIDs(ids)
	if len(unique) == 0 {
		return nil
	}
	count, err := permissionRepo.CountByIDs(ctx, unique)
	if err != nil {
		return err
	}
	if count != len(unique) {
		return apperrors.NewInvalidInputError("Часть прав не найдена в справочнике")
	}
	return nil
}

func uniqueIDs(ids []uint64) []uint64 {
	seen := make(map[uint64]struct{}, len(ids))
	out := make([]uint64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// listOf прогоняет элементы списка через маппер.
func listOf[E any, D any](items []E, mapper func(*E) *D) []D {
	out := make([]D, 0, len(items))
	for i := range items {
		out = append(out, *mapper(&items[i]))
	}
	return out
}

// Ошибка сброса кеша не ломает запрос: права догонят после истечения TTL.
func invalidateAll(ctx context.Context, svc AuthPermissionServiceInterface) {
	if svc != nil {
		_ = svc.InvalidateAll(ctx)
	}
}

func invalidateEmployee(ctx context.Context, svc AuthPermissionServiceInterface, employeeID uint64) {
	if svc != nil {
		_ = svc.InvalidateEmployee(ctx, employeeID)
	}
}
