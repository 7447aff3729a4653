package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"facility-crm/internal/authz"
	"facility-crm/internal/repositories"
	"facility-crm/pkg/constants"
	apperrors "facility-crm/pkg/errors"

	"go.uber.org/zap"
)

type AuthPermissionServiceInterface interface {
	GetEffectivePermissions(ctx context.Context, employeeID uint64) (*authz.EffectivePermissions, error)
	// InvalidateAll сбрасывает кеш всех сотрудников (смена прав роли или департамента).
	InvalidateAll(ctx context.Context) error
	InvalidateEmployee(ctx context.Context, employeeID uint64) error
}

type AuthPermissionService struct {
	permissionRepo repositories.PermissionRepositoryInterface
	cacheRepo      repositories.CacheRepositoryInterface
	logger         *zap.Logger
	cacheTTL       time.Duration
	maxDepth       int
}

func NewAuthPermissionService(
	permissionRepo repositories.PermissionRepositoryInterface,
	cacheRepo repositories.CacheRepositoryInterface,
	logger *zap.Logger,
	cacheTTL time.Duration,
	maxDepth int,
) AuthPermissionServiceInterface {
	if maxDepth <= 0 {
		maxDepth = authz.DefaultMaxDepartmentDepth
	}
	return &AuthPermissionService{
		permissionRepo: permissionRepo,
		cacheRepo:      cacheRepo,
		logger:         logger,
		cacheTTL:       cacheTTL,
		maxDepth:       maxDepth,
	}
}

func (s *AuthPermissionService) cacheKey(ctx context.Context, employeeID uint64) (string, error) {
	gen, err := s.cacheRepo.GetInt(ctx, constants.CacheKeyPermissionsGeneration)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(constants.CacheKeyEmployeePermissions, gen, employeeID), nil
}

func (s *AuthPermissionService) GetEffectivePermissions(ctx context.Context, employeeID uint64) (*authz.EffectivePermissions, error) {
	// 1. Кеш. Любая ошибка Redis — идём в БД, запрос не падает.
	cacheKey, errKey := s.cacheKey(ctx, employeeID)
	if errKey != nil {
		authz.RecordCacheLookup("error")
		s.logger.Warn("AuthPermissionService: не удалось прочитать поколение кеша", zap.Error(errKey))
	} else {
		cached, errGet := s.cacheRepo.Get(ctx, cacheKey)
		switch {
		case errGet == nil:
			var eff authz.EffectivePermissions
			if err := json.Unmarshal([]byte(cached), &eff); err == nil {
				authz.RecordCacheLookup("hit")
				return &eff, nil
			} else {
				authz.RecordCacheLookup("error")
				s.logger.Warn("AuthPermissionService: повреждённая запись кеша", zap.String("key", cacheKey), zap.Error(err))
			}
		case errors.Is(errGet, repositories.ErrCacheMiss):
			authz.RecordCacheLookup("miss")
		default:
			authz.RecordCacheLookup("error")
			s.logger.Warn("AuthPermissionService: ошибка чтения кеша", zap.String("key", cacheKey), zap.Error(errGet))
		}
	}

	// 2. БД + резолвер.
	subject, sources, err := s.permissionRepo.LoadSources(ctx, employeeID, s.maxDepth)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return nil, err
		}
		s.logger.Error("AuthPermissionService: не удалось загрузить источники прав", zap.Uint64("employee_id", employeeID), zap.Error(err))
		return nil, apperrors.ErrInternalServer
	}
	eff := authz.Resolve(subject, sources, s.maxDepth)
	if eff.Truncated {
		s.logger.Warn("AuthPermissionService: цепочка департаментов обрезана лимитом глубины",
			zap.Uint64("employee_id", employeeID),
			zap.Int("max_depth", s.maxDepth),
		)
	}

	// 3. Обратно в кеш.
	if errKey == nil {
		payload, err := json.Marshal(eff)
		if err != nil {
			s.logger.Error("AuthPermissionService: не удалось сериализовать права", zap.Error(err))
		} else if err := s.cacheRepo.Set(ctx, cacheKey, string(payload), s.cacheTTL); err != nil {
			s.logger.Warn("AuthPermissionService: не удалось сохранить права в кеш", zap.String("key", cacheKey), zap.Error(err))
		}
	}
	return &eff, nil
}

func (s *AuthPermissionService) InvalidateAll(ctx context.Context) error {
	gen, err := s.cacheRepo.Incr(ctx, constants.CacheKeyPermissionsGeneration)
	if err != nil {
		s.logger.Error("AuthPermissionService: ошибка смены поколения кеша прав", zap.Error(err))
		return err
	}
	s.logger.Info("AuthPermissionService: кеш прав сброшен", zap.Int64("generation", gen))
	return nil
}

func (s *AuthPermissionService) InvalidateEmployee(ctx context.Context, employeeID uint64) error {
	cacheKey, err := s.cacheKey(ctx, employeeID)
	if err != nil {
		s.logger.Error("AuthPermissionService: ошибка инвалидации кеша сотрудника", zap.Uint64("employee_id", employeeID), zap.Error(err))
		return err
	}
	if err := s.cacheRepo.Del(ctx, cacheKey); err != nil {
		s.logger.Error("AuthPermissionService: ошибка инвалидации кеша сотрудника", zap.Uint64("employee_id", employeeID), zap.Error(err))
		return err
	}
	s.logger.Info("AuthPermissionService: кеш прав сотрудника инвалидирован", zap.Uint64("employee_id", employeeID))
	return nil
}
