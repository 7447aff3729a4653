package services

import (
	"context"
	"testing"
	"time"

	"facility-crm/internal/authz"
	"facility-crm/internal/repositories"
	apperrors "facility-crm/pkg/errors"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newAuthPermissionService(t *testing.T) (AuthPermissionServiceInterface, *fakePermissionRepo, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })

	repo := &fakePermissionRepo{sources: map[uint64]authz.Sources{
		7: {RoleKeys: []string{authz.WorkOrdersView, authz.ScopeOwn}},
	}}
	svc := NewAuthPermissionService(repo, repositories.NewRedisCacheRepository(client), zap.NewNop(), time.Minute, 0)
	return svc, repo, mr
}

func TestAuthPermissionService_CachesResolvedPermissions(t *testing.T) {
	ctx := context.Background()
	svc, repo, _ := newAuthPermissionService(t)

	eff, err := svc.GetEffectivePermissions(ctx, 7)
	require.NoError(t, err)
	assert.True(t, eff.Allows(authz.WorkOrdersView))
	assert.Equal(t, 1, repo.loads)

	eff, err = svc.GetEffectivePermissions(ctx, 7)
	require.NoError(t, err)
	assert.True(t, eff.Allows(authz.WorkOrdersView), "права из кеша совпадают с вычисленными")
	assert.Equal(t, 1, repo.loads, "второй запрос обслуживается из кеша")
}

func TestAuthPermissionService_Invalidation(t *testing.T) {
	ctx := context.Background()
	svc, repo, _ := newAuthPermissionService(t)

	_, err := svc.GetEffectivePermissions(ctx, 7)
	require.NoError(t, err)

	require.NoError(t, svc.InvalidateEmployee(ctx, 7))
	_, err = svc.GetEffectivePermissions(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, 2, repo.loads)

	repo.sources[7] = authz.Sources{RoleKeys: []string{authz.ClientsView}}
	require.NoError(t, svc.InvalidateAll(ctx))

	eff, err := svc.GetEffectivePermissions(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, 3, repo.loads)
	assert.False(t, eff.Allows(authz.WorkOrdersView), "после смены поколения права пересчитаны")
	assert.True(t, eff.Allows(authz.ClientsView))
}

func TestAuthPermissionService_TTL(t *testing.T) {
	ctx := context.Background()
	svc, repo, mr := newAuthPermissionService(t)

	_, err := svc.GetEffectivePermissions(ctx, 7)
	require.NoError(t, err)
	mr.FastForward(2 * time.Minute)

	_, err = svc.GetEffectivePermissions(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, 2, repo.loads)
}

func TestAuthPermissionService_RedisUnavailable(t *testing.T) {
	ctx := context.Background()
	svc, repo, mr := newAuthPermissionService(t)
	mr.Close()

	eff, err := svc.GetEffectivePermissions(ctx, 7)
	require.NoError(t, err, "недоступный Redis не ломает запрос")
	assert.True(t, eff.Allows(authz.WorkOrdersView))
	assert.Equal(t, 1, repo.loads)
}

func TestAuthPermissionService_UnknownEmployee(t *testing.T) {
	svc, _, _ := newAuthPermissionService(t)

	_, err := svc.GetEffectivePermissions(context.Background(), 404)
	assert.ErrorIs(t, err, apperrors.ErrUserNotFound)
}
