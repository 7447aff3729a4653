package services

import (
	"testing"

	"facility-crm/internal/authz"
	"facility-crm/internal/dto"
	"facility-crm/internal/entities"
	apperrors "facility-crm/pkg/errors"

	"github.com/aarondl/null/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// Дерево: 1 -> 2 -> 3, отдельно 4.
func newDepartmentFixture() (DepartmentServiceInterface, *fakeDepartmentRepo, *fakeAuthPermissions) {
	repo := &fakeDepartmentRepo{items: map[uint64]*entities.Department{
		1: {ID: 1, Name: "Компания"},
		2: {ID: 2, Name: "Эксплуатация", ParentID: u64(1)},
		3: {ID: 3, Name: "Служба инженеров", ParentID: u64(2)},
		4: {ID: 4, Name: "Бухгалтерия"},
	}}
	cache := &fakeAuthPermissions{}
	return NewDepartmentService(repo, nil, fakeTxManager{}, cache, 0, zap.NewNop()), repo, cache
}

func TestDepartmentService_RejectsCycles(t *testing.T) {
	svc, _, cache := newDepartmentFixture()
	ctx := actorCtx(1, authz.StructureUpdate)

	cases := map[string]struct {
		id     uint64
		parent uint64
	}{
		"сам себе":       {id: 2, parent: 2},
		"под потомка":    {id: 1, parent: 3},
		"нет родителя":   {id: 3, parent: 99},
		"прямой потомок": {id: 2, parent: 3},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.UpdateDepartment(ctx, tc.id, dto.UpdateDepartmentDTO{ParentID: null.Uint64From(tc.parent)})
			var inputErr *apperrors.InvalidInputError
			assert.ErrorAs(t, err, &inputErr)
		})
	}
	assert.Zero(t, cache.all)
}

func TestDepartmentService_MoveInvalidatesCache(t *testing.T) {
	svc, repo, cache := newDepartmentFixture()
	ctx := actorCtx(1, authz.StructureUpdate)

	d, err := svc.UpdateDepartment(ctx, 3, dto.UpdateDepartmentDTO{ParentID: null.Uint64From(4)})
	require.NoError(t, err)
	require.NotNil(t, d.ParentID)
	assert.Equal(t, uint64(4), *d.ParentID)
	assert.Equal(t, uint64(4), *repo.items[3].ParentID)
	assert.Equal(t, 1, cache.all)

	_, err = svc.UpdateDepartment(ctx, 3, dto.UpdateDepartmentDTO{ParentID: null.Uint64From(4)})
	require.NoError(t, err)
	assert.Equal(t, 1, cache.all, "тот же родитель не сбрасывает кеш")
}

func TestDepartmentService_Ancestors(t *testing.T) {
	svc, _, _ := newDepartmentFixture()
	ctx := actorCtx(1, authz.StructureView)

	ancestors, err := svc.GetAncestors(ctx, 3)
	require.NoError(t, err)
	require.Len(t, ancestors, 2)
	assert.Equal(t, "Эксплуатация", ancestors[0].Name)
	assert.Equal(t, "Компания", ancestors[1].Name)

	_, err = svc.GetAncestors(ctx, 42)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	_, err = svc.GetAncestors(actorCtx(1), 3)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
}
