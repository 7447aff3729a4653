package services

import (
	"context"
	"testing"

	"facility-crm/internal/dto"
	apperrors "facility-crm/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// Видимость карточек: отсутствующий id отдаёт ErrNotFound, запрещённый ErrForbidden.
type navWorkOrders struct {
	WorkOrderServiceInterface
	titles    map[uint64]string
	forbidden map[uint64]bool
	broken    map[uint64]bool
}

func (f *navWorkOrders) FindWorkOrder(_ context.Context, id uint64) (*dto.WorkOrderDTO, error) {
	switch {
	case f.broken[id]:
		return nil, apperrors.ErrInternalServer
	case f.forbidden[id]:
		return nil, apperrors.ErrForbidden
	}
	title, ok := f.titles[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &dto.WorkOrderDTO{ID: id, Title: title}, nil
}

type navBuildings struct {
	BuildingServiceInterface
	names map[uint64]string
}

func (f *navBuildings) FindBuilding(_ context.Context, id uint64) (*dto.BuildingDTO, error) {
	name, ok := f.names[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &dto.BuildingDTO{ID: id, Name: name}, nil
}

func newNavigationFixture(maxDepth int) NavigationServiceInterface {
	workOrders := &navWorkOrders{
		titles:    map[uint64]string{2: "Протечка", 4: "Лифт", 7: "Чужая заявка"},
		forbidden: map[uint64]bool{7: true},
		broken:    map[uint64]bool{500: true},
	}
	buildings := &navBuildings{names: map[uint64]string{1: "БЦ Север", 3: "Склад №3"}}
	return NewNavigationService(workOrders, nil, buildings, nil, nil, nil, nil, maxDepth, zap.NewNop())
}

func queries(modals []dto.ModalDTO) []string {
	out := make([]string, 0, len(modals))
	for _, m := range modals {
		out = append(out, m.Type+":"+m.ID)
	}
	return out
}

func TestNavigationService_ResolveModals(t *testing.T) {
	ctx := actorCtx(1)
	svc := newNavigationFixture(0)

	out, err := svc.ResolveModals(ctx, "building:1,work_order:7,work_order:2,building:3,work_order:9,bogus:1,work_order:x")
	require.NoError(t, err)

	require.Len(t, out.Modals, 3)
	assert.Equal(t, "building:1,work_order:2,building:3", out.Query)

	assert.Equal(t, "БЦ Север", out.Modals[0].Title)
	assert.Equal(t, "Заявка #2: Протечка", out.Modals[1].Title)
	assert.Equal(t, "Склад №3", out.Modals[2].Title)

	for i, m := range out.Modals {
		assert.Equal(t, i, m.Index)
		assert.Equal(t, 1000+i*10, m.ZIndex)
		assert.Equal(t, i == 2, m.Active, "активна только верхняя карточка")
	}
	assert.Empty(t, out.Action)
}

func TestNavigationService_ResolveCollapsesReentry(t *testing.T) {
	svc := newNavigationFixture(0)

	out, err := svc.ResolveModals(actorCtx(1), "building:1,work_order:7,work_order:2,bogus:1,building:1")
	require.NoError(t, err)
	assert.Equal(t, []string{"building:1"}, queries(out.Modals))
	assert.Equal(t, "building:1", out.Query)
	assert.True(t, out.Modals[0].Active)
}

func TestNavigationService_OpenModal(t *testing.T) {
	cases := map[string]struct {
		maxDepth int
		payload  dto.OpenModalDTO
		query    string
		action   string
	}{
		"новая карточка": {
			payload: dto.OpenModalDTO{Modal: "building:1", Type: "work_order", ID: "2"},
			query:   "building:1,work_order:2",
			action:  "push",
		},
		"повторное открытие закрывает всё выше": {
			payload: dto.OpenModalDTO{Modal: "building:1,work_order:2,building:3", Type: "work_order", ID: "2"},
			query:   "building:1,work_order:2",
			action:  "replace",
		},
		"карточка уже наверху": {
			payload: dto.OpenModalDTO{Modal: "building:1,work_order:2", Type: "work_order", ID: "2"},
			query:   "building:1,work_order:2",
			action:  "none",
		},
		"переполнение вытесняет нижнюю": {
			maxDepth: 3,
			payload:  dto.OpenModalDTO{Modal: "building:1,work_order:2,building:3", Type: "work_order", ID: "4"},
			query:    "work_order:2,building:3,work_order:4",
			action:   "push",
		},
		"недоступная карточка": {
			payload: dto.OpenModalDTO{Modal: "building:1", Type: "work_order", ID: "7"},
			query:   "building:1",
			action:  "none",
		},
		"несуществующая карточка": {
			maxDepth: 1,
			payload:  dto.OpenModalDTO{Modal: "building:1", Type: "work_order", ID: "9"},
			query:    "building:1",
			action:   "none",
		},
		"подмена верхней": {
			payload: dto.OpenModalDTO{Modal: "building:1,work_order:2", Type: "building", ID: "3", Replace: true},
			query:   "building:1,building:3",
			action:  "replace",
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			svc := newNavigationFixture(tc.maxDepth)
			out, err := svc.OpenModal(actorCtx(1), tc.payload)
			require.NoError(t, err)
			assert.Equal(t, tc.query, out.Query)
			assert.Equal(t, tc.action, out.Action)
			require.NotEmpty(t, out.Modals)
			assert.True(t, out.Modals[len(out.Modals)-1].Active)
		})
	}
}

func TestNavigationService_CloseModal(t *testing.T) {
	cases := map[string]struct {
		payload dto.CloseModalDTO
		query   string
		action  string
	}{
		"верхняя": {
			payload: dto.CloseModalDTO{Modal: "building:1,work_order:2"},
			query:   "building:1",
			action:  "pop",
		},
		"до указанной": {
			payload: dto.CloseModalDTO{Modal: "building:1,work_order:2,building:3", Type: "building", ID: "1"},
			query:   "building:1",
			action:  "replace",
		},
		"все": {
			payload: dto.CloseModalDTO{Modal: "building:1,work_order:2", All: true},
			query:   "",
			action:  "replace",
		},
		"пустой стек": {
			payload: dto.CloseModalDTO{},
			query:   "",
			action:  "none",
		},
		"верхняя была недоступна": {
			payload: dto.CloseModalDTO{Modal: "building:1,work_order:7"},
			query:   "building:1",
			action:  "none",
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			svc := newNavigationFixture(0)
			out, err := svc.CloseModal(actorCtx(1), tc.payload)
			require.NoError(t, err)
			assert.Equal(t, tc.query, out.Query)
			assert.Equal(t, tc.action, out.Action)
			if tc.query == "" {
				assert.Empty(t, out.Modals)
			}
		})
	}
}

func TestNavigationService_BackendError(t *testing.T) {
	svc := newNavigationFixture(0)

	_, err := svc.ResolveModals(actorCtx(1), "building:1,work_order:500")
	assert.ErrorIs(t, err, apperrors.ErrInternalServer)

	_, err = svc.OpenModal(actorCtx(1), dto.OpenModalDTO{Modal: "building:1", Type: "work_order", ID: "500"})
	assert.ErrorIs(t, err, apperrors.ErrInternalServer)
}
