package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"facility-crm/internal/dto"
	"facility-crm/pkg/constants"
	apperrors "facility-crm/pkg/errors"
	"facility-crm/pkg/modalstack"

	"go.uber.org/zap"
)

type NavigationServiceInterface interface {
	ResolveModals(ctx context.Context, query string) (*dto.ModalStackDTO, error)
	OpenModal(ctx context.Context, payload dto.OpenModalDTO) (*dto.ModalStackDTO, error)
	CloseModal(ctx context.Context, payload dto.CloseModalDTO) (*dto.ModalStackDTO, error)
}

// titleFunc возвращает заголовок карточки, проверяя право просмотра.
type titleFunc func(ctx context.Context, id uint64) (string, error)

type NavigationService struct {
	titles   map[string]titleFunc
	maxDepth int
	logger   *zap.Logger
}

func NewNavigationService(
	workOrderService WorkOrderServiceInterface,
	incidentService IncidentServiceInterface,
	buildingService BuildingServiceInterface,
	clientService ClientServiceInterface,
	assetService AssetServiceInterface,
	employeeService EmployeeServiceInterface,
	departmentService DepartmentServiceInterface,
	maxDepth int,
	logger *zap.Logger,
) NavigationServiceInterface {
	titles := map[string]titleFunc{
		constants.ModalWorkOrder: func(ctx context.Context, id uint64) (string, error) {
			w, err := workOrderService.FindWorkOrder(ctx, id)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("Заявка #%d: %s", w.ID, w.Title), nil
		},
		constants.ModalIncident: func(ctx context.Context, id uint64) (string, error) {
			i, err := incidentService.FindIncident(ctx, id)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("Инцидент #%d: %s", i.ID, i.Title), nil
		},
		constants.ModalBuilding: func(ctx context.Context, id uint64) (string, error) {
			b, err := buildingService.FindBuilding(ctx, id)
			if err != nil {
				return "", err
			}
			return b.Name, nil
		},
		constants.ModalClient: func(ctx context.Context, id uint64) (string, error) {
			c, err := clientService.FindClient(ctx, id)
			if err != nil {
				return "", err
			}
			return c.Name, nil
		},
		constants.ModalAsset: func(ctx context.Context, id uint64) (string, error) {
			a, err := assetService.FindAsset(ctx, id)
			if err != nil {
				return "", err
			}
			return a.Name, nil
		},
		constants.ModalEmployee: func(ctx context.Context, id uint64) (string, error) {
			e, err := employeeService.FindEmployee(ctx, id)
			if err != nil {
				return "", err
			}
			return e.FullName, nil
		},
		constants.ModalDepartment: func(ctx context.Context, id uint64) (string, error) {
			d, err := departmentService.FindDepartment(ctx, id)
			if err != nil {
				return "", err
			}
			return d.Name, nil
		},
	}
	if maxDepth <= 0 {
		maxDepth = modalstack.DefaultMaxDepth
	}
	return &NavigationService{titles: titles, maxDepth: maxDepth, logger: logger}
}

func (s *NavigationService) parse(query string) *modalstack.Stack {
	return modalstack.ParseQuery(url.Values{modalstack.QueryParam: {query}}, constants.IsModalType, s.maxDepth)
}

func (s *NavigationService) ResolveModals(ctx context.Context, query string) (*dto.ModalStackDTO, error) {
	cards := make(modalCards)
	resolved, err := s.visible(ctx, s.parse(query).Entries(), cards)
	if err != nil {
		return nil, err
	}
	return toModalStackDTO(resolved, cards, ""), nil
}

func (s *NavigationService) OpenModal(ctx context.Context, payload dto.OpenModalDTO) (*dto.ModalStackDTO, error) {
	stack := s.parse(payload.Modal)
	before := stack.Entries()
	entry := modalstack.Entry{Type: payload.Type, ID: payload.ID}

	var action modalstack.Action
	if payload.Replace {
		action = stack.Replace(entry)
	} else {
		action = stack.Open(entry)
	}
	return s.apply(ctx, before, stack, action, &entry)
}

func (s *NavigationService) CloseModal(ctx context.Context, payload dto.CloseModalDTO) (*dto.ModalStackDTO, error) {
	stack := s.parse(payload.Modal)
	before := stack.Entries()

	var action modalstack.Action
	switch {
	case payload.All:
		action = stack.CloseAll()
	case payload.Type != "":
		action = stack.CloseTo(modalstack.Entry{Type: payload.Type, ID: payload.ID})
	default:
		action = stack.Close()
	}
	return s.apply(ctx, before, stack, action, nil)
}

// modalCards запоминает заголовки видимых карточек и скрытые записи,
// чтобы одна карточка проверялась не больше одного раза за запрос.
type modalCards map[modalstack.Entry]*string

// apply сравнивает видимую часть стека до и после действия. Если сотрудник
// открыл недоступную карточку или видимая часть не изменилась, действие none.
func (s *NavigationService) apply(ctx context.Context, before []modalstack.Entry, after *modalstack.Stack, action modalstack.Action, opened *modalstack.Entry) (*dto.ModalStackDTO, error) {
	cards := make(modalCards)
	prev, err := s.visible(ctx, before, cards)
	if err != nil {
		return nil, err
	}
	if opened != nil {
		if _, err := s.visible(ctx, []modalstack.Entry{*opened}, cards); err != nil {
			return nil, err
		}
		if cards[*opened] == nil {
			return toModalStackDTO(prev, cards, modalstack.ActionNone), nil
		}
	}

	next, err := s.visible(ctx, after.Entries(), cards)
	if err != nil {
		return nil, err
	}
	if next.Equal(prev.Entries()) {
		action = modalstack.ActionNone
	}
	return toModalStackDTO(next, cards, action), nil
}

// visible выкидывает карточки, которых нет или которые сотруднику не видны.
func (s *NavigationService) visible(ctx context.Context, entries []modalstack.Entry, cards modalCards) (*modalstack.Stack, error) {
	out := make([]modalstack.Entry, 0, len(entries))
	for _, e := range entries {
		title, seen := cards[e]
		if !seen {
			var err error
			title, err = s.title(ctx, e)
			if err != nil {
				return nil, err
			}
			cards[e] = title
		}
		if title != nil {
			out = append(out, e)
		}
	}
	return modalstack.New(s.maxDepth, out...), nil
}

// title возвращает nil для битого id, отсутствующей или недоступной карточки.
func (s *NavigationService) title(ctx context.Context, e modalstack.Entry) (*string, error) {
	load, ok := s.titles[e.Type]
	if !ok {
		return nil, nil
	}
	id, err := strconv.ParseUint(e.ID, 10, 64)
	if err != nil || id == 0 {
		return nil, nil
	}
	title, err := load(ctx, id)
	if err != nil {
		if isAccessError(err) {
			return nil, nil
		}
		s.logger.Error("NavigationService: ошибка получения карточки",
			zap.String("modal", e.String()),
			zap.Error(err),
		)
		return nil, err
	}
	return &title, nil
}

func toModalStackDTO(stack *modalstack.Stack, cards modalCards, action modalstack.Action) *dto.ModalStackDTO {
	layers := stack.Layers(modalstack.DefaultZIndexBase, modalstack.DefaultZIndexStep)
	out := &dto.ModalStackDTO{
		Modals: make([]dto.ModalDTO, 0, len(layers)),
		Query:  stack.Query(),
		Action: string(action),
	}
	for _, l := range layers {
		out.Modals = append(out.Modals, dto.ModalDTO{
			Type:   l.Entry.Type,
			ID:     l.Entry.ID,
			Title:  *cards[l.Entry],
			Index:  l.Index,
			ZIndex: l.ZIndex,
			Active: l.Active,
		})
	}
	return out
}

func isAccessError(err error) bool {
	return errors.Is(err, apperrors.ErrForbidden) || errors.Is(err, apperrors.ErrNotFound)
}
