package services

import (
	"context"
	"strings"
	"time"

	"facility-crm/internal/authz"
	"facility-crm/internal/dto"
	"facility-crm/internal/entities"
	"facility-crm/internal/repositories"
	"facility-crm/pkg/constants"
	apperrors "facility-crm/pkg/errors"
	"facility-crm/pkg/types"
	"facility-crm/pkg/utils"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type IncidentServiceInterface interface {
	GetIncidents(ctx context.Context, filter types.Filter) ([]dto.IncidentDTO, uint64, error)
	FindIncident(ctx context.Context, id uint64) (*dto.IncidentDTO, error)
	CreateIncident(ctx context.Context, payload dto.CreateIncidentDTO) (*dto.IncidentDTO, error)
	UpdateIncident(ctx context.Context, id uint64, payload dto.UpdateIncidentDTO) (*dto.IncidentDTO, error)
	TransitionIncident(ctx context.Context, id uint64, payload dto.TransitionIncidentDTO) (*dto.IncidentDTO, error)
	DeleteIncident(ctx context.Context, id uint64) error
	GetActivity(ctx context.Context, id uint64, filter types.Filter) ([]dto.ActivityDTO, uint64, error)
	AddComment(ctx context.Context, id uint64, payload dto.CreateCommentDTO) error
}

type IncidentService struct {
	incidentRepo    repositories.IncidentRepositoryInterface
	employeeRepo    repositories.EmployeeRepositoryInterface
	activityRepo    repositories.ActivityRepositoryInterface
	activityService ActivityServiceInterface
	txManager       repositories.TxManagerInterface
	logger          *zap.Logger
	now             func() time.Time
}

func NewIncidentService(
	incidentRepo repositories.IncidentRepositoryInterface,
	employeeRepo repositories.EmployeeRepositoryInterface,
	activityRepo repositories.ActivityRepositoryInterface,
	activityService ActivityServiceInterface,
	txManager repositories.TxManagerInterface,
	logger *zap.Logger,
) IncidentServiceInterface {
	return &IncidentService{
		incidentRepo:    incidentRepo,
		employeeRepo:    employeeRepo,
		activityRepo:    activityRepo,
		activityService: activityService,
		txManager:       txManager,
		logger:          logger,
		now:             time.Now,
	}
}

func (s *IncidentService) authorize(ctx context.Context, id uint64, permission string) (*authz.Context, *entities.Incident, error) {
	authCtx, err := buildAuthzContext(ctx, s.employeeRepo)
	if err != nil {
		return nil, nil, err
	}
	incident, err := s.incidentRepo.FindIncident(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	authCtx.Target = incident

	if !authz.CanDo(permission, *authCtx) {
		participant, err := s.activityRepo.IsParticipant(ctx, entities.ActivityEntityIncident, id, authCtx.Actor.ID)
		if err != nil {
			return nil, nil, err
		}
		authCtx.IsParticipant = participant
		if !participant || !authz.CanDo(permission, *authCtx) {
			s.logger.Warn("Отказано в доступе к инциденту",
				zap.Uint64("actor_id", authCtx.Actor.ID),
				zap.Uint64("incident_id", id),
				zap.String("permission", permission),
			)
			return nil, nil, apperrors.ErrForbidden
		}
	}
	return authCtx, incident, nil
}

func (s *IncidentService) GetIncidents(ctx context.Context, filter types.Filter) ([]dto.IncidentDTO, uint64, error) {
	authCtx, err := buildAuthzContext(ctx, s.employeeRepo)
	if err != nil {
		return nil, 0, err
	}
	if !authz.CanDo(authz.IncidentsView, *authCtx) {
		return nil, 0, apperrors.ErrForbidden
	}
	items, total, err := s.incidentRepo.GetIncidents(ctx, filter, visibilityOf(authCtx))
	if err != nil {
		s.logger.Error("IncidentService: ошибка получения списка инцидентов", zap.Error(err))
		return nil, 0, err
	}
	return listOf(items, incidentToDTO), total, nil
}

func (s *IncidentService) FindIncident(ctx context.Context, id uint64) (*dto.IncidentDTO, error) {
	_, incident, err := s.authorize(ctx, id, authz.IncidentsView)
	if err != nil {
		return nil, err
	}
	return incidentToDTO(incident), nil
}

func (s *IncidentService) CreateIncident(ctx context.Context, payload dto.CreateIncidentDTO) (*dto.IncidentDTO, error) {
	authCtx, err := buildAuthzContext(ctx, s.employeeRepo)
	if err != nil {
		return nil, err
	}
	if !authz.CanDo(authz.IncidentsCreate, *authCtx) {
		return nil, apperrors.ErrForbidden
	}

	incident := entities.Incident{
		Title:        strings.TrimSpace(payload.Title),
		Description:  payload.Description,
		BuildingID:   payload.BuildingID,
		AssetID:      payload.AssetID,
		ReporterID:   authCtx.Actor.ID,
		DepartmentID: payload.DepartmentID,
		Severity:     payload.Severity,
		Status:       constants.IncidentOpen,
		ReportedAt:   s.now(),
	}
	if incident.Severity == "" {
		incident.Severity = constants.SeverityMedium
	}
	if incident.DepartmentID == nil {
		incident.DepartmentID = authCtx.Actor.DepartmentID
	}

	rec := activityRecord{
		entityType: entities.ActivityEntityIncident,
		actorID:    authCtx.Actor.ID,
		changes:    []change{{eventType: constants.EventCreated, newValue: utils.ToPtr(incident.Title)}},
	}
	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		id, err := s.incidentRepo.CreateIncidentInTx(ctx, tx, incident)
		if err != nil {
			return err
		}
		rec.entityID = id
		_, err = s.activityService.RecordInTx(ctx, tx, rec)
		return err
	})
	if err != nil {
		s.logger.Error("IncidentService: ошибка регистрации инцидента", zap.Error(err))
		return nil, err
	}

	s.logger.Info("Инцидент зарегистрирован",
		zap.Uint64("incident_id", rec.entityID),
		zap.String("severity", incident.Severity),
		zap.Uint64("actor_id", authCtx.Actor.ID),
	)
	created, err := s.incidentRepo.FindIncident(ctx, rec.entityID)
	if err != nil {
		return nil, err
	}
	return incidentToDTO(created), nil
}

func (s *IncidentService) UpdateIncident(ctx context.Context, id uint64, payload dto.UpdateIncidentDTO) (*dto.IncidentDTO, error) {
	authCtx, _, err := s.authorize(ctx, id, authz.IncidentsUpdate)
	if err != nil {
		return nil, err
	}

	rec := activityRecord{entityType: entities.ActivityEntityIncident, entityID: id, actorID: authCtx.Actor.ID}
	if payload.Comment.Valid {
		rec.comment = utils.ToPtr(payload.Comment.String)
	}
	var items []entities.Activity
	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		current, err := s.incidentRepo.FindIncidentForUpdateInTx(ctx, tx, id)
		if err != nil {
			return err
		}
		if constants.IsFinalStatus(current.Status) {
			return apperrors.ErrInvalidTransition
		}
		rec.changes = incidentChanges(current, payload)
		rec.recipients = []uint64{current.ReporterID}

		if err := s.incidentRepo.UpdateIncidentInTx(ctx, tx, id, payload); err != nil {
			return err
		}
		items, err = s.activityService.RecordInTx(ctx, tx, rec)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.activityService.Publish(ctx, rec, items)

	updated, err := s.incidentRepo.FindIncident(ctx, id)
	if err != nil {
		return nil, err
	}
	return incidentToDTO(updated), nil
}

func (s *IncidentService) TransitionIncident(ctx context.Context, id uint64, payload dto.TransitionIncidentDTO) (*dto.IncidentDTO, error) {
	authCtx, _, err := s.authorize(ctx, id, authz.IncidentsUpdate)
	if err != nil {
		return nil, err
	}

	rec := activityRecord{
		entityType: entities.ActivityEntityIncident,
		entityID:   id,
		actorID:    authCtx.Actor.ID,
		comment:    payload.Comment,
	}
	var items []entities.Activity
	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		incident, err := s.incidentRepo.FindIncidentForUpdateInTx(ctx, tx, id)
		if err != nil {
			return err
		}
		ch, err := applyIncidentTransition(incident, payload.Status, s.now())
		if err != nil {
			return err
		}
		rec.changes = []change{*ch}
		rec.recipients = []uint64{incident.ReporterID}

		if err := s.incidentRepo.SaveStatusInTx(ctx, tx, *incident); err != nil {
			return err
		}
		items, err = s.activityService.RecordInTx(ctx, tx, rec)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.activityService.Publish(ctx, rec, items)

	s.logger.Info("Статус инцидента изменён",
		zap.Uint64("incident_id", id),
		zap.String("status", payload.Status),
		zap.Uint64("actor_id", authCtx.Actor.ID),
	)
	updated, err := s.incidentRepo.FindIncident(ctx, id)
	if err != nil {
		return nil, err
	}
	return incidentToDTO(updated), nil
}

func (s *IncidentService) DeleteIncident(ctx context.Context, id uint64) error {
	authCtx, _, err := s.authorize(ctx, id, authz.IncidentsDelete)
	if err != nil {
		return err
	}
	rec := activityRecord{
		entityType: entities.ActivityEntityIncident,
		entityID:   id,
		actorID:    authCtx.Actor.ID,
		changes:    []change{{eventType: constants.EventDeleted}},
	}
	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		if err := s.incidentRepo.DeleteIncidentInTx(ctx, tx, id); err != nil {
			return err
		}
		_, err := s.activityService.RecordInTx(ctx, tx, rec)
		return err
	})
	if err != nil {
		return err
	}
	s.logger.Info("Инцидент удалён", zap.Uint64("incident_id", id), zap.Uint64("actor_id", authCtx.Actor.ID))
	return nil
}

func (s *IncidentService) GetActivity(ctx context.Context, id uint64, filter types.Filter) ([]dto.ActivityDTO, uint64, error) {
	if _, _, err := s.authorize(ctx, id, authz.IncidentsView); err != nil {
		return nil, 0, err
	}
	return s.activityService.Timeline(ctx, entities.ActivityEntityIncident, id, filter)
}

func (s *IncidentService) AddComment(ctx context.Context, id uint64, payload dto.CreateCommentDTO) error {
	authCtx, incident, err := s.authorize(ctx, id, authz.IncidentsView)
	if err != nil {
		return err
	}
	comment := strings.TrimSpace(payload.Comment)
	if comment == "" {
		return apperrors.NewInvalidInputError("Комментарий не может быть пустым")
	}
	rec := activityRecord{
		entityType: entities.ActivityEntityIncident,
		entityID:   id,
		actorID:    authCtx.Actor.ID,
		comment:    &comment,
		recipients: []uint64{incident.ReporterID},
	}
	var items []entities.Activity
	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		var err error
		items, err = s.activityService.RecordInTx(ctx, tx, rec)
		return err
	})
	if err != nil {
		return err
	}
	s.activityService.Publish(ctx, rec, items)
	return nil
}
