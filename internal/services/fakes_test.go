package services

import (
	"context"
	"sync"

	"facility-crm/internal/authz"
	"facility-crm/internal/dto"
	"facility-crm/internal/entities"
	"facility-crm/internal/repositories"
	"facility-crm/pkg/contextkeys"
	apperrors "facility-crm/pkg/errors"
	"facility-crm/pkg/types"

	"github.com/jackc/pgx/v5"
)

// Фейки встраивают интерфейс репозитория: вызов нереализованного метода паникует,
// так тест сразу показывает лишнее обращение к хранилищу.

func u64(v uint64) *uint64 { return &v }

func actorCtx(employeeID uint64, keys ...string) context.Context {
	eff := authz.Resolve(authz.Subject{EmployeeID: employeeID}, authz.Sources{RoleKeys: keys}, authz.DefaultMaxDepartmentDepth)
	ctx := context.WithValue(context.Background(), contextkeys.EmployeeIDKey, employeeID)
	return context.WithValue(ctx, contextkeys.EffectivePermsKey, &eff)
}

type fakeTxManager struct{}

func (fakeTxManager) RunInTransaction(_ context.Context, fn func(tx pgx.Tx) error) error {
	return fn(nil)
}

type fakeEmployeeRepo struct {
	repositories.EmployeeRepositoryInterface
	items map[uint64]*entities.Employee
}

func (r *fakeEmployeeRepo) FindEmployee(_ context.Context, id uint64) (*entities.Employee, error) {
	e, ok := r.items[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (r *fakeEmployeeRepo) UpdateEmployee(_ context.Context, id uint64, payload dto.UpdateEmployeeDTO) (*entities.Employee, error) {
	e, ok := r.items[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	if payload.FullName.Valid {
		e.FullName = payload.FullName.String
	}
	if payload.RoleID.Valid {
		e.RoleID = payload.RoleID.Uint64
	}
	if payload.DepartmentID.Valid {
		e.DepartmentID = u64(payload.DepartmentID.Uint64)
	}
	if payload.StatusCode.Valid {
		e.StatusCode = payload.StatusCode.String
	}
	cp := *e
	return &cp, nil
}

func (r *fakeEmployeeRepo) FindShortByIDs(_ context.Context, ids []uint64) (map[uint64]string, error) {
	out := make(map[uint64]string)
	for _, id := range ids {
		if e, ok := r.items[id]; ok {
			out[id] = e.FullName
		}
	}
	return out, nil
}

type fakeWorkOrderRepo struct {
	repositories.WorkOrderRepositoryInterface
	mu     sync.Mutex
	items  map[uint64]*entities.WorkOrder
	nextID uint64
	scope  repositories.VisibilityScope
}

func (r *fakeWorkOrderRepo) GetWorkOrders(_ context.Context, _ types.Filter, scope repositories.VisibilityScope) ([]entities.WorkOrder, uint64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scope = scope
	out := make([]entities.WorkOrder, 0, len(r.items))
	for _, w := range r.items {
		out = append(out, *w)
	}
	return out, uint64(len(out)), nil
}

func (r *fakeWorkOrderRepo) FindWorkOrder(_ context.Context, id uint64) (*entities.WorkOrder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.items[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	cp := *w
	return &cp, nil
}

func (r *fakeWorkOrderRepo) FindWorkOrderForUpdateInTx(ctx context.Context, _ pgx.Tx, id uint64) (*entities.WorkOrder, error) {
	return r.FindWorkOrder(ctx, id)
}

func (r *fakeWorkOrderRepo) CreateWorkOrderInTx(_ context.Context, _ pgx.Tx, order entities.WorkOrder) (uint64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	order.ID = r.nextID
	r.items[order.ID] = &order
	return order.ID, nil
}

func (r *fakeWorkOrderRepo) SaveTransitionInTx(_ context.Context, _ pgx.Tx, order entities.WorkOrder) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[order.ID] = &order
	return nil
}

func (r *fakeWorkOrderRepo) UpdateWorkOrderInTx(_ context.Context, _ pgx.Tx, id uint64, payload dto.UpdateWorkOrderDTO) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	w := r.items[id]
	if payload.Title.Valid {
		w.Title = payload.Title.String
	}
	if payload.Priority.Valid {
		w.Priority = payload.Priority.String
	}
	return nil
}

func (r *fakeWorkOrderRepo) DeleteWorkOrderInTx(_ context.Context, _ pgx.Tx, id uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.items, id)
	return nil
}

type fakeIncidentRepo struct {
	repositories.IncidentRepositoryInterface
	items  map[uint64]*entities.Incident
	nextID uint64
}

func (r *fakeIncidentRepo) FindIncident(_ context.Context, id uint64) (*entities.Incident, error) {
	i, ok := r.items[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	cp := *i
	return &cp, nil
}

func (r *fakeIncidentRepo) FindIncidentForUpdateInTx(ctx context.Context, _ pgx.Tx, id uint64) (*entities.Incident, error) {
	return r.FindIncident(ctx, id)
}

func (r *fakeIncidentRepo) CreateIncidentInTx(_ context.Context, _ pgx.Tx, incident entities.Incident) (uint64, error) {
	r.nextID++
	incident.ID = r.nextID
	r.items[incident.ID] = &incident
	return incident.ID, nil
}

func (r *fakeIncidentRepo) SaveStatusInTx(_ context.Context, _ pgx.Tx, incident entities.Incident) error {
	r.items[incident.ID] = &incident
	return nil
}

type fakeActivityRepo struct {
	repositories.ActivityRepositoryInterface
	mu           sync.Mutex
	items        []entities.Activity
	participants map[uint64]bool
}

func (r *fakeActivityRepo) CreateInTx(_ context.Context, _ pgx.Tx, a entities.Activity) (*entities.Activity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a.ID = uint64(len(r.items) + 1)
	r.items = append(r.items, a)
	return &a, nil
}

func (r *fakeActivityRepo) FindByEntity(_ context.Context, entityType string, entityID uint64, _, _ uint64) ([]entities.Activity, uint64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entities.Activity
	for _, a := range r.items {
		if a.EntityType == entityType && a.EntityID == entityID {
			out = append(out, a)
		}
	}
	return out, uint64(len(out)), nil
}

func (r *fakeActivityRepo) IsParticipant(_ context.Context, _ string, _ uint64, employeeID uint64) (bool, error) {
	return r.participants[employeeID], nil
}

func (r *fakeActivityRepo) eventTypes() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.items))
	for _, a := range r.items {
		out = append(out, a.EventType)
	}
	return out
}

type fakeDepartmentRepo struct {
	repositories.DepartmentRepositoryInterface
	items       map[uint64]*entities.Department
	permissions map[uint64][]uint64
}

func (r *fakeDepartmentRepo) FindDepartment(_ context.Context, id uint64) (*entities.Department, error) {
	d, ok := r.items[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	cp := *d
	return &cp, nil
}

func (r *fakeDepartmentRepo) GetAllNodes(_ context.Context) (map[uint64]authz.DepartmentNode, error) {
	out := make(map[uint64]authz.DepartmentNode, len(r.items))
	for id, d := range r.items {
		out[id] = authz.DepartmentNode{ID: id, ParentID: d.ParentID}
	}
	return out, nil
}

func (r *fakeDepartmentRepo) ReplaceDepartmentPermissionsInTx(_ context.Context, _ pgx.Tx, departmentID uint64, permissionIDs []uint64) error {
	if r.permissions == nil {
		r.permissions = make(map[uint64][]uint64)
	}
	r.permissions[departmentID] = permissionIDs
	return nil
}

func (r *fakeDepartmentRepo) GetDepartmentPermissions(_ context.Context, departmentID uint64) ([]entities.Permission, error) {
	return permissionsByIDs(nil, r.permissions[departmentID]), nil
}

func (r *fakeDepartmentRepo) UpdateDepartment(_ context.Context, id uint64, payload dto.UpdateDepartmentDTO) (*entities.Department, error) {
	d := r.items[id]
	if payload.ParentID.Valid {
		d.ParentID = u64(payload.ParentID.Uint64)
	}
	cp := *d
	return &cp, nil
}

type fakeAssetRepo struct {
	repositories.AssetRepositoryInterface
	items map[uint64]*entities.Asset
}

func (r *fakeAssetRepo) FindAsset(_ context.Context, id uint64) (*entities.Asset, error) {
	a, ok := r.items[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

type fakePermissionRepo struct {
	repositories.PermissionRepositoryInterface
	mu        sync.Mutex
	loads     int
	sources   map[uint64]authz.Sources
	keys      map[uint64]string
	overrides map[uint64][]entities.PermissionOverride
	deleted   []uint64
}

func (r *fakePermissionRepo) CountByIDs(_ context.Context, ids []uint64) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, id := range ids {
		if _, ok := r.keys[id]; ok {
			count++
		}
	}
	return count, nil
}

func (r *fakePermissionRepo) DeletePermission(_ context.Context, id uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.keys[id]; !ok {
		return apperrors.ErrNotFound
	}
	delete(r.keys, id)
	r.deleted = append(r.deleted, id)
	return nil
}

func (r *fakePermissionRepo) GetOverrides(_ context.Context, employeeID uint64) ([]entities.PermissionOverride, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.overrides[employeeID], nil
}

// ReplaceOverridesInTx сразу переносит разрешения и запреты в источники прав,
// как это сделала бы следующая загрузка из БД.
func (r *fakePermissionRepo) ReplaceOverridesInTx(_ context.Context, _ pgx.Tx, employeeID uint64, overrides []entities.PermissionOverride) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	src := r.sources[employeeID]
	src.EmployeeGrants, src.EmployeeDenies = nil, nil
	stored := make([]entities.PermissionOverride, 0, len(overrides))
	for _, o := range overrides {
		o.PermissionKey = r.keys[o.PermissionID]
		stored = append(stored, o)
		if o.Effect == entities.OverrideDeny {
			src.EmployeeDenies = append(src.EmployeeDenies, o.PermissionKey)
		} else {
			src.EmployeeGrants = append(src.EmployeeGrants, o.PermissionKey)
		}
	}
	r.sources[employeeID] = src
	if r.overrides == nil {
		r.overrides = make(map[uint64][]entities.PermissionOverride)
	}
	r.overrides[employeeID] = stored
	return nil
}

func (r *fakePermissionRepo) LoadSources(_ context.Context, employeeID uint64, _ int) (authz.Subject, authz.Sources, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loads++
	src, ok := r.sources[employeeID]
	if !ok {
		return authz.Subject{}, authz.Sources{}, apperrors.ErrUserNotFound
	}
	return authz.Subject{EmployeeID: employeeID}, src, nil
}

// fakeAuthPermissions считает вызовы инвалидации. С inner вызовы
// дополнительно уходят в настоящий сервис прав.
type fakeAuthPermissions struct {
	inner     AuthPermissionServiceInterface
	all       int
	employees []uint64
}

func (f *fakeAuthPermissions) GetEffectivePermissions(ctx context.Context, employeeID uint64) (*authz.EffectivePermissions, error) {
	if f.inner != nil {
		return f.inner.GetEffectivePermissions(ctx, employeeID)
	}
	return nil, apperrors.ErrInternalServer
}

func (f *fakeAuthPermissions) InvalidateAll(ctx context.Context) error {
	f.all++
	if f.inner != nil {
		return f.inner.InvalidateAll(ctx)
	}
	return nil
}

func (f *fakeAuthPermissions) InvalidateEmployee(ctx context.Context, employeeID uint64) error {
	f.employees = append(f.employees, employeeID)
	if f.inner != nil {
		return f.inner.InvalidateEmployee(ctx, employeeID)
	}
	return nil
}

type fakeRoleRepo struct {
	repositories.RoleRepositoryInterface
	items       map[uint64]*entities.Role
	permissions map[uint64][]uint64
	keys        map[uint64]string
}

func (r *fakeRoleRepo) FindRole(_ context.Context, id uint64) (*entities.Role, error) {
	role, ok := r.items[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	cp := *role
	return &cp, nil
}

func (r *fakeRoleRepo) ReplaceRolePermissionsInTx(_ context.Context, _ pgx.Tx, roleID uint64, permissionIDs []uint64) error {
	r.permissions[roleID] = permissionIDs
	return nil
}

func (r *fakeRoleRepo) GetRolePermissions(_ context.Context, roleID uint64) ([]entities.Permission, error) {
	return permissionsByIDs(r.keys, r.permissions[roleID]), nil
}

func permissionsByIDs(keys map[uint64]string, ids []uint64) []entities.Permission {
	out := make([]entities.Permission, 0, len(ids))
	for _, id := range ids {
		out = append(out, entities.Permission{ID: id, Key: keys[id]})
	}
	return out
}
