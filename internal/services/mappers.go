package services

import (
	"facility-crm/internal/dto"
	"facility-crm/internal/entities"
	"facility-crm/pkg/utils"
)

func roleToDTO(r *entities.Role) *dto.RoleDTO {
	return &dto.RoleDTO{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		CreatedAt:   utils.FormatDateTimePtr(r.CreatedAt),
		UpdatedAt:   utils.FormatDateTimePtr(r.UpdatedAt),
	}
}

func permissionToDTO(p *entities.Permission) dto.PermissionDTO {
	return dto.PermissionDTO{
		ID:          p.ID,
		Key:         p.Key,
		Description: p.Description,
		CreatedAt:   utils.FormatDateTimePtr(p.CreatedAt),
		UpdatedAt:   utils.FormatDateTimePtr(p.UpdatedAt),
	}
}

func permissionsToDTO(items []entities.Permission) []dto.PermissionDTO {
	out := make([]dto.PermissionDTO, 0, len(items))
	for i := range items {
		out = append(out, permissionToDTO(&items[i]))
	}
	return out
}

func departmentToDTO(d *entities.Department) *dto.DepartmentDTO {
	return &dto.DepartmentDTO{
		ID:             d.ID,
		Name:           d.Name,
		ParentID:       d.ParentID,
		HeadEmployeeID: d.HeadEmployeeID,
		CreatedAt:      utils.FormatDateTimePtr(d.CreatedAt),
		UpdatedAt:      utils.FormatDateTimePtr(d.UpdatedAt),
	}
}

func positionToDTO(p *entities.Position) *dto.PositionDTO {
	return &dto.PositionDTO{
		ID:           p.ID,
		Name:         p.Name,
		DepartmentID: p.DepartmentID,
		CreatedAt:    utils.FormatDateTimePtr(p.CreatedAt),
		UpdatedAt:    utils.FormatDateTimePtr(p.UpdatedAt),
	}
}

func employeeToDTO(e *entities.Employee) *dto.EmployeeDTO {
	return &dto.EmployeeDTO{
		ID:             e.ID,
		FullName:       e.FullName,
		Email:          e.Email,
		Phone:          e.Phone,
		RoleID:         e.RoleID,
		RoleName:       e.RoleName,
		DepartmentID:   e.DepartmentID,
		DepartmentName: e.DepartmentName,
		PositionID:     e.PositionID,
		PositionName:   e.PositionName,
		StatusCode:     e.StatusCode,
		CreatedAt:      utils.FormatDateTimePtr(e.CreatedAt),
		UpdatedAt:      utils.FormatDateTimePtr(e.UpdatedAt),
	}
}

func clientToDTO(c *entities.Client) *dto.ClientDTO {
	return &dto.ClientDTO{
		ID:             c.ID,
		Name:           c.Name,
		Type:           c.Type,
		Email:          c.Email,
		Phone:          c.Phone,
		ContactPerson:  c.ContactPerson,
		Notes:          c.Notes,
		BuildingsCount: c.BuildingsCount,
		CreatedAt:      utils.FormatDateTimePtr(c.CreatedAt),
		UpdatedAt:      utils.FormatDateTimePtr(c.UpdatedAt),
	}
}

func buildingToDTO(b *entities.Building) *dto.BuildingDTO {
	return &dto.BuildingDTO{
		ID:         b.ID,
		Name:       b.Name,
		Address:    b.Address,
		ClientID:   b.ClientID,
		ClientName: b.ClientName,
		Floors:     b.Floors,
		AreaSqm:    b.AreaSqm,
		Status:     b.Status,
		CreatedAt:  utils.FormatDateTimePtr(b.CreatedAt),
		UpdatedAt:  utils.FormatDateTimePtr(b.UpdatedAt),
	}
}

func shortBuilding(id uint64, name *string) *dto.ShortBuildingDTO {
	return &dto.ShortBuildingDTO{ID: id, Name: utils.SafeDeref(name)}
}

func shortEmployee(id *uint64, name *string) *dto.ShortEmployeeDTO {
	if id == nil {
		return nil
	}
	return &dto.ShortEmployeeDTO{ID: *id, FullName: utils.SafeDeref(name)}
}

func assetToDTO(a *entities.Asset) *dto.AssetDTO {
	return &dto.AssetDTO{
		ID:           a.ID,
		Name:         a.Name,
		Building:     shortBuilding(a.BuildingID, a.BuildingName),
		Category:     a.Category,
		SerialNumber: a.SerialNumber,
		Status:       a.Status,
		InstalledAt:  utils.FormatDateTimePtr(a.InstalledAt),
		CreatedAt:    utils.FormatDateTimePtr(a.CreatedAt),
		UpdatedAt:    utils.FormatDateTimePtr(a.UpdatedAt),
	}
}

func incidentToDTO(i *entities.Incident) *dto.IncidentDTO {
	return &dto.IncidentDTO{
		ID:           i.ID,
		Title:        i.Title,
		Description:  i.Description,
		Building:     shortBuilding(i.BuildingID, i.BuildingName),
		AssetID:      i.AssetID,
		Reporter:     shortEmployee(&i.ReporterID, i.ReporterName),
		DepartmentID: i.DepartmentID,
		Severity:     i.Severity,
		Status:       i.Status,
		ReportedAt:   utils.FormatDateTime(i.ReportedAt),
		ResolvedAt:   utils.FormatDateTimePtr(i.ResolvedAt),
		CreatedAt:    utils.FormatDateTimePtr(i.CreatedAt),
		UpdatedAt:    utils.FormatDateTimePtr(i.UpdatedAt),
	}
}

func workOrderToDTO(w *entities.WorkOrder) *dto.WorkOrderDTO {
	return &dto.WorkOrderDTO{
		ID:           w.ID,
		Title:        w.Title,
		Description:  w.Description,
		Building:     shortBuilding(w.BuildingID, w.BuildingName),
		AssetID:      w.AssetID,
		IncidentID:   w.IncidentID,
		Creator:      shortEmployee(&w.CreatorID, w.CreatorName),
		Assignee:     shortEmployee(w.AssigneeID, w.AssigneeName),
		DepartmentID: w.DepartmentID,
		Status:       w.Status,
		Priority:     w.Priority,
		ScheduledFor: utils.FormatDateTimePtr(w.ScheduledFor),
		StartedAt:    utils.FormatDateTimePtr(w.StartedAt),
		CompletedAt:  utils.FormatDateTimePtr(w.CompletedAt),
		CanceledAt:   utils.FormatDateTimePtr(w.CanceledAt),
		CancelReason: w.CancelReason,
		CreatedAt:    utils.FormatDateTimePtr(w.CreatedAt),
		UpdatedAt:    utils.FormatDateTimePtr(w.UpdatedAt),
	}
}
