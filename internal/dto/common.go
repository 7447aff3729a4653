package dto

// ShortEmployeeDTO: сотрудник во вложенных ответах (исполнитель, автор события).
type ShortEmployeeDTO struct {
	ID       uint64 `json:"id"`
	FullName string `json:"full_name"`
}

type ShortBuildingDTO struct {
	ID   uint64 `json:"id"`
	Name string `json:"name"`
}

// ReplaceIDsDTO: полная замена набора связанных записей (права роли, права департамента).
type ReplaceIDsDTO struct {
	PermissionIDs []uint64 `json:"permission_ids" validate:"required,dive,gt=0"`
}
