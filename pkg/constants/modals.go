package constants

// Типы карточек, которые можно открыть в стеке модальных окон (?modal=type:id).
const (
	ModalWorkOrder  = "work_order"
	ModalIncident   = "incident"
	ModalBuilding   = "building"
	ModalClient     = "client"
	ModalAsset      = "asset"
	ModalEmployee   = "employee"
	ModalDepartment = "department"
)

var ModalTypes = []string{
	ModalWorkOrder,
	ModalIncident,
	ModalBuilding,
	ModalClient,
	ModalAsset,
	ModalEmployee,
	ModalDepartment,
}

func IsModalType(t string) bool {
	for _, m := range ModalTypes {
		if m == t {
			return true
		}
	}
	return false
}
