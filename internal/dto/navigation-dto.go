package dto

// ModalDTO: разрешённый слой стека модальных окон.
type ModalDTO struct {
	Type   string `json:"type"`
	ID     string `json:"id"`
	Title  string `json:"title"`
	Index  int    `json:"index"`
	ZIndex int    `json:"z_index"`
	Active bool   `json:"active"`
}

type ModalStackDTO struct {
	Modals []ModalDTO `json:"modals"`
	Query  string     `json:"query"`
	Action string     `json:"action,omitempty"`
}

// OpenModalDTO: modal — текущее значение параметра ?modal=, type/id — открываемое окно.
type OpenModalDTO struct {
	Modal   string `json:"modal"`
	Type    string `json:"type" validate:"required,modal_type"`
	ID      string `json:"id" validate:"required,max=64"`
	Replace bool   `json:"replace"`
}

// CloseModalDTO: без type/id закрывается верхнее окно, с ними — всё выше указанного.
type CloseModalDTO struct {
	Modal string `json:"modal"`
	Type  string `json:"type" validate:"omitempty,modal_type"`
	ID    string `json:"id" validate:"required_with=Type,max=64"`
	All   bool   `json:"all"`
}
