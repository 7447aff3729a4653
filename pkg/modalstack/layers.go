package modalstack

// Значения по умолчанию для z-index слоёв поверх страницы.
const (
	DefaultZIndexBase = 1000
	DefaultZIndexStep = 10
)

// Layer: как отрисовать одну карточку стека.
type Layer struct {
	Entry  Entry `json:"entry"`
	Index  int   `json:"index"`
	ZIndex int   `json:"z_index"`
	Active bool  `json:"active"`
}

// Layers раскладывает стек по слоям: z-index = base + index*step, активна верхняя.
func (s *Stack) Layers(base, step int) []Layer {
	layers := make([]Layer, len(s.entries))
	for i, e := range s.entries {
		layers[i] = Layer{
			Entry:  e,
			Index:  i,
			ZIndex: base + i*step,
			Active: i == len(s.entries)-1,
		}
	}
	return layers
}
