package modalstack

// HistoryState: то, что кладётся в запись истории навигации.
type HistoryState struct {
	Modals []Entry `json:"modals"`
}

func stateOf(entries []Entry) HistoryState {
	return HistoryState{Modals: append([]Entry(nil), entries...)}
}

// History: абстракция над историей браузера (pushState/replaceState/back/forward).
type History interface {
	PushState(state HistoryState)
	ReplaceState(state HistoryState)
	Back() (HistoryState, bool)
	Forward() (HistoryState, bool)
	Current() (HistoryState, bool)
	// Previous: запись, на которую приведёт Back, без перехода.
	Previous() (HistoryState, bool)
}

// MemoryHistory: история в памяти с курсором, как у браузера.
type MemoryHistory struct {
	entries []HistoryState
	index   int
}

func NewMemoryHistory(initial HistoryState) *MemoryHistory {
	return &MemoryHistory{entries: []HistoryState{copyState(initial)}}
}

func copyState(s HistoryState) HistoryState {
	return stateOf(s.Modals)
}

// PushState отбрасывает записи "вперёд" и добавляет новую.
func (h *MemoryHistory) PushState(state HistoryState) {
	h.entries = append(h.entries[:h.index+1], copyState(state))
	h.index++
}

func (h *MemoryHistory) ReplaceState(state HistoryState) {
	h.entries[h.index] = copyState(state)
}

func (h *MemoryHistory) Back() (HistoryState, bool) {
	if h.index == 0 {
		return HistoryState{}, false
	}
	h.index--
	return copyState(h.entries[h.index]), true
}

func (h *MemoryHistory) Forward() (HistoryState, bool) {
	if h.index >= len(h.entries)-1 {
		return HistoryState{}, false
	}
	h.index++
	return copyState(h.entries[h.index]), true
}

func (h *MemoryHistory) Current() (HistoryState, bool) {
	return copyState(h.entries[h.index]), true
}

func (h *MemoryHistory) Previous() (HistoryState, bool) {
	if h.index == 0 {
		return HistoryState{}, false
	}
	return copyState(h.entries[h.index-1]), true
}

func (h *MemoryHistory) Len() int { return len(h.entries) }

func (h *MemoryHistory) Index() int { return h.index }
