package modalstack

import "sync"

// Navigator держит стек и историю навигации в согласованном состоянии.
type Navigator struct {
	mu       sync.Mutex
	stack    *Stack
	history  History
	maxDepth int
}

// NewNavigator восстанавливает стек из текущей записи истории.
func NewNavigator(history History, maxDepth int) *Navigator {
	n := &Navigator{history: history, maxDepth: maxDepth}
	if state, ok := history.Current(); ok {
		n.stack = New(maxDepth, state.Modals...)
	} else {
		n.stack = New(maxDepth)
	}
	n.history.ReplaceState(stateOf(n.stack.entries))
	return n
}

func (n *Navigator) sync(action Action) {
	switch action {
	case ActionPush:
		n.history.PushState(stateOf(n.stack.entries))
	case ActionReplace, ActionPop:
		n.history.ReplaceState(stateOf(n.stack.entries))
	}
}

func (n *Navigator) Open(e Entry) Action {
	n.mu.Lock()
	defer n.mu.Unlock()
	action := n.stack.Open(e)
	n.sync(action)
	return action
}

func (n *Navigator) Replace(e Entry) Action {
	n.mu.Lock()
	defer n.mu.Unlock()
	action := n.stack.Replace(e)
	n.sync(action)
	return action
}

// Close закрывает верхнюю карточку. Если предыдущая запись истории — ровно стек
// без неё, выполняется переход назад, иначе текущая запись переписывается.
func (n *Navigator) Close() Action {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.stack.Empty() {
		return ActionNone
	}

	below := n.stack.Below()
	if prev, ok := n.history.Previous(); ok && equalEntries(prev.Modals, below) {
		if state, ok := n.history.Back(); ok {
			n.adopt(&state)
			return ActionPop
		}
	}

	action := n.stack.Close()
	n.sync(action)
	return action
}

func (n *Navigator) CloseTo(e Entry) Action {
	n.mu.Lock()
	defer n.mu.Unlock()
	action := n.stack.CloseTo(e)
	n.sync(action)
	return action
}

func (n *Navigator) CloseAll() Action {
	n.mu.Lock()
	defer n.mu.Unlock()
	action := n.stack.CloseAll()
	n.sync(action)
	return action
}

// Back: кнопка "назад": стек принимает состояние предыдущей записи.
func (n *Navigator) Back() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	state, ok := n.history.Back()
	if ok {
		n.adopt(&state)
	}
	return ok
}

func (n *Navigator) Forward() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	state, ok := n.history.Forward()
	if ok {
		n.adopt(&state)
	}
	return ok
}

// OnPopState обрабатывает внешний переход по истории. nil означает пустой стек.
func (n *Navigator) OnPopState(state *HistoryState) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.adopt(state)
}

func (n *Navigator) adopt(state *HistoryState) {
	if state == nil {
		n.stack = New(n.maxDepth)
		return
	}
	n.stack = New(n.maxDepth, state.Modals...)
}

func (n *Navigator) Entries() []Entry {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.stack.Entries()
}

func (n *Navigator) Query() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.stack.Query()
}

func (n *Navigator) Layers(base, step int) []Layer {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.stack.Layers(base, step)
}
