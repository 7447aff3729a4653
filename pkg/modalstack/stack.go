// Package modalstack описывает стек карточек (модальных окон), открытых поверх
// страницы, и его синхронизацию с историей навигации и query-параметром ?modal=.
package modalstack

import (
	"net/url"
	"strings"
)

const (
	// QueryParam: имя query-параметра со стеком: ?modal=work_order:12,building:3
	QueryParam = "modal"

	DefaultMaxDepth = 10

	entrySeparator = ","
	partSeparator  = ":"
)

// Action: что произошло со стеком и как это отражается в истории.
type Action string

const (
	ActionNone    Action = "none"
	ActionPush    Action = "push"
	ActionReplace Action = "replace"
	ActionPop     Action = "pop"
)

type Entry struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

func (e Entry) String() string {
	return e.Type + partSeparator + e.ID
}

// ParseEntry разбирает "type:id". Пустой тип или id — ошибка разбора.
func ParseEntry(s string) (Entry, bool) {
	typ, id, ok := strings.Cut(strings.TrimSpace(s), partSeparator)
	if !ok {
		return Entry{}, false
	}
	typ, id = strings.TrimSpace(typ), strings.TrimSpace(id)
	if typ == "" || id == "" || strings.Contains(id, partSeparator) {
		return Entry{}, false
	}
	return Entry{Type: typ, ID: id}, true
}

// Stack: упорядоченный снизу вверх список открытых карточек.
// Не безопасен для конкурентного использования, для этого есть Navigator.
type Stack struct {
	entries  []Entry
	maxDepth int
}

// New собирает стек, применяя Open к каждой записи по порядку.
func New(maxDepth int, entries ...Entry) *Stack {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	s := &Stack{maxDepth: maxDepth}
	for _, e := range entries {
		s.Open(e)
	}
	return s
}

// ParseQuery читает стек из ?modal=. Битые сегменты и неизвестные типы пропускаются,
// повторы схлопываются по правилам повторного открытия.
func ParseQuery(values url.Values, known func(string) bool, maxDepth int) *Stack {
	s := New(maxDepth)
	raw := values.Get(QueryParam)
	if raw == "" {
		return s
	}
	for _, part := range strings.Split(raw, entrySeparator) {
		e, ok := ParseEntry(part)
		if !ok {
			continue
		}
		if known != nil && !known(e.Type) {
			continue
		}
		s.Open(e)
	}
	return s
}

func (s *Stack) MaxDepth() int { return s.maxDepth }

func (s *Stack) Len() int { return len(s.entries) }

func (s *Stack) Empty() bool { return len(s.entries) == 0 }

// Entries возвращает копию записей снизу вверх.
func (s *Stack) Entries() []Entry {
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

func (s *Stack) Top() (Entry, bool) {
	if len(s.entries) == 0 {
		return Entry{}, false
	}
	return s.entries[len(s.entries)-1], true
}

func (s *Stack) IndexOf(e Entry) int {
	for i, cur := range s.entries {
		if cur == e {
			return i
		}
	}
	return -1
}

func (s *Stack) Contains(e Entry) bool { return s.IndexOf(e) >= 0 }

// Open открывает карточку.
//   - новая запись кладётся наверх (push), при переполнении выпадает самая нижняя;
//   - уже открытая запись становится верхней, всё над ней закрывается (replace);
//   - запись уже наверху — ничего не меняется (none).
func (s *Stack) Open(e Entry) Action {
	if idx := s.IndexOf(e); idx >= 0 {
		if idx == len(s.entries)-1 {
			return ActionNone
		}
		s.entries = s.entries[:idx+1]
		return ActionReplace
	}

	s.entries = append(s.entries, e)
	if len(s.entries) > s.maxDepth {
		s.entries = append([]Entry(nil), s.entries[len(s.entries)-s.maxDepth:]...)
	}
	return ActionPush
}

// Replace подменяет верхнюю карточку. На пустом стеке работает как Open.
func (s *Stack) Replace(e Entry) Action {
	if len(s.entries) == 0 {
		return s.Open(e)
	}
	if idx := s.IndexOf(e); idx >= 0 {
		if idx == len(s.entries)-1 {
			return ActionNone
		}
		s.entries = s.entries[:idx+1]
		return ActionReplace
	}
	s.entries[len(s.entries)-1] = e
	return ActionReplace
}

// Close закрывает верхнюю карточку.
func (s *Stack) Close() Action {
	if len(s.entries) == 0 {
		return ActionNone
	}
	s.entries = s.entries[:len(s.entries)-1]
	return ActionPop
}

// CloseTo закрывает всё, что лежит над e. Если e нет в стеке — ничего не делает.
func (s *Stack) CloseTo(e Entry) Action {
	idx := s.IndexOf(e)
	if idx < 0 || idx == len(s.entries)-1 {
		return ActionNone
	}
	s.entries = s.entries[:idx+1]
	return ActionReplace
}

func (s *Stack) CloseAll() Action {
	if len(s.entries) == 0 {
		return ActionNone
	}
	s.entries = nil
	return ActionReplace
}

// Below: стек без верхней карточки.
func (s *Stack) Below() []Entry {
	if len(s.entries) == 0 {
		return nil
	}
	return append([]Entry(nil), s.entries[:len(s.entries)-1]...)
}

func (s *Stack) Equal(entries []Entry) bool {
	return equalEntries(s.entries, entries)
}

// Query: значение параметра ?modal= (пустая строка для пустого стека).
func (s *Stack) Query() string {
	parts := make([]string, len(s.entries))
	for i, e := range s.entries {
		parts[i] = e.String()
	}
	return strings.Join(parts, entrySeparator)
}

// Apply записывает стек в query-параметры, не трогая остальные.
func (s *Stack) Apply(values url.Values) url.Values {
	out := url.Values{}
	for k, v := range values {
		out[k] = append([]string(nil), v...)
	}
	if s.Empty() {
		out.Del(QueryParam)
	} else {
		out.Set(QueryParam, s.Query())
	}
	return out
}

func equalEntries(a, b []Entry) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
