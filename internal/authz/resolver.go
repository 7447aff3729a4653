package authz

import (
	"sort"
	"strings"
)

type SourceKind string

const (
	SourceRole       SourceKind = "role"
	SourceDepartment SourceKind = "department"
	SourceEmployee   SourceKind = "employee"
)

// DefaultMaxDepartmentDepth ограничивает подъём по дереву департаментов.
const DefaultMaxDepartmentDepth = 8

// Grant: разрешение вместе с источником, из которого оно пришло.
type Grant struct {
	Key          string     `json:"key"`
	Source       SourceKind `json:"source"`
	DepartmentID *uint64    `json:"department_id,omitempty"`
	Depth        int        `json:"depth,omitempty"`
}

type Subject struct {
	EmployeeID   uint64
	RoleID       uint64
	DepartmentID *uint64
}

type DepartmentNode struct {
	ID       uint64
	ParentID *uint64
}

// Sources: всё, что нужно для вычисления прав одного сотрудника.
// Загружается репозиторием одним набором запросов.
type Sources struct {
	RoleKeys       []string
	Departments    map[uint64]DepartmentNode
	DepartmentKeys map[uint64][]string
	EmployeeGrants []string
	EmployeeDenies []string
}

type EffectivePermissions struct {
	EmployeeID      uint64           `json:"employee_id"`
	Granted         map[string]Grant `json:"granted"`
	Denied          map[string]bool  `json:"denied"`
	DepartmentChain []uint64         `json:"department_chain"`
	Truncated       bool             `json:"truncated"`
}

type Decision struct {
	Allowed   bool       `json:"allowed"`
	Key       string     `json:"key"`
	Source    SourceKind `json:"source,omitempty"`
	MatchedBy string     `json:"matched_by,omitempty"`
	DeniedBy  string     `json:"denied_by,omitempty"`
}

// Resolve объединяет права роли, цепочки департаментов и индивидуальные
// разрешения сотрудника, после чего применяет индивидуальные запреты.
// Порядок слоёв: роль < департаменты (от дальнего к ближнему) < сотрудник.
// Запрет всегда применяется последним и побеждает.
func Resolve(subject Subject, src Sources, maxDepth int) EffectivePermissions {
	eff := EffectivePermissions{
		EmployeeID: subject.EmployeeID,
		Granted:    make(map[string]Grant),
		Denied:     make(map[string]bool),
	}

	for _, key := range src.RoleKeys {
		eff.Granted[key] = Grant{Key: key, Source: SourceRole}
	}

	eff.DepartmentChain, eff.Truncated = DepartmentChain(subject.DepartmentID, src.Departments, maxDepth)
	for depth := len(eff.DepartmentChain) - 1; depth >= 0; depth-- {
		deptID := eff.DepartmentChain[depth]
		for _, key := range src.DepartmentKeys[deptID] {
			id := deptID
			eff.Granted[key] = Grant{Key: key, Source: SourceDepartment, DepartmentID: &id, Depth: depth}
		}
	}

	for _, key := range src.EmployeeGrants {
		eff.Granted[key] = Grant{Key: key, Source: SourceEmployee}
	}

	for _, deny := range src.EmployeeDenies {
		eff.Denied[deny] = true
		for key := range eff.Granted {
			if matchesKey(deny, key) {
				delete(eff.Granted, key)
			}
		}
	}

	return eff
}

// DepartmentChain возвращает цепочку департаментов от start вверх по родителям.
// Второе значение — true, если цепочку обрезал лимит глубины.
// Отсутствующий департамент или цикл просто завершают обход.
func DepartmentChain(start *uint64, departments map[uint64]DepartmentNode, maxDepth int) ([]uint64, bool) {
	chain := make([]uint64, 0)
	if start == nil {
		return chain, false
	}
	if maxDepth <= 0 {
		return chain, true
	}

	visited := make(map[uint64]bool)
	current := start
	for current != nil {
		id := *current
		if visited[id] {
			break
		}
		node, ok := departments[id]
		if !ok {
			break
		}
		if len(chain) >= maxDepth {
			return chain, true
		}
		visited[id] = true
		chain = append(chain, id)
		current = node.ParentID
	}
	return chain, false
}

func splitKey(key string) (resource, action string) {
	idx := strings.LastIndex(key, ":")
	if idx <= 0 {
		return "", key
	}
	return key[:idx], key[idx+1:]
}

// matchesKey: pattern совпадает с key точно или через "resource:*".
func matchesKey(pattern, key string) bool {
	if pattern == key {
		return true
	}
	res, act := splitKey(pattern)
	if act != Wildcard || res == "" {
		return false
	}
	keyRes, _ := splitKey(key)
	return keyRes == res
}

func (e EffectivePermissions) deniedBy(key string) string {
	if e.Denied[key] {
		return key
	}
	if res, _ := splitKey(key); res != "" {
		if wildcard := res + ":" + Wildcard; e.Denied[wildcard] {
			return wildcard
		}
	}
	return ""
}

// DecideKey: решение по полному ключу права.
func (e EffectivePermissions) DecideKey(key string) Decision {
	d := Decision{Key: key}
	if by := e.deniedBy(key); by != "" {
		d.DeniedBy = by
		return d
	}
	if g, ok := e.Granted[key]; ok {
		d.Allowed, d.Source, d.MatchedBy = true, g.Source, key
		return d
	}
	if res, _ := splitKey(key); res != "" {
		wildcard := res + ":" + Wildcard
		if g, ok := e.Granted[wildcard]; ok {
			d.Allowed, d.Source, d.MatchedBy = true, g.Source, wildcard
			return d
		}
	}
	if g, ok := e.Granted[Superuser]; ok {
		d.Allowed, d.Source, d.MatchedBy = true, g.Source, Superuser
	}
	return d
}

// Decide: решение для пары ресурс+действие.
func (e EffectivePermissions) Decide(resource, action string) Decision {
	return e.DecideKey(resource + ":" + action)
}

func (e EffectivePermissions) Allows(key string) bool {
	return e.DecideKey(key).Allowed
}

// Keys возвращает отсортированный список выданных ключей.
func (e EffectivePermissions) Keys() []string {
	keys := make([]string, 0, len(e.Granted))
	for key := range e.Granted {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Grants возвращает выданные права, отсортированные по ключу.
func (e EffectivePermissions) Grants() []Grant {
	grants := make([]Grant, 0, len(e.Granted))
	for _, key := range e.Keys() {
		grants = append(grants, e.Granted[key])
	}
	return grants
}

func (e EffectivePermissions) DeniedKeys() []string {
	keys := make([]string, 0, len(e.Denied))
	for key := range e.Denied {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// ToMap: плоская карта выданных ключей для фронтенда.
func (e EffectivePermissions) ToMap() map[string]bool {
	out := make(map[string]bool, len(e.Granted))
	for key := range e.Granted {
		out[key] = true
	}
	return out
}
