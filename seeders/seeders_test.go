package seeders

import (
	"sort"
	"testing"

	"facility-crm/internal/authz"

	"github.com/stretchr/testify/assert"
)

func TestExpandKeys(t *testing.T) {
	keys := expandKeys([]string{"incidents:*", authz.ScopeAll})
	sort.Strings(keys)

	assert.Equal(t, []string{
		authz.IncidentsCreate,
		authz.IncidentsDelete,
		authz.IncidentsUpdate,
		authz.IncidentsView,
		authz.ScopeAll,
	}, keys)
}

func TestRolesDataKnownKeys(t *testing.T) {
	for _, r := range rolesData {
		for _, key := range expandKeys(r.Permissions) {
			_, ok := authz.Catalog[key]
			assert.True(t, ok, "роль %q ссылается на неизвестное право %q", r.Name, key)
		}
	}
}
