package authz

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	decisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "authz",
		Name:      "decisions_total",
		Help:      "Total number of authorization decisions broken down by permission and result.",
	}, []string{"permission", "result"})

	permissionCache = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "authz",
		Subsystem: "permission_cache",
		Name:      "lookups_total",
		Help:      "Effective-permission cache lookups broken down by result.",
	}, []string{"result"})
)

func recordDecision(permission string, allowed bool) {
	result := "denied"
	if allowed {
		result = "allowed"
	}
	decisions.With(prometheus.Labels{"permission": permission, "result": result}).Inc()
}

// RecordCacheLookup учитывает обращение к кешу прав: hit, miss или error.
func RecordCacheLookup(result string) {
	permissionCache.WithLabelValues(result).Inc()
}
