package contextkeys

type contextKey string

const (
	EmployeeIDKey     contextKey = "EmployeeID"
	EffectivePermsKey contextKey = "effectivePermissions"
	RequestIDKey      contextKey = "RequestID"
)
