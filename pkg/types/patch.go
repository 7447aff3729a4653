package types

// SentFields: JSON-ключи, которые клиент прислал в PATCH/PUT запросе.
// Значение true означает, что поле пришло явным null.
type SentFields map[string]bool

func (s SentFields) Has(key string) bool {
	_, ok := s[key]
	return ok
}

// IsNull: поле прислано и равно null, т.е. его нужно очистить.
func (s SentFields) IsNull(key string) bool {
	return s[key]
}
