package utils

import (
	"regexp"
	"strings"
)

var (
	nonDigitRegexp = regexp.MustCompile(`\D`)
	e164Regexp     = regexp.MustCompile(`^\+[1-9]\d{7,14}$`)
)

// NormalizePhone приводит номер к виду E.164: оставляет цифры и ведущий "+".
func NormalizePhone(phone string) string {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return ""
	}
	digits := nonDigitRegexp.ReplaceAllString(phone, "")
	if digits == "" {
		return ""
	}
	return "+" + digits
}

func IsE164(phone string) bool {
	return e164Regexp.MatchString(phone)
}
