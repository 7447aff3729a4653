package utils

import (
	"fmt"
	"time"
)

// Формат дат, принятый в интерфейсе: 02.01.2006 15:04
const (
	DateTimeLayout = "02.01.2006 15:04"
	DateLayout     = "02.01.2006"
)

func FormatDateTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Local().Format(DateTimeLayout)
}

func FormatDateTimePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return FormatDateTime(*t)
}

func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Local().Format(DateLayout)
}

// FormatDuration преобразует длительность в строку вида "1д 2ч 3м".
func FormatDuration(d time.Duration) string {
	if d < time.Minute {
		return "меньше минуты"
	}
	total := int64(d / time.Minute)
	days := total / (24 * 60)
	hours := (total % (24 * 60)) / 60
	minutes := total % 60

	out := ""
	if days > 0 {
		out += fmt.Sprintf("%dд ", days)
	}
	if hours > 0 {
		out += fmt.Sprintf("%dч ", hours)
	}
	if minutes > 0 {
		out += fmt.Sprintf("%dм", minutes)
	}
	if out[len(out)-1] == ' ' {
		out = out[:len(out)-1]
	}
	return out
}
