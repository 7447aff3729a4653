package utils

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	apperrors "facility-crm/pkg/errors"
	"facility-crm/pkg/types"

	"github.com/labstack/echo/v4"
)

// BindPatch разбирает тело частичного обновления в dst и возвращает список
// присланных полей, чтобы отличить "не прислано" от явного null.
func BindPatch(c echo.Context, dst interface{}) (types.SentFields, error) {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return nil, apperrors.NewHttpError(http.StatusBadRequest, "Не удалось прочитать тело запроса", err, nil)
	}
	c.Request().Body = io.NopCloser(bytes.NewReader(body))

	if len(bytes.TrimSpace(body)) == 0 {
		body = []byte("{}")
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, apperrors.NewHttpError(http.StatusBadRequest, "Неверный формат запроса", err, nil)
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return nil, apperrors.NewHttpError(http.StatusBadRequest, "Неверный формат запроса", err, nil)
	}
	if err := c.Validate(dst); err != nil {
		return nil, err
	}

	sent := make(types.SentFields, len(raw))
	for key, value := range raw {
		sent[key] = bytes.Equal(bytes.TrimSpace(value), []byte("null"))
	}
	return sent, nil
}
